package secret

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	bolt "go.etcd.io/bbolt"
)

const (
	// dirPerm is the permission mode for the state directory.
	dirPerm = fs.FileMode(0o700)

	// filePerm is the permission mode for the database and key files.
	filePerm = fs.FileMode(0o600)

	// openTimeout is the maximum time to wait for the bolt database lock.
	openTimeout = 5 * time.Second
)

var (
	secretsBucket = []byte("secrets")
	metaBucket    = []byte("meta")
	saltKey       = []byte("salt")
)

// BoltStore is a bbolt-backed Store with values encrypted at rest.
type BoltStore struct {
	db     *bolt.DB
	cipher *boxCipher
}

// OpenBolt opens (creating if needed) the secrets database at path.
// With a non-empty passphrase the encryption key is derived from it
// via scrypt and a per-database salt; otherwise a random key is kept
// in a 0600 key file next to the database.
func OpenBolt(path, passphrase string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), dirPerm); err != nil {
		return nil, fmt.Errorf("creating secrets directory: %w", err)
	}

	db, err := bolt.Open(path, filePerm, &bolt.Options{Timeout: openTimeout})
	if err != nil {
		return nil, fmt.Errorf("opening secrets db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{secretsBucket, metaBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("creating bucket %s: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	key, err := keyMaterial(db, path, passphrase)
	if err != nil {
		db.Close()
		return nil, err
	}

	cipher, err := newBoxCipher(key)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db, cipher: cipher}, nil
}

// keyMaterial resolves the 32-byte encryption key for the store.
func keyMaterial(db *bolt.DB, path, passphrase string) ([]byte, error) {
	if passphrase != "" {
		salt, err := loadOrCreateSalt(db)
		if err != nil {
			return nil, err
		}
		return deriveKey(passphrase, salt)
	}

	return loadOrCreateKeyFile(path + ".key")
}

// loadOrCreateSalt returns the per-database scrypt salt, generating and
// persisting one on first use.
func loadOrCreateSalt(db *bolt.DB) ([]byte, error) {
	var salt []byte

	err := db.Update(func(tx *bolt.Tx) error {
		meta := tx.Bucket(metaBucket)
		if existing := meta.Get(saltKey); existing != nil {
			salt = append([]byte(nil), existing...)
			return nil
		}

		salt = make([]byte, saltLen)
		if _, err := rand.Read(salt); err != nil {
			return fmt.Errorf("generating salt: %w", err)
		}
		return meta.Put(saltKey, salt)
	})
	if err != nil {
		return nil, fmt.Errorf("loading salt: %w", err)
	}

	return salt, nil
}

// loadOrCreateKeyFile returns the raw key stored at path, generating a
// random one on first use.
func loadOrCreateKeyFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err == nil {
		key, decodeErr := hex.DecodeString(strings.TrimSpace(string(data)))
		if decodeErr != nil || len(key) != scryptKeyLen {
			return nil, fmt.Errorf("key file %s is malformed", path)
		}
		return key, nil
	}
	if !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading key file: %w", err)
	}

	key := make([]byte, scryptKeyLen)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generating key: %w", err)
	}

	if err := os.WriteFile(path, []byte(hex.EncodeToString(key)+"\n"), filePerm); err != nil {
		return nil, fmt.Errorf("writing key file: %w", err)
	}

	return key, nil
}

func (s *BoltStore) Get(key string) (string, bool, error) {
	var sealed []byte

	err := s.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(secretsBucket).Get([]byte(key)); v != nil {
			sealed = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return "", false, fmt.Errorf("reading secret %s: %w", key, err)
	}

	if sealed == nil {
		return "", false, nil
	}

	plaintext, err := s.cipher.open(sealed)
	if err != nil {
		return "", false, fmt.Errorf("opening secret %s: %w", key, err)
	}

	return string(plaintext), true, nil
}

func (s *BoltStore) Set(key, value string) error {
	sealed, err := s.cipher.seal([]byte(value))
	if err != nil {
		return fmt.Errorf("sealing secret %s: %w", key, err)
	}

	err = s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(secretsBucket).Put([]byte(key), sealed)
	})
	if err != nil {
		return fmt.Errorf("writing secret %s: %w", key, err)
	}

	return nil
}

func (s *BoltStore) Delete(key string) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(secretsBucket).Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("deleting secret %s: %w", key, err)
	}

	return nil
}

// Close releases the underlying database.
func (s *BoltStore) Close() error {
	return s.db.Close()
}
