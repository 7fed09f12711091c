package secret

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"

	"golang.org/x/crypto/scrypt"
)

const (
	// scryptN is the CPU/memory cost parameter for scrypt key derivation.
	scryptN = 32768

	// scryptR is the block size parameter for scrypt key derivation.
	scryptR = 8

	// scryptP is the parallelization parameter for scrypt key derivation.
	scryptP = 1

	// scryptKeyLen is the derived key length in bytes.
	scryptKeyLen = 32

	// saltLen is the length of the random per-database salt.
	saltLen = 16
)

// deriveKey derives a 32-byte encryption key from passphrase and salt
// using scrypt.
func deriveKey(passphrase string, salt []byte) ([]byte, error) {
	key, err := scrypt.Key([]byte(passphrase), salt, scryptN, scryptR, scryptP, scryptKeyLen)
	if err != nil {
		return nil, fmt.Errorf("deriving key: %w", err)
	}

	return key, nil
}

// boxCipher seals and opens secret values with AES-GCM.
// Stored format: [12-byte nonce][ciphertext+GCM tag].
type boxCipher struct {
	gcm cipher.AEAD
}

// newBoxCipher creates a cipher from a 32-byte key. The key slice is
// zeroed before returning to limit how long raw key bytes stay in memory.
func newBoxCipher(key []byte) (*boxCipher, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("creating AES cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("creating GCM: %w", err)
	}

	zeroKey(key)

	return &boxCipher{gcm: gcm}, nil
}

// zeroKey overwrites the key material in the given slice.
func zeroKey(key []byte) {
	for i := range key {
		key[i] = 0
	}
}

// seal encrypts plaintext with a random nonce.
func (c *boxCipher) seal(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, c.gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generating nonce: %w", err)
	}

	return c.gcm.Seal(nonce, nonce, plaintext, nil), nil
}

// open decrypts data produced by seal.
func (c *boxCipher) open(data []byte) ([]byte, error) {
	if len(data) < c.gcm.NonceSize() {
		return nil, fmt.Errorf("ciphertext shorter than nonce")
	}

	nonce, ciphertext := data[:c.gcm.NonceSize()], data[c.gcm.NonceSize():]

	plaintext, err := c.gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("decrypting value: %w", err)
	}

	return plaintext, nil
}
