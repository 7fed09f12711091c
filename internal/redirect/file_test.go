package redirect

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// waitFor polls until cond returns true or the timeout expires.
func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}

		time.Sleep(20 * time.Millisecond)
	}

	t.Fatal("timed out waiting for condition")
}

// startFileSource runs a FileSource over a temp handoff dir.
func startFileSource(t *testing.T) (*FileSource, string) {
	t.Helper()

	dir := filepath.Join(t.TempDir(), "callbacks")

	s, err := NewFileSource(dir, slog.Default())
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)

	go func() {
		errCh <- s.Run(ctx)
	}()

	// Give fsnotify a moment to set up the watch.
	time.Sleep(50 * time.Millisecond)

	t.Cleanup(func() {
		cancel()

		err := <-errCh
		if err != nil && !errors.Is(err, context.Canceled) {
			t.Errorf("file source error: %v", err)
		}
	})

	return s, dir
}

func TestFileSource_DeliversCallback(t *testing.T) {
	s, dir := startFileSource(t)
	ch := s.Subscribe("xyz")

	uri := "pilot://auth/callback?state=xyz&accessToken=A1&refreshToken=R1&name=Ada&email=ada%40x.com"
	path := filepath.Join(dir, "cb-1")
	if err := os.WriteFile(path, []byte(uri+"\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	select {
	case cb := <-ch:
		if got := cb.Params.Get("accessToken"); got != "A1" {
			t.Fatalf("accessToken = %q, want A1", got)
		}
		if got := cb.Params.Get("name"); got != "Ada" {
			t.Fatalf("name = %q, want Ada", got)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("callback not delivered")
	}

	// The handoff file is removed after processing.
	waitFor(t, 2*time.Second, func() bool {
		_, err := os.Stat(path)
		return os.IsNotExist(err)
	})
}

func TestFileSource_ConsumesPreexistingFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "callbacks")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		t.Fatal(err)
	}

	uri := "pilot://auth/callback?state=cold&accessToken=A1"
	if err := os.WriteFile(filepath.Join(dir, "cb-0"), []byte(uri), 0o600); err != nil {
		t.Fatal(err)
	}

	s, err := NewFileSource(dir, slog.Default())
	if err != nil {
		t.Fatal(err)
	}
	ch := s.Subscribe("cold")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Run(ctx)
	}()

	select {
	case cb := <-ch:
		if got := cb.Params.Get("accessToken"); got != "A1" {
			t.Fatalf("accessToken = %q, want A1", got)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("pre-existing callback not delivered")
	}

	cancel()
	<-errCh
}

func TestFileSource_MalformedFileRemoved(t *testing.T) {
	_, dir := startFileSource(t)

	path := filepath.Join(dir, "junk")
	if err := os.WriteFile(path, []byte("://not-a-uri\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	waitFor(t, 2*time.Second, func() bool {
		_, err := os.Stat(path)
		return os.IsNotExist(err)
	})
}
