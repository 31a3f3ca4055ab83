package credentials

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	errs "dhan-trader/internal/errors"
)

func writeToken(t *testing.T, path, token string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(token), 0600); err != nil {
		t.Fatal(err)
	}
}

func TestFileSourceReadsToken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dhan_token.txt")
	writeToken(t, path, "  token-abc\n")

	source := NewFileSource(path)
	token, err := source.Token()
	if err != nil {
		t.Fatal(err)
	}
	if token != "token-abc" {
		t.Errorf("expected trimmed token, got %q", token)
	}
}

func TestFileSourceIdempotentReads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dhan_token.txt")
	writeToken(t, path, "token-abc")

	source := NewFileSource(path)
	for i := 0; i < 10; i++ {
		token, err := source.Token()
		if err != nil {
			t.Fatal(err)
		}
		if token != "token-abc" {
			t.Errorf("call %d: got %q", i, token)
		}
	}
	if reads := source.StoreReads(); reads != 1 {
		t.Errorf("unchanged file must be read once, got %d reads", reads)
	}
}

func TestFileSourcePicksUpRotation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dhan_token.txt")
	writeToken(t, path, "token-1")

	source := NewFileSource(path)
	if _, err := source.Token(); err != nil {
		t.Fatal(err)
	}

	writeToken(t, path, "token-2")
	// Force a distinct mtime regardless of filesystem granularity.
	future := time.Now().Add(2 * time.Second)
	if err := os.Chtimes(path, future, future); err != nil {
		t.Fatal(err)
	}

	token, err := source.Token()
	if err != nil {
		t.Fatal(err)
	}
	if token != "token-2" {
		t.Errorf("expected rotated token, got %q", token)
	}
	if reads := source.StoreReads(); reads != 2 {
		t.Errorf("expected exactly two reads, got %d", reads)
	}
}

func TestFileSourceMissingFile(t *testing.T) {
	source := NewFileSource(filepath.Join(t.TempDir(), "missing.txt"))

	_, err := source.Token()
	if !errors.Is(err, errs.ErrCredentialUnavailable) {
		t.Errorf("expected ErrCredentialUnavailable, got %v", err)
	}
}

func TestFileSourceEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dhan_token.txt")
	writeToken(t, path, "   \n")

	source := NewFileSource(path)
	_, err := source.Token()
	if !errors.Is(err, errs.ErrCredentialUnavailable) {
		t.Errorf("expected ErrCredentialUnavailable for empty file, got %v", err)
	}
}

func TestStaticSource(t *testing.T) {
	token, err := Static("token-abc").Token()
	if err != nil || token != "token-abc" {
		t.Errorf("unexpected result %q, %v", token, err)
	}
	if _, err := Static("").Token(); !errors.Is(err, errs.ErrCredentialUnavailable) {
		t.Errorf("empty static source must be unavailable, got %v", err)
	}
}
