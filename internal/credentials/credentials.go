// Package credentials reads the rotating Dhan access token from its backing
// store. Rotation is performed by an external process; this package only
// consumes the rotated value and never writes.
package credentials

import (
	"os"
	"strings"
	"sync"
	"time"

	errs "dhan-trader/internal/errors"
)

// Source yields the current valid bearer token. Implementations must be
// safe to call repeatedly and side-effect free.
type Source interface {
	Token() (string, error)
}

// FileSource reads a token from a file, reloading only when the file's
// modification time changes. This bounds read amplification when the source
// is consulted once per broker call.
type FileSource struct {
	path string

	mu    sync.Mutex
	token string
	mtime time.Time
	// stat counter, observable in tests
	reads int
}

// NewFileSource creates a FileSource for the given path. The file is not
// touched until the first Token call.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Token returns the current token, reloading the file when its timestamp
// changed since the last read. An empty or unreadable file is a
// CredentialUnavailable condition.
func (f *FileSource) Token() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	info, err := os.Stat(f.path)
	if err != nil {
		return "", errs.NewCredentialError(f.path, err)
	}
	if f.token != "" && info.ModTime().Equal(f.mtime) {
		return f.token, nil
	}

	data, err := os.ReadFile(f.path)
	if err != nil {
		return "", errs.NewCredentialError(f.path, err)
	}
	f.reads++
	token := strings.TrimSpace(string(data))
	if token == "" {
		return "", errs.NewCredentialError(f.path, errs.ErrCredentialUnavailable)
	}
	f.token = token
	f.mtime = info.ModTime()
	return f.token, nil
}

// StoreReads reports how many times the backing file has actually been read.
func (f *FileSource) StoreReads() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reads
}

// Static is a fixed-token Source, used by paper runs and tests.
type Static string

// Token returns the fixed token value.
func (s Static) Token() (string, error) {
	if s == "" {
		return "", errs.ErrCredentialUnavailable
	}
	return string(s), nil
}
