package security

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	apperrors "github.com/kbukum/transcriptfeed/errors"
)

var certExtensions = map[string]bool{".pem": true, ".crt": true, ".cer": true, ".pfx": true, ".p12": true}

// DirectoryStore looks certificates up by thumbprint in a directory of
// PEM and PKCS#12 files.
type DirectoryStore struct {
	Dir string
	// Password unlocks PKCS#12 files in Dir.
	Password string
}

// FindByThumbprint returns the certificate whose SHA-1 thumbprint matches.
// Comparison ignores case and embedded spaces or colons.
func (s *DirectoryStore) FindByThumbprint(thumbprint string) (*Certificate, error) {
	want := normalizeThumbprint(thumbprint)
	if want == "" {
		return nil, apperrors.InvalidInput("thumbprint", "certificate thumbprint is empty")
	}

	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		return nil, fmt.Errorf("security/cert: failed to read store %s: %w", s.Dir, err)
	}
	for _, e := range entries {
		if e.IsDir() || !certExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		cert, err := LoadCertificateFile(filepath.Join(s.Dir, e.Name()), s.Password)
		if err != nil {
			continue
		}
		if cert.Thumbprint() == want {
			return cert, nil
		}
	}
	return nil, apperrors.NotFound("certificate", thumbprint)
}

func normalizeThumbprint(s string) string {
	r := strings.NewReplacer(" ", "", ":", "", "\u200e", "")
	return strings.ToUpper(r.Replace(strings.TrimSpace(s)))
}

// FileSource loads one certificate from a file on first use and caches it.
// A failed load is not cached so a corrected file is picked up on retry.
type FileSource struct {
	Path     string
	Password string

	mu   sync.Mutex
	cert *Certificate
}

// NewFileSource creates a FileSource.
func NewFileSource(path, password string) *FileSource {
	return &FileSource{Path: path, Password: password}
}

// Certificate returns the cached certificate, loading it if needed.
func (s *FileSource) Certificate() (*Certificate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cert != nil {
		return s.cert, nil
	}
	cert, err := LoadCertificateFile(s.Path, s.Password)
	if err != nil {
		return nil, err
	}
	s.cert = cert
	return cert, nil
}

// StoreSource resolves one thumbprint from a DirectoryStore on first use and
// caches the result.
type StoreSource struct {
	Store      *DirectoryStore
	Thumbprint string

	mu   sync.Mutex
	cert *Certificate
}

// NewStoreSource creates a StoreSource.
func NewStoreSource(store *DirectoryStore, thumbprint string) *StoreSource {
	return &StoreSource{Store: store, Thumbprint: thumbprint}
}

// Certificate returns the cached certificate, looking it up if needed.
func (s *StoreSource) Certificate() (*Certificate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cert != nil {
		return s.cert, nil
	}
	cert, err := s.Store.FindByThumbprint(s.Thumbprint)
	if err != nil {
		return nil, err
	}
	s.cert = cert
	return cert, nil
}
