package security

import (
	"crypto/sha1" //nolint:gosec
	"crypto/x509"
	"encoding/base64"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"software.sslmate.com/src/go-pkcs12"

	apperrors "github.com/kbukum/transcriptfeed/errors"
	"github.com/kbukum/transcriptfeed/security/tlstest"
)

func TestLoadCertificateFile_PEMBundle(t *testing.T) {
	certs := tlstest.Generate(t)

	cert, err := LoadCertificateFile(certs.BundleFile, "")
	if err != nil {
		t.Fatalf("LoadCertificateFile: %v", err)
	}
	if !cert.Leaf.Equal(certs.Leaf) {
		t.Error("expected the leaf matching the key, not the CA")
	}
	key, err := cert.RSAPrivateKey()
	if err != nil {
		t.Fatalf("RSAPrivateKey: %v", err)
	}
	if !key.Equal(certs.Key) {
		t.Error("unexpected private key")
	}
}

func TestLoadCertificateFile_SeparateFilesConcatenated(t *testing.T) {
	certs := tlstest.Generate(t)
	certPEM, _ := os.ReadFile(certs.CertFile)
	keyPEM, _ := os.ReadFile(certs.KeyFile)
	path := filepath.Join(t.TempDir(), "combined.crt")
	if err := os.WriteFile(path, append(keyPEM, certPEM...), 0o600); err != nil {
		t.Fatal(err)
	}

	cert, err := LoadCertificateFile(path, "")
	if err != nil {
		t.Fatalf("LoadCertificateFile: %v", err)
	}
	if !cert.Leaf.Equal(certs.Leaf) {
		t.Error("unexpected certificate")
	}
}

func writePFX(t *testing.T, enc *pkcs12.Encoder, certs *tlstest.Certs, password string) string {
	t.Helper()
	data, err := enc.Encode(certs.Key, certs.Leaf, []*x509.Certificate{certs.CA}, password)
	if err != nil {
		t.Fatalf("encode pfx: %v", err)
	}
	path := filepath.Join(t.TempDir(), "cert.pfx")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadCertificateFile_PKCS12(t *testing.T) {
	certs := tlstest.Generate(t)

	tests := []struct {
		name string
		enc  *pkcs12.Encoder
	}{
		{"pbes2 aes-256 with sha-256 mac", pkcs12.Modern},
		{"legacy rc2", pkcs12.LegacyRC2},
		{"legacy 3des", pkcs12.LegacyDES},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writePFX(t, tt.enc, certs, "pw")

			cert, err := LoadCertificateFile(path, "pw")
			if err != nil {
				t.Fatalf("LoadCertificateFile: %v", err)
			}
			if !cert.Leaf.Equal(certs.Leaf) {
				t.Error("expected the leaf certificate, not the CA")
			}
			key, err := cert.RSAPrivateKey()
			if err != nil {
				t.Fatalf("RSAPrivateKey: %v", err)
			}
			if !key.Equal(certs.Key) {
				t.Error("unexpected private key")
			}

			if _, err := LoadCertificateFile(path, "wrong"); err == nil {
				t.Error("expected error for wrong password")
			}
		})
	}
}

func TestLoadCertificateFile_Errors(t *testing.T) {
	certs := tlstest.Generate(t)
	dir := t.TempDir()
	notPFX := filepath.Join(dir, "broken.pfx")
	os.WriteFile(notPFX, []byte("not a pkcs12 archive"), 0o600)

	tests := []struct {
		name string
		path string
	}{
		{"missing file", filepath.Join(dir, "missing.pem")},
		{"certificate only", certs.CertFile},
		{"key only", certs.KeyFile},
		{"invalid pem", tlstest.WriteInvalidPEM(t, "bad.pem")},
		{"invalid pkcs12", notPFX},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadCertificateFile(tt.path, "pw"); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestCertificate_Thumbprints(t *testing.T) {
	certs := tlstest.Generate(t)
	cert := &Certificate{Leaf: certs.Leaf, PrivateKey: certs.Key}

	sum := sha1.Sum(certs.Leaf.Raw) //nolint:gosec
	if got, want := cert.Thumbprint(), strings.ToUpper(hex.EncodeToString(sum[:])); got != want {
		t.Errorf("Thumbprint() = %s, want %s", got, want)
	}
	if got, want := cert.X5T(), base64.RawURLEncoding.EncodeToString(sum[:]); got != want {
		t.Errorf("X5T() = %s, want %s", got, want)
	}
	der, err := base64.StdEncoding.DecodeString(cert.PublicBase64())
	if err != nil || string(der) != string(certs.Leaf.Raw) {
		t.Error("PublicBase64 should round-trip to the DER certificate")
	}
}

func TestCertificate_RSAPrivateKey_Missing(t *testing.T) {
	certs := tlstest.Generate(t)
	if _, err := (&Certificate{Leaf: certs.Leaf}).RSAPrivateKey(); err == nil {
		t.Fatal("expected error without private key")
	}
	var nilCert *Certificate
	if _, err := nilCert.RSAPrivateKey(); err == nil {
		t.Fatal("expected error for nil certificate")
	}
}

func TestDirectoryStore_FindByThumbprint(t *testing.T) {
	certs := tlstest.Generate(t)
	dir := t.TempDir()
	bundle, _ := os.ReadFile(certs.BundleFile)
	os.WriteFile(filepath.Join(dir, "app.pem"), bundle, 0o600)
	os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o600)

	store := &DirectoryStore{Dir: dir}
	want := (&Certificate{Leaf: certs.Leaf}).Thumbprint()

	cert, err := store.FindByThumbprint(strings.ToLower(want))
	if err != nil {
		t.Fatalf("FindByThumbprint: %v", err)
	}
	if cert.Thumbprint() != want {
		t.Errorf("unexpected certificate %s", cert.Thumbprint())
	}

	_, err = store.FindByThumbprint("00112233445566778899AABBCCDDEEFF00112233")
	if !apperrors.HasCode(err, apperrors.ErrCodeNotFound) {
		t.Errorf("expected NOT_FOUND, got %v", err)
	}
	_, err = store.FindByThumbprint("  ")
	if !apperrors.HasCode(err, apperrors.ErrCodeInvalidInput) {
		t.Errorf("expected INVALID_INPUT, got %v", err)
	}
}

func TestDirectoryStore_FindsModernPFX(t *testing.T) {
	certs := tlstest.Generate(t)
	data, _ := os.ReadFile(writePFX(t, pkcs12.Modern, certs, "secret"))
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "app.pfx"), data, 0o600)

	want := (&Certificate{Leaf: certs.Leaf}).Thumbprint()
	cert, err := (&DirectoryStore{Dir: dir, Password: "secret"}).FindByThumbprint(want)
	if err != nil {
		t.Fatalf("FindByThumbprint: %v", err)
	}
	if cert.Thumbprint() != want {
		t.Errorf("unexpected certificate %s", cert.Thumbprint())
	}
}

func TestFileSource_CachesAfterSuccess(t *testing.T) {
	certs := tlstest.Generate(t)
	path := filepath.Join(t.TempDir(), "notify.pem")

	src := NewFileSource(path, "")
	if _, err := src.Certificate(); err == nil {
		t.Fatal("expected error before the file exists")
	}

	bundle, _ := os.ReadFile(certs.BundleFile)
	os.WriteFile(path, bundle, 0o600)
	first, err := src.Certificate()
	if err != nil {
		t.Fatalf("Certificate: %v", err)
	}

	os.Remove(path)
	second, err := src.Certificate()
	if err != nil {
		t.Fatalf("expected cached certificate, got %v", err)
	}
	if first != second {
		t.Error("expected the same cached certificate")
	}
}

func TestStoreSource_ResolvesAndCaches(t *testing.T) {
	certs := tlstest.Generate(t)
	dir := t.TempDir()
	bundle, _ := os.ReadFile(certs.BundleFile)
	path := filepath.Join(dir, "app.pem")
	os.WriteFile(path, bundle, 0o600)

	thumb := (&Certificate{Leaf: certs.Leaf}).Thumbprint()
	src := NewStoreSource(&DirectoryStore{Dir: dir}, thumb)
	first, err := src.Certificate()
	if err != nil {
		t.Fatalf("Certificate: %v", err)
	}

	os.Remove(path)
	second, err := src.Certificate()
	if err != nil || second != first {
		t.Fatalf("expected cached certificate, got %v", err)
	}

	missing := NewStoreSource(&DirectoryStore{Dir: dir}, thumb)
	if _, err := missing.Certificate(); !apperrors.HasCode(err, apperrors.ErrCodeNotFound) {
		t.Errorf("expected NOT_FOUND, got %v", err)
	}
}
