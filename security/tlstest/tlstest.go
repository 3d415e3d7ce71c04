// Package tlstest generates throwaway RSA certificates for tests. Files are
// written under t.TempDir() and removed when the test ends.
//
//	certs := tlstest.Generate(t)
//	// certs.BundleFile holds the leaf certificate and its key in one PEM file
package tlstest

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// Certs holds a test CA and a leaf certificate signed by it.
type Certs struct {
	CAFile     string
	CertFile   string
	KeyFile    string
	BundleFile string

	CA   *x509.Certificate
	Leaf *x509.Certificate
	Key  *rsa.PrivateKey
}

// Generate creates a CA and an RSA leaf certificate valid for localhost.
// The leaf key is usable for TLS, JWT signing and RSA-OAEP.
func Generate(t testing.TB) *Certs {
	t.Helper()
	dir := t.TempDir()

	caKey := newKey(t)
	caTemplate := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{Organization: []string{"transcriptfeed test CA"}},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(24 * time.Hour),
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageCRLSign,
		BasicConstraintsValid: true,
		IsCA:                  true,
	}
	caDER, err := x509.CreateCertificate(rand.Reader, caTemplate, caTemplate, &caKey.PublicKey, caKey)
	if err != nil {
		t.Fatalf("tlstest: create CA cert: %v", err)
	}
	ca, err := x509.ParseCertificate(caDER)
	if err != nil {
		t.Fatalf("tlstest: parse CA cert: %v", err)
	}

	key := newKey(t)
	leafTemplate := &x509.Certificate{
		SerialNumber: big.NewInt(2),
		Subject:      pkix.Name{CommonName: "localhost"},
		DNSNames:     []string{"localhost"},
		IPAddresses:  []net.IP{net.IPv4(127, 0, 0, 1), net.IPv6loopback},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(24 * time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment | x509.KeyUsageDataEncipherment,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth, x509.ExtKeyUsageClientAuth},
	}
	leafDER, err := x509.CreateCertificate(rand.Reader, leafTemplate, ca, &key.PublicKey, caKey)
	if err != nil {
		t.Fatalf("tlstest: create leaf cert: %v", err)
	}
	leaf, err := x509.ParseCertificate(leafDER)
	if err != nil {
		t.Fatalf("tlstest: parse leaf cert: %v", err)
	}

	keyDER, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		t.Fatalf("tlstest: marshal key: %v", err)
	}

	certs := &Certs{
		CAFile:     filepath.Join(dir, "ca.pem"),
		CertFile:   filepath.Join(dir, "cert.pem"),
		KeyFile:    filepath.Join(dir, "key.pem"),
		BundleFile: filepath.Join(dir, "bundle.pem"),
		CA:         ca,
		Leaf:       leaf,
		Key:        key,
	}
	writePEM(t, certs.CAFile, &pem.Block{Type: "CERTIFICATE", Bytes: caDER})
	writePEM(t, certs.CertFile, &pem.Block{Type: "CERTIFICATE", Bytes: leafDER})
	writePEM(t, certs.KeyFile, &pem.Block{Type: "PRIVATE KEY", Bytes: keyDER})
	writePEM(t, certs.BundleFile,
		&pem.Block{Type: "CERTIFICATE", Bytes: caDER},
		&pem.Block{Type: "CERTIFICATE", Bytes: leafDER},
		&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)},
	)
	return certs
}

// WriteInvalidPEM writes a file that looks like PEM but holds no valid data.
func WriteInvalidPEM(t testing.TB, filename string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), filename)
	content := []byte("-----BEGIN CERTIFICATE-----\nnot-valid-base64-data\n-----END CERTIFICATE-----\n")
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("tlstest: write invalid PEM: %v", err)
	}
	return path
}

func newKey(t testing.TB) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("tlstest: generate key: %v", err)
	}
	return key
}

func writePEM(t testing.TB, path string, blocks ...*pem.Block) {
	t.Helper()
	var out []byte
	for _, b := range blocks {
		out = append(out, pem.EncodeToMemory(b)...)
	}
	if err := os.WriteFile(path, out, 0o600); err != nil {
		t.Fatalf("tlstest: write %s: %v", path, err)
	}
}
