package security

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/rsa"
	"crypto/sha1" //nolint:gosec // thumbprints are SHA-1 by definition
	"crypto/x509"
	"encoding/base64"
	"encoding/hex"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"software.sslmate.com/src/go-pkcs12"
)

// Certificate pairs an X.509 certificate with its private key.
type Certificate struct {
	Leaf       *x509.Certificate
	PrivateKey crypto.PrivateKey
}

// Thumbprint returns the upper-case hex SHA-1 of the DER certificate, the
// form used to reference certificates in configuration and notifications.
func (c *Certificate) Thumbprint() string {
	sum := sha1.Sum(c.Leaf.Raw) //nolint:gosec
	return strings.ToUpper(hex.EncodeToString(sum[:]))
}

// X5T returns the base64url SHA-1 thumbprint used in JWT headers.
func (c *Certificate) X5T() string {
	sum := sha1.Sum(c.Leaf.Raw) //nolint:gosec
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// PublicBase64 returns the DER certificate in standard base64, without the key.
func (c *Certificate) PublicBase64() string {
	return base64.StdEncoding.EncodeToString(c.Leaf.Raw)
}

// RSAPrivateKey returns the private key if it is an RSA key.
func (c *Certificate) RSAPrivateKey() (*rsa.PrivateKey, error) {
	if c == nil || c.PrivateKey == nil {
		return nil, errors.New("security/cert: certificate has no private key")
	}
	key, ok := c.PrivateKey.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("security/cert: private key is %T, not RSA", c.PrivateKey)
	}
	return key, nil
}

// LoadCertificateFile reads a certificate and key from disk. Files ending in
// .pfx or .p12 are decoded as PKCS#12 with password; anything else is read
// as PEM holding a certificate and an unencrypted key.
func LoadCertificateFile(path, password string) (*Certificate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("security/cert: failed to read %s: %w", path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pfx", ".p12":
		return ParsePKCS12(data, password)
	default:
		return ParsePEM(data)
	}
}

// ParsePKCS12 decodes a PKCS#12 archive. Both legacy RC2/3DES archives and
// PBES2 (AES, SHA-256 MAC) archives are accepted. CA certificates in the
// archive are ignored.
func ParsePKCS12(data []byte, password string) (*Certificate, error) {
	key, leaf, _, err := pkcs12.DecodeChain(data, password)
	if err != nil {
		return nil, fmt.Errorf("security/cert: failed to decode PKCS#12: %w", err)
	}
	if !publicKeyMatches(leaf.PublicKey, key) {
		return nil, errors.New("security/cert: private key does not match the PKCS#12 certificate")
	}
	return &Certificate{Leaf: leaf, PrivateKey: key}, nil
}

// ParsePEM reads the first private key and the certificate matching it.
func ParsePEM(data []byte) (*Certificate, error) {
	var (
		certs []*x509.Certificate
		key   crypto.PrivateKey
	)
	for {
		var block *pem.Block
		block, data = pem.Decode(data)
		if block == nil {
			break
		}
		switch {
		case block.Type == "CERTIFICATE":
			cert, err := x509.ParseCertificate(block.Bytes)
			if err != nil {
				return nil, fmt.Errorf("security/cert: failed to parse certificate: %w", err)
			}
			certs = append(certs, cert)
		case strings.HasSuffix(block.Type, "PRIVATE KEY") && key == nil:
			k, err := parsePrivateKey(block.Bytes)
			if err != nil {
				return nil, err
			}
			key = k
		}
	}

	if len(certs) == 0 {
		return nil, errors.New("security/cert: no certificate found")
	}
	if key == nil {
		return nil, errors.New("security/cert: no private key found")
	}
	for _, cert := range certs {
		if publicKeyMatches(cert.PublicKey, key) {
			return &Certificate{Leaf: cert, PrivateKey: key}, nil
		}
	}
	return nil, errors.New("security/cert: private key does not match any certificate")
}

// parsePrivateKey accepts PKCS#1, PKCS#8 and SEC 1 encodings.
func parsePrivateKey(der []byte) (crypto.PrivateKey, error) {
	if key, err := x509.ParsePKCS1PrivateKey(der); err == nil {
		return key, nil
	}
	if key, err := x509.ParsePKCS8PrivateKey(der); err == nil {
		return key, nil
	}
	if key, err := x509.ParseECPrivateKey(der); err == nil {
		return key, nil
	}
	return nil, errors.New("security/cert: unsupported private key encoding")
}

func publicKeyMatches(pub crypto.PublicKey, key crypto.PrivateKey) bool {
	type equaler interface{ Equal(crypto.PublicKey) bool }
	switch k := key.(type) {
	case *rsa.PrivateKey:
		return k.PublicKey.Equal(pub)
	case *ecdsa.PrivateKey:
		return k.PublicKey.Equal(pub)
	case interface{ Public() crypto.PublicKey }:
		if e, ok := k.Public().(equaler); ok {
			return e.Equal(pub)
		}
	}
	return false
}
