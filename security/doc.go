// Package security loads X.509 certificates with private keys and builds
// TLS configuration for outbound clients.
//
// Certificates come from PEM or PKCS#12 files:
//
//	cert, err := security.LoadCertificateFile("notify.pfx", "secret")
//	key, err := cert.RSAPrivateKey()
//
// DirectoryStore finds a certificate by thumbprint, and FileSource caches a
// single file-backed certificate.
package security
