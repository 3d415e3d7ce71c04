package notification

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1" //nolint:gosec
	"crypto/sha256"
	"encoding/base64"
	"strings"
	"testing"

	apperrors "github.com/kbukum/transcriptfeed/errors"
	"github.com/kbukum/transcriptfeed/meeting"
	"github.com/kbukum/transcriptfeed/security"
	"github.com/kbukum/transcriptfeed/security/tlstest"
)

func testCertificate(t *testing.T) *security.Certificate {
	t.Helper()
	certs := tlstest.Generate(t)
	return &security.Certificate{Leaf: certs.Leaf, PrivateKey: certs.Key}
}

// encryptContent builds an envelope the way the webhook sender does.
func encryptContent(t *testing.T, cert *security.Certificate, key, plaintext []byte) meeting.EncryptedContent {
	t.Helper()
	block, err := aes.NewCipher(key)
	if err != nil {
		t.Fatalf("aes: %v", err)
	}
	pad := aes.BlockSize - len(plaintext)%aes.BlockSize
	padded := append(append([]byte{}, plaintext...), bytes.Repeat([]byte{byte(pad)}, pad)...)
	ciphertext := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, key[:aes.BlockSize]).CryptBlocks(ciphertext, padded)

	mac := hmac.New(sha256.New, key)
	mac.Write(ciphertext)

	pub := cert.Leaf.PublicKey.(*rsa.PublicKey)
	wrapped, err := rsa.EncryptOAEP(sha1.New(), rand.Reader, pub, key, nil) //nolint:gosec
	if err != nil {
		t.Fatalf("wrap key: %v", err)
	}

	return meeting.EncryptedContent{
		Data:                            base64.StdEncoding.EncodeToString(ciphertext),
		DataSignature:                   base64.StdEncoding.EncodeToString(mac.Sum(nil)),
		DataKey:                         base64.StdEncoding.EncodeToString(wrapped),
		EncryptionCertificateID:         "notify-cert",
		EncryptionCertificateThumbprint: cert.Thumbprint(),
	}
}

func randomKey(t *testing.T) []byte {
	t.Helper()
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		t.Fatal(err)
	}
	return key
}

func TestDecrypt_RoundTrip(t *testing.T) {
	cert := testCertificate(t)
	key := randomKey(t)

	for _, plaintext := range []string{
		`{"eventType":"callStarted"}`,
		strings.Repeat("x", aes.BlockSize),
		"",
	} {
		got, err := Decrypt(encryptContent(t, cert, key, []byte(plaintext)), cert)
		if err != nil {
			t.Fatalf("Decrypt(%q): %v", plaintext, err)
		}
		if got != plaintext {
			t.Errorf("Decrypt = %q, want %q", got, plaintext)
		}
	}
}

func TestDecrypt_SignatureCorruption(t *testing.T) {
	cert := testCertificate(t)
	content := encryptContent(t, cert, randomKey(t), []byte(`{"eventType":"transcriptionStarted"}`))
	sig, _ := base64.StdEncoding.DecodeString(content.DataSignature)

	for i := range sig {
		corrupted := append([]byte{}, sig...)
		corrupted[i] ^= 0x01
		c := content
		c.DataSignature = base64.StdEncoding.EncodeToString(corrupted)

		got, err := Decrypt(c, cert)
		if !apperrors.HasCode(err, apperrors.ErrCodeSignatureMismatch) {
			t.Fatalf("byte %d: expected SIGNATURE_MISMATCH, got %v", i, err)
		}
		if got != "" {
			t.Fatalf("byte %d: plaintext leaked on mismatch", i)
		}
	}
}

func TestDecrypt_CiphertextTamperingFailsSignature(t *testing.T) {
	cert := testCertificate(t)
	content := encryptContent(t, cert, randomKey(t), []byte("payload"))
	data, _ := base64.StdEncoding.DecodeString(content.Data)
	data[0] ^= 0xff
	content.Data = base64.StdEncoding.EncodeToString(data)

	if _, err := Decrypt(content, cert); !apperrors.HasCode(err, apperrors.ErrCodeSignatureMismatch) {
		t.Fatalf("expected SIGNATURE_MISMATCH, got %v", err)
	}
}

func TestDecrypt_KeyUnwrapFailures(t *testing.T) {
	cert := testCertificate(t)
	other := testCertificate(t)
	content := encryptContent(t, cert, randomKey(t), []byte("payload"))

	tests := []struct {
		name    string
		content meeting.EncryptedContent
		cert    *security.Certificate
	}{
		{"wrong certificate", content, other},
		{"no private key", content, &security.Certificate{Leaf: cert.Leaf}},
		{"bad base64 key", func() meeting.EncryptedContent { c := content; c.DataKey = "%%%"; return c }(), cert},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Decrypt(tt.content, tt.cert); !apperrors.HasCode(err, apperrors.ErrCodeKeyUnwrap) {
				t.Fatalf("expected KEY_UNWRAP_FAILED, got %v", err)
			}
		})
	}
}

func TestDecrypt_PayloadFailures(t *testing.T) {
	cert := testCertificate(t)
	key := randomKey(t)

	// Validly signed ciphertext whose length is not a block multiple.
	short := []byte("abc")
	mac := hmac.New(sha256.New, key)
	mac.Write(short)
	content := encryptContent(t, cert, key, []byte("x"))
	content.Data = base64.StdEncoding.EncodeToString(short)
	content.DataSignature = base64.StdEncoding.EncodeToString(mac.Sum(nil))

	if _, err := Decrypt(content, cert); !apperrors.HasCode(err, apperrors.ErrCodePayloadDecrypt) {
		t.Fatalf("expected PAYLOAD_DECRYPT_FAILED, got %v", err)
	}
}

func TestUnpad(t *testing.T) {
	tests := []struct {
		name    string
		in      []byte
		want    []byte
		wantErr bool
	}{
		{"one byte", []byte{'a', 'b', 'c', 1}, []byte("abc"), false},
		{"full block", bytes.Repeat([]byte{4}, 4), []byte{}, false},
		{"zero pad", []byte{'a', 0}, nil, true},
		{"too large", []byte{'a', 9}, nil, true},
		{"inconsistent", []byte{'a', 1, 2}, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := unpad(tt.in, 4)
			if (err != nil) != tt.wantErr {
				t.Fatalf("unpad error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && !bytes.Equal(got, tt.want) {
				t.Errorf("unpad = %v, want %v", got, tt.want)
			}
		})
	}
}
