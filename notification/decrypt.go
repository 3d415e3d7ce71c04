package notification

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1" //nolint:gosec // OAEP digest mandated by the sender
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"

	apperrors "github.com/kbukum/transcriptfeed/errors"
	"github.com/kbukum/transcriptfeed/meeting"
	"github.com/kbukum/transcriptfeed/security"
)

// Decrypt verifies and decrypts one encrypted notification payload.
//
// The data key is RSA-OAEP (SHA-1) wrapped with the certificate's public key.
// The HMAC-SHA256 of the ciphertext under that key must equal the signature
// before anything is decrypted. The payload is AES-CBC with PKCS#7 padding,
// and the IV is the first 16 bytes of the data key.
func Decrypt(content meeting.EncryptedContent, cert *security.Certificate) (string, error) {
	privateKey, err := cert.RSAPrivateKey()
	if err != nil {
		return "", apperrors.KeyUnwrap(err)
	}

	wrappedKey, err := base64.StdEncoding.DecodeString(content.DataKey)
	if err != nil {
		return "", apperrors.KeyUnwrap(fmt.Errorf("decode dataKey: %w", err))
	}
	key, err := rsa.DecryptOAEP(sha1.New(), rand.Reader, privateKey, wrappedKey, nil) //nolint:gosec
	if err != nil {
		return "", apperrors.KeyUnwrap(err)
	}

	ciphertext, err := base64.StdEncoding.DecodeString(content.Data)
	if err != nil {
		return "", apperrors.PayloadDecrypt(fmt.Errorf("decode data: %w", err))
	}
	signature, err := base64.StdEncoding.DecodeString(content.DataSignature)
	if err != nil {
		return "", apperrors.SignatureMismatch()
	}

	mac := hmac.New(sha256.New, key)
	mac.Write(ciphertext)
	if !hmac.Equal(mac.Sum(nil), signature) {
		return "", apperrors.SignatureMismatch()
	}

	plaintext, err := decryptCBC(key, ciphertext)
	if err != nil {
		return "", apperrors.PayloadDecrypt(err)
	}
	return string(plaintext), nil
}

func decryptCBC(key, ciphertext []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	if len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("ciphertext length %d is not a multiple of the block size", len(ciphertext))
	}
	out := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, key[:aes.BlockSize]).CryptBlocks(out, ciphertext)
	return unpad(out, aes.BlockSize)
}

var errBadPadding = errors.New("invalid PKCS#7 padding")

func unpad(b []byte, blockSize int) ([]byte, error) {
	n := int(b[len(b)-1])
	if n == 0 || n > blockSize || n > len(b) {
		return nil, errBadPadding
	}
	for _, c := range b[len(b)-n:] {
		if int(c) != n {
			return nil, errBadPadding
		}
	}
	return b[:len(b)-n], nil
}
