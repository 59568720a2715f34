package secrets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"

	"golang.org/x/crypto/argon2"
)

const (
	saltSize    = 16
	keySize     = 32
	nonceSize   = 12
	memory      = 64 * 1024
	iterations  = 1
	parallelism = 4
)

// Derives a 32-byte key from a password and salt using Argon2id
func deriveKey(password, salt []byte) []byte {
	return argon2.IDKey(password, salt, iterations, memory, uint8(parallelism), keySize)
}

// Encrypt seals data with a key derived from password. Format: [salt|nonce|ciphertext]
func Encrypt(data []byte, password string) ([]byte, error) {
	if password == "" {
		return nil, ErrMissingKey
	}
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}

	aesgcm, err := newGCM(password, salt)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, nonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	ciphertext := aesgcm.Seal(nil, nonce, data, nil)

	result := make([]byte, 0, saltSize+nonceSize+len(ciphertext))
	result = append(result, salt...)
	result = append(result, nonce...)
	result = append(result, ciphertext...)
	return result, nil
}

// Decrypt opens a blob produced by Encrypt.
func Decrypt(blob []byte, password string) ([]byte, error) {
	if password == "" {
		return nil, ErrMissingKey
	}
	if len(blob) < saltSize+nonceSize {
		return nil, fmt.Errorf("invalid blob length")
	}

	salt := blob[:saltSize]
	nonce := blob[saltSize : saltSize+nonceSize]
	ciphertext := blob[saltSize+nonceSize:]

	aesgcm, err := newGCM(password, salt)
	if err != nil {
		return nil, err
	}
	plaintext, err := aesgcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrDecrypt.Err(err)
	}
	return plaintext, nil
}

func newGCM(password string, salt []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(deriveKey([]byte(password), salt))
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// EncryptString is Encrypt for values stored in text columns.
func EncryptString(plain, password string) (string, error) {
	blob, err := Encrypt([]byte(plain), password)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(blob), nil
}

func DecryptString(encoded, password string) (string, error) {
	blob, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", ErrDecrypt.Err(err)
	}
	plain, err := Decrypt(blob, password)
	if err != nil {
		return "", err
	}
	return string(plain), nil
}
