// Package crypto provides the AES-256-GCM encryption and argon2 key
// derivation the vault uses to keep connection secrets off disk in
// plaintext.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"

	"golang.org/x/crypto/argon2"
)

const (
	// SaltLength is the number of random bytes used as the argon2 salt.
	SaltLength = 16

	// KeyLength is the AES-256 key size in bytes.
	KeyLength = 32

	argonTime    = 3
	argonMemory  = 64 * 1024 // 64 MiB
	argonThreads = 2
)

// Canary is the fixed plaintext whose successful round-trip decryption
// proves a derived key matches the key that encrypted the vault's secrets.
const Canary = "s3browser-key-check-v1"

// NewSalt returns SaltLength fresh random bytes.
func NewSalt() ([]byte, error) {
	salt := make([]byte, SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("generating salt: %w", err)
	}
	return salt, nil
}

// DeriveKey runs argon2id over secret and salt to produce a 32-byte AES key.
// Argon2 is the memory-hard KDF; it is used here rather than bcrypt because
// bcrypt only hashes passwords for comparison, it does not derive symmetric
// key material.
func DeriveKey(secret []byte, salt []byte) []byte {
	return argon2.IDKey(secret, salt, argonTime, argonMemory, argonThreads, KeyLength)
}

// Encrypt seals plaintext under key, returning nonce||ciphertext||tag.
func Encrypt(key, plaintext []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("creating cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("creating gcm: %w", err)
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generating nonce: %w", err)
	}

	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

// Decrypt opens a ciphertext produced by Encrypt. A mismatched key or
// corrupted ciphertext returns an error; callers must treat that as fatal
// when decrypting the key-check canary.
func Decrypt(key, sealed []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("creating cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("creating gcm: %w", err)
	}

	nonceSize := gcm.NonceSize()
	if len(sealed) < nonceSize {
		return nil, fmt.Errorf("ciphertext too short")
	}

	nonce, ciphertext := sealed[:nonceSize], sealed[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("decrypting: %w", err)
	}

	return plaintext, nil
}
