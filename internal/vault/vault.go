// Package vault holds the credential primitives: one-way password hashing
// and reversible authenticated encryption for the outbound-mail secret.
package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"os"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

const (
	// KeyEnvVar names the environment variable carrying the hex encoded 32 byte AEAD key.
	KeyEnvVar = "MAIL_ENCRYPTION_KEY"

	// hashCost is the bcrypt work factor used for all stored password hashes.
	hashCost = 10

	keySize   = 32
	nonceSize = 12
	tagSize   = 16
)

// HashPassword hashes a plaintext password with bcrypt.
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), hashCost)
	if err != nil {
		return "", err
	}

	return string(hashed), nil
}

// CheckPassword verifies a plaintext password against a stored bcrypt hash.
// The comparison is constant time. Returns true if the password matches.
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// Vault encrypts and decrypts secrets with AES-256-GCM using a server-wide key.
// A Vault without a key refuses to encrypt and fails every decrypt; callers
// decide how to degrade (see the mailer's plaintext fallback).
type Vault struct {
	key []byte
}

// New creates a Vault from a raw 32 byte key. An empty key yields a keyless
// Vault; any other length is rejected.
func New(key []byte) (*Vault, error) {
	if len(key) != 0 && len(key) != keySize {
		return nil, ErrBadKeyLength
	}

	return &Vault{key: key}, nil
}

// NewFromEnv builds a Vault from the MAIL_ENCRYPTION_KEY environment variable.
// A missing or malformed key is a configuration error: it is logged loudly and
// the returned Vault stores secrets effectively in clear.
func NewFromEnv() *Vault {
	raw := os.Getenv(KeyEnvVar)
	if raw == "" {
		log.Error().Str("env", KeyEnvVar).Msg("mail encryption key not set, smtp secrets will be stored in clear")
		return &Vault{}
	}

	key, err := hex.DecodeString(raw)
	if err != nil || len(key) != keySize {
		log.Error().Str("env", KeyEnvVar).Msg("mail encryption key is not a hex encoded 32 byte value, ignoring it")
		return &Vault{}
	}

	return &Vault{key: key}
}

// HasKey reports whether the Vault holds a usable encryption key.
func (v *Vault) HasKey() bool {
	return len(v.key) == keySize
}

// Encrypt seals a plaintext secret and returns base64(nonce || tag || ciphertext)
// with a fresh random nonce per call. Empty plaintext and keyless Vaults are
// rejected with sentinel errors.
func (v *Vault) Encrypt(plain string) (string, error) {
	if plain == "" {
		return "", ErrEmptyPlaintext
	}

	if !v.HasKey() {
		return "", ErrNoKey
	}

	block, err := aes.NewCipher(v.key)
	if err != nil {
		return "", err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}

	// Go's GCM appends the tag to the ciphertext; the stored layout is
	// nonce || tag || ciphertext, so split and reorder before encoding.
	sealed := gcm.Seal(nil, nonce, []byte(plain), nil)
	ct := sealed[:len(sealed)-tagSize]
	tag := sealed[len(sealed)-tagSize:]

	out := make([]byte, 0, nonceSize+tagSize+len(ct))
	out = append(out, nonce...)
	out = append(out, tag...)
	out = append(out, ct...)

	return base64.StdEncoding.EncodeToString(out), nil
}

// Decrypt opens a value produced by Encrypt. It fails closed: malformed
// base64, truncated input, a wrong tag or a keyless Vault all return an error
// and never panic past the caller.
func (v *Vault) Decrypt(encoded string) (string, error) {
	if encoded == "" {
		return "", ErrEmptyCiphertext
	}

	if !v.HasKey() {
		return "", ErrNoKey
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", ErrMalformedCiphertext
	}

	if len(data) < nonceSize+tagSize {
		return "", ErrMalformedCiphertext
	}

	nonce := data[:nonceSize]
	tag := data[nonceSize : nonceSize+tagSize]
	ct := data[nonceSize+tagSize:]

	block, err := aes.NewCipher(v.key)
	if err != nil {
		return "", err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	sealed := make([]byte, 0, len(ct)+tagSize)
	sealed = append(sealed, ct...)
	sealed = append(sealed, tag...)

	plain, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", ErrMalformedCiphertext
	}

	return string(plain), nil
}
