package vault

import (
	"errors"
)

var (
	// ErrNoKey is returned when no encryption key is configured.
	ErrNoKey = errors.New("no mail encryption key configured")

	// ErrBadKeyLength is returned when a key is neither empty nor 32 bytes.
	ErrBadKeyLength = errors.New("encryption key must be 32 bytes")

	// ErrEmptyPlaintext is returned when encrypting an empty value.
	ErrEmptyPlaintext = errors.New("plaintext can not be empty")

	// ErrEmptyCiphertext is returned when decrypting an empty value.
	ErrEmptyCiphertext = errors.New("ciphertext can not be empty")

	// ErrMalformedCiphertext is returned when a value can not be decrypted.
	ErrMalformedCiphertext = errors.New("malformed or tampered ciphertext")
)
