package vault

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey(t *testing.T) []byte {
	t.Helper()

	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i)
	}

	return key
}

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$2a$10$"), "hash should use bcrypt cost 10")

	assert.True(t, CheckPassword("correct horse battery staple", hash))
	assert.False(t, CheckPassword("wrong password", hash))
	assert.False(t, CheckPassword("", hash))
}

func TestCheckPasswordGarbageHash(t *testing.T) {
	assert.False(t, CheckPassword("anything", "not-a-bcrypt-hash"))
	assert.False(t, CheckPassword("anything", ""))
}

func TestNew(t *testing.T) {
	testCases := []struct {
		name          string
		key           []byte
		expectedError error
		expectKey     bool
	}{
		{
			name:      "valid 32 byte key",
			key:       testKey(t),
			expectKey: true,
		},
		{
			name:      "empty key yields keyless vault",
			key:       nil,
			expectKey: false,
		},
		{
			name:          "short key rejected",
			key:           []byte("too short"),
			expectedError: ErrBadKeyLength,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			v, err := New(tc.key)

			if tc.expectedError != nil {
				require.ErrorIs(t, err, tc.expectedError)
				assert.Nil(t, v)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.expectKey, v.HasKey())
		})
	}
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	v, err := New(testKey(t))
	require.NoError(t, err)

	plaintexts := []string{
		"s",
		"hunter2",
		"a much longer smtp password with spaces and symbols !@#$%",
		strings.Repeat("x", 4096),
		"non-ascii: pässwörd 密码",
	}

	for _, plain := range plaintexts {
		encrypted, err := v.Encrypt(plain)
		require.NoError(t, err)
		assert.NotEqual(t, plain, encrypted)

		decrypted, err := v.Decrypt(encrypted)
		require.NoError(t, err)
		assert.Equal(t, plain, decrypted)
	}
}

func TestEncryptFreshNonce(t *testing.T) {
	v, err := New(testKey(t))
	require.NoError(t, err)

	first, err := v.Encrypt("same secret")
	require.NoError(t, err)

	second, err := v.Encrypt("same secret")
	require.NoError(t, err)

	assert.NotEqual(t, first, second, "each encryption must use a fresh nonce")
}

func TestEncryptWithoutKey(t *testing.T) {
	v, err := New(nil)
	require.NoError(t, err)

	_, err = v.Encrypt("secret")
	require.ErrorIs(t, err, ErrNoKey)

	_, err = v.Decrypt("ZW5jcnlwdGVk")
	require.ErrorIs(t, err, ErrNoKey)
}

func TestEncryptEmptyPlaintext(t *testing.T) {
	v, err := New(testKey(t))
	require.NoError(t, err)

	_, err = v.Encrypt("")
	require.ErrorIs(t, err, ErrEmptyPlaintext)
}

func TestDecryptFailsClosed(t *testing.T) {
	v, err := New(testKey(t))
	require.NoError(t, err)

	valid, err := v.Encrypt("secret value")
	require.NoError(t, err)

	testCases := []struct {
		name  string
		input string
	}{
		{name: "empty input", input: ""},
		{name: "not base64", input: "%%% not base64 %%%"},
		{name: "too short", input: base64.StdEncoding.EncodeToString([]byte("short"))},
		{name: "plain looking password", input: "hunter2hunter2"},
		{name: "tampered ciphertext", input: tamper(t, valid)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := v.Decrypt(tc.input)
			require.Error(t, err)
			assert.Empty(t, out)
		})
	}
}

func TestDecryptWrongKey(t *testing.T) {
	v, err := New(testKey(t))
	require.NoError(t, err)

	encrypted, err := v.Encrypt("secret value")
	require.NoError(t, err)

	otherKey := testKey(t)
	otherKey[0] ^= 0xff

	other, err := New(otherKey)
	require.NoError(t, err)

	_, err = other.Decrypt(encrypted)
	require.ErrorIs(t, err, ErrMalformedCiphertext)
}

func TestNewFromEnv(t *testing.T) {
	testCases := []struct {
		name      string
		value     string
		expectKey bool
	}{
		{
			name:      "valid hex key",
			value:     strings.Repeat("ab", 32),
			expectKey: true,
		},
		{
			name:      "missing key",
			value:     "",
			expectKey: false,
		},
		{
			name:      "not hex",
			value:     "zz not hex zz",
			expectKey: false,
		},
		{
			name:      "wrong length",
			value:     "abcd",
			expectKey: false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(KeyEnvVar, tc.value)

			v := NewFromEnv()
			assert.Equal(t, tc.expectKey, v.HasKey())
		})
	}
}

// tamper flips one bit inside the ciphertext portion of an encrypted value.
func tamper(t *testing.T, encoded string) string {
	t.Helper()

	data, err := base64.StdEncoding.DecodeString(encoded)
	require.NoError(t, err)

	data[len(data)-1] ^= 0x01

	return base64.StdEncoding.EncodeToString(data)
}
