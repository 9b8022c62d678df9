package encryptor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptor_roundTrip(t *testing.T) {
	e := NewEncryptor("test secret")

	ciphertext, err := e.EncryptString("my library backup")
	require.NoError(t, err)
	assert.NotEqual(t, "my library backup", ciphertext)

	plaintext, err := e.DecryptString(ciphertext)
	require.NoError(t, err)
	assert.Equal(t, "my library backup", plaintext)
}

func TestEncryptor_wrongSecret(t *testing.T) {
	ciphertext, err := NewEncryptor("right secret").EncryptString("data")
	require.NoError(t, err)

	_, err = NewEncryptor("wrong secret").DecryptString(ciphertext)
	assert.Error(t, err)
}
