package encryptor

import (
	"encoding/base64"

	"github.com/gtank/cryptopasta"
	"github.com/pkg/errors"
)

// Encryptor does symmetric string encryption with a secret derived
// from a passphrase. Used for user-data exports that leave the local
// database.
type Encryptor struct {
	secret *[32]byte
}

func NewEncryptor(secretString string) *Encryptor {
	secret := &[32]byte{}
	copy(secret[:], secretString)
	return &Encryptor{secret: secret}
}

func (e *Encryptor) EncryptString(plaintext string) (string, error) {
	encrypted, err := cryptopasta.Encrypt([]byte(plaintext), e.secret)
	if err != nil {
		return "", errors.Wrap(err, "failed to encrypt string")
	}
	return base64.StdEncoding.EncodeToString(encrypted), nil
}

func (e *Encryptor) DecryptString(ciphertext string) (string, error) {
	decoded, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", errors.Wrap(err, "failed to decode string")
	}
	decrypted, err := cryptopasta.Decrypt(decoded, e.secret)
	if err != nil {
		return "", errors.Wrap(err, "failed to decrypt string")
	}
	return string(decrypted), nil
}
