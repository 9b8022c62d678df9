package service

import (
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/pechorka/storyvault/internal/storage"
)

// ExportUserData serializes everything the ledger knows about the user
// into an encrypted, base64-encoded blob the reader can carry to
// another device.
func (s *Service) ExportUserData(userID int64) (string, error) {
	if s.enc == nil {
		return "", errors.New("export is disabled: no encryption secret configured")
	}
	snap, err := s.store.ExportSnapshot(userID)
	if err != nil {
		return "", errors.Wrap(err, "could not snapshot user data")
	}
	encoded, err := json.Marshal(snap)
	if err != nil {
		return "", errors.Wrap(err, "could not encode snapshot")
	}
	return s.enc.EncryptString(string(encoded))
}

// ImportUserData decrypts a previously exported blob and overwrites
// the user's state with it.
func (s *Service) ImportUserData(userID int64, payload string) error {
	if s.enc == nil {
		return errors.New("import is disabled: no encryption secret configured")
	}
	decoded, err := s.enc.DecryptString(payload)
	if err != nil {
		return errors.Wrap(err, "could not decrypt export")
	}
	var snap storage.Snapshot
	if err := json.Unmarshal([]byte(decoded), &snap); err != nil {
		return errors.Wrap(err, "could not decode export")
	}
	return s.store.ImportSnapshot(userID, snap)
}
