package service

import (
	"crypto/rand"
	"encoding/base64"

	"github.com/pkg/errors"

	"github.com/pechorka/storyvault/internal/storage"
)

// Login issues a fresh session token for the user, replacing any
// previous session.
func (s *Service) Login(userID int64) (string, error) {
	token, err := generateToken()
	if err != nil {
		return "", errors.Wrap(err, "generating session token")
	}
	if err := s.store.SetSessionToken(userID, token); err != nil {
		return "", err
	}
	return token, nil
}

// Authenticate resolves a session token to a user id.
func (s *Service) Authenticate(token string) (int64, error) {
	return s.store.UserIDBySessionToken(token)
}

func (s *Service) Logout(userID int64) error {
	err := s.store.DeleteSessionToken(userID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	return err
}

func (s *Service) Profile(userID int64) (storage.Profile, error) {
	return s.store.Profile(userID)
}

func (s *Service) UpdateProfile(userID int64, name, avatar, bio string) (storage.Profile, error) {
	return s.store.UpdateProfile(userID, func(p *storage.Profile) {
		p.Name = name
		p.Avatar = avatar
		p.Bio = bio
		p.IsNew = false
	})
}

func generateToken() (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(raw), nil
}
