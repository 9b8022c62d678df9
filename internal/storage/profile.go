package storage

import (
	"encoding/json"
	"log"

	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"
)

// Profile returns the user's profile, zero-valued if none is stored.
func (s *Storage) Profile(userID int64) (Profile, error) {
	var profile Profile
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bktProfiles)
		if b == nil {
			return nil
		}
		profile = getProfile(b, int64ToBytes(userID))
		return nil
	})
	return profile, err
}

// UpdateProfile applies updFunc to the profile and writes it back.
func (s *Storage) UpdateProfile(userID int64, updFunc func(*Profile)) (Profile, error) {
	var profile Profile
	err := s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bktProfiles)
		if err != nil {
			return err
		}
		id := int64ToBytes(userID)
		profile = getProfile(b, id)
		updFunc(&profile)
		encoded, err := json.Marshal(profile)
		if err != nil {
			return err
		}
		return b.Put(id, encoded)
	})
	return profile, err
}

// SetSessionToken stores the token for the user, replacing any previous
// session. Both directions are kept so tokens resolve to users and
// stale tokens can be dropped on re-login.
func (s *Storage) SetSessionToken(userID int64, token string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bktSessions)
		if err != nil {
			return err
		}
		byteUserID := int64ToBytes(userID)
		if old := b.Get(byteUserID); old != nil {
			if err = b.Delete(old); err != nil {
				return errors.Wrap(err, "failed to drop previous token")
			}
		}
		if err = b.Put([]byte(token), byteUserID); err != nil {
			return errors.Wrap(err, "failed to put user id by token")
		}
		if err = b.Put(byteUserID, []byte(token)); err != nil {
			return errors.Wrap(err, "failed to put token by user id")
		}
		return nil
	})
}

// UserIDBySessionToken resolves a token or returns ErrNotFound.
func (s *Storage) UserIDBySessionToken(token string) (int64, error) {
	var userID int64
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bktSessions)
		if b == nil {
			return ErrNotFound
		}
		v := b.Get([]byte(token))
		if v == nil {
			return ErrNotFound
		}
		userID = bytesToInt64(v)
		return nil
	})
	return userID, err
}

// DeleteSessionToken removes both directions of the mapping.
func (s *Storage) DeleteSessionToken(userID int64) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bktSessions)
		if b == nil {
			return ErrNotFound
		}
		byteUserID := int64ToBytes(userID)
		token := b.Get(byteUserID)
		if token == nil {
			return ErrNotFound
		}
		if err := b.Delete(token); err != nil {
			return errors.Wrap(err, "failed to delete user id by token")
		}
		if err := b.Delete(byteUserID); err != nil {
			return errors.Wrap(err, "failed to delete token by user id")
		}
		return nil
	})
}

func getProfile(b *bolt.Bucket, id []byte) Profile {
	v := b.Get(id)
	if v == nil {
		return Profile{IsNew: true}
	}
	var profile Profile
	if err := json.Unmarshal(v, &profile); err != nil {
		log.Printf("corrupt profile %q, starting empty: %v", id, err)
		return Profile{IsNew: true}
	}
	return profile
}
