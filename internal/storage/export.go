package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"

	bolt "go.etcd.io/bbolt"
)

// Snapshot is everything the ledger knows about one user, in a form
// that can be serialized, carried elsewhere and imported back.
type Snapshot struct {
	Index    UserStories                 `json:"index"`
	Chapters map[string]map[int64]string `json:"chapters"`
	Follows  map[string]Author           `json:"follows"`
	Coins    int64                       `json:"coins"`
	Unlocked []string                    `json:"unlocked"`
	Progress []ReadingProgress           `json:"progress"`
	Feed     []Notification              `json:"feed"`
	Profile  Profile                     `json:"profile"`
}

// ExportSnapshot reads the user's complete state in one transaction.
func (s *Storage) ExportSnapshot(userID int64) (Snapshot, error) {
	snap := Snapshot{
		Chapters: make(map[string]map[int64]string),
		Follows:  map[string]Author{},
	}
	err := s.db.View(func(tx *bolt.Tx) error {
		if b := tx.Bucket(bktUserStories); b != nil {
			snap.Index = getIndex(b, storiesKey(userID))
		} else {
			snap.Index = defaultIndex()
		}
		for _, story := range snap.Index.Stories {
			cb := tx.Bucket(chapterBucket(story.ID))
			if cb == nil {
				continue
			}
			chapters := make(map[int64]string)
			err := cb.ForEach(func(k, v []byte) error {
				chapters[bytesToInt64(k)] = string(v)
				return nil
			})
			if err != nil {
				return err
			}
			snap.Chapters[story.ID] = chapters
		}
		if b := tx.Bucket(bktFollows); b != nil {
			snap.Follows = getFollows(b, followsKey(userID))
		}
		if b := tx.Bucket(bktWallet); b != nil {
			snap.Coins = getCoins(b, coinsKey(userID))
		}
		if b := tx.Bucket(bktUnlocks); b != nil {
			prefix := []byte(fmt.Sprintf("%d|", userID))
			c := b.Cursor()
			for k, _ := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, _ = c.Next() {
				snap.Unlocked = append(snap.Unlocked, string(k[len(prefix):]))
			}
		}
		if b := tx.Bucket(bktNotifications); b != nil {
			snap.Feed = getNotifications(b, notificationsKey(userID))
		}
		if b := tx.Bucket(bktProfiles); b != nil {
			snap.Profile = getProfile(b, int64ToBytes(userID))
		}
		return nil
	})
	if err != nil {
		return Snapshot{}, err
	}
	progress, err := s.AllProgress(userID)
	if err != nil {
		return Snapshot{}, err
	}
	snap.Progress = progress
	return snap, nil
}

// ImportSnapshot overwrites the user's state with the snapshot's, all
// in one transaction.
func (s *Storage) ImportSnapshot(userID int64, snap Snapshot) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bktUserStories)
		if err != nil {
			return err
		}
		if err = putIndex(b, storiesKey(userID), snap.Index); err != nil {
			return err
		}
		for storyID, chapters := range snap.Chapters {
			cb, err := tx.CreateBucketIfNotExists(chapterBucket(storyID))
			if err != nil {
				return err
			}
			for chapter, text := range chapters {
				if err = cb.Put(int64ToBytes(chapter), []byte(text)); err != nil {
					return err
				}
			}
		}
		fb, err := tx.CreateBucketIfNotExists(bktFollows)
		if err != nil {
			return err
		}
		if err = putFollows(fb, followsKey(userID), snap.Follows); err != nil {
			return err
		}
		wb, err := tx.CreateBucketIfNotExists(bktWallet)
		if err != nil {
			return err
		}
		if err = putCoins(wb, coinsKey(userID), snap.Coins); err != nil {
			return err
		}
		ub, err := tx.CreateBucketIfNotExists(bktUnlocks)
		if err != nil {
			return err
		}
		for _, storyID := range snap.Unlocked {
			if err = ub.Put(userStoryKey(userID, storyID), []byte{1}); err != nil {
				return err
			}
		}
		pb, err := tx.CreateBucketIfNotExists(bktProgress)
		if err != nil {
			return err
		}
		for _, progress := range snap.Progress {
			encoded, err := json.Marshal(progress)
			if err != nil {
				return err
			}
			if err = pb.Put(userStoryKey(userID, progress.StoryID), encoded); err != nil {
				return err
			}
		}
		nb, err := tx.CreateBucketIfNotExists(bktNotifications)
		if err != nil {
			return err
		}
		if err = putNotifications(nb, notificationsKey(userID), snap.Feed); err != nil {
			return err
		}
		prb, err := tx.CreateBucketIfNotExists(bktProfiles)
		if err != nil {
			return err
		}
		encoded, err := json.Marshal(snap.Profile)
		if err != nil {
			return err
		}
		if err = prb.Put(int64ToBytes(userID), encoded); err != nil {
			return err
		}
		log.Printf("imported snapshot for user %d: %d stories, %d coins", userID, len(snap.Index.Stories), snap.Coins)
		return nil
	})
}
