package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"sort"
	"time"

	bolt "go.etcd.io/bbolt"
)

// SaveProgress upserts the reading position for a story. The
// percentage is rounded to the nearest integer and clamped to 0-100.
// Only the latest position is kept.
func (s *Storage) SaveProgress(userID int64, storyID string, chapter int64, percent float64) (ReadingProgress, error) {
	progress := ReadingProgress{
		StoryID:         storyID,
		CurrentChapter:  chapter,
		ProgressPercent: roundPercent(percent),
		LastReadAt:      time.Now(),
	}
	err := s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bktProgress)
		if err != nil {
			return err
		}
		encoded, err := json.Marshal(progress)
		if err != nil {
			return err
		}
		return b.Put(userStoryKey(userID, storyID), encoded)
	})
	return progress, err
}

// Progress returns the saved position for a story or ErrNotFound.
func (s *Storage) Progress(userID int64, storyID string) (ReadingProgress, error) {
	var progress ReadingProgress
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bktProgress)
		if b == nil {
			return ErrNotFound
		}
		v := b.Get(userStoryKey(userID, storyID))
		if v == nil {
			return ErrNotFound
		}
		return json.Unmarshal(v, &progress)
	})
	return progress, err
}

// AllProgress lists every saved position for the user, most recently
// read first.
func (s *Storage) AllProgress(userID int64) ([]ReadingProgress, error) {
	var result []ReadingProgress
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bktProgress)
		if b == nil {
			return nil
		}
		prefix := []byte(fmt.Sprintf("%d|", userID))
		c := b.Cursor()
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			var progress ReadingProgress
			if err := json.Unmarshal(v, &progress); err != nil {
				log.Printf("corrupt reading progress %q, skipping: %v", k, err)
				continue
			}
			result = append(result, progress)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].LastReadAt.After(result[j].LastReadAt)
	})
	return result, nil
}

func roundPercent(percent float64) int64 {
	rounded := int64(math.Round(percent))
	if rounded < 0 {
		return 0
	}
	if rounded > 100 {
		return 100
	}
	return rounded
}
