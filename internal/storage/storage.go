package storage

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"
	"golang.org/x/exp/slices"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInsufficientCoins = errors.New("insufficient coins")
)

var (
	bktUserStories   = []byte("user_stories")
	bktInteractions  = []byte("story_interactions")
	bktFollows       = []byte("following_authors")
	bktWallet        = []byte("wallet")
	bktUnlocks       = []byte("unlocked_stories")
	bktProgress      = []byte("reading_progress")
	bktNotifications = []byte("notifications")
	bktProfiles      = []byte("profiles")
	bktSessions      = []byte("sessions")
)

// Storage is a wrapper around bolt.DB. Every operation runs inside a
// single bolt transaction, so read-modify-write cycles on a record can
// not interleave even with multiple callers.
type Storage struct {
	db        *bolt.DB
	closeFunc func() error
}

// NewStorage creates a new storage
func NewStorage(path string) (*Storage, error) {
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, err
	}
	return &Storage{
		db:        db,
		closeFunc: db.Close,
	}, nil
}

// NewTempStorage creates a storage in a temp file that is removed on Close.
func NewTempStorage() (*Storage, error) {
	path := filepath.Join(os.TempDir(), fmt.Sprintf("storyvault-%s.db", uuid.New().String()))
	store, err := NewStorage(path)
	if err != nil {
		return nil, err
	}
	closeDB := store.closeFunc
	store.closeFunc = func() error {
		if err := closeDB(); err != nil {
			return err
		}
		return os.Remove(path)
	}
	return store, nil
}

// Close closes the storage
func (s *Storage) Close() error {
	return s.closeFunc()
}

// AddStory assigns the story an id and creation timestamp, stores the
// initial content as chapter 1 and appends the story to the user's
// authored list. Returns the stored record.
func (s *Storage) AddStory(userID int64, ns NewStory) (Story, error) {
	story := Story{
		ID:          newStoryID(),
		Title:       ns.Title,
		Author:      ns.Author,
		CoverImage:  ns.CoverImage,
		Description: ns.Description,
		Genre:       ns.Genre,
		Rating:      ns.Rating,
		Chapters:    1,
		Content:     ns.Content,
		IsPaid:      ns.IsPaid,
		Price:       ns.Price,
		CreatedAt:   time.Now(),
	}
	err := s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bktUserStories)
		if err != nil {
			return err
		}
		cb, err := tx.CreateBucketIfNotExists(chapterBucket(story.ID))
		if err != nil {
			return err
		}
		if err = cb.Put(int64ToBytes(1), []byte(ns.Content)); err != nil {
			return err
		}
		id := storiesKey(userID)
		idx := getIndex(b, id)
		idx.Stories = append(idx.Stories, story)
		return putIndex(b, id, idx)
	})
	return story, err
}

// Index returns the user's story index, empty if nothing is stored yet.
func (s *Storage) Index(userID int64) (UserStories, error) {
	idx := defaultIndex()
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bktUserStories)
		if b == nil {
			return nil
		}
		idx = getIndex(b, storiesKey(userID))
		return nil
	})
	return idx, err
}

type UpdateIndexFunc func(*UserStories) error

// UpdateIndex applies updFunc to the user's index inside a single
// transaction and writes the result back.
func (s *Storage) UpdateIndex(userID int64, updFunc UpdateIndexFunc) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bktUserStories)
		if err != nil {
			return err
		}
		id := storiesKey(userID)
		idx := getIndex(b, id)
		if err = updFunc(&idx); err != nil {
			return err
		}
		return putIndex(b, id, idx)
	})
}

func (s *Storage) Stories(userID int64) ([]Story, error) {
	idx, err := s.Index(userID)
	if err != nil {
		return nil, err
	}
	return idx.Stories, nil
}

// FindStory returns the user's authored story by id or ErrNotFound.
func (s *Storage) FindStory(userID int64, storyID string) (Story, error) {
	var story Story
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bktUserStories)
		if b == nil {
			return ErrNotFound
		}
		idx := getIndex(b, storiesKey(userID))
		i := slices.IndexFunc(idx.Stories, func(st Story) bool { return st.ID == storyID })
		if i == -1 {
			return ErrNotFound
		}
		story = idx.Stories[i]
		return nil
	})
	return story, err
}

// UpdateStory applies updFunc to a single authored story.
func (s *Storage) UpdateStory(userID int64, storyID string, updFunc func(*Story) error) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bktUserStories)
		if err != nil {
			return err
		}
		id := storiesKey(userID)
		idx := getIndex(b, id)
		i := slices.IndexFunc(idx.Stories, func(st Story) bool { return st.ID == storyID })
		if i == -1 {
			return ErrNotFound
		}
		if err = updFunc(&idx.Stories[i]); err != nil {
			return err
		}
		return putIndex(b, id, idx)
	})
}

// UpdateChapterContent upserts the text of an existing chapter slot.
// Chapter 1 is mirrored into the legacy Content field. Unlike
// AppendChapter it does not bound the chapter number against the
// current chapter count.
func (s *Storage) UpdateChapterContent(userID int64, storyID string, chapter int64, text string) error {
	if chapter < 1 {
		return errors.Errorf("chapter number must be positive, got %d", chapter)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bktUserStories)
		if err != nil {
			return err
		}
		id := storiesKey(userID)
		idx := getIndex(b, id)
		i := slices.IndexFunc(idx.Stories, func(st Story) bool { return st.ID == storyID })
		if i == -1 {
			return ErrNotFound
		}
		cb, err := tx.CreateBucketIfNotExists(chapterBucket(storyID))
		if err != nil {
			return err
		}
		if err = cb.Put(int64ToBytes(chapter), []byte(text)); err != nil {
			return err
		}
		if chapter == 1 {
			idx.Stories[i].Content = text
		}
		return putIndex(b, id, idx)
	})
}

// AppendChapter stores text under the next chapter number and bumps the
// story's chapter count. This is the only writer of new chapter
// numbers, so numbering stays contiguous.
func (s *Storage) AppendChapter(userID int64, storyID string, text string) (int64, error) {
	var next int64
	err := s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bktUserStories)
		if err != nil {
			return err
		}
		id := storiesKey(userID)
		idx := getIndex(b, id)
		i := slices.IndexFunc(idx.Stories, func(st Story) bool { return st.ID == storyID })
		if i == -1 {
			return ErrNotFound
		}
		cb, err := tx.CreateBucketIfNotExists(chapterBucket(storyID))
		if err != nil {
			return err
		}
		next = idx.Stories[i].Chapters + 1
		if err = cb.Put(int64ToBytes(next), []byte(text)); err != nil {
			return err
		}
		idx.Stories[i].Chapters = next
		return putIndex(b, id, idx)
	})
	return next, err
}

// GetChapterContent returns the chapter's text. For chapter 1 it falls
// back to the legacy Content field. A missing chapter is reported as
// ErrNotFound so an empty chapter stays distinguishable from an absent
// one.
func (s *Storage) GetChapterContent(userID int64, storyID string, chapter int64) (string, error) {
	var text string
	err := s.db.View(func(tx *bolt.Tx) error {
		if cb := tx.Bucket(chapterBucket(storyID)); cb != nil {
			if v := cb.Get(int64ToBytes(chapter)); v != nil {
				text = string(v)
				return nil
			}
		}
		if chapter != 1 {
			return ErrNotFound
		}
		b := tx.Bucket(bktUserStories)
		if b == nil {
			return ErrNotFound
		}
		idx := getIndex(b, storiesKey(userID))
		i := slices.IndexFunc(idx.Stories, func(st Story) bool { return st.ID == storyID })
		if i == -1 || idx.Stories[i].Content == "" {
			return ErrNotFound
		}
		text = idx.Stories[i].Content
		return nil
	})
	return text, err
}

// id set operations, all idempotent

func (s *Storage) AddToFavorites(userID int64, storyID string) error {
	return s.UpdateIndex(userID, func(idx *UserStories) error {
		idx.Favorites = appendID(idx.Favorites, storyID)
		return nil
	})
}

func (s *Storage) RemoveFromFavorites(userID int64, storyID string) error {
	return s.UpdateIndex(userID, func(idx *UserStories) error {
		idx.Favorites = removeID(idx.Favorites, storyID)
		return nil
	})
}

func (s *Storage) IsFavorited(userID int64, storyID string) (bool, error) {
	idx, err := s.Index(userID)
	if err != nil {
		return false, err
	}
	return slices.Contains(idx.Favorites, storyID), nil
}

func (s *Storage) AddToBookmarks(userID int64, storyID string) error {
	return s.UpdateIndex(userID, func(idx *UserStories) error {
		idx.Bookmarks = appendID(idx.Bookmarks, storyID)
		return nil
	})
}

func (s *Storage) RemoveFromBookmarks(userID int64, storyID string) error {
	return s.UpdateIndex(userID, func(idx *UserStories) error {
		idx.Bookmarks = removeID(idx.Bookmarks, storyID)
		return nil
	})
}

func (s *Storage) IsBookmarked(userID int64, storyID string) (bool, error) {
	idx, err := s.Index(userID)
	if err != nil {
		return false, err
	}
	return slices.Contains(idx.Bookmarks, storyID), nil
}

func (s *Storage) AddToLibrary(userID int64, storyID string) error {
	return s.UpdateIndex(userID, func(idx *UserStories) error {
		idx.Library = appendID(idx.Library, storyID)
		return nil
	})
}

func (s *Storage) RemoveFromLibrary(userID int64, storyID string) error {
	return s.UpdateIndex(userID, func(idx *UserStories) error {
		idx.Library = removeID(idx.Library, storyID)
		return nil
	})
}

func (s *Storage) IsInLibrary(userID int64, storyID string) (bool, error) {
	idx, err := s.Index(userID)
	if err != nil {
		return false, err
	}
	return slices.Contains(idx.Library, storyID), nil
}

// helper functions

var storiesPrefix = []byte("stories-")

func storiesKey(userID int64) []byte {
	return []byte(fmt.Sprintf("%s%d", storiesPrefix, userID))
}

func chapterBucket(storyID string) []byte {
	return []byte("chapters-" + storyID)
}

func newStoryID() string {
	return strconv.FormatInt(time.Now().UnixNano(), 10)
}

// getIndex treats a malformed stored record as absent: the caller gets
// an empty index instead of an error.
func getIndex(b *bolt.Bucket, id []byte) UserStories {
	v := b.Get(id)
	if v == nil {
		return defaultIndex()
	}
	var idx UserStories
	if err := json.Unmarshal(v, &idx); err != nil {
		log.Printf("corrupt story index %q, starting empty: %v", id, err)
		return defaultIndex()
	}
	return idx
}

func putIndex(b *bolt.Bucket, id []byte, idx UserStories) error {
	encoded, err := json.Marshal(idx)
	if err != nil {
		return err
	}
	return b.Put(id, encoded)
}

func defaultIndex() UserStories {
	return UserStories{
		Stories:   []Story{},
		Favorites: []string{},
		Bookmarks: []string{},
		Library:   []string{},
	}
}

func appendID(ids []string, id string) []string {
	if slices.Contains(ids, id) {
		return ids
	}
	return append(ids, id)
}

func removeID(ids []string, id string) []string {
	i := slices.Index(ids, id)
	if i == -1 {
		return ids
	}
	return append(ids[:i], ids[i+1:]...)
}

func userStoryKey(userID int64, storyID string) []byte {
	return []byte(fmt.Sprintf("%d|%s", userID, storyID))
}

func int64ToBytes(i int64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(i))
	return b
}

func bytesToInt64(b []byte) int64 {
	return int64(binary.BigEndian.Uint64(b))
}
