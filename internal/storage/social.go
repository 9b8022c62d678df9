package storage

import (
	"encoding/json"
	"fmt"
	"log"
	"sort"

	bolt "go.etcd.io/bbolt"
	"golang.org/x/exp/slices"
)

// Follow upserts the follow record and bumps its follower count. The
// base count is the stored one if the author was followed before,
// otherwise the count supplied by the caller.
func (s *Storage) Follow(userID int64, author Author) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bktFollows)
		if err != nil {
			return err
		}
		id := followsKey(userID)
		follows := getFollows(b, id)
		base := author.FollowerCount
		if stored, ok := follows[author.Name]; ok {
			base = stored.FollowerCount
		}
		author.IsFollowing = true
		author.FollowerCount = base + 1
		follows[author.Name] = author
		return putFollows(b, id, follows)
	})
}

// Unfollow flips the record to not-following and decrements the
// follower count, clamped at zero. The record itself is retained.
// Unfollowing an unknown author is a no-op.
func (s *Storage) Unfollow(userID int64, authorName string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bktFollows)
		if err != nil {
			return err
		}
		id := followsKey(userID)
		follows := getFollows(b, id)
		author, ok := follows[authorName]
		if !ok {
			return nil
		}
		author.IsFollowing = false
		author.FollowerCount = clampZero(author.FollowerCount - 1)
		follows[authorName] = author
		return putFollows(b, id, follows)
	})
}

func (s *Storage) IsFollowingAuthor(userID int64, authorName string) (bool, error) {
	author, err := s.followRecord(userID, authorName)
	if err != nil {
		return false, err
	}
	return author.IsFollowing, nil
}

// FollowerCount returns 0 for authors never followed.
func (s *Storage) FollowerCount(userID int64, authorName string) (int64, error) {
	author, err := s.followRecord(userID, authorName)
	if err != nil {
		return 0, err
	}
	return author.FollowerCount, nil
}

// FollowedAuthors lists records with IsFollowing set, sorted by name
// for a deterministic order.
func (s *Storage) FollowedAuthors(userID int64) ([]Author, error) {
	var result []Author
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bktFollows)
		if b == nil {
			return nil
		}
		for _, author := range getFollows(b, followsKey(userID)) {
			if author.IsFollowing {
				result = append(result, author)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (s *Storage) followRecord(userID int64, authorName string) (Author, error) {
	var author Author
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bktFollows)
		if b == nil {
			return nil
		}
		author = getFollows(b, followsKey(userID))[authorName]
		return nil
	})
	return author, err
}

// RecordInteraction applies the counter delta for kind to the global
// per-story counters, clamped at zero. If the story is in the user's
// authored list, the like delta is mirrored onto that record so the
// author sees engagement without an aggregation pass. Reads are not
// mirrored. Returns the updated global counters.
func (s *Storage) RecordInteraction(userID int64, storyID string, kind InteractionKind) (Interactions, error) {
	var cur Interactions
	err := s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bktInteractions)
		if err != nil {
			return err
		}
		cur = getInteractions(b, storyID)
		switch kind {
		case InteractionLike:
			cur.Likes = clampZero(cur.Likes + 1)
		case InteractionUnlike:
			cur.Likes = clampZero(cur.Likes - 1)
		case InteractionRead:
			cur.Reads = clampZero(cur.Reads + 1)
		case InteractionAddToLibrary:
			cur.LibraryAdds = clampZero(cur.LibraryAdds + 1)
			cur.Likes = clampZero(cur.Likes + 1)
		default:
			return fmt.Errorf("unknown interaction kind %q", kind)
		}
		if err = putInteractions(b, storyID, cur); err != nil {
			return err
		}
		return mirrorOnOwnStory(tx, userID, storyID, kind)
	})
	return cur, err
}

// GetInteractions returns zero counters for stories nobody interacted with.
func (s *Storage) GetInteractions(storyID string) (Interactions, error) {
	var cur Interactions
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bktInteractions)
		if b == nil {
			return nil
		}
		cur = getInteractions(b, storyID)
		return nil
	})
	return cur, err
}

func mirrorOnOwnStory(tx *bolt.Tx, userID int64, storyID string, kind InteractionKind) error {
	b := tx.Bucket(bktUserStories)
	if b == nil {
		return nil
	}
	id := storiesKey(userID)
	idx := getIndex(b, id)
	i := slices.IndexFunc(idx.Stories, func(st Story) bool { return st.ID == storyID })
	if i == -1 {
		return nil
	}
	switch kind {
	case InteractionLike, InteractionAddToLibrary:
		idx.Stories[i].Likes = clampZero(idx.Stories[i].Likes + 1)
	case InteractionUnlike:
		idx.Stories[i].Likes = clampZero(idx.Stories[i].Likes - 1)
	default:
		return nil
	}
	return putIndex(b, id, idx)
}

var followsPrefix = []byte("follows-")

func followsKey(userID int64) []byte {
	return []byte(fmt.Sprintf("%s%d", followsPrefix, userID))
}

func getFollows(b *bolt.Bucket, id []byte) map[string]Author {
	v := b.Get(id)
	if v == nil {
		return map[string]Author{}
	}
	var follows map[string]Author
	if err := json.Unmarshal(v, &follows); err != nil {
		log.Printf("corrupt follow record %q, starting empty: %v", id, err)
		return map[string]Author{}
	}
	return follows
}

func putFollows(b *bolt.Bucket, id []byte, follows map[string]Author) error {
	encoded, err := json.Marshal(follows)
	if err != nil {
		return err
	}
	return b.Put(id, encoded)
}

func getInteractions(b *bolt.Bucket, storyID string) Interactions {
	v := b.Get([]byte(storyID))
	if v == nil {
		return Interactions{}
	}
	var cur Interactions
	if err := json.Unmarshal(v, &cur); err != nil {
		log.Printf("corrupt interaction counters for story %s, starting empty: %v", storyID, err)
		return Interactions{}
	}
	return cur
}

func putInteractions(b *bolt.Bucket, storyID string, cur Interactions) error {
	encoded, err := json.Marshal(cur)
	if err != nil {
		return err
	}
	return b.Put([]byte(storyID), encoded)
}

func clampZero(n int64) int64 {
	if n < 0 {
		return 0
	}
	return n
}
