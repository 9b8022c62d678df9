package service

import (
	"github.com/pechorka/storyvault/internal/storage"
)

// Follow starts following an author. Attributes for a first-time
// follow come from the catalog when the author is featured there; the
// broadcast afterwards lets other open views refresh their lists.
func (s *Service) Follow(userID int64, authorName string) error {
	author := storage.Author{Name: authorName}
	if s.catalog != nil {
		if featured, ok := s.catalog.Author(authorName); ok {
			author = featured
		}
	}
	if err := s.store.Follow(userID, author); err != nil {
		return err
	}
	s.notifyFollow(userID, author)
	s.bus.Publish(TopicFollowingChanged, authorName)
	return nil
}

func (s *Service) Unfollow(userID int64, authorName string) error {
	if err := s.store.Unfollow(userID, authorName); err != nil {
		return err
	}
	s.bus.Publish(TopicFollowingChanged, authorName)
	return nil
}

func (s *Service) IsFollowing(userID int64, authorName string) (bool, error) {
	return s.store.IsFollowingAuthor(userID, authorName)
}

// FollowerCount prefers the ledger's record and falls back to the
// catalog's count for authors never followed locally.
func (s *Service) FollowerCount(userID int64, authorName string) (int64, error) {
	count, err := s.store.FollowerCount(userID, authorName)
	if err != nil {
		return 0, err
	}
	if count == 0 && s.catalog != nil {
		if featured, ok := s.catalog.Author(authorName); ok {
			return featured.FollowerCount, nil
		}
	}
	return count, nil
}

func (s *Service) FollowingAuthors(userID int64) ([]storage.Author, error) {
	return s.store.FollowedAuthors(userID)
}

// Like counts a like and, when the story is the user's own, surfaces
// it on their feed.
func (s *Service) Like(userID int64, storyID string) (storage.Interactions, error) {
	cur, err := s.store.RecordInteraction(userID, storyID, storage.InteractionLike)
	if err != nil {
		return cur, err
	}
	if story, ferr := s.store.FindStory(userID, storyID); ferr == nil {
		s.notifyLike(userID, story)
	}
	return cur, nil
}

func (s *Service) Unlike(userID int64, storyID string) (storage.Interactions, error) {
	return s.store.RecordInteraction(userID, storyID, storage.InteractionUnlike)
}

func (s *Service) Interactions(storyID string) (storage.Interactions, error) {
	return s.store.GetInteractions(storyID)
}
