package service

import "github.com/pechorka/storyvault/internal/storage"

type NewStory struct {
	Title       string
	Author      string
	CoverImage  string
	Description string
	Genre       string
	Content     string
	Rating      float64
	IsPaid      bool
	Price       int64
}

// UnlockOutcome is what the reader sees after an unlock attempt.
// Shortfall is how many coins were missing when the attempt failed on
// affordability, zero otherwise.
type UnlockOutcome struct {
	Unlocked  bool
	Balance   int64
	Price     int64
	Shortfall int64
}

// ContinueReadingItem pairs a saved reading position with the story it
// belongs to.
type ContinueReadingItem struct {
	Story    storage.Story
	Progress storage.ReadingProgress
}

// StoryRelation describes the local reader's relationship to one story.
type StoryRelation struct {
	Favorited  bool
	Bookmarked bool
	InLibrary  bool
	Unlocked   bool
}
