package service

import (
	"github.com/pkg/errors"

	"github.com/pechorka/storyvault/internal/storage"
	"github.com/pechorka/storyvault/pkg/broadcast"
	"github.com/pechorka/storyvault/pkg/encryptor"
	"github.com/pechorka/storyvault/pkg/htmltext"
)

var (
	ErrStoryNotFound   = errors.New("story not found")
	ErrChapterNotFound = errors.New("chapter not found")
	ErrStoryLocked     = errors.New("story is locked")
	ErrBonusClaimed    = errors.New("welcome bonus already claimed")
)

// TopicFollowingChanged carries the author name whose follow state
// flipped, so open views can refresh their followed-authors list.
const TopicFollowingChanged = "following-changed"

// Catalog supplies the editorial stories and authors that exist
// outside the user's own ledger.
type Catalog interface {
	Story(id string) (storage.Story, bool)
	Stories() []storage.Story
	StoriesByGenre(genre string) []storage.Story
	Author(name string) (storage.Author, bool)
	Authors() []storage.Author
}

type Service struct {
	store        *storage.Storage
	catalog      Catalog
	bus          *broadcast.Bus
	enc          *encryptor.Encryptor
	welcomeBonus int64
}

type Config struct {
	Storage      *storage.Storage
	Catalog      Catalog
	Bus          *broadcast.Bus
	Encryptor    *encryptor.Encryptor
	WelcomeBonus int64
}

const defaultWelcomeBonus = 100

func NewService(cfg Config) *Service {
	if cfg.WelcomeBonus <= 0 {
		cfg.WelcomeBonus = defaultWelcomeBonus
	}
	if cfg.Bus == nil {
		cfg.Bus = broadcast.NewBus()
	}
	return &Service{
		store:        cfg.Storage,
		catalog:      cfg.Catalog,
		bus:          cfg.Bus,
		enc:          cfg.Encryptor,
		welcomeBonus: cfg.WelcomeBonus,
	}
}

// Bus exposes the change broadcaster so callers can subscribe to
// follow changes.
func (s *Service) Bus() *broadcast.Bus {
	return s.bus
}

// PublishStory validates and stores a new story; the supplied content
// becomes chapter 1.
func (s *Service) PublishStory(userID int64, ns NewStory) (storage.Story, error) {
	if ns.Title == "" {
		return storage.Story{}, errors.New("story title is empty")
	}
	if len(ns.Title) > 255 {
		return storage.Story{}, errors.Errorf("story title %q is too long, max length is 255", ns.Title)
	}
	if ns.IsPaid && ns.Price <= 0 {
		return storage.Story{}, errors.New("paid story needs a positive price")
	}
	return s.store.AddStory(userID, storage.NewStory{
		Title:       ns.Title,
		Author:      ns.Author,
		CoverImage:  ns.CoverImage,
		Description: ns.Description,
		Genre:       ns.Genre,
		Content:     ns.Content,
		Rating:      ns.Rating,
		IsPaid:      ns.IsPaid,
		Price:       ns.Price,
	})
}

// ImportStoryFromHTML publishes a story whose chapter 1 is extracted
// from an HTML document.
func (s *Service) ImportStoryFromHTML(userID int64, ns NewStory, html string) (storage.Story, error) {
	text, err := htmltext.Extract(html)
	if err != nil {
		return storage.Story{}, errors.Wrap(err, "could not extract text from html")
	}
	if text == "" {
		return storage.Story{}, errors.New("html document has no readable text")
	}
	ns.Content = text
	return s.PublishStory(userID, ns)
}

func (s *Service) Stories(userID int64) ([]storage.Story, error) {
	return s.store.Stories(userID)
}

// Story resolves a story by id: the user's authored list first, then
// the catalog.
func (s *Service) Story(userID int64, storyID string) (storage.Story, error) {
	story, err := s.store.FindStory(userID, storyID)
	switch {
	case err == nil:
		return story, nil
	case errors.Is(err, storage.ErrNotFound):
	default:
		return storage.Story{}, err
	}
	if s.catalog != nil {
		if story, ok := s.catalog.Story(storyID); ok {
			return story, nil
		}
	}
	return storage.Story{}, ErrStoryNotFound
}

// EditChapter upserts a chapter's text.
func (s *Service) EditChapter(userID int64, storyID string, chapter int64, text string) error {
	err := s.store.UpdateChapterContent(userID, storyID, chapter, text)
	if errors.Is(err, storage.ErrNotFound) {
		return ErrStoryNotFound
	}
	return err
}

// AddChapter appends a new chapter and reports the update on the
// author's feed.
func (s *Service) AddChapter(userID int64, storyID string, text string) (int64, error) {
	chapter, err := s.store.AppendChapter(userID, storyID, text)
	if errors.Is(err, storage.ErrNotFound) {
		return 0, ErrStoryNotFound
	}
	if err != nil {
		return 0, err
	}
	if story, ferr := s.store.FindStory(userID, storyID); ferr == nil {
		s.notifyStoryUpdate(userID, story, chapter)
	}
	return chapter, nil
}

// ChapterContent returns a chapter's text after checking the reader
// may access the story. Locked paid stories return ErrStoryLocked.
func (s *Service) ChapterContent(userID int64, storyID string, chapter int64) (string, error) {
	story, err := s.Story(userID, storyID)
	if err != nil {
		return "", err
	}
	if story.IsPaid {
		unlocked, err := s.IsUnlocked(userID, storyID)
		if err != nil {
			return "", err
		}
		if !unlocked {
			return "", ErrStoryLocked
		}
	}
	text, err := s.store.GetChapterContent(userID, storyID, chapter)
	switch {
	case err == nil:
		return text, nil
	case errors.Is(err, storage.ErrNotFound):
	default:
		return "", err
	}
	// catalog stories only carry their opening chapter inline
	if chapter == 1 && story.Content != "" {
		return story.Content, nil
	}
	return "", ErrChapterNotFound
}

// OpenChapter is ChapterContent plus a read interaction, for when the
// reader actually opens the page.
func (s *Service) OpenChapter(userID int64, storyID string, chapter int64) (string, error) {
	text, err := s.ChapterContent(userID, storyID, chapter)
	if err != nil {
		return "", err
	}
	if _, err := s.store.RecordInteraction(userID, storyID, storage.InteractionRead); err != nil {
		return "", err
	}
	return text, nil
}

// SaveReadingProgress upserts the scroll-derived position for a story.
func (s *Service) SaveReadingProgress(userID int64, storyID string, chapter int64, percent float64) (storage.ReadingProgress, error) {
	return s.store.SaveProgress(userID, storyID, chapter, percent)
}

func (s *Service) ReadingProgress(userID int64, storyID string) (storage.ReadingProgress, error) {
	return s.store.Progress(userID, storyID)
}

// ContinueReading lists the stories the user has open positions in,
// most recently read first, joined with their records. Positions whose
// story is no longer resolvable are skipped.
func (s *Service) ContinueReading(userID int64) ([]ContinueReadingItem, error) {
	all, err := s.store.AllProgress(userID)
	if err != nil {
		return nil, err
	}
	result := make([]ContinueReadingItem, 0, len(all))
	for _, progress := range all {
		story, err := s.Story(userID, progress.StoryID)
		if errors.Is(err, ErrStoryNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		result = append(result, ContinueReadingItem{Story: story, Progress: progress})
	}
	return result, nil
}

// StoryRelation reports the reader's relationship to a story in one
// call, for rendering story cards.
func (s *Service) StoryRelation(userID int64, storyID string) (StoryRelation, error) {
	var rel StoryRelation
	var err error
	if rel.Favorited, err = s.store.IsFavorited(userID, storyID); err != nil {
		return rel, err
	}
	if rel.Bookmarked, err = s.store.IsBookmarked(userID, storyID); err != nil {
		return rel, err
	}
	if rel.InLibrary, err = s.store.IsInLibrary(userID, storyID); err != nil {
		return rel, err
	}
	rel.Unlocked, err = s.IsUnlocked(userID, storyID)
	return rel, err
}

func (s *Service) AddToFavorites(userID int64, storyID string) error {
	return s.store.AddToFavorites(userID, storyID)
}

func (s *Service) RemoveFromFavorites(userID int64, storyID string) error {
	return s.store.RemoveFromFavorites(userID, storyID)
}

func (s *Service) AddToBookmarks(userID int64, storyID string) error {
	return s.store.AddToBookmarks(userID, storyID)
}

func (s *Service) RemoveFromBookmarks(userID int64, storyID string) error {
	return s.store.RemoveFromBookmarks(userID, storyID)
}

// AddToLibrary puts the story on the reading list and, when it is a
// new entry, counts the addToLibrary interaction.
func (s *Service) AddToLibrary(userID int64, storyID string) error {
	already, err := s.store.IsInLibrary(userID, storyID)
	if err != nil {
		return err
	}
	if err := s.store.AddToLibrary(userID, storyID); err != nil {
		return err
	}
	if already {
		return nil
	}
	_, err = s.store.RecordInteraction(userID, storyID, storage.InteractionAddToLibrary)
	return err
}

func (s *Service) RemoveFromLibrary(userID int64, storyID string) error {
	return s.store.RemoveFromLibrary(userID, storyID)
}

// Library resolves the reading list to story records; ids that resolve
// nowhere are skipped.
func (s *Service) Library(userID int64) ([]storage.Story, error) {
	idx, err := s.store.Index(userID)
	if err != nil {
		return nil, err
	}
	return s.resolveStories(userID, idx.Library)
}

// Favorites resolves the favorites set the same way.
func (s *Service) Favorites(userID int64) ([]storage.Story, error) {
	idx, err := s.store.Index(userID)
	if err != nil {
		return nil, err
	}
	return s.resolveStories(userID, idx.Favorites)
}

func (s *Service) resolveStories(userID int64, ids []string) ([]storage.Story, error) {
	result := make([]storage.Story, 0, len(ids))
	for _, storyID := range ids {
		story, err := s.Story(userID, storyID)
		if errors.Is(err, ErrStoryNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		result = append(result, story)
	}
	return result, nil
}

func (s *Service) FeaturedStories() []storage.Story {
	if s.catalog == nil {
		return nil
	}
	return s.catalog.Stories()
}

func (s *Service) StoriesByGenre(genre string) []storage.Story {
	if s.catalog == nil {
		return nil
	}
	return s.catalog.StoriesByGenre(genre)
}

func (s *Service) FeaturedAuthors() []storage.Author {
	if s.catalog == nil {
		return nil
	}
	return s.catalog.Authors()
}
