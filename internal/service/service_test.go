package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pechorka/storyvault/internal/storage"
	"github.com/pechorka/storyvault/pkg/broadcast"
	"github.com/pechorka/storyvault/pkg/encryptor"
)

type fakeCatalog struct {
	stories []storage.Story
	authors []storage.Author
}

func (f *fakeCatalog) Story(id string) (storage.Story, bool) {
	for _, story := range f.stories {
		if story.ID == id {
			return story, true
		}
	}
	return storage.Story{}, false
}

func (f *fakeCatalog) Stories() []storage.Story {
	return f.stories
}

func (f *fakeCatalog) StoriesByGenre(genre string) []storage.Story {
	var result []storage.Story
	for _, story := range f.stories {
		if strings.EqualFold(story.Genre, genre) {
			result = append(result, story)
		}
	}
	return result
}

func (f *fakeCatalog) Author(name string) (storage.Author, bool) {
	for _, author := range f.authors {
		if author.Name == name {
			return author, true
		}
	}
	return storage.Author{}, false
}

func (f *fakeCatalog) Authors() []storage.Author {
	return f.authors
}

func newTestService(t *testing.T) (*Service, *fakeCatalog) {
	t.Helper()
	store, err := storage.NewTempStorage()
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, store.Close())
	})
	cat := &fakeCatalog{
		stories: []storage.Story{
			{
				ID:      "cat-free",
				Title:   "The Midnight Garden",
				Author:  "Sarah Johnson",
				Genre:   "Fantasy",
				Content: "Catalog chapter one.",
			},
			{
				ID:      "cat-paid",
				Title:   "Echoes of Tomorrow",
				Author:  "Maya Chen",
				Genre:   "Sci-Fi",
				Content: "Premium chapter one.",
				IsPaid:  true,
				Price:   15,
			},
		},
		authors: []storage.Author{
			{Name: "Maya Chen", Avatar: "maya.png", FollowerCount: 1200, Stories: 4},
		},
	}
	svc := NewService(Config{
		Storage:      store,
		Catalog:      cat,
		Bus:          broadcast.NewBus(),
		Encryptor:    encryptor.NewEncryptor("test secret"),
		WelcomeBonus: 50,
	})
	return svc, cat
}

func TestPublishStory(t *testing.T) {
	svc, _ := newTestService(t)
	userID := int64(1)

	story, err := svc.PublishStory(userID, NewStory{Title: "Mine", Content: "X"})
	require.NoError(t, err)

	text, err := svc.ChapterContent(userID, story.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, "X", text)

	_, err = svc.PublishStory(userID, NewStory{Content: "no title"})
	assert.Error(t, err)

	_, err = svc.PublishStory(userID, NewStory{Title: "Paid", IsPaid: true})
	assert.Error(t, err) // paid story without a price
}

func TestImportStoryFromHTML(t *testing.T) {
	svc, _ := newTestService(t)
	userID := int64(1)

	story, err := svc.ImportStoryFromHTML(userID, NewStory{Title: "Imported"},
		"<html><body><p>First paragraph.</p><p>Second.</p></body></html>")
	require.NoError(t, err)

	text, err := svc.ChapterContent(userID, story.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, "First paragraph.\n\nSecond.", text)

	_, err = svc.ImportStoryFromHTML(userID, NewStory{Title: "Empty"}, "<p></p>")
	assert.Error(t, err)
}

func TestStory_resolvesCatalog(t *testing.T) {
	svc, _ := newTestService(t)
	userID := int64(1)

	story, err := svc.Story(userID, "cat-free")
	require.NoError(t, err)
	assert.Equal(t, "The Midnight Garden", story.Title)

	_, err = svc.Story(userID, "nowhere")
	assert.ErrorIs(t, err, ErrStoryNotFound)
}

func TestChapterContent_paidStoryIsLocked(t *testing.T) {
	svc, _ := newTestService(t)
	userID := int64(1)

	_, err := svc.ChapterContent(userID, "cat-paid", 1)
	assert.ErrorIs(t, err, ErrStoryLocked)

	// a free catalog story serves its inline opening chapter
	text, err := svc.ChapterContent(userID, "cat-free", 1)
	require.NoError(t, err)
	assert.Equal(t, "Catalog chapter one.", text)

	_, err = svc.ChapterContent(userID, "cat-free", 2)
	assert.ErrorIs(t, err, ErrChapterNotFound)
}

func TestUnlockStory_outcomes(t *testing.T) {
	svc, _ := newTestService(t)
	userID := int64(1)

	_, err := svc.EarnCoins(userID, 10)
	require.NoError(t, err)

	outcome, err := svc.UnlockStory(userID, "cat-paid")
	require.NoError(t, err)
	assert.False(t, outcome.Unlocked)
	assert.Equal(t, int64(10), outcome.Balance)
	assert.Equal(t, int64(5), outcome.Shortfall)

	_, err = svc.EarnCoins(userID, 90) // balance is now 100
	require.NoError(t, err)

	outcome, err = svc.UnlockStory(userID, "cat-paid")
	require.NoError(t, err)
	assert.True(t, outcome.Unlocked)
	assert.Equal(t, int64(85), outcome.Balance)
	assert.Zero(t, outcome.Shortfall)

	// unlocked content is readable now
	text, err := svc.ChapterContent(userID, "cat-paid", 1)
	require.NoError(t, err)
	assert.Equal(t, "Premium chapter one.", text)
}

func TestIsUnlocked_freeCatalogStory(t *testing.T) {
	svc, _ := newTestService(t)
	userID := int64(1)

	unlocked, err := svc.IsUnlocked(userID, "cat-free")
	require.NoError(t, err)
	assert.True(t, unlocked)

	unlocked, err = svc.IsUnlocked(userID, "cat-paid")
	require.NoError(t, err)
	assert.False(t, unlocked)
}

func TestClaimWelcomeBonus(t *testing.T) {
	svc, _ := newTestService(t)
	userID := int64(1)

	balance, err := svc.ClaimWelcomeBonus(userID)
	require.NoError(t, err)
	assert.Equal(t, int64(50), balance)

	feed, err := svc.Notifications(userID)
	require.NoError(t, err)
	require.Len(t, feed, 1)
	assert.Equal(t, storage.NotificationAchievement, feed[0].Type)
	assert.Contains(t, feed[0].Message, "50 coins")

	balance, err = svc.ClaimWelcomeBonus(userID)
	assert.ErrorIs(t, err, ErrBonusClaimed)
	assert.Equal(t, int64(50), balance)
}

func TestFollow(t *testing.T) {
	svc, _ := newTestService(t)
	userID := int64(1)
	sub := svc.Bus().Subscribe(TopicFollowingChanged)

	require.NoError(t, svc.Follow(userID, "Maya Chen"))

	following, err := svc.IsFollowing(userID, "Maya Chen")
	require.NoError(t, err)
	assert.True(t, following)

	// the catalog's follower count seeds the record
	count, err := svc.FollowerCount(userID, "Maya Chen")
	require.NoError(t, err)
	assert.Equal(t, int64(1201), count)

	select {
	case payload := <-sub:
		assert.Equal(t, "Maya Chen", payload)
	default:
		require.Fail(t, "expected a following-changed event")
	}

	feed, err := svc.Notifications(userID)
	require.NoError(t, err)
	require.Len(t, feed, 1)
	assert.Equal(t, storage.NotificationFollow, feed[0].Type)

	require.NoError(t, svc.Unfollow(userID, "Maya Chen"))
	select {
	case <-sub:
	default:
		require.Fail(t, "expected a following-changed event on unfollow")
	}
}

func TestFollowerCount_catalogFallback(t *testing.T) {
	svc, _ := newTestService(t)

	count, err := svc.FollowerCount(int64(1), "Maya Chen")
	require.NoError(t, err)
	assert.Equal(t, int64(1200), count)

	count, err = svc.FollowerCount(int64(1), "Unknown Author")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestLike_ownStorySurfacesOnFeed(t *testing.T) {
	svc, _ := newTestService(t)
	userID := int64(1)

	story, err := svc.PublishStory(userID, NewStory{Title: "Mine", Content: "text"})
	require.NoError(t, err)

	cur, err := svc.Like(userID, story.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), cur.Likes)

	feed, err := svc.Notifications(userID)
	require.NoError(t, err)
	require.Len(t, feed, 1)
	assert.Equal(t, storage.NotificationLike, feed[0].Type)
	assert.Contains(t, feed[0].Message, story.Title)

	// liking a catalog story produces no feed entry
	_, err = svc.Like(userID, "cat-free")
	require.NoError(t, err)
	feed, err = svc.Notifications(userID)
	require.NoError(t, err)
	assert.Len(t, feed, 1)
}

func TestAddToLibrary_countsOnce(t *testing.T) {
	svc, _ := newTestService(t)
	userID := int64(1)

	require.NoError(t, svc.AddToLibrary(userID, "cat-free"))
	require.NoError(t, svc.AddToLibrary(userID, "cat-free"))

	cur, err := svc.Interactions("cat-free")
	require.NoError(t, err)
	assert.Equal(t, int64(1), cur.LibraryAdds)
	assert.Equal(t, int64(1), cur.Likes)

	library, err := svc.Library(userID)
	require.NoError(t, err)
	require.Len(t, library, 1)
	assert.Equal(t, "cat-free", library[0].ID)
}

func TestContinueReading(t *testing.T) {
	svc, _ := newTestService(t)
	userID := int64(1)

	story, err := svc.PublishStory(userID, NewStory{Title: "Mine", Content: "text"})
	require.NoError(t, err)

	_, err = svc.SaveReadingProgress(userID, story.ID, 1, 40)
	require.NoError(t, err)
	_, err = svc.SaveReadingProgress(userID, "cat-free", 1, 10)
	require.NoError(t, err)
	// progress on a story that resolves nowhere is skipped
	_, err = svc.SaveReadingProgress(userID, "gone", 1, 99)
	require.NoError(t, err)

	items, err := svc.ContinueReading(userID)
	require.NoError(t, err)
	require.Len(t, items, 2)
	for _, item := range items {
		assert.Equal(t, item.Story.ID, item.Progress.StoryID)
	}
}

func TestStoryRelation(t *testing.T) {
	svc, _ := newTestService(t)
	userID := int64(1)

	require.NoError(t, svc.AddToFavorites(userID, "cat-free"))
	require.NoError(t, svc.AddToLibrary(userID, "cat-free"))

	rel, err := svc.StoryRelation(userID, "cat-free")
	require.NoError(t, err)
	assert.True(t, rel.Favorited)
	assert.False(t, rel.Bookmarked)
	assert.True(t, rel.InLibrary)
	assert.True(t, rel.Unlocked)
}

func TestSession(t *testing.T) {
	svc, _ := newTestService(t)
	userID := int64(7)

	token, err := svc.Login(userID)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	got, err := svc.Authenticate(token)
	require.NoError(t, err)
	assert.Equal(t, userID, got)

	require.NoError(t, svc.Logout(userID))
	_, err = svc.Authenticate(token)
	assert.Error(t, err)

	// logging out twice is fine
	require.NoError(t, svc.Logout(userID))
}

func TestExportImport_roundTrip(t *testing.T) {
	svc, _ := newTestService(t)
	userID := int64(1)

	story, err := svc.PublishStory(userID, NewStory{Title: "Mine", Content: "chapter one"})
	require.NoError(t, err)
	_, err = svc.AddChapter(userID, story.ID, "chapter two")
	require.NoError(t, err)
	_, err = svc.EarnCoins(userID, 42)
	require.NoError(t, err)
	require.NoError(t, svc.Follow(userID, "Maya Chen"))

	payload, err := svc.ExportUserData(userID)
	require.NoError(t, err)

	// restore onto a fresh user id
	otherID := int64(2)
	require.NoError(t, svc.ImportUserData(otherID, payload))

	stories, err := svc.Stories(otherID)
	require.NoError(t, err)
	require.Len(t, stories, 1)
	assert.Equal(t, "Mine", stories[0].Title)

	text, err := svc.ChapterContent(otherID, story.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, "chapter two", text)

	balance, err := svc.Balance(otherID)
	require.NoError(t, err)
	assert.Equal(t, int64(42), balance)

	following, err := svc.IsFollowing(otherID, "Maya Chen")
	require.NoError(t, err)
	assert.True(t, following)

	// garbage payloads are rejected
	assert.Error(t, svc.ImportUserData(otherID, "not an export"))
}
