package storage_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pechorka/storyvault/internal/storage"
)

func newTestStorage(t *testing.T) *storage.Storage {
	t.Helper()
	s, err := storage.NewTempStorage()
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, s.Close())
	})
	return s
}

func TestAddStory(t *testing.T) {
	s := newTestStorage(t)
	userID := int64(1)

	story, err := s.AddStory(userID, storage.NewStory{
		Title:   "The Midnight Garden",
		Author:  "Sarah Johnson",
		Genre:   "Fantasy",
		Content: "Hello",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, story.ID)
	assert.False(t, story.CreatedAt.IsZero())
	assert.Equal(t, int64(1), story.Chapters)

	got, err := s.FindStory(userID, story.ID)
	require.NoError(t, err)
	assert.Equal(t, story.ID, got.ID)
	assert.Equal(t, "The Midnight Garden", got.Title)

	text, err := s.GetChapterContent(userID, story.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, "Hello", text)

	_, err = s.FindStory(userID, "unknown")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestAppendChapter(t *testing.T) {
	s := newTestStorage(t)
	userID := int64(1)

	story, err := s.AddStory(userID, storage.NewStory{Title: "Serial", Content: "Hello"})
	require.NoError(t, err)

	next, err := s.AppendChapter(userID, story.ID, "World")
	require.NoError(t, err)
	assert.Equal(t, int64(2), next)

	got, err := s.FindStory(userID, story.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.Chapters)

	text, err := s.GetChapterContent(userID, story.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, "World", text)

	// chapter 1 is untouched by the append
	text, err = s.GetChapterContent(userID, story.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, "Hello", text)

	_, err = s.AppendChapter(userID, "unknown", "text")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestUpdateChapterContent(t *testing.T) {
	s := newTestStorage(t)
	userID := int64(1)

	story, err := s.AddStory(userID, storage.NewStory{Title: "Draft", Content: "first draft"})
	require.NoError(t, err)

	// chapter 1 edits are mirrored into the legacy content field
	err = s.UpdateChapterContent(userID, story.ID, 1, "second draft")
	require.NoError(t, err)
	got, err := s.FindStory(userID, story.ID)
	require.NoError(t, err)
	assert.Equal(t, "second draft", got.Content)

	// updates are not bounded by the chapter count
	err = s.UpdateChapterContent(userID, story.ID, 5, "far ahead")
	require.NoError(t, err)
	text, err := s.GetChapterContent(userID, story.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, "far ahead", text)

	// the chapter count only moves via AppendChapter
	got, err = s.FindStory(userID, story.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Chapters)

	err = s.UpdateChapterContent(userID, "unknown", 1, "text")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	err = s.UpdateChapterContent(userID, story.ID, 0, "text")
	assert.Error(t, err)
}

func TestGetChapterContent_missingChapter(t *testing.T) {
	s := newTestStorage(t)
	userID := int64(1)

	story, err := s.AddStory(userID, storage.NewStory{Title: "Short", Content: "only chapter"})
	require.NoError(t, err)

	_, err = s.GetChapterContent(userID, story.ID, 2)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = s.GetChapterContent(userID, "unknown", 1)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestIDSets_idempotent(t *testing.T) {
	s := newTestStorage(t)
	userID := int64(1)
	storyID := "42"

	require.NoError(t, s.AddToFavorites(userID, storyID))
	require.NoError(t, s.AddToFavorites(userID, storyID))
	idx, err := s.Index(userID)
	require.NoError(t, err)
	assert.Equal(t, []string{storyID}, idx.Favorites)

	favorited, err := s.IsFavorited(userID, storyID)
	require.NoError(t, err)
	assert.True(t, favorited)

	require.NoError(t, s.RemoveFromFavorites(userID, storyID))
	require.NoError(t, s.RemoveFromFavorites(userID, storyID)) // absent id is a no-op
	favorited, err = s.IsFavorited(userID, storyID)
	require.NoError(t, err)
	assert.False(t, favorited)

	require.NoError(t, s.AddToBookmarks(userID, storyID))
	bookmarked, err := s.IsBookmarked(userID, storyID)
	require.NoError(t, err)
	assert.True(t, bookmarked)

	require.NoError(t, s.AddToLibrary(userID, storyID))
	inLibrary, err := s.IsInLibrary(userID, storyID)
	require.NoError(t, err)
	assert.True(t, inLibrary)

	// the three sets are independent
	require.NoError(t, s.RemoveFromBookmarks(userID, storyID))
	inLibrary, err = s.IsInLibrary(userID, storyID)
	require.NoError(t, err)
	assert.True(t, inLibrary)
}

func TestRecordInteraction(t *testing.T) {
	s := newTestStorage(t)
	userID := int64(1)
	storyID := "external-story"

	// unlike on a story with zero likes stays at zero
	cur, err := s.RecordInteraction(userID, storyID, storage.InteractionUnlike)
	require.NoError(t, err)
	assert.Equal(t, int64(0), cur.Likes)

	cur, err = s.RecordInteraction(userID, storyID, storage.InteractionLike)
	require.NoError(t, err)
	assert.Equal(t, int64(1), cur.Likes)

	// addToLibrary bumps both libraryAdds and likes
	cur, err = s.RecordInteraction(userID, storyID, storage.InteractionAddToLibrary)
	require.NoError(t, err)
	assert.Equal(t, int64(1), cur.LibraryAdds)
	assert.Equal(t, int64(2), cur.Likes)

	cur, err = s.RecordInteraction(userID, storyID, storage.InteractionRead)
	require.NoError(t, err)
	assert.Equal(t, int64(1), cur.Reads)

	got, err := s.GetInteractions(storyID)
	require.NoError(t, err)
	assert.Equal(t, cur, got)

	got, err = s.GetInteractions("never-touched")
	require.NoError(t, err)
	assert.Equal(t, storage.Interactions{}, got)

	_, err = s.RecordInteraction(userID, storyID, storage.InteractionKind("boost"))
	assert.Error(t, err)
}

func TestRecordInteraction_mirrorsOwnStory(t *testing.T) {
	s := newTestStorage(t)
	userID := int64(1)

	story, err := s.AddStory(userID, storage.NewStory{Title: "Mine", Content: "text"})
	require.NoError(t, err)

	_, err = s.RecordInteraction(userID, story.ID, storage.InteractionLike)
	require.NoError(t, err)
	_, err = s.RecordInteraction(userID, story.ID, storage.InteractionAddToLibrary)
	require.NoError(t, err)
	// reads are not mirrored
	_, err = s.RecordInteraction(userID, story.ID, storage.InteractionRead)
	require.NoError(t, err)

	got, err := s.FindStory(userID, story.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.Likes)

	_, err = s.RecordInteraction(userID, story.ID, storage.InteractionUnlike)
	require.NoError(t, err)
	got, err = s.FindStory(userID, story.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Likes)
}

func TestUnlockStory(t *testing.T) {
	s := newTestStorage(t)
	userID := int64(1)

	story, err := s.AddStory(userID, storage.NewStory{
		Title:   "Premium",
		Content: "secret chapter",
		IsPaid:  true,
		Price:   15,
	})
	require.NoError(t, err)

	t.Run("insufficient balance", func(t *testing.T) {
		_, err := s.AddCoins(userID, 10)
		require.NoError(t, err)

		res, err := s.UnlockStory(userID, story.ID, nil)
		require.NoError(t, err)
		assert.False(t, res.Unlocked)
		assert.Equal(t, int64(10), res.Balance)

		unlocked, err := s.IsUnlocked(userID, story.ID)
		require.NoError(t, err)
		assert.False(t, unlocked)

		coins, err := s.Coins(userID)
		require.NoError(t, err)
		assert.Equal(t, int64(10), coins)
	})

	t.Run("successful unlock", func(t *testing.T) {
		_, err := s.AddCoins(userID, 90) // balance is now 100
		require.NoError(t, err)

		res, err := s.UnlockStory(userID, story.ID, nil)
		require.NoError(t, err)
		assert.True(t, res.Unlocked)
		assert.Equal(t, int64(85), res.Balance)

		unlocked, err := s.IsUnlocked(userID, story.ID)
		require.NoError(t, err)
		assert.True(t, unlocked)

		got, err := s.FindStory(userID, story.ID)
		require.NoError(t, err)
		assert.True(t, got.IsUnlocked)
	})
}

func TestUnlockStory_freeAndUnknown(t *testing.T) {
	s := newTestStorage(t)
	userID := int64(1)

	free, err := s.AddStory(userID, storage.NewStory{Title: "Free", Content: "text"})
	require.NoError(t, err)

	res, err := s.UnlockStory(userID, free.ID, nil)
	require.NoError(t, err)
	assert.False(t, res.Unlocked)

	// a free story is readable without an unlock
	unlocked, err := s.IsUnlocked(userID, free.ID)
	require.NoError(t, err)
	assert.True(t, unlocked)

	res, err = s.UnlockStory(userID, "unknown", nil)
	require.NoError(t, err)
	assert.False(t, res.Unlocked)
}

func TestUnlockStory_external(t *testing.T) {
	s := newTestStorage(t)
	userID := int64(1)

	_, err := s.AddCoins(userID, 100)
	require.NoError(t, err)

	external := &storage.Story{
		ID:     "catalog-1",
		Title:  "Echoes of Tomorrow",
		IsPaid: true,
		Price:  25,
	}
	res, err := s.UnlockStory(userID, external.ID, external)
	require.NoError(t, err)
	assert.True(t, res.Unlocked)
	assert.Equal(t, int64(75), res.Balance)

	unlocked, err := s.IsUnlocked(userID, external.ID)
	require.NoError(t, err)
	assert.True(t, unlocked)
}

func TestAddCoins_neverNegative(t *testing.T) {
	s := newTestStorage(t)
	userID := int64(1)

	coins, err := s.AddCoins(userID, 50)
	require.NoError(t, err)
	assert.Equal(t, int64(50), coins)

	_, err = s.AddCoins(userID, -60)
	assert.ErrorIs(t, err, storage.ErrInsufficientCoins)

	coins, err = s.Coins(userID)
	require.NoError(t, err)
	assert.Equal(t, int64(50), coins)
}

func TestFollowUnfollow(t *testing.T) {
	s := newTestStorage(t)
	userID := int64(1)

	author := storage.Author{
		Name:          "Maya Chen",
		Avatar:        "maya.png",
		FollowerCount: 5,
		Stories:       3,
	}
	require.NoError(t, s.Follow(userID, author))

	following, err := s.IsFollowingAuthor(userID, author.Name)
	require.NoError(t, err)
	assert.True(t, following)

	count, err := s.FollowerCount(userID, author.Name)
	require.NoError(t, err)
	assert.Equal(t, int64(6), count)

	// follow then unfollow returns to the starting count
	require.NoError(t, s.Unfollow(userID, author.Name))
	following, err = s.IsFollowingAuthor(userID, author.Name)
	require.NoError(t, err)
	assert.False(t, following)
	count, err = s.FollowerCount(userID, author.Name)
	require.NoError(t, err)
	assert.Equal(t, int64(5), count)

	// re-follow starts from the stored count, not the caller's default
	require.NoError(t, s.Follow(userID, storage.Author{Name: author.Name, FollowerCount: 1000}))
	count, err = s.FollowerCount(userID, author.Name)
	require.NoError(t, err)
	assert.Equal(t, int64(6), count)
}

func TestUnfollow_clampAndNoop(t *testing.T) {
	s := newTestStorage(t)
	userID := int64(1)

	// unknown author is a no-op
	require.NoError(t, s.Unfollow(userID, "nobody"))
	count, err := s.FollowerCount(userID, "nobody")
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	require.NoError(t, s.Follow(userID, storage.Author{Name: "Newbie"}))
	require.NoError(t, s.Unfollow(userID, "Newbie"))
	require.NoError(t, s.Unfollow(userID, "Newbie")) // count is clamped at zero
	count, err = s.FollowerCount(userID, "Newbie")
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestFollowedAuthors(t *testing.T) {
	s := newTestStorage(t)
	userID := int64(1)

	require.NoError(t, s.Follow(userID, storage.Author{Name: "Zoe"}))
	require.NoError(t, s.Follow(userID, storage.Author{Name: "Alex"}))
	require.NoError(t, s.Follow(userID, storage.Author{Name: "Maya"}))
	require.NoError(t, s.Unfollow(userID, "Maya"))

	authors, err := s.FollowedAuthors(userID)
	require.NoError(t, err)
	require.Len(t, authors, 2)
	assert.Equal(t, "Alex", authors[0].Name)
	assert.Equal(t, "Zoe", authors[1].Name)
}

func TestReadingProgress(t *testing.T) {
	s := newTestStorage(t)
	userID := int64(1)

	progress, err := s.SaveProgress(userID, "story-1", 2, 33.6)
	require.NoError(t, err)
	assert.Equal(t, int64(34), progress.ProgressPercent)
	assert.False(t, progress.LastReadAt.IsZero())

	// only the latest position is kept
	progress, err = s.SaveProgress(userID, "story-1", 3, 150)
	require.NoError(t, err)
	assert.Equal(t, int64(100), progress.ProgressPercent)

	got, err := s.Progress(userID, "story-1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), got.CurrentChapter)
	assert.Equal(t, int64(100), got.ProgressPercent)

	_, err = s.Progress(userID, "never-read")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestAllProgress_ordering(t *testing.T) {
	s := newTestStorage(t)
	userID := int64(1)

	_, err := s.SaveProgress(userID, "older", 1, 10)
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	_, err = s.SaveProgress(userID, "newer", 1, 20)
	require.NoError(t, err)

	// another user's progress must not leak in
	_, err = s.SaveProgress(int64(2), "other", 1, 30)
	require.NoError(t, err)

	all, err := s.AllProgress(userID)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "newer", all[0].StoryID)
	assert.Equal(t, "older", all[1].StoryID)
}

func TestNotifications(t *testing.T) {
	s := newTestStorage(t)
	userID := int64(1)

	first, err := s.AddNotification(userID, storage.NewNotification{
		Type:    storage.NotificationLike,
		Title:   "Sarah liked your story",
		Message: `Sarah Johnson liked "The Midnight Garden"`,
	})
	require.NoError(t, err)
	second, err := s.AddNotification(userID, storage.NewNotification{
		Type:    storage.NotificationFollow,
		Title:   "New follower",
		Message: "Emma Wilson started following you",
	})
	require.NoError(t, err)

	feed, err := s.Notifications(userID)
	require.NoError(t, err)
	require.Len(t, feed, 2)
	assert.Equal(t, second.ID, feed[0].ID) // newest first
	assert.Equal(t, first.ID, feed[1].ID)

	count, err := s.UnreadNotificationCount(userID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	require.NoError(t, s.MarkNotificationRead(userID, first.ID))
	count, err = s.UnreadNotificationCount(userID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	err = s.MarkNotificationRead(userID, "unknown")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, s.MarkAllNotificationsRead(userID))
	count, err = s.UnreadNotificationCount(userID)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestProfile(t *testing.T) {
	s := newTestStorage(t)
	userID := int64(1)

	profile, err := s.Profile(userID)
	require.NoError(t, err)
	assert.True(t, profile.IsNew)

	profile, err = s.UpdateProfile(userID, func(p *storage.Profile) {
		p.Name = "Reader"
		p.IsNew = false
		p.SeenWelcomeBonus = true
	})
	require.NoError(t, err)
	assert.Equal(t, "Reader", profile.Name)

	profile, err = s.Profile(userID)
	require.NoError(t, err)
	assert.False(t, profile.IsNew)
	assert.True(t, profile.SeenWelcomeBonus)
}

func TestSessionTokens(t *testing.T) {
	s := newTestStorage(t)
	userID := int64(7)

	require.NoError(t, s.SetSessionToken(userID, "token-a"))
	got, err := s.UserIDBySessionToken("token-a")
	require.NoError(t, err)
	assert.Equal(t, userID, got)

	// re-login replaces the old token
	require.NoError(t, s.SetSessionToken(userID, "token-b"))
	_, err = s.UserIDBySessionToken("token-a")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	got, err = s.UserIDBySessionToken("token-b")
	require.NoError(t, err)
	assert.Equal(t, userID, got)

	require.NoError(t, s.DeleteSessionToken(userID))
	_, err = s.UserIDBySessionToken("token-b")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	err = s.DeleteSessionToken(userID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
