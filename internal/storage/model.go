package storage

import "time"

// Story is a single user-authored work. Content mirrors chapter 1 for
// records written before chapters got their own bucket.
type Story struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Author      string    `json:"author"`
	CoverImage  string    `json:"coverImage"`
	Description string    `json:"description"`
	Genre       string    `json:"genre"`
	Likes       int64     `json:"likes"`
	Comments    int64     `json:"comments"`
	Rating      float64   `json:"rating"`
	Chapters    int64     `json:"chapters"`
	Content     string    `json:"content,omitempty"`
	IsPaid      bool      `json:"isPaid,omitempty"`
	Price       int64     `json:"price,omitempty"`
	IsUnlocked  bool      `json:"isUnlocked,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

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

// UserStories is the per-user index: authored stories plus the three
// independent id sets.
type UserStories struct {
	Stories   []Story  `json:"writtenStories"`
	Favorites []string `json:"favoriteStories"`
	Bookmarks []string `json:"bookmarkedStories"`
	Library   []string `json:"libraryStories"`
}

// Author is a follow record. Records are kept after unfollow with
// IsFollowing=false so the follower count survives re-follows.
type Author struct {
	Name          string   `json:"name"`
	Avatar        string   `json:"avatar"`
	IsFollowing   bool     `json:"isFollowing"`
	FollowerCount int64    `json:"followerCount"`
	Stories       int64    `json:"stories"`
	Bio           string   `json:"bio,omitempty"`
	Genres        []string `json:"genres,omitempty"`
}

type InteractionKind string

const (
	InteractionLike         InteractionKind = "like"
	InteractionUnlike       InteractionKind = "unlike"
	InteractionRead         InteractionKind = "read"
	InteractionAddToLibrary InteractionKind = "addToLibrary"
)

// Interactions are global per-story engagement counters, independent of
// who authored the story.
type Interactions struct {
	Likes       int64 `json:"likes"`
	Reads       int64 `json:"reads"`
	LibraryAdds int64 `json:"libraryAdds"`
}

// UnlockResult reports the outcome of an unlock attempt. Balance is the
// balance after the attempt, unchanged unless Unlocked is true.
type UnlockResult struct {
	Unlocked bool
	Balance  int64
	Price    int64
}

type ReadingProgress struct {
	StoryID         string    `json:"storyId"`
	CurrentChapter  int64     `json:"currentChapter"`
	ProgressPercent int64     `json:"progressPercentage"`
	LastReadAt      time.Time `json:"lastReadAt"`
}

type NotificationType string

const (
	NotificationLike        NotificationType = "like"
	NotificationComment     NotificationType = "comment"
	NotificationFollow      NotificationType = "follow"
	NotificationStoryUpdate NotificationType = "story_update"
	NotificationAchievement NotificationType = "achievement"
)

type Notification struct {
	ID         string           `json:"id"`
	Type       NotificationType `json:"type"`
	Title      string           `json:"title"`
	Message    string           `json:"message"`
	CreatedAt  time.Time        `json:"timestamp"`
	Read       bool             `json:"read"`
	Avatar     string           `json:"avatar,omitempty"`
	Username   string           `json:"username,omitempty"`
	StoryTitle string           `json:"storyTitle,omitempty"`
}

type NewNotification struct {
	Type       NotificationType
	Title      string
	Message    string
	Avatar     string
	Username   string
	StoryTitle string
}

type Profile struct {
	Name             string `json:"name"`
	Avatar           string `json:"avatar"`
	Bio              string `json:"bio"`
	IsNew            bool   `json:"isNewUser"`
	SeenWelcomeBonus bool   `json:"hasSeenWelcomeBonus"`
}
