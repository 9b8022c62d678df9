package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/pechorka/storyvault/internal/handler/internal/request"
	"github.com/pechorka/storyvault/internal/handler/internal/respond"
	"github.com/pechorka/storyvault/internal/handler/mw/auth"
	"github.com/pechorka/storyvault/internal/service"
	"github.com/pechorka/storyvault/internal/storage"
	"github.com/pechorka/storyvault/pkg/autosave"
)

type Service interface {
	PublishStory(userID int64, ns service.NewStory) (storage.Story, error)
	ImportStoryFromHTML(userID int64, ns service.NewStory, html string) (storage.Story, error)
	Stories(userID int64) ([]storage.Story, error)
	Story(userID int64, storyID string) (storage.Story, error)
	StoryRelation(userID int64, storyID string) (service.StoryRelation, error)
	EditChapter(userID int64, storyID string, chapter int64, text string) error
	AddChapter(userID int64, storyID string, text string) (int64, error)
	OpenChapter(userID int64, storyID string, chapter int64) (string, error)

	AddToFavorites(userID int64, storyID string) error
	RemoveFromFavorites(userID int64, storyID string) error
	AddToBookmarks(userID int64, storyID string) error
	RemoveFromBookmarks(userID int64, storyID string) error
	AddToLibrary(userID int64, storyID string) error
	RemoveFromLibrary(userID int64, storyID string) error
	Library(userID int64) ([]storage.Story, error)
	Favorites(userID int64) ([]storage.Story, error)

	Follow(userID int64, authorName string) error
	Unfollow(userID int64, authorName string) error
	FollowerCount(userID int64, authorName string) (int64, error)
	FollowingAuthors(userID int64) ([]storage.Author, error)
	Like(userID int64, storyID string) (storage.Interactions, error)
	Unlike(userID int64, storyID string) (storage.Interactions, error)
	Interactions(storyID string) (storage.Interactions, error)

	Balance(userID int64) (int64, error)
	EarnCoins(userID int64, amount int64) (int64, error)
	ClaimWelcomeBonus(userID int64) (int64, error)
	UnlockStory(userID int64, storyID string) (service.UnlockOutcome, error)

	SaveReadingProgress(userID int64, storyID string, chapter int64, percent float64) (storage.ReadingProgress, error)
	ReadingProgress(userID int64, storyID string) (storage.ReadingProgress, error)
	ContinueReading(userID int64) ([]service.ContinueReadingItem, error)

	Notifications(userID int64) ([]storage.Notification, error)
	MarkNotificationRead(userID int64, notificationID string) error
	MarkAllNotificationsRead(userID int64) error
	UnreadNotificationCount(userID int64) (int, error)

	FeaturedStories() []storage.Story
	StoriesByGenre(genre string) []storage.Story
	FeaturedAuthors() []storage.Author

	Login(userID int64) (string, error)
	Logout(userID int64) error
	Profile(userID int64) (storage.Profile, error)
	UpdateProfile(userID int64, name, avatar, bio string) (storage.Profile, error)

	ExportUserData(userID int64) (string, error)
	ImportUserData(userID int64, payload string) error
}

type Handlers struct {
	svc   Service
	saver *autosave.Saver
}

// NewHandlers builds the route handlers. The saver is optional: without
// it draft edits are written through immediately.
func NewHandlers(svc Service, saver *autosave.Saver) *Handlers {
	return &Handlers{svc: svc, saver: saver}
}

// RegisterPublic wires the routes that work without a session.
func (h *Handlers) RegisterPublic(mx chi.Router) {
	mx.Post("/login", h.Login)
	mx.Get("/catalog/stories", h.CatalogStories)
	mx.Get("/catalog/authors", h.CatalogAuthors)
}

func (h *Handlers) Register(mx chi.Router) {
	mx.Post("/logout", h.Logout)
	mx.Get("/profile", h.GetProfile)
	mx.Put("/profile", h.UpdateProfile)

	mx.Get("/story", h.GetStories)
	mx.Post("/story", h.PublishStory)
	mx.Post("/story/import", h.ImportStory)
	mx.Get("/story/{storyID}", h.GetStory)
	mx.Get("/story/{storyID}/relation", h.GetStoryRelation)
	mx.Post("/story/{storyID}/chapter", h.AddChapter)
	mx.Put("/story/{storyID}/chapter/{chapter}", h.EditChapter)
	mx.Put("/story/{storyID}/chapter/{chapter}/draft", h.SaveDraft)
	mx.Get("/story/{storyID}/chapter/{chapter}", h.OpenChapter)

	mx.Put("/story/{storyID}/favorite", h.setOp(h.svc.AddToFavorites))
	mx.Delete("/story/{storyID}/favorite", h.setOp(h.svc.RemoveFromFavorites))
	mx.Put("/story/{storyID}/bookmark", h.setOp(h.svc.AddToBookmarks))
	mx.Delete("/story/{storyID}/bookmark", h.setOp(h.svc.RemoveFromBookmarks))
	mx.Put("/story/{storyID}/library", h.setOp(h.svc.AddToLibrary))
	mx.Delete("/story/{storyID}/library", h.setOp(h.svc.RemoveFromLibrary))
	mx.Get("/library", h.GetLibrary)
	mx.Get("/favorites", h.GetFavorites)

	mx.Post("/story/{storyID}/like", h.Like)
	mx.Post("/story/{storyID}/unlike", h.Unlike)
	mx.Get("/story/{storyID}/interactions", h.GetInteractions)
	mx.Post("/story/{storyID}/unlock", h.UnlockStory)

	mx.Post("/follow", h.Follow)
	mx.Delete("/follow", h.Unfollow)
	mx.Get("/follow", h.GetFollowing)

	mx.Get("/wallet", h.GetBalance)
	mx.Post("/wallet/earn", h.EarnCoins)
	mx.Post("/wallet/bonus", h.ClaimWelcomeBonus)

	mx.Put("/progress", h.SaveProgress)
	mx.Get("/progress", h.ContinueReading)
	mx.Get("/progress/{storyID}", h.GetProgress)

	mx.Get("/notifications", h.GetNotifications)
	mx.Get("/notifications/unread", h.GetUnreadCount)
	mx.Post("/notifications/{notificationID}/read", h.MarkNotificationRead)
	mx.Post("/notifications/read-all", h.MarkAllNotificationsRead)

	mx.Get("/export", h.ExportData)
	mx.Post("/import", h.ImportData)
}

func serviceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrStoryNotFound):
		respond.ErrorWithCode(w, http.StatusNotFound, respond.CODE_STORY_NOT_FOUND)
	case errors.Is(err, service.ErrChapterNotFound):
		respond.ErrorWithCode(w, http.StatusNotFound, respond.CODE_CHAPTER_NOT_FOUND)
	case errors.Is(err, service.ErrStoryLocked):
		respond.ErrorWithCode(w, http.StatusPaymentRequired, respond.CODE_STORY_LOCKED)
	case errors.Is(err, service.ErrBonusClaimed):
		respond.ErrorWithCode(w, http.StatusConflict, respond.CODE_BONUS_ALREADY_CLAIMED)
	case errors.Is(err, storage.ErrNotFound):
		respond.ErrorWithCode(w, http.StatusNotFound, respond.CODE_NOT_FOUND)
	default:
		respond.ErrorWithCode(w, http.StatusInternalServerError, respond.CODE_INTERNAL_ERROR)
	}
}

type StoryRequest struct {
	Title       string  `json:"title"`
	Author      string  `json:"author"`
	CoverImage  string  `json:"coverImage"`
	Description string  `json:"description"`
	Genre       string  `json:"genre"`
	Content     string  `json:"content"`
	Rating      float64 `json:"rating"`
	IsPaid      bool    `json:"isPaid"`
	Price       int64   `json:"price"`
	HTML        string  `json:"html,omitempty"`
}

func (sr StoryRequest) toNewStory() service.NewStory {
	return service.NewStory{
		Title:       sr.Title,
		Author:      sr.Author,
		CoverImage:  sr.CoverImage,
		Description: sr.Description,
		Genre:       sr.Genre,
		Content:     sr.Content,
		Rating:      sr.Rating,
		IsPaid:      sr.IsPaid,
		Price:       sr.Price,
	}
}

type StoriesResponse struct {
	Stories []storage.Story `json:"stories"`
}

func (h *Handlers) GetStories(w http.ResponseWriter, r *http.Request) {
	userID := auth.GetUserID(r.Context())
	stories, err := h.svc.Stories(userID)
	if err != nil {
		serviceError(w, err)
		return
	}
	respond.JSON(w, StoriesResponse{Stories: stories})
}

func (h *Handlers) PublishStory(w http.ResponseWriter, r *http.Request) {
	userID := auth.GetUserID(r.Context())
	var req StoryRequest
	if err := request.DecodeJSON(r.Body, &req); err != nil {
		respond.ErrorWithCode(w, http.StatusBadRequest, respond.CODE_INVALID_JSON)
		return
	}
	story, err := h.svc.PublishStory(userID, req.toNewStory())
	if err != nil {
		respond.ErrorWithText(w, http.StatusBadRequest, respond.CODE_INVALID_PARAM, err.Error())
		return
	}
	respond.JSON(w, story)
}

func (h *Handlers) ImportStory(w http.ResponseWriter, r *http.Request) {
	userID := auth.GetUserID(r.Context())
	var req StoryRequest
	if err := request.DecodeJSON(r.Body, &req); err != nil {
		respond.ErrorWithCode(w, http.StatusBadRequest, respond.CODE_INVALID_JSON)
		return
	}
	story, err := h.svc.ImportStoryFromHTML(userID, req.toNewStory(), req.HTML)
	if err != nil {
		respond.ErrorWithText(w, http.StatusBadRequest, respond.CODE_INVALID_PARAM, err.Error())
		return
	}
	respond.JSON(w, story)
}

func (h *Handlers) GetStory(w http.ResponseWriter, r *http.Request) {
	userID := auth.GetUserID(r.Context())
	story, err := h.svc.Story(userID, chi.URLParam(r, "storyID"))
	if err != nil {
		serviceError(w, err)
		return
	}
	respond.JSON(w, story)
}

type StoryRelationResponse struct {
	Favorited  bool `json:"isFavorited"`
	Bookmarked bool `json:"isBookmarked"`
	InLibrary  bool `json:"isInLibrary"`
	Unlocked   bool `json:"isUnlocked"`
}

func (h *Handlers) GetStoryRelation(w http.ResponseWriter, r *http.Request) {
	userID := auth.GetUserID(r.Context())
	rel, err := h.svc.StoryRelation(userID, chi.URLParam(r, "storyID"))
	if err != nil {
		serviceError(w, err)
		return
	}
	respond.JSON(w, StoryRelationResponse{
		Favorited:  rel.Favorited,
		Bookmarked: rel.Bookmarked,
		InLibrary:  rel.InLibrary,
		Unlocked:   rel.Unlocked,
	})
}

type ChapterRequest struct {
	Content string `json:"content"`
}

type AddChapterResponse struct {
	Chapter int64 `json:"chapter"`
}

func (h *Handlers) AddChapter(w http.ResponseWriter, r *http.Request) {
	userID := auth.GetUserID(r.Context())
	var req ChapterRequest
	if err := request.DecodeJSON(r.Body, &req); err != nil {
		respond.ErrorWithCode(w, http.StatusBadRequest, respond.CODE_INVALID_JSON)
		return
	}
	chapter, err := h.svc.AddChapter(userID, chi.URLParam(r, "storyID"), req.Content)
	if err != nil {
		serviceError(w, err)
		return
	}
	respond.JSON(w, AddChapterResponse{Chapter: chapter})
}

func (h *Handlers) EditChapter(w http.ResponseWriter, r *http.Request) {
	userID := auth.GetUserID(r.Context())
	chapter, ok := chapterParam(w, r)
	if !ok {
		return
	}
	var req ChapterRequest
	if err := request.DecodeJSON(r.Body, &req); err != nil {
		respond.ErrorWithCode(w, http.StatusBadRequest, respond.CODE_INVALID_JSON)
		return
	}
	if err := h.svc.EditChapter(userID, chi.URLParam(r, "storyID"), chapter, req.Content); err != nil {
		serviceError(w, err)
		return
	}
	respond.JSON(w, struct{}{})
}

type ChapterResponse struct {
	Chapter int64  `json:"chapter"`
	Content string `json:"content"`
}

func (h *Handlers) OpenChapter(w http.ResponseWriter, r *http.Request) {
	userID := auth.GetUserID(r.Context())
	chapter, ok := chapterParam(w, r)
	if !ok {
		return
	}
	content, err := h.svc.OpenChapter(userID, chi.URLParam(r, "storyID"), chapter)
	if err != nil {
		serviceError(w, err)
		return
	}
	respond.JSON(w, ChapterResponse{Chapter: chapter, Content: content})
}

// SaveDraft queues a chapter edit for the debounced saver, so rapid
// keystrokes coalesce into one write.
func (h *Handlers) SaveDraft(w http.ResponseWriter, r *http.Request) {
	userID := auth.GetUserID(r.Context())
	chapter, ok := chapterParam(w, r)
	if !ok {
		return
	}
	var req ChapterRequest
	if err := request.DecodeJSON(r.Body, &req); err != nil {
		respond.ErrorWithCode(w, http.StatusBadRequest, respond.CODE_INVALID_JSON)
		return
	}
	storyID := chi.URLParam(r, "storyID")
	if h.saver == nil {
		if err := h.svc.EditChapter(userID, storyID, chapter, req.Content); err != nil {
			serviceError(w, err)
			return
		}
	} else {
		h.saver.Queue(userID, storyID, chapter, req.Content)
	}
	respond.JSON(w, struct{}{})
}

func chapterParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	chapter, err := strconv.ParseInt(chi.URLParam(r, "chapter"), 10, 64)
	if err != nil || chapter < 1 {
		respond.ErrorWithText(w, http.StatusBadRequest, respond.CODE_INVALID_PARAM, "chapter must be a positive number")
		return 0, false
	}
	return chapter, true
}
