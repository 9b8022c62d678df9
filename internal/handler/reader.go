package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pechorka/storyvault/internal/handler/internal/request"
	"github.com/pechorka/storyvault/internal/handler/internal/respond"
	"github.com/pechorka/storyvault/internal/handler/mw/auth"
	"github.com/pechorka/storyvault/internal/storage"
)

// setOp adapts the add/remove set operations, which all share the
// userID+storyID shape, into a handler.
func (h *Handlers) setOp(op func(userID int64, storyID string) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := auth.GetUserID(r.Context())
		if err := op(userID, chi.URLParam(r, "storyID")); err != nil {
			serviceError(w, err)
			return
		}
		respond.JSON(w, struct{}{})
	}
}

func (h *Handlers) GetLibrary(w http.ResponseWriter, r *http.Request) {
	userID := auth.GetUserID(r.Context())
	stories, err := h.svc.Library(userID)
	if err != nil {
		serviceError(w, err)
		return
	}
	respond.JSON(w, StoriesResponse{Stories: stories})
}

func (h *Handlers) GetFavorites(w http.ResponseWriter, r *http.Request) {
	userID := auth.GetUserID(r.Context())
	stories, err := h.svc.Favorites(userID)
	if err != nil {
		serviceError(w, err)
		return
	}
	respond.JSON(w, StoriesResponse{Stories: stories})
}

type InteractionsResponse struct {
	Likes       int64 `json:"likes"`
	Reads       int64 `json:"reads"`
	LibraryAdds int64 `json:"libraryAdds"`
}

func interactionsResponse(cur storage.Interactions) InteractionsResponse {
	return InteractionsResponse{
		Likes:       cur.Likes,
		Reads:       cur.Reads,
		LibraryAdds: cur.LibraryAdds,
	}
}

func (h *Handlers) Like(w http.ResponseWriter, r *http.Request) {
	userID := auth.GetUserID(r.Context())
	cur, err := h.svc.Like(userID, chi.URLParam(r, "storyID"))
	if err != nil {
		serviceError(w, err)
		return
	}
	respond.JSON(w, interactionsResponse(cur))
}

func (h *Handlers) Unlike(w http.ResponseWriter, r *http.Request) {
	userID := auth.GetUserID(r.Context())
	cur, err := h.svc.Unlike(userID, chi.URLParam(r, "storyID"))
	if err != nil {
		serviceError(w, err)
		return
	}
	respond.JSON(w, interactionsResponse(cur))
}

func (h *Handlers) GetInteractions(w http.ResponseWriter, r *http.Request) {
	cur, err := h.svc.Interactions(chi.URLParam(r, "storyID"))
	if err != nil {
		serviceError(w, err)
		return
	}
	respond.JSON(w, interactionsResponse(cur))
}

type FollowRequest struct {
	Author string `json:"author"`
}

type FollowResponse struct {
	Author        string `json:"author"`
	FollowerCount int64  `json:"followerCount"`
}

func (h *Handlers) Follow(w http.ResponseWriter, r *http.Request) {
	userID := auth.GetUserID(r.Context())
	var req FollowRequest
	if err := request.DecodeJSON(r.Body, &req); err != nil {
		respond.ErrorWithCode(w, http.StatusBadRequest, respond.CODE_INVALID_JSON)
		return
	}
	if req.Author == "" {
		respond.ErrorWithText(w, http.StatusBadRequest, respond.CODE_INVALID_PARAM, "author is empty")
		return
	}
	if err := h.svc.Follow(userID, req.Author); err != nil {
		serviceError(w, err)
		return
	}
	h.respondFollow(w, userID, req.Author)
}

func (h *Handlers) Unfollow(w http.ResponseWriter, r *http.Request) {
	userID := auth.GetUserID(r.Context())
	var req FollowRequest
	if err := request.DecodeJSON(r.Body, &req); err != nil {
		respond.ErrorWithCode(w, http.StatusBadRequest, respond.CODE_INVALID_JSON)
		return
	}
	if err := h.svc.Unfollow(userID, req.Author); err != nil {
		serviceError(w, err)
		return
	}
	h.respondFollow(w, userID, req.Author)
}

func (h *Handlers) respondFollow(w http.ResponseWriter, userID int64, author string) {
	count, err := h.svc.FollowerCount(userID, author)
	if err != nil {
		serviceError(w, err)
		return
	}
	respond.JSON(w, FollowResponse{Author: author, FollowerCount: count})
}

type FollowingResponse struct {
	Authors []storage.Author `json:"authors"`
}

func (h *Handlers) GetFollowing(w http.ResponseWriter, r *http.Request) {
	userID := auth.GetUserID(r.Context())
	authors, err := h.svc.FollowingAuthors(userID)
	if err != nil {
		serviceError(w, err)
		return
	}
	respond.JSON(w, FollowingResponse{Authors: authors})
}

type SaveProgressRequest struct {
	StoryID  string  `json:"storyId"`
	Chapter  int64   `json:"chapter"`
	Progress float64 `json:"progressPercentage"`
}

func (h *Handlers) SaveProgress(w http.ResponseWriter, r *http.Request) {
	userID := auth.GetUserID(r.Context())
	var req SaveProgressRequest
	if err := request.DecodeJSON(r.Body, &req); err != nil {
		respond.ErrorWithCode(w, http.StatusBadRequest, respond.CODE_INVALID_JSON)
		return
	}
	if req.StoryID == "" || req.Chapter < 1 {
		respond.ErrorWithText(w, http.StatusBadRequest, respond.CODE_INVALID_PARAM, "storyId and a positive chapter are required")
		return
	}
	progress, err := h.svc.SaveReadingProgress(userID, req.StoryID, req.Chapter, req.Progress)
	if err != nil {
		serviceError(w, err)
		return
	}
	respond.JSON(w, progress)
}

func (h *Handlers) GetProgress(w http.ResponseWriter, r *http.Request) {
	userID := auth.GetUserID(r.Context())
	progress, err := h.svc.ReadingProgress(userID, chi.URLParam(r, "storyID"))
	if err != nil {
		serviceError(w, err)
		return
	}
	respond.JSON(w, progress)
}

type ContinueReadingResponse struct {
	Items []ContinueReadingItem `json:"items"`
}

type ContinueReadingItem struct {
	Story    storage.Story           `json:"story"`
	Progress storage.ReadingProgress `json:"progress"`
}

func (h *Handlers) ContinueReading(w http.ResponseWriter, r *http.Request) {
	userID := auth.GetUserID(r.Context())
	items, err := h.svc.ContinueReading(userID)
	if err != nil {
		serviceError(w, err)
		return
	}
	resp := ContinueReadingResponse{Items: make([]ContinueReadingItem, 0, len(items))}
	for _, item := range items {
		resp.Items = append(resp.Items, ContinueReadingItem{
			Story:    item.Story,
			Progress: item.Progress,
		})
	}
	respond.JSON(w, resp)
}

func (h *Handlers) CatalogStories(w http.ResponseWriter, r *http.Request) {
	var stories []storage.Story
	if genre := r.URL.Query().Get("genre"); genre != "" {
		stories = h.svc.StoriesByGenre(genre)
	} else {
		stories = h.svc.FeaturedStories()
	}
	respond.JSON(w, StoriesResponse{Stories: stories})
}

func (h *Handlers) CatalogAuthors(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, FollowingResponse{Authors: h.svc.FeaturedAuthors()})
}
