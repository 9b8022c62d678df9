package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pechorka/storyvault/internal/handler/internal/request"
	"github.com/pechorka/storyvault/internal/handler/internal/respond"
	"github.com/pechorka/storyvault/internal/handler/mw/auth"
	"github.com/pechorka/storyvault/internal/storage"
)

type LoginRequest struct {
	UserID int64 `json:"userId"`
}

type LoginResponse struct {
	Token string `json:"token"`
}

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := request.DecodeJSON(r.Body, &req); err != nil {
		respond.ErrorWithCode(w, http.StatusBadRequest, respond.CODE_INVALID_JSON)
		return
	}
	if req.UserID <= 0 {
		respond.ErrorWithText(w, http.StatusBadRequest, respond.CODE_INVALID_PARAM, "userId must be positive")
		return
	}
	token, err := h.svc.Login(req.UserID)
	if err != nil {
		serviceError(w, err)
		return
	}
	respond.JSON(w, LoginResponse{Token: token})
}

func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	userID := auth.GetUserID(r.Context())
	if err := h.svc.Logout(userID); err != nil {
		serviceError(w, err)
		return
	}
	respond.JSON(w, struct{}{})
}

func (h *Handlers) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID := auth.GetUserID(r.Context())
	profile, err := h.svc.Profile(userID)
	if err != nil {
		serviceError(w, err)
		return
	}
	respond.JSON(w, profile)
}

type UpdateProfileRequest struct {
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
	Bio    string `json:"bio"`
}

func (h *Handlers) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID := auth.GetUserID(r.Context())
	var req UpdateProfileRequest
	if err := request.DecodeJSON(r.Body, &req); err != nil {
		respond.ErrorWithCode(w, http.StatusBadRequest, respond.CODE_INVALID_JSON)
		return
	}
	profile, err := h.svc.UpdateProfile(userID, req.Name, req.Avatar, req.Bio)
	if err != nil {
		serviceError(w, err)
		return
	}
	respond.JSON(w, profile)
}

type BalanceResponse struct {
	Balance int64 `json:"balance"`
}

func (h *Handlers) GetBalance(w http.ResponseWriter, r *http.Request) {
	userID := auth.GetUserID(r.Context())
	balance, err := h.svc.Balance(userID)
	if err != nil {
		serviceError(w, err)
		return
	}
	respond.JSON(w, BalanceResponse{Balance: balance})
}

type EarnCoinsRequest struct {
	Amount int64 `json:"amount"`
}

func (h *Handlers) EarnCoins(w http.ResponseWriter, r *http.Request) {
	userID := auth.GetUserID(r.Context())
	var req EarnCoinsRequest
	if err := request.DecodeJSON(r.Body, &req); err != nil {
		respond.ErrorWithCode(w, http.StatusBadRequest, respond.CODE_INVALID_JSON)
		return
	}
	if req.Amount <= 0 {
		respond.ErrorWithText(w, http.StatusBadRequest, respond.CODE_INVALID_PARAM, "amount must be positive")
		return
	}
	balance, err := h.svc.EarnCoins(userID, req.Amount)
	if err != nil {
		serviceError(w, err)
		return
	}
	respond.JSON(w, BalanceResponse{Balance: balance})
}

func (h *Handlers) ClaimWelcomeBonus(w http.ResponseWriter, r *http.Request) {
	userID := auth.GetUserID(r.Context())
	balance, err := h.svc.ClaimWelcomeBonus(userID)
	if err != nil {
		serviceError(w, err)
		return
	}
	respond.JSON(w, BalanceResponse{Balance: balance})
}

type UnlockResponse struct {
	Unlocked  bool  `json:"unlocked"`
	Balance   int64 `json:"balance"`
	Price     int64 `json:"price"`
	Shortfall int64 `json:"shortfall,omitempty"`
}

func (h *Handlers) UnlockStory(w http.ResponseWriter, r *http.Request) {
	userID := auth.GetUserID(r.Context())
	outcome, err := h.svc.UnlockStory(userID, chi.URLParam(r, "storyID"))
	if err != nil {
		serviceError(w, err)
		return
	}
	respond.JSON(w, UnlockResponse{
		Unlocked:  outcome.Unlocked,
		Balance:   outcome.Balance,
		Price:     outcome.Price,
		Shortfall: outcome.Shortfall,
	})
}

type NotificationsResponse struct {
	Notifications []storage.Notification `json:"notifications"`
}

func (h *Handlers) GetNotifications(w http.ResponseWriter, r *http.Request) {
	userID := auth.GetUserID(r.Context())
	feed, err := h.svc.Notifications(userID)
	if err != nil {
		serviceError(w, err)
		return
	}
	respond.JSON(w, NotificationsResponse{Notifications: feed})
}

type UnreadCountResponse struct {
	Unread int `json:"unread"`
}

func (h *Handlers) GetUnreadCount(w http.ResponseWriter, r *http.Request) {
	userID := auth.GetUserID(r.Context())
	count, err := h.svc.UnreadNotificationCount(userID)
	if err != nil {
		serviceError(w, err)
		return
	}
	respond.JSON(w, UnreadCountResponse{Unread: count})
}

func (h *Handlers) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	userID := auth.GetUserID(r.Context())
	if err := h.svc.MarkNotificationRead(userID, chi.URLParam(r, "notificationID")); err != nil {
		serviceError(w, err)
		return
	}
	respond.JSON(w, struct{}{})
}

func (h *Handlers) MarkAllNotificationsRead(w http.ResponseWriter, r *http.Request) {
	userID := auth.GetUserID(r.Context())
	if err := h.svc.MarkAllNotificationsRead(userID); err != nil {
		serviceError(w, err)
		return
	}
	respond.JSON(w, struct{}{})
}

type ExportResponse struct {
	Payload string `json:"payload"`
}

func (h *Handlers) ExportData(w http.ResponseWriter, r *http.Request) {
	userID := auth.GetUserID(r.Context())
	payload, err := h.svc.ExportUserData(userID)
	if err != nil {
		serviceError(w, err)
		return
	}
	respond.JSON(w, ExportResponse{Payload: payload})
}

func (h *Handlers) ImportData(w http.ResponseWriter, r *http.Request) {
	userID := auth.GetUserID(r.Context())
	var req ExportResponse
	if err := request.DecodeJSON(r.Body, &req); err != nil {
		respond.ErrorWithCode(w, http.StatusBadRequest, respond.CODE_INVALID_JSON)
		return
	}
	if err := h.svc.ImportUserData(userID, req.Payload); err != nil {
		respond.ErrorWithText(w, http.StatusBadRequest, respond.CODE_INVALID_PARAM, err.Error())
		return
	}
	respond.JSON(w, struct{}{})
}
