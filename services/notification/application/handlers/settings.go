package handlers

import (
	"net/http"
	"time"

	"github.com/ghuser/budgetly/pkg/auth"
	"github.com/ghuser/budgetly/pkg/errhttp"
	"github.com/ghuser/budgetly/pkg/httpx"
	pkgvalidator "github.com/ghuser/budgetly/pkg/validator"
	appsvcs "github.com/ghuser/budgetly/services/notification/application/services"
	"github.com/ghuser/budgetly/services/notification/domain/models"
)

// UpdateSettingsRequest is the request body for PUT /settings.
type UpdateSettingsRequest struct {
	NotifyLimitExceeded *bool `json:"notifyLimitExceeded"`
	NotifyGoalReached   *bool `json:"notifyGoalReached"`
}

// LinkTelegramRequest is the request body for POST /settings/telegram.
type LinkTelegramRequest struct {
	ChatID string `json:"chatId" validate:"required,max=64"`
}

// SettingsResponse is a user's notification settings as returned by the API.
type SettingsResponse struct {
	TelegramChatID      *string   `json:"telegramChatId"`
	TelegramLinked      bool      `json:"telegramLinked"`
	NotifyLimitExceeded bool      `json:"notifyLimitExceeded"`
	NotifyGoalReached   bool      `json:"notifyGoalReached"`
	UpdatedAt           time.Time `json:"updatedAt"`
}

func toSettingsResponse(s *models.Settings) SettingsResponse {
	return SettingsResponse{
		TelegramChatID:      s.TelegramChatID,
		TelegramLinked:      s.TelegramChatID != nil,
		NotifyLimitExceeded: s.NotifyLimitExceeded,
		NotifyGoalReached:   s.NotifyGoalReached,
		UpdatedAt:           s.UpdatedAt,
	}
}

// SettingsHandler handles /settings requests.
type SettingsHandler struct {
	svc *appsvcs.Services
}

// NewSettingsHandler returns a SettingsHandler backed by the given services.
func NewSettingsHandler(svc *appsvcs.Services) *SettingsHandler {
	return &SettingsHandler{svc: svc}
}

// Get handles GET /settings.
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	s, err := h.svc.Settings.GetOrCreate(r.Context(), userID)
	if err != nil {
		errhttp.WriteError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toSettingsResponse(s))
}

// Update handles PUT /settings. Omitted flags are left unchanged.
func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	req, ok := pkgvalidator.ValidateRequest[UpdateSettingsRequest](w, r)
	if !ok {
		return
	}
	s, err := h.svc.Settings.UpdatePreferences(r.Context(), userID, req.NotifyLimitExceeded, req.NotifyGoalReached)
	if err != nil {
		errhttp.WriteError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toSettingsResponse(s))
}

// LinkTelegram handles POST /settings/telegram.
func (h *SettingsHandler) LinkTelegram(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	req, ok := pkgvalidator.ValidateRequest[LinkTelegramRequest](w, r)
	if !ok {
		return
	}
	s, err := h.svc.Settings.LinkTelegram(r.Context(), userID, req.ChatID)
	if err != nil {
		errhttp.WriteError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toSettingsResponse(s))
}

// UnlinkTelegram handles DELETE /settings/telegram.
func (h *SettingsHandler) UnlinkTelegram(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	s, err := h.svc.Settings.UnlinkTelegram(r.Context(), userID)
	if err != nil {
		errhttp.WriteError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toSettingsResponse(s))
}

func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, err := auth.UserIDFromCtx(r.Context())
	if err != nil {
		httpx.JSONError(w, http.StatusUnauthorized, "authentication required")
		return "", false
	}
	return userID, true
}
