package handlers

import (
	"net/http"

	"direct-messenger-backend/internal/middleware"

	"github.com/rs/zerolog/log"
	"github.com/thedevsaddam/govalidator"
)

// AdminHandler handles developer-only HTTP requests
type AdminHandler struct {
	admin AdminService
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(admin AdminService) *AdminHandler {
	return &AdminHandler{admin: admin}
}

// ListUsers handles GET /api/v1/admin/users?user_id=
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	actorID := r.URL.Query().Get("user_id")
	if err := middleware.AuthorizeActor(r.Context(), actorID); err != nil {
		respondServiceError(w, err, "Failed to list users")
		return
	}

	users, err := h.admin.ListAllUsers(r.Context(), actorID)
	if err != nil {
		respondServiceError(w, err, "Failed to list users")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"users": users})
}

// SetBlockedRequest is the body of PUT /api/v1/admin/block
type SetBlockedRequest struct {
	AdminID   string `json:"admin_id"`
	UserID    string `json:"user_id"`
	IsBlocked *bool  `json:"is_blocked"`
}

// SetBlocked handles PUT /api/v1/admin/block
func (h *AdminHandler) SetBlocked(w http.ResponseWriter, r *http.Request) {
	var req SetBlockedRequest
	if !decodeJSON(w, r, &req, govalidator.MapData{"admin_id": []string{"required"}}) {
		return
	}
	if err := middleware.AuthorizeActor(r.Context(), req.AdminID); err != nil {
		respondServiceError(w, err, "Failed to update user")
		return
	}
	ok, err := h.admin.Authorize(r.Context(), req.AdminID)
	if err != nil {
		respondServiceError(w, err, "Failed to update user")
		return
	}
	if !ok {
		respondError(w, "access denied", http.StatusForbidden)
		return
	}
	if req.UserID == "" {
		respondError(w, "user_id is required", http.StatusBadRequest)
		return
	}
	if req.IsBlocked == nil {
		respondError(w, "is_blocked is required", http.StatusBadRequest)
		return
	}

	user, err := h.admin.SetBlocked(r.Context(), req.AdminID, req.UserID, *req.IsBlocked)
	if err != nil {
		respondServiceError(w, err, "Failed to update user")
		return
	}

	log.Info().
		Str("admin_id", req.AdminID).
		Str("user_id", user.ID).
		Bool("is_blocked", user.IsBlocked).
		Msg("User block status changed")

	respondJSON(w, http.StatusOK, map[string]any{"user": user})
}
