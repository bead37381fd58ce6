package handlers

import (
	"net/http"

	"direct-messenger-backend/internal/middleware"

	"github.com/rs/zerolog/log"
	"github.com/thedevsaddam/govalidator"
)

// UserHandler handles account and presence HTTP requests
type UserHandler struct {
	accounts AccountService
	presence PresenceService
}

// NewUserHandler creates a new user handler
func NewUserHandler(accounts AccountService, presence PresenceService) *UserHandler {
	return &UserHandler{
		accounts: accounts,
		presence: presence,
	}
}

// CredentialsRequest is the body of register and login
type CredentialsRequest struct {
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

var credentialsRules = govalidator.MapData{
	"phone":    []string{"required"},
	"password": []string{"required"},
}

// Register handles POST /api/v1/auth/register
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if !decodeJSON(w, r, &req, credentialsRules) {
		return
	}

	session, err := h.accounts.Register(r.Context(), req.Phone, req.Password)
	if err != nil {
		respondServiceError(w, err, "Failed to register user")
		return
	}

	log.Info().
		Str("user_id", session.User.ID).
		Msg("User registered")

	respondJSON(w, http.StatusCreated, session)
}

// Login handles POST /api/v1/auth/login
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if !decodeJSON(w, r, &req, credentialsRules) {
		return
	}

	session, err := h.accounts.Login(r.Context(), req.Phone, req.Password)
	if err != nil {
		respondServiceError(w, err, "Failed to log in")
		return
	}

	log.Info().
		Str("user_id", session.User.ID).
		Msg("User logged in")

	respondJSON(w, http.StatusOK, session)
}

// GetUser handles GET /api/v1/users?phone=
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	phone := r.URL.Query().Get("phone")
	if phone == "" {
		respondError(w, "phone is required", http.StatusBadRequest)
		return
	}

	user, err := h.accounts.GetByPhone(r.Context(), phone)
	if err != nil {
		respondServiceError(w, err, "Failed to get user")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"user": user})
}

// UpdateProfileRequest is the body of PUT /api/v1/users
type UpdateProfileRequest struct {
	UserID    string `json:"user_id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Username  string `json:"username"`
}

// UpdateProfile handles PUT /api/v1/users
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req UpdateProfileRequest
	if !decodeJSON(w, r, &req, govalidator.MapData{"user_id": []string{"required"}}) {
		return
	}
	if err := middleware.AuthorizeActor(r.Context(), req.UserID); err != nil {
		respondServiceError(w, err, "Failed to update profile")
		return
	}

	user, err := h.accounts.UpdateProfile(r.Context(), req.UserID, req.FirstName, req.LastName, req.Username)
	if err != nil {
		respondServiceError(w, err, "Failed to update profile")
		return
	}

	log.Info().
		Str("user_id", user.ID).
		Msg("Profile updated")

	respondJSON(w, http.StatusOK, map[string]any{"user": user})
}

// PresenceRequest is the body of PUT /api/v1/presence
type PresenceRequest struct {
	UserID   string `json:"user_id"`
	IsOnline *bool  `json:"is_online"`
}

// UpdatePresence handles PUT /api/v1/presence
func (h *UserHandler) UpdatePresence(w http.ResponseWriter, r *http.Request) {
	var req PresenceRequest
	if !decodeJSON(w, r, &req, govalidator.MapData{"user_id": []string{"required"}}) {
		return
	}
	if req.IsOnline == nil {
		respondError(w, "is_online is required", http.StatusBadRequest)
		return
	}
	if err := middleware.AuthorizeActor(r.Context(), req.UserID); err != nil {
		respondServiceError(w, err, "Failed to update presence")
		return
	}

	if _, err := h.presence.SetPresence(r.Context(), req.UserID, *req.IsOnline); err != nil {
		respondServiceError(w, err, "Failed to update presence")
		return
	}

	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}
