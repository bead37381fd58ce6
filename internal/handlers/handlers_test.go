package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"direct-messenger-backend/internal/apperr"
	"direct-messenger-backend/internal/middleware"
	"direct-messenger-backend/internal/models"
	"direct-messenger-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAccounts struct {
	users map[string]*models.User // by phone
}

func (s *stubAccounts) Register(_ context.Context, phone, password string) (*services.Session, error) {
	if _, ok := s.users[phone]; ok {
		return nil, fmt.Errorf("user already exists: %w", apperr.ErrConflict)
	}
	u := &models.User{ID: "u" + phone, Phone: phone, Password: password, IsOnline: true}
	s.users[phone] = u
	return &services.Session{User: u}, nil
}

func (s *stubAccounts) Login(_ context.Context, phone, password string) (*services.Session, error) {
	u, ok := s.users[phone]
	if !ok || u.Password != password {
		return nil, fmt.Errorf("invalid credentials: %w", apperr.ErrUnauthorized)
	}
	return &services.Session{User: u, Token: "tok"}, nil
}

func (s *stubAccounts) GetByPhone(_ context.Context, phone string) (*models.User, error) {
	if u, ok := s.users[phone]; ok {
		return u, nil
	}
	return nil, fmt.Errorf("user: %w", apperr.ErrNotFound)
}

func (s *stubAccounts) UpdateProfile(_ context.Context, userID, first, last, username string) (*models.User, error) {
	for _, u := range s.users {
		if u.ID == userID {
			u.FirstName, u.LastName, u.Username = first, last, username
			return u, nil
		}
	}
	return nil, fmt.Errorf("user: %w", apperr.ErrNotFound)
}

type stubPresence struct {
	calls map[string]bool
	err   error
}

func (s *stubPresence) SetPresence(_ context.Context, userID string, isOnline bool) (*models.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.calls[userID] = isOnline
	return &models.User{ID: userID, IsOnline: isOnline}, nil
}

type stubChats struct {
	pairs map[string]string
}

func pairKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + "|" + b
}

func (s *stubChats) GetChatsForUser(_ context.Context, userID string) ([]*models.ChatSummary, error) {
	return []*models.ChatSummary{}, nil
}

func (s *stubChats) GetOrCreateChat(_ context.Context, a, b string) (string, models.ChatStatus, error) {
	if id, ok := s.pairs[pairKey(a, b)]; ok {
		return id, models.ChatExisting, nil
	}
	id := fmt.Sprintf("c%d", len(s.pairs)+1)
	s.pairs[pairKey(a, b)] = id
	return id, models.ChatCreated, nil
}

type stubMessages struct {
	log map[string][]*models.Message
}

func (s *stubMessages) Append(_ context.Context, chatID, senderID, text string) (*models.Message, error) {
	if chatID == "missing" {
		return nil, fmt.Errorf("chat %s: %w", chatID, apperr.ErrNotFound)
	}
	m := &models.Message{ID: "m1", ChatID: chatID, SenderID: senderID, Text: text, Timestamp: time.Now()}
	s.log[chatID] = append(s.log[chatID], m)
	return m, nil
}

func (s *stubMessages) List(_ context.Context, chatID string) ([]*models.Message, error) {
	msgs := s.log[chatID]
	if msgs == nil {
		msgs = []*models.Message{}
	}
	return msgs, nil
}

type stubAdmin struct{}

func (stubAdmin) Authorize(_ context.Context, actor string) (bool, error) {
	return actor == "dev", nil
}

func (stubAdmin) ListAllUsers(_ context.Context, actor string) ([]*models.User, error) {
	if actor != "dev" {
		return nil, fmt.Errorf("access denied: %w", apperr.ErrForbidden)
	}
	return []*models.User{{ID: "dev", IsDeveloper: true}}, nil
}

func (stubAdmin) SetBlocked(_ context.Context, actor, target string, isBlocked bool) (*models.User, error) {
	if actor != "dev" {
		return nil, fmt.Errorf("access denied: %w", apperr.ErrForbidden)
	}
	if target == "ghost" {
		return nil, fmt.Errorf("user: %w", apperr.ErrNotFound)
	}
	return &models.User{ID: target, IsBlocked: isBlocked}, nil
}

type testEnv struct {
	router   chi.Router
	accounts *stubAccounts
	presence *stubPresence
}

func newTestEnv() *testEnv {
	env := &testEnv{
		accounts: &stubAccounts{users: map[string]*models.User{}},
		presence: &stubPresence{calls: map[string]bool{}},
	}
	users := NewUserHandler(env.accounts, env.presence)
	chats := NewChatHandler(&stubChats{pairs: map[string]string{}})
	messages := NewMessageHandler(&stubMessages{log: map[string][]*models.Message{}})
	admin := NewAdminHandler(stubAdmin{})

	r := chi.NewRouter()
	r.Post("/auth/register", users.Register)
	r.Post("/auth/login", users.Login)
	r.Get("/users", users.GetUser)
	r.Put("/users", users.UpdateProfile)
	r.Put("/presence", users.UpdatePresence)
	r.Get("/chats", chats.GetChats)
	r.Post("/chats", chats.CreateChat)
	r.Get("/chats/{chat_id}/messages", messages.GetMessages)
	r.Post("/chats/{chat_id}/messages", messages.SendMessage)
	r.Get("/admin/users", admin.ListUsers)
	r.Put("/admin/block", admin.SetBlocked)
	env.router = r
	return env
}

func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	return e.doCtx(t, context.Background(), method, path, body)
}

func (e *testEnv) doCtx(t *testing.T, ctx context.Context, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body)).WithContext(ctx)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestRegisterAndLogin(t *testing.T) {
	env := newTestEnv()

	rec := env.do(t, http.MethodPost, "/auth/register", `{"phone":"5550001","password":"pw"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	user := decode(t, rec)["user"].(map[string]any)
	assert.Equal(t, "u5550001", user["id"])
	assert.NotContains(t, user, "password")

	rec = env.do(t, http.MethodPost, "/auth/register", `{"phone":"5550001","password":"other"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, decode(t, rec)["error"], "user already exists")

	rec = env.do(t, http.MethodPost, "/auth/login", `{"phone":"5550001","password":"nope"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodPost, "/auth/login", `{"phone":"5550001","password":"pw"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "tok", decode(t, rec)["token"])
}

func TestRegister_ValidationErrors(t *testing.T) {
	env := newTestEnv()

	rec := env.do(t, http.MethodPost, "/auth/register", `{"phone":"5550001"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NotEmpty(t, decode(t, rec)["error"])

	rec = env.do(t, http.MethodPost, "/auth/register", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetUser(t *testing.T) {
	env := newTestEnv()
	env.do(t, http.MethodPost, "/auth/register", `{"phone":"5550001","password":"pw"}`)

	rec := env.do(t, http.MethodGet, "/users?phone=5550001", "")
	require.Equal(t, http.StatusOK, rec.Code)
	user := decode(t, rec)["user"].(map[string]any)
	assert.Contains(t, user, "last_seen")

	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/users?phone=000", "").Code)
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/users", "").Code)
}

func TestUpdateProfile_ActorMustMatchToken(t *testing.T) {
	env := newTestEnv()
	env.do(t, http.MethodPost, "/auth/register", `{"phone":"5550001","password":"pw"}`)
	body := `{"user_id":"u5550001","first_name":"Ann","last_name":"Lee","username":"ann"}`

	ctx := middleware.WithUserID(context.Background(), "someone-else")
	rec := env.doCtx(t, ctx, http.MethodPut, "/users", body)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodPut, "/users", body)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ann", decode(t, rec)["user"].(map[string]any)["username"])
}

func TestUpdatePresence(t *testing.T) {
	env := newTestEnv()

	rec := env.do(t, http.MethodPut, "/presence", `{"user_id":"u1","is_online":false}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decode(t, rec)["success"])
	online, ok := env.presence.calls["u1"]
	require.True(t, ok)
	assert.False(t, online)

	rec = env.do(t, http.MethodPut, "/presence", `{"user_id":"u1"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdatePresence_StoreUnavailable(t *testing.T) {
	env := newTestEnv()
	env.presence.err = fmt.Errorf("failed to begin transaction: %w", apperr.ErrUnavailable)

	rec := env.do(t, http.MethodPut, "/presence", `{"user_id":"u1","is_online":true}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "service temporarily unavailable", decode(t, rec)["error"])
}

func TestCreateChat_Idempotent(t *testing.T) {
	env := newTestEnv()

	rec := env.do(t, http.MethodPost, "/chats", `{"user1_id":"a","user2_id":"b"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	first := decode(t, rec)
	assert.Equal(t, "created", first["status"])

	rec = env.do(t, http.MethodPost, "/chats", `{"user1_id":"b","user2_id":"a"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	second := decode(t, rec)
	assert.Equal(t, "existing", second["status"])
	assert.Equal(t, first["chat_id"], second["chat_id"])
}

func TestGetChats_EmptyIsArray(t *testing.T) {
	env := newTestEnv()

	rec := env.do(t, http.MethodGet, "/chats?user_id=a", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"chats":[]}`, rec.Body.String())
}

func TestMessages(t *testing.T) {
	env := newTestEnv()

	rec := env.do(t, http.MethodGet, "/chats/c1/messages", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"messages":[]}`, rec.Body.String())

	rec = env.do(t, http.MethodPost, "/chats/c1/messages", `{"sender_id":"a","text":"hi"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "hi", decode(t, rec)["message"].(map[string]any)["text"])

	rec = env.do(t, http.MethodGet, "/chats/c1/messages", "")
	msgs := decode(t, rec)["messages"].([]any)
	assert.Len(t, msgs, 1)

	rec = env.do(t, http.MethodPost, "/chats/missing/messages", `{"sender_id":"a","text":"hi"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodPost, "/chats/c1/messages", `{"sender_id":"a"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdmin(t *testing.T) {
	env := newTestEnv()

	rec := env.do(t, http.MethodGet, "/admin/users?user_id=u1", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, decode(t, rec)["error"], "access denied")

	rec = env.do(t, http.MethodGet, "/admin/users?user_id=dev", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["users"], 1)

	rec = env.do(t, http.MethodPut, "/admin/block", `{"admin_id":"u1","user_id":"u2","is_blocked":true}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodPut, "/admin/block", `{"admin_id":"u1"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodPut, "/admin/block", `{"admin_id":"dev","is_blocked":true}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPut, "/admin/block", `{"admin_id":"dev","user_id":"u2"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPut, "/admin/block", `{"admin_id":"dev","user_id":"ghost","is_blocked":true}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodPut, "/admin/block", `{"admin_id":"dev","user_id":"u2","is_blocked":true}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decode(t, rec)["user"].(map[string]any)["is_blocked"])
}

func TestStatusCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{apperr.ErrInvalidInput, http.StatusBadRequest},
		{apperr.ErrUnauthorized, http.StatusUnauthorized},
		{apperr.ErrForbidden, http.StatusForbidden},
		{fmt.Errorf("wrapped: %w", apperr.ErrNotFound), http.StatusNotFound},
		{apperr.ErrConflict, http.StatusConflict},
		{apperr.ErrUnavailable, http.StatusServiceUnavailable},
		{fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusCode(tt.err), tt.err.Error())
	}
}

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }

func TestHealthz(t *testing.T) {
	rec := httptest.NewRecorder()
	NewHealthHandler(stubPinger{}).Healthz(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	NewHealthHandler(stubPinger{err: fmt.Errorf("down")}).Healthz(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
