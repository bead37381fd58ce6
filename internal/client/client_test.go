package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"direct-messenger-backend/internal/apperr"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	r := chi.NewRouter()
	r.Post("/api/v1/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["password"] != "pw" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"user":  map[string]any{"id": "u1", "phone": body["phone"], "last_seen": nil},
			"token": "tok",
		})
	})
	r.Get("/api/v1/chats", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid token"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"chats": []map[string]any{
			{"id": "c1", "other_user_id": r.URL.Query().Get("user_id") + "-peer"},
		}})
	})
	r.Post("/api/v1/chats", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusCreated, map[string]string{"chat_id": "c1", "status": "created"})
	})
	r.Post("/api/v1/chats/{chat_id}/messages", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		writeJSON(w, http.StatusCreated, map[string]any{"message": map[string]any{
			"id": "m1", "chat_id": chi.URLParam(r, "chat_id"), "sender_id": body["sender_id"],
			"text": body["text"], "timestamp": "2026-03-01T12:00:00.123456789Z",
		}})
	})
	r.Get("/api/v1/chats/{chat_id}/messages", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"messages": []map[string]any{
			{"id": "m1", "chat_id": chi.URLParam(r, "chat_id"), "text": r.URL.EscapedPath()},
		}})
	})
	r.Get("/api/v1/admin/users", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "access denied"})
	})
	r.Put("/api/v1/presence", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_LoginStoresToken(t *testing.T) {
	c := New(newServer(t).URL, 5*time.Second)
	ctx := context.Background()

	_, err := c.GetChats(ctx, "u1")
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	session, err := c.Login(ctx, "5550001", "pw")
	require.NoError(t, err)
	assert.Equal(t, "u1", session.User.ID)
	assert.Nil(t, session.User.LastSeen)

	chats, err := c.GetChats(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, chats, 1)
	assert.Equal(t, "u1-peer", chats[0].OtherUserID)
}

func TestClient_LoginFailure(t *testing.T) {
	c := New(newServer(t).URL, 5*time.Second)

	_, err := c.Login(context.Background(), "5550001", "wrong")
	require.ErrorIs(t, err, apperr.ErrUnauthorized)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "invalid credentials", apiErr.Message)
}

func TestClient_ChatAndMessages(t *testing.T) {
	c := New(newServer(t).URL, 5*time.Second)
	ctx := context.Background()

	chatID, status, err := c.CreateChat(ctx, "a", "b")
	require.NoError(t, err)
	assert.Equal(t, "c1", chatID)
	assert.EqualValues(t, "created", status)

	msg, err := c.SendMessage(ctx, chatID, "a", "hi")
	require.NoError(t, err)
	assert.Equal(t, "c1", msg.ChatID)
	assert.Equal(t, 123456789, msg.Timestamp.Nanosecond())

	require.NoError(t, c.UpdateOnlineStatus(ctx, "a", false))
}

func TestClient_GetMessagesEscapesChatID(t *testing.T) {
	c := New(newServer(t).URL, 5*time.Second)

	messages, err := c.GetMessages(context.Background(), "a/b?x")
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, "/api/v1/chats/a%2Fb%3Fx/messages", messages[0].Text)
}

func TestClient_AdminForbidden(t *testing.T) {
	c := New(newServer(t).URL, 5*time.Second)

	_, err := c.AdminGetUsers(context.Background(), "u1")
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestAPIError_Unwrap(t *testing.T) {
	assert.ErrorIs(t, &APIError{StatusCode: http.StatusConflict}, apperr.ErrConflict)
	assert.Nil(t, (&APIError{StatusCode: http.StatusTeapot}).Unwrap())
	assert.Contains(t, (&APIError{StatusCode: 500}).Error(), "500")
}
