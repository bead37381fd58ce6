// Package client is a typed HTTP client for the messenger API.
package client

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"direct-messenger-backend/internal/apperr"
	"direct-messenger-backend/internal/models"

	"github.com/go-resty/resty/v2"
)

// APIError is a non-2xx response. It unwraps to the apperr sentinel matching
// the status code so callers can use errors.Is.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error: status %d", e.StatusCode)
	}
	return fmt.Sprintf("api error: status %d: %s", e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusBadRequest:
		return apperr.ErrInvalidInput
	case http.StatusUnauthorized:
		return apperr.ErrUnauthorized
	case http.StatusForbidden:
		return apperr.ErrForbidden
	case http.StatusNotFound:
		return apperr.ErrNotFound
	case http.StatusConflict:
		return apperr.ErrConflict
	case http.StatusServiceUnavailable:
		return apperr.ErrUnavailable
	}
	return nil
}

type errorBody struct {
	Error string `json:"error"`
}

// Session is returned by Register and Login
type Session struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

// Client talks to a messenger server
type Client struct {
	http *resty.Client
}

// New creates a client for the server at baseURL
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(timeout).
			SetHeader("Content-Type", "application/json"),
	}
}

// SetToken sets the bearer token sent with every request
func (c *Client) SetToken(token string) {
	if token != "" {
		c.http.SetAuthToken(token)
	}
}

const chatMessagesPath = "/api/v1/chats/{chat_id}/messages"

func (c *Client) request(ctx context.Context) *resty.Request {
	return c.http.R().
		SetContext(ctx).
		SetError(&errorBody{})
}

// do sends req. Path parameters set on req are escaped into path by resty.
func (c *Client) do(req *resty.Request, method, path string, body, result any) error {
	if body != nil {
		req.SetBody(body)
	}
	if result != nil {
		req.SetResult(result)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	if resp.IsError() {
		apiErr := &APIError{StatusCode: resp.StatusCode()}
		if e, ok := resp.Error().(*errorBody); ok {
			apiErr.Message = e.Error
		}
		return apiErr
	}
	return nil
}

// Register creates an account and keeps the returned token for later calls
func (c *Client) Register(ctx context.Context, phone, password string) (*Session, error) {
	return c.authenticate(ctx, "/api/v1/auth/register", phone, password)
}

// Login logs in and keeps the returned token for later calls
func (c *Client) Login(ctx context.Context, phone, password string) (*Session, error) {
	return c.authenticate(ctx, "/api/v1/auth/login", phone, password)
}

func (c *Client) authenticate(ctx context.Context, path, phone, password string) (*Session, error) {
	var out Session
	body := map[string]string{"phone": phone, "password": password}
	if err := c.do(c.request(ctx), resty.MethodPost, path, body, &out); err != nil {
		return nil, err
	}
	c.SetToken(out.Token)
	return &out, nil
}

// GetUserByPhone looks a user up by phone number
func (c *Client) GetUserByPhone(ctx context.Context, phone string) (*models.User, error) {
	var out struct {
		User *models.User `json:"user"`
	}
	req := c.request(ctx).SetQueryParams(map[string]string{"phone": phone})
	if err := c.do(req, resty.MethodGet, "/api/v1/users", nil, &out); err != nil {
		return nil, err
	}
	return out.User, nil
}

// UpdateUser overwrites the user's names and username
func (c *Client) UpdateUser(ctx context.Context, userID, firstName, lastName, username string) (*models.User, error) {
	var out struct {
		User *models.User `json:"user"`
	}
	body := map[string]string{
		"user_id":    userID,
		"first_name": firstName,
		"last_name":  lastName,
		"username":   username,
	}
	if err := c.do(c.request(ctx), resty.MethodPut, "/api/v1/users", body, &out); err != nil {
		return nil, err
	}
	return out.User, nil
}

// GetChats lists the user's chats, newest first
func (c *Client) GetChats(ctx context.Context, userID string) ([]*models.ChatSummary, error) {
	var out struct {
		Chats []*models.ChatSummary `json:"chats"`
	}
	req := c.request(ctx).SetQueryParams(map[string]string{"user_id": userID})
	if err := c.do(req, resty.MethodGet, "/api/v1/chats", nil, &out); err != nil {
		return nil, err
	}
	return out.Chats, nil
}

// CreateChat returns the chat between the two users, creating it if needed
func (c *Client) CreateChat(ctx context.Context, user1ID, user2ID string) (string, models.ChatStatus, error) {
	var out struct {
		ChatID string            `json:"chat_id"`
		Status models.ChatStatus `json:"status"`
	}
	body := map[string]string{"user1_id": user1ID, "user2_id": user2ID}
	if err := c.do(c.request(ctx), resty.MethodPost, "/api/v1/chats", body, &out); err != nil {
		return "", "", err
	}
	return out.ChatID, out.Status, nil
}

// GetMessages lists a chat's messages, oldest first
func (c *Client) GetMessages(ctx context.Context, chatID string) ([]*models.Message, error) {
	var out struct {
		Messages []*models.Message `json:"messages"`
	}
	req := c.request(ctx).SetPathParam("chat_id", chatID)
	if err := c.do(req, resty.MethodGet, chatMessagesPath, nil, &out); err != nil {
		return nil, err
	}
	return out.Messages, nil
}

// SendMessage appends a message to a chat
func (c *Client) SendMessage(ctx context.Context, chatID, senderID, text string) (*models.Message, error) {
	var out struct {
		Message *models.Message `json:"message"`
	}
	body := map[string]string{"sender_id": senderID, "text": text}
	req := c.request(ctx).SetPathParam("chat_id", chatID)
	if err := c.do(req, resty.MethodPost, chatMessagesPath, body, &out); err != nil {
		return nil, err
	}
	return out.Message, nil
}

// UpdateOnlineStatus sets the user's presence
func (c *Client) UpdateOnlineStatus(ctx context.Context, userID string, isOnline bool) error {
	body := map[string]any{"user_id": userID, "is_online": isOnline}
	return c.do(c.request(ctx), resty.MethodPut, "/api/v1/presence", body, nil)
}

// AdminGetUsers lists every user. The caller must be a developer.
func (c *Client) AdminGetUsers(ctx context.Context, adminID string) ([]*models.User, error) {
	var out struct {
		Users []*models.User `json:"users"`
	}
	req := c.request(ctx).SetQueryParams(map[string]string{"user_id": adminID})
	if err := c.do(req, resty.MethodGet, "/api/v1/admin/users", nil, &out); err != nil {
		return nil, err
	}
	return out.Users, nil
}

// AdminBlockUser sets or clears the target's blocked flag
func (c *Client) AdminBlockUser(ctx context.Context, adminID, targetUserID string, isBlocked bool) (*models.User, error) {
	var out struct {
		User *models.User `json:"user"`
	}
	body := map[string]any{"admin_id": adminID, "user_id": targetUserID, "is_blocked": isBlocked}
	if err := c.do(c.request(ctx), resty.MethodPut, "/api/v1/admin/block", body, &out); err != nil {
		return nil, err
	}
	return out.User, nil
}
