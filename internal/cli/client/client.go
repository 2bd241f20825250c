package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/procharity/pcadmin/internal/cli/auth"
	"github.com/procharity/pcadmin/internal/cli/gateway"
	"github.com/procharity/pcadmin/internal/cli/richtext"
)

// Client represents a typed client for the ProCharity admin API
type Client struct {
	gw *gateway.Gateway
}

// New creates a new API client on top of an authenticated gateway
func New(gw *gateway.Gateway) *Client {
	return &Client{gw: gw}
}

// MessageResponse is the body returned by write endpoints
type MessageResponse struct {
	Message string `json:"message"`
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login authenticates the admin and stores the issued token pair
func (c *Client) Login(ctx context.Context, email, password string) error {
	req, err := gateway.NewRequest(http.MethodPost, "/auth/login/", LoginRequest{
		Email:    email,
		Password: password,
	})
	if err != nil {
		return err
	}
	req.Anonymous = true

	var tokens auth.Tokens
	if err := c.gw.Call(ctx, req, &tokens); err != nil {
		return err
	}
	if !tokens.Complete() {
		return fmt.Errorf("%w: login response is missing a token", gateway.ErrMalformedResponse)
	}

	if err := c.gw.Session().Replace(tokens); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Logout drops the stored session
func (c *Client) Logout() error {
	return c.gw.Session().Clear()
}

// Analytics is the dashboard summary
type Analytics struct {
	TotalUsers        int            `json:"total_users"`
	UsersWithMailing  int            `json:"users_with_mailing"`
	AddedUsersByDay   map[string]int `json:"added_users"`
	MailingUsersByDay map[string]int `json:"mailing_users"`
}

// Analytics fetches the dashboard summary
func (c *Client) Analytics(ctx context.Context) (*Analytics, error) {
	req, err := gateway.NewRequest(http.MethodGet, "/analytics/", nil)
	if err != nil {
		return nil, err
	}

	var analytics Analytics
	if err := c.gw.Call(ctx, req, &analytics); err != nil {
		return nil, err
	}
	return &analytics, nil
}

// User represents a volunteer registered through the Telegram bot
type User struct {
	TelegramID       int64     `json:"telegram_id"`
	FirstName        string    `json:"first_name"`
	LastName         *string   `json:"last_name"`
	Email            *string   `json:"email"`
	Username         *string   `json:"username"`
	HasMailing       bool      `json:"has_mailing"`
	DateRegistration time.Time `json:"date_registration"`
}

// UserPage is one page of the user table
type UserPage struct {
	Result      []User `json:"result"`
	CurrentPage int    `json:"current_page"`
	Total       int    `json:"total"`
	Pages       int    `json:"pages"`
}

// ListUsers returns one page of registered users
func (c *Client) ListUsers(ctx context.Context, page, limit int) (*UserPage, error) {
	req, err := gateway.NewRequest(http.MethodGet, "/users/", nil)
	if err != nil {
		return nil, err
	}
	req.Query = url.Values{
		"page":  []string{strconv.Itoa(page)},
		"limit": []string{strconv.Itoa(limit)},
	}

	var users UserPage
	if err := c.gw.Call(ctx, req, &users); err != nil {
		return nil, err
	}
	return &users, nil
}

// InviteRequest represents an invitation for a new admin
type InviteRequest struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// Invite sends a registration invitation
func (c *Client) Invite(ctx context.Context, invite InviteRequest) (*MessageResponse, error) {
	return c.write(ctx, "/auth/invitation/", invite, false)
}

// RegisterRequest completes an invitation. Token is the id from the
// invitation link.
type RegisterRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Token     string `json:"token"`
}

// Register creates an admin account from an invitation
func (c *Client) Register(ctx context.Context, register RegisterRequest) error {
	_, err := c.write(ctx, "/auth/register/", register, true)
	return err
}

// ResetPasswordRequest asks for a password reset link
type ResetPasswordRequest struct {
	Email string `json:"email"`
}

// ResetPassword requests a password reset email
func (c *Client) ResetPassword(ctx context.Context, email string) (*MessageResponse, error) {
	return c.write(ctx, "/auth/password_reset/", ResetPasswordRequest{Email: email}, true)
}

// BroadcastRequest represents a Telegram notification to volunteers
type BroadcastRequest struct {
	Message    string `json:"message"`
	HasMailing bool   `json:"has_mailing"`
}

// SendBroadcast sends a notification. The message may contain editor
// HTML; paragraphs and line breaks are converted to plain newlines.
func (c *Client) SendBroadcast(ctx context.Context, broadcast BroadcastRequest) (*MessageResponse, error) {
	broadcast.Message = richtext.Normalize(broadcast.Message)
	return c.write(ctx, "/send_telegram_notification/", broadcast, false)
}

func (c *Client) write(ctx context.Context, path string, body any, anonymous bool) (*MessageResponse, error) {
	req, err := gateway.NewRequest(http.MethodPost, path, body)
	if err != nil {
		return nil, err
	}
	req.Anonymous = anonymous

	var resp MessageResponse
	if err := c.gw.Call(ctx, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
