package commands

import (
	"context"
	"errors"

	"github.com/procharity/pcadmin/internal/cli/client"
)

// mockAPI records calls and returns canned responses
type mockAPI struct {
	err error

	analytics *client.Analytics
	users     *client.UserPage
	message   string

	loginEmail    string
	loginPassword string
	loggedOut     bool
	page, limit   int
	invite        client.InviteRequest
	register      client.RegisterRequest
	resetEmail    string
	broadcast     client.BroadcastRequest
	calls         int
}

func (m *mockAPI) Login(ctx context.Context, email, password string) error {
	m.calls++
	m.loginEmail, m.loginPassword = email, password
	return m.err
}

func (m *mockAPI) Logout() error {
	m.calls++
	m.loggedOut = true
	return m.err
}

func (m *mockAPI) Analytics(ctx context.Context) (*client.Analytics, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.analytics, nil
}

func (m *mockAPI) ListUsers(ctx context.Context, page, limit int) (*client.UserPage, error) {
	m.calls++
	m.page, m.limit = page, limit
	if m.err != nil {
		return nil, m.err
	}
	return m.users, nil
}

func (m *mockAPI) Invite(ctx context.Context, invite client.InviteRequest) (*client.MessageResponse, error) {
	m.calls++
	m.invite = invite
	return m.response()
}

func (m *mockAPI) Register(ctx context.Context, register client.RegisterRequest) error {
	m.calls++
	m.register = register
	return m.err
}

func (m *mockAPI) ResetPassword(ctx context.Context, email string) (*client.MessageResponse, error) {
	m.calls++
	m.resetEmail = email
	return m.response()
}

func (m *mockAPI) SendBroadcast(ctx context.Context, broadcast client.BroadcastRequest) (*client.MessageResponse, error) {
	m.calls++
	m.broadcast = broadcast
	return m.response()
}

func (m *mockAPI) response() (*client.MessageResponse, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &client.MessageResponse{Message: m.message}, nil
}

var errAPI = errors.New("request failed with status 500")

func strPtr(s string) *string {
	return &s
}
