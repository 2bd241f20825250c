package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/procharity/pcadmin/internal/cli/auth"
	"github.com/procharity/pcadmin/internal/cli/gateway"
)

type recorded struct {
	method string
	path   string
	query  string
	auth   string
	body   map[string]any
}

func newTestClient(t *testing.T, tokens auth.Tokens, handler func(w http.ResponseWriter, r *http.Request)) (*Client, *auth.MemoryStore, *[]recorded) {
	t.Helper()

	var requests []recorded
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recorded{
			method: r.Method,
			path:   r.URL.Path,
			query:  r.URL.RawQuery,
			auth:   r.Header.Get("Authorization"),
		}
		if r.ContentLength > 0 {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&rec.body))
		}
		requests = append(requests, rec)
		handler(w, r)
	}))
	t.Cleanup(server.Close)

	store := auth.NewMemoryStore(tokens)
	return New(gateway.New(server.URL, auth.NewSession(store))), store, &requests
}

func TestLogin(t *testing.T) {
	c, store, requests := newTestClient(t, auth.Tokens{}, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"access_token":"access-1","refresh_token":"refresh-1"}`))
	})

	require.NoError(t, c.Login(context.Background(), "admin@example.org", "secret"))

	require.Len(t, *requests, 1)
	req := (*requests)[0]
	assert.Equal(t, http.MethodPost, req.method)
	assert.Equal(t, "/auth/login/", req.path)
	assert.Empty(t, req.auth, "login must not carry a bearer token")
	assert.Equal(t, "admin@example.org", req.body["email"])
	assert.Equal(t, "secret", req.body["password"])

	saved, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, auth.Tokens{AccessToken: "access-1", RefreshToken: "refresh-1"}, saved)
}

func TestLogin_IncompletePair(t *testing.T) {
	c, store, _ := newTestClient(t, auth.Tokens{}, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"access_token":"access-1"}`))
	})

	err := c.Login(context.Background(), "admin@example.org", "secret")
	assert.ErrorIs(t, err, gateway.ErrMalformedResponse)
	assert.Zero(t, store.Saves())
}

func TestLogin_BadCredentials(t *testing.T) {
	c, _, _ := newTestClient(t, auth.Tokens{}, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"Invalid email or password"}`))
	})

	err := c.Login(context.Background(), "admin@example.org", "wrong")

	var serverErr *gateway.ServerError
	require.ErrorAs(t, err, &serverErr)
	assert.Equal(t, http.StatusUnauthorized, serverErr.StatusCode)
	assert.Equal(t, "Invalid email or password", serverErr.Message)
}

func TestListUsers(t *testing.T) {
	tokens := auth.Tokens{AccessToken: "access", RefreshToken: "refresh"}
	c, _, requests := newTestClient(t, tokens, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"result": [{
				"telegram_id": 77,
				"first_name": "Anna",
				"last_name": null,
				"email": "anna@example.org",
				"username": null,
				"has_mailing": true,
				"date_registration": "2021-03-07T12:00:00Z"
			}],
			"current_page": 2,
			"total": 21,
			"pages": 2
		}`))
	})

	page, err := c.ListUsers(context.Background(), 2, 20)
	require.NoError(t, err)

	req := (*requests)[0]
	assert.Equal(t, "/users/", req.path)
	assert.Equal(t, "limit=20&page=2", req.query)
	assert.Equal(t, "Bearer access", req.auth)

	require.Len(t, page.Result, 1)
	user := page.Result[0]
	assert.Equal(t, int64(77), user.TelegramID)
	assert.Nil(t, user.LastName)
	require.NotNil(t, user.Email)
	assert.Equal(t, "anna@example.org", *user.Email)
	assert.True(t, user.DateRegistration.Equal(time.Date(2021, time.March, 7, 12, 0, 0, 0, time.UTC)))
	assert.Equal(t, 2, page.Pages)
}

func TestAnonymousEndpoints(t *testing.T) {
	c, _, requests := newTestClient(t, auth.Tokens{AccessToken: "access", RefreshToken: "refresh"}, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"message":"ok"}`))
	})

	require.NoError(t, c.Register(context.Background(), RegisterRequest{Email: "a@example.org", Password: "password", Token: "inv"}))
	resp, err := c.ResetPassword(context.Background(), "a@example.org")
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Message)

	require.Len(t, *requests, 2)
	assert.Equal(t, "/auth/register/", (*requests)[0].path)
	assert.Equal(t, "inv", (*requests)[0].body["token"])
	assert.Equal(t, "/auth/password_reset/", (*requests)[1].path)
	for _, req := range *requests {
		assert.Empty(t, req.auth, "%s must not carry a bearer token", req.path)
	}
}

func TestInviteUsesAccessToken(t *testing.T) {
	c, _, requests := newTestClient(t, auth.Tokens{AccessToken: "access", RefreshToken: "refresh"}, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"message":"sent"}`))
	})

	_, err := c.Invite(context.Background(), InviteRequest{Email: "new@example.org", FirstName: "Olga"})
	require.NoError(t, err)

	req := (*requests)[0]
	assert.Equal(t, "/auth/invitation/", req.path)
	assert.Equal(t, "Bearer access", req.auth)
	assert.Equal(t, "Olga", req.body["first_name"])
}

func TestSendBroadcastNormalizesMarkup(t *testing.T) {
	c, _, requests := newTestClient(t, auth.Tokens{AccessToken: "access", RefreshToken: "refresh"}, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"message":"queued"}`))
	})

	_, err := c.SendBroadcast(context.Background(), BroadcastRequest{
		Message:    `<p class="ql-align">Hello<br>there</p><p>Bye</p>`,
		HasMailing: true,
	})
	require.NoError(t, err)

	req := (*requests)[0]
	assert.Equal(t, "/send_telegram_notification/", req.path)
	assert.Equal(t, "Hello\nthere\nBye\n", req.body["message"])
	assert.Equal(t, true, req.body["has_mailing"])
}

func TestLogout(t *testing.T) {
	c, store, requests := newTestClient(t, auth.Tokens{AccessToken: "access", RefreshToken: "refresh"}, func(w http.ResponseWriter, r *http.Request) {})

	require.NoError(t, c.Logout())

	tokens, err := store.Load()
	require.NoError(t, err)
	assert.True(t, tokens.IsZero())
	assert.Empty(t, *requests, "logout is local only")
}
