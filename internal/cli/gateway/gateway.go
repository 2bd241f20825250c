// Package gateway issues authenticated requests against the admin API.
//
// Every call attaches the session's access token. When the API answers
// 401 the gateway performs one token refresh with the refresh token,
// persists the new pair and replays the request once. A rejected refresh
// (or a replay that is rejected again) clears the session and reports
// ErrUnauthorized.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/procharity/pcadmin/internal/cli/auth"
)

const (
	// RefreshPath is the fixed token refresh endpoint
	RefreshPath = "/auth/token_refresh/"

	// maxAttempts caps one logical call at the original request plus a
	// single replay. Only the first 401 may trigger a refresh.
	maxAttempts = 2

	maxErrorBody = 1 << 20
)

// Gateway is safe for concurrent use
type Gateway struct {
	baseURL        string
	httpClient     *http.Client
	session        *auth.Session
	logger         zerolog.Logger
	onForcedLogout func()

	refreshes singleflight.Group
}

// Option configures a Gateway
type Option func(*Gateway)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(c *http.Client) Option {
	return func(g *Gateway) {
		g.httpClient = c
	}
}

// WithLogger sets the logger used for refresh and logout events
func WithLogger(l zerolog.Logger) Option {
	return func(g *Gateway) {
		g.logger = l
	}
}

// OnForcedLogout registers a hook that runs after the session was cleared
// because the refresh token was rejected.
func OnForcedLogout(fn func()) Option {
	return func(g *Gateway) {
		g.onForcedLogout = fn
	}
}

// New creates a gateway for the API rooted at baseURL
func New(baseURL string, session *auth.Session, opts ...Option) *Gateway {
	g := &Gateway{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		session: session,
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Session returns the session the gateway reads and updates
func (g *Gateway) Session() *auth.Session {
	return g.session
}

// BaseURL returns the API root
func (g *Gateway) BaseURL() string {
	return g.baseURL
}

// Call issues req and decodes a 200 JSON body into out (out may be nil).
func (g *Gateway) Call(ctx context.Context, req Request, out any) error {
	if req.Anonymous {
		resp, err := g.send(ctx, req.WithBearer(""))
		if err != nil {
			return err
		}
		return decode(resp, out)
	}

	tokens, err := g.session.Current()
	if err != nil {
		return err
	}

	for attempt := 1; ; attempt++ {
		resp, err := g.send(ctx, req.WithBearer(tokens.AccessToken))
		if err != nil {
			return err
		}
		if resp.StatusCode != http.StatusUnauthorized {
			return decode(resp, out)
		}
		discard(resp)

		if attempt == maxAttempts {
			g.logger.Warn().
				Str("method", req.Method).
				Str("path", req.Path).
				Msg("Replayed request rejected with refreshed token")
			return g.forceLogout()
		}

		g.logger.Debug().
			Str("method", req.Method).
			Str("path", req.Path).
			Msg("Access token rejected, refreshing")

		tokens, err = g.refresh(ctx, tokens)
		if err != nil {
			return err
		}
	}
}

func (g *Gateway) send(ctx context.Context, req Request) (*http.Response, error) {
	httpReq, err := req.build(ctx, g.baseURL)
	if err != nil {
		return nil, err
	}

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}
	return resp, nil
}

// forceLogout clears both tokens and fires the logout hook
func (g *Gateway) forceLogout() error {
	if err := g.session.Clear(); err != nil {
		g.logger.Error().Err(err).Msg("Failed to clear session")
		return fmt.Errorf("%w (clearing session failed: %v)", ErrUnauthorized, err)
	}

	g.logger.Info().Msg("Session cleared after authorization failure")
	if g.onForcedLogout != nil {
		g.onForcedLogout()
	}
	return ErrUnauthorized
}

// decode turns a non-401 response into the call's outcome
func decode(resp *http.Response, out any) error {
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decodeError(resp)
	}

	if out == nil {
		// The body is still checked even when the caller ignores it
		var raw json.RawMessage
		out = &raw
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	var body struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxErrorBody)).Decode(&body); err != nil || body.Message == "" {
		return genericServerError(resp.StatusCode)
	}
	return &ServerError{StatusCode: resp.StatusCode, Message: body.Message}
}

func discard(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
	resp.Body.Close()
}

// IsUnauthorized reports whether err ended the session
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}
