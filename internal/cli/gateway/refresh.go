package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/procharity/pcadmin/internal/cli/auth"
)

// refresh exchanges the refresh token in stale for a new pair. Concurrent
// callers holding the same stale pair share one refresh request, and a
// caller whose pair was already superseded reuses the current one.
func (g *Gateway) refresh(ctx context.Context, stale auth.Tokens) (auth.Tokens, error) {
	current, err := g.session.Current()
	if err != nil {
		return auth.Tokens{}, err
	}
	if current.Complete() && current != stale {
		g.logger.Debug().Msg("Session already refreshed by a concurrent call")
		return current, nil
	}

	if stale.RefreshToken == "" {
		return auth.Tokens{}, g.forceLogout()
	}

	ch := g.refreshes.DoChan(stale.RefreshToken, func() (any, error) {
		// Detached so one caller giving up does not fail the others
		return g.exchange(context.WithoutCancel(ctx), stale)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return auth.Tokens{}, res.Err
		}
		return res.Val.(auth.Tokens), nil
	case <-ctx.Done():
		return auth.Tokens{}, &NetworkError{Err: ctx.Err()}
	}
}

// exchange performs the refresh request and stores the result
func (g *Gateway) exchange(ctx context.Context, stale auth.Tokens) (auth.Tokens, error) {
	// A flight for this token may have completed between the caller's
	// check and this one starting
	current, err := g.session.Current()
	if err != nil {
		return auth.Tokens{}, err
	}
	if current.Complete() && current != stale {
		return current, nil
	}

	req, err := NewRequest(http.MethodPost, RefreshPath, nil)
	if err != nil {
		return auth.Tokens{}, err
	}

	resp, err := g.send(ctx, req.WithBearer(stale.RefreshToken))
	if err != nil {
		return auth.Tokens{}, err
	}

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized:
		discard(resp)
		g.logger.Debug().Msg("Refresh token rejected")
		return auth.Tokens{}, g.forceLogout()
	default:
		defer resp.Body.Close()
		return auth.Tokens{}, decodeError(resp)
	}

	var fresh auth.Tokens
	err = json.NewDecoder(resp.Body).Decode(&fresh)
	resp.Body.Close()
	if err != nil {
		return auth.Tokens{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if !fresh.Complete() {
		return auth.Tokens{}, fmt.Errorf("%w: refresh response is missing a token", ErrMalformedResponse)
	}

	swapped, err := g.session.CompareAndSwap(stale, fresh)
	if err != nil {
		return auth.Tokens{}, fmt.Errorf("failed to store refreshed session: %w", err)
	}
	if !swapped {
		// Logged out (or logged in again) while the refresh was in flight
		current, err := g.session.Current()
		if err != nil {
			return auth.Tokens{}, err
		}
		if !current.Complete() {
			return auth.Tokens{}, ErrUnauthorized
		}
		return current, nil
	}

	g.logger.Info().Msg("Access token refreshed")
	return fresh, nil
}
