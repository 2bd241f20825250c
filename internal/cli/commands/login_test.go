package commands

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/procharity/pcadmin/internal/cli/auth"
	"github.com/procharity/pcadmin/internal/cli/config"
	"github.com/procharity/pcadmin/internal/cli/gateway"
)

func TestLoginCommand_Flags(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	mock := &mockAPI{}
	env := &config.Environment{Alias: "production", URL: "https://api.example.org"}

	var output bytes.Buffer
	err := runLogin("admin@example.org", "secret-password",
		WithClient(mock), WithEnvironment(env), WithOutput(&output))
	if err != nil {
		t.Fatalf("expected success, got error: %v", err)
	}

	if mock.loginEmail != "admin@example.org" || mock.loginPassword != "secret-password" {
		t.Errorf("unexpected credentials: %q / %q", mock.loginEmail, mock.loginPassword)
	}

	out := output.String()
	if !strings.Contains(out, "Logging in to production (https://api.example.org)") {
		t.Errorf("expected environment banner, got: %s", out)
	}
	if !strings.Contains(out, "Login successful") {
		t.Errorf("expected success message, got: %s", out)
	}
}

func TestLoginCommand_EnvVars(t *testing.T) {
	t.Setenv("PCADMIN_EMAIL", "ci@example.org")
	t.Setenv("PCADMIN_PASSWORD", "from-env")

	mock := &mockAPI{}
	if err := runLogin("", "", WithClient(mock), WithOutput(&bytes.Buffer{})); err != nil {
		t.Fatalf("expected success, got error: %v", err)
	}

	if mock.loginEmail != "ci@example.org" || mock.loginPassword != "from-env" {
		t.Errorf("unexpected credentials: %q / %q", mock.loginEmail, mock.loginPassword)
	}
}

func TestLoginCommand_MissingEmail(t *testing.T) {
	t.Setenv("PCADMIN_EMAIL", "")

	mock := &mockAPI{}
	err := runLogin("", "secret", WithClient(mock))
	if err == nil || !strings.Contains(err.Error(), "email is required") {
		t.Fatalf("expected missing email error, got: %v", err)
	}
	if mock.calls != 0 {
		t.Errorf("expected no API calls, got %d", mock.calls)
	}
}

func TestLoginCommand_RemembersEmail(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("PCADMIN_EMAIL", "")
	env := &config.Environment{Alias: "staging", URL: "https://staging.example.org"}

	first := &mockAPI{}
	if err := runLogin("admin@example.org", "secret", WithClient(first), WithEnvironment(env), WithOutput(&bytes.Buffer{})); err != nil {
		t.Fatalf("expected success, got error: %v", err)
	}

	second := &mockAPI{}
	if err := runLogin("", "secret", WithClient(second), WithEnvironment(env), WithOutput(&bytes.Buffer{})); err != nil {
		t.Fatalf("expected success, got error: %v", err)
	}
	if second.loginEmail != "admin@example.org" {
		t.Errorf("expected remembered email, got %q", second.loginEmail)
	}
}

func TestLoginCommand_Rejected(t *testing.T) {
	mock := &mockAPI{err: &gateway.ServerError{StatusCode: 401, Message: "Invalid credentials"}}

	err := runLogin("admin@example.org", "wrong", WithClient(mock), WithOutput(&bytes.Buffer{}))
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "login failed: Invalid credentials") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLogoutCommand(t *testing.T) {
	mock := &mockAPI{}

	var output bytes.Buffer
	if err := runLogout(WithClient(mock), WithOutput(&output)); err != nil {
		t.Fatalf("expected success, got error: %v", err)
	}
	if !mock.loggedOut {
		t.Error("expected the session to be cleared")
	}
	if !strings.Contains(output.String(), "Logged out") {
		t.Errorf("unexpected output: %s", output.String())
	}
}

// TestExpiredSession runs a command against a real gateway whose refresh
// token is rejected.
func TestExpiredSession(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	store := auth.NewMemoryStore(auth.Tokens{AccessToken: "stale-access", RefreshToken: "stale-refresh"})
	env := &config.Environment{Alias: "test", URL: server.URL}

	var errOut bytes.Buffer
	api := newAPIClient(env, store, &errOut)

	err := runDashboard(WithClient(api), WithOutput(&bytes.Buffer{}))
	if !errors.Is(err, gateway.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got: %v", err)
	}

	if !strings.Contains(errOut.String(), sessionExpiredNotice) {
		t.Errorf("expected session expired notice, got: %q", errOut.String())
	}

	tokens, _ := store.Load()
	if !tokens.IsZero() {
		t.Errorf("expected session to be cleared, got %+v", tokens)
	}
}

func TestResolveEnvironment_AddressEnv(t *testing.T) {
	t.Setenv(APIAddressEnv, "http://localhost:8080")

	env, err := resolveEnvironment("", io.Discard)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if env.URL != "http://localhost:8080" {
		t.Errorf("expected address from env, got %q", env.URL)
	}

	t.Setenv(APIAddressEnv, "not a url")
	if _, err := resolveEnvironment("", io.Discard); err == nil {
		t.Error("expected invalid address to be rejected")
	}
}

func TestResolveEnvironment_NoConfigFile(t *testing.T) {
	t.Setenv(APIAddressEnv, "")
	chdirForTest(t, t.TempDir())

	_, err := resolveEnvironment("", io.Discard)
	if err == nil {
		t.Fatal("expected error when config file is missing, got nil")
	}
	if !strings.Contains(err.Error(), "failed to load config") {
		t.Errorf("expected error about missing config, got: %s", err.Error())
	}
}
