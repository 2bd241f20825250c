package auth

// SessionData represents the authenticated session context for a request
type SessionData struct {
	AdminID string `json:"admin_id"`
	Email   string `json:"email"`
}
