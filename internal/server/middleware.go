package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/procharity/pcadmin/internal/auth"
	"github.com/procharity/pcadmin/internal/models"
)

const (
	bearerPrefix = "Bearer "
)

var (
	ErrMissingAuthHeader = errors.New("missing authorization header")
	ErrInvalidAuthFormat = errors.New("invalid authorization header format")
	ErrEmptyToken        = errors.New("empty token")
	ErrInvalidToken      = errors.New("invalid token")
	ErrAdminNotFound     = errors.New("admin not found")
)

func setSession(c *gin.Context, sessionData *auth.SessionData) {
	c.Set("session", sessionData)
}

func GetSessionData(c *gin.Context) (*auth.SessionData, bool) {
	session, exists := c.Get("session")
	if !exists {
		return nil, false
	}

	sessionData, ok := session.(*auth.SessionData)
	return sessionData, ok
}

func extractBearerToken(authHeader string) (string, error) {
	if authHeader == "" {
		return "", ErrMissingAuthHeader
	}

	if !strings.HasPrefix(authHeader, bearerPrefix) {
		return "", ErrInvalidAuthFormat
	}

	token := strings.TrimPrefix(authHeader, bearerPrefix)
	if token == "" {
		return "", ErrEmptyToken
	}

	return token, nil
}

// bearerErrorMessage maps a header parsing error to the response message
func bearerErrorMessage(err error) string {
	switch err {
	case ErrMissingAuthHeader:
		return "Missing authorization header"
	case ErrInvalidAuthFormat:
		return "Invalid authorization header format"
	default:
		return "Empty token"
	}
}

func respondWithError(c *gin.Context, log zerolog.Logger, statusCode int, err error, message string) {
	log.Warn().Err(err).Msg(message)
	c.AbortWithStatusJSON(statusCode, gin.H{"message": message})
}

// JWTAuthMiddleware validates access tokens and loads the admin
func JWTAuthMiddleware(issuer *auth.Issuer, db *gorm.DB, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := extractBearerToken(c.GetHeader("Authorization"))
		if err != nil {
			respondWithError(c, log, http.StatusUnauthorized, err, bearerErrorMessage(err))
			return
		}

		claims, err := issuer.ValidateToken(token, auth.TypeAccess)
		if err != nil {
			respondWithError(c, log, http.StatusUnauthorized, err, "Invalid or expired token")
			return
		}

		// Verify admin still exists
		var admin models.Admin
		if err := models.FindByID(db.WithContext(c.Request.Context()), claims.AdminID, &admin); err != nil {
			respondWithError(c, log, http.StatusUnauthorized, ErrAdminNotFound, "Admin not found")
			return
		}

		setSession(c, &auth.SessionData{
			AdminID: admin.ID,
			Email:   admin.Email,
		})

		c.Next()
	}
}
