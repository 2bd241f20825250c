package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/procharity/pcadmin/internal/auth"
	"github.com/procharity/pcadmin/internal/models"
)

const passwordResetTTLHours = 1

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// TokenPair is returned by login and token refresh
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// InviteRequest represents an invitation for a new admin
type InviteRequest struct {
	Email     string `json:"email" binding:"required,email"`
	FirstName string `json:"first_name" binding:"max=100"`
	LastName  string `json:"last_name" binding:"max=100"`
}

// RegisterRequest completes an invitation
type RegisterRequest struct {
	FirstName string `json:"first_name" binding:"required,notblank,max=100"`
	LastName  string `json:"last_name" binding:"max=100"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=8"`
	Token     string `json:"token" binding:"required"`
}

// PasswordResetRequest asks for a reset link
type PasswordResetRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// issueTokenPair stores a new refresh token record and signs both tokens
func (s *Server) issueTokenPair(tx *gorm.DB, admin *models.Admin) (*TokenPair, error) {
	record := &models.RefreshToken{
		AdminID:   admin.ID,
		ExpiresAt: s.now().Add(s.issuer.RefreshTTL()),
	}
	if err := tx.Create(record).Error; err != nil {
		return nil, err
	}

	access, err := s.issuer.GenerateAccessToken(admin.ID, admin.Email)
	if err != nil {
		return nil, err
	}
	refresh, err := s.issuer.GenerateRefreshToken(admin.ID, record.ID)
	if err != nil {
		return nil, err
	}

	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// @Summary Login
// @Description Authenticate with email and password
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login request"
// @Success 200 {object} TokenPair
// @Failure 400 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Router /auth/login/ [post]
func (s *Server) login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	db := s.db.WithContext(c.Request.Context())

	var admin models.Admin
	if err := db.Where("email = ?", normalizeEmail(req.Email)).First(&admin).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondMessage(c, http.StatusUnauthorized, "Invalid email or password")
			return
		}
		s.logger.Error().Err(err).Msg("Failed to find admin")
		respondMessage(c, http.StatusInternalServerError, "Internal server error")
		return
	}

	if err := auth.VerifyPassword(req.Password, admin.PasswordHash); err != nil {
		respondMessage(c, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	pair, err := s.issueTokenPair(db, &admin)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to generate tokens")
		respondMessage(c, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	s.logger.Info().Str("admin_id", admin.ID).Str("email", admin.Email).Msg("Admin logged in")
	c.JSON(http.StatusOK, pair)
}

// @Summary Refresh tokens
// @Description Exchange a refresh token (as bearer) for a new pair. Each refresh token works once.
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} TokenPair
// @Failure 401 {object} map[string]interface{}
// @Router /auth/token_refresh/ [post]
func (s *Server) refreshToken(c *gin.Context) {
	token, err := extractBearerToken(c.GetHeader("Authorization"))
	if err != nil {
		respondWithError(c, s.logger, http.StatusUnauthorized, err, bearerErrorMessage(err))
		return
	}

	claims, err := s.issuer.ValidateToken(token, auth.TypeRefresh)
	if err != nil || claims.ID == "" {
		respondWithError(c, s.logger, http.StatusUnauthorized, ErrInvalidToken, "Invalid or expired refresh token")
		return
	}

	var pair *TokenPair
	err = s.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		now := s.now()

		// Revoke only if still usable so a token can be exchanged once
		res := tx.Model(&models.RefreshToken{}).
			Where("id = ? AND admin_id = ? AND revoked_at IS NULL AND expires_at > ?", claims.ID, claims.AdminID, now).
			Update("revoked_at", now)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != 1 {
			return ErrInvalidToken
		}

		var admin models.Admin
		if err := models.FindByID(tx, claims.AdminID, &admin); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrAdminNotFound
			}
			return err
		}

		issued, err := s.issueTokenPair(tx, &admin)
		pair = issued
		return err
	})

	switch {
	case errors.Is(err, ErrInvalidToken), errors.Is(err, ErrAdminNotFound):
		respondWithError(c, s.logger, http.StatusUnauthorized, err, "Invalid or expired refresh token")
	case err != nil:
		s.logger.Error().Err(err).Msg("Failed to rotate refresh token")
		respondMessage(c, http.StatusInternalServerError, "Failed to refresh token")
	default:
		s.logger.Debug().Str("admin_id", claims.AdminID).Msg("Refresh token rotated")
		c.JSON(http.StatusOK, pair)
	}
}

// @Summary Invite admin
// @Description Create a registration invitation for a new administrator
// @Tags auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body InviteRequest true "Invitation"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Router /auth/invitation/ [post]
func (s *Server) invite(c *gin.Context) {
	var req InviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	sessionData, _ := GetSessionData(c)
	db := s.db.WithContext(c.Request.Context())
	email := normalizeEmail(req.Email)

	var count int64
	if err := db.Model(&models.Admin{}).Where("email = ?", email).Count(&count).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to look up admin")
		respondMessage(c, http.StatusInternalServerError, "Internal server error")
		return
	}
	if count > 0 {
		respondMessage(c, http.StatusBadRequest, "An administrator with this email already exists")
		return
	}

	invitation := &models.Invitation{
		Email:       email,
		FirstName:   strings.TrimSpace(req.FirstName),
		LastName:    strings.TrimSpace(req.LastName),
		InvitedByID: sessionData.AdminID,
		ExpiresAt:   s.now().Add(s.config.Auth.InvitationTTL),
	}
	if err := db.Create(invitation).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to create invitation")
		respondMessage(c, http.StatusInternalServerError, "Failed to create invitation")
		return
	}

	// Mail delivery is out of the sandbox's reach; the token is logged instead
	s.logger.Info().
		Str("invitation_id", invitation.ID).
		Str("email", invitation.Email).
		Str("invited_by", sessionData.AdminID).
		Time("expires_at", invitation.ExpiresAt).
		Msg("Invitation created")

	respondMessage(c, http.StatusOK, "Invitation sent to "+invitation.Email)
}

// @Summary Register
// @Description Create an administrator account from an invitation
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "Registration"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Router /auth/register/ [post]
func (s *Server) register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	errInvalidInvitation := errors.New("invitation is invalid or expired")
	errEmailTaken := errors.New("email taken")
	email := normalizeEmail(req.Email)

	var admin models.Admin
	err := s.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		now := s.now()

		var invitation models.Invitation
		if err := models.FindByID(tx, req.Token, &invitation); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errInvalidInvitation
			}
			return err
		}
		if !invitation.Pending(now) || invitation.Email != email {
			return errInvalidInvitation
		}

		var count int64
		if err := tx.Model(&models.Admin{}).Where("email = ?", email).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return errEmailTaken
		}

		passwordHash, err := auth.HashPassword(req.Password)
		if err != nil {
			return err
		}

		admin = models.Admin{
			Email:        email,
			PasswordHash: passwordHash,
			FirstName:    strings.TrimSpace(req.FirstName),
			LastName:     strings.TrimSpace(req.LastName),
		}
		if err := tx.Create(&admin).Error; err != nil {
			return err
		}

		return tx.Model(&invitation).Update("accepted_at", now).Error
	})

	switch {
	case errors.Is(err, errInvalidInvitation):
		respondMessage(c, http.StatusBadRequest, "Invitation is invalid or expired")
	case errors.Is(err, errEmailTaken):
		respondMessage(c, http.StatusBadRequest, "An administrator with this email already exists")
	case err != nil:
		s.logger.Error().Err(err).Msg("Failed to register admin")
		respondMessage(c, http.StatusInternalServerError, "Failed to register")
	default:
		s.logger.Info().Str("admin_id", admin.ID).Str("email", admin.Email).Msg("Admin registered")
		respondMessage(c, http.StatusOK, "Registration complete")
	}
}

// @Summary Password reset
// @Description Request a password reset link. The response does not reveal whether the account exists.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body PasswordResetRequest true "Password reset"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Router /auth/password_reset/ [post]
func (s *Server) passwordReset(c *gin.Context) {
	var req PasswordResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	const done = "If the account exists, a password reset link has been sent"
	db := s.db.WithContext(c.Request.Context())

	var admin models.Admin
	if err := db.Where("email = ?", normalizeEmail(req.Email)).First(&admin).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Error().Err(err).Msg("Failed to find admin")
			respondMessage(c, http.StatusInternalServerError, "Internal server error")
			return
		}
		respondMessage(c, http.StatusOK, done)
		return
	}

	reset := &models.PasswordReset{
		AdminID:   admin.ID,
		ExpiresAt: s.now().Add(passwordResetTTLHours * time.Hour),
	}
	if err := db.Create(reset).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to create password reset")
		respondMessage(c, http.StatusInternalServerError, "Failed to request password reset")
		return
	}

	s.logger.Info().
		Str("reset_id", reset.ID).
		Str("admin_id", admin.ID).
		Msg("Password reset requested")

	respondMessage(c, http.StatusOK, done)
}
