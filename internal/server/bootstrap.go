package server

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/procharity/pcadmin/internal/auth"
	"github.com/procharity/pcadmin/internal/models"
)

// ensureSettings loads the settings singleton, creating it with a fresh
// JWT secret on first start
func ensureSettings(db *gorm.DB, zlog zerolog.Logger) (string, error) {
	var settings models.Settings
	err := db.First(&settings).Error
	if err == nil {
		zlog.Debug().Msg("Loaded JWT secret from database")
		return settings.JWTSecret, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", fmt.Errorf("failed to load settings: %w", err)
	}

	// Generate JWT secret (64 hex characters = 32 bytes of randomness)
	jwtSecretBytes := make([]byte, 32)
	if _, err := rand.Read(jwtSecretBytes); err != nil {
		return "", fmt.Errorf("failed to generate JWT secret: %w", err)
	}

	settings = models.Settings{JWTSecret: hex.EncodeToString(jwtSecretBytes)}
	if err := db.Create(&settings).Error; err != nil {
		return "", fmt.Errorf("failed to create settings: %w", err)
	}

	zlog.Info().Msg("Generated JWT secret")
	return settings.JWTSecret, nil
}

// bootstrap creates the configured admin and sample volunteers
func (s *Server) bootstrap() error {
	authCfg := s.config.Auth

	if authCfg.AdminEmail != "" {
		if authCfg.AdminPassword == "" {
			return fmt.Errorf("SANDBOX_ADMIN_PASSWORD is required when SANDBOX_ADMIN_EMAIL is set")
		}
		if err := s.ensureAdmin(authCfg.AdminEmail, authCfg.AdminPassword); err != nil {
			return err
		}
	}

	if authCfg.SeedVolunteers > 0 {
		if err := seedVolunteers(s.db, authCfg.SeedVolunteers, s.now()); err != nil {
			return err
		}
	}
	return nil
}

func (s *Server) ensureAdmin(email, password string) error {
	email = normalizeEmail(email)

	var count int64
	if err := s.db.Model(&models.Admin{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to look up admin: %w", err)
	}
	if count > 0 {
		return nil
	}

	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	admin := &models.Admin{
		Email:        email,
		PasswordHash: passwordHash,
		FirstName:    "Sandbox",
		LastName:     "Admin",
	}
	if err := s.db.Create(admin).Error; err != nil {
		return fmt.Errorf("failed to create admin: %w", err)
	}

	s.logger.Info().Str("admin_id", admin.ID).Str("email", admin.Email).Msg("Bootstrap admin created")
	return nil
}

var (
	sampleFirstNames = []string{"Anna", "Ivan", "Olga", "Dmitry", "Maria", "Sergey", "Elena", "Pavel"}
	sampleLastNames  = []string{"Petrova", "Smirnov", "Ivanova", "Kuznetsov", "Popova", "Volkov"}
)

// seedVolunteers adds n sample volunteers spread over the last weeks. It
// does nothing when volunteers already exist.
func seedVolunteers(db *gorm.DB, n int, now time.Time) error {
	var count int64
	if err := db.Model(&models.Volunteer{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count volunteers: %w", err)
	}
	if count > 0 {
		return nil
	}

	volunteers := make([]models.Volunteer, 0, n)
	for i := 0; i < n; i++ {
		first := sampleFirstNames[i%len(sampleFirstNames)]
		volunteer := models.Volunteer{
			TelegramID:       int64(100000 + i),
			FirstName:        first,
			HasMailing:       i%3 != 0,
			DateRegistration: now.Add(-time.Duration(i*11) * time.Hour).UTC(),
		}
		// Leave some optional fields empty like real bot sign-ups
		if i%4 != 3 {
			last := sampleLastNames[i%len(sampleLastNames)]
			volunteer.LastName = &last
		}
		if i%2 == 0 {
			email := fmt.Sprintf("%s.%d@example.org", strings.ToLower(first), i)
			volunteer.Email = &email
		}
		if i%5 != 4 {
			username := fmt.Sprintf("%s_%d", strings.ToLower(first), i)
			volunteer.Username = &username
		}
		volunteers = append(volunteers, volunteer)
	}

	if err := db.CreateInBatches(volunteers, 100).Error; err != nil {
		return fmt.Errorf("failed to seed volunteers: %w", err)
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
