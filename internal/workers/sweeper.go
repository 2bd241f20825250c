package workers

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/procharity/pcadmin/internal/models"
)

// SweepResult counts the records removed by one sweep
type SweepResult struct {
	RefreshTokens  int64
	Invitations    int64
	PasswordResets int64
}

// Sweep deletes refresh tokens that are expired or revoked, invitations
// that expired without being accepted, and spent password resets.
func Sweep(db *gorm.DB, now time.Time) (SweepResult, error) {
	var result SweepResult

	res := db.Where("expires_at <= ? OR revoked_at IS NOT NULL", now).Delete(&models.RefreshToken{})
	if res.Error != nil {
		return result, fmt.Errorf("failed to delete refresh tokens: %w", res.Error)
	}
	result.RefreshTokens = res.RowsAffected

	res = db.Where("expires_at <= ? AND accepted_at IS NULL", now).Delete(&models.Invitation{})
	if res.Error != nil {
		return result, fmt.Errorf("failed to delete invitations: %w", res.Error)
	}
	result.Invitations = res.RowsAffected

	res = db.Where("expires_at <= ? OR used_at IS NOT NULL", now).Delete(&models.PasswordReset{})
	if res.Error != nil {
		return result, fmt.Errorf("failed to delete password resets: %w", res.Error)
	}
	result.PasswordResets = res.RowsAffected

	return result, nil
}

// StartSweeper runs Sweep on the given cron schedule (standard 5-field
// expressions or descriptors such as "@every 1h"). Stop the returned cron
// to end it.
func StartSweeper(schedule string, db *gorm.DB, logger zerolog.Logger) (*cron.Cron, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	c := cron.New(cron.WithParser(parser))

	_, err := c.AddFunc(schedule, func() {
		result, err := Sweep(db, utcNow())
		if err != nil {
			logger.Error().Err(err).Msg("Sweep failed")
			return
		}
		logger.Info().
			Int64("refresh_tokens", result.RefreshTokens).
			Int64("invitations", result.Invitations).
			Int64("password_resets", result.PasswordResets).
			Msg("Expired records swept")
	})
	if err != nil {
		return nil, fmt.Errorf("invalid sweep schedule %q: %w", schedule, err)
	}

	c.Start()
	logger.Info().Str("schedule", schedule).Msg("Sweeper started")
	return c, nil
}
