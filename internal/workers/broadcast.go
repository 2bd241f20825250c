package workers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/procharity/pcadmin/internal/models"
	"github.com/procharity/pcadmin/internal/tasks"
)

// Sender delivers one message to one volunteer
type Sender interface {
	Send(ctx context.Context, volunteer models.Volunteer, message string) error
}

// LogSender records deliveries in the log instead of calling Telegram
type LogSender struct {
	Logger zerolog.Logger
}

// Send logs the delivery
func (s LogSender) Send(ctx context.Context, volunteer models.Volunteer, message string) error {
	s.Logger.Debug().
		Int64("telegram_id", volunteer.TelegramID).
		Int("length", len(message)).
		Msg("Telegram notification delivered")
	return nil
}

// BroadcastDeliverer sends stored broadcasts to their recipients
type BroadcastDeliverer struct {
	db     *gorm.DB
	sender Sender
	logger zerolog.Logger
	now    func() time.Time
}

// NewBroadcastDeliverer creates a deliverer
func NewBroadcastDeliverer(db *gorm.DB, sender Sender, logger zerolog.Logger) *BroadcastDeliverer {
	return &BroadcastDeliverer{
		db:     db,
		sender: sender,
		logger: logger,
		now:    utcNow,
	}
}

// Delivery times are stored in UTC like every other sandbox timestamp
func utcNow() time.Time {
	return time.Now().UTC()
}

// HandleDeliverBroadcast is the asynq handler for TypeDeliverBroadcast
func (d *BroadcastDeliverer) HandleDeliverBroadcast(ctx context.Context, t *asynq.Task) error {
	payload, err := tasks.ParseBroadcastPayload(t)
	if err != nil {
		// Retrying cannot fix a bad payload
		return fmt.Errorf("failed to parse payload: %v: %w", err, asynq.SkipRetry)
	}
	return d.Deliver(ctx, payload.BroadcastID)
}

// DispatchBroadcast delivers in the calling goroutine. It lets the sandbox
// run without Redis.
func (d *BroadcastDeliverer) DispatchBroadcast(ctx context.Context, broadcastID string) error {
	return d.Deliver(ctx, broadcastID)
}

// Deliver sends the broadcast to every recipient and records the count.
// Already delivered broadcasts are skipped so retried tasks are harmless.
func (d *BroadcastDeliverer) Deliver(ctx context.Context, broadcastID string) error {
	var broadcast models.Broadcast
	if err := models.FindByID(d.db.WithContext(ctx), broadcastID, &broadcast); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("broadcast %s not found: %w", broadcastID, asynq.SkipRetry)
		}
		return fmt.Errorf("failed to load broadcast: %w", err)
	}

	if broadcast.Status == models.BroadcastDelivered {
		d.logger.Info().Str("broadcast_id", broadcast.ID).Msg("Broadcast already delivered, skipping")
		return nil
	}

	query := d.db.WithContext(ctx).Model(&models.Volunteer{})
	if broadcast.MailingOnly {
		query = query.Where("has_mailing = ?", true)
	}

	var recipients []models.Volunteer
	if err := query.Order("date_registration ASC").Find(&recipients).Error; err != nil {
		return fmt.Errorf("failed to load recipients: %w", err)
	}

	delivered := 0
	for _, volunteer := range recipients {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := d.sender.Send(ctx, volunteer, broadcast.Message); err != nil {
			d.logger.Warn().
				Err(err).
				Str("broadcast_id", broadcast.ID).
				Int64("telegram_id", volunteer.TelegramID).
				Msg("Failed to deliver notification")
			continue
		}
		delivered++
	}

	status := models.BroadcastDelivered
	if delivered == 0 && len(recipients) > 0 {
		status = models.BroadcastFailed
	}

	now := d.now()
	if err := d.db.WithContext(ctx).Model(&broadcast).Updates(map[string]interface{}{
		"status":       status,
		"recipients":   delivered,
		"delivered_at": &now,
	}).Error; err != nil {
		return fmt.Errorf("failed to update broadcast: %w", err)
	}

	d.logger.Info().
		Str("broadcast_id", broadcast.ID).
		Bool("mailing_only", broadcast.MailingOnly).
		Int("recipients", delivered).
		Int("failed", len(recipients)-delivered).
		Msg("Broadcast delivered")

	return nil
}
