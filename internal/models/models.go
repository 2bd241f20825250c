package models

import (
	"time"

	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"
)

// BaseModel provides common fields and auto-generated ULID for all models
type BaseModel struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(26)"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// BeforeCreate generates a ULID for the ID field if it's empty
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = ulid.Make().String()
	}
	return nil
}

// Settings holds deployment-wide values. This is a singleton model (only
// one row should exist).
type Settings struct {
	BaseModel
	JWTSecret string `json:"-" gorm:"type:varchar(64);not null"` // Auto-generated on first start (64 hex chars)
}

// Admin is an account allowed to use the admin API
type Admin struct {
	BaseModel
	Email        string    `json:"email" gorm:"unique;not null"`
	PasswordHash string    `json:"-" gorm:"not null"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	UpdatedAt    time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// Volunteer is a user registered through the Telegram bot
type Volunteer struct {
	BaseModel
	TelegramID       int64     `json:"telegram_id" gorm:"unique;not null"`
	FirstName        string    `json:"first_name" gorm:"not null"`
	LastName         *string   `json:"last_name"`
	Email            *string   `json:"email"`
	Username         *string   `json:"username"`
	HasMailing       bool      `json:"has_mailing" gorm:"not null;default:false"`
	DateRegistration time.Time `json:"date_registration" gorm:"not null;index"`
}

// RefreshToken tracks an issued refresh token. The token's JWT ID is the
// record ID; rotation revokes the record so a refresh token works once.
type RefreshToken struct {
	BaseModel
	AdminID   string     `json:"admin_id" gorm:"not null;index"`
	ExpiresAt time.Time  `json:"expires_at" gorm:"not null"`
	RevokedAt *time.Time `json:"revoked_at"`

	Admin Admin `json:"-" gorm:"foreignKey:AdminID;constraint:OnDelete:CASCADE"`
}

// Usable reports whether the token can still be exchanged
func (r *RefreshToken) Usable(now time.Time) bool {
	return r.RevokedAt == nil && now.Before(r.ExpiresAt)
}

// Invitation lets a new admin register. Its ID is the token in the
// registration link.
type Invitation struct {
	BaseModel
	Email       string     `json:"email" gorm:"not null;index"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	InvitedByID string     `json:"invited_by_id" gorm:"not null"`
	ExpiresAt   time.Time  `json:"expires_at" gorm:"not null"`
	AcceptedAt  *time.Time `json:"accepted_at"`
}

// Pending reports whether the invitation can still be accepted
func (i *Invitation) Pending(now time.Time) bool {
	return i.AcceptedAt == nil && now.Before(i.ExpiresAt)
}

// PasswordReset is a one-time password reset request
type PasswordReset struct {
	BaseModel
	AdminID   string     `json:"admin_id" gorm:"not null;index"`
	ExpiresAt time.Time  `json:"expires_at" gorm:"not null"`
	UsedAt    *time.Time `json:"used_at"`
}

// Broadcast status values
const (
	BroadcastPending   = "pending"
	BroadcastDelivered = "delivered"
	BroadcastFailed    = "failed"
)

// Broadcast is a Telegram notification queued for delivery
type Broadcast struct {
	BaseModel
	Message     string     `json:"message" gorm:"type:text;not null"`
	MailingOnly bool       `json:"mailing_only" gorm:"not null;default:false"`
	SentByID    string     `json:"sent_by_id" gorm:"not null"`
	Status      string     `json:"status" gorm:"not null;default:pending"`
	Recipients  int        `json:"recipients" gorm:"not null;default:0"`
	DeliveredAt *time.Time `json:"delivered_at"`
}

// AutoMigrate runs database migrations for all models
func AutoMigrate(db *gorm.DB) error {
	// Collect all models
	models := []interface{}{
		&Settings{}, &Admin{}, &Volunteer{}, &RefreshToken{},
		&Invitation{}, &PasswordReset{}, &Broadcast{},
	}

	return db.AutoMigrate(models...)
}

// FindByID safely finds a record by string ID
func FindByID[T any](db *gorm.DB, id string, model *T) error {
	return db.Where("id = ?", id).First(model).Error
}
