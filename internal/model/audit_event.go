package model

import "time"

// Audit actions recorded for account mutations.
const (
	AuditActionAccountCreated = "account.created"
	AuditActionAccountUpdated = "account.updated"
)

// AuditEvent is the persisted form of an account event consumed from the
// broker by the audit worker.
type AuditEvent struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"index;not null" json:"user_id"`
	Action     string    `gorm:"size:64;not null" json:"action"`
	Email      string    `gorm:"size:128;not null" json:"email"`
	OccurredAt time.Time `json:"occurred_at"`
	CreatedAt  time.Time `json:"created_at"`
}
