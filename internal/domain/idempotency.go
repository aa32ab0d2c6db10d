package domain

import (
	"time"

	"github.com/google/uuid"
)

// Idempotency remembers which contact a create request produced, keyed by
// the caller and the Idempotency-Key header. A retry inside the TTL is
// answered from this row instead of inserting again.
type Idempotency struct {
	ID        string    `gorm:"type:char(36);primaryKey"`
	OwnerID   string    `gorm:"type:varchar(64);not null;uniqueIndex:ux_idempotency_owner_key,priority:1"`
	Key       string    `gorm:"type:varchar(200);not null;uniqueIndex:ux_idempotency_owner_key,priority:2"`
	ContactID string    `gorm:"type:char(36);not null"`
	Status    int       `gorm:"not null"` // HTTP status of the first response
	CreatedAt time.Time `gorm:"not null;autoCreateTime"`
	ExpiresAt time.Time `gorm:"not null;index"`
}

// TableName returns the database table name for Idempotency.
func (Idempotency) TableName() string { return "idempotency" }

// NewIdempotency builds a record for a create that answered status at now
// and stays replayable for ttl.
func NewIdempotency(ownerID, key, contactID string, status int, now time.Time, ttl time.Duration) *Idempotency {
	return &Idempotency{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Key:       key,
		ContactID: contactID,
		Status:    status,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}
