package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-api-response/internal/domain"
)

// ErrDuplicate reports a unique index collision: an idempotency key the
// owner already used, or a second contact with the same (owner_id, email).
var ErrDuplicate = errors.New("duplicate")

// GetIdempotency looks up a live record for (ownerID, key). Blank keys,
// unknown keys and records expired at now all yield ErrNotFound.
func GetIdempotency(ctx context.Context, db *gorm.DB, ownerID, key string, now time.Time) (*domain.Idempotency, error) {
	if strings.TrimSpace(key) == "" {
		return nil, ErrNotFound
	}
	var rec domain.Idempotency
	err := db.WithContext(ctx).
		Where("owner_id = ? AND key = ? AND expires_at > ?", ownerID, key, now).
		Take(&rec).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, ErrNotFound
	case err != nil:
		return nil, err
	}
	return &rec, nil
}

// CreateIdempotency stores the outcome of the first create for key. Reusing
// a key, expired or not, returns ErrDuplicate until the purge removes it.
func CreateIdempotency(ctx context.Context, db *gorm.DB, ownerID, key, contactID string, status int, ttl time.Duration) (*domain.Idempotency, error) {
	rec := domain.NewIdempotency(ownerID, key, contactID, status, time.Now().UTC(), ttl)
	if err := db.WithContext(ctx).Create(rec).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return rec, nil
}

// PurgeExpiredIdempotency deletes every record expired at now and returns
// the number removed.
func PurgeExpiredIdempotency(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	res := db.WithContext(ctx).Where("expires_at <= ?", now).Delete(&domain.Idempotency{})
	return res.RowsAffected, res.Error
}
