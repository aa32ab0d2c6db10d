package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-api-response/internal/domain"
)

// Snapshot summarises an owner's contact set for conditional GETs. Any
// create, update or delete changes it.
type Snapshot struct {
	Count        int64
	LastModified time.Time // zero when Count is 0
}

// ContactsSnapshot counts ownerID's contacts and finds the newest UpdatedAt.
func ContactsSnapshot(ctx context.Context, db *gorm.DB, ownerID string) (Snapshot, error) {
	var snap Snapshot
	owned := func() *gorm.DB {
		return db.WithContext(ctx).Model(&domain.Contact{}).Where("owner_id = ?", ownerID)
	}
	if err := owned().Count(&snap.Count).Error; err != nil || snap.Count == 0 {
		return Snapshot{}, err
	}

	// MAX() over a DATETIME column comes back as TEXT from SQLite, so read
	// the newest row instead.
	var latest struct{ UpdatedAt time.Time }
	if err := owned().Select("updated_at").Order("updated_at DESC").Limit(1).Scan(&latest).Error; err != nil {
		return Snapshot{}, err
	}
	snap.LastModified = latest.UpdatedAt
	return snap, nil
}
