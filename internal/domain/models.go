// Package domain defines the persistence models served by the reference
// contacts API. These types are mapped with GORM and rendered as envelope
// payloads by the HTTP layer.
package domain

import "time"

// Contact is an address-book entry owned by a user. Email is unique per
// owner (enforced by a composite unique index).
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - OwnerID: identifier of the owning user; indexed for listing.
//   - Name: display name, normalized to title case on write.
//   - Email: lower-cased address, unique per owner.
//   - Age: optional age in years.
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
type Contact struct {
	ID        string    `json:"id"         gorm:"type:char(36);primaryKey"`
	OwnerID   string    `json:"owner_id"   gorm:"type:varchar(64);not null;index:idx_owner_contacts;uniqueIndex:ux_contact_owner_email,priority:1"`
	Name      string    `json:"name"       gorm:"type:varchar(255);not null"`
	Email     string    `json:"email"      gorm:"type:varchar(255);not null;uniqueIndex:ux_contact_owner_email,priority:2"`
	Age       *int      `json:"age,omitempty"`
	CreatedAt time.Time `json:"created_at" gorm:"index:idx_owner_contacts"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for Contact.
func (Contact) TableName() string { return "contacts" }
