package models

import (
	"time"

	"github.com/google/uuid"
)

// Pharmacy is the tenant entity. Staff users, watch list items and
// notifications all hang off a pharmacy. Pharmacies are never hard-deleted
// through the API; Active gates them instead.
type Pharmacy struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name      string    `gorm:"column:name;not null"`
	Address   *string   `gorm:"column:address"`
	Email     *string   `gorm:"column:email"`
	Phone     *string   `gorm:"column:phone"`
	Website   *string   `gorm:"column:website"`
	Active    bool      `gorm:"column:active;not null;default:true"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
