package models

import (
	"time"

	"github.com/google/uuid"
)

// WatchListItem pairs a pharmacy with a product it wants monitored. The
// availability fields are written only by the monitor worker; a nil
// LastAvailability means the product has never been checked.
type WatchListItem struct {
	ID                   uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	LastAvailability     *bool      `gorm:"column:last_availability"`
	LastAvailabilityTime *time.Time `gorm:"column:last_availability_time"`
	NotifyAllUsers       bool       `gorm:"column:notify_all_users;not null;default:true"`
	CreatedByID          uuid.UUID  `gorm:"column:created_by_id;type:uuid;not null"`
	CreatedBy            *User      `gorm:"foreignKey:CreatedByID"`
	ProductID            uuid.UUID  `gorm:"column:product_id;type:uuid;not null;index"`
	Product              *Product   `gorm:"foreignKey:ProductID"`
	PharmacyID           uuid.UUID  `gorm:"column:pharmacy_id;type:uuid;not null;index"`
	Pharmacy             *Pharmacy  `gorm:"foreignKey:PharmacyID"`
	CreatedAt            time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
