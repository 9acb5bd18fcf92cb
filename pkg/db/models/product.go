package models

import (
	"time"

	"github.com/google/uuid"
)

// Product is immutable reference data shared across pharmacies. Code is the
// external identifier used to query the supplier availability API.
type Product struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name        *string   `gorm:"column:name"`
	Code        string    `gorm:"column:code;not null;uniqueIndex"`
	OfficialURL *string   `gorm:"column:official_url"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// DisplayName prefers the human readable name and falls back to the supplier code.
func (p Product) DisplayName() string {
	if p.Name != nil && *p.Name != "" {
		return *p.Name
	}
	return p.Code
}
