package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/zidir/medcom-backend/pkg/enums"
)

// User represents a pharmacy staff member. Provisioning happens out of band;
// the API only resolves users from their JWT login.
type User struct {
	ID         uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Login      string     `gorm:"column:login;not null;uniqueIndex"`
	Email      string     `gorm:"column:email;not null"`
	FirstName  *string    `gorm:"column:first_name"`
	LastName   *string    `gorm:"column:last_name"`
	IsActive   bool       `gorm:"column:is_active;not null;default:true"`
	Role       enums.Role `gorm:"column:role;not null;default:ROLE_USER"`
	PharmacyID *uuid.UUID `gorm:"column:pharmacy_id;type:uuid;index"`
	Pharmacy   *Pharmacy  `gorm:"foreignKey:PharmacyID"`
	CreatedAt  time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
