package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/zidir/medcom-backend/pkg/enums"
)

// Notification stores an in-app notification addressed to a single user.
// Rows are created exclusively by the availability fan-out; the delivery
// columns (sent/delivered/failed) are reserved for a future transport and
// stay false until one exists. ReadAt, once set, is never cleared.
type Notification struct {
	ID                uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Type              enums.NotificationType `gorm:"column:type;not null"`
	Message           string                 `gorm:"column:message;size:2000"`
	ReadAt            *time.Time             `gorm:"column:read_at"`
	Sent              bool                   `gorm:"column:sent;not null;default:false"`
	SentAt            *time.Time             `gorm:"column:sent_at"`
	Delivered         bool                   `gorm:"column:delivered;not null;default:false"`
	DeliveredAt       *time.Time             `gorm:"column:delivered_at"`
	Failed            bool                   `gorm:"column:failed;not null;default:false"`
	FailedAt          *time.Time             `gorm:"column:failed_at"`
	FailureReason     *string                `gorm:"column:failure_reason"`
	ExternalMessageID *string                `gorm:"column:external_message_id"`
	PharmacyID        *uuid.UUID             `gorm:"column:pharmacy_id;type:uuid;index"`
	UserID            uuid.UUID              `gorm:"column:user_id;type:uuid;not null;index"`
	WatchListItemID   *uuid.UUID             `gorm:"column:watch_list_item_id;type:uuid;index"`
	CreatedAt         time.Time              `gorm:"column:created_at;autoCreateTime"`
}
