package enums

import "fmt"

// NotificationType describes the allowed values for the notification_type column.
type NotificationType string

const (
	NotificationTypeAvailabilityChange NotificationType = "AVAILABILITY_CHANGE"
	NotificationTypeSMS                NotificationType = "SMS"
	NotificationTypeEmail              NotificationType = "EMAIL"
)

var validNotificationTypes = []NotificationType{
	NotificationTypeAvailabilityChange,
	NotificationTypeSMS,
	NotificationTypeEmail,
}

// IsValid reports whether the value matches the canonical notification type enum.
func (n NotificationType) IsValid() bool {
	for _, candidate := range validNotificationTypes {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationType converts the raw string to NotificationType.
func ParseNotificationType(value string) (NotificationType, error) {
	for _, candidate := range validNotificationTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification type %q", value)
}
