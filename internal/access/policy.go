package access

import (
	"github.com/google/uuid"
	"github.com/zidir/medcom-backend/pkg/db/models"
	"github.com/zidir/medcom-backend/pkg/enums"
	pkgerrors "github.com/zidir/medcom-backend/pkg/errors"
)

// Actor is the authenticated principal resolved from the request token.
type Actor struct {
	UserID     uuid.UUID
	Login      string
	PharmacyID *uuid.UUID
	Role       enums.Role
}

// IsAdmin reports whether the actor carries the admin authority.
func (a Actor) IsAdmin() bool {
	return a.Role == enums.RoleAdmin
}

// AssertPharmacyAccess ensures the actor belongs to the given pharmacy.
// Admins bypass the membership check.
func AssertPharmacyAccess(actor Actor, pharmacyID uuid.UUID) error {
	if actor.IsAdmin() {
		return nil
	}
	if pharmacyID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "pharmacy id is required")
	}
	if actor.PharmacyID == nil {
		return pkgerrors.New(pkgerrors.CodeForbidden, "user is not assigned to a pharmacy")
	}
	if *actor.PharmacyID != pharmacyID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "user does not belong to this pharmacy")
	}
	return nil
}

// AssertWatchItemAccess ensures the actor may read or mutate the watch list item.
// Membership in the item's pharmacy is the only grant; being the creator is not
// enough once the user has moved to another pharmacy.
func AssertWatchItemAccess(actor Actor, item *models.WatchListItem) error {
	if item == nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "watch list item not found")
	}
	return AssertPharmacyAccess(actor, item.PharmacyID)
}

// AssertNotificationOwnership ensures only the recipient can read or acknowledge
// a notification. Admins may still act on behalf of any user.
func AssertNotificationOwnership(actor Actor, notification *models.Notification) error {
	if notification == nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
	}
	if actor.IsAdmin() {
		return nil
	}
	if notification.UserID != actor.UserID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "notification belongs to another user")
	}
	return nil
}

// RequireAdmin gates operations reserved for administrators.
func RequireAdmin(actor Actor) error {
	if !actor.IsAdmin() {
		return pkgerrors.New(pkgerrors.CodeForbidden, "administrator role required")
	}
	return nil
}
