package access

import (
	"testing"

	"github.com/google/uuid"
	"github.com/zidir/medcom-backend/pkg/db/models"
	"github.com/zidir/medcom-backend/pkg/enums"
	pkgerrors "github.com/zidir/medcom-backend/pkg/errors"
)

func TestAssertPharmacyAccess(t *testing.T) {
	pharmacyID := uuid.New()
	otherID := uuid.New()

	member := Actor{UserID: uuid.New(), PharmacyID: &pharmacyID, Role: enums.RoleUser}
	if err := AssertPharmacyAccess(member, pharmacyID); err != nil {
		t.Fatalf("member should access own pharmacy: %v", err)
	}

	if err := AssertPharmacyAccess(member, otherID); err == nil {
		t.Fatal("expected forbidden for foreign pharmacy")
	} else if code(err) != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden code, got %s", code(err))
	}

	unassigned := Actor{UserID: uuid.New(), Role: enums.RoleUser}
	if err := AssertPharmacyAccess(unassigned, pharmacyID); err == nil {
		t.Fatal("expected forbidden for unassigned user")
	}

	admin := Actor{UserID: uuid.New(), Role: enums.RoleAdmin}
	if err := AssertPharmacyAccess(admin, otherID); err != nil {
		t.Fatalf("admin should bypass membership: %v", err)
	}
}

func TestAssertWatchItemAccess(t *testing.T) {
	pharmacyID := uuid.New()
	creatorID := uuid.New()
	item := &models.WatchListItem{ID: uuid.New(), PharmacyID: pharmacyID, CreatedByID: creatorID}

	// The creator who moved to another pharmacy no longer has access.
	foreign := uuid.New()
	movedCreator := Actor{UserID: creatorID, PharmacyID: &foreign, Role: enums.RoleUser}
	if err := AssertWatchItemAccess(movedCreator, item); err == nil {
		t.Fatal("expected forbidden for creator outside the item pharmacy")
	}

	member := Actor{UserID: uuid.New(), PharmacyID: &pharmacyID, Role: enums.RoleUser}
	if err := AssertWatchItemAccess(member, item); err != nil {
		t.Fatalf("pharmacy member should access item: %v", err)
	}

	if err := AssertWatchItemAccess(member, nil); err == nil {
		t.Fatal("expected not found for nil item")
	} else if code(err) != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found code, got %s", code(err))
	}
}

func TestAssertNotificationOwnership(t *testing.T) {
	userID := uuid.New()
	notification := &models.Notification{ID: uuid.New(), UserID: userID}

	owner := Actor{UserID: userID, Role: enums.RoleUser}
	if err := AssertNotificationOwnership(owner, notification); err != nil {
		t.Fatalf("owner should access own notification: %v", err)
	}

	stranger := Actor{UserID: uuid.New(), Role: enums.RoleUser}
	if err := AssertNotificationOwnership(stranger, notification); err == nil {
		t.Fatal("expected forbidden for other user's notification")
	}

	admin := Actor{UserID: uuid.New(), Role: enums.RoleAdmin}
	if err := AssertNotificationOwnership(admin, notification); err != nil {
		t.Fatalf("admin should bypass ownership: %v", err)
	}
}

func TestRequireAdmin(t *testing.T) {
	if err := RequireAdmin(Actor{Role: enums.RoleUser}); err == nil {
		t.Fatal("expected forbidden for plain user")
	}
	if err := RequireAdmin(Actor{Role: enums.RoleAdmin}); err != nil {
		t.Fatalf("admin should pass: %v", err)
	}
}

func code(err error) pkgerrors.Code {
	if appErr := pkgerrors.As(err); appErr != nil {
		return appErr.Code()
	}
	return ""
}
