package monitor

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/zidir/medcom-backend/internal/notifications"
	"github.com/zidir/medcom-backend/pkg/db/models"
	"github.com/zidir/medcom-backend/pkg/enums"
	"github.com/zidir/medcom-backend/pkg/logger"
	"gorm.io/gorm"
)

// memberSource resolves the active users of a pharmacy.
type memberSource interface {
	ListByPharmacyID(ctx context.Context, pharmacyID uuid.UUID) ([]models.User, error)
}

// Fanout turns one availability change into notifications for the affected
// users.
type Fanout struct {
	logg    *logger.Logger
	members memberSource
}

// NewFanout builds the notification fanout.
func NewFanout(logg *logger.Logger, members memberSource) (*Fanout, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if members == nil {
		return nil, fmt.Errorf("member source required")
	}
	return &Fanout{logg: logg, members: members}, nil
}

// NotifyUsers creates one notification per recipient through the supplied
// repository, which the caller binds to the item's transaction. Recipients are
// the pharmacy's active members when the item asks for a broadcast, otherwise
// just the creator. A broadcast item whose pharmacy has no active members
// produces zero notifications with a warning.
//
// A create failure for one recipient is logged and does not stop the
// remaining recipients; the returned count covers successes only. When tx is
// non-nil each create runs under a savepoint so a rejected insert does not
// poison the surrounding transaction.
func (f *Fanout) NotifyUsers(ctx context.Context, tx *gorm.DB, repo notifications.Repository, item *models.WatchListItem, available bool, now time.Time) (int, error) {
	recipients, err := f.resolveRecipients(ctx, item)
	if err != nil {
		return 0, fmt.Errorf("resolve recipients: %w", err)
	}

	message := buildMessage(item.Product, available)
	created := 0
	for i, userID := range recipients {
		notification := &models.Notification{
			ID:              uuid.New(),
			Type:            enums.NotificationTypeAvailabilityChange,
			Message:         message,
			PharmacyID:      &item.PharmacyID,
			UserID:          userID,
			WatchListItemID: &item.ID,
			CreatedAt:       now,
		}
		if err := createShielded(ctx, tx, repo, notification, i); err != nil {
			logCtx := f.logg.WithWatchItemID(f.logg.WithUserID(ctx, userID.String()), item.ID.String())
			f.logg.Error(logCtx, "notification create failed", err)
			continue
		}
		created++
	}
	return created, nil
}

// createShielded wraps the insert in a savepoint; on failure the transaction
// is rolled back to the savepoint so later inserts and the commit still work.
func createShielded(ctx context.Context, tx *gorm.DB, repo notifications.Repository, notification *models.Notification, seq int) error {
	if tx == nil {
		return repo.Create(ctx, notification)
	}

	name := fmt.Sprintf("notify_%d", seq)
	if err := tx.SavePoint(name).Error; err != nil {
		return fmt.Errorf("savepoint: %w", err)
	}
	if err := repo.Create(ctx, notification); err != nil {
		if rbErr := tx.RollbackTo(name).Error; rbErr != nil {
			return fmt.Errorf("rollback to savepoint after %v: %w", err, rbErr)
		}
		return err
	}
	return nil
}

func (f *Fanout) resolveRecipients(ctx context.Context, item *models.WatchListItem) ([]uuid.UUID, error) {
	if !item.NotifyAllUsers {
		return []uuid.UUID{item.CreatedByID}, nil
	}

	members, err := f.members.ListByPharmacyID(ctx, item.PharmacyID)
	if err != nil {
		return nil, err
	}
	if len(members) == 0 {
		logCtx := f.logg.WithWatchItemID(ctx, item.ID.String())
		f.logg.Warn(logCtx, "pharmacy has no active members; nobody to notify")
		return nil, nil
	}

	recipients := make([]uuid.UUID, 0, len(members))
	for _, member := range members {
		recipients = append(recipients, member.ID)
	}
	return recipients, nil
}

func buildMessage(product *models.Product, available bool) string {
	name := "unknown product"
	if product != nil {
		name = product.DisplayName()
	}
	status := "unavailable"
	if available {
		status = "available"
	}
	return fmt.Sprintf("Product '%s' is now %s", name, status)
}
