package monitor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/zidir/medcom-backend/internal/notifications"
	"github.com/zidir/medcom-backend/internal/supplier"
	"github.com/zidir/medcom-backend/pkg/db/models"
	"github.com/zidir/medcom-backend/pkg/logger"
	"github.com/zidir/medcom-backend/pkg/metrics"
	"go.uber.org/multierr"
	"gorm.io/gorm"
)

const availabilityJobName = "availability-check"

// txRunner abstracts the transactional helper of the db client.
type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// watchItemSource lists and updates the monitored items.
type watchItemSource interface {
	ListAll(ctx context.Context) ([]models.WatchListItem, error)
	RecordAvailability(ctx context.Context, tx *gorm.DB, id uuid.UUID, available bool, at time.Time) error
}

// AvailabilityJobParams configure the availability check job.
type AvailabilityJobParams struct {
	Logger           *logger.Logger
	DB               txRunner
	WatchRepo        watchItemSource
	NotificationRepo notifications.Repository
	Fanout           *Fanout
	Supplier         supplier.Client
	Metrics          *metrics.JobMetrics
}

// NewAvailabilityJob builds the job that probes the supplier for every watch
// list item and records changes.
func NewAvailabilityJob(params AvailabilityJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.WatchRepo == nil {
		return nil, fmt.Errorf("watch list repository required")
	}
	if params.NotificationRepo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if params.Fanout == nil {
		return nil, fmt.Errorf("fanout required")
	}
	if params.Supplier == nil {
		return nil, fmt.Errorf("supplier client required")
	}
	return &availabilityJob{
		logg:             params.Logger,
		db:               params.DB,
		watchRepo:        params.WatchRepo,
		notificationRepo: params.NotificationRepo,
		fanout:           params.Fanout,
		supplier:         params.Supplier,
		metrics:          params.Metrics,
		now:              time.Now,
	}, nil
}

type availabilityJob struct {
	logg             *logger.Logger
	db               txRunner
	watchRepo        watchItemSource
	notificationRepo notifications.Repository
	fanout           *Fanout
	supplier         supplier.Client
	metrics          *metrics.JobMetrics
	now              func() time.Time
}

func (j *availabilityJob) Name() string { return availabilityJobName }

// Run walks every watch list item once. Each item is probed and, when its
// availability flipped, persisted together with its notifications in one
// transaction. A failing item never aborts the cycle; its error is folded
// into the returned one.
func (j *availabilityJob) Run(ctx context.Context) error {
	items, err := j.watchRepo.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("list watch items: %w", err)
	}

	var errs []error
	var checked, skipped, updated, failed, notified int
	for i := range items {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		outcome := j.checkItem(ctx, &items[i])
		switch {
		case outcome.skipped:
			skipped++
		case outcome.err != nil:
			checked++
			failed++
			errs = append(errs, fmt.Errorf("item %s: %w", items[i].ID, outcome.err))
		default:
			checked++
			if outcome.updated {
				updated++
			}
			notified += outcome.notifications
		}
	}

	if j.metrics != nil {
		j.metrics.AddItemsChecked(availabilityJobName, checked)
		j.metrics.AddNotificationsCreated(availabilityJobName, notified)
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"items_total":           len(items),
		"items_checked":         checked,
		"items_skipped":         skipped,
		"items_updated":         updated,
		"items_failed":          failed,
		"notifications_created": notified,
	})
	j.logg.Info(logCtx, "availability check complete")
	return multierr.Combine(errs...)
}

type itemOutcome struct {
	skipped       bool
	updated       bool
	notifications int
	err           error
}

func (j *availabilityJob) checkItem(ctx context.Context, item *models.WatchListItem) (outcome itemOutcome) {
	itemCtx := j.logg.WithWatchItemID(ctx, item.ID.String())

	// A panic while processing one item must not take the cycle down.
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("recovered from panic: %v", r)
			j.logg.Error(itemCtx, "watch list item check panicked", err)
			outcome = itemOutcome{err: err}
		}
	}()

	if item.Product == nil {
		j.logg.Warn(itemCtx, "watch list item has no product; skipping")
		return itemOutcome{skipped: true}
	}
	code := strings.TrimSpace(item.Product.Code)
	if code == "" {
		j.logg.Warn(itemCtx, "watch list item product has no code; skipping")
		return itemOutcome{skipped: true}
	}

	// The supplier probe stays outside the transaction.
	result := j.supplier.CheckAvailability(ctx, code)
	if result.Error != "" {
		j.logg.Warn(j.logg.WithField(itemCtx, "supplier_error", result.Error), "supplier probe degraded")
	}
	if result.Available == nil {
		j.logg.Warn(itemCtx, "supplier returned no availability; skipping")
		return itemOutcome{skipped: true}
	}

	observed := *result.Available
	if !availabilityChanged(item.LastAvailability, observed) {
		return itemOutcome{}
	}

	now := j.now().UTC()
	var created int
	err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
		if err := j.watchRepo.RecordAvailability(ctx, tx, item.ID, observed, now); err != nil {
			return fmt.Errorf("record availability: %w", err)
		}
		count, err := j.fanout.NotifyUsers(ctx, tx, j.notificationRepo.WithTx(tx), item, observed, now)
		if err != nil {
			return err
		}
		created = count
		return nil
	})
	if err != nil {
		j.logg.Error(itemCtx, "watch list item update failed", err)
		return itemOutcome{err: err}
	}

	item.LastAvailability = &observed
	item.LastAvailabilityTime = &now
	return itemOutcome{updated: true, notifications: created}
}
