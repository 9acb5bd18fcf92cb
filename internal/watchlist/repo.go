package watchlist

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/zidir/medcom-backend/pkg/db/models"
	"github.com/zidir/medcom-backend/pkg/pagination"
	"gorm.io/gorm"
)

// Repository encapsulates watch list persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a watch list repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the supplied transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// Create inserts a watch list entry.
func (r *Repository) Create(ctx context.Context, item *models.WatchListItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

// FindByID loads a watch list item with its product and pharmacy preloaded.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.WatchListItem, error) {
	var item models.WatchListItem
	err := r.db.WithContext(ctx).
		Preload("Product").
		Preload("Pharmacy").
		First(&item, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

type listWatchItemsParams struct {
	PharmacyID uuid.UUID
	Limit      int
	Cursor     *pagination.Cursor
}

// ListByPharmacy returns a cursor-paginated page of a pharmacy's watch list.
func (r *Repository) ListByPharmacy(ctx context.Context, params listWatchItemsParams) ([]models.WatchListItem, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).
		Model(&models.WatchListItem{}).
		Preload("Product").
		Where("pharmacy_id = ?", params.PharmacyID)
	if params.Cursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)", params.Cursor.CreatedAt, params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var items []models.WatchListItem
	if err := query.Order("created_at DESC").Order("id DESC").Limit(limit).Find(&items).Error; err != nil {
		return nil, nil, err
	}

	if len(items) > normalized {
		items = items[:normalized]
		last := items[len(items)-1]
		return items, &pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}, nil
	}
	return items, nil, nil
}

// ListAll returns every watch list item with its product preloaded. The
// monitor walks this set once per cycle.
func (r *Repository) ListAll(ctx context.Context) ([]models.WatchListItem, error) {
	var items []models.WatchListItem
	err := r.db.WithContext(ctx).
		Preload("Product").
		Order("created_at ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// Update applies the provided column values to the watch list row.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	result := r.db.WithContext(ctx).
		Model(&models.WatchListItem{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// RecordAvailability persists the observed state and its timestamp. A non-nil
// tx scopes the write to the caller's transaction.
func (r *Repository) RecordAvailability(ctx context.Context, tx *gorm.DB, id uuid.UUID, available bool, at time.Time) error {
	db := r.db
	if tx != nil {
		db = tx
	}
	return db.WithContext(ctx).
		Model(&models.WatchListItem{}).
		Where("id = ?", id).
		UpdateColumns(map[string]any{
			"last_availability":      available,
			"last_availability_time": at,
		}).Error
}

// Delete removes the watch list entry.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.WatchListItem{}, "id = ?", id).Error
}
