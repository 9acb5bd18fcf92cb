package pharmacies

import (
	"context"

	"github.com/google/uuid"
	"github.com/zidir/medcom-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repository encapsulates pharmacy persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a pharmacies repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindByID loads a pharmacy by its UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Pharmacy, error) {
	var pharmacy models.Pharmacy
	if err := r.db.WithContext(ctx).First(&pharmacy, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &pharmacy, nil
}

// Update applies the provided column values to the pharmacy row.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) (*models.Pharmacy, error) {
	if len(updates) > 0 {
		result := r.db.WithContext(ctx).
			Model(&models.Pharmacy{}).
			Where("id = ?", id).
			Updates(updates)
		if result.Error != nil {
			return nil, result.Error
		}
		if result.RowsAffected == 0 {
			return nil, gorm.ErrRecordNotFound
		}
	}
	return r.FindByID(ctx, id)
}
