package users

import (
	"context"

	"github.com/google/uuid"
	"github.com/zidir/medcom-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repository exposes user-related persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a users repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindByID loads a user by their UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByLogin retrieves the user matching the provided login.
func (r *Repository) FindByLogin(ctx context.Context, login string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("login = ?", login).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// ListByPharmacyID returns the active members of a pharmacy.
func (r *Repository) ListByPharmacyID(ctx context.Context, pharmacyID uuid.UUID) ([]models.User, error) {
	var members []models.User
	err := r.db.WithContext(ctx).
		Where("pharmacy_id = ? AND is_active = ?", pharmacyID, true).
		Order("login ASC").
		Find(&members).Error
	if err != nil {
		return nil, err
	}
	return members, nil
}
