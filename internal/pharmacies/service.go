package pharmacies

import (
	"context"
	"errors"
	"strings"

	"github.com/zidir/medcom-backend/internal/access"
	"github.com/zidir/medcom-backend/internal/users"
	"github.com/zidir/medcom-backend/pkg/db/models"
	pkgerrors "github.com/zidir/medcom-backend/pkg/errors"
	"gorm.io/gorm"
)

// ServiceParams groups dependencies for the pharmacies service.
type ServiceParams struct {
	PharmacyRepo *Repository
	UserRepo     *users.Repository
}

// Service exposes business rules for a user's own pharmacy.
type Service interface {
	GetOwn(ctx context.Context, actor access.Actor) (*models.Pharmacy, error)
	UpdateOwn(ctx context.Context, actor access.Actor, dto UpdatePharmacyDTO) (*models.Pharmacy, error)
	ListMembers(ctx context.Context, actor access.Actor) ([]models.User, error)
}

type service struct {
	pharmacyRepo *Repository
	userRepo     *users.Repository
}

// NewService builds a pharmacies service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.PharmacyRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "pharmacy repo is required")
	}
	if params.UserRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user repo is required")
	}
	return &service{
		pharmacyRepo: params.PharmacyRepo,
		userRepo:     params.UserRepo,
	}, nil
}

// GetOwn returns the pharmacy the actor belongs to.
func (s *service) GetOwn(ctx context.Context, actor access.Actor) (*models.Pharmacy, error) {
	if actor.PharmacyID == nil {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "user is not assigned to a pharmacy")
	}
	pharmacy, err := s.pharmacyRepo.FindByID(ctx, *actor.PharmacyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "pharmacy not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load pharmacy")
	}
	return pharmacy, nil
}

// UpdateOwn applies contact edits to the actor's pharmacy.
func (s *service) UpdateOwn(ctx context.Context, actor access.Actor, dto UpdatePharmacyDTO) (*models.Pharmacy, error) {
	if actor.PharmacyID == nil {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "user is not assigned to a pharmacy")
	}

	updates, err := dto.toUpdates()
	if err != nil {
		return nil, err
	}

	pharmacy, err := s.pharmacyRepo.Update(ctx, *actor.PharmacyID, updates)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "pharmacy not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update pharmacy")
	}
	return pharmacy, nil
}

// ListMembers returns the active users belonging to the actor's pharmacy.
func (s *service) ListMembers(ctx context.Context, actor access.Actor) ([]models.User, error) {
	if actor.PharmacyID == nil {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "user is not assigned to a pharmacy")
	}
	members, err := s.userRepo.ListByPharmacyID(ctx, *actor.PharmacyID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list pharmacy members")
	}
	return members, nil
}

// UpdatePharmacyDTO carries optional pharmacy contact updates.
type UpdatePharmacyDTO struct {
	Name    *string `json:"name" validate:"omitempty,min=1,max=255"`
	Address *string `json:"address" validate:"omitempty,max=500"`
	Email   *string `json:"email" validate:"omitempty,email"`
	Phone   *string `json:"phone" validate:"omitempty,max=50"`
	Website *string `json:"website" validate:"omitempty,url"`
}

func (d UpdatePharmacyDTO) toUpdates() (map[string]any, error) {
	updates := map[string]any{}
	if d.Name != nil {
		name := strings.TrimSpace(*d.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "pharmacy name cannot be empty")
		}
		updates["name"] = name
	}
	if d.Address != nil {
		updates["address"] = strings.TrimSpace(*d.Address)
	}
	if d.Email != nil {
		updates["email"] = strings.TrimSpace(*d.Email)
	}
	if d.Phone != nil {
		updates["phone"] = strings.TrimSpace(*d.Phone)
	}
	if d.Website != nil {
		updates["website"] = strings.TrimSpace(*d.Website)
	}
	return updates, nil
}
