package watchlist

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/zidir/medcom-backend/internal/access"
	"github.com/zidir/medcom-backend/internal/products"
	"github.com/zidir/medcom-backend/pkg/db"
	"github.com/zidir/medcom-backend/pkg/db/models"
	pkgerrors "github.com/zidir/medcom-backend/pkg/errors"
	"github.com/zidir/medcom-backend/pkg/pagination"
	"gorm.io/gorm"
)

// ServiceParams groups dependencies for the watch list service.
type ServiceParams struct {
	WatchRepo   *Repository
	ProductRepo *products.Repository
}

// Service exposes business rules for watch list management.
type Service interface {
	Create(ctx context.Context, actor access.Actor, dto CreateWatchItemDTO) (*models.WatchListItem, error)
	List(ctx context.Context, actor access.Actor, params ListParams) (*ListResult, error)
	Get(ctx context.Context, actor access.Actor, id uuid.UUID) (*models.WatchListItem, error)
	Patch(ctx context.Context, actor access.Actor, id uuid.UUID, dto UpdateWatchItemDTO) (*models.WatchListItem, error)
	Delete(ctx context.Context, actor access.Actor, id uuid.UUID) error
}

type service struct {
	watchRepo   *Repository
	productRepo *products.Repository
}

// NewService builds a watch list service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.WatchRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "watch list repo is required")
	}
	if params.ProductRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product repo is required")
	}
	return &service{
		watchRepo:   params.WatchRepo,
		productRepo: params.ProductRepo,
	}, nil
}

// Create stamps the creator and their pharmacy on a new watch list entry.
// Availability starts unknown; the monitor fills it in on the first cycle.
func (s *service) Create(ctx context.Context, actor access.Actor, dto CreateWatchItemDTO) (*models.WatchListItem, error) {
	if actor.PharmacyID == nil {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "user is not assigned to a pharmacy")
	}
	if dto.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if _, err := s.productRepo.FindByID(ctx, dto.ProductID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}

	notifyAll := true
	if dto.NotifyAllUsers != nil {
		notifyAll = *dto.NotifyAllUsers
	}

	item := &models.WatchListItem{
		ID:             uuid.New(),
		NotifyAllUsers: notifyAll,
		CreatedByID:    actor.UserID,
		ProductID:      dto.ProductID,
		PharmacyID:     *actor.PharmacyID,
	}
	if err := s.watchRepo.Create(ctx, item); err != nil {
		if db.IsUniqueViolation(err) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "product is already on the watch list")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create watch list item")
	}
	return s.Get(ctx, actor, item.ID)
}

// List returns the actor's pharmacy watch list, newest first.
func (s *service) List(ctx context.Context, actor access.Actor, params ListParams) (*ListResult, error) {
	if actor.PharmacyID == nil {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "user is not assigned to a pharmacy")
	}

	query := listWatchItemsParams{
		PharmacyID: *actor.PharmacyID,
		Limit:      params.Limit,
	}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	rows, next, err := s.watchRepo.ListByPharmacy(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list watch list items")
	}

	cursor := ""
	if next != nil {
		cursor = pagination.EncodeCursor(*next)
	}
	return &ListResult{Items: rows, Cursor: cursor}, nil
}

// Get loads a single watch list item after verifying pharmacy membership.
func (s *service) Get(ctx context.Context, actor access.Actor, id uuid.UUID) (*models.WatchListItem, error) {
	item, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := access.AssertWatchItemAccess(actor, item); err != nil {
		return nil, err
	}
	return item, nil
}

// Patch updates the mutable fields of a watch list item. Swapping the product
// resets the recorded availability so the monitor re-observes from scratch.
func (s *service) Patch(ctx context.Context, actor access.Actor, id uuid.UUID, dto UpdateWatchItemDTO) (*models.WatchListItem, error) {
	item, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := access.AssertWatchItemAccess(actor, item); err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if dto.NotifyAllUsers != nil {
		updates["notify_all_users"] = *dto.NotifyAllUsers
	}
	if dto.ProductID != nil && *dto.ProductID != item.ProductID {
		if *dto.ProductID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
		}
		if _, err := s.productRepo.FindByID(ctx, *dto.ProductID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "product not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
		}
		updates["product_id"] = *dto.ProductID
		updates["last_availability"] = nil
		updates["last_availability_time"] = nil
	}
	if len(updates) == 0 {
		return item, nil
	}

	if err := s.watchRepo.Update(ctx, id, updates); err != nil {
		if db.IsUniqueViolation(err) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "product is already on the watch list")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update watch list item")
	}
	return s.load(ctx, id)
}

// Delete removes the item after verifying pharmacy membership.
func (s *service) Delete(ctx context.Context, actor access.Actor, id uuid.UUID) error {
	item, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := access.AssertWatchItemAccess(actor, item); err != nil {
		return err
	}
	if err := s.watchRepo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete watch list item")
	}
	return nil
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.WatchListItem, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "watch list item id is required")
	}
	item, err := s.watchRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "watch list item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load watch list item")
	}
	return item, nil
}
