package notifications

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/zidir/medcom-backend/internal/access"
	"github.com/zidir/medcom-backend/pkg/db/models"
	pkgerrors "github.com/zidir/medcom-backend/pkg/errors"
	"github.com/zidir/medcom-backend/pkg/pagination"
	"gorm.io/gorm"
)

// Service defines notification list/read operations. Notifications are only
// ever created by the availability monitor; the API reads and acknowledges.
type Service interface {
	List(ctx context.Context, actor access.Actor, params ListParams) (*ListResult, error)
	ListByPharmacy(ctx context.Context, actor access.Actor, params PharmacyListParams) (*ListResult, error)
	MarkRead(ctx context.Context, actor access.Actor, notificationID uuid.UUID) (*models.Notification, error)
	MarkAllRead(ctx context.Context, actor access.Actor) (int64, error)
	CountUnread(ctx context.Context, actor access.Actor) (int64, error)
	Delete(ctx context.Context, actor access.Actor, notificationID uuid.UUID) error
}

type service struct {
	repo Repository
	now  func() time.Time
}

// ListParams configures pagination for a user's own notifications.
type ListParams struct {
	Limit      int
	Cursor     string
	UnreadOnly bool
}

// PharmacyListParams configures pagination for a pharmacy-wide listing.
type PharmacyListParams struct {
	PharmacyID uuid.UUID
	Limit      int
	Cursor     string
}

// ListResult wraps returned notifications and the cursor for the next page.
type ListResult struct {
	Items  []models.Notification `json:"items"`
	Cursor string                `json:"cursor"`
}

// NewService wires notifications dependencies.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notifications repository required")
	}
	return &service{repo: repo, now: func() time.Time { return time.Now().UTC() }}, nil
}

func (s *service) List(ctx context.Context, actor access.Actor, params ListParams) (*ListResult, error) {
	query := listNotificationsParams{
		UserID:     actor.UserID,
		Limit:      params.Limit,
		UnreadOnly: params.UnreadOnly,
	}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	rows, next, err := s.repo.ListByUser(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list notifications")
	}
	return &ListResult{Items: rows, Cursor: encodeCursor(next)}, nil
}

func (s *service) ListByPharmacy(ctx context.Context, actor access.Actor, params PharmacyListParams) (*ListResult, error) {
	if err := access.AssertPharmacyAccess(actor, params.PharmacyID); err != nil {
		return nil, err
	}

	query := listPharmacyNotificationsParams{
		PharmacyID: params.PharmacyID,
		Limit:      params.Limit,
	}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	rows, next, err := s.repo.ListByPharmacy(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list pharmacy notifications")
	}
	return &ListResult{Items: rows, Cursor: encodeCursor(next)}, nil
}

// MarkRead acknowledges a notification. The read timestamp is written once;
// repeat calls return the stored value unchanged.
func (s *service) MarkRead(ctx context.Context, actor access.Actor, notificationID uuid.UUID) (*models.Notification, error) {
	notification, err := s.load(ctx, notificationID)
	if err != nil {
		return nil, err
	}
	if err := access.AssertNotificationOwnership(actor, notification); err != nil {
		return nil, err
	}

	if notification.ReadAt == nil {
		if _, err := s.repo.MarkRead(ctx, notificationID, s.now()); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notification read")
		}
		return s.load(ctx, notificationID)
	}
	return notification, nil
}

func (s *service) MarkAllRead(ctx context.Context, actor access.Actor) (int64, error) {
	count, err := s.repo.MarkAllRead(ctx, actor.UserID, s.now())
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notifications read")
	}
	return count, nil
}

func (s *service) CountUnread(ctx context.Context, actor access.Actor) (int64, error) {
	count, err := s.repo.CountUnread(ctx, actor.UserID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count unread notifications")
	}
	return count, nil
}

// Delete removes a notification. Reserved for administrators.
func (s *service) Delete(ctx context.Context, actor access.Actor, notificationID uuid.UUID) error {
	if err := access.RequireAdmin(actor); err != nil {
		return err
	}
	if _, err := s.load(ctx, notificationID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, notificationID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete notification")
	}
	return nil
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.Notification, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "notification id required")
	}
	notification, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "notification not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load notification")
	}
	return notification, nil
}

func encodeCursor(cursor *pagination.Cursor) string {
	if cursor == nil {
		return ""
	}
	return pagination.EncodeCursor(*cursor)
}
