package watchlist

import (
	"github.com/google/uuid"
	"github.com/zidir/medcom-backend/pkg/db/models"
)

// CreateWatchItemDTO carries the inputs for adding a product to the watch list.
type CreateWatchItemDTO struct {
	ProductID      uuid.UUID `json:"product_id" validate:"required"`
	NotifyAllUsers *bool     `json:"notify_all_users"`
}

// UpdateWatchItemDTO carries the mutable fields of a watch list item.
// Availability fields are owned by the monitor and cannot be patched.
type UpdateWatchItemDTO struct {
	ProductID      *uuid.UUID `json:"product_id"`
	NotifyAllUsers *bool      `json:"notify_all_users"`
}

// ListParams configures watch list pagination.
type ListParams struct {
	Limit  int
	Cursor string
}

// ListResult wraps a page of watch list items and the cursor for the next page.
type ListResult struct {
	Items  []models.WatchListItem `json:"items"`
	Cursor string                 `json:"cursor"`
}
