package pricechange

import (
	"context"

	"github.com/samber/lo"

	"github.com/fatflowers/repricer/internal/app/repository"
	"github.com/fatflowers/repricer/internal/models"
	"github.com/fatflowers/repricer/pkg/ierr"
	"github.com/fatflowers/repricer/pkg/types"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

var filterableColumns = []string{
	"subscription_id",
	"status",
	"client_approval_status",
	"requires_client_approval",
	"new_amount",
	"scheduled_date",
	"applied_at",
	"created_at",
}

var sortableColumns = []string{"created_at", "scheduled_date", "applied_at", "new_amount"}

type ListRequest struct {
	ProductPriceChangeID string                `json:"product_price_change_id" validate:"required"`
	Filters              []*types.CommonFilter `json:"filters"`
	SortBy               string                `json:"sort_by"`
	SortDesc             bool                  `json:"sort_desc"`
	Offset               int                   `json:"offset" validate:"gte=0"`
	Limit                int                   `json:"limit" validate:"gte=0,lte=100"`
}

type ListResponse struct {
	Items []*models.SubscriptionPriceChange `json:"items"`
	Total int64                             `json:"total"`
}

// ListSubscriptionChanges pages through the per-subscription records spawned
// by a product price change the caller owns.
func (s *Service) ListSubscriptionChanges(ctx context.Context, callerID string, req *ListRequest) (*ListResponse, error) {
	change, _, err := s.authorizeChange(ctx, callerID, req.ProductPriceChangeID)
	if err != nil {
		return nil, err
	}
	for _, f := range req.Filters {
		if err := f.Validate(filterableColumns); err != nil {
			return nil, ierr.WithError(err).
				WithHint("Invalid filter").
				Mark(ierr.ErrValidation)
		}
	}
	if req.SortBy != "" && !lo.Contains(sortableColumns, req.SortBy) {
		return nil, ierr.NewError("unsupported sort column").
			WithMessagef("sort_by=%s", req.SortBy).
			WithHint("Invalid sort_by").
			Mark(ierr.ErrValidation)
	}
	limit := req.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}
	limit = min(limit, maxPageSize)

	items, total, err := s.store.ScanSubscriptionPriceChanges(ctx, &repository.ScanRequest{
		ProductPriceChangeID: change.ID,
		Filters:              req.Filters,
		SortBy:               req.SortBy,
		SortDesc:             req.SortDesc,
		Offset:               max(req.Offset, 0),
		Limit:                limit,
	})
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []*models.SubscriptionPriceChange{}
	}
	return &ListResponse{Items: items, Total: total}, nil
}
