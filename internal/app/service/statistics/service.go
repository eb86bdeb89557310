package statistics

import (
	"context"
	"fmt"
	"sync"

	"github.com/samber/lo"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fatflowers/repricer/internal/models"
	"github.com/fatflowers/repricer/pkg/ierr"
	"github.com/fatflowers/repricer/pkg/logctx"
	"github.com/fatflowers/repricer/pkg/types"
)

type StatisticType string

const (
	StatisticTypeDailyAppliedCount      StatisticType = "daily_applied_count"
	StatisticTypeDailyAutoApprovedCount StatisticType = "daily_auto_approved_count"
	StatisticTypeApprovalStatusCount    StatisticType = "approval_status_count"
	StatisticTypeTotalPendingApproval   StatisticType = "total_pending_approval"
	// StatisticTypeConsentApprovalRate is approved / resolved per day, in basis points.
	StatisticTypeConsentApprovalRate StatisticType = "consent_approval_rate"
)

var statisticTypes = []StatisticType{
	StatisticTypeDailyAppliedCount,
	StatisticTypeDailyAutoApprovedCount,
	StatisticTypeApprovalStatusCount,
	StatisticTypeTotalPendingApproval,
	StatisticTypeConsentApprovalRate,
}

type PriceChangeStatisticFilterType string

const (
	PriceChangeStatisticFilterTypeProductPriceChangeID   PriceChangeStatisticFilterType = "product_price_change_id"
	PriceChangeStatisticFilterTypeSubscriptionID         PriceChangeStatisticFilterType = "subscription_id"
	PriceChangeStatisticFilterTypeRequiresClientApproval PriceChangeStatisticFilterType = "requires_client_approval"
)

var filterTypes = []PriceChangeStatisticFilterType{
	PriceChangeStatisticFilterTypeProductPriceChangeID,
	PriceChangeStatisticFilterTypeSubscriptionID,
	PriceChangeStatisticFilterTypeRequiresClientApproval,
}

// validFilters restricts filters that only make sense for some statistics.
// Filters missing from the map apply everywhere.
var validFilters = map[PriceChangeStatisticFilterType][]StatisticType{
	PriceChangeStatisticFilterTypeRequiresClientApproval: {StatisticTypeDailyAppliedCount, StatisticTypeApprovalStatusCount},
}

func allowedFilterFields() []string {
	return lo.Map(filterTypes, func(f PriceChangeStatisticFilterType, _ int) string { return string(f) })
}

type PriceChangeStatisticDataItem struct {
	ID StatisticType `json:"id" validate:"required"`
}

type PriceChangeStatisticRequest struct {
	Filters   []*types.CommonFilter           `json:"filters"`
	DataItems []*PriceChangeStatisticDataItem `json:"data_items" validate:"required,min=1,dive"`
}

// Validate checks every filter and data item against the allow-lists.
func (r *PriceChangeStatisticRequest) Validate() error {
	for _, f := range r.Filters {
		if err := f.Validate(allowedFilterFields()); err != nil {
			return ierr.WithError(err).WithHint("Invalid filter").Mark(ierr.ErrValidation)
		}
	}
	for _, item := range r.DataItems {
		if item == nil || !lo.Contains(statisticTypes, item.ID) {
			return ierr.NewError("unknown statistic").WithHint("Invalid data item").Mark(ierr.ErrValidation)
		}
	}
	return nil
}

// applicable reports whether every filter in r can be used for typ.
func (r *PriceChangeStatisticRequest) applicable(typ StatisticType) bool {
	for _, f := range r.Filters {
		if allowed, ok := validFilters[PriceChangeStatisticFilterType(f.Field)]; ok && !lo.Contains(allowed, typ) {
			return false
		}
	}
	return true
}

// qualified returns the filters with columns prefixed by the price change table alias.
func (r *PriceChangeStatisticRequest) qualified() types.FiltersAnd {
	return lo.Map(r.Filters, func(f *types.CommonFilter, _ int) *types.CommonFilter {
		c := *f
		c.Field = "spc." + f.Field
		return &c
	})
}

type PriceChangeStatisticResponseDataItem struct {
	Date   string `json:"date,omitempty"`
	Label  string `json:"label,omitempty"`
	Value  int64  `json:"value"`
	Value2 int64  `json:"value2,omitempty"`
	Value3 int64  `json:"value3,omitempty"`
}

type PriceChangeStatisticResponse struct {
	DataItems map[StatisticType][]PriceChangeStatisticResponseDataItem `json:"data_items"`
}

// Service reports over subscription price changes belonging to the caller.
type Service struct {
	db  *gorm.DB
	log *zap.SugaredLogger
}

func New(db *gorm.DB, log *zap.SugaredLogger) *Service { return &Service{db: db, log: log} }

// base selects the caller's subscription price changes as "spc".
func (s *Service) base(ctx context.Context, ownerID string, request *PriceChangeStatisticRequest) *gorm.DB {
	return s.db.WithContext(ctx).
		Table((models.SubscriptionPriceChange{}).TableName()+" AS spc").
		Joins("JOIN "+(models.Subscription{}).TableName()+" s ON s.id = spc.subscription_id").
		Where("s.owner_id = ?", ownerID).
		Where(clause.Where{Exprs: []clause.Expression{request.qualified()}})
}

func (s *Service) getDailyAppliedCount(ctx context.Context, ownerID string, request *PriceChangeStatisticRequest) ([]PriceChangeStatisticResponseDataItem, error) {
	var results []PriceChangeStatisticResponseDataItem
	q := s.base(ctx, ownerID, request).
		Select("TO_CHAR(spc.applied_at, 'YYYY-MM-DD') as date, count(*) as value").
		Where("spc.status = ?", types.SubscriptionPriceChangeStatusApplied).
		Group("TO_CHAR(spc.applied_at, 'YYYY-MM-DD')").
		Order("date")
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Service) getDailyAutoApprovedCount(ctx context.Context, ownerID string, request *PriceChangeStatisticRequest) ([]PriceChangeStatisticResponseDataItem, error) {
	var results []PriceChangeStatisticResponseDataItem
	q := s.base(ctx, ownerID, request).
		Select("TO_CHAR(spc.client_approval_date, 'YYYY-MM-DD') as date, count(*) as value").
		Where("spc.client_approval_method = ?", types.ClientApprovalMethodAutoApprovedNoResponse).
		Group("TO_CHAR(spc.client_approval_date, 'YYYY-MM-DD')").
		Order("date")
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Service) getApprovalStatusCount(ctx context.Context, ownerID string, request *PriceChangeStatisticRequest) ([]PriceChangeStatisticResponseDataItem, error) {
	var results []PriceChangeStatisticResponseDataItem
	q := s.base(ctx, ownerID, request).
		Select("spc.client_approval_status as label, count(*) as value").
		Group("spc.client_approval_status").
		Order("label")
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Service) getTotalPendingApproval(ctx context.Context, ownerID string, request *PriceChangeStatisticRequest) ([]PriceChangeStatisticResponseDataItem, error) {
	var results []PriceChangeStatisticResponseDataItem
	q := s.base(ctx, ownerID, request).
		Select("count(*) as value").
		Where("spc.status = ?", types.SubscriptionPriceChangeStatusPending).
		Where("spc.client_approval_status = ?", types.ClientApprovalStatusPending)
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// value is the approval rate * 100 (basis points), value2 resolved, value3 approved by the customer.
func (s *Service) getConsentApprovalRate(ctx context.Context, ownerID string, request *PriceChangeStatisticRequest) ([]PriceChangeStatisticResponseDataItem, error) {
	var results []PriceChangeStatisticResponseDataItem
	q := s.base(ctx, ownerID, request).
		Select(`TO_CHAR(spc.client_approval_date, 'YYYY-MM-DD') as date,
  CAST(ROUND(COUNT(*) FILTER (WHERE spc.client_approval_status = ?) * 100.0 / COUNT(*), 2) * 100 AS INTEGER) as value,
  COUNT(*) as value2,
  COUNT(*) FILTER (WHERE spc.client_approval_method = ? AND spc.client_approval_status = ?) as value3`,
			types.ClientApprovalStatusApproved, types.ClientApprovalMethodEmailLink, types.ClientApprovalStatusApproved).
		Where("spc.requires_client_approval = ?", true).
		Where("spc.client_approval_date IS NOT NULL").
		Group("TO_CHAR(spc.client_approval_date, 'YYYY-MM-DD')").
		Order(clause.OrderByColumn{Column: clause.Column{Name: "date"}, Desc: true})
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Service) getStatistic(ctx context.Context, ownerID string, request *PriceChangeStatisticRequest, item *PriceChangeStatisticDataItem) ([]PriceChangeStatisticResponseDataItem, error) {
	switch item.ID {
	case StatisticTypeDailyAppliedCount:
		return s.getDailyAppliedCount(ctx, ownerID, request)
	case StatisticTypeDailyAutoApprovedCount:
		return s.getDailyAutoApprovedCount(ctx, ownerID, request)
	case StatisticTypeApprovalStatusCount:
		return s.getApprovalStatusCount(ctx, ownerID, request)
	case StatisticTypeTotalPendingApproval:
		return s.getTotalPendingApproval(ctx, ownerID, request)
	case StatisticTypeConsentApprovalRate:
		return s.getConsentApprovalRate(ctx, ownerID, request)
	default:
		return nil, fmt.Errorf("invalid data item id: %s", item.ID)
	}
}

// GetPriceChangeStatistic computes every requested data item concurrently.
// Items a filter does not apply to come back as null.
func (s *Service) GetPriceChangeStatistic(ctx context.Context, callerID string, request *PriceChangeStatisticRequest) (*PriceChangeStatisticResponse, error) {
	if callerID == "" {
		return nil, ierr.NewError("missing caller").WithHint("Authentication required").Mark(ierr.ErrUnauthenticated)
	}
	if err := request.Validate(); err != nil {
		return nil, err
	}

	var (
		mu      sync.Mutex
		results = make(map[StatisticType][]PriceChangeStatisticResponseDataItem, len(request.DataItems))
	)
	g, gctx := errgroup.WithContext(ctx)
	for _, item := range request.DataItems {
		if !request.applicable(item.ID) {
			mu.Lock()
			results[item.ID] = nil
			mu.Unlock()
			continue
		}
		g.Go(func() error {
			res, err := s.getStatistic(gctx, callerID, request, item)
			if err != nil {
				return err
			}
			mu.Lock()
			results[item.ID] = res
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		logctx.FromCtx(ctx, s.log).Errorw("price change statistic failed", "err", err)
		return nil, ierr.WithError(err).WithHint("Internal error").Mark(ierr.ErrDatabase)
	}
	return &PriceChangeStatisticResponse{DataItems: results}, nil
}

var Module = fx.Options(
	fx.Provide(New),
)
