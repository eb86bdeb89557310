package statistics

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/fatflowers/repricer/pkg/ierr"
	"github.com/fatflowers/repricer/pkg/types"
)

func newMockService(t *testing.T) (*Service, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Discard,
	})
	require.NoError(t, err)
	return New(db, zap.NewNop().Sugar()), mock
}

func TestGetPriceChangeStatistic_DailyApplied(t *testing.T) {
	svc, mock := newMockService(t)

	mock.ExpectQuery(`SELECT TO_CHAR\(spc.applied_at, 'YYYY-MM-DD'\) as date, count\(\*\) as value FROM subscription_price_change AS spc JOIN subscription s ON s.id = spc.subscription_id WHERE s.owner_id = \$1 AND "spc"."product_price_change_id" = \$2 AND spc.status = \$3 GROUP BY`).
		WithArgs("owner-1", "ppc-1", types.SubscriptionPriceChangeStatusApplied).
		WillReturnRows(sqlmock.NewRows([]string{"date", "value"}).
			AddRow("2026-06-01", 3).
			AddRow("2026-06-02", 1))

	resp, err := svc.GetPriceChangeStatistic(context.Background(), "owner-1", &PriceChangeStatisticRequest{
		Filters: []*types.CommonFilter{{
			Field: "product_price_change_id", Operator: types.CommonFilterOperatorEq, Values: []any{"ppc-1"},
		}},
		DataItems: []*PriceChangeStatisticDataItem{{ID: StatisticTypeDailyAppliedCount}},
	})
	require.NoError(t, err)
	require.Equal(t, []PriceChangeStatisticResponseDataItem{
		{Date: "2026-06-01", Value: 3},
		{Date: "2026-06-02", Value: 1},
	}, resp.DataItems[StatisticTypeDailyAppliedCount])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetPriceChangeStatistic_FilterNotApplicable(t *testing.T) {
	svc, mock := newMockService(t)

	resp, err := svc.GetPriceChangeStatistic(context.Background(), "owner-1", &PriceChangeStatisticRequest{
		Filters: []*types.CommonFilter{{
			Field: "requires_client_approval", Operator: types.CommonFilterOperatorEq, Values: []any{true},
		}},
		DataItems: []*PriceChangeStatisticDataItem{{ID: StatisticTypeDailyAutoApprovedCount}},
	})
	require.NoError(t, err)
	v, ok := resp.DataItems[StatisticTypeDailyAutoApprovedCount]
	require.True(t, ok)
	require.Nil(t, v)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetPriceChangeStatistic_Rejects(t *testing.T) {
	svc, _ := newMockService(t)
	ctx := context.Background()

	_, err := svc.GetPriceChangeStatistic(ctx, "", &PriceChangeStatisticRequest{})
	require.True(t, ierr.IsUnauthenticated(err))

	_, err = svc.GetPriceChangeStatistic(ctx, "owner-1", &PriceChangeStatisticRequest{
		Filters: []*types.CommonFilter{{
			Field: "s.owner_id", Operator: types.CommonFilterOperatorEq, Values: []any{"someone-else"},
		}},
		DataItems: []*PriceChangeStatisticDataItem{{ID: StatisticTypeDailyAppliedCount}},
	})
	require.True(t, ierr.IsValidation(err))
	require.Equal(t, "Invalid filter", ierr.DisplayMessage(err))

	_, err = svc.GetPriceChangeStatistic(ctx, "owner-1", &PriceChangeStatisticRequest{
		DataItems: []*PriceChangeStatisticDataItem{{ID: "daily_gmv"}},
	})
	require.True(t, ierr.IsValidation(err))
}

func TestGetPriceChangeStatistic_QueryFailure(t *testing.T) {
	svc, mock := newMockService(t)

	mock.ExpectQuery(`SELECT spc.client_approval_status as label`).
		WillReturnError(context.DeadlineExceeded)

	_, err := svc.GetPriceChangeStatistic(context.Background(), "owner-1", &PriceChangeStatisticRequest{
		DataItems: []*PriceChangeStatisticDataItem{{ID: StatisticTypeApprovalStatusCount}},
	})
	require.True(t, ierr.IsDatabase(err))
	require.Equal(t, "Internal error", ierr.DisplayMessage(err))
}

func TestGetPriceChangeStatistic_ApprovalRateCountsOnlyCustomerApprovals(t *testing.T) {
	svc, mock := newMockService(t)

	mock.ExpectQuery(`COUNT\(\*\) FILTER \(WHERE spc.client_approval_method = \$2 AND spc.client_approval_status = \$3\) as value3 FROM subscription_price_change AS spc`).
		WithArgs(types.ClientApprovalStatusApproved, types.ClientApprovalMethodEmailLink, types.ClientApprovalStatusApproved, "owner-1", true).
		WillReturnRows(sqlmock.NewRows([]string{"date", "value", "value2", "value3"}).
			AddRow("2026-06-02", 5000, 4, 1))

	resp, err := svc.GetPriceChangeStatistic(context.Background(), "owner-1", &PriceChangeStatisticRequest{
		DataItems: []*PriceChangeStatisticDataItem{{ID: StatisticTypeConsentApprovalRate}},
	})
	require.NoError(t, err)
	require.Equal(t, []PriceChangeStatisticResponseDataItem{
		{Date: "2026-06-02", Value: 5000, Value2: 4, Value3: 1},
	}, resp.DataItems[StatisticTypeConsentApprovalRate])
	require.NoError(t, mock.ExpectationsWereMet())
}
