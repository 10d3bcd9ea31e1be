package service

import (
	"context"
	"testing"

	"go-distribusi-ops/internal/model"
	"go-distribusi-ops/internal/query"
	"go-distribusi-ops/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type statsFixture struct {
	*reconFixture
}

func newStatsFixture(t *testing.T) *statsFixture {
	return &statsFixture{newReconFixture(t)}
}

func (fx *statsFixture) statsService(agg repository.AggregateProvider) StatsService {
	return NewStatsService(
		repository.NewStoreRepo(fx.db),
		repository.NewSalesRepRepo(fx.db),
		repository.NewProductRepo(fx.db),
		repository.NewShipmentRepo(fx.db),
		repository.NewBillingRepo(fx.db),
		agg,
	)
}

func statsFilter(sortField, sortColumn string) query.Filter {
	return query.Filter{
		Page:       1,
		PageSize:   query.DefaultPageSize,
		SortField:  sortField,
		SortColumn: sortColumn,
		SortDir:    query.SortAsc,
	}
}

func TestGetStats_UnknownEntity(t *testing.T) {
	fx := newStatsFixture(t)
	svc := fx.statsService(aggDown())

	_, err := svc.GetStats(context.Background(), "warehouses", statsFilter("id", "id"))
	var ve *query.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "entity", ve.Field)
}

func TestGetStats_StoreFallbackComputesFigures(t *testing.T) {
	fx := newStatsFixture(t)
	fx.ship(t, fx.store.ID, "2025-03-01", 100)
	fx.bill(t, fx.store.ID, "2025-03-05", model.PaymentCash, 60, 20, 600000)

	svc := fx.statsService(aggDown())
	result, err := svc.GetStats(context.Background(), "stores", statsFilter("id", "stores.id"))
	require.NoError(t, err)

	data := result.Data.([]StoreStats)
	require.Len(t, data, 2)

	byID := map[uint]StoreStats{}
	for _, row := range data {
		byID[row.StoreID] = row
	}
	active := byID[fx.store.ID]
	assert.Equal(t, "Toko Berkah", active.StoreName)
	assert.Equal(t, "Budi", active.SalesRepName)
	assert.Equal(t, 100, active.TotalShipped)
	assert.Equal(t, 60, active.TotalSold)
	assert.Equal(t, 20, active.TotalReturned)
	assert.Equal(t, 20, active.RemainingStock)
	assert.Equal(t, int64(600000), active.TotalReceived)
	assert.False(t, active.HasDataInconsistency)

	// A store without any events still appears, with zero figures.
	idle := byID[fx.store2.ID]
	assert.Equal(t, 0, idle.TotalShipped)
	assert.Equal(t, 0, idle.RemainingStock)
}

func TestGetStats_RemainingClampedAtZeroOnDashboards(t *testing.T) {
	fx := newStatsFixture(t)
	fx.ship(t, fx.store.ID, "2025-03-01", 10)
	fx.bill(t, fx.store.ID, "2025-03-05", model.PaymentCash, 15, 0, 150000)

	svc := fx.statsService(aggDown())
	result, err := svc.GetStats(context.Background(), "stores", statsFilter("id", "stores.id"))
	require.NoError(t, err)

	data := result.Data.([]StoreStats)
	byID := map[uint]StoreStats{}
	for _, row := range data {
		byID[row.StoreID] = row
	}
	oversold := byID[fx.store.ID]
	// Dashboard policy: clamp for display, keep the anomaly visible.
	assert.Equal(t, 0, oversold.RemainingStock)
	assert.True(t, oversold.HasDataInconsistency)
}

func TestGetStats_SalesRepAggregatesAcrossStores(t *testing.T) {
	fx := newStatsFixture(t)
	fx.ship(t, fx.store.ID, "2025-03-01", 40)
	fx.ship(t, fx.store2.ID, "2025-03-02", 60)
	fx.bill(t, fx.store.ID, "2025-03-05", model.PaymentCash, 30, 0, 300000)
	fx.bill(t, fx.store2.ID, "2025-03-06", model.PaymentTransfer, 50, 5, 500000)

	svc := fx.statsService(aggDown())
	result, err := svc.GetStats(context.Background(), "sales_reps", statsFilter("id", "sales_reps.id"))
	require.NoError(t, err)

	data := result.Data.([]SalesRepStats)
	require.Len(t, data, 1)
	rep := data[0]
	assert.Equal(t, 100, rep.TotalShipped)
	assert.Equal(t, 80, rep.TotalSold)
	assert.Equal(t, 5, rep.TotalReturned)
	assert.Equal(t, 15, rep.RemainingStock)
	assert.Equal(t, int64(800000), rep.TotalReceived)
}

func TestGetStats_TotalReceivedNotMultipliedByLineCount(t *testing.T) {
	fx := newStatsFixture(t)
	product2 := model.Product{Name: "Keripik Pisang", Price: 12000, IsActive: true}
	require.NoError(t, fx.db.Create(&product2).Error)

	// One billing with two lines: received must count once, not twice.
	b := model.Billing{
		StoreID:       fx.store.ID,
		PaymentMethod: model.PaymentCash,
		TotalReceived: 250000,
		Lines: []model.BillingLine{
			{ProductID: fx.product.ID, QtySold: 10},
			{ProductID: product2.ID, QtySold: 15},
		},
	}
	require.NoError(t, fx.db.Create(&b).Error)

	svc := fx.statsService(aggDown())
	result, err := svc.GetStats(context.Background(), "stores", statsFilter("id", "stores.id"))
	require.NoError(t, err)

	data := result.Data.([]StoreStats)
	byID := map[uint]StoreStats{}
	for _, row := range data {
		byID[row.StoreID] = row
	}
	assert.Equal(t, int64(250000), byID[fx.store.ID].TotalReceived)
	assert.Equal(t, 25, byID[fx.store.ID].TotalSold)
}

func TestGetStats_ProductStats(t *testing.T) {
	fx := newStatsFixture(t)
	fx.ship(t, fx.store.ID, "2025-03-01", 100)
	fx.bill(t, fx.store.ID, "2025-03-05", model.PaymentCash, 70, 10, 700000)

	svc := fx.statsService(aggDown())
	result, err := svc.GetStats(context.Background(), "products", statsFilter("id", "products.id"))
	require.NoError(t, err)

	data := result.Data.([]ProductStats)
	require.Len(t, data, 1)
	assert.Equal(t, "Keripik Singkong", data[0].Name)
	assert.Equal(t, int64(10000), data[0].Price)
	assert.Equal(t, 100, data[0].TotalShipped)
	assert.Equal(t, 20, data[0].RemainingStock)
}

func TestGetStats_PaginationReflectsFilteredTotal(t *testing.T) {
	fx := newStatsFixture(t)
	// Three more stores on top of the fixture's two.
	for _, name := range []string{"Toko A", "Toko B", "Toko C"} {
		st := model.Store{Name: name, SalesRepID: fx.store.SalesRepID, IsActive: true}
		require.NoError(t, fx.db.Create(&st).Error)
	}

	svc := fx.statsService(aggDown())
	f := statsFilter("id", "stores.id")
	f.PageSize = 2

	seen := map[uint]bool{}
	var total int64
	for page := 1; page <= 3; page++ {
		f.Page = page
		result, err := svc.GetStats(context.Background(), "stores", f)
		require.NoError(t, err)

		assert.Equal(t, int64(5), result.Pagination.Total)
		assert.Equal(t, 3, result.Pagination.TotalPages)
		total = result.Pagination.Total

		for _, row := range result.Data.([]StoreStats) {
			assert.False(t, seen[row.StoreID], "store %d returned twice", row.StoreID)
			seen[row.StoreID] = true
		}
	}
	assert.EqualValues(t, total, len(seen))
}

func TestGetStats_TiersProduceIdenticalShape(t *testing.T) {
	fx := newStatsFixture(t)
	fx.ship(t, fx.store.ID, "2025-03-01", 100)
	fx.bill(t, fx.store.ID, "2025-03-05", model.PaymentCash, 60, 20, 600000)

	f := statsFilter("id", "stores.id")
	fallback, err := fx.statsService(aggDown()).GetStats(context.Background(), "stores", f)
	require.NoError(t, err)

	// Tier 1 hands back the same facts in precomputed-row shape.
	fallbackData := fallback.Data.([]StoreStats)
	canned := stubAgg{fn: func(name string, dest interface{}, _ []interface{}) error {
		require.Equal(t, "get_store_stats", name)
		rows := dest.(*[]storeStatsRow)
		for _, row := range fallbackData {
			// The function returns raw sums; derived fields are recomputed.
			row.RemainingStock = 0
			row.HasDataInconsistency = false
			*rows = append(*rows, storeStatsRow{StoreStats: row, TotalCount: fallback.Pagination.Total})
		}
		return nil
	}}
	precomputed, err := fx.statsService(canned).GetStats(context.Background(), "stores", f)
	require.NoError(t, err)

	assert.Equal(t, fallback.Data, precomputed.Data)
	assert.Equal(t, fallback.Pagination, precomputed.Pagination)
	assert.Equal(t, fallback.Filters, precomputed.Filters)
	assert.Equal(t, fallback.Sorting, precomputed.Sorting)
}

func TestGetStats_PrecomputedReceivesEveryAcceptedFilter(t *testing.T) {
	fx := newStatsFixture(t)
	storeID, repID, productID := uint(3), uint(7), uint(11)
	window, ok := fx.ranger.Shortcut("current_month")
	require.True(t, ok)

	var captured []interface{}
	capture := stubAgg{fn: func(_ string, _ interface{}, args []interface{}) error {
		captured = args
		return nil
	}}
	svc := fx.statsService(capture)

	f := statsFilter("id", "stores.id")
	f.Window = &window
	f.StoreID = &storeID
	f.SalesRepID = &repID
	f.ProductID = &productID
	f.Kabupaten = "Sleman"
	f.Kecamatan = "Depok"
	f.Search = "berkah"

	// Every filter the reader honors must reach the function, so both
	// tiers apply the same filter set.
	_, err := svc.GetStats(context.Background(), "stores", f)
	require.NoError(t, err)
	assert.Equal(t, []interface{}{
		window.From, window.To, storeID, repID, "Sleman", "Depok", "berkah", f.PageSize, 0,
	}, captured)

	_, err = svc.GetStats(context.Background(), "sales_reps", f)
	require.NoError(t, err)
	assert.Equal(t, []interface{}{
		window.From, window.To, repID, "berkah", f.PageSize, 0,
	}, captured)

	_, err = svc.GetStats(context.Background(), "products", f)
	require.NoError(t, err)
	assert.Equal(t, []interface{}{
		window.From, window.To, productID, "berkah", f.PageSize, 0,
	}, captured)
}

func TestGetStats_KecamatanFiltersBothTiers(t *testing.T) {
	fx := newStatsFixture(t)
	// Fixture stores sit in Sleman and Bantul.
	f := statsFilter("id", "stores.id")
	f.Kecamatan = "Depok"
	depok := model.Store{Name: "Toko Depok", Kecamatan: "Depok", SalesRepID: fx.store.SalesRepID, IsActive: true}
	require.NoError(t, fx.db.Create(&depok).Error)

	fallback, err := fx.statsService(aggDown()).GetStats(context.Background(), "stores", f)
	require.NoError(t, err)
	assert.EqualValues(t, 1, fallback.Pagination.Total)

	var kecamatanArg interface{}
	capture := stubAgg{fn: func(_ string, _ interface{}, args []interface{}) error {
		kecamatanArg = args[5]
		return nil
	}}
	_, err = fx.statsService(capture).GetStats(context.Background(), "stores", f)
	require.NoError(t, err)
	assert.Equal(t, "Depok", kecamatanArg)
}

func TestGetStats_RealDatabaseErrorSurfaces(t *testing.T) {
	fx := newStatsFixture(t)
	broken := stubAgg{fn: func(string, interface{}, []interface{}) error {
		return gorm.ErrInvalidTransaction
	}}

	_, err := fx.statsService(broken).GetStats(context.Background(), "stores", statsFilter("id", "stores.id"))
	assert.ErrorIs(t, err, gorm.ErrInvalidTransaction)
}
