package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"go-distribusi-ops/internal/cache"
	"go-distribusi-ops/internal/model"
	"go-distribusi-ops/internal/repository"
	"go-distribusi-ops/pkg/datetz"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// One connection so every query sees the same in-memory database.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&model.Product{}, &model.SalesRep{}, &model.Store{},
		&model.Shipment{}, &model.ShipmentLine{},
		&model.Billing{}, &model.BillingLine{}, &model.Deduction{},
		&model.Deposit{},
	))
	return db
}

func testRanger(t *testing.T) *datetz.Ranger {
	loc, err := time.LoadLocation("Asia/Jakarta")
	require.NoError(t, err)
	now := time.Date(2025, 3, 12, 15, 0, 0, 0, loc)
	r, err := datetz.NewRangerAt("Asia/Jakarta", func() time.Time { return now })
	require.NoError(t, err)
	return r
}

// stubAgg lets each test decide how the precomputed tier behaves.
type stubAgg struct {
	fn func(name string, dest interface{}, args []interface{}) error
}

func (s stubAgg) Query(_ context.Context, name string, dest interface{}, args ...interface{}) error {
	return s.fn(name, dest, args)
}

// aggDown simulates a database that never got the aggregate functions.
func aggDown() repository.AggregateProvider {
	return stubAgg{fn: func(name string, _ interface{}, _ []interface{}) error {
		return fmt.Errorf("%s: %w", name, repository.ErrAggregateUnavailable)
	}}
}

// mapCache is an in-process Cache for asserting hit/invalidate behavior.
type mapCache struct {
	mu          sync.Mutex
	data        map[string][]byte
	sets        int
	invalidated []string
}

func newMapCache() *mapCache {
	return &mapCache{data: map[string][]byte{}}
}

func (c *mapCache) Get(_ context.Context, key string, dest interface{}) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (c *mapCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.data[key] = raw
	c.sets++
	return nil
}

func (c *mapCache) Invalidate(_ context.Context, prefix string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidated = append(c.invalidated, prefix)
	for key := range c.data {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			delete(c.data, key)
		}
	}
	return nil
}

type reconFixture struct {
	db      *gorm.DB
	ranger  *datetz.Ranger
	store   model.Store
	store2  model.Store
	product model.Product
}

func newReconFixture(t *testing.T) *reconFixture {
	db := newTestDB(t)
	ranger := testRanger(t)

	rep := model.SalesRep{Name: "Budi", IsActive: true}
	require.NoError(t, db.Create(&rep).Error)

	fx := &reconFixture{db: db, ranger: ranger}
	fx.store = model.Store{Name: "Toko Berkah", Kabupaten: "Sleman", SalesRepID: rep.ID, IsActive: true}
	require.NoError(t, db.Create(&fx.store).Error)
	fx.store2 = model.Store{Name: "Toko Maju", Kabupaten: "Bantul", SalesRepID: rep.ID, IsActive: true}
	require.NoError(t, db.Create(&fx.store2).Error)
	fx.product = model.Product{Name: "Keripik Singkong", Price: 10000, IsActive: true}
	require.NoError(t, db.Create(&fx.product).Error)
	return fx
}

func (fx *reconFixture) service(agg repository.AggregateProvider, c cache.Cache) ReconService {
	return NewReconService(
		repository.NewShipmentRepo(fx.db),
		repository.NewBillingRepo(fx.db),
		repository.NewDepositRepo(fx.db),
		repository.NewProductRepo(fx.db),
		agg, c, fx.ranger,
	)
}

func (fx *reconFixture) ship(t *testing.T, storeID uint, day string, qty int) {
	t.Helper()
	date, err := fx.ranger.ParseDate(day)
	require.NoError(t, err)
	sh := model.Shipment{
		StoreID:  storeID,
		ShipDate: date,
		Lines:    []model.ShipmentLine{{ProductID: fx.product.ID, Quantity: qty}},
	}
	require.NoError(t, fx.db.Create(&sh).Error)
}

func (fx *reconFixture) bill(t *testing.T, storeID uint, day string, method model.PaymentMethod, sold, returned int, received int64) {
	t.Helper()
	date, err := fx.ranger.ParseDate(day)
	require.NoError(t, err)
	b := model.Billing{
		StoreID:       storeID,
		PaymentMethod: method,
		TotalReceived: received,
		Lines:         []model.BillingLine{{ProductID: fx.product.ID, QtySold: sold, QtyReturned: returned}},
	}
	b.CreatedAt = date.Add(10 * time.Hour)
	require.NoError(t, fx.db.Create(&b).Error)
}

func (fx *reconFixture) deposit(t *testing.T, day string, amount int64) {
	t.Helper()
	date, err := fx.ranger.ParseDate(day)
	require.NoError(t, err)
	d := model.Deposit{Amount: amount, ReceiverName: "Pak Haji", DepositDate: date}
	require.NoError(t, fx.db.Create(&d).Error)
}

// =============================================================================
// STOCK RECONCILIATION
// =============================================================================

func TestComputeStock_ConservationHolds(t *testing.T) {
	fx := newReconFixture(t)
	fx.ship(t, fx.store.ID, "2025-03-01", 100)
	fx.bill(t, fx.store.ID, "2025-03-05", model.PaymentCash, 60, 20, 600000)

	svc := fx.service(aggDown(), cache.Noop{})
	positions, err := svc.ComputeStock(context.Background(), repository.Scope{}, nil)
	require.NoError(t, err)

	require.Len(t, positions, 1)
	p := positions[0]
	assert.Equal(t, fx.product.ID, p.ProductID)
	assert.Equal(t, "Keripik Singkong", p.ProductName)
	assert.Equal(t, 100, p.Shipped)
	assert.Equal(t, 60, p.Sold)
	assert.Equal(t, 20, p.Returned)
	assert.Equal(t, 20, p.Remaining)
	assert.Equal(t, p.Shipped, p.Sold+p.Returned+p.Remaining)
	assert.False(t, p.HasDataInconsistency)
}

func TestComputeStock_OversoldKeepsNegativeAndFlags(t *testing.T) {
	fx := newReconFixture(t)
	fx.ship(t, fx.store.ID, "2025-03-01", 10)
	fx.bill(t, fx.store.ID, "2025-03-05", model.PaymentCash, 15, 0, 150000)

	svc := fx.service(aggDown(), cache.Noop{})
	positions, err := svc.ComputeStock(context.Background(), repository.Scope{}, nil)
	require.NoError(t, err)

	require.Len(t, positions, 1)
	// Stock view keeps the raw negative; only dashboards clamp.
	assert.Equal(t, -5, positions[0].Remaining)
	assert.True(t, positions[0].HasDataInconsistency)
}

func TestComputeStock_BillingWithoutShipmentFlags(t *testing.T) {
	fx := newReconFixture(t)
	fx.bill(t, fx.store.ID, "2025-03-05", model.PaymentCash, 5, 5, 50000)

	svc := fx.service(aggDown(), cache.Noop{})
	positions, err := svc.ComputeStock(context.Background(), repository.Scope{}, nil)
	require.NoError(t, err)

	require.Len(t, positions, 1)
	assert.Equal(t, 0, positions[0].Shipped)
	assert.True(t, positions[0].HasDataInconsistency)
}

func TestComputeStock_ScopedToStore(t *testing.T) {
	fx := newReconFixture(t)
	fx.ship(t, fx.store.ID, "2025-03-01", 40)
	fx.ship(t, fx.store2.ID, "2025-03-01", 60)

	svc := fx.service(aggDown(), cache.Noop{})
	positions, err := svc.ComputeStock(context.Background(), repository.Scope{StoreID: &fx.store.ID}, nil)
	require.NoError(t, err)

	require.Len(t, positions, 1)
	assert.Equal(t, 40, positions[0].Shipped)
}

func TestComputeStock_WindowFiltersByShipDate(t *testing.T) {
	fx := newReconFixture(t)
	fx.ship(t, fx.store.ID, "2025-02-15", 30)
	fx.ship(t, fx.store.ID, "2025-03-10", 50)

	window, ok := fx.ranger.Shortcut("current_month")
	require.True(t, ok)

	svc := fx.service(aggDown(), cache.Noop{})
	positions, err := svc.ComputeStock(context.Background(), repository.Scope{}, &window)
	require.NoError(t, err)

	require.Len(t, positions, 1)
	assert.Equal(t, 50, positions[0].Shipped)
}

func TestComputeStock_ReadOnlyAndIdempotent(t *testing.T) {
	fx := newReconFixture(t)
	fx.ship(t, fx.store.ID, "2025-03-01", 100)
	fx.bill(t, fx.store.ID, "2025-03-05", model.PaymentCash, 30, 10, 300000)

	svc := fx.service(aggDown(), cache.Noop{})
	first, err := svc.ComputeStock(context.Background(), repository.Scope{}, nil)
	require.NoError(t, err)
	second, err := svc.ComputeStock(context.Background(), repository.Scope{}, nil)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestComputeStock_ServedFromCacheOnSecondCall(t *testing.T) {
	fx := newReconFixture(t)
	fx.ship(t, fx.store.ID, "2025-03-01", 100)

	c := newMapCache()
	svc := fx.service(aggDown(), c)

	first, err := svc.ComputeStock(context.Background(), repository.Scope{}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, c.sets)

	// New writes land behind the cached result until invalidation.
	fx.ship(t, fx.store.ID, "2025-03-02", 999)
	second, err := svc.ComputeStock(context.Background(), repository.Scope{}, nil)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, c.sets)
}

// =============================================================================
// CASH FLOW
// =============================================================================

func TestComputeCashFlow_DirectBucketsByLocalDay(t *testing.T) {
	fx := newReconFixture(t)
	fx.bill(t, fx.store.ID, "2025-03-01", model.PaymentCash, 10, 0, 100000)
	fx.bill(t, fx.store.ID, "2025-03-01", model.PaymentTransfer, 5, 0, 50000)
	fx.bill(t, fx.store.ID, "2025-03-02", model.PaymentCash, 3, 0, 30000)
	fx.deposit(t, "2025-03-01", 80000)

	window, ok := fx.ranger.Shortcut("current_month")
	require.True(t, ok)

	svc := fx.service(aggDown(), cache.Noop{})
	summary, err := svc.ComputeCashFlow(context.Background(), window)
	require.NoError(t, err)

	assert.Equal(t, int64(130000), summary.TotalCashIn)
	assert.Equal(t, int64(50000), summary.TotalTransferIn)
	assert.Equal(t, int64(80000), summary.TotalDeposited)
	assert.Equal(t, int64(100000), summary.NetCashFlow)

	require.Len(t, summary.PerDay, 2)
	day1 := summary.PerDay[0]
	assert.Equal(t, "2025-03-01", day1.Date)
	assert.Equal(t, int64(100000), day1.CashIn)
	assert.Equal(t, int64(50000), day1.TransferIn)
	assert.Equal(t, int64(80000), day1.Deposited)
	assert.Equal(t, int64(70000), day1.Net)

	day2 := summary.PerDay[1]
	assert.Equal(t, "2025-03-02", day2.Date)
	assert.Equal(t, int64(30000), day2.Net)
}

func TestComputeCashFlow_TiersProduceIdenticalSummaries(t *testing.T) {
	fx := newReconFixture(t)
	fx.bill(t, fx.store.ID, "2025-03-01", model.PaymentCash, 10, 0, 100000)
	fx.bill(t, fx.store.ID, "2025-03-02", model.PaymentTransfer, 5, 0, 50000)
	fx.deposit(t, "2025-03-02", 40000)

	window, ok := fx.ranger.Shortcut("current_month")
	require.True(t, ok)

	direct, err := fx.service(aggDown(), cache.Noop{}).ComputeCashFlow(context.Background(), window)
	require.NoError(t, err)

	// Precomputed tier fed the same facts in function-row shape.
	day1, _ := fx.ranger.ParseDate("2025-03-01")
	day2, _ := fx.ranger.ParseDate("2025-03-02")
	canned := stubAgg{fn: func(name string, dest interface{}, _ []interface{}) error {
		require.Equal(t, "get_cashflow_summary", name)
		rows := dest.(*[]cashflowFnRow)
		*rows = []cashflowFnRow{
			{Day: day1, CashIn: 100000},
			{Day: day2, TransferIn: 50000, Deposited: 40000},
		}
		return nil
	}}
	precomputed, err := fx.service(canned, cache.Noop{}).ComputeCashFlow(context.Background(), window)
	require.NoError(t, err)

	assert.Equal(t, direct, precomputed)
}

func TestComputeCashFlow_RealErrorNotMaskedAsFallback(t *testing.T) {
	fx := newReconFixture(t)

	broken := stubAgg{fn: func(string, interface{}, []interface{}) error {
		return fmt.Errorf("permission denied for function get_cashflow_summary")
	}}
	window, ok := fx.ranger.Shortcut("today")
	require.True(t, ok)

	_, err := fx.service(broken, cache.Noop{}).ComputeCashFlow(context.Background(), window)
	assert.Error(t, err)
}
