package service

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"go-distribusi-ops/internal/cache"
	"go-distribusi-ops/internal/model"
	"go-distribusi-ops/internal/repository"
	"go-distribusi-ops/pkg/datetz"

	"golang.org/x/sync/errgroup"
)

// StockPosition is derived on every read, never persisted. Remaining may be
// negative: that is a data anomaly surfaced to the caller, not clamped here.
type StockPosition struct {
	ProductID            uint   `json:"product_id"`
	ProductName          string `json:"product_name"`
	Shipped              int    `json:"shipped"`
	Sold                 int    `json:"sold"`
	Returned             int    `json:"returned"`
	Remaining            int    `json:"remaining"`
	HasDataInconsistency bool   `json:"has_data_inconsistency"`
}

type CashFlowDay struct {
	Date       string `json:"date"`
	CashIn     int64  `json:"cash_in"`
	TransferIn int64  `json:"transfer_in"`
	Deposited  int64  `json:"deposited"`
	Net        int64  `json:"net"`
}

type CashFlowSummary struct {
	TotalCashIn     int64         `json:"total_cash_in"`
	TotalTransferIn int64         `json:"total_transfer_in"`
	TotalDeposited  int64         `json:"total_deposited"`
	NetCashFlow     int64         `json:"net_cash_flow"`
	PerDay          []CashFlowDay `json:"per_day"`
}

type ReconService interface {
	ComputeStock(ctx context.Context, scope repository.Scope, window *datetz.Range) ([]StockPosition, error)
	ComputeCashFlow(ctx context.Context, window datetz.Range) (*CashFlowSummary, error)
}

const reconCachePrefix = "recon:"

type reconService struct {
	shipmentRepo repository.ShipmentRepository
	billingRepo  repository.BillingRepository
	depositRepo  repository.DepositRepository
	productRepo  repository.ProductRepository
	agg          repository.AggregateProvider
	cache        cache.Cache
	ranger       *datetz.Ranger
	cacheTTL     time.Duration
}

func NewReconService(
	shipmentRepo repository.ShipmentRepository,
	billingRepo repository.BillingRepository,
	depositRepo repository.DepositRepository,
	productRepo repository.ProductRepository,
	agg repository.AggregateProvider,
	c cache.Cache,
	ranger *datetz.Ranger,
) ReconService {
	return &reconService{
		shipmentRepo: shipmentRepo,
		billingRepo:  billingRepo,
		depositRepo:  depositRepo,
		productRepo:  productRepo,
		agg:          agg,
		cache:        c,
		ranger:       ranger,
		cacheTTL:     30 * time.Second,
	}
}

// ComputeStock derives remaining = shipped - sold - returned per product in
// scope. The two event streams are fetched concurrently and reduced
// sequentially; the call is read-only and idempotent, so repeated calls on
// a stable dataset return identical figures.
func (s *reconService) ComputeStock(ctx context.Context, scope repository.Scope, window *datetz.Range) ([]StockPosition, error) {
	key := stockCacheKey(scope, window)
	var cached []StockPosition
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		return cached, nil
	}

	var (
		shipped []repository.ProductQty
		sales   []repository.ProductSales
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		shipped, err = s.shipmentRepo.ShippedByProduct(gctx, scope, window)
		return err
	})
	g.Go(func() error {
		var err error
		sales, err = s.billingRepo.SoldByProduct(gctx, scope, window)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("stock aggregation: %w", err)
	}

	positions := make(map[uint]*StockPosition)
	ensure := func(productID uint) *StockPosition {
		p, ok := positions[productID]
		if !ok {
			p = &StockPosition{ProductID: productID}
			positions[productID] = p
		}
		return p
	}
	for _, row := range shipped {
		ensure(row.ProductID).Shipped += row.Quantity
	}
	for _, row := range sales {
		p := ensure(row.ProductID)
		p.Sold += row.QtySold
		p.Returned += row.QtyReturned
	}

	ids := make([]uint, 0, len(positions))
	for id := range positions {
		ids = append(ids, id)
	}
	names, err := s.productRepo.NamesByID(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve product names: %w", err)
	}

	result := make([]StockPosition, 0, len(positions))
	for _, p := range positions {
		p.Remaining = p.Shipped - p.Sold - p.Returned
		// Billing rows without a matching shipment, or oversold products,
		// violate the conservation invariant: flag, do not hide.
		if p.Remaining < 0 || (p.Shipped == 0 && (p.Sold > 0 || p.Returned > 0)) {
			p.HasDataInconsistency = true
		}
		p.ProductName = names[p.ProductID]
		result = append(result, *p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ProductID < result[j].ProductID })

	if err := s.cache.Set(ctx, key, result, s.cacheTTL); err != nil {
		log.Printf("recon: WARN cache set %s: %v", key, err)
	}
	return result, nil
}

// cashflowFnRow matches the row shape of the get_cashflow_summary function.
type cashflowFnRow struct {
	Day        time.Time `gorm:"column:day"`
	CashIn     int64     `gorm:"column:cash_in"`
	TransferIn int64     `gorm:"column:transfer_in"`
	Deposited  int64     `gorm:"column:deposited"`
}

// ComputeCashFlow groups billings and deposits by local calendar day.
// The precomputed function is preferred; the direct path is a performance
// fallback, not a different policy, and produces identical figures.
func (s *reconService) ComputeCashFlow(ctx context.Context, window datetz.Range) (*CashFlowSummary, error) {
	key := cashflowCacheKey(window)
	var cached CashFlowSummary
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		return &cached, nil
	}

	summary, err := s.cashFlowPrecomputed(ctx, window)
	if err != nil {
		if !repository.IsAggregateUnavailable(err) {
			return nil, err
		}
		summary, err = s.cashFlowDirect(ctx, window)
		if err != nil {
			return nil, err
		}
	}

	if err := s.cache.Set(ctx, key, summary, s.cacheTTL); err != nil {
		log.Printf("recon: WARN cache set %s: %v", key, err)
	}
	return summary, nil
}

func (s *reconService) cashFlowPrecomputed(ctx context.Context, window datetz.Range) (*CashFlowSummary, error) {
	var rows []cashflowFnRow
	if err := s.agg.Query(ctx, "get_cashflow_summary", &rows, window.From, window.To); err != nil {
		return nil, err
	}

	days := make(map[string]*CashFlowDay, len(rows))
	for _, row := range rows {
		key := s.ranger.DayKey(row.Day)
		d, ok := days[key]
		if !ok {
			d = &CashFlowDay{Date: key}
			days[key] = d
		}
		d.CashIn += row.CashIn
		d.TransferIn += row.TransferIn
		d.Deposited += row.Deposited
	}
	return buildCashFlowSummary(days), nil
}

func (s *reconService) cashFlowDirect(ctx context.Context, window datetz.Range) (*CashFlowSummary, error) {
	var (
		billings []repository.CashRow
		deposits []model.Deposit
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		billings, err = s.billingRepo.CashRows(gctx, window)
		return err
	})
	g.Go(func() error {
		var err error
		deposits, err = s.depositRepo.InWindow(gctx, window)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("cashflow aggregation: %w", err)
	}

	days := make(map[string]*CashFlowDay)
	ensure := func(key string) *CashFlowDay {
		d, ok := days[key]
		if !ok {
			d = &CashFlowDay{Date: key}
			days[key] = d
		}
		return d
	}
	for _, row := range billings {
		d := ensure(s.ranger.DayKey(row.CreatedAt))
		switch model.PaymentMethod(row.PaymentMethod) {
		case model.PaymentCash:
			d.CashIn += row.TotalReceived
		case model.PaymentTransfer:
			d.TransferIn += row.TotalReceived
		}
	}
	for _, dep := range deposits {
		ensure(s.ranger.DayKey(dep.DepositDate)).Deposited += dep.Amount
	}
	return buildCashFlowSummary(days), nil
}

// buildCashFlowSummary shapes the per-day buckets identically for both
// execution tiers.
func buildCashFlowSummary(days map[string]*CashFlowDay) *CashFlowSummary {
	summary := &CashFlowSummary{PerDay: make([]CashFlowDay, 0, len(days))}
	for _, d := range days {
		d.Net = d.CashIn + d.TransferIn - d.Deposited
		summary.TotalCashIn += d.CashIn
		summary.TotalTransferIn += d.TransferIn
		summary.TotalDeposited += d.Deposited
		summary.PerDay = append(summary.PerDay, *d)
	}
	summary.NetCashFlow = summary.TotalCashIn + summary.TotalTransferIn - summary.TotalDeposited
	sort.Slice(summary.PerDay, func(i, j int) bool { return summary.PerDay[i].Date < summary.PerDay[j].Date })
	return summary
}

func stockCacheKey(scope repository.Scope, window *datetz.Range) string {
	return fmt.Sprintf("%sstock:%s:%s", reconCachePrefix, fmtScope(scope), fmtWindow(window))
}

func cashflowCacheKey(window datetz.Range) string {
	return fmt.Sprintf("%scashflow:%s", reconCachePrefix, fmtWindow(&window))
}

func fmtScope(scope repository.Scope) string {
	deref := func(p *uint) uint {
		if p == nil {
			return 0
		}
		return *p
	}
	return fmt.Sprintf("p%d:s%d:r%d", deref(scope.ProductID), deref(scope.StoreID), deref(scope.SalesRepID))
}

func fmtWindow(window *datetz.Range) string {
	if window == nil {
		return "all"
	}
	return fmt.Sprintf("%d-%d", window.From.Unix(), window.To.Unix())
}
