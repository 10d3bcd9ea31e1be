package service

import (
	"context"
	"fmt"

	"go-distribusi-ops/internal/query"
	"go-distribusi-ops/internal/repository"
	"go-distribusi-ops/pkg/datetz"

	"golang.org/x/sync/errgroup"
)

// Pagination always reflects the filtered set before the page window was
// applied, so total_pages is stable across pages.
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

// StatsResult is the single canonical shape for every stats entity and
// both execution tiers. All fields are always present.
type StatsResult struct {
	Data       interface{}            `json:"data"`
	Pagination Pagination             `json:"pagination"`
	Filters    map[string]interface{} `json:"filters"`
	Sorting    map[string]string      `json:"sorting"`
}

type StoreStats struct {
	StoreID              uint   `json:"store_id" gorm:"column:store_id"`
	StoreName            string `json:"store_name" gorm:"column:store_name"`
	Kabupaten            string `json:"kabupaten" gorm:"column:kabupaten"`
	Kecamatan            string `json:"kecamatan" gorm:"column:kecamatan"`
	SalesRepName         string `json:"sales_rep_name" gorm:"column:sales_rep_name"`
	TotalShipped         int    `json:"total_shipped" gorm:"column:total_shipped"`
	TotalSold            int    `json:"total_sold" gorm:"column:total_sold"`
	TotalReturned        int    `json:"total_returned" gorm:"column:total_returned"`
	RemainingStock       int    `json:"remaining_stock" gorm:"-"`
	TotalReceived        int64  `json:"total_received" gorm:"column:total_received"`
	HasDataInconsistency bool   `json:"has_data_inconsistency" gorm:"-"`
}

type SalesRepStats struct {
	SalesRepID           uint   `json:"sales_rep_id" gorm:"column:sales_rep_id"`
	Name                 string `json:"name" gorm:"column:name"`
	TotalShipped         int    `json:"total_shipped" gorm:"column:total_shipped"`
	TotalSold            int    `json:"total_sold" gorm:"column:total_sold"`
	TotalReturned        int    `json:"total_returned" gorm:"column:total_returned"`
	RemainingStock       int    `json:"remaining_stock" gorm:"-"`
	TotalReceived        int64  `json:"total_received" gorm:"column:total_received"`
	HasDataInconsistency bool   `json:"has_data_inconsistency" gorm:"-"`
}

type ProductStats struct {
	ProductID            uint   `json:"product_id" gorm:"column:product_id"`
	Name                 string `json:"name" gorm:"column:name"`
	Price                int64  `json:"price" gorm:"column:price"`
	TotalShipped         int    `json:"total_shipped" gorm:"column:total_shipped"`
	TotalSold            int    `json:"total_sold" gorm:"column:total_sold"`
	TotalReturned        int    `json:"total_returned" gorm:"column:total_returned"`
	RemainingStock       int    `json:"remaining_stock" gorm:"-"`
	HasDataInconsistency bool   `json:"has_data_inconsistency" gorm:"-"`
}

type StatsService interface {
	GetStats(ctx context.Context, entity string, f query.Filter) (*StatsResult, error)
}

type statsService struct {
	storeRepo    repository.StoreRepository
	salesRepRepo repository.SalesRepRepository
	productRepo  repository.ProductRepository
	shipmentRepo repository.ShipmentRepository
	billingRepo  repository.BillingRepository
	agg          repository.AggregateProvider
}

func NewStatsService(
	storeRepo repository.StoreRepository,
	salesRepRepo repository.SalesRepRepository,
	productRepo repository.ProductRepository,
	shipmentRepo repository.ShipmentRepository,
	billingRepo repository.BillingRepository,
	agg repository.AggregateProvider,
) StatsService {
	return &statsService{
		storeRepo:    storeRepo,
		salesRepRepo: salesRepRepo,
		productRepo:  productRepo,
		shipmentRepo: shipmentRepo,
		billingRepo:  billingRepo,
		agg:          agg,
	}
}

// GetStats serves dashboard KPI lists. Tier 1 calls the matching
// precomputed function; when it reports unavailable the same statistic is
// computed from raw ledger reader output with identical grouping and
// arithmetic. Callers cannot tell which tier answered.
func (s *statsService) GetStats(ctx context.Context, entity string, f query.Filter) (*StatsResult, error) {
	switch entity {
	case "stores":
		return s.storeStats(ctx, f)
	case "sales_reps":
		return s.salesRepStats(ctx, f)
	case "products":
		return s.productStats(ctx, f)
	}
	return nil, &query.ValidationError{Field: "entity", Reason: fmt.Sprintf("unknown stats entity %q", entity)}
}

// ---- stores ----

type storeStatsRow struct {
	StoreStats
	TotalCount int64 `gorm:"column:total_count"`
}

func (s *statsService) storeStats(ctx context.Context, f query.Filter) (*StatsResult, error) {
	var rows []storeStatsRow
	from, to := windowArgs(f.Window)
	err := s.agg.Query(ctx, "get_store_stats", &rows,
		from, to, idArg(f.StoreID), idArg(f.SalesRepID), f.Kabupaten, f.Kecamatan, f.Search, f.PageSize, f.Offset())
	if err == nil {
		data := make([]StoreStats, len(rows))
		var total int64
		for i, row := range rows {
			data[i] = finishStoreStats(row.StoreStats)
			total = row.TotalCount
		}
		return shapeResult(data, f, total), nil
	}
	if !repository.IsAggregateUnavailable(err) {
		return nil, err
	}

	// Tier 2: page of stores, then batch aggregates over that page's ids.
	stores, total, err := s.storeRepo.List(ctx, f)
	if err != nil {
		return nil, err
	}
	ids := make([]uint, len(stores))
	for i, st := range stores {
		ids[i] = st.ID
	}

	var (
		shipped []repository.StoreQty
		sales   []repository.StoreSales
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		shipped, err = s.shipmentRepo.ShippedByStore(gctx, ids, f.Window)
		return err
	})
	g.Go(func() error {
		var err error
		sales, err = s.billingRepo.SoldByStore(gctx, ids, f.Window)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("store stats aggregation: %w", err)
	}

	shippedBy := make(map[uint]int, len(shipped))
	for _, row := range shipped {
		shippedBy[row.StoreID] = row.Quantity
	}
	salesBy := make(map[uint]repository.StoreSales, len(sales))
	for _, row := range sales {
		salesBy[row.StoreID] = row
	}

	data := make([]StoreStats, len(stores))
	for i, st := range stores {
		row := StoreStats{
			StoreID:       st.ID,
			StoreName:     st.Name,
			Kabupaten:     st.Kabupaten,
			Kecamatan:     st.Kecamatan,
			TotalShipped:  shippedBy[st.ID],
			TotalSold:     salesBy[st.ID].QtySold,
			TotalReturned: salesBy[st.ID].QtyReturned,
			TotalReceived: salesBy[st.ID].Received,
		}
		if st.SalesRep != nil {
			row.SalesRepName = st.SalesRep.Name
		}
		data[i] = finishStoreStats(row)
	}
	return shapeResult(data, f, total), nil
}

// ---- sales reps ----

type salesRepStatsRow struct {
	SalesRepStats
	TotalCount int64 `gorm:"column:total_count"`
}

func (s *statsService) salesRepStats(ctx context.Context, f query.Filter) (*StatsResult, error) {
	var rows []salesRepStatsRow
	from, to := windowArgs(f.Window)
	err := s.agg.Query(ctx, "get_sales_rep_stats", &rows,
		from, to, idArg(f.SalesRepID), f.Search, f.PageSize, f.Offset())
	if err == nil {
		data := make([]SalesRepStats, len(rows))
		var total int64
		for i, row := range rows {
			data[i] = finishSalesRepStats(row.SalesRepStats)
			total = row.TotalCount
		}
		return shapeResult(data, f, total), nil
	}
	if !repository.IsAggregateUnavailable(err) {
		return nil, err
	}

	reps, total, err := s.salesRepRepo.List(ctx, f)
	if err != nil {
		return nil, err
	}
	ids := make([]uint, len(reps))
	for i, rep := range reps {
		ids[i] = rep.ID
	}

	var (
		shipped []repository.RepQty
		sales   []repository.RepSales
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		shipped, err = s.shipmentRepo.ShippedBySalesRep(gctx, ids, f.Window)
		return err
	})
	g.Go(func() error {
		var err error
		sales, err = s.billingRepo.SoldBySalesRep(gctx, ids, f.Window)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("sales rep stats aggregation: %w", err)
	}

	shippedBy := make(map[uint]int, len(shipped))
	for _, row := range shipped {
		shippedBy[row.SalesRepID] = row.Quantity
	}
	salesBy := make(map[uint]repository.RepSales, len(sales))
	for _, row := range sales {
		salesBy[row.SalesRepID] = row
	}

	data := make([]SalesRepStats, len(reps))
	for i, rep := range reps {
		data[i] = finishSalesRepStats(SalesRepStats{
			SalesRepID:    rep.ID,
			Name:          rep.Name,
			TotalShipped:  shippedBy[rep.ID],
			TotalSold:     salesBy[rep.ID].QtySold,
			TotalReturned: salesBy[rep.ID].QtyReturned,
			TotalReceived: salesBy[rep.ID].Received,
		})
	}
	return shapeResult(data, f, total), nil
}

// ---- products ----

type productStatsRow struct {
	ProductStats
	TotalCount int64 `gorm:"column:total_count"`
}

func (s *statsService) productStats(ctx context.Context, f query.Filter) (*StatsResult, error) {
	var rows []productStatsRow
	from, to := windowArgs(f.Window)
	err := s.agg.Query(ctx, "get_product_stats", &rows,
		from, to, idArg(f.ProductID), f.Search, f.PageSize, f.Offset())
	if err == nil {
		data := make([]ProductStats, len(rows))
		var total int64
		for i, row := range rows {
			data[i] = finishProductStats(row.ProductStats)
			total = row.TotalCount
		}
		return shapeResult(data, f, total), nil
	}
	if !repository.IsAggregateUnavailable(err) {
		return nil, err
	}

	products, total, err := s.productRepo.List(ctx, f)
	if err != nil {
		return nil, err
	}

	var (
		shipped []repository.ProductQty
		sales   []repository.ProductSales
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		shipped, err = s.shipmentRepo.ShippedByProduct(gctx, repository.Scope{}, f.Window)
		return err
	})
	g.Go(func() error {
		var err error
		sales, err = s.billingRepo.SoldByProduct(gctx, repository.Scope{}, f.Window)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("product stats aggregation: %w", err)
	}

	shippedBy := make(map[uint]int, len(shipped))
	for _, row := range shipped {
		shippedBy[row.ProductID] = row.Quantity
	}
	salesBy := make(map[uint]repository.ProductSales, len(sales))
	for _, row := range sales {
		salesBy[row.ProductID] = row
	}

	data := make([]ProductStats, len(products))
	for i, p := range products {
		data[i] = finishProductStats(ProductStats{
			ProductID:     p.ID,
			Name:          p.Name,
			Price:         p.Price,
			TotalShipped:  shippedBy[p.ID],
			TotalSold:     salesBy[p.ID].QtySold,
			TotalReturned: salesBy[p.ID].QtyReturned,
		})
	}
	return shapeResult(data, f, total), nil
}

// ---- shared shaping ----

// remainingForDisplay applies the dashboard policy: the three-term formula,
// clamped at zero for display with the anomaly still flagged.
func remainingForDisplay(shipped, sold, returned int) (int, bool) {
	remaining := shipped - sold - returned
	if remaining < 0 {
		return 0, true
	}
	return remaining, false
}

func finishStoreStats(row StoreStats) StoreStats {
	row.RemainingStock, row.HasDataInconsistency = remainingForDisplay(row.TotalShipped, row.TotalSold, row.TotalReturned)
	return row
}

func finishSalesRepStats(row SalesRepStats) SalesRepStats {
	row.RemainingStock, row.HasDataInconsistency = remainingForDisplay(row.TotalShipped, row.TotalSold, row.TotalReturned)
	return row
}

func finishProductStats(row ProductStats) ProductStats {
	row.RemainingStock, row.HasDataInconsistency = remainingForDisplay(row.TotalShipped, row.TotalSold, row.TotalReturned)
	return row
}

func shapeResult(data interface{}, f query.Filter, total int64) *StatsResult {
	totalPages := int((total + int64(f.PageSize) - 1) / int64(f.PageSize))
	filters := f.Applied()
	ignored := f.Ignored
	if ignored == nil {
		ignored = []query.IgnoredFilter{}
	}
	filters["ignored"] = ignored
	return &StatsResult{
		Data: data,
		Pagination: Pagination{
			Page:       f.Page,
			Limit:      f.PageSize,
			Total:      total,
			TotalPages: totalPages,
		},
		Filters: filters,
		Sorting: map[string]string{
			"field": f.SortField,
			"dir":   string(f.SortDir),
		},
	}
}

func windowArgs(window *datetz.Range) (interface{}, interface{}) {
	if window == nil {
		return nil, nil
	}
	var from, to interface{}
	if !window.From.IsZero() {
		from = window.From
	}
	if !window.To.IsZero() {
		to = window.To
	}
	return from, to
}

func idArg(id *uint) interface{} {
	if id == nil {
		return nil
	}
	return *id
}
