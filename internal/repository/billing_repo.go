package repository

import (
	"context"
	"strconv"
	"time"

	"go-distribusi-ops/internal/model"
	"go-distribusi-ops/internal/query"
	"go-distribusi-ops/pkg/datetz"

	"gorm.io/gorm"
)

// CashRow is the raw material of the cash-flow direct aggregation: one
// billing reduced to its creation instant, method and amount.
type CashRow struct {
	CreatedAt     time.Time `gorm:"column:created_at"`
	PaymentMethod string    `gorm:"column:payment_method"`
	TotalReceived int64     `gorm:"column:total_received"`
}

type BillingRepository interface {
	Create(ctx context.Context, billing *model.Billing) error
	Update(ctx context.Context, id uint, in *model.Billing) (*model.Billing, error)
	Delete(ctx context.Context, id uint) error
	FindByID(ctx context.Context, id uint) (*model.Billing, error)
	List(ctx context.Context, f query.Filter) ([]model.Billing, int64, error)

	SoldByProduct(ctx context.Context, scope Scope, window *datetz.Range) ([]ProductSales, error)
	SoldByStore(ctx context.Context, storeIDs []uint, window *datetz.Range) ([]StoreSales, error)
	SoldBySalesRep(ctx context.Context, repIDs []uint, window *datetz.Range) ([]RepSales, error)
	CashRows(ctx context.Context, window datetz.Range) ([]CashRow, error)
	PaymentMethodOptions(ctx context.Context) ([]ValueCount, error)
}

type billingRepo struct {
	db *gorm.DB
}

func NewBillingRepo(db *gorm.DB) BillingRepository {
	return &billingRepo{db}
}

// Create inserts the billing, its lines and the optional deduction in one
// transaction through the association writer.
func (r *billingRepo) Create(ctx context.Context, billing *model.Billing) error {
	return r.db.WithContext(ctx).Create(billing).Error
}

// Update replaces lines and deduction wholesale (delete-then-reinsert).
func (r *billingRepo) Update(ctx context.Context, id uint, in *model.Billing) (*model.Billing, error) {
	var updated *model.Billing
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing model.Billing
		if err := tx.First(&existing, "id = ?", id).Error; err != nil {
			return err
		}

		if err := tx.Where("billing_id = ?", id).Delete(&model.BillingLine{}).Error; err != nil {
			return err
		}
		if err := tx.Where("billing_id = ?", id).Delete(&model.Deduction{}).Error; err != nil {
			return err
		}

		existing.StoreID = in.StoreID
		existing.PaymentMethod = in.PaymentMethod
		existing.TotalReceived = in.TotalReceived
		existing.HasDeduction = in.HasDeduction
		if err := tx.Model(&existing).Updates(map[string]interface{}{
			"store_id":       existing.StoreID,
			"payment_method": existing.PaymentMethod,
			"total_received": existing.TotalReceived,
			"has_deduction":  existing.HasDeduction,
		}).Error; err != nil {
			return err
		}

		lines := make([]model.BillingLine, len(in.Lines))
		for i, line := range in.Lines {
			lines[i] = model.BillingLine{
				BillingID:   id,
				ProductID:   line.ProductID,
				QtySold:     line.QtySold,
				QtyReturned: line.QtyReturned,
			}
		}
		if err := tx.Create(&lines).Error; err != nil {
			return err
		}
		existing.Lines = lines

		if in.Deduction != nil {
			ded := model.Deduction{
				BillingID: id,
				Amount:    in.Deduction.Amount,
				Reason:    in.Deduction.Reason,
			}
			if err := tx.Create(&ded).Error; err != nil {
				return err
			}
			existing.Deduction = &ded
		}

		updated = &existing
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *billingRepo) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&model.Billing{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		if err := tx.Where("billing_id = ?", id).Delete(&model.BillingLine{}).Error; err != nil {
			return err
		}
		return tx.Where("billing_id = ?", id).Delete(&model.Deduction{}).Error
	})
}

func (r *billingRepo) FindByID(ctx context.Context, id uint) (*model.Billing, error) {
	var billing model.Billing
	err := r.db.WithContext(ctx).
		Preload("Store").Preload("Store.SalesRep").
		Preload("Lines.Product").Preload("Deduction").
		First(&billing, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &billing, nil
}

func (r *billingRepo) List(ctx context.Context, f query.Filter) ([]model.Billing, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Billing{}).
		Joins("JOIN stores ON stores.id = billings.store_id")

	if f.StoreID != nil {
		q = q.Where("billings.store_id = ?", *f.StoreID)
	}
	if f.SalesRepID != nil {
		q = q.Where("stores.sales_rep_id = ?", *f.SalesRepID)
	}
	if f.PaymentMethod != "" {
		q = q.Where("billings.payment_method = ?", f.PaymentMethod)
	}
	if f.ProductID != nil {
		q = q.Where("EXISTS (SELECT 1 FROM billing_lines bl WHERE bl.billing_id = billings.id AND bl.product_id = ?)", *f.ProductID)
	}
	if f.Window != nil {
		if !f.Window.From.IsZero() {
			q = q.Where("billings.created_at >= ?", f.Window.From)
		}
		if !f.Window.To.IsZero() {
			q = q.Where("billings.created_at < ?", f.Window.To)
		}
	}
	if f.Search != "" {
		like := "%" + lowered(f.Search) + "%"
		if id, err := strconv.ParseUint(f.Search, 10, 32); err == nil {
			q = q.Where("billings.id = ? OR LOWER(stores.name) LIKE ?", id, like)
			q = q.Order(exactIDFirst("billings", id))
		} else {
			q = q.Where("LOWER(stores.name) LIKE ?", like)
		}
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var billings []model.Billing
	err := q.Preload("Store").Preload("Lines.Product").Preload("Deduction").
		Order(f.OrderClause()).
		Offset(f.Offset()).Limit(f.PageSize).
		Find(&billings).Error
	return billings, total, err
}

func (r *billingRepo) lineQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Table("billing_lines").
		Joins("JOIN billings ON billings.id = billing_lines.billing_id AND billings.deleted_at IS NULL")
}

func applyBillingWindow(q *gorm.DB, window *datetz.Range) *gorm.DB {
	if window == nil {
		return q
	}
	if !window.From.IsZero() {
		q = q.Where("billings.created_at >= ?", window.From)
	}
	if !window.To.IsZero() {
		q = q.Where("billings.created_at < ?", window.To)
	}
	return q
}

func (r *billingRepo) SoldByProduct(ctx context.Context, scope Scope, window *datetz.Range) ([]ProductSales, error) {
	q := r.lineQuery(ctx).
		Select("billing_lines.product_id AS product_id, COALESCE(SUM(billing_lines.qty_sold), 0) AS qty_sold, COALESCE(SUM(billing_lines.qty_returned), 0) AS qty_returned")

	if scope.ProductID != nil {
		q = q.Where("billing_lines.product_id = ?", *scope.ProductID)
	}
	if scope.StoreID != nil {
		q = q.Where("billings.store_id = ?", *scope.StoreID)
	}
	if scope.SalesRepID != nil {
		q = q.Joins("JOIN stores ON stores.id = billings.store_id").
			Where("stores.sales_rep_id = ?", *scope.SalesRepID)
	}
	q = applyBillingWindow(q, window)

	var rows []ProductSales
	err := q.Group("billing_lines.product_id").Scan(&rows).Error
	return rows, err
}

func (r *billingRepo) SoldByStore(ctx context.Context, storeIDs []uint, window *datetz.Range) ([]StoreSales, error) {
	if len(storeIDs) == 0 {
		return nil, nil
	}
	q := r.lineQuery(ctx).
		Select("billings.store_id AS store_id, COALESCE(SUM(billing_lines.qty_sold), 0) AS qty_sold, COALESCE(SUM(billing_lines.qty_returned), 0) AS qty_returned, 0 AS received").
		Where("billings.store_id IN ?", storeIDs)
	q = applyBillingWindow(q, window)

	var rows []StoreSales
	if err := q.Group("billings.store_id").Scan(&rows).Error; err != nil {
		return nil, err
	}

	// Received is summed per billing header, not per line, to avoid
	// multiplying the amount by the line count.
	hq := r.db.WithContext(ctx).Model(&model.Billing{}).
		Select("billings.store_id AS store_id, COALESCE(SUM(billings.total_received), 0) AS received").
		Where("billings.store_id IN ?", storeIDs)
	hq = applyBillingWindow(hq, window)

	var headers []StoreSales
	if err := hq.Group("billings.store_id").Scan(&headers).Error; err != nil {
		return nil, err
	}
	received := make(map[uint]int64, len(headers))
	for _, h := range headers {
		received[h.StoreID] = h.Received
	}
	for i := range rows {
		rows[i].Received = received[rows[i].StoreID]
	}
	return rows, nil
}

func (r *billingRepo) SoldBySalesRep(ctx context.Context, repIDs []uint, window *datetz.Range) ([]RepSales, error) {
	if len(repIDs) == 0 {
		return nil, nil
	}
	q := r.lineQuery(ctx).
		Joins("JOIN stores ON stores.id = billings.store_id").
		Select("stores.sales_rep_id AS sales_rep_id, COALESCE(SUM(billing_lines.qty_sold), 0) AS qty_sold, COALESCE(SUM(billing_lines.qty_returned), 0) AS qty_returned, 0 AS received").
		Where("stores.sales_rep_id IN ?", repIDs)
	q = applyBillingWindow(q, window)

	var rows []RepSales
	if err := q.Group("stores.sales_rep_id").Scan(&rows).Error; err != nil {
		return nil, err
	}

	hq := r.db.WithContext(ctx).Model(&model.Billing{}).
		Joins("JOIN stores ON stores.id = billings.store_id").
		Select("stores.sales_rep_id AS sales_rep_id, COALESCE(SUM(billings.total_received), 0) AS received").
		Where("stores.sales_rep_id IN ?", repIDs)
	hq = applyBillingWindow(hq, window)

	var headers []RepSales
	if err := hq.Group("stores.sales_rep_id").Scan(&headers).Error; err != nil {
		return nil, err
	}
	received := make(map[uint]int64, len(headers))
	for _, h := range headers {
		received[h.SalesRepID] = h.Received
	}
	for i := range rows {
		rows[i].Received = received[rows[i].SalesRepID]
	}
	return rows, nil
}

// CashRows fetches every billing in the window reduced to the three columns
// the cash-flow aggregation needs. Grouping happens in Go, in the fixed
// zone, so day boundaries match the rest of the system.
func (r *billingRepo) CashRows(ctx context.Context, window datetz.Range) ([]CashRow, error) {
	q := r.db.WithContext(ctx).Model(&model.Billing{}).
		Select("billings.created_at, billings.payment_method, billings.total_received")
	q = applyBillingWindow(q, &window)

	var rows []CashRow
	err := q.Order("billings.created_at ASC").Scan(&rows).Error
	return rows, err
}

func (r *billingRepo) PaymentMethodOptions(ctx context.Context) ([]ValueCount, error) {
	var rows []ValueCount
	err := r.db.WithContext(ctx).Model(&model.Billing{}).
		Select("payment_method AS value, COUNT(*) AS count").
		Group("payment_method").
		Order("value ASC").
		Scan(&rows).Error
	return rows, err
}
