package repository

import (
	"context"
	"strconv"

	"go-distribusi-ops/internal/model"
	"go-distribusi-ops/internal/query"
	"go-distribusi-ops/pkg/datetz"

	"gorm.io/gorm"
)

type ShipmentRepository interface {
	Create(ctx context.Context, shipment *model.Shipment) error
	Update(ctx context.Context, id uint, in *model.Shipment) (*model.Shipment, error)
	Delete(ctx context.Context, id uint) error
	FindByID(ctx context.Context, id uint) (*model.Shipment, error)
	List(ctx context.Context, f query.Filter) ([]model.Shipment, int64, error)

	// Aggregate fetchers for the reconciliation and stats fallback paths.
	ShippedByProduct(ctx context.Context, scope Scope, window *datetz.Range) ([]ProductQty, error)
	ShippedByStore(ctx context.Context, storeIDs []uint, window *datetz.Range) ([]StoreQty, error)
	ShippedBySalesRep(ctx context.Context, repIDs []uint, window *datetz.Range) ([]RepQty, error)
}

type shipmentRepo struct {
	db *gorm.DB
}

func NewShipmentRepo(db *gorm.DB) ShipmentRepository {
	return &shipmentRepo{db}
}

// Create inserts the shipment and all its lines in one transaction.
func (r *shipmentRepo) Create(ctx context.Context, shipment *model.Shipment) error {
	return r.db.WithContext(ctx).Create(shipment).Error
}

// Update replaces the whole line set: delete-then-reinsert inside a single
// transaction, not an incremental patch.
func (r *shipmentRepo) Update(ctx context.Context, id uint, in *model.Shipment) (*model.Shipment, error) {
	var updated *model.Shipment
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing model.Shipment
		if err := tx.First(&existing, "id = ?", id).Error; err != nil {
			return err
		}

		if err := tx.Where("shipment_id = ?", id).Delete(&model.ShipmentLine{}).Error; err != nil {
			return err
		}

		existing.StoreID = in.StoreID
		existing.ShipDate = in.ShipDate
		if err := tx.Model(&existing).Updates(map[string]interface{}{
			"store_id":  existing.StoreID,
			"ship_date": existing.ShipDate,
		}).Error; err != nil {
			return err
		}

		lines := make([]model.ShipmentLine, len(in.Lines))
		for i, line := range in.Lines {
			lines[i] = model.ShipmentLine{
				ShipmentID: id,
				ProductID:  line.ProductID,
				Quantity:   line.Quantity,
			}
		}
		if err := tx.Create(&lines).Error; err != nil {
			return err
		}

		existing.Lines = lines
		updated = &existing
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *shipmentRepo) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&model.Shipment{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		// Lines go with the header so aggregates never see orphans
		return tx.Where("shipment_id = ?", id).Delete(&model.ShipmentLine{}).Error
	})
}

func (r *shipmentRepo) FindByID(ctx context.Context, id uint) (*model.Shipment, error) {
	var shipment model.Shipment
	err := r.db.WithContext(ctx).
		Preload("Store").Preload("Store.SalesRep").Preload("Lines.Product").
		First(&shipment, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &shipment, nil
}

func (r *shipmentRepo) List(ctx context.Context, f query.Filter) ([]model.Shipment, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Shipment{}).
		Joins("JOIN stores ON stores.id = shipments.store_id")

	if f.StoreID != nil {
		q = q.Where("shipments.store_id = ?", *f.StoreID)
	}
	if f.SalesRepID != nil {
		q = q.Where("stores.sales_rep_id = ?", *f.SalesRepID)
	}
	if f.Kabupaten != "" {
		q = q.Where("LOWER(stores.kabupaten) = ?", lowered(f.Kabupaten))
	}
	if f.ProductID != nil {
		q = q.Where("EXISTS (SELECT 1 FROM shipment_lines sl WHERE sl.shipment_id = shipments.id AND sl.product_id = ?)", *f.ProductID)
	}
	if f.Window != nil {
		if !f.Window.From.IsZero() {
			q = q.Where("shipments.ship_date >= ?", f.Window.From)
		}
		if !f.Window.To.IsZero() {
			q = q.Where("shipments.ship_date < ?", f.Window.To)
		}
	}
	if f.Search != "" {
		like := "%" + lowered(f.Search) + "%"
		if id, err := strconv.ParseUint(f.Search, 10, 32); err == nil {
			q = q.Where("shipments.id = ? OR LOWER(stores.name) LIKE ?", id, like)
			q = q.Order(exactIDFirst("shipments", id))
		} else {
			q = q.Where("LOWER(stores.name) LIKE ?", like)
		}
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var shipments []model.Shipment
	err := q.Preload("Store").Preload("Lines.Product").
		Order(f.OrderClause()).
		Offset(f.Offset()).Limit(f.PageSize).
		Find(&shipments).Error
	return shipments, total, err
}

// lineQuery joins lines to their non-deleted shipment headers. Table()
// bypasses the soft-delete scope, so the predicate is explicit.
func (r *shipmentRepo) lineQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Table("shipment_lines").
		Joins("JOIN shipments ON shipments.id = shipment_lines.shipment_id AND shipments.deleted_at IS NULL")
}

func applyShipmentWindow(q *gorm.DB, window *datetz.Range) *gorm.DB {
	if window == nil {
		return q
	}
	if !window.From.IsZero() {
		q = q.Where("shipments.ship_date >= ?", window.From)
	}
	if !window.To.IsZero() {
		q = q.Where("shipments.ship_date < ?", window.To)
	}
	return q
}

func (r *shipmentRepo) ShippedByProduct(ctx context.Context, scope Scope, window *datetz.Range) ([]ProductQty, error) {
	q := r.lineQuery(ctx).
		Select("shipment_lines.product_id AS product_id, COALESCE(SUM(shipment_lines.quantity), 0) AS quantity")

	if scope.ProductID != nil {
		q = q.Where("shipment_lines.product_id = ?", *scope.ProductID)
	}
	if scope.StoreID != nil {
		q = q.Where("shipments.store_id = ?", *scope.StoreID)
	}
	if scope.SalesRepID != nil {
		q = q.Joins("JOIN stores ON stores.id = shipments.store_id").
			Where("stores.sales_rep_id = ?", *scope.SalesRepID)
	}
	q = applyShipmentWindow(q, window)

	var rows []ProductQty
	err := q.Group("shipment_lines.product_id").Scan(&rows).Error
	return rows, err
}

func (r *shipmentRepo) ShippedByStore(ctx context.Context, storeIDs []uint, window *datetz.Range) ([]StoreQty, error) {
	if len(storeIDs) == 0 {
		return nil, nil
	}
	q := r.lineQuery(ctx).
		Select("shipments.store_id AS store_id, COALESCE(SUM(shipment_lines.quantity), 0) AS quantity").
		Where("shipments.store_id IN ?", storeIDs)
	q = applyShipmentWindow(q, window)

	var rows []StoreQty
	err := q.Group("shipments.store_id").Scan(&rows).Error
	return rows, err
}

func (r *shipmentRepo) ShippedBySalesRep(ctx context.Context, repIDs []uint, window *datetz.Range) ([]RepQty, error) {
	if len(repIDs) == 0 {
		return nil, nil
	}
	q := r.lineQuery(ctx).
		Joins("JOIN stores ON stores.id = shipments.store_id").
		Select("stores.sales_rep_id AS sales_rep_id, COALESCE(SUM(shipment_lines.quantity), 0) AS quantity").
		Where("stores.sales_rep_id IN ?", repIDs)
	q = applyShipmentWindow(q, window)

	var rows []RepQty
	err := q.Group("stores.sales_rep_id").Scan(&rows).Error
	return rows, err
}
