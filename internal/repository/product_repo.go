package repository

import (
	"context"
	"strconv"

	"go-distribusi-ops/internal/model"
	"go-distribusi-ops/internal/query"

	"gorm.io/gorm"
)

type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) error
	Update(ctx context.Context, product *model.Product) error
	Deactivate(ctx context.Context, id uint) error
	FindByID(ctx context.Context, id uint) (*model.Product, error)
	List(ctx context.Context, f query.Filter) ([]model.Product, int64, error)
	NamesByID(ctx context.Context, ids []uint) (map[uint]string, error)
	StatusOptions(ctx context.Context) ([]ValueCount, error)
	// NameOptions lists active products for filter controls, priority
	// products first, then by name. Count is the number of shipment lines
	// referencing the product.
	NameOptions(ctx context.Context) ([]ValueCount, error)
}

type productRepo struct {
	db *gorm.DB
}

func NewProductRepo(db *gorm.DB) ProductRepository {
	return &productRepo{db}
}

func (r *productRepo) Create(ctx context.Context, product *model.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

func (r *productRepo) Update(ctx context.Context, product *model.Product) error {
	return r.db.WithContext(ctx).Save(product).Error
}

// Deactivate flips is_active off. Products referenced by shipment or
// billing lines are never hard-deleted.
func (r *productRepo) Deactivate(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Model(&model.Product{}).
		Where("id = ?", id).
		Update("is_active", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *productRepo) FindByID(ctx context.Context, id uint) (*model.Product, error) {
	var product model.Product
	err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepo) List(ctx context.Context, f query.Filter) ([]model.Product, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Product{})

	if f.ProductID != nil {
		q = q.Where("products.id = ?", *f.ProductID)
	}
	if f.Search != "" {
		like := "%" + lowered(f.Search) + "%"
		if id, err := strconv.ParseUint(f.Search, 10, 32); err == nil {
			q = q.Where("products.id = ? OR LOWER(products.name) LIKE ?", id, like)
			q = q.Order(exactIDFirst("products", id))
		} else {
			q = q.Where("LOWER(products.name) LIKE ?", like)
		}
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var products []model.Product
	err := q.Order(f.OrderClause()).
		Offset(f.Offset()).Limit(f.PageSize).
		Find(&products).Error
	return products, total, err
}

func (r *productRepo) NamesByID(ctx context.Context, ids []uint) (map[uint]string, error) {
	names := make(map[uint]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}
	type row struct {
		ID   uint
		Name string
	}
	var rows []row
	err := r.db.WithContext(ctx).Model(&model.Product{}).
		Select("id, name").
		Where("id IN ?", ids).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, rw := range rows {
		names[rw.ID] = rw.Name
	}
	return names, nil
}

func (r *productRepo) NameOptions(ctx context.Context) ([]ValueCount, error) {
	var rows []ValueCount
	err := r.db.WithContext(ctx).Table("products").
		Select("CAST(products.id AS TEXT) AS value, products.name AS label, COUNT(shipment_lines.id) AS count").
		Joins("LEFT JOIN shipment_lines ON shipment_lines.product_id = products.id").
		Where("products.deleted_at IS NULL AND products.is_active = ?", true).
		Group("products.id, products.name, products.is_priority, products.priority_order").
		Order("products.is_priority DESC, products.priority_order ASC, products.name ASC").
		Scan(&rows).Error
	return rows, err
}

// StatusOptions counts products per active flag.
func (r *productRepo) StatusOptions(ctx context.Context) ([]ValueCount, error) {
	var rows []ValueCount
	err := r.db.WithContext(ctx).Model(&model.Product{}).
		Select("CASE WHEN is_active THEN 'active' ELSE 'inactive' END AS value, COUNT(*) AS count").
		Group("is_active").
		Order("value ASC").
		Scan(&rows).Error
	return rows, err
}
