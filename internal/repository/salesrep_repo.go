package repository

import (
	"context"
	"strconv"

	"go-distribusi-ops/internal/model"
	"go-distribusi-ops/internal/query"

	"gorm.io/gorm"
)

type SalesRepRepository interface {
	Create(ctx context.Context, rep *model.SalesRep) error
	Update(ctx context.Context, rep *model.SalesRep) error
	Deactivate(ctx context.Context, id uint) error
	FindByID(ctx context.Context, id uint) (*model.SalesRep, error)
	List(ctx context.Context, f query.Filter) ([]model.SalesRep, int64, error)
	// StoreCountOptions lists every sales rep with the number of stores they
	// own, active reps before inactive, then by name. Counts cover the whole
	// universe of non-deleted stores.
	StoreCountOptions(ctx context.Context) ([]ValueCount, error)
}

type salesRepRepo struct {
	db *gorm.DB
}

func NewSalesRepRepo(db *gorm.DB) SalesRepRepository {
	return &salesRepRepo{db}
}

func (r *salesRepRepo) Create(ctx context.Context, rep *model.SalesRep) error {
	return r.db.WithContext(ctx).Create(rep).Error
}

func (r *salesRepRepo) Update(ctx context.Context, rep *model.SalesRep) error {
	return r.db.WithContext(ctx).Save(rep).Error
}

func (r *salesRepRepo) Deactivate(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Model(&model.SalesRep{}).
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

func (r *salesRepRepo) FindByID(ctx context.Context, id uint) (*model.SalesRep, error) {
	var rep model.SalesRep
	err := r.db.WithContext(ctx).Preload("Stores").First(&rep, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &rep, nil
}

func (r *salesRepRepo) List(ctx context.Context, f query.Filter) ([]model.SalesRep, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.SalesRep{})

	if f.SalesRepID != nil {
		q = q.Where("sales_reps.id = ?", *f.SalesRepID)
	}
	if f.Search != "" {
		like := "%" + lowered(f.Search) + "%"
		if id, err := strconv.ParseUint(f.Search, 10, 32); err == nil {
			q = q.Where("sales_reps.id = ? OR LOWER(sales_reps.name) LIKE ? OR sales_reps.phone LIKE ?",
				id, like, "%"+f.Search+"%")
			q = q.Order(exactIDFirst("sales_reps", id))
		} else {
			q = q.Where("LOWER(sales_reps.name) LIKE ?", like)
		}
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var reps []model.SalesRep
	err := q.Order(f.OrderClause()).
		Offset(f.Offset()).Limit(f.PageSize).
		Find(&reps).Error
	return reps, total, err
}

func (r *salesRepRepo) StoreCountOptions(ctx context.Context) ([]ValueCount, error) {
	var rows []ValueCount
	err := r.db.WithContext(ctx).Table("sales_reps").
		Select("CAST(sales_reps.id AS TEXT) AS value, sales_reps.name AS label, COUNT(stores.id) AS count").
		Joins("LEFT JOIN stores ON stores.sales_rep_id = sales_reps.id AND stores.deleted_at IS NULL").
		Where("sales_reps.deleted_at IS NULL").
		Group("sales_reps.id, sales_reps.name, sales_reps.is_active").
		Order("sales_reps.is_active DESC, sales_reps.name ASC").
		Scan(&rows).Error
	return rows, err
}
