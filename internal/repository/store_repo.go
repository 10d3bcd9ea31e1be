package repository

import (
	"context"
	"strconv"

	"go-distribusi-ops/internal/model"
	"go-distribusi-ops/internal/query"

	"gorm.io/gorm"
)

type StoreRepository interface {
	Create(ctx context.Context, store *model.Store) error
	Update(ctx context.Context, store *model.Store) error
	Deactivate(ctx context.Context, id uint) error
	FindByID(ctx context.Context, id uint) (*model.Store, error)
	List(ctx context.Context, f query.Filter) ([]model.Store, int64, error)
	// RegionOptions enumerates distinct kabupaten or kecamatan values with
	// counts. Counts cover active stores only: inactive stores do not feed
	// the region filter controls.
	RegionOptions(ctx context.Context, field string) ([]ValueCount, error)
	// StatusOptions counts stores per active flag over the full universe.
	StatusOptions(ctx context.Context) ([]ValueCount, error)
}

type storeRepo struct {
	db *gorm.DB
}

func NewStoreRepo(db *gorm.DB) StoreRepository {
	return &storeRepo{db}
}

func (r *storeRepo) Create(ctx context.Context, store *model.Store) error {
	return r.db.WithContext(ctx).Create(store).Error
}

func (r *storeRepo) Update(ctx context.Context, store *model.Store) error {
	return r.db.WithContext(ctx).Save(store).Error
}

func (r *storeRepo) Deactivate(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Model(&model.Store{}).
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

func (r *storeRepo) FindByID(ctx context.Context, id uint) (*model.Store, error) {
	var store model.Store
	err := r.db.WithContext(ctx).Preload("SalesRep").First(&store, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &store, nil
}

func (r *storeRepo) List(ctx context.Context, f query.Filter) ([]model.Store, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Store{})

	if f.StoreID != nil {
		q = q.Where("stores.id = ?", *f.StoreID)
	}
	if f.SalesRepID != nil {
		q = q.Where("stores.sales_rep_id = ?", *f.SalesRepID)
	}
	if f.Kabupaten != "" {
		q = q.Where("LOWER(stores.kabupaten) = ?", lowered(f.Kabupaten))
	}
	if f.Kecamatan != "" {
		q = q.Where("LOWER(stores.kecamatan) = ?", lowered(f.Kecamatan))
	}
	if f.Search != "" {
		like := "%" + lowered(f.Search) + "%"
		// Term numerik juga cocok dengan primary key, match persis naik duluan
		if id, err := strconv.ParseUint(f.Search, 10, 32); err == nil {
			q = q.Where(
				"stores.id = ? OR LOWER(stores.name) LIKE ? OR stores.phone LIKE ? OR LOWER(stores.kabupaten) LIKE ? OR LOWER(stores.kecamatan) LIKE ?",
				id, like, "%"+f.Search+"%", like, like,
			)
			q = q.Order(exactIDFirst("stores", id))
		} else {
			q = q.Where(
				"LOWER(stores.name) LIKE ? OR LOWER(stores.owner_name) LIKE ? OR LOWER(stores.kabupaten) LIKE ? OR LOWER(stores.kecamatan) LIKE ?",
				like, like, like, like,
			)
		}
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var stores []model.Store
	err := q.Preload("SalesRep").
		Order(f.OrderClause()).
		Offset(f.Offset()).Limit(f.PageSize).
		Find(&stores).Error
	return stores, total, err
}

func (r *storeRepo) RegionOptions(ctx context.Context, field string) ([]ValueCount, error) {
	// field comes from the options service whitelist, never from raw input
	var rows []ValueCount
	err := r.db.WithContext(ctx).Model(&model.Store{}).
		Select(field+" AS value, COUNT(*) AS count").
		Where("is_active = ? AND "+field+" <> ''", true).
		Group(field).
		Order("value ASC").
		Scan(&rows).Error
	return rows, err
}

func (r *storeRepo) StatusOptions(ctx context.Context) ([]ValueCount, error) {
	var rows []ValueCount
	err := r.db.WithContext(ctx).Model(&model.Store{}).
		Select("CASE WHEN is_active THEN 'active' ELSE 'inactive' END AS value, COUNT(*) AS count").
		Group("is_active").
		Order("value ASC").
		Scan(&rows).Error
	return rows, err
}
