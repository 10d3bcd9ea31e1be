package repository

import (
	"context"
	"strconv"

	"go-distribusi-ops/internal/model"
	"go-distribusi-ops/internal/query"
	"go-distribusi-ops/pkg/datetz"

	"gorm.io/gorm"
)

type DepositRepository interface {
	Create(ctx context.Context, deposit *model.Deposit) error
	Update(ctx context.Context, deposit *model.Deposit) error
	Delete(ctx context.Context, id uint) error
	FindByID(ctx context.Context, id uint) (*model.Deposit, error)
	List(ctx context.Context, f query.Filter) ([]model.Deposit, int64, error)
	// InWindow fetches every deposit whose deposit_date falls in the window,
	// for the cash-flow direct aggregation.
	InWindow(ctx context.Context, window datetz.Range) ([]model.Deposit, error)
}

type depositRepo struct {
	db *gorm.DB
}

func NewDepositRepo(db *gorm.DB) DepositRepository {
	return &depositRepo{db}
}

func (r *depositRepo) Create(ctx context.Context, deposit *model.Deposit) error {
	return r.db.WithContext(ctx).Create(deposit).Error
}

func (r *depositRepo) Update(ctx context.Context, deposit *model.Deposit) error {
	return r.db.WithContext(ctx).Save(deposit).Error
}

func (r *depositRepo) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&model.Deposit{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *depositRepo) FindByID(ctx context.Context, id uint) (*model.Deposit, error) {
	var deposit model.Deposit
	err := r.db.WithContext(ctx).First(&deposit, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &deposit, nil
}

func (r *depositRepo) List(ctx context.Context, f query.Filter) ([]model.Deposit, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Deposit{})

	if f.Window != nil {
		if !f.Window.From.IsZero() {
			q = q.Where("deposits.deposit_date >= ?", f.Window.From)
		}
		if !f.Window.To.IsZero() {
			q = q.Where("deposits.deposit_date < ?", f.Window.To)
		}
	}
	if f.Search != "" {
		like := "%" + lowered(f.Search) + "%"
		if id, err := strconv.ParseUint(f.Search, 10, 32); err == nil {
			q = q.Where("deposits.id = ? OR LOWER(deposits.receiver_name) LIKE ?", id, like)
			q = q.Order(exactIDFirst("deposits", id))
		} else {
			q = q.Where("LOWER(deposits.receiver_name) LIKE ?", like)
		}
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var deposits []model.Deposit
	err := q.Order(f.OrderClause()).
		Offset(f.Offset()).Limit(f.PageSize).
		Find(&deposits).Error
	return deposits, total, err
}

func (r *depositRepo) InWindow(ctx context.Context, window datetz.Range) ([]model.Deposit, error) {
	q := r.db.WithContext(ctx).Model(&model.Deposit{})
	if !window.From.IsZero() {
		q = q.Where("deposit_date >= ?", window.From)
	}
	if !window.To.IsZero() {
		q = q.Where("deposit_date < ?", window.To)
	}

	var deposits []model.Deposit
	err := q.Order("deposit_date ASC").Find(&deposits).Error
	return deposits, err
}
