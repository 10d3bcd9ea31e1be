package repository

import (
	"context"
	"testing"

	"go-distribusi-ops/internal/model"
	"go-distribusi-ops/internal/query"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func billFor(t *testing.T, db *gorm.DB, storeID, productID uint, sold int, received int64) model.Billing {
	b := model.Billing{
		StoreID:       storeID,
		PaymentMethod: model.PaymentCash,
		TotalReceived: received,
		Lines:         []model.BillingLine{{ProductID: productID, QtySold: sold}},
	}
	require.NoError(t, db.Create(&b).Error)
	return b
}

func TestBillingList_NumericSearchMatchesPrimaryKey(t *testing.T) {
	db := newTestDB(t)
	rep := seedRep(t, db)
	berkah := seedStore(t, db, rep, "Toko Berkah")
	blok42 := seedStore(t, db, rep, "Warung Blok 42")
	product := seedProduct(t, db, "Keripik")
	repo := NewBillingRepo(db)

	// Billing whose store name contains the term, then one whose ID is the term.
	named := billFor(t, db, blok42.ID, product.ID, 5, 50000)
	exact := model.Billing{
		StoreID:       berkah.ID,
		PaymentMethod: model.PaymentTransfer,
		TotalReceived: 120000,
		Lines:         []model.BillingLine{{ProductID: product.ID, QtySold: 12}},
	}
	exact.ID = 42
	require.NoError(t, db.Create(&exact).Error)
	billFor(t, db, berkah.ID, product.ID, 3, 30000)

	f := query.Filter{
		Page:       1,
		PageSize:   query.DefaultPageSize,
		SortField:  "id",
		SortColumn: "billings.id",
		SortDir:    query.SortAsc,
		Search:     "42",
	}
	billings, total, err := repo.List(context.Background(), f)
	require.NoError(t, err)

	assert.EqualValues(t, 2, total)
	require.Len(t, billings, 2)
	// The exact-ID match ranks first regardless of sort order.
	assert.Equal(t, uint(42), billings[0].ID)
	assert.Equal(t, named.ID, billings[1].ID)
}

func TestBillingList_TextSearchMatchesStoreName(t *testing.T) {
	db := newTestDB(t)
	rep := seedRep(t, db)
	berkah := seedStore(t, db, rep, "Toko Berkah")
	maju := seedStore(t, db, rep, "Toko Maju")
	product := seedProduct(t, db, "Keripik")
	repo := NewBillingRepo(db)

	billFor(t, db, berkah.ID, product.ID, 5, 50000)
	billFor(t, db, maju.ID, product.ID, 4, 40000)

	f := query.Filter{
		Page:       1,
		PageSize:   query.DefaultPageSize,
		SortField:  "id",
		SortColumn: "billings.id",
		SortDir:    query.SortAsc,
		Search:     "berkah",
	}
	billings, total, err := repo.List(context.Background(), f)
	require.NoError(t, err)

	assert.EqualValues(t, 1, total)
	require.Len(t, billings, 1)
	assert.Equal(t, berkah.ID, billings[0].Store.ID)
}
