package service

import (
	"context"
	"fmt"

	"go-distribusi-ops/internal/query"
	"go-distribusi-ops/internal/repository"
)

// Option is one distinct filter value with its count, feeding UI filter
// controls.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
	Count int64  `json:"count"`
}

// OptionsService enumerates distinct filter values per entity/field.
// Scoping rules are explicit per field:
//
//	stores/kabupaten, stores/kecamatan: counts over active stores only
//	stores/status: counts over all stores
//	stores/sales_rep: every rep with owned-store count, active reps
//	first, then by name
//	products/name: active products, priority first then name, counting
//	shipment-line usage
//	products/status: counts over all products
//	billings/payment_method: counts over all billings
type OptionsService interface {
	Options(ctx context.Context, entity, field string) ([]Option, error)
}

type optionsService struct {
	storeRepo    repository.StoreRepository
	salesRepRepo repository.SalesRepRepository
	productRepo  repository.ProductRepository
	billingRepo  repository.BillingRepository
}

func NewOptionsService(
	storeRepo repository.StoreRepository,
	salesRepRepo repository.SalesRepRepository,
	productRepo repository.ProductRepository,
	billingRepo repository.BillingRepository,
) OptionsService {
	return &optionsService{
		storeRepo:    storeRepo,
		salesRepRepo: salesRepRepo,
		productRepo:  productRepo,
		billingRepo:  billingRepo,
	}
}

func (s *optionsService) Options(ctx context.Context, entity, field string) ([]Option, error) {
	var (
		rows []repository.ValueCount
		err  error
	)
	switch entity + "/" + field {
	case "stores/kabupaten":
		rows, err = s.storeRepo.RegionOptions(ctx, "kabupaten")
	case "stores/kecamatan":
		rows, err = s.storeRepo.RegionOptions(ctx, "kecamatan")
	case "stores/status":
		rows, err = s.storeRepo.StatusOptions(ctx)
	case "stores/sales_rep":
		rows, err = s.salesRepRepo.StoreCountOptions(ctx)
	case "products/name":
		rows, err = s.productRepo.NameOptions(ctx)
	case "products/status":
		rows, err = s.productRepo.StatusOptions(ctx)
	case "billings/payment_method":
		rows, err = s.billingRepo.PaymentMethodOptions(ctx)
	default:
		return nil, &query.ValidationError{
			Field:  "field",
			Reason: fmt.Sprintf("no filter options for %s/%s", entity, field),
		}
	}
	if err != nil {
		return nil, err
	}

	options := make([]Option, len(rows))
	for i, row := range rows {
		label := row.Label
		if label == "" {
			label = row.Value
		}
		options[i] = Option{Value: row.Value, Label: label, Count: row.Count}
	}
	return options, nil
}
