package service

import (
	"context"
	"fmt"
	"log"

	"go-distribusi-ops/internal/cache"
	"go-distribusi-ops/internal/model"
	"go-distribusi-ops/internal/query"
	"go-distribusi-ops/internal/repository"
	"go-distribusi-ops/internal/ws"
	"go-distribusi-ops/pkg/validator"
)

// LedgerService owns the write side of the three event streams. Each event
// is created atomically with its lines; updates replace the whole line set.
// Successful writes broadcast a refresh event and drop the reconciliation
// cache, since every derived figure may have changed.
type LedgerService interface {
	CreateShipment(ctx context.Context, shipment *model.Shipment) error
	UpdateShipment(ctx context.Context, id uint, in *model.Shipment) (*model.Shipment, error)
	DeleteShipment(ctx context.Context, id uint) error
	GetShipment(ctx context.Context, id uint) (*model.Shipment, error)
	ListShipments(ctx context.Context, f query.Filter) ([]model.Shipment, int64, error)

	CreateBilling(ctx context.Context, billing *model.Billing) error
	UpdateBilling(ctx context.Context, id uint, in *model.Billing) (*model.Billing, error)
	DeleteBilling(ctx context.Context, id uint) error
	GetBilling(ctx context.Context, id uint) (*model.Billing, error)
	ListBillings(ctx context.Context, f query.Filter) ([]model.Billing, int64, error)

	CreateDeposit(ctx context.Context, deposit *model.Deposit) error
	UpdateDeposit(ctx context.Context, id uint, in *model.Deposit) (*model.Deposit, error)
	DeleteDeposit(ctx context.Context, id uint) error
	GetDeposit(ctx context.Context, id uint) (*model.Deposit, error)
	ListDeposits(ctx context.Context, f query.Filter) ([]model.Deposit, int64, error)
}

type ledgerService struct {
	shipmentRepo repository.ShipmentRepository
	billingRepo  repository.BillingRepository
	depositRepo  repository.DepositRepository
	cache        cache.Cache
	wsHub        *ws.Hub
}

func NewLedgerService(
	shipmentRepo repository.ShipmentRepository,
	billingRepo repository.BillingRepository,
	depositRepo repository.DepositRepository,
	c cache.Cache,
	hub *ws.Hub,
) LedgerService {
	return &ledgerService{
		shipmentRepo: shipmentRepo,
		billingRepo:  billingRepo,
		depositRepo:  depositRepo,
		cache:        c,
		wsHub:        hub,
	}
}

func validateStruct(data interface{}) error {
	if errs := validator.ValidateStruct(data); len(errs) > 0 {
		first := errs[0]
		return fmt.Errorf("validation failed: field '%s' failed on tag '%s'", first.FailedField, first.Tag)
	}
	return nil
}

// afterWrite fans out the side effects of a successful ledger write.
func (s *ledgerService) afterWrite(eventType, entity string, payload interface{}, message string) {
	if err := s.cache.Invalidate(context.Background(), "recon:"); err != nil {
		log.Printf("ledger: WARN cache invalidate: %v", err)
	}
	if s.wsHub != nil {
		go s.wsHub.Publish(eventType, entity, payload, message)
	}
}

// ---- shipments ----

func (s *ledgerService) CreateShipment(ctx context.Context, shipment *model.Shipment) error {
	if err := validateStruct(shipment); err != nil {
		return err
	}
	if err := s.shipmentRepo.Create(ctx, shipment); err != nil {
		return err
	}
	s.afterWrite("shipment_created", "shipment", shipment,
		fmt.Sprintf("Shipment #%d created for store %d", shipment.ID, shipment.StoreID))
	return nil
}

func (s *ledgerService) UpdateShipment(ctx context.Context, id uint, in *model.Shipment) (*model.Shipment, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	updated, err := s.shipmentRepo.Update(ctx, id, in)
	if err != nil {
		return nil, err
	}
	s.afterWrite("shipment_updated", "shipment", updated,
		fmt.Sprintf("Shipment #%d updated", id))
	return updated, nil
}

func (s *ledgerService) DeleteShipment(ctx context.Context, id uint) error {
	if err := s.shipmentRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.afterWrite("shipment_deleted", "shipment", map[string]interface{}{"id": id},
		fmt.Sprintf("Shipment #%d deleted", id))
	return nil
}

func (s *ledgerService) GetShipment(ctx context.Context, id uint) (*model.Shipment, error) {
	return s.shipmentRepo.FindByID(ctx, id)
}

func (s *ledgerService) ListShipments(ctx context.Context, f query.Filter) ([]model.Shipment, int64, error) {
	return s.shipmentRepo.List(ctx, f)
}

// ---- billings ----

// normalizeBilling keeps the has_deduction invariant: the flag is derived
// from the deduction record, never taken from the caller. A deduction with
// a non-positive amount is rejected by validation before this runs.
func normalizeBilling(billing *model.Billing) {
	billing.HasDeduction = billing.Deduction != nil && billing.Deduction.Amount > 0
	if billing.Deduction != nil && billing.Deduction.Amount <= 0 {
		billing.Deduction = nil
	}
}

func (s *ledgerService) CreateBilling(ctx context.Context, billing *model.Billing) error {
	if err := validateStruct(billing); err != nil {
		return err
	}
	if billing.Deduction != nil {
		if err := validateStruct(billing.Deduction); err != nil {
			return err
		}
	}
	normalizeBilling(billing)
	if err := s.billingRepo.Create(ctx, billing); err != nil {
		return err
	}
	s.afterWrite("billing_created", "billing", billing,
		fmt.Sprintf("Billing #%d created for store %d", billing.ID, billing.StoreID))
	return nil
}

func (s *ledgerService) UpdateBilling(ctx context.Context, id uint, in *model.Billing) (*model.Billing, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	if in.Deduction != nil {
		if err := validateStruct(in.Deduction); err != nil {
			return nil, err
		}
	}
	normalizeBilling(in)
	updated, err := s.billingRepo.Update(ctx, id, in)
	if err != nil {
		return nil, err
	}
	s.afterWrite("billing_updated", "billing", updated,
		fmt.Sprintf("Billing #%d updated", id))
	return updated, nil
}

func (s *ledgerService) DeleteBilling(ctx context.Context, id uint) error {
	if err := s.billingRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.afterWrite("billing_deleted", "billing", map[string]interface{}{"id": id},
		fmt.Sprintf("Billing #%d deleted", id))
	return nil
}

func (s *ledgerService) GetBilling(ctx context.Context, id uint) (*model.Billing, error) {
	return s.billingRepo.FindByID(ctx, id)
}

func (s *ledgerService) ListBillings(ctx context.Context, f query.Filter) ([]model.Billing, int64, error) {
	return s.billingRepo.List(ctx, f)
}

// ---- deposits ----

func (s *ledgerService) CreateDeposit(ctx context.Context, deposit *model.Deposit) error {
	if err := validateStruct(deposit); err != nil {
		return err
	}
	if err := s.depositRepo.Create(ctx, deposit); err != nil {
		return err
	}
	s.afterWrite("deposit_created", "deposit", deposit,
		fmt.Sprintf("Deposit #%d of %d recorded for %s", deposit.ID, deposit.Amount, deposit.ReceiverName))
	return nil
}

func (s *ledgerService) UpdateDeposit(ctx context.Context, id uint, in *model.Deposit) (*model.Deposit, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	existing, err := s.depositRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	existing.Amount = in.Amount
	existing.ReceiverName = in.ReceiverName
	existing.DepositDate = in.DepositDate
	if err := s.depositRepo.Update(ctx, existing); err != nil {
		return nil, err
	}
	s.afterWrite("deposit_updated", "deposit", existing,
		fmt.Sprintf("Deposit #%d updated", id))
	return existing, nil
}

func (s *ledgerService) DeleteDeposit(ctx context.Context, id uint) error {
	if err := s.depositRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.afterWrite("deposit_deleted", "deposit", map[string]interface{}{"id": id},
		fmt.Sprintf("Deposit #%d deleted", id))
	return nil
}

func (s *ledgerService) GetDeposit(ctx context.Context, id uint) (*model.Deposit, error) {
	return s.depositRepo.FindByID(ctx, id)
}

func (s *ledgerService) ListDeposits(ctx context.Context, f query.Filter) ([]model.Deposit, int64, error) {
	return s.depositRepo.List(ctx, f)
}
