package model

type PaymentMethod string

const (
	PaymentCash     PaymentMethod = "CASH"
	PaymentTransfer PaymentMethod = "TRANSFER"
)

// Billing records a settlement visit at a store: units sold, units taken
// back, and the cash or transfer amount actually received. HasDeduction is
// true iff a Deduction with positive amount exists; the write service keeps
// the flag in sync, callers must not set it directly.
type Billing struct {
	BaseModel
	StoreID       uint          `gorm:"not null;index" json:"store_id" validate:"required"`
	Store         *Store        `json:"store,omitempty" validate:"-"`
	PaymentMethod PaymentMethod `gorm:"type:varchar(10);not null" json:"payment_method" validate:"required,oneof=CASH TRANSFER"`
	TotalReceived int64         `gorm:"not null;default:0" json:"total_received" validate:"gte=0"`
	HasDeduction  bool          `gorm:"default:false" json:"has_deduction"`
	Lines         []BillingLine `gorm:"constraint:OnDelete:CASCADE" json:"lines,omitempty" validate:"required,min=1,dive"`
	Deduction     *Deduction    `gorm:"constraint:OnDelete:CASCADE" json:"deduction,omitempty"`
}

type BillingLine struct {
	ID          uint     `gorm:"primaryKey" json:"id"`
	BillingID   uint     `gorm:"not null;index" json:"billing_id"`
	ProductID   uint     `gorm:"not null;index" json:"product_id" validate:"required"`
	Product     *Product `json:"product,omitempty" validate:"-"`
	QtySold     int      `gorm:"not null;default:0" json:"qty_sold" validate:"gte=0"`
	QtyReturned int      `gorm:"not null;default:0" json:"qty_returned" validate:"gte=0"`
}

type Deduction struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	BillingID uint   `gorm:"not null;uniqueIndex" json:"billing_id"`
	Amount    int64  `gorm:"not null" json:"amount" validate:"required,gt=0"`
	Reason    string `gorm:"type:text" json:"reason"`
}
