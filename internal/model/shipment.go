package model

import "time"

// Shipment is an immutable historical fact: a sales rep delivered products
// to a store on ship_date. Created atomically with its lines; updates
// replace the whole line set.
type Shipment struct {
	BaseModel
	StoreID  uint           `gorm:"not null;index" json:"store_id" validate:"required"`
	Store    *Store         `json:"store,omitempty" validate:"-"`
	ShipDate time.Time      `gorm:"type:date;not null;index" json:"ship_date" validate:"date_required"`
	Lines    []ShipmentLine `gorm:"constraint:OnDelete:CASCADE" json:"lines,omitempty" validate:"required,min=1,dive"`
}

type ShipmentLine struct {
	ID         uint     `gorm:"primaryKey" json:"id"`
	ShipmentID uint     `gorm:"not null;index" json:"shipment_id"`
	ProductID  uint     `gorm:"not null;index" json:"product_id" validate:"required"`
	Product    *Product `json:"product,omitempty" validate:"-"`
	Quantity   int      `gorm:"not null" json:"quantity" validate:"required,gt=0"` // qty dikirim harus > 0
}
