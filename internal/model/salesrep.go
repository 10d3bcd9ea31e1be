package model

// SalesRep owns zero or more stores and is the top of the ownership chain
// for every ledger event (shipment, billing) through the store.
type SalesRep struct {
	BaseModel
	Name     string  `gorm:"type:varchar(255);not null" json:"name" validate:"required"`
	Phone    string  `gorm:"type:varchar(20)" json:"phone"`
	IsActive bool    `gorm:"default:true" json:"is_active"`
	Stores   []Store `json:"stores,omitempty" validate:"-"`
}

func (SalesRep) TableName() string {
	return "sales_reps"
}
