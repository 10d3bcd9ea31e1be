package model

import "time"

// Deposit is cash handed over to a receiver. It is not tied to a store;
// reconciliation matches it against billings of the same local calendar day.
type Deposit struct {
	BaseModel
	Amount       int64     `gorm:"not null" json:"amount" validate:"required,gt=0"`
	ReceiverName string    `gorm:"type:varchar(255);not null" json:"receiver_name" validate:"required"`
	DepositDate  time.Time `gorm:"type:date;not null;index" json:"deposit_date" validate:"date_required"`
}
