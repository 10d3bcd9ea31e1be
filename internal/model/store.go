package model

type Store struct {
	BaseModel
	Name       string    `gorm:"type:varchar(255);not null" json:"name" validate:"required"`
	OwnerName  string    `gorm:"type:varchar(255)" json:"owner_name"`
	Phone      string    `gorm:"type:varchar(20)" json:"phone"`
	Kabupaten  string    `gorm:"type:varchar(100);index" json:"kabupaten"`
	Kecamatan  string    `gorm:"type:varchar(100);index" json:"kecamatan"`
	Address    string    `gorm:"type:text" json:"address"`
	IsActive   bool      `gorm:"default:true" json:"is_active"`
	SalesRepID uint      `gorm:"not null;index" json:"sales_rep_id" validate:"required"`
	SalesRep   *SalesRep `json:"sales_rep,omitempty" validate:"-"`
}
