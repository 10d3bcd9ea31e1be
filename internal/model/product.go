package model

type Product struct {
	BaseModel
	Name          string `gorm:"type:varchar(255);not null" json:"name" validate:"required"`
	Price         int64  `gorm:"not null;default:0" json:"price" validate:"gte=0"` // harga satuan dalam rupiah
	IsActive      bool   `gorm:"default:true" json:"is_active"`
	IsPriority    bool   `gorm:"default:false" json:"is_priority"`
	PriorityOrder int    `gorm:"default:0" json:"priority_order"`
}
