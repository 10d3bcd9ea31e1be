package model

import (
	"time"

	"gorm.io/gorm"
)

// BaseModel handles the numeric primary key and standard audit timestamps.
// Numeric IDs are part of the search contract: a purely numeric search term
// matches the primary key directly.
type BaseModel struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"` // Soft delete support
}
