package models

import "time"

// Category labels transactions of one type. A nil UserID marks a system
// category: visible to every user, immutable and undeletable through the API.
type Category struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time
	UserID    *uint           `gorm:"index"`
	Name      string          `gorm:"size:255;not null"`
	Type      TransactionType `gorm:"size:16;not null"`
	Icon      string          `gorm:"size:50"`
	Color     string          `gorm:"size:50"`
	IsSystem  bool            `gorm:"not null;default:false"`
}
