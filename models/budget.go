package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Budget is a monthly spending target. The (user, category, month, year)
// tuple is unique; upserts overwrite the amount of an existing row instead
// of creating a second one.
type Budget struct {
	ID         uint `gorm:"primaryKey"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
	UserID     uint            `gorm:"not null;uniqueIndex:idx_budgets_natural_key"`
	CategoryID uint            `gorm:"not null;uniqueIndex:idx_budgets_natural_key"`
	Category   Category        `gorm:"foreignKey:CategoryID"`
	Amount     decimal.Decimal `gorm:"type:numeric(15,2);not null"`
	Month      int             `gorm:"not null;uniqueIndex:idx_budgets_natural_key"`
	Year       int             `gorm:"not null;uniqueIndex:idx_budgets_natural_key"`
}
