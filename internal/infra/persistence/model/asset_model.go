package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AssetModel mirrors the 'assets' table.
type AssetModel struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey"`
	OwnerID          uuid.UUID       `gorm:"type:uuid;not null;index"`
	Name             string          `gorm:"type:varchar(200);not null"`
	Location         string          `gorm:"type:varchar(255)"`
	Description      string          `gorm:"type:text"`
	RiskTier         string          `gorm:"type:varchar(32)"`
	Valuation        decimal.Decimal `gorm:"type:numeric(20,2);not null;default:0"`
	Status           string          `gorm:"type:varchar(16);not null;index"`
	TotalUnits       int64           `gorm:"not null;default:0;check:total_units >= 0"`
	UnitPrice        decimal.Decimal `gorm:"type:numeric(20,2);not null;default:0"`
	UnallocatedUnits int64           `gorm:"not null;default:0;check:unallocated_units >= 0"`
	VerificationHash string          `gorm:"type:varchar(128)"`
	VerifiedAt       *time.Time
	TokenizedAt      *time.Time
	StatusReason     string `gorm:"type:text"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// TableName explicitly sets the table name for GORM.
func (AssetModel) TableName() string {
	return "assets"
}
