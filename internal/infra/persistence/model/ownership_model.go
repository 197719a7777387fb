package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OwnershipModel mirrors the 'ownerships' join table between users and assets.
type OwnershipModel struct {
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey"`
	AssetID   uuid.UUID `gorm:"type:uuid;primaryKey;index"`
	Balance   int64     `gorm:"not null;default:0;check:balance >= 0"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName explicitly sets the table name for GORM.
func (OwnershipModel) TableName() string {
	return "ownerships"
}

// CollateralModel mirrors the 'collaterals' table.
// At most one LOCKED row exists per (user, asset).
type CollateralModel struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey"`
	UserID       uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_collateral_locked,priority:1,where:status = 'LOCKED'"`
	AssetID      uuid.UUID       `gorm:"type:uuid;not null;index;uniqueIndex:idx_collateral_locked,priority:2,where:status = 'LOCKED'"`
	LockedUnits  int64           `gorm:"not null;default:0;check:locked_units >= 0"`
	LockedValue  decimal.Decimal `gorm:"type:numeric(20,2);not null;default:0"`
	CreditIssued decimal.Decimal `gorm:"type:numeric(20,2);not null;default:0"`
	Status       string          `gorm:"type:varchar(16);not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TableName explicitly sets the table name for GORM.
func (CollateralModel) TableName() string {
	return "collaterals"
}
