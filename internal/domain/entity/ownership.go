package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Ownership is the tradable unit balance a user holds in one asset.
type Ownership struct {
	UserID    uuid.UUID
	AssetID   uuid.UUID
	Balance   int64 // Never negative. Units locked as collateral are not included.
	UpdatedAt time.Time
}

// CollateralStatus is the state of a collateral pledge.
type CollateralStatus string

const (
	CollateralStatusLocked   CollateralStatus = "LOCKED"
	CollateralStatusReleased CollateralStatus = "RELEASED"
)

// Collateral records units pledged by a user against an asset.
// A user has at most one LOCKED row per asset; further locks are added to it.
type Collateral struct {
	ID           uuid.UUID
	UserID       uuid.UUID
	AssetID      uuid.UUID
	LockedUnits  int64
	LockedValue  decimal.Decimal // Units times the unit price at lock time.
	CreditIssued decimal.Decimal // Cash credited against the pledge under the credit-line policy.
	Status       CollateralStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
