package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AssetStatus is the lifecycle state of a listed asset.
type AssetStatus string

const (
	AssetStatusDraft     AssetStatus = "DRAFT"
	AssetStatusSubmitted AssetStatus = "SUBMITTED"
	AssetStatusVerified  AssetStatus = "VERIFIED"
	AssetStatusActive    AssetStatus = "ACTIVE"
	AssetStatusPaused    AssetStatus = "PAUSED"
	AssetStatusRejected  AssetStatus = "REJECTED"
	AssetStatusDisputed  AssetStatus = "DISPUTED"
)

// IsValid checks if the status is a known lifecycle state.
func (s AssetStatus) IsValid() bool {
	switch s {
	case AssetStatusDraft, AssetStatusSubmitted, AssetStatusVerified, AssetStatusActive,
		AssetStatusPaused, AssetStatusRejected, AssetStatusDisputed:
		return true
	default:
		return false
	}
}

// AssetEvent is a lifecycle transition request.
type AssetEvent string

const (
	AssetEventSubmit   AssetEvent = "submit"
	AssetEventVerify   AssetEvent = "verify"
	AssetEventTokenize AssetEvent = "tokenize"
	AssetEventPause    AssetEvent = "pause"
	AssetEventResume   AssetEvent = "resume"
	AssetEventReject   AssetEvent = "reject"
	AssetEventDispute  AssetEvent = "dispute"
)

// NextAssetStatus returns the state reached by applying event to from.
// The boolean is false when the transition is not legal.
func NextAssetStatus(from AssetStatus, event AssetEvent) (AssetStatus, bool) {
	switch event {
	case AssetEventSubmit:
		return AssetStatusSubmitted, from == AssetStatusDraft
	case AssetEventVerify:
		return AssetStatusVerified, from == AssetStatusSubmitted
	case AssetEventTokenize:
		return AssetStatusActive, from == AssetStatusVerified
	case AssetEventPause:
		return AssetStatusPaused, from == AssetStatusActive
	case AssetEventResume:
		return AssetStatusActive, from == AssetStatusPaused
	case AssetEventReject:
		// REJECTED is terminal.
		return AssetStatusRejected, from.IsValid() && from != AssetStatusRejected
	case AssetEventDispute:
		return AssetStatusDisputed, from.IsValid() && from != AssetStatusRejected && from != AssetStatusDisputed
	default:
		return from, false
	}
}

// Asset is a real-estate listing that can be fractionalized into tradable units.
type Asset struct {
	ID               uuid.UUID
	OwnerID          uuid.UUID // The builder that listed the asset.
	Name             string
	Location         string
	Description      string
	RiskTier         string
	Valuation        decimal.Decimal // Appraised value, informational only.
	Status           AssetStatus
	TotalUnits       int64           // Fixed at tokenization.
	UnitPrice        decimal.Decimal // Fixed at tokenization.
	UnallocatedUnits int64           // Units still held by the platform and available to buy.
	VerificationHash string
	VerifiedAt       *time.Time
	TokenizedAt      *time.Time
	StatusReason     string // Reason given for the latest reject or dispute.
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// IsTokenized reports whether supply and price have been fixed.
func (a *Asset) IsTokenized() bool {
	return a.TokenizedAt != nil && a.TotalUnits > 0
}

// IsTradeable reports whether units may be bought from the platform.
func (a *Asset) IsTradeable() bool {
	return a.Status == AssetStatusActive
}

// IsFrozen reports whether holders are barred from moving their units.
func (a *Asset) IsFrozen() bool {
	switch a.Status {
	case AssetStatusPaused, AssetStatusDisputed, AssetStatusRejected:
		return true
	default:
		return false
	}
}

// PriceOf returns the value of units at the fixed unit price.
func (a *Asset) PriceOf(units int64) decimal.Decimal {
	return a.UnitPrice.Mul(decimal.NewFromInt(units))
}
