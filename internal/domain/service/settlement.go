package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SettlementKind names the ledger operation being settled.
type SettlementKind string

const (
	SettlementVerify   SettlementKind = "verify"
	SettlementTokenize SettlementKind = "tokenize"
	SettlementBuy      SettlementKind = "buy"
	SettlementSell     SettlementKind = "sell"
	SettlementLock     SettlementKind = "collateral_lock"
	SettlementRelease  SettlementKind = "collateral_release"
	SettlementYield    SettlementKind = "yield"
)

// SettlementRequest describes a ledger mutation handed to the settlement collaborator.
type SettlementRequest struct {
	Kind    SettlementKind  `json:"kind"`
	UserID  uuid.UUID       `json:"user_id"`
	AssetID uuid.UUID       `json:"asset_id"`
	Units   int64           `json:"units"`
	Amount  decimal.Decimal `json:"amount"`
}

// Settlement produces the opaque reference recorded with a ledger mutation.
// The ledger never waits for chain confirmation; the reference is stored in the
// same transaction that moves balances.
type Settlement interface {
	Settle(ctx context.Context, req *SettlementRequest) (string, error)
}
