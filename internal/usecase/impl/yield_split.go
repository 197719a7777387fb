package impl

import (
	"slices"

	"propledger/internal/domain/constants"
	"propledger/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// residualPolicy decides who keeps the rounding remainder of a split.
type residualPolicy string

const (
	residualPlatform      residualPolicy = constants.ResidualPolicyPlatform
	residualLargestHolder residualPolicy = constants.ResidualPolicyLargestHolder
)

func parseResidualPolicy(s string) (residualPolicy, bool) {
	switch residualPolicy(s) {
	case "", residualPlatform:
		return residualPlatform, true
	case residualLargestHolder:
		return residualLargestHolder, true
	default:
		return "", false
	}
}

// holderShare is one holder's cut of an income event.
type holderShare struct {
	UserID uuid.UUID
	Units  int64
	Amount decimal.Decimal
}

var cent = decimal.New(1, -moneyPlaces)

// splitIncome divides amount pro rata over totalUnits. Each holder gets
// round(amount × units / totalUnits, 2); the payouts never add up to more than the
// pool owed to holders, round(amount × heldUnits / totalUnits, 2). Unheld units earn
// nothing and their share is retained along with any rounding remainder the policy keeps.
// Shares are returned in the order holders were given.
func splitIncome(amount decimal.Decimal, totalUnits int64, holders []*entity.Ownership, policy residualPolicy) ([]holderShare, decimal.Decimal) {
	if totalUnits <= 0 || len(holders) == 0 {
		return nil, amount
	}

	total := decimal.NewFromInt(totalUnits)
	shares := make([]holderShare, 0, len(holders))
	var held int64
	paid := decimal.Zero
	for _, h := range holders {
		if h.Balance <= 0 {
			continue
		}
		held += h.Balance
		payout := amount.Mul(decimal.NewFromInt(h.Balance)).Div(total).Round(moneyPlaces)
		shares = append(shares, holderShare{UserID: h.UserID, Units: h.Balance, Amount: payout})
		paid = paid.Add(payout)
	}
	if len(shares) == 0 {
		return nil, amount
	}

	pool := amount.Mul(decimal.NewFromInt(held)).Div(total).Round(moneyPlaces)
	residual := pool.Sub(paid)

	// Largest holders absorb an overshoot first, a cent at a time, never below zero.
	order := byLargestHolder(shares)
	for residual.IsNegative() {
		progressed := false
		for _, i := range order {
			if !residual.IsNegative() {
				break
			}
			if shares[i].Amount.GreaterThanOrEqual(cent) {
				shares[i].Amount = shares[i].Amount.Sub(cent)
				residual = residual.Add(cent)
				progressed = true
			}
		}
		if !progressed {
			break
		}
	}

	if residual.IsPositive() && policy == residualLargestHolder {
		largest := order[0]
		shares[largest].Amount = shares[largest].Amount.Add(residual)
	}

	paid = decimal.Zero
	for _, s := range shares {
		paid = paid.Add(s.Amount)
	}

	return shares, amount.Sub(paid)
}

// byLargestHolder returns share indexes ordered by units descending, then lowest user ID.
func byLargestHolder(shares []holderShare) []int {
	order := make([]int, len(shares))
	for i := range order {
		order[i] = i
	}
	slices.SortFunc(order, func(a, b int) int {
		if shares[a].Units != shares[b].Units {
			if shares[a].Units > shares[b].Units {
				return -1
			}

			return 1
		}

		return compareIDs(shares[a].UserID, shares[b].UserID)
	})

	return order
}
