package impl

import (
	"testing"

	"propledger/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func holdersOf(balances ...int64) []*entity.Ownership {
	holders := make([]*entity.Ownership, 0, len(balances))
	for i, b := range balances {
		id := uuid.UUID{}
		id[15] = byte(i + 1)
		holders = append(holders, &entity.Ownership{UserID: id, Balance: b})
	}

	return holders
}

func sumShares(shares []holderShare) decimal.Decimal {
	total := decimal.Zero
	for _, s := range shares {
		total = total.Add(s.Amount)
	}

	return total
}

func TestSplitIncome(t *testing.T) {
	tests := []struct {
		name         string
		amount       string
		totalUnits   int64
		balances     []int64
		policy       residualPolicy
		wantPayouts  []string
		wantRetained string
	}{
		{
			name:         "fully held, exact split",
			amount:       "100000",
			totalUnits:   10000,
			balances:     []int64{6000, 4000},
			policy:       residualPlatform,
			wantPayouts:  []string{"60000", "40000"},
			wantRetained: "0",
		},
		{
			name:         "unallocated share stays with the platform",
			amount:       "1000",
			totalUnits:   100,
			balances:     []int64{30, 20},
			policy:       residualLargestHolder,
			wantPayouts:  []string{"300", "200"},
			wantRetained: "500",
		},
		{
			name:         "positive residual retained by platform",
			amount:       "100",
			totalUnits:   3,
			balances:     []int64{1, 1, 1},
			policy:       residualPlatform,
			wantPayouts:  []string{"33.33", "33.33", "33.33"},
			wantRetained: "0.01",
		},
		{
			name:         "positive residual absorbed by lowest id on a tie",
			amount:       "100",
			totalUnits:   3,
			balances:     []int64{1, 1, 1},
			policy:       residualLargestHolder,
			wantPayouts:  []string{"33.34", "33.33", "33.33"},
			wantRetained: "0",
		},
		{
			name:         "overshoot taken from largest holder",
			amount:       "100",
			totalUnits:   6,
			balances:     []int64{1, 4, 1},
			policy:       residualLargestHolder,
			wantPayouts:  []string{"16.67", "66.66", "16.67"},
			wantRetained: "0",
		},
		{
			name:         "overshoot on a tie taken from lowest id",
			amount:       "0.05",
			totalUnits:   2,
			balances:     []int64{1, 1},
			policy:       residualPlatform,
			wantPayouts:  []string{"0.02", "0.03"},
			wantRetained: "0",
		},
		{
			name:         "no holders",
			amount:       "10",
			totalUnits:   10,
			balances:     nil,
			policy:       residualLargestHolder,
			wantPayouts:  nil,
			wantRetained: "10",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			amount := money(tt.amount)
			shares, retained := splitIncome(amount, tt.totalUnits, holdersOf(tt.balances...), tt.policy)

			require.Len(t, shares, len(tt.wantPayouts))
			for i, want := range tt.wantPayouts {
				assert.True(t, money(want).Equal(shares[i].Amount), "holder %d: got %s want %s", i, shares[i].Amount, want)
			}
			assert.True(t, money(tt.wantRetained).Equal(retained), "retained: got %s want %s", retained, tt.wantRetained)
			assert.True(t, amount.Equal(sumShares(shares).Add(retained)))
		})
	}
}

func TestSplitIncome_NeverExceedsPool(t *testing.T) {
	for _, policy := range []residualPolicy{residualPlatform, residualLargestHolder} {
		for units := int64(1); units <= 40; units++ {
			balances := make([]int64, 0, units)
			var held int64
			for i := int64(1); i <= units; i++ {
				balances = append(balances, i%7+1)
				held += i%7 + 1
			}
			total := held + units

			amount := money("999.99")
			shares, retained := splitIncome(amount, total, holdersOf(balances...), policy)

			pool := amount.Mul(decimal.NewFromInt(held)).Div(decimal.NewFromInt(total)).Round(moneyPlaces)
			paid := sumShares(shares)
			assert.True(t, paid.LessThanOrEqual(pool), "policy %s units %d: paid %s > pool %s", policy, units, paid, pool)
			assert.False(t, retained.IsNegative())
			for _, s := range shares {
				assert.False(t, s.Amount.IsNegative())
				assert.True(t, isMoney(s.Amount))
			}
		}
	}
}

func TestParseResidualPolicy(t *testing.T) {
	p, ok := parseResidualPolicy("")
	assert.True(t, ok)
	assert.Equal(t, residualPlatform, p)

	p, ok = parseResidualPolicy("largest_holder")
	assert.True(t, ok)
	assert.Equal(t, residualLargestHolder, p)

	_, ok = parseResidualPolicy("random")
	assert.False(t, ok)
}
