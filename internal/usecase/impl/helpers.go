// Package impl contains the implementation of the application's business logic.
package impl

import (
	"bytes"
	"fmt"
	"strconv"

	"propledger/internal/domain/entity"
	domainerrors "propledger/internal/domain/errors"
	"propledger/internal/usecase"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// moneyPlaces is the smallest currency unit, in decimal places.
const moneyPlaces = 2

func newID() uuid.UUID {
	return uuid.Must(uuid.NewV7())
}

func authorize(actor usecase.Actor, action entity.Action) error {
	if !actor.Can(action) {
		return domainerrors.ErrUnauthorized.WithDetails(fmt.Sprintf("role %q may not perform %s", actor.Role, action))
	}

	return nil
}

// authorizeOnAsset adds the ownership check for builder actions on their own listings.
func authorizeOnAsset(actor usecase.Actor, action entity.Action, asset *entity.Asset) error {
	if err := authorize(actor, action); err != nil {
		return err
	}
	if entity.RequiresAssetOwnership(action) && actor.Role == entity.RoleBuilder && asset.OwnerID != actor.UserID {
		return domainerrors.ErrUnauthorized.WithDetails("asset is owned by another builder")
	}

	return nil
}

func isMoney(amount decimal.Decimal) bool {
	return amount.Equal(amount.Round(moneyPlaces))
}

func positiveUnits(units int64) error {
	if units <= 0 {
		return domainerrors.ErrValidationFailed.WithDetails("units must be positive")
	}

	return nil
}

func validationError(format string, args ...any) error {
	return domainerrors.ErrValidationFailed.WithDetails(fmt.Sprintf(format, args...))
}

// metadataInt reads an integer written into history metadata. Values come back as
// float64 or json.Number after a JSON round trip through the store.
func metadataInt(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case float64:
		return int64(n), true
	case string:
		i, err := strconv.ParseInt(n, 10, 64)

		return i, err == nil
	case fmt.Stringer:
		i, err := strconv.ParseInt(n.String(), 10, 64)

		return i, err == nil
	default:
		return 0, false
	}
}

func metadataDecimal(v any) (decimal.Decimal, bool) {
	switch d := v.(type) {
	case decimal.Decimal:
		return d, true
	case string:
		parsed, err := decimal.NewFromString(d)

		return parsed, err == nil
	case float64:
		return decimal.NewFromFloat(d), true
	default:
		return decimal.Zero, false
	}
}

func nullDecimal(d decimal.Decimal) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: d, Valid: true}
}

func compareIDs(a, b uuid.UUID) int {
	return bytes.Compare(a[:], b[:])
}
