package postgres

import (
	"strings"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type constraintKind int

const (
	constraintNone constraintKind = iota
	constraintUnique
	constraintForeignKey
	constraintCheck
)

// Ledger balances are guarded by CHECK constraints (cash_balance >= 0, balance >= 0, ...),
// so a check violation means a concurrent writer won the race for the same funds or units.
var constraintSQLStates = []struct {
	kind     constraintKind
	gormErr  error
	sqlState string
}{
	{constraintUnique, gorm.ErrDuplicatedKey, "sqlstate 23505"},
	{constraintForeignKey, gorm.ErrForeignKeyViolated, "sqlstate 23503"},
	{constraintCheck, gorm.ErrCheckConstraintViolated, "sqlstate 23514"},
}

// classifyConstraint matches gorm's translated errors first; the pgx driver only
// yields them when TranslateError is on, so SQLSTATE codes are the fallback.
func classifyConstraint(err error) constraintKind {
	if err == nil {
		return constraintNone
	}

	msg := strings.ToLower(err.Error())
	for _, c := range constraintSQLStates {
		if errors.Is(err, c.gormErr) || strings.Contains(msg, c.sqlState) {
			return c.kind
		}
	}
	if strings.Contains(msg, "duplicate key") {
		return constraintUnique
	}

	return constraintNone
}

func isUniqueConstraintViolation(err error) bool {
	return classifyConstraint(err) == constraintUnique
}

func isForeignKeyConstraintViolation(err error) bool {
	return classifyConstraint(err) == constraintForeignKey
}

func isCheckConstraintViolation(err error) bool {
	return classifyConstraint(err) == constraintCheck
}
