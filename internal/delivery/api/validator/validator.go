// Package validator adapts go-playground/validator to echo.
package validator

import (
	"strings"

	"propledger/internal/util"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// Validator implements echo.Validator.
type Validator struct {
	validate *validator.Validate
}

// New creates a validator with the ledger's custom rules registered.
//
//   - money: a non-negative decimal string with at most two decimal places
//   - period: a YYYY-MM month
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("money", validateMoney)
	_ = v.RegisterValidation("period", validatePeriod)

	return &Validator{validate: v}
}

// Validate validates a bound request struct.
func (v *Validator) Validate(i any) error {
	if err := v.validate.Struct(i); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			return errors.New(describe(fieldErrs))
		}

		return errors.WithStack(err)
	}

	return nil
}

func describe(fieldErrs validator.ValidationErrors) string {
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fe.Field()+" is required")
		case "money":
			msgs = append(msgs, fe.Field()+" must be an amount with at most 2 decimals")
		case "period":
			msgs = append(msgs, fe.Field()+" must be formatted as YYYY-MM")
		case "eth_addr":
			msgs = append(msgs, fe.Field()+" must be an Ethereum address")
		default:
			msgs = append(msgs, fe.Field()+" failed "+fe.Tag())
		}
	}

	return strings.Join(msgs, "; ")
}

func validateMoney(fl validator.FieldLevel) bool {
	d, err := decimal.NewFromString(fl.Field().String())
	if err != nil {
		return false
	}

	return !d.IsNegative() && d.Equal(d.Round(2))
}

func validatePeriod(fl validator.FieldLevel) bool {
	_, err := util.ParsePeriod(fl.Field().String())

	return err == nil
}
