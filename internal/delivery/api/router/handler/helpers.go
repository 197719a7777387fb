package handler

import (
	"strconv"

	deliverycontext "propledger/internal/delivery/context"
	domainerrors "propledger/internal/domain/errors"
	"propledger/internal/domain/repository"

	"github.com/labstack/echo/v4"
)

// HeaderIdempotencyKey carries the client's order key for buy and sell requests.
const HeaderIdempotencyKey = deliverycontext.HeaderIdempotencyKey

const maxIdempotencyKeyLength = 128

// pagination reads limit and offset query parameters; bad values fall back to defaults.
func pagination(c echo.Context) repository.Pagination {
	var page repository.Pagination
	if v, err := strconv.Atoi(c.QueryParam("limit")); err == nil {
		page.Limit = v
	}
	if v, err := strconv.Atoi(c.QueryParam("offset")); err == nil {
		page.Offset = v
	}

	return page.Normalize()
}

// bindOptional binds and validates a request body that may be omitted entirely.
func bindOptional(c echo.Context, req any) error {
	if c.Request().ContentLength == 0 {
		return nil
	}
	if err := c.Bind(req); err != nil {
		return domainerrors.ErrValidationFailed.WithDetails("malformed request body")
	}
	if err := c.Validate(req); err != nil {
		return domainerrors.ErrValidationFailed.WithDetails(err.Error())
	}

	return nil
}
