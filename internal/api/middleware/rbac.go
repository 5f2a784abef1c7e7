package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/homestead/marketplace-api/internal/core/domain"
)

// ListingAccess rejects principals that may not create listings before the
// request body is read. The service repeats the check against fresh data.
func ListingAccess() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p, ok := PrincipalFrom(c)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}
			if !domain.CanAddProperties(&domain.User{AccountType: p.AccountType, AccountStatus: p.AccountStatus}) {
				return domain.ErrListingNotPermitted
			}
			return next(c)
		}
	}
}
