package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/homestead/marketplace-api/internal/api/middleware"
	"github.com/homestead/marketplace-api/internal/core/domain"
)

// principal returns the caller attached by the Authenticate middleware.
// Missing means the route was wired without it, which is treated as 401.
func principal(c echo.Context) (*domain.Principal, error) {
	p, ok := middleware.PrincipalFrom(c)
	if !ok || p.ID == "" {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication")
	}
	return p, nil
}

// bindAndValidate decodes the request into req and runs struct validation.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	return c.Validate(req)
}
