package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/homestead/marketplace-api/internal/api/metrics"
	"github.com/homestead/marketplace-api/internal/core/domain"
	"github.com/homestead/marketplace-api/internal/core/ports"
)

// AdminOnly must run after Authenticate. It admits the configured admin email,
// or an external account whose provider record currently carries that email.
func AdminOnly(adminEmail string, provider ports.IdentityProvider, log zerolog.Logger) echo.MiddlewareFunc {
	adminEmail = domain.NormalizeEmail(adminEmail)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p, ok := PrincipalFrom(c)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}
			if adminEmail != "" && strings.EqualFold(p.Email, adminEmail) {
				return next(c)
			}

			if adminEmail != "" && p.AuthMethod == domain.AuthMethodExternal && p.ExternalID != "" && provider != nil {
				ident, err := provider.GetIdentity(c.Request().Context(), p.ExternalID)
				if err != nil {
					log.Warn().Err(err).Str("user_id", p.ID).Msg("admin re-check against provider failed")
				} else if strings.EqualFold(ident.Email, adminEmail) {
					return next(c)
				}
			}

			metrics.AuthRejectionsTotal.WithLabelValues("not_admin").Inc()
			audit(log.Warn(), c, "not_admin", p.ID).Msg("admin access denied")
			return echo.NewHTTPError(http.StatusForbidden, "admin access required")
		}
	}
}
