package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/homestead/marketplace-api/internal/api/metrics"
	"github.com/homestead/marketplace-api/internal/core/domain"
)

// PrincipalKey is the echo context key holding the authenticated *domain.Principal.
const PrincipalKey = "principal"

// TokenVerifier checks a session token.
type TokenVerifier interface {
	Verify(token string) (*domain.TokenIdentity, error)
}

// UserLoader fetches the current user record for a verified subject.
type UserLoader interface {
	FindByID(ctx context.Context, id string) (*domain.User, error)
}

// Authenticate validates the bearer token, loads the user and rejects
// accounts that are not active. On success the principal is attached under
// PrincipalKey.
func Authenticate(tokens TokenVerifier, users UserLoader, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			reject := func(reason, userID, msg string) error {
				metrics.AuthRejectionsTotal.WithLabelValues(reason).Inc()
				audit(log.Warn(), c, reason, userID).Msg("authentication rejected")
				return echo.NewHTTPError(http.StatusUnauthorized, msg)
			}

			raw, reason := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if reason != "" {
				return reject(reason, "", "missing or malformed authorization header")
			}

			ident, err := tokens.Verify(raw)
			if err != nil {
				// Both cases look the same to the client.
				reason := "token_invalid"
				if errors.Is(err, domain.ErrTokenExpired) {
					reason = "token_expired"
				}
				return reject(reason, "", "invalid or expired token")
			}

			user, err := users.FindByID(c.Request().Context(), ident.UserID)
			if err != nil {
				if errors.Is(err, domain.ErrUserNotFound) {
					return reject("user_not_found", ident.UserID, "user not found")
				}
				metrics.AuthRejectionsTotal.WithLabelValues("user_load_failed").Inc()
				audit(log.Error(), c, "user_load_failed", ident.UserID).Err(err).Msg("authentication failed")
				return err
			}
			if user.AccountStatus != domain.StatusActive {
				return reject("account_inactive", user.ID, "account inactive")
			}

			c.Set(PrincipalKey, user.Principal())
			audit(log.Info(), c, "ok", user.ID).Msg("authenticated")
			return next(c)
		}
	}
}

// bearerToken returns the token or a rejection reason.
func bearerToken(header string) (string, string) {
	if header == "" {
		return "", "missing_header"
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", "malformed_header"
	}
	return strings.TrimSpace(parts[1]), ""
}

func audit(ev *zerolog.Event, c echo.Context, reason, userID string) *zerolog.Event {
	req := c.Request()
	ev = ev.
		Str("method", req.Method).
		Str("path", req.URL.Path).
		Str("ip", c.RealIP()).
		Str("user_agent", req.UserAgent()).
		Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
		Str("reason", reason)
	if userID != "" {
		ev = ev.Str("user_id", userID)
	}
	return ev
}

// PrincipalFrom returns the principal attached by Authenticate.
func PrincipalFrom(c echo.Context) (*domain.Principal, bool) {
	p, ok := c.Get(PrincipalKey).(*domain.Principal)
	return p, ok && p != nil
}
