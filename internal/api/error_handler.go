package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/homestead/marketplace-api/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error  string              `json:"error"`
	Code   string              `json:"code,omitempty"`
	Fields []domain.FieldError `json:"fields,omitempty"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that maps domain
// errors to status codes and renders errorResponse. Unexpected errors are
// logged with their cause and answered with a generic 500.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, body := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, body)
	}
}

// domainErrors is checked in order; the first match wins.
var domainErrors = []struct {
	target error
	status int
	code   string
}{
	{domain.ErrOAuthAccountExists, http.StatusBadRequest, "OAUTH_ACCOUNT_EXISTS"},
	{domain.ErrWrongAuthMethod, http.StatusBadRequest, "WRONG_AUTH_METHOD"},
	{domain.ErrPasswordMismatch, http.StatusBadRequest, "PASSWORD_MISMATCH"},
	{domain.ErrWrongPassword, http.StatusBadRequest, "WRONG_PASSWORD"},
	{domain.ErrInvalidResetToken, http.StatusBadRequest, "INVALID_RESET_TOKEN"},
	{domain.ErrInvalidCredentials, http.StatusUnauthorized, "INVALID_CREDENTIALS"},
	{domain.ErrUnauthenticated, http.StatusUnauthorized, "UNAUTHENTICATED"},
	{domain.ErrTokenExpired, http.StatusUnauthorized, "UNAUTHENTICATED"},
	{domain.ErrTokenInvalid, http.StatusUnauthorized, "UNAUTHENTICATED"},
	{domain.ErrAccountInactive, http.StatusForbidden, "ACCOUNT_INACTIVE"},
	{domain.ErrListingNotPermitted, http.StatusForbidden, "LISTING_NOT_PERMITTED"},
	{domain.ErrListingQuotaReached, http.StatusForbidden, "LISTING_QUOTA_REACHED"},
	{domain.ErrForbidden, http.StatusForbidden, "FORBIDDEN"},
	{domain.ErrUserNotFound, http.StatusNotFound, "USER_NOT_FOUND"},
	{domain.ErrPropertyNotFound, http.StatusNotFound, "PROPERTY_NOT_FOUND"},
	{domain.ErrUserExists, http.StatusConflict, "USER_EXISTS"},
	{domain.ErrSubmissionInProgress, http.StatusConflict, "SUBMISSION_IN_PROGRESS"},
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, errorResponse) {
	// Echo's own errors (bind failures, 404 from router, middleware rejections).
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, errorResponse{Error: fmt.Sprintf("%v", he.Message)}
	}

	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		return http.StatusBadRequest, errorResponse{
			Error:  "validation failed",
			Code:   "VALIDATION_ERROR",
			Fields: verr.Fields,
		}
	}

	for _, de := range domainErrors {
		if errors.Is(err, de.target) {
			return de.status, errorResponse{Error: de.target.Error(), Code: de.code}
		}
	}

	if errors.Is(err, domain.ErrMediaUpload) {
		log.Error().
			Err(err).
			Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
			Msg("media upload failed")
		return http.StatusBadGateway, errorResponse{Error: domain.ErrMediaUpload.Error(), Code: "MEDIA_UPLOAD_FAILED"}
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
		Msg("unhandled error")

	return http.StatusInternalServerError, errorResponse{Error: "internal server error"}
}
