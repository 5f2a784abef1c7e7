package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/homestead/marketplace-api/internal/api/metrics"
	"github.com/homestead/marketplace-api/internal/core/domain"
	"github.com/homestead/marketplace-api/internal/core/ports"
)

type AuthHandler struct {
	authService ports.AuthService
	now         func() time.Time
}

func NewAuthHandler(authService ports.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService, now: time.Now}
}

func (h *AuthHandler) authResponse(res *ports.AuthResult) authResponse {
	countIssued(res.User)
	return authResponse{Token: res.Token, ExpiresIn: h.expiresIn(res.ExpiresAt), User: res.User}
}

func countIssued(u *domain.User) {
	label := "unset"
	if u != nil && u.AccountType != "" {
		label = string(u.AccountType)
	}
	metrics.TokensIssuedTotal.WithLabelValues(label).Inc()
}

// expiresIn is the remaining token lifetime in seconds.
func (h *AuthHandler) expiresIn(exp time.Time) int64 {
	secs := int64(exp.Sub(h.now()).Seconds())
	if secs < 0 {
		return 0
	}
	return secs
}

func observeAttempt(method string, err error) {
	result := "ok"
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrInvalidCredentials):
		result = "invalid_credentials"
	case errors.Is(err, domain.ErrOAuthAccountExists):
		result = "oauth_account"
	case errors.Is(err, domain.ErrAccountInactive):
		result = "inactive"
	case errors.Is(err, domain.ErrUserExists):
		result = "exists"
	default:
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			result = "validation"
		} else {
			result = "error"
		}
	}
	metrics.AuthAttemptsTotal.WithLabelValues(method, result).Inc()
}

// SignUp creates a local account and starts a session.
//
// @Summary      Sign up with email and password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      signUpRequest  true  "Account details"
// @Success      201   {object}  authResponse
// @Failure      400   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      500   {object}  errorResponse
// @Router       /auth/signup [post]
func (h *AuthHandler) SignUp(c echo.Context) error {
	var req signUpRequest
	if err := bindAndValidate(c, &req); err != nil {
		observeAttempt("signup", err)
		return err
	}

	res, err := h.authService.SignUp(c.Request().Context(), ports.SignUpInput{
		FullName:    req.FullName,
		Email:       req.Email,
		Password:    req.Password,
		AccountType: domain.AccountType(req.AccountType),
	})
	observeAttempt("signup", err)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, h.authResponse(res))
}

// SignIn authenticates a local account.
//
// @Summary      Sign in with email and password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      signInRequest  true  "Credentials"
// @Success      200   {object}  authResponse
// @Failure      400   {object}  errorResponse  "validation error or OAUTH_ACCOUNT_EXISTS"
// @Failure      401   {object}  errorResponse
// @Failure      403   {object}  errorResponse  "ACCOUNT_INACTIVE"
// @Router       /auth/signin [post]
func (h *AuthHandler) SignIn(c echo.Context) error {
	var req signInRequest
	if err := bindAndValidate(c, &req); err != nil {
		observeAttempt("signin", err)
		return err
	}

	res, err := h.authService.SignIn(c.Request().Context(), req.Email, req.Password)
	observeAttempt("signin", err)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, h.authResponse(res))
}

// Callback upserts the local user for an external provider sign-in. The
// server-side provider integration must have verified the assertion.
//
// @Summary      External identity callback
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      callbackRequest  true  "Provider profile"
// @Success      200   {object}  authResponse
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse  "ACCOUNT_INACTIVE"
// @Router       /auth/callback [post]
func (h *AuthHandler) Callback(c echo.Context) error {
	var req callbackRequest
	if err := bindAndValidate(c, &req); err != nil {
		observeAttempt("callback", err)
		return err
	}

	res, err := h.authService.ExternalCallback(c.Request().Context(), ports.ExternalCallbackInput{
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Email:      req.Email,
		ExternalID: req.ExternalID,
	})
	observeAttempt("callback", err)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, h.authResponse(res))
}

// Me returns the authenticated user.
//
// @Summary      Current user
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  userResponse
// @Failure      401  {object}  errorResponse
// @Router       /auth/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	user, err := h.authService.Me(c.Request().Context(), p.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, userResponse{User: user})
}

// UpdateUser applies a partial profile update. A new token is returned only
// when the account type changed.
//
// @Summary      Update profile
// @Tags         auth
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      updateUserRequest  true  "Fields to change"
// @Success      200   {object}  updateUserResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Router       /auth/update-user [put]
func (h *AuthHandler) UpdateUser(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req updateUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	res, err := h.authService.UpdateUser(c.Request().Context(), p.ID, req.patch())
	if err != nil {
		return err
	}

	out := updateUserResponse{User: res.User}
	if res.Token != "" {
		countIssued(res.User)
		out.Token = res.Token
		out.ExpiresIn = h.expiresIn(res.ExpiresAt)
	}
	return c.JSON(http.StatusOK, out)
}

// ChangePassword replaces the password of a local account.
//
// @Summary      Change password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      changePasswordRequest  true  "Current and new password"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  errorResponse  "PASSWORD_MISMATCH, WRONG_AUTH_METHOD or WRONG_PASSWORD"
// @Failure      401   {object}  errorResponse
// @Router       /auth/change-password [put]
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req changePasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	err = h.authService.ChangePassword(c.Request().Context(), p.ID, ports.ChangePasswordInput{
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "password updated"})
}

// ForgotPassword always answers with the same message.
//
// @Summary      Request a password reset email
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      forgotPasswordRequest  true  "Account email"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  errorResponse
// @Router       /auth/forgot-password [post]
func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	var req forgotPasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if err := h.authService.ForgotPassword(c.Request().Context(), req.Email); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{
		Message: "if an account exists for that email, a reset link has been sent",
	})
}

// ResetPassword consumes a reset token.
//
// @Summary      Reset password with a mailed token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      resetPasswordRequest  true  "Token and new password"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  errorResponse  "INVALID_RESET_TOKEN"
// @Router       /auth/reset-password [post]
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req resetPasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if err := h.authService.ResetPassword(c.Request().Context(), req.Token, req.NewPassword); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "password has been reset"})
}

// SignOut acknowledges a client-side sign-out. Session tokens are stateless.
//
// @Summary      Sign out
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  messageResponse
// @Failure      401  {object}  errorResponse
// @Router       /auth/signout [post]
func (h *AuthHandler) SignOut(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	if err := h.authService.SignOut(c.Request().Context(), p.ID); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "signed out"})
}

// DeleteAccount removes the caller's account and listings.
//
// @Summary      Delete account
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  messageResponse
// @Failure      401  {object}  errorResponse
// @Router       /auth/account [delete]
func (h *AuthHandler) DeleteAccount(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	if err := h.authService.DeleteAccount(c.Request().Context(), p.ID); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "account deleted"})
}
