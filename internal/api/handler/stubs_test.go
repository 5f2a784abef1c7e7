package handler

import (
	"context"
	"io"
	"net/http/httptest"

	"github.com/labstack/echo/v4"

	"github.com/homestead/marketplace-api/internal/api/middleware"
	"github.com/homestead/marketplace-api/internal/core/domain"
	"github.com/homestead/marketplace-api/internal/core/ports"
)

func newTestEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

func newContext(e *echo.Echo, method, target, contentType string, body io.Reader) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set(echo.HeaderContentType, contentType)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func withPrincipal(c echo.Context, id string, t domain.AccountType) {
	c.Set(middleware.PrincipalKey, &domain.Principal{ID: id, AccountType: t, AccountStatus: domain.StatusActive})
}

type stubAuthService struct {
	signUpFn         func(ctx context.Context, in ports.SignUpInput) (*ports.AuthResult, error)
	signInFn         func(ctx context.Context, email, password string) (*ports.AuthResult, error)
	callbackFn       func(ctx context.Context, in ports.ExternalCallbackInput) (*ports.AuthResult, error)
	meFn             func(ctx context.Context, userID string) (*domain.User, error)
	updateFn         func(ctx context.Context, userID string, patch domain.UserPatch) (*ports.UpdateResult, error)
	changePasswordFn func(ctx context.Context, userID string, in ports.ChangePasswordInput) error
	forgotFn         func(ctx context.Context, email string) error
	resetFn          func(ctx context.Context, token, newPassword string) error
	deleteFn         func(ctx context.Context, userID string) error
}

func (s *stubAuthService) SignUp(ctx context.Context, in ports.SignUpInput) (*ports.AuthResult, error) {
	return s.signUpFn(ctx, in)
}

func (s *stubAuthService) SignIn(ctx context.Context, email, password string) (*ports.AuthResult, error) {
	return s.signInFn(ctx, email, password)
}

func (s *stubAuthService) ExternalCallback(ctx context.Context, in ports.ExternalCallbackInput) (*ports.AuthResult, error) {
	return s.callbackFn(ctx, in)
}

func (s *stubAuthService) Me(ctx context.Context, userID string) (*domain.User, error) {
	return s.meFn(ctx, userID)
}

func (s *stubAuthService) UpdateUser(ctx context.Context, userID string, patch domain.UserPatch) (*ports.UpdateResult, error) {
	return s.updateFn(ctx, userID, patch)
}

func (s *stubAuthService) ChangePassword(ctx context.Context, userID string, in ports.ChangePasswordInput) error {
	return s.changePasswordFn(ctx, userID, in)
}

func (s *stubAuthService) ForgotPassword(ctx context.Context, email string) error {
	return s.forgotFn(ctx, email)
}

func (s *stubAuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	return s.resetFn(ctx, token, newPassword)
}

func (s *stubAuthService) SignOut(context.Context, string) error { return nil }

func (s *stubAuthService) DeleteAccount(ctx context.Context, userID string) error {
	return s.deleteFn(ctx, userID)
}

type stubPropertyService struct {
	createFn func(ctx context.Context, in ports.CreatePropertyInput) (*domain.Property, error)
	getFn    func(ctx context.Context, id string) (*domain.Property, error)
	mineFn   func(ctx context.Context, ownerID string) ([]*domain.Property, error)
	deleteFn func(ctx context.Context, ownerID, propertyID string) error
}

func (s *stubPropertyService) Create(ctx context.Context, in ports.CreatePropertyInput) (*domain.Property, error) {
	return s.createFn(ctx, in)
}

func (s *stubPropertyService) Get(ctx context.Context, id string) (*domain.Property, error) {
	return s.getFn(ctx, id)
}

func (s *stubPropertyService) ListMine(ctx context.Context, ownerID string) ([]*domain.Property, error) {
	return s.mineFn(ctx, ownerID)
}

func (s *stubPropertyService) Delete(ctx context.Context, ownerID, propertyID string) error {
	return s.deleteFn(ctx, ownerID, propertyID)
}

func (s *stubPropertyService) RemoveAllForOwner(context.Context, string) error { return nil }

type stubAdminService struct {
	listFn   func(ctx context.Context, page, limit int) (*ports.UserPage, error)
	statusFn func(ctx context.Context, userID string, status domain.AccountStatus) (*domain.User, error)
}

func (s *stubAdminService) ListUsers(ctx context.Context, page, limit int) (*ports.UserPage, error) {
	return s.listFn(ctx, page, limit)
}

func (s *stubAdminService) SetStatus(ctx context.Context, userID string, status domain.AccountStatus) (*domain.User, error) {
	return s.statusFn(ctx, userID, status)
}
