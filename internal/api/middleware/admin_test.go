package middleware

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/homestead/marketplace-api/internal/core/domain"
	"github.com/homestead/marketplace-api/internal/core/ports"
)

type stubProvider struct {
	email string
	err   error
	calls int
}

func (p *stubProvider) GetIdentity(_ context.Context, externalID string) (*ports.ExternalIdentity, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return &ports.ExternalIdentity{ExternalID: externalID, Email: p.email}, nil
}

func (p *stubProvider) RevokeIdentity(context.Context, string) error { return nil }

func runAdmin(t *testing.T, principal *domain.Principal, provider ports.IdentityProvider) (int, bool) {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/admin/users", nil), rec)
	if principal != nil {
		c.Set(PrincipalKey, principal)
	}

	called := false
	err := AdminOnly("Admin@Example.com", provider, zerolog.New(io.Discard))(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})(c)
	if err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec.Code, called
}

func TestAdminOnly(t *testing.T) {
	tests := []struct {
		name      string
		principal *domain.Principal
		provider  *stubProvider
		wantCode  int
		wantCalls int
	}{
		{
			name:      "admin email matches case-insensitively",
			principal: &domain.Principal{ID: "u1", Email: "admin@example.com", AuthMethod: domain.AuthMethodLocal},
			provider:  &stubProvider{},
			wantCode:  http.StatusOK,
		},
		{
			name:      "external account confirmed by provider",
			principal: &domain.Principal{ID: "u2", Email: "stale@example.com", AuthMethod: domain.AuthMethodExternal, ExternalID: "ext_1"},
			provider:  &stubProvider{email: "ADMIN@example.com"},
			wantCode:  http.StatusOK,
			wantCalls: 1,
		},
		{
			name:      "external account with other provider email",
			principal: &domain.Principal{ID: "u3", Email: "x@example.com", AuthMethod: domain.AuthMethodExternal, ExternalID: "ext_2"},
			provider:  &stubProvider{email: "x@example.com"},
			wantCode:  http.StatusForbidden,
			wantCalls: 1,
		},
		{
			name:      "provider failure denies",
			principal: &domain.Principal{ID: "u4", Email: "x@example.com", AuthMethod: domain.AuthMethodExternal, ExternalID: "ext_3"},
			provider:  &stubProvider{err: errors.New("timeout")},
			wantCode:  http.StatusForbidden,
			wantCalls: 1,
		},
		{
			name:      "local non-admin never hits provider",
			principal: &domain.Principal{ID: "u5", Email: "user@example.com", AuthMethod: domain.AuthMethodLocal},
			provider:  &stubProvider{email: "admin@example.com"},
			wantCode:  http.StatusForbidden,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, called := runAdmin(t, tt.principal, tt.provider)
			if code != tt.wantCode {
				t.Fatalf("code = %d, want %d", code, tt.wantCode)
			}
			if called != (tt.wantCode == http.StatusOK) {
				t.Fatalf("next called = %v", called)
			}
			if tt.provider.calls != tt.wantCalls {
				t.Fatalf("provider calls = %d, want %d", tt.provider.calls, tt.wantCalls)
			}
		})
	}
}

func TestAdminOnly_Unauthenticated(t *testing.T) {
	code, called := runAdmin(t, nil, &stubProvider{})
	if code != http.StatusUnauthorized || called {
		t.Fatalf("code = %d called = %v", code, called)
	}
}
