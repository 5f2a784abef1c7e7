package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/homestead/marketplace-api/internal/core/domain"
	"github.com/homestead/marketplace-api/internal/core/ports"
)

const minPasswordLength = 6

// ListingCleaner removes a user's listings when the account goes away.
type ListingCleaner interface {
	RemoveAllForOwner(ctx context.Context, ownerID string) error
}

// AuthDeps groups the collaborators of AuthService.
type AuthDeps struct {
	Users    ports.UserRepository
	Tokens   ports.TokenService
	Provider ports.IdentityProvider
	Logins   ports.LoginRecorder
	Mailer   ports.Mailer
	Throttle ports.ResetThrottle
	Listings ListingCleaner
	// FrontendOrigin is the base of the password-reset link.
	FrontendOrigin string
}

// AuthService implements local and external sign-in, profile updates and
// the password lifecycle.
type AuthService struct {
	AuthDeps
	log zerolog.Logger
	now func() time.Time
}

func NewAuthService(deps AuthDeps, log zerolog.Logger) *AuthService {
	return &AuthService{AuthDeps: deps, log: log, now: time.Now}
}

func (s *AuthService) SignUp(ctx context.Context, in ports.SignUpInput) (*ports.AuthResult, error) {
	if in.AccountType != "" && !in.AccountType.Valid() {
		return nil, domain.NewValidationError("accountType", "accountType must be one of: individual owner agent developer", string(in.AccountType))
	}
	if len(in.Password) < minPasswordLength {
		return nil, domain.NewValidationError("password", fmt.Sprintf("password must be at least %d characters", minPasswordLength), nil)
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	user := &domain.User{
		FullName:      strings.TrimSpace(in.FullName),
		Email:         domain.NormalizeEmail(in.Email),
		PasswordHash:  hash,
		AuthMethod:    domain.AuthMethodLocal,
		AccountType:   in.AccountType,
		AccountStatus: domain.StatusActive,
		ListingLimit:  domain.ListingLimit(in.AccountType),
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	created, err := s.Users.Create(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("sign up: %w", err)
	}

	s.log.Info().Str("user_id", created.ID).Str("auth_method", string(created.AuthMethod)).Msg("user signed up")
	return s.startSession(created)
}

func (s *AuthService) SignIn(ctx context.Context, email, password string) (*ports.AuthResult, error) {
	user, err := s.Users.FindByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("sign in: %w", err)
	}

	if user.AuthMethod == domain.AuthMethodExternal {
		return nil, domain.ErrOAuthAccountExists
	}
	if err := VerifyPassword(user, password); err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			s.log.Info().Str("user_id", user.ID).Msg("sign in rejected: wrong password")
		}
		return nil, err
	}
	if user.AccountStatus != domain.StatusActive {
		return nil, domain.ErrAccountInactive
	}

	return s.startSession(user)
}

// ExternalCallback reconciles a provider sign-in with a local user. The
// caller must already have validated the provider's assertion.
func (s *AuthService) ExternalCallback(ctx context.Context, in ports.ExternalCallbackInput) (*ports.AuthResult, error) {
	externalID := strings.TrimSpace(in.ExternalID)
	email := domain.NormalizeEmail(in.Email)
	if externalID == "" {
		return nil, domain.NewValidationError("externalId", "externalId is required", nil)
	}

	user, err := s.resolveExternal(ctx, externalID, email)
	if errors.Is(err, domain.ErrUserNotFound) {
		user, err = s.createExternal(ctx, in, externalID, email)
	}
	if err != nil {
		return nil, fmt.Errorf("external callback: %w", err)
	}

	if user.AccountStatus != domain.StatusActive {
		return nil, domain.ErrAccountInactive
	}
	return s.startSession(user)
}

// resolveExternal looks up by external id first and by email second.
func (s *AuthService) resolveExternal(ctx context.Context, externalID, email string) (*domain.User, error) {
	if externalID != "" {
		user, err := s.Users.FindByExternalID(ctx, externalID)
		if err == nil {
			return user, nil
		}
		if !errors.Is(err, domain.ErrUserNotFound) {
			return nil, err
		}
	}
	if email == "" {
		return nil, domain.ErrUserNotFound
	}
	return s.Users.FindByEmail(ctx, email)
}

func (s *AuthService) createExternal(ctx context.Context, in ports.ExternalCallbackInput, externalID, email string) (*domain.User, error) {
	now := s.now().UTC()
	created, err := s.Users.Create(ctx, &domain.User{
		FullName:      domain.ComposeFullName(in.FirstName, in.LastName),
		Email:         email,
		ExternalID:    externalID,
		AuthMethod:    domain.AuthMethodExternal,
		AccountStatus: domain.StatusActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
	if errors.Is(err, domain.ErrUserExists) {
		// A concurrent callback created the record between lookup and insert.
		return s.resolveExternal(ctx, externalID, email)
	}
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("user_id", created.ID).Str("external_id", externalID).Msg("external user created")
	return created, nil
}

func (s *AuthService) Me(ctx context.Context, userID string) (*domain.User, error) {
	return s.Users.FindByID(ctx, userID)
}

func (s *AuthService) UpdateUser(ctx context.Context, userID string, patch domain.UserPatch) (*ports.UpdateResult, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	user, err := s.Users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	res := patch.Apply(user, s.now().UTC())
	if res.Changed {
		if err := s.Users.Update(ctx, user); err != nil {
			return nil, fmt.Errorf("update user: %w", err)
		}
	}

	out := &ports.UpdateResult{User: user}
	if res.AccountTypeChanged {
		// TTL depends on the account type, so the caller gets a new token.
		token, exp, err := s.Tokens.Issue(user.ID, user.AccountType, 0)
		if err != nil {
			return nil, err
		}
		out.Token, out.ExpiresAt = token, exp
		s.log.Info().Str("user_id", user.ID).Str("account_type", string(user.AccountType)).Msg("account type changed")
	}
	return out, nil
}

func (s *AuthService) ChangePassword(ctx context.Context, userID string, in ports.ChangePasswordInput) error {
	user, err := s.Users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.AuthMethod != domain.AuthMethodLocal {
		return domain.ErrWrongAuthMethod
	}
	if in.NewPassword != in.ConfirmPassword {
		return domain.ErrPasswordMismatch
	}
	if len(in.NewPassword) < minPasswordLength {
		return domain.NewValidationError("newPassword", fmt.Sprintf("newPassword must be at least %d characters", minPasswordLength), nil)
	}
	if err := VerifyPassword(user, in.CurrentPassword); err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			return domain.ErrWrongPassword
		}
		return err
	}

	return s.setPassword(ctx, user, in.NewPassword)
}

// ForgotPassword never reports whether the address is registered.
//
// Two concurrent requests for one user both succeed; the later stored token
// replaces the earlier one.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	email = domain.NormalizeEmail(email)
	log := s.log.With().Str("op", "forgot_password").Logger()

	user, err := s.Users.FindByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, domain.ErrUserNotFound) {
			log.Error().Err(err).Msg("lookup failed")
		}
		return nil
	}
	if user.AuthMethod != domain.AuthMethodLocal {
		log.Info().Str("user_id", user.ID).Msg("reset skipped for external account")
		return nil
	}

	if s.Throttle != nil {
		allowed, err := s.Throttle.AllowReset(ctx, email)
		if err != nil {
			log.Warn().Err(err).Msg("reset throttle unavailable, continuing")
		} else if !allowed {
			log.Info().Str("user_id", user.ID).Msg("reset throttled")
			return nil
		}
	}

	token, expires, err := s.Tokens.IssuePasswordReset(user.ID)
	if err != nil {
		log.Error().Err(err).Msg("issue reset token")
		return nil
	}
	if err := s.Users.SetResetToken(ctx, user.ID, token, expires); err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("store reset token")
		return nil
	}

	link := strings.TrimRight(s.FrontendOrigin, "/") + "/reset-password?token=" + url.QueryEscape(token)
	if err := s.Mailer.SendPasswordReset(ctx, user.Email, user.FullName, link); err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("send reset email")
		return nil
	}

	log.Info().Str("user_id", user.ID).Time("expires", expires).Msg("reset email sent")
	return nil
}

func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if len(newPassword) < minPasswordLength {
		return domain.NewValidationError("newPassword", fmt.Sprintf("newPassword must be at least %d characters", minPasswordLength), nil)
	}

	userID, err := s.Tokens.VerifyPasswordReset(token)
	if err != nil {
		return domain.ErrInvalidResetToken
	}

	// The stored copy makes reset tokens revocable and single-use.
	user, err := s.Users.FindByResetToken(ctx, token, s.now().UTC())
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.ErrInvalidResetToken
		}
		return fmt.Errorf("reset password: %w", err)
	}
	if user.ID != userID {
		return domain.ErrInvalidResetToken
	}
	if user.AuthMethod != domain.AuthMethodLocal {
		return domain.ErrWrongAuthMethod
	}

	return s.setPassword(ctx, user, newPassword)
}

func (s *AuthService) SignOut(_ context.Context, userID string) error {
	s.log.Info().Str("user_id", userID).Msg("user signed out")
	return nil
}

// DeleteAccount removes the user, their listings, and best-effort revokes
// the linked external identity.
func (s *AuthService) DeleteAccount(ctx context.Context, userID string) error {
	user, err := s.Users.FindByID(ctx, userID)
	if err != nil {
		return err
	}

	if s.Listings != nil {
		if err := s.Listings.RemoveAllForOwner(ctx, user.ID); err != nil {
			s.log.Warn().Err(err).Str("user_id", user.ID).Msg("listing cleanup incomplete")
		}
	}

	if err := s.Users.Delete(ctx, user.ID); err != nil {
		return fmt.Errorf("delete account: %w", err)
	}

	if user.AuthMethod == domain.AuthMethodExternal && user.ExternalID != "" && s.Provider != nil {
		if err := s.Provider.RevokeIdentity(ctx, user.ExternalID); err != nil {
			s.log.Warn().Err(err).Str("user_id", user.ID).Msg("external identity revoke failed")
		}
	}

	s.log.Info().Str("user_id", user.ID).Msg("account deleted")
	return nil
}

func (s *AuthService) setPassword(ctx context.Context, user *domain.User, password string) error {
	hash, err := HashPassword(password)
	if err != nil {
		return err
	}
	if err := s.Users.SetPasswordHash(ctx, user.ID, hash); err != nil {
		return fmt.Errorf("set password: %w", err)
	}
	user.PasswordHash = hash
	user.ResetPasswordToken = ""
	user.ResetPasswordExpires = time.Time{}
	s.log.Info().Str("user_id", user.ID).Msg("password changed")
	return nil
}

func (s *AuthService) startSession(user *domain.User) (*ports.AuthResult, error) {
	token, exp, err := s.Tokens.Issue(user.ID, user.AccountType, 0)
	if err != nil {
		return nil, err
	}
	if s.Logins != nil {
		s.Logins.RecordLogin(user.ID)
	}
	return &ports.AuthResult{Token: token, ExpiresAt: exp, User: user}, nil
}
