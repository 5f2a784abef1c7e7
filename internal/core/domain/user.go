package domain

import (
	"strings"
	"time"
)

// AccountType is the marketplace role of a user. The zero value means the
// user has not completed onboarding yet.
type AccountType string

const (
	AccountTypeIndividual AccountType = "individual"
	AccountTypeOwner      AccountType = "owner"
	AccountTypeAgent      AccountType = "agent"
	AccountTypeDeveloper  AccountType = "developer"
)

// Valid reports whether t is one of the known account types. The empty
// account type is not valid input, even though stored users may carry it.
func (t AccountType) Valid() bool {
	switch t {
	case AccountTypeIndividual, AccountTypeOwner, AccountTypeAgent, AccountTypeDeveloper:
		return true
	}
	return false
}

// AccountStatus gates authentication. Only StatusActive may sign in.
type AccountStatus string

const (
	StatusActive    AccountStatus = "active"
	StatusInactive  AccountStatus = "inactive"
	StatusSuspended AccountStatus = "suspended"
	StatusPending   AccountStatus = "pending"
)

func (s AccountStatus) Valid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusSuspended, StatusPending:
		return true
	}
	return false
}

// AuthMethod decides which credential path is valid for a user.
type AuthMethod string

const (
	AuthMethodLocal    AuthMethod = "local"
	AuthMethodExternal AuthMethod = "external"
)

// User is an account holder. Password and reset-token fields never leave the
// server.
type User struct {
	ID            string        `json:"id"`
	FullName      string        `json:"fullName"`
	Email         string        `json:"email"`
	PhoneNumber   string        `json:"phoneNumber,omitempty"`
	PasswordHash  string        `json:"-"`
	ExternalID    string        `json:"externalId,omitempty"`
	AuthMethod    AuthMethod    `json:"authMethod"`
	AccountType   AccountType   `json:"accountType,omitempty"`
	AccountStatus AccountStatus `json:"accountStatus"`
	ListingLimit  int           `json:"listingLimit"`
	ListingCount  int           `json:"listingCount"`
	LastLogin     time.Time     `json:"lastLogin,omitempty"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`

	ResetPasswordToken   string    `json:"-"`
	ResetPasswordExpires time.Time `json:"-"`
}

// ValidateCredentials checks the auth-method invariant: local users carry a
// password hash, external users carry a provider subject id.
func (u *User) ValidateCredentials() error {
	var fields []FieldError
	if u.Email == "" {
		fields = append(fields, FieldError{Field: "email", Message: "email is required"})
	}
	switch u.AuthMethod {
	case AuthMethodLocal:
		if u.PasswordHash == "" {
			fields = append(fields, FieldError{Field: "password", Message: "password is required for local accounts"})
		}
	case AuthMethodExternal:
		if u.ExternalID == "" {
			fields = append(fields, FieldError{Field: "externalId", Message: "externalId is required for external accounts"})
		}
	default:
		fields = append(fields, FieldError{Field: "authMethod", Message: "authMethod must be one of: local external", Value: string(u.AuthMethod)})
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// Principal returns the minimal projection handed to request handlers.
func (u *User) Principal() *Principal {
	return &Principal{
		ID:            u.ID,
		FullName:      u.FullName,
		Email:         u.Email,
		AccountType:   u.AccountType,
		AccountStatus: u.AccountStatus,
		AuthMethod:    u.AuthMethod,
		ExternalID:    u.ExternalID,
	}
}

// Principal is the authenticated caller as seen by downstream handlers.
type Principal struct {
	ID            string        `json:"id"`
	FullName      string        `json:"fullName"`
	Email         string        `json:"email"`
	AccountType   AccountType   `json:"accountType,omitempty"`
	AccountStatus AccountStatus `json:"accountStatus"`
	AuthMethod    AuthMethod    `json:"authMethod"`
	ExternalID    string        `json:"externalId,omitempty"`
}

// TokenIdentity is what a verified session token asserts.
type TokenIdentity struct {
	UserID      string
	AccountType AccountType
	ExpiresAt   time.Time
}

// NormalizeEmail lower-cases and trims an address for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ComposeFullName joins the non-empty, trimmed name parts with one space.
func ComposeFullName(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}
