package ports

import "context"

// ExternalIdentity is the provider's current record for a linked account.
type ExternalIdentity struct {
	ExternalID string
	Email      string
}

// IdentityProvider talks to the external OAuth provider's backend API.
type IdentityProvider interface {
	GetIdentity(ctx context.Context, externalID string) (*ExternalIdentity, error)
	RevokeIdentity(ctx context.Context, externalID string) error
}

// LoginRecorder schedules the fire-and-forget lastLogin refresh.
type LoginRecorder interface {
	RecordLogin(userID string)
}

// Mailer delivers transactional email.
type Mailer interface {
	SendPasswordReset(ctx context.Context, to, fullName, link string) error
}

// ResetThrottle limits how often reset mail goes to one address.
type ResetThrottle interface {
	AllowReset(ctx context.Context, email string) (bool, error)
}
