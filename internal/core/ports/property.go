package ports

import (
	"context"
	"io"

	"github.com/homestead/marketplace-api/internal/core/domain"
)

// PropertyRepository persists listings.
type PropertyRepository interface {
	Create(ctx context.Context, p *domain.Property) (*domain.Property, error)
	FindByID(ctx context.Context, id string) (*domain.Property, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*domain.Property, error)
	Delete(ctx context.Context, id string) error
	// DeleteByOwner removes every listing of ownerID and returns what was removed.
	DeleteByOwner(ctx context.Context, ownerID string) ([]*domain.Property, error)
}

// MediaStorage holds uploaded property media.
type MediaStorage interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader, size int64) (url string, err error)
	Delete(ctx context.Context, key string) error
}

// SubmissionGuard rejects duplicate concurrent submissions.
type SubmissionGuard interface {
	Acquire(ctx context.Context, userID, key string) (bool, error)
	Release(ctx context.Context, userID, key string) error
}

// MediaUpload is one file attached to a property submission.
type MediaUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

// CreatePropertyInput carries a validated listing submission.
type CreatePropertyInput struct {
	OwnerID        string
	IdempotencyKey string
	Title          string
	Description    string
	PropertyType   domain.PropertyType
	ListingType    domain.ListingType
	Price          float64
	Currency       string
	Address        domain.PropertyAddress
	Bedrooms       int
	Bathrooms      int
	AreaSqm        float64
	Media          []MediaUpload
}

type PropertyService interface {
	Create(ctx context.Context, in CreatePropertyInput) (*domain.Property, error)
	Get(ctx context.Context, id string) (*domain.Property, error)
	ListMine(ctx context.Context, ownerID string) ([]*domain.Property, error)
	Delete(ctx context.Context, ownerID, propertyID string) error
	// RemoveAllForOwner is used on account deletion; failures are best effort.
	RemoveAllForOwner(ctx context.Context, ownerID string) error
}
