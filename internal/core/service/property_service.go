package service

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/homestead/marketplace-api/internal/core/domain"
	"github.com/homestead/marketplace-api/internal/core/ports"
	"github.com/homestead/marketplace-api/internal/pkg/ids"
)

const maxMediaPerProperty = 20

// PropertyService runs the listing workflow: eligibility, upload, insert,
// and cleanup of uploaded media when a later step fails.
type PropertyService struct {
	properties   ports.PropertyRepository
	users        ports.UserRepository
	storage      ports.MediaStorage
	guard        ports.SubmissionGuard
	enforceQuota bool
	log          zerolog.Logger
	now          func() time.Time
	newKey       func(ownerID, filename string) string
}

func NewPropertyService(
	properties ports.PropertyRepository,
	users ports.UserRepository,
	storage ports.MediaStorage,
	guard ports.SubmissionGuard,
	enforceQuota bool,
	log zerolog.Logger,
) *PropertyService {
	return &PropertyService{
		properties:   properties,
		users:        users,
		storage:      storage,
		guard:        guard,
		enforceQuota: enforceQuota,
		log:          log,
		now:          time.Now,
		newKey:       mediaKey,
	}
}

// mediaKey returns properties/<owner>/<ulid><ext>.
func mediaKey(ownerID, filename string) string {
	return fmt.Sprintf("properties/%s/%s%s", ownerID, ids.New(), strings.ToLower(path.Ext(filename)))
}

func (s *PropertyService) Create(ctx context.Context, in ports.CreatePropertyInput) (*domain.Property, error) {
	owner, err := s.users.FindByID(ctx, in.OwnerID)
	if err != nil {
		return nil, err
	}
	if err := s.checkEligibility(owner); err != nil {
		return nil, err
	}
	if err := validateMedia(in.Media); err != nil {
		return nil, err
	}

	if in.IdempotencyKey != "" && s.guard != nil {
		acquired, err := s.guard.Acquire(ctx, owner.ID, in.IdempotencyKey)
		switch {
		case err != nil:
			s.log.Warn().Err(err).Str("user_id", owner.ID).Msg("submission guard unavailable, continuing")
		case !acquired:
			return nil, domain.ErrSubmissionInProgress
		}
	}

	created, err := s.createWithMedia(ctx, owner, in)
	if err != nil {
		// Let the client retry with the same key.
		if in.IdempotencyKey != "" && s.guard != nil {
			if relErr := s.guard.Release(ctx, owner.ID, in.IdempotencyKey); relErr != nil {
				s.log.Warn().Err(relErr).Str("user_id", owner.ID).Msg("release submission guard")
			}
		}
		return nil, err
	}

	if err := s.users.IncrementListingCount(ctx, owner.ID, 1); err != nil {
		s.log.Error().Err(err).Str("user_id", owner.ID).Str("property_id", created.ID).Msg("listing count increment failed")
	}

	s.log.Info().
		Str("property_id", created.ID).
		Str("user_id", owner.ID).
		Int("media", len(created.Media)).
		Msg("property created")
	return created, nil
}

func (s *PropertyService) checkEligibility(owner *domain.User) error {
	if owner.AccountStatus != domain.StatusActive {
		return domain.ErrAccountInactive
	}
	if !domain.CanAddProperties(owner) {
		return domain.ErrListingNotPermitted
	}
	if domain.NeedsOnboarding(owner) {
		s.log.Warn().Str("user_id", owner.ID).Msg("listing by user without account type")
	}
	if s.enforceQuota && !domain.UnderListingQuota(owner) {
		return domain.ErrListingQuotaReached
	}
	return nil
}

func validateMedia(media []ports.MediaUpload) error {
	if len(media) > maxMediaPerProperty {
		return domain.NewValidationError("media", fmt.Sprintf("at most %d files are allowed", maxMediaPerProperty), len(media))
	}
	var fields []domain.FieldError
	for _, m := range media {
		if !strings.HasPrefix(m.ContentType, "image/") && !strings.HasPrefix(m.ContentType, "video/") {
			fields = append(fields, domain.FieldError{Field: "media", Message: "only image and video files are accepted", Value: m.Filename})
		}
	}
	if len(fields) > 0 {
		return &domain.ValidationError{Fields: fields}
	}
	return nil
}

func (s *PropertyService) createWithMedia(ctx context.Context, owner *domain.User, in ports.CreatePropertyInput) (*domain.Property, error) {
	uploaded := make([]domain.Media, 0, len(in.Media))
	for _, m := range in.Media {
		media, err := s.upload(ctx, owner.ID, m)
		if err != nil {
			s.cleanupMedia(ctx, uploaded)
			return nil, err
		}
		uploaded = append(uploaded, media)
	}

	now := s.now().UTC()
	created, err := s.properties.Create(ctx, &domain.Property{
		OwnerID:      owner.ID,
		Title:        strings.TrimSpace(in.Title),
		Description:  strings.TrimSpace(in.Description),
		PropertyType: in.PropertyType,
		ListingType:  in.ListingType,
		Price:        in.Price,
		Currency:     strings.ToUpper(in.Currency),
		Address:      in.Address,
		Bedrooms:     in.Bedrooms,
		Bathrooms:    in.Bathrooms,
		AreaSqm:      in.AreaSqm,
		Media:        uploaded,
		Status:       domain.PropertyActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		s.cleanupMedia(ctx, uploaded)
		return nil, fmt.Errorf("create property: %w", err)
	}
	return created, nil
}

func (s *PropertyService) upload(ctx context.Context, ownerID string, m ports.MediaUpload) (domain.Media, error) {
	body, err := m.Open()
	if err != nil {
		return domain.Media{}, fmt.Errorf("%w: open %s: %v", domain.ErrMediaUpload, m.Filename, err)
	}
	defer body.Close()

	key := s.newKey(ownerID, m.Filename)
	url, err := s.storage.Upload(ctx, key, m.ContentType, body, m.Size)
	if err != nil {
		return domain.Media{}, fmt.Errorf("%w: %s: %v", domain.ErrMediaUpload, m.Filename, err)
	}
	return domain.Media{Key: key, URL: url, ContentType: m.ContentType, Size: m.Size}, nil
}

// cleanupMedia is best effort; leftovers are logged for manual removal.
func (s *PropertyService) cleanupMedia(ctx context.Context, media []domain.Media) {
	for _, m := range media {
		if err := s.storage.Delete(ctx, m.Key); err != nil {
			s.log.Warn().Err(err).Str("key", m.Key).Msg("media cleanup failed")
		}
	}
}

func (s *PropertyService) Get(ctx context.Context, id string) (*domain.Property, error) {
	return s.properties.FindByID(ctx, id)
}

func (s *PropertyService) ListMine(ctx context.Context, ownerID string) ([]*domain.Property, error) {
	return s.properties.ListByOwner(ctx, ownerID)
}

func (s *PropertyService) Delete(ctx context.Context, ownerID, propertyID string) error {
	p, err := s.properties.FindByID(ctx, propertyID)
	if err != nil {
		return err
	}
	if p.OwnerID != ownerID {
		return domain.ErrForbidden
	}
	if err := s.properties.Delete(ctx, p.ID); err != nil {
		return fmt.Errorf("delete property: %w", err)
	}
	if err := s.users.IncrementListingCount(ctx, ownerID, -1); err != nil {
		s.log.Error().Err(err).Str("user_id", ownerID).Msg("listing count decrement failed")
	}
	s.cleanupMedia(ctx, p.Media)
	return nil
}

func (s *PropertyService) RemoveAllForOwner(ctx context.Context, ownerID string) error {
	removed, err := s.properties.DeleteByOwner(ctx, ownerID)
	if err != nil && !errors.Is(err, domain.ErrPropertyNotFound) {
		return err
	}
	for _, p := range removed {
		s.cleanupMedia(ctx, p.Media)
	}
	return nil
}
