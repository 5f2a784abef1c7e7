package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/homestead/marketplace-api/internal/core/domain"
	"github.com/homestead/marketplace-api/internal/core/ports"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
	maxPage          = 100000
)

type AdminService struct {
	users ports.UserRepository
	log   zerolog.Logger
}

func NewAdminService(users ports.UserRepository, log zerolog.Logger) *AdminService {
	return &AdminService{users: users, log: log}
}

// ListUsers returns one page of users, newest first.
func (s *AdminService) ListUsers(ctx context.Context, page, limit int) (*ports.UserPage, error) {
	if page < 1 {
		page = 1
	}
	if page > maxPage {
		page = maxPage
	}
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	items, total, err := s.users.List(ctx, page, limit)
	if err != nil {
		return nil, err
	}

	totalPages := int(total) / limit
	if int(total)%limit != 0 {
		totalPages++
	}
	return &ports.UserPage{Items: items, Total: total, Page: page, Limit: limit, TotalPages: totalPages}, nil
}

func (s *AdminService) SetStatus(ctx context.Context, userID string, status domain.AccountStatus) (*domain.User, error) {
	if !status.Valid() {
		return nil, domain.NewValidationError("accountStatus", "accountStatus must be one of: active inactive suspended pending", string(status))
	}
	user, err := s.users.UpdateStatus(ctx, userID, status)
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("user_id", userID).Str("status", string(status)).Msg("account status changed")
	return user, nil
}
