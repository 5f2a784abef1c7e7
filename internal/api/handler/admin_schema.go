package handler

import "github.com/homestead/marketplace-api/internal/core/domain"

type listUsersQuery struct {
	Page  int `query:"page"  validate:"gte=0"`
	Limit int `query:"limit" validate:"gte=0,lte=100"`
}

type setStatusRequest struct {
	AccountStatus string `json:"accountStatus" validate:"required,oneof=active inactive suspended pending"`
}

type userPageResponse struct {
	Items      []*domain.User `json:"items"`
	Total      int64          `json:"total"`
	Page       int            `json:"page"`
	Limit      int            `json:"limit"`
	TotalPages int            `json:"totalPages"`
}
