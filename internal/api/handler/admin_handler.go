package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/homestead/marketplace-api/internal/core/domain"
	"github.com/homestead/marketplace-api/internal/core/ports"
)

type AdminHandler struct {
	adminService ports.AdminService
}

func NewAdminHandler(adminService ports.AdminService) *AdminHandler {
	return &AdminHandler{adminService: adminService}
}

// ListUsers pages through all accounts.
//
// @Summary      List users
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        page   query     int  false  "Page, starting at 1"
// @Param        limit  query     int  false  "Page size, at most 100"
// @Success      200    {object}  userPageResponse
// @Failure      401    {object}  errorResponse
// @Failure      403    {object}  errorResponse
// @Router       /admin/users [get]
func (h *AdminHandler) ListUsers(c echo.Context) error {
	var q listUsersQuery
	if err := bindAndValidate(c, &q); err != nil {
		return err
	}
	page, err := h.adminService.ListUsers(c.Request().Context(), q.Page, q.Limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, userPageResponse{
		Items:      page.Items,
		Total:      page.Total,
		Page:       page.Page,
		Limit:      page.Limit,
		TotalPages: page.TotalPages,
	})
}

// SetStatus activates, deactivates or suspends an account.
//
// @Summary      Change account status
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string            true  "User ID"
// @Param        body  body      setStatusRequest  true  "New status"
// @Success      200   {object}  userResponse
// @Failure      400   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /admin/users/{id}/status [put]
func (h *AdminHandler) SetStatus(c echo.Context) error {
	var req setStatusRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	user, err := h.adminService.SetStatus(c.Request().Context(), c.Param("id"), domain.AccountStatus(req.AccountStatus))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, userResponse{User: user})
}
