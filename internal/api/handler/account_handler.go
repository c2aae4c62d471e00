package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/userdesk/admin-console/internal/core/domain"
	"github.com/userdesk/admin-console/internal/core/ports"
)

// AccountHandler serves the admin directory endpoints.
type AccountHandler struct {
	service ports.AccountService
}

func NewAccountHandler(service ports.AccountService) *AccountHandler {
	return &AccountHandler{service: service}
}

// List handles GET /admin/users.
//
// @Summary      List all accounts
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  listAccountsResponse
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Failure      500  {object}  errorResponse
// @Router       /admin/users [get]
func (h *AccountHandler) List(c echo.Context) error {
	caller, err := ctxActor(c)
	if err != nil {
		return err
	}

	records, err := h.service.ListAccounts(c.Request().Context(), caller)
	if err != nil {
		return err
	}
	if records == nil {
		records = []domain.AccountRecord{}
	}
	return c.JSON(http.StatusOK, listAccountsResponse{Data: records})
}

// Update handles POST /admin/users/update.
//
// @Summary      Change the role or ban state of an account
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      updateAccountRequest  true  "Mutation"
// @Success      200   {object}  updateAccountResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      500   {object}  errorResponse
// @Router       /admin/users/update [post]
func (h *AccountHandler) Update(c echo.Context) error {
	caller, err := ctxActor(c)
	if err != nil {
		return err
	}

	var req updateAccountRequest
	if err := c.Bind(&req); err != nil {
		return fmt.Errorf("%w: invalid payload", domain.ErrValidation)
	}
	req.normalize()
	if err := c.Validate(&req); err != nil {
		return err
	}

	in, err := toUpdateInput(req)
	if err != nil {
		return err
	}

	rec, err := h.service.UpdateAccount(c.Request().Context(), caller, in)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, updateAccountResponse{Data: updateAccountResult{
		Success: true,
		User: updatedAccount{
			ID:          rec.ID,
			Email:       rec.Email,
			Role:        rec.Role,
			IsBanned:    rec.IsBanned,
			BannedUntil: rec.BannedUntil,
		},
	}})
}

func toUpdateInput(req updateAccountRequest) (ports.UpdateAccountInput, error) {
	in := ports.UpdateAccountInput{AccountID: req.AccountID, Banned: req.Banned}
	if req.Role != nil {
		role, ok := domain.ParseRole(*req.Role)
		if !ok {
			return ports.UpdateAccountInput{}, fmt.Errorf("%w: role must be one of: admin user", domain.ErrValidation)
		}
		in.Role = &role
	}
	if req.BannedUntil != nil && *req.BannedUntil != "" {
		until, err := time.Parse(time.RFC3339Nano, *req.BannedUntil)
		if err != nil {
			return ports.UpdateAccountInput{}, fmt.Errorf("%w: bannedUntil must be an RFC 3339 timestamp", domain.ErrValidation)
		}
		in.BannedUntil = &until
	}
	return in, nil
}
