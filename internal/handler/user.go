package handler

import (
	"net/http"
	"net/mail"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/concert-reservation/internal/model"
	"github.com/iliyamo/concert-reservation/internal/repository"
)

// UserHandler exposes the user directory.
type UserHandler struct {
	Users *repository.UserRepo
}

// NewUserHandler constructs a UserHandler and panics on a nil directory.
func NewUserHandler(users *repository.UserRepo) *UserHandler {
	if users == nil {
		panic("nil repository passed to NewUserHandler")
	}
	return &UserHandler{Users: users}
}

// ListUsers handles GET /v1/users.
func (h *UserHandler) ListUsers(c echo.Context) error {
	return ok(c, http.StatusOK, h.Users.List(), "Users retrieved successfully")
}

// GetUser handles GET /v1/users/:id.
func (h *UserHandler) GetUser(c echo.Context) error {
	u, err := h.Users.GetByID(c.Param("id"))
	if err != nil {
		return failErr(c, err)
	}
	return ok(c, http.StatusOK, u, "User retrieved successfully")
}

// CreateUser handles POST /v1/users.  The body carries email, name and an
// optional role (admin or user, default user).  A duplicate email yields
// 409.
func (h *UserHandler) CreateUser(c echo.Context) error {
	var body struct {
		Email string `json:"email"`
		Name  string `json:"name"`
		Role  string `json:"role"`
	}
	if err := c.Bind(&body); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body")
	}
	email := strings.TrimSpace(body.Email)
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return fail(c, http.StatusBadRequest, "email must be a valid email address")
	}
	if strings.TrimSpace(body.Name) == "" {
		return fail(c, http.StatusBadRequest, "name is required")
	}
	if body.Role != "" && !model.ValidRole(body.Role) {
		return fail(c, http.StatusBadRequest, "role must be one of: admin, user")
	}
	u, err := h.Users.Create(email, body.Name, body.Role)
	if err != nil {
		return failErr(c, err)
	}
	return ok(c, http.StatusCreated, u, "User created successfully")
}

// DeleteUser handles DELETE /v1/users/:id.  Reservations of a deleted user
// stay in the ledger and are returned without their user.
func (h *UserHandler) DeleteUser(c echo.Context) error {
	if err := h.Users.Delete(c.Param("id")); err != nil {
		return failErr(c, err)
	}
	return ok(c, http.StatusOK, nil, "User deleted successfully")
}
