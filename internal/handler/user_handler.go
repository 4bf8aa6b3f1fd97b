package handler

import (
	"farmer-admin/internal/config"
	"farmer-admin/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type UserHandler struct {
	userService service.UserService
	paging      config.PaginationConfig
	log         *zap.Logger
}

func NewUserHandler(userService service.UserService, paging config.PaginationConfig, log *zap.Logger) *UserHandler {
	return &UserHandler{userService: userService, paging: paging, log: log}
}

func parseUserID(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, &service.ValidationError{Field: "id", Reason: "must be a UUID"}
	}
	return id, nil
}

// CreateUser handles user creation
// POST /api/auth/register
func (h *UserHandler) CreateUser(c *fiber.Ctx) error {
	var req service.CreateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return badJSON(c)
	}

	user, err := h.userService.CreateUser(c.UserContext(), &req, currentActor(c))
	if err != nil {
		return respondError(c, h.log, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "User created successfully",
		"data":    user,
	})
}

// GetUsers lists users
// GET /api/users
func (h *UserHandler) GetUsers(c *fiber.Ctx) error {
	page := pageFrom(c, h.paging)
	users, total, err := h.userService.GetAllUsers(c.UserContext(), page)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(newPageResponse(users, total, page))
}

// GetUser handles fetching a single user
// GET /api/users/:id
func (h *UserHandler) GetUser(c *fiber.Ctx) error {
	userID, err := parseUserID(c)
	if err != nil {
		return respondError(c, h.log, err)
	}

	user, err := h.userService.GetUserByID(c.UserContext(), userID, currentActor(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(user)
}

// UpdateUser handles user updates
// PUT /api/users/:id
func (h *UserHandler) UpdateUser(c *fiber.Ctx) error {
	userID, err := parseUserID(c)
	if err != nil {
		return respondError(c, h.log, err)
	}

	var req service.UpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return badJSON(c)
	}

	user, err := h.userService.UpdateUser(c.UserContext(), userID, &req, currentActor(c))
	if err != nil {
		return respondError(c, h.log, err)
	}

	return c.JSON(fiber.Map{
		"message": "User updated successfully",
		"data":    user,
	})
}

// DeleteUser handles user deletion
// DELETE /api/users/:id
func (h *UserHandler) DeleteUser(c *fiber.Ctx) error {
	userID, err := parseUserID(c)
	if err != nil {
		return respondError(c, h.log, err)
	}

	if err := h.userService.DeleteUser(c.UserContext(), userID, currentActor(c)); err != nil {
		return respondError(c, h.log, err)
	}

	return c.JSON(fiber.Map{"message": "User deleted successfully"})
}
