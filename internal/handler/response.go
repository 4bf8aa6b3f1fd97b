package handler

import (
	"context"
	"errors"
	"strconv"

	"farmer-admin/internal/config"
	"farmer-admin/internal/middleware"
	"farmer-admin/internal/repository"
	"farmer-admin/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// PageResponse is the envelope for every paginated list.
type PageResponse struct {
	Items      interface{} `json:"items"`
	Total      int64       `json:"total"`
	Page       int         `json:"page"`
	PageSize   int         `json:"page_size"`
	TotalPages int         `json:"total_pages"`
}

func newPageResponse(items interface{}, total int64, page repository.Page) PageResponse {
	pages := 0
	if page.Size > 0 {
		pages = int((total + int64(page.Size) - 1) / int64(page.Size))
	}
	return PageResponse{Items: items, Total: total, Page: page.Number, PageSize: page.Size, TotalPages: pages}
}

// pageFrom reads ?page=&page_size= and clamps them to the configured limits.
func pageFrom(c *fiber.Ctx, cfg config.PaginationConfig) repository.Page {
	number, err := strconv.Atoi(c.Query("page", "1"))
	if err != nil || number < 1 {
		number = 1
	}
	size, err := strconv.Atoi(c.Query("page_size"))
	if err != nil || size < 1 {
		size = cfg.DefaultPageSize
	}
	if size > cfg.MaxPageSize {
		size = cfg.MaxPageSize
	}
	return repository.Page{Number: number, Size: size}
}

func currentActor(c *fiber.Ctx) service.Actor {
	actor, _ := middleware.ActorFrom(c)
	return actor
}

func parseUintParam(c *fiber.Ctx, name string) (uint, error) {
	v, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || v == 0 {
		return 0, &service.ValidationError{Field: name, Reason: "must be a positive integer"}
	}
	return uint(v), nil
}

func badJSON(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid JSON"})
}

// respondError renders a service error with the status its kind maps to.
func respondError(c *fiber.Ctx, log *zap.Logger, err error) error {
	var (
		insufficient *service.InsufficientStockError
		invalid      *service.ValidationError
		line         *service.DispatchLineError
	)
	body := fiber.Map{"error": err.Error()}
	if errors.As(err, &line) {
		body["line"] = line.Line
		body["inventory_id"] = line.InventoryID
	}

	switch {
	case errors.As(err, &insufficient):
		body["item_id"] = insufficient.ItemID
		body["requested"] = insufficient.Requested
		body["available"] = insufficient.Available
		return c.Status(fiber.StatusConflict).JSON(body)
	case errors.As(err, &invalid):
		body["field"] = invalid.Field
		return c.Status(fiber.StatusBadRequest).JSON(body)
	case errors.Is(err, service.ErrValidation):
		return c.Status(fiber.StatusBadRequest).JSON(body)
	case errors.Is(err, service.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(body)
	case errors.Is(err, service.ErrStorageConflict):
		body["error"] = "Concurrent update, please retry"
		body["retryable"] = true
		return c.Status(fiber.StatusConflict).JSON(body)
	case errors.Is(err, service.ErrAlreadyExists), errors.Is(err, repository.ErrDuplicate):
		return c.Status(fiber.StatusConflict).JSON(body)
	case errors.Is(err, service.ErrReferenced):
		body["error"] = "Record is still referenced by other records"
		return c.Status(fiber.StatusConflict).JSON(body)
	case errors.Is(err, service.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(body)
	case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, service.ErrUserInactive),
		errors.Is(err, service.ErrSessionRevoked):
		return c.Status(fiber.StatusUnauthorized).JSON(body)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "Request cancelled"})
	}

	log.Error("request failed",
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.Error(err),
	)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
}
