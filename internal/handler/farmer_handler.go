package handler

import (
	"strings"

	"farmer-admin/internal/config"
	"farmer-admin/internal/repository"
	"farmer-admin/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type FarmerHandler struct {
	service service.FarmerService
	paging  config.PaginationConfig
	log     *zap.Logger
}

func NewFarmerHandler(s service.FarmerService, paging config.PaginationConfig, log *zap.Logger) *FarmerHandler {
	return &FarmerHandler{service: s, paging: paging, log: log}
}

func (h *FarmerHandler) Register(r fiber.Router) {
	r.Get("/", h.GetFarmers)
	r.Post("/", h.CreateFarmer)
	r.Get("/stats/summary", h.Summary)
	r.Get("/:id", h.GetFarmer)
	r.Put("/:id", h.UpdateFarmer)
	r.Delete("/:id", h.DeleteFarmer)
}

// GetFarmers lists farmers
// GET /api/farmers?scheme=&circle_name=&taluka_name=&village_name=&search=...
func (h *FarmerHandler) GetFarmers(c *fiber.Ctx) error {
	filter := repository.FarmerFilter{
		Scheme:             strings.ToUpper(c.Query("scheme")),
		CircleName:         c.Query("circle_name"),
		TalukaName:         c.Query("taluka_name"),
		VillageName:        c.Query("village_name"),
		JSRStatus:          c.Query("jsr_status"),
		DispatchStatus:     c.Query("dispatch_status"),
		InstallationStatus: c.Query("installation_status"),
		ICRStatus:          c.Query("icr_status"),
		Search:             strings.TrimSpace(c.Query("search")),
	}
	if v := c.Query("installer_user_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return respondError(c, h.log, &service.ValidationError{Field: "installer_user_id", Reason: "must be a UUID"})
		}
		filter.InstallerUserID = &id
	}

	page := pageFrom(c, h.paging)
	farmers, total, err := h.service.ListFarmers(c.UserContext(), filter, page)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(newPageResponse(farmers, total, page))
}

func (h *FarmerHandler) GetFarmer(c *fiber.Ctx) error {
	farmer, err := h.service.GetFarmer(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(farmer)
}

func (h *FarmerHandler) CreateFarmer(c *fiber.Ctx) error {
	var req service.FarmerRequest
	if err := c.BodyParser(&req); err != nil {
		return badJSON(c)
	}

	farmer, err := h.service.CreateFarmer(c.UserContext(), &req, currentActor(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(farmer)
}

func (h *FarmerHandler) UpdateFarmer(c *fiber.Ctx) error {
	var req service.FarmerRequest
	if err := c.BodyParser(&req); err != nil {
		return badJSON(c)
	}

	farmer, err := h.service.UpdateFarmer(c.UserContext(), c.Params("id"), &req, currentActor(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(farmer)
}

func (h *FarmerHandler) DeleteFarmer(c *fiber.Ctx) error {
	if err := h.service.DeleteFarmer(c.UserContext(), c.Params("id"), currentActor(c)); err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(fiber.Map{"message": "Farmer deleted successfully"})
}

func (h *FarmerHandler) Summary(c *fiber.Ctx) error {
	summary, err := h.service.Summary(c.UserContext())
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(summary)
}
