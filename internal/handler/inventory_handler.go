package handler

import (
	"path/filepath"
	"strconv"
	"strings"

	"farmer-admin/internal/config"
	"farmer-admin/internal/model"
	"farmer-admin/internal/repository"
	"farmer-admin/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type InventoryHandler struct {
	service  service.InventoryService
	dispatch service.DispatchService
	paging   config.PaginationConfig
	log      *zap.Logger
}

func NewInventoryHandler(s service.InventoryService, d service.DispatchService, paging config.PaginationConfig, log *zap.Logger) *InventoryHandler {
	return &InventoryHandler{service: s, dispatch: d, paging: paging, log: log}
}

// Register mounts the inventory routes. Static paths go before /:id.
func (h *InventoryHandler) Register(r fiber.Router) {
	r.Get("/", h.GetItems)
	r.Post("/", h.CreateItem)
	r.Get("/transactions", h.GetTransactions)
	r.Post("/bulk", h.BulkCreate)
	r.Post("/upload", h.Upload)
	r.Get("/templates/csv", h.CSVTemplate)
	r.Get("/templates/excel", h.ExcelTemplate)
	r.Get("/specs/motors", h.MotorSpecs)
	r.Get("/specs/solar", h.SolarSpecs)
	r.Get("/stats/dashboard", h.Dashboard)
	r.Post("/dispatch", h.CreateDispatch)
	r.Get("/dispatches", h.GetDispatches)
	r.Get("/dispatches/:id", h.GetDispatch)
	r.Get("/:id", h.GetItem)
	r.Put("/:id", h.UpdateItem)
	r.Delete("/:id", h.DeleteItem)
	r.Post("/:id/adjust", h.AdjustStock)
	r.Get("/:id/transactions", h.GetItemTransactions)
}

// GetItems lists inventory
// GET /api/inventory?category=&type=&specification=&status=&low_stock_only=&search=
func (h *InventoryHandler) GetItems(c *fiber.Ctx) error {
	filter := repository.InventoryFilter{
		Category:      model.InventoryCategory(c.Query("category")),
		Type:          c.Query("type"),
		Specification: c.Query("specification"),
		Status:        model.InventoryStatus(c.Query("status")),
		LowStockOnly:  c.QueryBool("low_stock_only", false),
		Search:        strings.TrimSpace(c.Query("search")),
	}
	if filter.Category != "" && !filter.Category.Valid() {
		return respondError(c, h.log, &service.ValidationError{Field: "category", Reason: "is not a valid category"})
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return respondError(c, h.log, &service.ValidationError{Field: "status", Reason: "is not a valid status"})
	}

	page := pageFrom(c, h.paging)
	items, total, err := h.service.ListItems(c.UserContext(), filter, page)
	if err != nil {
		return respondError(c, h.log, err)
	}

	out := make([]model.InventoryItemResponse, len(items))
	for i := range items {
		out[i] = items[i].ToResponse()
	}
	return c.JSON(newPageResponse(out, total, page))
}

func (h *InventoryHandler) GetItem(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return respondError(c, h.log, err)
	}
	item, err := h.service.GetItem(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(item.ToResponse())
}

func (h *InventoryHandler) CreateItem(c *fiber.Ctx) error {
	var req service.CreateInventoryRequest
	if err := c.BodyParser(&req); err != nil {
		return badJSON(c)
	}

	item, err := h.service.CreateItem(c.UserContext(), &req, currentActor(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(item.ToResponse())
}

func (h *InventoryHandler) UpdateItem(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return respondError(c, h.log, err)
	}
	var req service.UpdateInventoryRequest
	if err := c.BodyParser(&req); err != nil {
		return badJSON(c)
	}

	item, err := h.service.UpdateItem(c.UserContext(), id, &req, currentActor(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(item.ToResponse())
}

func (h *InventoryHandler) DeleteItem(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return respondError(c, h.log, err)
	}
	if err := h.service.DeleteItem(c.UserContext(), id, currentActor(c)); err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(fiber.Map{"message": "Inventory item deleted successfully"})
}

// AdjustStock applies a signed manual correction.
// POST /api/inventory/:id/adjust {"quantity": -3, "notes": "..."}
func (h *InventoryHandler) AdjustStock(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return respondError(c, h.log, err)
	}
	var req service.AdjustStockRequest
	if err := c.BodyParser(&req); err != nil {
		return badJSON(c)
	}

	txn, err := h.service.AdjustStock(c.UserContext(), id, &req, currentActor(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(txn)
}

func (h *InventoryHandler) GetTransactions(c *fiber.Ctx) error {
	filter := repository.TransactionFilter{
		TransactionType: model.TransactionType(c.Query("transaction_type")),
		ReferenceType:   model.ReferenceType(c.Query("reference_type")),
		ReferenceID:     c.Query("reference_id"),
	}
	if v := c.Query("inventory_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return respondError(c, h.log, &service.ValidationError{Field: "inventory_id", Reason: "must be a positive integer"})
		}
		filter.InventoryID = uint(id)
	}
	return h.listTransactions(c, filter)
}

func (h *InventoryHandler) GetItemTransactions(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return respondError(c, h.log, err)
	}
	if _, err := h.service.GetItem(c.UserContext(), id); err != nil {
		return respondError(c, h.log, err)
	}
	return h.listTransactions(c, repository.TransactionFilter{
		InventoryID:     id,
		TransactionType: model.TransactionType(c.Query("transaction_type")),
		ReferenceType:   model.ReferenceType(c.Query("reference_type")),
	})
}

func (h *InventoryHandler) listTransactions(c *fiber.Ctx, filter repository.TransactionFilter) error {
	page := pageFrom(c, h.paging)
	txns, total, err := h.service.ListTransactions(c.UserContext(), filter, page)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(newPageResponse(txns, total, page))
}

// BulkCreate reconciles a JSON array of drafts against stock.
func (h *InventoryHandler) BulkCreate(c *fiber.Ctx) error {
	var drafts []service.InventoryDraft
	if err := c.BodyParser(&drafts); err != nil {
		return badJSON(c)
	}

	result, err := h.service.BulkCreate(c.UserContext(), drafts, currentActor(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(result)
}

// Upload reconciles a CSV or XLSX sent as the multipart field "file".
func (h *InventoryHandler) Upload(c *fiber.Ctx) error {
	header, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "file is required", "field": "file"})
	}

	upload := h.service.UploadCSV
	switch strings.ToLower(filepath.Ext(header.Filename)) {
	case ".csv":
	case ".xlsx":
		upload = h.service.UploadExcel
	case ".xls":
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Legacy .xls files are not supported, save as .xlsx or CSV", "field": "file"})
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Only CSV and XLSX files are supported", "field": "file"})
	}

	f, err := header.Open()
	if err != nil {
		return respondError(c, h.log, err)
	}
	defer f.Close()

	result, err := upload(c.UserContext(), f, currentActor(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(fiber.Map{
		"message":  "Processed " + strconv.Itoa(result.TotalRows) + " rows from " + header.Filename,
		"filename": header.Filename,
		"result":   result,
	})
}

func (h *InventoryHandler) CSVTemplate(c *fiber.Ctx) error {
	data, err := h.service.CSVTemplate()
	if err != nil {
		return respondError(c, h.log, err)
	}
	c.Set(fiber.HeaderContentType, "text/csv")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="inventory_template.csv"`)
	return c.Send(data)
}

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (h *InventoryHandler) ExcelTemplate(c *fiber.Ctx) error {
	data, err := h.service.ExcelTemplate()
	if err != nil {
		return respondError(c, h.log, err)
	}
	c.Set(fiber.HeaderContentType, xlsxContentType)
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="inventory_template.xlsx"`)
	return c.Send(data)
}

func (h *InventoryHandler) MotorSpecs(c *fiber.Ctx) error {
	return c.JSON(model.MotorSpecs)
}

func (h *InventoryHandler) SolarSpecs(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"types": model.SolarPanelTypes})
}

func (h *InventoryHandler) Dashboard(c *fiber.Ctx) error {
	stats, err := h.service.Dashboard(c.UserContext())
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(stats)
}

// CreateDispatch withdraws stock for a farmer in one transaction.
// POST /api/inventory/dispatch
func (h *InventoryHandler) CreateDispatch(c *fiber.Ctx) error {
	var req service.CreateDispatchRequest
	if err := c.BodyParser(&req); err != nil {
		return badJSON(c)
	}

	dispatch, err := h.dispatch.CreateDispatch(c.UserContext(), &req, currentActor(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dispatch)
}

func (h *InventoryHandler) GetDispatches(c *fiber.Ctx) error {
	page := pageFrom(c, h.paging)
	dispatches, total, err := h.dispatch.ListDispatches(c.UserContext(), c.Query("farmer_id"), page)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(newPageResponse(dispatches, total, page))
}

func (h *InventoryHandler) GetDispatch(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return respondError(c, h.log, err)
	}
	dispatch, err := h.dispatch.GetDispatch(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dispatch)
}
