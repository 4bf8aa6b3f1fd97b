package handler

import (
	"farmer-admin/internal/config"
	"farmer-admin/internal/model"
	"farmer-admin/internal/repository"
	"farmer-admin/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type TaskHandler struct {
	service service.TaskService
	paging  config.PaginationConfig
	log     *zap.Logger
}

func NewTaskHandler(s service.TaskService, paging config.PaginationConfig, log *zap.Logger) *TaskHandler {
	return &TaskHandler{service: s, paging: paging, log: log}
}

// GetTasks lists tasks
// GET /api/tasks?assigned_to=&status=&farmer_id=
func (h *TaskHandler) GetTasks(c *fiber.Ctx) error {
	filter := repository.TaskFilter{
		Status:   model.TaskStatus(c.Query("status")),
		FarmerID: c.Query("farmer_id"),
	}
	if v := c.Query("assigned_to"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return respondError(c, h.log, &service.ValidationError{Field: "assigned_to", Reason: "must be a UUID"})
		}
		filter.AssignedToUserID = &id
	}

	page := pageFrom(c, h.paging)
	tasks, total, err := h.service.ListTasks(c.UserContext(), filter, page, currentActor(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(newPageResponse(tasks, total, page))
}

func (h *TaskHandler) CreateTask(c *fiber.Ctx) error {
	var req service.CreateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return badJSON(c)
	}

	task, err := h.service.CreateTask(c.UserContext(), &req, currentActor(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(task)
}

// UpdateStatus moves a task through its workflow
// PUT /api/tasks/:id/status
func (h *TaskHandler) UpdateStatus(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return respondError(c, h.log, &service.ValidationError{Field: "id", Reason: "must be a UUID"})
	}
	var req service.UpdateTaskStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return badJSON(c)
	}

	task, err := h.service.UpdateStatus(c.UserContext(), id, &req, currentActor(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(task)
}
