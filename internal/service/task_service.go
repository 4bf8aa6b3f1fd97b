package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"farmer-admin/internal/model"
	"farmer-admin/internal/repository"
)

type CreateTaskRequest struct {
	Title               string             `json:"title" validate:"required,max=255"`
	Description         string             `json:"description"`
	AssignedToUserID    uuid.UUID          `json:"assigned_to_user_id" validate:"uuid_required"`
	FarmerBeneficiaryID *string            `json:"farmer_beneficiary_id" validate:"omitempty,max=50"`
	Priority            model.TaskPriority `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	DueDate             *time.Time         `json:"due_date"`
	Tags                string             `json:"tags"`
	Notes               string             `json:"notes"`
}

type UpdateTaskStatusRequest struct {
	Status model.TaskStatus `json:"status" validate:"required,task_status"`
	Notes  *string          `json:"notes"`
}

type TaskService interface {
	CreateTask(ctx context.Context, req *CreateTaskRequest, actor Actor) (*model.Task, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, req *UpdateTaskStatusRequest, actor Actor) (*model.Task, error)
	ListTasks(ctx context.Context, filter repository.TaskFilter, page repository.Page, actor Actor) ([]model.Task, int64, error)
}

type taskService struct {
	taskRepo repository.TaskRepository
	userRepo repository.UserRepository
	now      func() time.Time
}

func NewTaskService(taskRepo repository.TaskRepository, userRepo repository.UserRepository) TaskService {
	return &taskService{taskRepo: taskRepo, userRepo: userRepo, now: time.Now}
}

func (s *taskService) CreateTask(ctx context.Context, req *CreateTaskRequest, actor Actor) (*model.Task, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	if _, err := s.userRepo.FindByID(ctx, req.AssignedToUserID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &NotFoundError{Resource: "user", ID: req.AssignedToUserID.String()}
		}
		return nil, err
	}

	priority := req.Priority
	if priority == "" {
		priority = model.PriorityMedium
	}
	task := &model.Task{
		Title:               req.Title,
		Description:         req.Description,
		AssignedToUserID:    req.AssignedToUserID,
		AssignedByUserID:    actor.ID,
		FarmerBeneficiaryID: req.FarmerBeneficiaryID,
		Status:              model.TaskPending,
		Priority:            priority,
		DueDate:             req.DueDate,
		Tags:                req.Tags,
		Notes:               req.Notes,
	}
	task.CreatedBy = actor.Ref()
	task.UpdatedBy = actor.Ref()

	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, err
	}
	return s.taskRepo.FindByID(ctx, task.ID)
}

// UpdateStatus is open to the assignee, the assigner and admins.
func (s *taskService) UpdateStatus(ctx context.Context, id uuid.UUID, req *UpdateTaskStatusRequest, actor Actor) (*model.Task, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	task, err := s.taskRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &NotFoundError{Resource: "task", ID: id.String()}
		}
		return nil, err
	}
	if !actor.IsAdmin() && actor.ID != task.AssignedToUserID && actor.ID != task.AssignedByUserID {
		return nil, ErrForbidden
	}

	task.Status = req.Status
	if req.Notes != nil {
		task.Notes = *req.Notes
	}
	if req.Status == model.TaskCompleted {
		now := s.now()
		task.CompletedAt = &now
	} else {
		task.CompletedAt = nil
	}
	task.UpdatedBy = actor.Ref()
	task.AssignedTo = nil

	if err := s.taskRepo.Update(ctx, task); err != nil {
		return nil, err
	}
	return s.taskRepo.FindByID(ctx, id)
}

// ListTasks shows employees only their own tasks.
func (s *taskService) ListTasks(ctx context.Context, filter repository.TaskFilter, page repository.Page, actor Actor) ([]model.Task, int64, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, 0, &ValidationError{Field: "status", Reason: "is not a valid task status"}
	}
	if !actor.IsAdmin() {
		id := actor.ID
		filter.AssignedToUserID = &id
	}
	return s.taskRepo.List(ctx, filter, page)
}
