package repository

import (
	"context"

	"farmer-admin/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TaskRepository interface {
	Create(ctx context.Context, task *model.Task) error
	Update(ctx context.Context, task *model.Task) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Task, error)
	List(ctx context.Context, filter TaskFilter, page Page) ([]model.Task, int64, error)
	CountByStatus(ctx context.Context, statuses ...model.TaskStatus) (int64, error)
}

type TaskFilter struct {
	AssignedToUserID *uuid.UUID
	Status           model.TaskStatus
	FarmerID         string
}

type taskRepo struct {
	db *gorm.DB
}

func NewTaskRepo(db *gorm.DB) TaskRepository {
	return &taskRepo{db}
}

func (r *taskRepo) Create(ctx context.Context, task *model.Task) error {
	return translateError(r.db.WithContext(ctx).Omit("AssignedTo").Create(task).Error)
}

func (r *taskRepo) Update(ctx context.Context, task *model.Task) error {
	return translateError(r.db.WithContext(ctx).Omit("AssignedTo").Save(task).Error)
}

func (r *taskRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Task, error) {
	var task model.Task
	if err := r.db.WithContext(ctx).Preload("AssignedTo").First(&task, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return &task, nil
}

func (r *taskRepo) List(ctx context.Context, filter TaskFilter, page Page) ([]model.Task, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.Task{})
	if filter.AssignedToUserID != nil {
		query = query.Where("assigned_to_user_id = ?", *filter.AssignedToUserID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.FarmerID != "" {
		query = query.Where("farmer_beneficiary_id = ?", filter.FarmerID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translateError(err)
	}

	var tasks []model.Task
	err := page.scope(query).Preload("AssignedTo").
		Order("due_date ASC NULLS LAST, created_at DESC").
		Find(&tasks).Error
	if err != nil {
		return nil, 0, translateError(err)
	}
	return tasks, total, nil
}

func (r *taskRepo) CountByStatus(ctx context.Context, statuses ...model.TaskStatus) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Task{}).Where("status IN ?", statuses).Count(&count).Error
	return count, translateError(err)
}
