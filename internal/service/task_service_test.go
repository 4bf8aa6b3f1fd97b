package service

import (
	"context"
	"testing"

	"farmer-admin/internal/model"
	"farmer-admin/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskService(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	userRepo := repository.NewUserRepo(env.db)
	tasks := NewTaskService(repository.NewTaskRepo(env.db), userRepo)

	for _, a := range []Actor{env.admin, env.employee} {
		u := &model.User{Email: a.Email, Name: a.Name, Role: a.Role, Status: model.UserActive}
		u.ID = a.ID
		require.NoError(t, u.SetPassword("secret1"))
		require.NoError(t, userRepo.Create(ctx, u))
	}

	task, err := tasks.CreateTask(ctx, &CreateTaskRequest{
		Title:               "Install 5HP pump",
		AssignedToUserID:    env.employee.ID,
		FarmerBeneficiaryID: ptr("MH-1001"),
	}, env.admin)
	require.NoError(t, err)
	assert.Equal(t, model.TaskPending, task.Status)
	assert.Equal(t, model.PriorityMedium, task.Priority)
	assert.Equal(t, env.admin.ID, task.AssignedByUserID)
	require.NotNil(t, task.AssignedTo)
	assert.Equal(t, env.employee.Email, task.AssignedTo.Email)

	t.Run("unknown assignee", func(t *testing.T) {
		_, err := tasks.CreateTask(ctx, &CreateTaskRequest{Title: "x", AssignedToUserID: uuid.New()}, env.admin)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("assignee completes", func(t *testing.T) {
		done, err := tasks.UpdateStatus(ctx, task.ID, &UpdateTaskStatusRequest{Status: model.TaskCompleted}, env.employee)
		require.NoError(t, err)
		assert.Equal(t, model.TaskCompleted, done.Status)
		assert.NotNil(t, done.CompletedAt)

		reopened, err := tasks.UpdateStatus(ctx, task.ID, &UpdateTaskStatusRequest{Status: model.TaskInProgress}, env.employee)
		require.NoError(t, err)
		assert.Nil(t, reopened.CompletedAt)
	})

	t.Run("outsider cannot change status", func(t *testing.T) {
		outsider := Actor{ID: uuid.New(), Role: model.RoleEmployee}
		_, err := tasks.UpdateStatus(ctx, task.ID, &UpdateTaskStatusRequest{Status: model.TaskCancelled}, outsider)
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("invalid status", func(t *testing.T) {
		_, err := tasks.UpdateStatus(ctx, task.ID, &UpdateTaskStatusRequest{Status: "paused"}, env.admin)
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("employees only see their own tasks", func(t *testing.T) {
		_, err := tasks.CreateTask(ctx, &CreateTaskRequest{Title: "Audit stock", AssignedToUserID: env.admin.ID}, env.admin)
		require.NoError(t, err)

		mine, total, err := tasks.ListTasks(ctx, repository.TaskFilter{}, repository.Page{Number: 1, Size: 10}, env.employee)
		require.NoError(t, err)
		assert.EqualValues(t, 1, total)
		assert.Equal(t, task.ID, mine[0].ID)

		_, total, err = tasks.ListTasks(ctx, repository.TaskFilter{}, repository.Page{Number: 1, Size: 10}, env.admin)
		require.NoError(t, err)
		assert.EqualValues(t, 2, total)
	})
}
