package model

import (
	"time"

	"github.com/google/uuid"
)

type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskInProgress TaskStatus = "in-progress"
	TaskCompleted  TaskStatus = "completed"
	TaskCancelled  TaskStatus = "cancelled"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case TaskPending, TaskInProgress, TaskCompleted, TaskCancelled:
		return true
	}
	return false
}

type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
	PriorityUrgent TaskPriority = "urgent"
)

// Task is a unit of field work assigned to a user, optionally about one farmer.
type Task struct {
	BaseModel
	Title               string       `gorm:"type:varchar(255);not null" json:"title"`
	Description         string       `gorm:"type:text" json:"description,omitempty"`
	AssignedToUserID    uuid.UUID    `gorm:"type:uuid;not null;index" json:"assigned_to_user_id"`
	AssignedTo          *User        `gorm:"foreignKey:AssignedToUserID" json:"assigned_to,omitempty"`
	AssignedByUserID    uuid.UUID    `gorm:"type:uuid;not null" json:"assigned_by_user_id"`
	FarmerBeneficiaryID *string      `gorm:"type:varchar(50);index" json:"farmer_beneficiary_id,omitempty"`
	Status              TaskStatus   `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	Priority            TaskPriority `gorm:"type:varchar(20);not null;default:'medium'" json:"priority"`
	DueDate             *time.Time   `gorm:"type:date" json:"due_date,omitempty"`
	Tags                string       `gorm:"type:text" json:"tags,omitempty"`
	Notes               string       `gorm:"type:text" json:"notes,omitempty"`
	CompletedAt         *time.Time   `json:"completed_at,omitempty"`
}

func (Task) TableName() string {
	return "tasks"
}
