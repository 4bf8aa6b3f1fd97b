package service

import (
	"farmer-admin/internal/model"

	"github.com/google/uuid"
)

// Actor is the authenticated user on whose behalf a write happens.
type Actor struct {
	ID    uuid.UUID
	Name  string
	Email string
	Role  model.UserRole
}

func (a Actor) IsAdmin() bool {
	return a.Role == model.RoleAdmin
}

// Ref is the value stored in created_by/updated_by columns.
func (a Actor) Ref() string {
	return a.ID.String()
}

func (a Actor) eventUser() map[string]interface{} {
	return map[string]interface{}{
		"id":    a.ID,
		"name":  a.Name,
		"email": a.Email,
	}
}
