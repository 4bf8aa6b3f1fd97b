package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"farmer-admin/internal/model"
	"farmer-admin/internal/repository"
)

var ErrEmailExists = &AlreadyExistsError{Resource: "user", Key: "with this email"}

type UserService interface {
	CreateUser(ctx context.Context, req *CreateUserRequest, actor Actor) (*model.UserResponse, error)
	UpdateUser(ctx context.Context, userID uuid.UUID, req *UpdateUserRequest, actor Actor) (*model.UserResponse, error)
	DeleteUser(ctx context.Context, userID uuid.UUID, actor Actor) error
	GetAllUsers(ctx context.Context, page repository.Page) ([]model.UserResponse, int64, error)
	GetUserByID(ctx context.Context, id uuid.UUID, actor Actor) (*model.UserResponse, error)
}

type CreateUserRequest struct {
	Email    string         `json:"email" validate:"required,email"`
	Password string         `json:"password" validate:"required,min=6"`
	Name     string         `json:"name" validate:"required,max=255"`
	Phone    string         `json:"phone" validate:"max=15"`
	Role     model.UserRole `json:"role" validate:"omitempty,user_role"`
}

type UpdateUserRequest struct {
	Email    *string           `json:"email" validate:"omitempty,email"`
	Password *string           `json:"password,omitempty" validate:"omitempty,min=6"`
	Name     *string           `json:"name" validate:"omitempty,min=1,max=255"`
	Phone    *string           `json:"phone" validate:"omitempty,max=15"`
	Role     *model.UserRole   `json:"role" validate:"omitempty,user_role"`
	Status   *model.UserStatus `json:"status"`
}

type userService struct {
	userRepo repository.UserRepository
}

func NewUserService(userRepo repository.UserRepository) UserService {
	return &userService{userRepo: userRepo}
}

// CreateUser is the admin-only registration path.
func (s *userService) CreateUser(ctx context.Context, req *CreateUserRequest, actor Actor) (*model.UserResponse, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := validate(req); err != nil {
		return nil, err
	}

	if _, err := s.userRepo.FindByEmail(ctx, req.Email); err == nil {
		return nil, ErrEmailExists
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	role := req.Role
	if role == "" {
		role = model.RoleEmployee
	}
	user := &model.User{
		Email:  req.Email,
		Name:   req.Name,
		Phone:  req.Phone,
		Role:   role,
		Status: model.UserActive,
	}
	user.CreatedBy = actor.Ref()
	user.UpdatedBy = actor.Ref()
	if err := user.SetPassword(req.Password); err != nil {
		return nil, err
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailExists
		}
		return nil, err
	}
	resp := user.ToResponse()
	return &resp, nil
}

// UpdateUser lets users edit themselves; only admins may touch others or
// change role and status.
func (s *userService) UpdateUser(ctx context.Context, userID uuid.UUID, req *UpdateUserRequest, actor Actor) (*model.UserResponse, error) {
	if !actor.IsAdmin() && actor.ID != userID {
		return nil, ErrForbidden
	}
	if !actor.IsAdmin() && (req.Role != nil || req.Status != nil) {
		return nil, ErrForbidden
	}
	if err := validate(req); err != nil {
		return nil, err
	}
	if req.Status != nil && !req.Status.Valid() {
		return nil, &ValidationError{Field: "status", Reason: "is not a valid user status"}
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if req.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*req.Email))
		if email != user.Email {
			if _, err := s.userRepo.FindByEmail(ctx, email); err == nil {
				return nil, ErrEmailExists
			}
			user.Email = email
		}
	}
	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Phone != nil {
		user.Phone = *req.Phone
	}
	if req.Role != nil {
		user.Role = *req.Role
	}
	if req.Status != nil {
		user.Status = *req.Status
	}
	if req.Password != nil && *req.Password != "" {
		if err := user.SetPassword(*req.Password); err != nil {
			return nil, err
		}
	}
	user.UpdatedBy = actor.Ref()

	if err := s.userRepo.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailExists
		}
		return nil, err
	}
	resp := user.ToResponse()
	return &resp, nil
}

func (s *userService) DeleteUser(ctx context.Context, userID uuid.UUID, actor Actor) error {
	if !actor.IsAdmin() {
		return ErrForbidden
	}
	if actor.ID == userID {
		return &ValidationError{Field: "id", Reason: "cannot delete your own account"}
	}
	err := s.userRepo.Delete(ctx, userID, actor.Ref())
	if errors.Is(err, repository.ErrNotFound) {
		return ErrUserNotFound
	}
	return err
}

func (s *userService) GetAllUsers(ctx context.Context, page repository.Page) ([]model.UserResponse, int64, error) {
	users, total, err := s.userRepo.FindAll(ctx, page)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]model.UserResponse, len(users))
	for i, user := range users {
		responses[i] = user.ToResponse()
	}
	return responses, total, nil
}

func (s *userService) GetUserByID(ctx context.Context, id uuid.UUID, actor Actor) (*model.UserResponse, error) {
	if !actor.IsAdmin() && actor.ID != id {
		return nil, ErrForbidden
	}
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	response := user.ToResponse()
	return &response, nil
}
