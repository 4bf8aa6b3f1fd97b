package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"farmer-admin/internal/model"
)

var validate = validator.New()

func init() {
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	validate.RegisterValidation("uuid_required", func(fl validator.FieldLevel) bool {
		if id, ok := fl.Field().Interface().(uuid.UUID); ok {
			return id != uuid.Nil
		}
		return false
	})
	validate.RegisterValidation("inventory_category", func(fl validator.FieldLevel) bool {
		return model.InventoryCategory(fl.Field().String()).Valid()
	})
	validate.RegisterValidation("inventory_status", func(fl validator.FieldLevel) bool {
		return model.InventoryStatus(fl.Field().String()).Valid()
	})
	validate.RegisterValidation("dispatch_status", func(fl validator.FieldLevel) bool {
		return model.DispatchStatus(fl.Field().String()).Valid()
	})
	validate.RegisterValidation("user_role", func(fl validator.FieldLevel) bool {
		return model.UserRole(fl.Field().String()).Valid()
	})
	validate.RegisterValidation("task_status", func(fl validator.FieldLevel) bool {
		return model.TaskStatus(fl.Field().String()).Valid()
	})
}

// Struct runs the shared validator and returns its raw error.
func Struct(data interface{}) error {
	return validate.Struct(data)
}

// FirstError reduces a validation error to the first failing field (json
// name where available) and a short reason.
func FirstError(err error) (field, reason string) {
	var verrs validator.ValidationErrors
	if !asValidationErrors(err, &verrs) || len(verrs) == 0 {
		return "", err.Error()
	}
	fe := verrs[0]
	return fe.Field(), describe(fe)
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "uuid_required":
		return "is required"
	case "min", "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max", "lte":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "email":
		return "must be a valid email"
	case "oneof":
		return fmt.Sprintf("must be one of %s", fe.Param())
	}
	return fmt.Sprintf("is not a valid %s", fe.Tag())
}

func asValidationErrors(err error, target *validator.ValidationErrors) bool {
	return errors.As(err, target)
}
