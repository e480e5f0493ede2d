package service

import (
	"errors"

	"salon-inventory/pkg/apperror"
	"salon-inventory/pkg/database"
	"salon-inventory/pkg/validator"

	"gorm.io/gorm"
)

// Actor is the authenticated caller of an operation, as resolved by the auth middleware.
type Actor struct {
	ID    string
	Name  string
	Email string
	Role  string
}

// SystemActor is used for bootstrap and operator tooling.
var SystemActor = Actor{ID: "system", Name: "System"}

func (a Actor) userInfo() map[string]interface{} {
	return map[string]interface{}{
		"id":    a.ID,
		"name":  a.Name,
		"email": a.Email,
	}
}

func validate(data interface{}) error {
	if msg := validator.FirstError(data); msg != "" {
		return apperror.Validation(msg)
	}
	return nil
}

// storeError maps a GORM error onto the error taxonomy. Typed errors pass through.
func storeError(err error, entity string) error {
	if err == nil {
		return nil
	}
	if typed := apperror.As(err); typed != nil {
		return typed
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.NotFound(entity)
	}
	if database.IsUniqueViolation(err) {
		return apperror.Wrap(apperror.CodeDuplicateKey, err, entity+" already exists")
	}
	return apperror.Internal(err, "failed to access "+entity)
}
