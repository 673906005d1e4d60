package services

import (
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Error kinds returned by every service. Match them with errors.Is.
var (
	ErrValidation = errors.New("validation failed")
	ErrConflict   = errors.New("conflict")
	ErrNotFound   = errors.New("not found")
	ErrForbidden  = errors.New("forbidden")
)

// ServiceError carries the kind of failure and the field or constraint it concerns
type ServiceError struct {
	Kind    error
	Field   string
	Message string
}

func (e *ServiceError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

func (e *ServiceError) Unwrap() error {
	return e.Kind
}

func validationError(field, message string) error {
	return &ServiceError{Kind: ErrValidation, Field: field, Message: message}
}

func conflictError(field, message string) error {
	return &ServiceError{Kind: ErrConflict, Field: field, Message: message}
}

func notFoundError(field, message string) error {
	return &ServiceError{Kind: ErrNotFound, Field: field, Message: message}
}

func forbiddenError(message string) error {
	return &ServiceError{Kind: ErrForbidden, Message: message}
}

// storeError translates gorm errors into service errors. onDuplicate describes
// the unique constraint the write can violate.
func storeError(op string, err error, onDuplicate error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return notFoundError("", op+": record not found")
	case errors.Is(err, gorm.ErrDuplicatedKey) && onDuplicate != nil:
		return onDuplicate
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return conflictError("", op+": unique constraint violated")
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return notFoundError("", op+": referenced record does not exist")
	}
	var serviceErr *ServiceError
	if errors.As(err, &serviceErr) {
		return err
	}
	log.WithError(err).WithField("op", op).Error("Database operation failed")
	return fmt.Errorf("%s: %w", op, err)
}
