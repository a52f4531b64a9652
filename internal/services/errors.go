package services

import (
	"fmt"

	"github.com/pkg/errors"

	"userflow-service/internal/repository"
	"userflow-service/internal/validation"
)

var (
	// ErrUnauthorized means the request carries no identity.
	ErrUnauthorized = errors.New("authentication required")
	// ErrForbidden means the identity does not own the resource.
	ErrForbidden = errors.New("access denied")
)

// NotFoundError reports a missing or deleted resource.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found", e.Resource)
}

// NotConfiguredError reports a feature whose backing service has no
// credentials.
type NotConfiguredError struct {
	Service string
}

func (e *NotConfiguredError) Error() string {
	return fmt.Sprintf("%s is not configured", e.Service)
}

// lookupErr converts a repository lookup failure.
func lookupErr(resource string, err error) error {
	if repository.IsNotFound(err) {
		return &NotFoundError{Resource: resource}
	}
	return errors.Wrapf(err, "load %s", resource)
}

// referenceErr converts a failed lookup of a referenced row. A missing row is
// the caller's mistake; anything else is a store failure.
func referenceErr(err error, resource, field, message string) error {
	if repository.IsNotFound(err) {
		return invalid(field, message)
	}
	return errors.Wrapf(err, "load %s", resource)
}

func invalid(field, message string) error {
	return &validation.Error{Field: field, Message: message}
}
