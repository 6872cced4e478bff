// Package services implements the application layer: template publishing,
// workflow execution and the account directory, glued to persistence, the
// event bus and the per-workflow locker.
package services

import (
	"errors"
	"fmt"

	"github.com/flowlineio/flowline/pkg/engine"
	"github.com/flowlineio/flowline/pkg/persistence"
	"github.com/flowlineio/flowline/pkg/validation"
)

// Business logic errors that map to client errors (4xx responses).
var (
	ErrTemplateInactive = errors.New("template is not active")
	ErrNoVersions       = errors.New("template has no published versions")
	ErrWorkflowFinished = engine.ErrWorkflowFinished
)

// ServiceError wraps service-level errors with additional context.
type ServiceError struct {
	Op      string // Operation name
	Code    string // Error code for API responses
	Message string // Human-readable message
	Err     error  // Underlying error
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}

	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func (e *ServiceError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// IsValidationError checks if an error is a validation error that should
// return HTTP 400.
func IsValidationError(err error) bool {
	var verr *validation.Error
	if errors.As(err, &verr) {
		return true
	}

	return errors.Is(err, engine.ErrRequiredFieldMissing) ||
		errors.Is(err, engine.ErrUnknownField) ||
		errors.Is(err, engine.ErrInvalidFieldValue) ||
		errors.Is(err, engine.ErrInvalidReturnTarget) ||
		errors.Is(err, engine.ErrNoRevertTarget) ||
		errors.Is(err, engine.ErrUnknownChecklistItem) ||
		errors.Is(err, ErrTemplateInactive) ||
		errors.Is(err, ErrNoVersions)
}

// IsPermissionError checks if an error should return HTTP 403.
func IsPermissionError(err error) bool {
	return errors.Is(err, engine.ErrNotCurrentPerformer)
}

// IsStateError checks if an error is a workflow state conflict that should
// return HTTP 409.
func IsStateError(err error) bool {
	return errors.Is(err, engine.ErrWorkflowDelayed) ||
		errors.Is(err, engine.ErrWorkflowFinished) ||
		errors.Is(err, engine.ErrNotDelayed) ||
		errors.Is(err, engine.ErrChecklistIncomplete) ||
		errors.Is(err, engine.ErrPerformerAlreadyCompleted)
}

// IsNotFound checks if an error should return HTTP 404.
func IsNotFound(err error) bool {
	return persistence.IsNotFound(err)
}
