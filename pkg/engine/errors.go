package engine

import "errors"

// State errors: the workflow cannot accept the action right now.
var (
	ErrWorkflowDelayed  = errors.New("workflow is delayed")
	ErrWorkflowFinished = errors.New("workflow already finished")
	ErrNotDelayed       = errors.New("workflow is not delayed")

	ErrChecklistIncomplete = errors.New("checklist items are outstanding")
)

// Permission errors: the caller may not act on the current task.
var (
	ErrNotCurrentPerformer       = errors.New("user is not a performer of the current task")
	ErrPerformerAlreadyCompleted = errors.New("performer already completed this task")
)

// Validation errors on submitted field values and navigation targets.
var (
	ErrRequiredFieldMissing = errors.New("required field value missing")
	ErrUnknownField         = errors.New("field is not defined on this form")
	ErrInvalidFieldValue    = errors.New("field value does not match the field type")

	ErrInvalidReturnTarget  = errors.New("return target is not an earlier completed task")
	ErrNoRevertTarget       = errors.New("current task has no task to revert to")
	ErrUnknownChecklistItem = errors.New("checklist item is not defined on this task")
)
