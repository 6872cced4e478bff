// Package validation enforces template authoring rules at save time. A
// template that passes validation never produces evaluation-time errors in
// the engine: disallowed operator combinations, dangling references and
// cyclic dependencies are all rejected here, atomically, before anything is
// persisted.
package validation

import "fmt"

// ErrorCode identifies the class of authoring mistake for client UIs.
type ErrorCode string

const (
	CodeInvalidTemplate    ErrorCode = "invalid_template"
	CodeDuplicateAPIName   ErrorCode = "duplicate_api_name"
	CodeInvalidField       ErrorCode = "invalid_field"
	CodeInvalidCondition   ErrorCode = "invalid_condition"
	CodeInvalidPredicate   ErrorCode = "invalid_predicate"
	CodeDanglingReference  ErrorCode = "dangling_reference"
	CodeForwardReference   ErrorCode = "forward_reference"
	CodeDependencyCycle    ErrorCode = "dependency_cycle"
	CodeInvalidPerformer   ErrorCode = "invalid_performer"
	CodeDuplicatePerformer ErrorCode = "duplicate_performer"
	CodeInvalidRevertTask  ErrorCode = "invalid_revert_task"
	CodeInvalidDueDate     ErrorCode = "invalid_due_date"
	CodeInvalidPlaceholder ErrorCode = "invalid_placeholder"
	CodeInvalidOwner       ErrorCode = "invalid_owner"
)

// Details pins the error to the exact entity at fault so a client UI can
// highlight it.
type Details struct {
	APIName string `json:"api_name,omitempty"`
	Reason  string `json:"reason"`
}

// Error is the structured validation error surfaced at template-save time.
type Error struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details Details   `json:"details"`
}

func (e *Error) Error() string {
	if e.Details.APIName != "" {
		return fmt.Sprintf("%s: %s (%s: %s)", e.Code, e.Message, e.Details.APIName, e.Details.Reason)
	}

	return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details.Reason)
}

func newError(code ErrorCode, message, apiName, reason string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Details: Details{APIName: apiName, Reason: reason},
	}
}
