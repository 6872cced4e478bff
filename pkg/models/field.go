// Package models defines the core domain models for template-driven workflow automation.
package models

// FieldType represents the kind of a kickoff- or task-scoped form field.
type FieldType string

const (
	FieldTypeString   FieldType = "string"
	FieldTypeText     FieldType = "text"
	FieldTypeNumber   FieldType = "number"
	FieldTypeDate     FieldType = "date"
	FieldTypeURL      FieldType = "url"
	FieldTypeFile     FieldType = "file"
	FieldTypeUser     FieldType = "user"
	FieldTypeGroup    FieldType = "group"
	FieldTypeRadio    FieldType = "radio"
	FieldTypeDropdown FieldType = "dropdown"
	FieldTypeCheckbox FieldType = "checkbox"

	// Pseudo field types used only inside predicates. They reference a task
	// (or the kickoff form) instead of a form field.
	FieldTypeKickoff FieldType = "kickoff"
	FieldTypeTask    FieldType = "task"
)

// IsSelection reports whether values of this field are selection api_names.
func (t FieldType) IsSelection() bool {
	return t == FieldTypeRadio || t == FieldTypeDropdown || t == FieldTypeCheckbox
}

// IsPseudo reports whether this type is only valid inside predicates.
func (t FieldType) IsPseudo() bool {
	return t == FieldTypeKickoff || t == FieldTypeTask
}

// FieldTemplateSelection is one choice of a selection-typed field. Predicates
// compare against the selection APIName, never the display value.
type FieldTemplateSelection struct {
	APIName string `json:"api_name" validate:"required"`
	Value   string `json:"value"    validate:"required"`
}

// FieldTemplate describes one form field on the kickoff form or on a task.
type FieldTemplate struct {
	APIName    string                    `json:"api_name"             validate:"required"`
	Name       string                    `json:"name"                 validate:"required"`
	Type       FieldType                 `json:"type"                 validate:"required"`
	IsRequired bool                      `json:"is_required"`
	Order      int                       `json:"order"`
	Selections []*FieldTemplateSelection `json:"selections,omitempty"`
}

// SelectionByAPIName returns the selection with the given api_name, if any.
func (f *FieldTemplate) SelectionByAPIName(apiName string) *FieldTemplateSelection {
	for _, s := range f.Selections {
		if s.APIName == apiName {
			return s
		}
	}

	return nil
}
