// Package web provides HTTP request and response types for the workflow API.
package web

import "github.com/flowlineio/flowline/pkg/models"

// CreateTemplateRequest represents the request body for creating a template.
// Saving always publishes a new immutable version.
type CreateTemplateRequest struct {
	AccountID            string                  `json:"account_id"                 validate:"required"`
	Name                 string                  `json:"name"                       validate:"required,min=3"`
	Description          string                  `json:"description"`
	IsActive             bool                    `json:"is_active"`
	IsPublic             bool                    `json:"is_public"`
	IsEmbedded           bool                    `json:"is_embedded"`
	WorkflowNameTemplate string                  `json:"wf_name_template,omitempty"`
	Owners               []string                `json:"owners"                     validate:"required,min=1"`
	OwnerGroups          []string                `json:"owner_groups,omitempty"`
	Kickoff              *models.KickoffTemplate `json:"kickoff"`
	Tasks                []*models.TaskTemplate  `json:"tasks"                      validate:"required,min=1"`
}

// UpdateTemplateRequest represents the request body for editing a template.
// The edit is published as a new version and running workflows migrate onto
// it.
type UpdateTemplateRequest struct {
	Name                 string                  `json:"name"                       validate:"required,min=3"`
	Description          string                  `json:"description"`
	IsActive             bool                    `json:"is_active"`
	IsPublic             bool                    `json:"is_public"`
	IsEmbedded           bool                    `json:"is_embedded"`
	WorkflowNameTemplate string                  `json:"wf_name_template,omitempty"`
	Owners               []string                `json:"owners"                     validate:"required,min=1"`
	OwnerGroups          []string                `json:"owner_groups,omitempty"`
	Kickoff              *models.KickoffTemplate `json:"kickoff"`
	Tasks                []*models.TaskTemplate  `json:"tasks"                      validate:"required,min=1"`
}

// RunWorkflowRequest represents the request body for starting a workflow from
// a template.
type RunWorkflowRequest struct {
	StarterID string             `json:"starter_id" validate:"required"`
	Name      string             `json:"name,omitempty"`
	Kickoff   models.FieldValues `json:"kickoff,omitempty"`
}

// CompleteTaskRequest represents the request body for completing the current
// task as one of its performers.
type CompleteTaskRequest struct {
	UserID string             `json:"user_id" validate:"required"`
	Fields models.FieldValues `json:"fields,omitempty"`
}

// MarkChecklistRequest represents the request body for marking one checklist
// item of the current task.
type MarkChecklistRequest struct {
	UserID string `json:"user_id" validate:"required"`
	Item   string `json:"item"    validate:"required"`
}

// ReturnToRequest represents the request body for returning the workflow to
// an earlier completed task.
type ReturnToRequest struct {
	UserID        string `json:"user_id"         validate:"required"`
	TargetAPIName string `json:"target_api_name" validate:"required"`
}

// RevertTaskRequest represents the request body for reverting the current
// task along its revert edge.
type RevertTaskRequest struct {
	UserID string `json:"user_id" validate:"required"`
}

func (r *CreateTemplateRequest) toModel() *models.Template {
	return &models.Template{
		AccountID:            r.AccountID,
		Name:                 r.Name,
		Description:          r.Description,
		IsActive:             r.IsActive,
		IsPublic:             r.IsPublic,
		IsEmbedded:           r.IsEmbedded,
		WorkflowNameTemplate: r.WorkflowNameTemplate,
		Owners:               r.Owners,
		OwnerGroups:          r.OwnerGroups,
		Kickoff:              r.Kickoff,
		Tasks:                r.Tasks,
	}
}

func (r *UpdateTemplateRequest) toModel() *models.Template {
	return &models.Template{
		Name:                 r.Name,
		Description:          r.Description,
		IsActive:             r.IsActive,
		IsPublic:             r.IsPublic,
		IsEmbedded:           r.IsEmbedded,
		WorkflowNameTemplate: r.WorkflowNameTemplate,
		Owners:               r.Owners,
		OwnerGroups:          r.OwnerGroups,
		Kickoff:              r.Kickoff,
		Tasks:                r.Tasks,
	}
}
