package models

import "time"

// TaskTemplate is one step of a template. APIName is the durable identity used
// to match the task across edits and versions; Number is its mutable 1-based
// position in the sequence.
type TaskTemplate struct {
	APIName                string        `json:"api_name"    validate:"required"`
	Number                 int           `json:"number"      validate:"min=1"`
	Name                   string        `json:"name"        validate:"required"`
	Description            string        `json:"description"`
	RequireCompletionByAll bool          `json:"require_completion_by_all"`
	Delay                  time.Duration `json:"delay,omitempty"`

	// RevertTask names an earlier task this one can send control back to.
	RevertTask string `json:"revert_task,omitempty"`

	// Checklist lists required item labels; performers must mark every item
	// before the task can complete.
	Checklist []string `json:"checklist,omitempty"`

	RawDueDate    *RawDueDate             `json:"raw_due_date,omitempty"`
	RawPerformers []*RawPerformerTemplate `json:"raw_performers"`
	Fields        []*FieldTemplate        `json:"fields"`
	Conditions    []*ConditionTemplate    `json:"conditions"`
}

// KickoffTemplate is the workflow's initiating form.
type KickoffTemplate struct {
	Description string           `json:"description"`
	Fields      []*FieldTemplate `json:"fields"`
}

// Template is the versioned blueprint a workflow is instantiated from.
type Template struct {
	ID          string `json:"id"`
	AccountID   string `json:"account_id"  validate:"required"`
	Name        string `json:"name"        validate:"required,min=3"`
	Description string `json:"description"`

	// IsActive marks a published template; inactive templates are drafts and
	// cannot be run.
	IsActive   bool `json:"is_active"`
	IsPublic   bool `json:"is_public"`
	IsEmbedded bool `json:"is_embedded"`

	// WorkflowNameTemplate names new runs. It may embed kickoff field
	// placeholders plus the {{date}} and {{template-name}} system variables.
	WorkflowNameTemplate string `json:"wf_name_template,omitempty"`

	Owners      []string         `json:"owners"`
	OwnerGroups []string         `json:"owner_groups,omitempty"`
	Kickoff     *KickoffTemplate `json:"kickoff"`
	Tasks       []*TaskTemplate  `json:"tasks"`

	// Version is the number of the latest published snapshot.
	Version   int       `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TaskByAPIName returns the task template with the given api_name, if any.
func (t *Template) TaskByAPIName(apiName string) *TaskTemplate {
	for _, task := range t.Tasks {
		if task.APIName == apiName {
			return task
		}
	}

	return nil
}

// TaskByNumber returns the task template at the given 1-based position.
func (t *Template) TaskByNumber(number int) *TaskTemplate {
	for _, task := range t.Tasks {
		if task.Number == number {
			return task
		}
	}

	return nil
}

// KickoffFieldByAPIName returns the kickoff field with the given api_name.
func (t *Template) KickoffFieldByAPIName(apiName string) *FieldTemplate {
	if t.Kickoff == nil {
		return nil
	}

	for _, f := range t.Kickoff.Fields {
		if f.APIName == apiName {
			return f
		}
	}

	return nil
}

// FieldByAPIName searches the kickoff form and every task for a field. The
// second result is the number of the owning task, or 0 for kickoff fields.
func (t *Template) FieldByAPIName(apiName string) (*FieldTemplate, int) {
	if f := t.KickoffFieldByAPIName(apiName); f != nil {
		return f, 0
	}

	for _, task := range t.Tasks {
		for _, f := range task.Fields {
			if f.APIName == apiName {
				return f, task.Number
			}
		}
	}

	return nil, 0
}
