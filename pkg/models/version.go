package models

import "time"

// VersionData is the immutable template graph captured by one publish. All
// entities are keyed by api_name so live workflows can be diffed against it.
type VersionData struct {
	Name                 string           `json:"name"`
	Description          string           `json:"description"`
	WorkflowNameTemplate string           `json:"wf_name_template,omitempty"`
	Kickoff              *KickoffTemplate `json:"kickoff"`
	Tasks                []*TaskTemplate  `json:"tasks"`
}

// TaskByAPIName returns the snapshot task with the given api_name, if any.
func (d *VersionData) TaskByAPIName(apiName string) *TaskTemplate {
	for _, task := range d.Tasks {
		if task.APIName == apiName {
			return task
		}
	}

	return nil
}

// TemplateVersion is a numbered, immutable snapshot produced by a successful
// publish. Running workflows record the version they were built from and are
// migrated forward when a newer version appears.
type TemplateVersion struct {
	TemplateID string       `json:"template_id"`
	Version    int          `json:"version"`
	Data       *VersionData `json:"data"`
	CreatedAt  time.Time    `json:"created_at"`
}
