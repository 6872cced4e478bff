// Package version snapshots templates into immutable, numbered documents and
// re-applies newer snapshots onto already-running workflows.
package version

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/flowlineio/flowline/pkg/models"
)

// Snapshot serializes the full template graph, keyed by api_names, into the
// next numbered immutable version document.
func Snapshot(tpl *models.Template, now time.Time) (*models.TemplateVersion, error) {
	data := &models.VersionData{
		Name:                 tpl.Name,
		Description:          tpl.Description,
		WorkflowNameTemplate: tpl.WorkflowNameTemplate,
	}

	if tpl.Kickoff != nil {
		data.Kickoff = tpl.Kickoff.Clone()
	}

	data.Tasks = make([]*models.TaskTemplate, len(tpl.Tasks))
	for i, t := range tpl.Tasks {
		data.Tasks[i] = t.Clone()
	}

	sort.SliceStable(data.Tasks, func(i, j int) bool { return data.Tasks[i].Number < data.Tasks[j].Number })

	doc, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize version document: %w", err)
	}

	if err := validateDocument(doc); err != nil {
		return nil, err
	}

	return &models.TemplateVersion{
		TemplateID: tpl.ID,
		Version:    tpl.Version + 1,
		Data:       data,
		CreatedAt:  now,
	}, nil
}
