// Package template renders {{api_name}} placeholders in task names,
// descriptions and workflow-name templates against the workflow's field
// values.
package template

import (
	"regexp"
	"time"

	"github.com/flowlineio/flowline/pkg/models"
)

var placeholderRe = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_-]+)\s*\}\}`)

// System variables usable in workflow-name templates.
const (
	VarDate         = "date"
	VarTemplateName = "template-name"
)

// SystemVars builds the system-variable substitutions for a run.
func SystemVars(templateName string, now time.Time) map[string]string {
	return map[string]string{
		VarDate:         now.UTC().Format("2006-01-02"),
		VarTemplateName: templateName,
	}
}

// Render substitutes every placeholder with the field's human-readable value,
// consulting system variables first. Unresolved placeholders render empty;
// template validation guarantees they never reach a running workflow.
func Render(input string, values models.FieldValues, system map[string]string) string {
	if input == "" {
		return ""
	}

	return placeholderRe.ReplaceAllStringFunc(input, func(match string) string {
		name := placeholderRe.FindStringSubmatch(match)[1]

		if system != nil {
			if v, ok := system[name]; ok {
				return v
			}
		}

		if v, ok := values[name]; ok {
			return v.Render()
		}

		return ""
	})
}

// Placeholders lists the distinct placeholder names in input, in order of
// first appearance. Save-time validation resolves each one against the
// template's fields and system variables.
func Placeholders(input string) []string {
	seen := make(map[string]bool)

	var names []string

	for _, m := range placeholderRe.FindAllStringSubmatch(input, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true

			names = append(names, m[1])
		}
	}

	return names
}
