package validation

import (
	"fmt"
	"sort"

	"github.com/flowlineio/flowline/pkg/engine"
	"github.com/flowlineio/flowline/pkg/models"
	"github.com/go-playground/validator/v10"
)

// Account is the tenant directory the template is validated against.
// Cross-account references are reported as validation errors, never as
// not-found, so existence never leaks across tenants.
type Account struct {
	ID     string
	Users  map[string]*models.User
	Groups map[string]*models.Group
}

// Validator checks a whole template graph before it is saved.
type Validator struct {
	validate *validator.Validate
}

func New() *Validator {
	return &Validator{
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// ValidateTemplate runs struct-level and domain validation. The first
// violation aborts the save; no partial template is ever written.
func (v *Validator) ValidateTemplate(tpl *models.Template, account Account) error {
	if err := v.validate.Struct(tpl); err != nil {
		return newError(CodeInvalidTemplate, "template failed structural validation", "", err.Error())
	}

	if len(tpl.Tasks) == 0 {
		return newError(CodeInvalidTemplate, "template has no tasks", "", "at least one task is required")
	}

	if err := v.checkOwners(tpl, account); err != nil {
		return err
	}

	if err := v.checkNumbering(tpl); err != nil {
		return err
	}

	if err := v.checkAPINames(tpl); err != nil {
		return err
	}

	fields := fieldIndex(tpl)

	if err := v.checkFields(tpl); err != nil {
		return err
	}

	for _, task := range tpl.Tasks {
		if err := v.checkChecklist(task); err != nil {
			return err
		}

		if err := v.checkConditions(tpl, task, fields); err != nil {
			return err
		}

		if err := v.checkPerformers(tpl, task, fields, account); err != nil {
			return err
		}

		if err := v.checkRevertTask(tpl, task); err != nil {
			return err
		}

		if err := v.checkDueDate(task, fields); err != nil {
			return err
		}

		if err := v.checkPlaceholders(task, fields); err != nil {
			return err
		}
	}

	if offender := engine.FindCycle(tpl.Tasks); offender != "" {
		return newError(CodeDependencyCycle, "task dependencies form a cycle", offender,
			"a task condition must not depend on the task itself or its descendants")
	}

	return v.checkWorkflowName(tpl)
}

// fieldRef records where a field is defined: 0 for kickoff, otherwise the
// owning task's number.
type fieldRef struct {
	field      *models.FieldTemplate
	taskNumber int
}

func fieldIndex(tpl *models.Template) map[string]fieldRef {
	idx := make(map[string]fieldRef)

	if tpl.Kickoff != nil {
		for _, f := range tpl.Kickoff.Fields {
			idx[f.APIName] = fieldRef{field: f, taskNumber: 0}
		}
	}

	for _, task := range tpl.Tasks {
		for _, f := range task.Fields {
			idx[f.APIName] = fieldRef{field: f, taskNumber: task.Number}
		}
	}

	return idx
}

func (v *Validator) checkOwners(tpl *models.Template, account Account) error {
	if len(tpl.Owners) == 0 && len(tpl.OwnerGroups) == 0 {
		return newError(CodeInvalidOwner, "template has no owners", "", "at least one owner is required")
	}

	for _, userID := range tpl.Owners {
		u, ok := account.Users[userID]
		if !ok || u.AccountID != account.ID {
			return newError(CodeInvalidOwner, "owner is not a member of the account", "", userID)
		}
	}

	for _, groupID := range tpl.OwnerGroups {
		g, ok := account.Groups[groupID]
		if !ok || g.AccountID != account.ID {
			return newError(CodeInvalidOwner, "owner group is not part of the account", "", groupID)
		}
	}

	return nil
}

func (v *Validator) checkNumbering(tpl *models.Template) error {
	numbers := make([]int, 0, len(tpl.Tasks))
	for _, t := range tpl.Tasks {
		numbers = append(numbers, t.Number)
	}

	sort.Ints(numbers)

	for i, n := range numbers {
		if n != i+1 {
			return newError(CodeInvalidTemplate, "task numbers must form a dense 1-based sequence", "",
				fmt.Sprintf("expected number %d, found %d", i+1, n))
		}
	}

	return nil
}

// checkAPINames enforces uniqueness of api_names within each scope: equal
// api_name within the same parent means "same entity, last write wins" and
// must never appear twice in one payload.
func (v *Validator) checkAPINames(tpl *models.Template) error {
	taskNames := make(map[string]bool)
	fieldNames := make(map[string]bool)

	addField := func(f *models.FieldTemplate) error {
		if fieldNames[f.APIName] {
			return newError(CodeDuplicateAPIName, "duplicate field api_name", f.APIName,
				"field api_names share one output namespace and must be unique")
		}

		fieldNames[f.APIName] = true

		selections := make(map[string]bool)
		for _, s := range f.Selections {
			if selections[s.APIName] {
				return newError(CodeDuplicateAPIName, "duplicate selection api_name", s.APIName,
					"selections within one field must have unique api_names")
			}

			selections[s.APIName] = true
		}

		return nil
	}

	if tpl.Kickoff != nil {
		for _, f := range tpl.Kickoff.Fields {
			if err := addField(f); err != nil {
				return err
			}
		}
	}

	for _, task := range tpl.Tasks {
		if taskNames[task.APIName] {
			return newError(CodeDuplicateAPIName, "duplicate task api_name", task.APIName,
				"task api_names must be unique within the template")
		}

		taskNames[task.APIName] = true

		for _, f := range task.Fields {
			if err := addField(f); err != nil {
				return err
			}
		}

		condNames := make(map[string]bool)

		for _, cond := range task.Conditions {
			if condNames[cond.APIName] {
				return newError(CodeDuplicateAPIName, "duplicate condition api_name", cond.APIName,
					"conditions within one task must have unique api_names")
			}

			condNames[cond.APIName] = true
		}

		performerNames := make(map[string]bool)

		for _, rp := range task.RawPerformers {
			if performerNames[rp.APIName] {
				return newError(CodeDuplicateAPIName, "duplicate performer api_name", rp.APIName,
					"performers within one task must have unique api_names")
			}

			performerNames[rp.APIName] = true
		}
	}

	return nil
}

// checkChecklist rejects blank or repeated checklist labels; the label is the
// item's identity across edits.
func (v *Validator) checkChecklist(task *models.TaskTemplate) error {
	seen := make(map[string]bool, len(task.Checklist))

	for _, item := range task.Checklist {
		if item == "" {
			return newError(CodeInvalidTemplate, "checklist item has no label", task.APIName,
				"checklist items need a non-empty label")
		}

		if seen[item] {
			return newError(CodeInvalidTemplate, "duplicate checklist item", task.APIName, item)
		}

		seen[item] = true
	}

	return nil
}

func (v *Validator) checkFields(tpl *models.Template) error {
	check := func(f *models.FieldTemplate) error {
		if f.Type.IsPseudo() {
			return newError(CodeInvalidField, "field has a predicate-only type", f.APIName, string(f.Type))
		}

		if f.Type.IsSelection() && len(f.Selections) == 0 {
			return newError(CodeInvalidField, "selection field has no selections", f.APIName,
				"radio, dropdown and checkbox fields need at least one selection")
		}

		if !f.Type.IsSelection() && len(f.Selections) > 0 {
			return newError(CodeInvalidField, "non-selection field carries selections", f.APIName, string(f.Type))
		}

		return nil
	}

	if tpl.Kickoff != nil {
		for _, f := range tpl.Kickoff.Fields {
			if err := check(f); err != nil {
				return err
			}
		}
	}

	for _, task := range tpl.Tasks {
		for _, f := range task.Fields {
			if err := check(f); err != nil {
				return err
			}
		}
	}

	return nil
}
