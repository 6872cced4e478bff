package validation

import (
	"github.com/flowlineio/flowline/pkg/models"
	"github.com/flowlineio/flowline/pkg/template"
)

func (v *Validator) checkPerformers(tpl *models.Template, task *models.TaskTemplate, fields map[string]fieldRef, account Account) error {
	if len(task.RawPerformers) == 0 {
		return newError(CodeInvalidPerformer, "task has no performers", task.APIName,
			"every task needs at least one raw performer")
	}

	type assignment struct {
		kind   models.PerformerType
		target string
	}

	seen := make(map[assignment]bool)

	for _, rp := range task.RawPerformers {
		var target string

		switch rp.Type {
		case models.PerformerTypeUser:
			u, ok := account.Users[rp.UserID]
			if !ok || u.AccountID != account.ID {
				return newError(CodeInvalidPerformer, "performer user is not a member of the account",
					rp.APIName, rp.UserID)
			}

			if !u.IsActive() {
				return newError(CodeInvalidPerformer, "performer user is deactivated", rp.APIName, rp.UserID)
			}

			target = rp.UserID

		case models.PerformerTypeGroup:
			g, ok := account.Groups[rp.GroupID]
			if !ok || g.AccountID != account.ID {
				return newError(CodeInvalidPerformer, "performer group is not part of the account",
					rp.APIName, rp.GroupID)
			}

			target = rp.GroupID

		case models.PerformerTypeWorkflowStarter:
			if tpl.IsPublic || tpl.IsEmbedded {
				return newError(CodeInvalidPerformer, "workflow starter performer is not allowed on shared templates",
					rp.APIName, "template is public or embedded")
			}

		case models.PerformerTypeField:
			ref, ok := fields[rp.Field]
			if !ok {
				return newError(CodeDanglingReference, "performer references an unknown field", rp.APIName, rp.Field)
			}

			if ref.field.Type != models.FieldTypeUser && ref.field.Type != models.FieldTypeGroup {
				return newError(CodeInvalidPerformer, "performer field must be user- or group-typed",
					rp.APIName, string(ref.field.Type))
			}

			// A dynamic performer can only read fields collected before its
			// own task becomes current.
			if ref.taskNumber >= task.Number {
				return newError(CodeForwardReference, "performer references a field collected later",
					rp.APIName, rp.Field)
			}

			target = rp.Field

		default:
			return newError(CodeInvalidPerformer, "performer has an unknown type", rp.APIName, string(rp.Type))
		}

		key := assignment{kind: rp.Type, target: target}
		if seen[key] {
			return newError(CodeDuplicatePerformer, "performer assignment is duplicated", rp.APIName, target)
		}

		seen[key] = true
	}

	return nil
}

func (v *Validator) checkRevertTask(tpl *models.Template, task *models.TaskTemplate) error {
	if task.RevertTask == "" {
		return nil
	}

	target := tpl.TaskByAPIName(task.RevertTask)
	if target == nil {
		return newError(CodeInvalidRevertTask, "revert target does not exist in the template",
			task.APIName, task.RevertTask)
	}

	if target.Number >= task.Number {
		return newError(CodeInvalidRevertTask, "revert target must be a strictly earlier task",
			task.APIName, task.RevertTask)
	}

	return nil
}

func (v *Validator) checkDueDate(task *models.TaskTemplate, fields map[string]fieldRef) error {
	raw := task.RawDueDate
	if raw == nil {
		return nil
	}

	switch raw.Rule {
	case models.DueDateAfterTaskStarted, models.DueDateAfterWorkflowStarted:
		return nil
	case models.DueDateAfterField:
		ref, ok := fields[raw.SourceID]
		if !ok {
			return newError(CodeDanglingReference, "due date references an unknown field", raw.APIName, raw.SourceID)
		}

		if ref.field.Type != models.FieldTypeDate {
			return newError(CodeInvalidDueDate, "due date source field must be date-typed",
				raw.APIName, string(ref.field.Type))
		}

		if ref.taskNumber >= task.Number {
			return newError(CodeForwardReference, "due date references a field collected later",
				raw.APIName, raw.SourceID)
		}

		return nil
	default:
		return newError(CodeInvalidDueDate, "due date has an unknown rule", raw.APIName, string(raw.Rule))
	}
}

// checkPlaceholders resolves every {{api_name}} in the task's name and
// description against fields available before the task starts. Cross-scope
// references are template errors, never runtime errors.
func (v *Validator) checkPlaceholders(task *models.TaskTemplate, fields map[string]fieldRef) error {
	for _, input := range []string{task.Name, task.Description} {
		for _, name := range template.Placeholders(input) {
			ref, ok := fields[name]
			if !ok {
				return newError(CodeInvalidPlaceholder, "placeholder references an unknown field",
					task.APIName, name)
			}

			if ref.taskNumber >= task.Number {
				return newError(CodeInvalidPlaceholder, "placeholder references a field collected later",
					task.APIName, name)
			}
		}
	}

	return nil
}

// checkWorkflowName resolves workflow-name placeholders against kickoff
// fields and system variables only; task outputs do not exist when the run
// is named.
func (v *Validator) checkWorkflowName(tpl *models.Template) error {
	if tpl.WorkflowNameTemplate == "" {
		return nil
	}

	system := map[string]bool{
		template.VarDate:         true,
		template.VarTemplateName: true,
	}

	for _, name := range template.Placeholders(tpl.WorkflowNameTemplate) {
		if system[name] {
			continue
		}

		if tpl.KickoffFieldByAPIName(name) == nil {
			return newError(CodeInvalidPlaceholder, "workflow name placeholder must be a kickoff field or system variable",
				"", name)
		}
	}

	return nil
}
