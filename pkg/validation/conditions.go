package validation

import (
	"strconv"

	"github.com/flowlineio/flowline/pkg/models"
)

// Operator/field-type compatibility for ordinary (non-pseudo) field types.
func operatorAllowed(op models.PredicateOperator, ft models.FieldType) bool {
	switch op {
	case models.OperatorExist, models.OperatorNotExist:
		return true
	case models.OperatorMoreThan, models.OperatorLessThan:
		return ft == models.FieldTypeNumber
	case models.OperatorContain, models.OperatorNotContain:
		return ft == models.FieldTypeString || ft == models.FieldTypeText || ft == models.FieldTypeCheckbox
	case models.OperatorEqual, models.OperatorNotEqual:
		return ft != models.FieldTypeFile
	default:
		return false
	}
}

func (v *Validator) checkConditions(tpl *models.Template, task *models.TaskTemplate, fields map[string]fieldRef) error {
	for _, cond := range task.Conditions {
		switch cond.Action {
		case models.ConditionActionSkipTask, models.ConditionActionStartTask, models.ConditionActionEndWorkflow:
		default:
			return newError(CodeInvalidCondition, "condition has an unknown action", cond.APIName, string(cond.Action))
		}

		if len(cond.Rules) == 0 {
			return newError(CodeInvalidCondition, "condition has no rules", cond.APIName,
				"a condition needs at least one rule")
		}

		for _, rule := range cond.Rules {
			if len(rule.Predicates) == 0 {
				return newError(CodeInvalidCondition, "rule has no predicates", rule.APIName,
					"a rule needs at least one predicate")
			}

			for _, p := range rule.Predicates {
				if err := v.checkPredicate(tpl, task, p, fields); err != nil {
					return err
				}
			}
		}
	}

	return nil
}

func (v *Validator) checkPredicate(tpl *models.Template, task *models.TaskTemplate, p *models.PredicateTemplate, fields map[string]fieldRef) error {
	// Unary operators must carry a null value; binary operators must not.
	if p.Operator.IsUnary() {
		if p.Value != nil {
			return newError(CodeInvalidPredicate, "unary operator carries a value", p.APIName, string(p.Operator))
		}
	} else if p.Value == nil {
		return newError(CodeInvalidPredicate, "binary operator is missing a value", p.APIName, string(p.Operator))
	}

	switch p.FieldType {
	case models.FieldTypeKickoff:
		if p.Operator != models.OperatorCompleted {
			return newError(CodeInvalidPredicate, "kickoff predicates only support the completed operator",
				p.APIName, string(p.Operator))
		}

		return nil

	case models.FieldTypeTask:
		if p.Operator != models.OperatorCompleted {
			return newError(CodeInvalidPredicate, "task predicates only support the completed operator",
				p.APIName, string(p.Operator))
		}

		referenced := tpl.TaskByAPIName(p.Field)
		if referenced == nil {
			return newError(CodeDanglingReference, "predicate references an unknown task", p.APIName, p.Field)
		}

		if referenced.APIName == task.APIName {
			return newError(CodeDependencyCycle, "predicate references its own task", p.APIName, p.Field)
		}

		// The referenced task must already be an ancestor: strictly earlier
		// in the sequence. Forward references would make the DAG unschedulable.
		if referenced.Number >= task.Number {
			return newError(CodeForwardReference, "predicate references a task that runs later", p.APIName, p.Field)
		}

		return nil
	}

	if p.Operator == models.OperatorCompleted {
		return newError(CodeInvalidPredicate, "completed operator requires a kickoff or task predicate",
			p.APIName, string(p.FieldType))
	}

	ref, ok := fields[p.Field]
	if !ok {
		return newError(CodeDanglingReference, "predicate references an unknown field", p.APIName, p.Field)
	}

	if ref.taskNumber >= task.Number {
		return newError(CodeForwardReference, "predicate references a field collected later", p.APIName, p.Field)
	}

	if ref.field.Type != p.FieldType {
		return newError(CodeInvalidPredicate, "predicate field_type does not match the referenced field",
			p.APIName, string(ref.field.Type))
	}

	if !operatorAllowed(p.Operator, p.FieldType) {
		return newError(CodeInvalidPredicate, "operator is not allowed for this field type",
			p.APIName, string(p.Operator)+" on "+string(p.FieldType))
	}

	// Numeric literals are a configuration error at save time, never at
	// evaluation time.
	if p.FieldType == models.FieldTypeNumber && !p.Operator.IsUnary() {
		if _, err := strconv.ParseFloat(*p.Value, 64); err != nil {
			return newError(CodeInvalidPredicate, "comparison value is not numeric", p.APIName, *p.Value)
		}
	}

	if ref.field.Type.IsSelection() && !p.Operator.IsUnary() {
		if ref.field.SelectionByAPIName(*p.Value) == nil {
			return newError(CodeDanglingReference, "comparison value is not a selection of the field",
				p.APIName, *p.Value)
		}
	}

	return nil
}
