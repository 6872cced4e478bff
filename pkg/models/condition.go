package models

// ConditionAction is what happens when a condition's rules are satisfied.
type ConditionAction string

const (
	// ConditionActionSkipTask skips the task the condition is attached to.
	ConditionActionSkipTask ConditionAction = "skip_task"
	// ConditionActionStartTask lets the task become current. It documents an
	// ancestor dependency rather than acting as a control action.
	ConditionActionStartTask ConditionAction = "start_task"
	// ConditionActionEndWorkflow terminates the whole workflow.
	ConditionActionEndWorkflow ConditionAction = "end_workflow"
)

// PredicateOperator compares a field value against a literal.
type PredicateOperator string

const (
	OperatorEqual      PredicateOperator = "equal"
	OperatorNotEqual   PredicateOperator = "not_equal"
	OperatorMoreThan   PredicateOperator = "more_than"
	OperatorLessThan   PredicateOperator = "less_than"
	OperatorExist      PredicateOperator = "exist"
	OperatorNotExist   PredicateOperator = "not_exist"
	OperatorContain    PredicateOperator = "contain"
	OperatorNotContain PredicateOperator = "not_contain"
	OperatorCompleted  PredicateOperator = "completed"
)

// IsUnary reports whether the operator takes no comparison value. Unary
// predicates must carry a null Value; binary predicates must not.
func (op PredicateOperator) IsUnary() bool {
	return op == OperatorExist || op == OperatorNotExist || op == OperatorCompleted
}

// PredicateTemplate is a single comparison inside a rule.
//
// For FieldTypeKickoff and FieldTypeTask the Field names a task api_name (or
// is ignored for kickoff) and the only valid operator is OperatorCompleted.
type PredicateTemplate struct {
	APIName   string            `json:"api_name"        validate:"required"`
	Operator  PredicateOperator `json:"operator"        validate:"required"`
	FieldType FieldType         `json:"field_type"      validate:"required"`
	Field     string            `json:"field"`
	Value     *string           `json:"value,omitempty"`
}

// RuleTemplate groups predicates. A rule is satisfied when all of its
// predicates are true.
type RuleTemplate struct {
	APIName    string               `json:"api_name"   validate:"required"`
	Order      int                  `json:"order"`
	Predicates []*PredicateTemplate `json:"predicates" validate:"required,min=1"`
}

// ConditionTemplate is attached to a task. A condition is satisfied when any
// of its rules is satisfied. Conditions on one task are evaluated in Order and
// the first satisfied condition wins.
type ConditionTemplate struct {
	APIName string          `json:"api_name" validate:"required"`
	Action  ConditionAction `json:"action"   validate:"required"`
	Order   int             `json:"order"`
	Rules   []*RuleTemplate `json:"rules"    validate:"required,min=1"`
}
