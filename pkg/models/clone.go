package models

// Deep-copy helpers. Version snapshots and task materialization both need
// copies that cannot alias the editable template graph.

func (s *FieldTemplateSelection) Clone() *FieldTemplateSelection {
	c := *s

	return &c
}

func (f *FieldTemplate) Clone() *FieldTemplate {
	c := *f
	c.Selections = make([]*FieldTemplateSelection, len(f.Selections))

	for i, s := range f.Selections {
		c.Selections[i] = s.Clone()
	}

	return &c
}

func (p *PredicateTemplate) Clone() *PredicateTemplate {
	c := *p

	if p.Value != nil {
		v := *p.Value
		c.Value = &v
	}

	return &c
}

func (r *RuleTemplate) Clone() *RuleTemplate {
	c := *r
	c.Predicates = make([]*PredicateTemplate, len(r.Predicates))

	for i, p := range r.Predicates {
		c.Predicates[i] = p.Clone()
	}

	return &c
}

func (ct *ConditionTemplate) Clone() *ConditionTemplate {
	c := *ct
	c.Rules = make([]*RuleTemplate, len(ct.Rules))

	for i, r := range ct.Rules {
		c.Rules[i] = r.Clone()
	}

	return &c
}

func (rp *RawPerformerTemplate) Clone() *RawPerformerTemplate {
	c := *rp

	return &c
}

func (d *RawDueDate) Clone() *RawDueDate {
	c := *d

	return &c
}

func (t *TaskTemplate) Clone() *TaskTemplate {
	c := *t

	if t.RawDueDate != nil {
		c.RawDueDate = t.RawDueDate.Clone()
	}

	c.Checklist = make([]string, len(t.Checklist))
	copy(c.Checklist, t.Checklist)

	c.RawPerformers = make([]*RawPerformerTemplate, len(t.RawPerformers))
	for i, rp := range t.RawPerformers {
		c.RawPerformers[i] = rp.Clone()
	}

	c.Fields = make([]*FieldTemplate, len(t.Fields))
	for i, f := range t.Fields {
		c.Fields[i] = f.Clone()
	}

	c.Conditions = make([]*ConditionTemplate, len(t.Conditions))
	for i, cond := range t.Conditions {
		c.Conditions[i] = cond.Clone()
	}

	return &c
}

func (k *KickoffTemplate) Clone() *KickoffTemplate {
	c := *k
	c.Fields = make([]*FieldTemplate, len(k.Fields))

	for i, f := range k.Fields {
		c.Fields[i] = f.Clone()
	}

	return &c
}
