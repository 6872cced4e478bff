package models

import "strconv"

// FieldValue is the stored output of a single form field, tagged by field kind.
// Exactly one value representation is populated per kind: Value for scalar
// kinds (string, text, number, date, url, user, group), Selections for
// selection kinds, Files for file kinds.
type FieldValue struct {
	Type       FieldType `json:"type"`
	Value      string    `json:"value,omitempty"`
	Selections []string  `json:"selections,omitempty"`
	Files      []string  `json:"files,omitempty"`

	// UserName carries the display name for user-typed values so that
	// placeholder rendering does not need a directory lookup.
	UserName string `json:"user_name,omitempty"`
}

// IsEmpty reports whether the value counts as "not existing" for the EXIST and
// NOT_EXIST operators. Empty strings and empty lists do not exist.
func (v FieldValue) IsEmpty() bool {
	switch v.Type {
	case FieldTypeFile:
		return len(v.Files) == 0
	case FieldTypeRadio, FieldTypeDropdown, FieldTypeCheckbox:
		return len(v.Selections) == 0
	default:
		return v.Value == ""
	}
}

// IsEmptyFor is IsEmpty with the field type supplied by the form definition,
// for values submitted before the engine stamps their type.
func (v FieldValue) IsEmptyFor(t FieldType) bool {
	v.Type = t

	return v.IsEmpty()
}

// Number parses the value as a number. The second result is false when the
// value is empty or not numeric.
func (v FieldValue) Number() (float64, bool) {
	if v.Value == "" {
		return 0, false
	}

	n, err := strconv.ParseFloat(v.Value, 64)
	if err != nil {
		return 0, false
	}

	return n, true
}

// Render returns the human-readable form used for {{api_name}} substitution.
func (v FieldValue) Render() string {
	switch {
	case v.Type == FieldTypeUser && v.UserName != "":
		return v.UserName
	case v.Type.IsSelection():
		out := ""
		for i, s := range v.Selections {
			if i > 0 {
				out += ", "
			}
			out += s
		}

		return out
	case v.Type == FieldTypeFile:
		out := ""
		for i, f := range v.Files {
			if i > 0 {
				out += ", "
			}
			out += f
		}

		return out
	default:
		return v.Value
	}
}

// FieldValues is the workflow's output store: field api_name to current value.
// Kickoff outputs and task outputs share one namespace; a later task writing
// the same api_name overwrites the earlier value.
type FieldValues map[string]FieldValue

// Copy returns a shallow copy. Slice-valued members are shared; callers that
// mutate selections or files must replace the whole FieldValue.
func (fv FieldValues) Copy() FieldValues {
	out := make(FieldValues, len(fv))
	for k, v := range fv {
		out[k] = v
	}

	return out
}
