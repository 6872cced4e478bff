package engine

import (
	"fmt"
	"strconv"

	"github.com/flowlineio/flowline/pkg/models"
)

// StoreOutputs validates submitted field values against the form's field
// templates and writes them into the workflow's output store. Validation runs
// fully before any write so a rejected submission leaves the store untouched.
func StoreOutputs(wf *models.Workflow, fields []*models.FieldTemplate, values models.FieldValues, env Env) error {
	byAPIName := make(map[string]*models.FieldTemplate, len(fields))
	for _, f := range fields {
		byAPIName[f.APIName] = f
	}

	for apiName := range values {
		if _, ok := byAPIName[apiName]; !ok {
			return fmt.Errorf("%w: %s", ErrUnknownField, apiName)
		}
	}

	for _, f := range fields {
		value, ok := values[f.APIName]
		if !ok || value.IsEmptyFor(f.Type) {
			if f.IsRequired {
				return fmt.Errorf("%w: %s", ErrRequiredFieldMissing, f.APIName)
			}

			continue
		}

		if err := checkValue(f, value, env); err != nil {
			return err
		}
	}

	for _, f := range fields {
		value, ok := values[f.APIName]
		if !ok {
			continue
		}

		stamped := models.FieldValue{
			Type:       f.Type,
			Value:      value.Value,
			Selections: value.Selections,
			Files:      value.Files,
		}

		if f.Type == models.FieldTypeUser {
			if u, ok := env.Users[value.Value]; ok {
				stamped.UserName = u.Name
			}
		}

		wf.Fields[f.APIName] = stamped
	}

	return nil
}

func checkValue(f *models.FieldTemplate, value models.FieldValue, env Env) error {
	switch {
	case f.Type == models.FieldTypeNumber:
		if _, err := strconv.ParseFloat(value.Value, 64); err != nil {
			return fmt.Errorf("%w: %s is not a number", ErrInvalidFieldValue, f.APIName)
		}
	case f.Type.IsSelection():
		for _, s := range value.Selections {
			if f.SelectionByAPIName(s) == nil {
				return fmt.Errorf("%w: %s has no selection %q", ErrInvalidFieldValue, f.APIName, s)
			}
		}
	case f.Type == models.FieldTypeUser:
		if _, ok := env.Users[value.Value]; !ok {
			return fmt.Errorf("%w: %s references an unknown user", ErrInvalidFieldValue, f.APIName)
		}
	case f.Type == models.FieldTypeGroup:
		if _, ok := env.Groups[value.Value]; !ok {
			return fmt.Errorf("%w: %s references an unknown group", ErrInvalidFieldValue, f.APIName)
		}
	}

	return nil
}
