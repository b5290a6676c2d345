package service

import (
	"fmt"
	"strings"

	apperrors "rentacars/internal/errors"
)

// IDField is the draft key that carries the server id in edit drafts.
const IDField = "_id"

type FieldType string

const (
	FieldText     FieldType = "text"
	FieldEmail    FieldType = "email"
	FieldTel      FieldType = "tel"
	FieldNumber   FieldType = "number"
	FieldDate     FieldType = "date"
	FieldCheckbox FieldType = "checkbox"
	FieldSelect   FieldType = "select"
)

type Option struct {
	Value string
	Label string
}

// Field describes one input of a resource form.
type Field struct {
	Name        string
	Label       string
	Type        FieldType
	Required    bool
	Placeholder string
	Min         string
	Step        string
	// Options is only set on select fields, from the resource lookups.
	Options []Option
}

// Draft holds user-entered values keyed by field name.
type Draft map[string]string

func (d Draft) Get(name string) string {
	if d == nil {
		return ""
	}
	return d[name]
}

func (d Draft) Clone() Draft {
	out := make(Draft, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// DraftFromValues keeps only the values that belong to fields, trimmed.
func DraftFromValues(fields []Field, get func(string) string) Draft {
	d := make(Draft, len(fields))
	for _, f := range fields {
		d[f.Name] = strings.TrimSpace(get(f.Name))
	}
	return d
}

// ValidateDraft checks that every required field has a value.
func ValidateDraft(fields []Field, d Draft) error {
	for _, f := range fields {
		if !f.Required || f.Type == FieldCheckbox {
			continue
		}
		if strings.TrimSpace(d.Get(f.Name)) == "" {
			return apperrors.NewValidationError(f.Name, fmt.Sprintf("El campo %s es obligatorio", f.Label))
		}
	}
	return nil
}
