// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"strings"

	"github.com/olegiv/vetpl-go/internal/forms"
)

// FieldView is one rendered form control.
type FieldView struct {
	Name     string
	Label    string
	Type     string
	Value    string
	Required bool
	Options  []string
	Error    string

	// RevealedBy names the select whose "Other" choice shows this field.
	// Revealed marks it shown already.
	RevealedBy string
	Revealed   bool
}

// TechnologyView is one checkbox of the technologies group.
type TechnologyView struct {
	Name     string
	Category string
	Checked  bool
}

// FormView is the template data of a lead form.
type FormView struct {
	Kind        string
	Title       string
	Description string
	Action      string
	Product     string
	Key         string
	Honeypot    string
	Fields      []FieldView

	ShowTechnologies  bool
	Technologies      []TechnologyView
	OtherTechnologies string

	// Error is the form-level message shown above the fields.
	Error string
}

// newFormView builds the template data for f. fieldErrors are keyed by
// field name.
func newFormView(f *forms.Form, action string, fieldErrors map[string]string) FormView {
	spec := f.Spec()
	v := FormView{
		Kind:        string(spec.Kind),
		Title:       spec.Title,
		Description: spec.Description,
		Action:      action,
		Product:     f.ProductName(),
		Key:         f.Key,
		Honeypot:    forms.ParamHoneypot,
	}
	if v.Key == "" {
		v.Key = forms.NewKey()
	}

	for _, field := range f.VisibleFields() {
		if field == forms.FieldOtherService {
			v.Fields = append(v.Fields, otherServiceView(f, fieldErrors))
			continue
		}
		if field == forms.FieldTechnologies {
			v.ShowTechnologies = true
			continue
		}
		v.Fields = append(v.Fields, FieldView{
			Name:     string(field),
			Label:    field.Label(),
			Type:     forms.InputType(field),
			Value:    f.Value(field),
			Required: spec.IsRequired(field),
			Options:  forms.Options(field),
			Error:    fieldErrors[string(field)],
		})
		if field == forms.FieldService && !f.ShowOtherService() {
			v.Fields = append(v.Fields, otherServiceView(f, fieldErrors))
		}
	}

	if v.ShowTechnologies {
		for _, t := range forms.Technologies {
			v.Technologies = append(v.Technologies, TechnologyView{
				Name:     t.Name,
				Category: t.Category,
				Checked:  f.HasTechnology(t.Name),
			})
		}
		v.OtherTechnologies = strings.Join(f.CustomTechnologies(), ", ")
	}
	return v
}

// otherServiceView is always rendered so that picking "Other" reveals it
// without a round trip. It is required whenever it is shown.
func otherServiceView(f *forms.Form, fieldErrors map[string]string) FieldView {
	return FieldView{
		Name:       string(forms.FieldOtherService),
		Label:      forms.FieldOtherService.Label(),
		Type:       forms.InputType(forms.FieldOtherService),
		Value:      f.Value(forms.FieldOtherService),
		Required:   true,
		Error:      fieldErrors[string(forms.FieldOtherService)],
		RevealedBy: string(forms.FieldService),
		Revealed:   f.ShowOtherService(),
	}
}
