// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package forms

import (
	"net/url"
	"slices"
	"strings"
)

// Request parameter names that are not form fields.
const (
	ParamKey               = "_key"
	ParamHoneypot          = "_website"
	ParamOtherTechnologies = "otherTechnologies"
)

// Form is the state of one form being filled in.
type Form struct {
	spec         Spec
	productName  string
	values       map[Field]string
	technologies []string

	// Key is the idempotency key rendered into the form.
	Key string

	honeypot string
}

// New returns an empty form of kind. productName seeds the product form
// and is ignored by the others.
func New(kind Kind, productName string) *Form {
	f := &Form{
		spec:   Definition(kind),
		values: make(map[Field]string),
	}
	if f.spec.Kind == KindProduct {
		f.productName = strings.TrimSpace(productName)
	}
	return f
}

// FromValues builds a form from submitted request values.
func FromValues(kind Kind, productName string, vals url.Values) *Form {
	f := New(kind, productName)
	for _, field := range f.spec.Fields {
		if field == FieldTechnologies {
			for _, t := range vals[string(FieldTechnologies)] {
				f.AddOtherTechnology(t)
			}
			for _, t := range strings.Split(vals.Get(ParamOtherTechnologies), ",") {
				f.AddOtherTechnology(t)
			}
			continue
		}
		f.Set(field, vals.Get(string(field)))
		if field == FieldService {
			f.Set(FieldOtherService, vals.Get(string(FieldOtherService)))
		}
	}
	f.Key = strings.TrimSpace(vals.Get(ParamKey))
	f.honeypot = vals.Get(ParamHoneypot)
	return f
}

// Kind returns the form's kind.
func (f *Form) Kind() Kind { return f.spec.Kind }

// Spec returns the form's definition.
func (f *Form) Spec() Spec { return f.spec }

// ProductName returns the product seed of a product form.
func (f *Form) ProductName() string { return f.productName }

// Set assigns a field value. Fields the form does not render are ignored,
// as is otherService while service is not "Other". Moving service away
// from "Other" clears otherService.
func (f *Form) Set(field Field, value string) {
	switch {
	case field == FieldOtherService:
		if f.values[FieldService] != OtherService {
			return
		}
	case field == FieldTechnologies || !f.spec.Has(field):
		return
	}

	f.values[field] = value
	if field == FieldService && value != OtherService {
		delete(f.values, FieldOtherService)
	}
}

// Value returns the current value of field.
func (f *Form) Value(field Field) string {
	if field == FieldTechnologies {
		return strings.Join(f.technologies, ", ")
	}
	return f.values[field]
}

// ShowOtherService reports whether the otherService input is visible.
func (f *Form) ShowOtherService() bool {
	return f.values[FieldService] == OtherService
}

// VisibleFields returns the fields to render, in order, including
// otherService right after service when it is shown.
func (f *Form) VisibleFields() []Field {
	out := make([]Field, 0, len(f.spec.Fields)+1)
	for _, field := range f.spec.Fields {
		out = append(out, field)
		if field == FieldService && f.ShowOtherService() {
			out = append(out, FieldOtherService)
		}
	}
	return out
}

// ToggleTechnology selects name if unselected and unselects it otherwise.
func (f *Form) ToggleTechnology(name string) {
	name = strings.TrimSpace(name)
	if name == "" || !f.spec.Has(FieldTechnologies) {
		return
	}
	if i := slices.Index(f.technologies, name); i >= 0 {
		f.technologies = slices.Delete(f.technologies, i, i+1)
		return
	}
	f.technologies = append(f.technologies, name)
}

// AddOtherTechnology selects a technology, catalog or free text. Blank
// input and names already selected are ignored.
func (f *Form) AddOtherTechnology(name string) bool {
	name = strings.TrimSpace(name)
	if name == "" || !f.spec.Has(FieldTechnologies) || slices.Contains(f.technologies, name) {
		return false
	}
	f.technologies = append(f.technologies, name)
	return true
}

// RemoveTechnology unselects name.
func (f *Form) RemoveTechnology(name string) {
	f.technologies = slices.DeleteFunc(f.technologies, func(t string) bool { return t == name })
}

// Technologies returns the selected technologies in selection order.
func (f *Form) Technologies() []string {
	return slices.Clone(f.technologies)
}

// HasTechnology reports whether name is selected.
func (f *Form) HasTechnology(name string) bool {
	return slices.Contains(f.technologies, name)
}

// CustomTechnologies returns selected technologies outside the catalog.
func (f *Form) CustomTechnologies() []string {
	var out []string
	for _, t := range f.technologies {
		if !slices.ContainsFunc(Technologies, func(c Technology) bool { return c.Name == t }) {
			out = append(out, t)
		}
	}
	return out
}

// Values returns the raw values keyed by input name, for re-rendering.
func (f *Form) Values() map[string]string {
	out := make(map[string]string, len(f.values)+1)
	for k, v := range f.values {
		out[string(k)] = v
	}
	if len(f.technologies) > 0 {
		out[string(FieldTechnologies)] = f.Value(FieldTechnologies)
	}
	return out
}

// Reset clears every value and selection, keeping kind and product seed.
func (f *Form) Reset() {
	f.values = make(map[Field]string)
	f.technologies = nil
	f.Key = ""
	f.honeypot = ""
}
