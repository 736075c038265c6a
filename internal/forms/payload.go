// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package forms

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Payload is the flattened submission handed to a SubmitFunc.
type Payload map[string]string

// Get returns the value of field.
func (p Payload) Get(field Field) string { return p[string(field)] }

var stripTags = bluemonday.StrictPolicy()

// plain strips markup from user text. The policy escapes entities, which
// are decoded again because the payload is data, not HTML.
func plain(s string) string {
	return strings.TrimSpace(html.UnescapeString(stripTags.Sanitize(s)))
}

// delivered returns field as it ends up in the payload: trimmed, with
// markup stripped from free text.
func (f *Form) delivered(field Field) string {
	v := strings.TrimSpace(f.Value(field))
	switch field {
	case FieldName, FieldCompany, FieldMessage, FieldExistingStack, FieldTechnologies, FieldOtherService:
		return plain(v)
	}
	return v
}

// Payload flattens the form. Technologies are joined with ", ", a
// specified otherService replaces the "Other" service, and the product
// form carries its product seed.
func (f *Form) Payload() Payload {
	p := make(Payload, len(f.spec.Fields)+1)
	for _, field := range f.spec.Fields {
		v := f.delivered(field)
		if field == FieldService && v == OtherService {
			if other := f.delivered(FieldOtherService); other != "" {
				v = other
			}
		}
		p[string(field)] = v
	}
	if f.spec.Kind == KindProduct {
		p[string(FieldProduct)] = plain(f.productName)
	}
	return p
}
