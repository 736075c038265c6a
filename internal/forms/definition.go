// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package forms

import (
	"slices"

	"github.com/olegiv/vetpl-go/internal/model"
)

// Spec is the static definition of one form kind.
type Spec struct {
	Kind        Kind
	Title       string
	Description string
	// Fields is the render order.
	Fields []Field
	// Required is a subset of Fields, in Fields order.
	Required []Field
}

// Definition returns the definition for kind. Unknown kinds get the
// general definition.
func Definition(kind Kind) Spec {
	switch kind {
	case KindProduct:
		return Spec{
			Kind:        KindProduct,
			Title:       "Get Started",
			Description: "Start using this product today",
			Fields:      []Field{FieldName, FieldEmail, FieldPhone, FieldCompany, FieldMessage},
			Required:    []Field{FieldName, FieldEmail},
		}
	case KindProject:
		return Spec{
			Kind:        KindProject,
			Title:       "Start Your Project",
			Description: "Tell us about your project requirements in detail",
			Fields: []Field{
				FieldName, FieldEmail, FieldPhone, FieldCompany, FieldService,
				FieldBudget, FieldTimeline, FieldTeamSize, FieldExistingStack,
				FieldTechnologies, FieldMessage,
			},
			Required: []Field{FieldName, FieldEmail, FieldService},
		}
	case KindContact:
		return Spec{
			Kind:        KindContact,
			Title:       "Contact Us",
			Description: "Get in touch with our team",
			Fields:      []Field{FieldName, FieldEmail, FieldPhone, FieldCompany, FieldMessage},
			Required:    []Field{FieldName, FieldEmail, FieldMessage},
		}
	case KindDemo:
		return Spec{
			Kind:        KindDemo,
			Title:       "Schedule a Demo",
			Description: "Book a personalized product demo",
			Fields:      []Field{FieldName, FieldEmail, FieldPhone, FieldCompany, FieldDate, FieldTime, FieldMessage},
			Required:    []Field{FieldName, FieldEmail, FieldDate, FieldTime},
		}
	case KindQuote:
		return Spec{
			Kind:        KindQuote,
			Title:       "Get a Quote",
			Description: "Request a custom quote for your needs",
			Fields: []Field{
				FieldName, FieldEmail, FieldPhone, FieldCompany, FieldService,
				FieldBudget, FieldTechnologies, FieldMessage,
			},
			Required: []Field{FieldName, FieldEmail, FieldService},
		}
	default:
		return Spec{
			Kind:        KindGeneral,
			Title:       "Get in Touch",
			Description: "We'll get back to you soon",
			Fields:      []Field{FieldName, FieldEmail, FieldPhone, FieldMessage},
			Required:    []Field{FieldName, FieldEmail},
		}
	}
}

// IsRequired reports whether f must be filled in.
func (s Spec) IsRequired(f Field) bool {
	return slices.Contains(s.Required, f)
}

// Has reports whether the form renders f.
func (s Spec) Has(f Field) bool {
	return slices.Contains(s.Fields, f)
}

// InputType returns the control type templates render for f.
func InputType(f Field) string {
	switch f {
	case FieldEmail:
		return model.FieldTypeEmail
	case FieldPhone:
		return model.FieldTypeTel
	case FieldMessage, FieldExistingStack:
		return model.FieldTypeTextarea
	case FieldService, FieldBudget, FieldTimeline, FieldTeamSize, FieldTime:
		return model.FieldTypeSelect
	case FieldDate:
		return model.FieldTypeDate
	case FieldTechnologies:
		return model.FieldTypeCheckbox
	default:
		return model.FieldTypeText
	}
}
