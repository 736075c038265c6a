// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package forms implements the data-driven lead capture forms: a closed set
// of form kinds, their static definitions, per-request form state,
// aggregated validation and a single-flight submit step. The package does
// no network I/O; callers pass a SubmitFunc that talks to the backend.
package forms

import (
	"log/slog"
	"strings"
)

// Kind selects a form definition.
type Kind string

// Form kinds.
const (
	KindProduct Kind = "product"
	KindProject Kind = "project"
	KindContact Kind = "contact"
	KindDemo    Kind = "demo"
	KindQuote   Kind = "quote"
	KindGeneral Kind = "general"
)

// Kinds lists every form kind.
var Kinds = []Kind{KindProduct, KindProject, KindContact, KindDemo, KindQuote, KindGeneral}

// ParseKind returns the kind named by s.
func ParseKind(s string) (Kind, bool) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	switch k {
	case KindProduct, KindProject, KindContact, KindDemo, KindQuote, KindGeneral:
		return k, true
	}
	return "", false
}

// Resolve is ParseKind with the general form as the fallback. Unknown
// kinds never fail; they are logged and rendered as the general form.
func Resolve(s string, logger *slog.Logger) Kind {
	if k, ok := ParseKind(s); ok {
		return k
	}
	if logger != nil {
		logger.Warn("unknown form kind, falling back to general", "kind", s)
	}
	return KindGeneral
}

// Field names a form input. The string value is the HTML input name and
// the key used in payloads and missing-field messages.
type Field string

// Form fields.
const (
	FieldName          Field = "name"
	FieldEmail         Field = "email"
	FieldPhone         Field = "phone"
	FieldCompany       Field = "company"
	FieldMessage       Field = "message"
	FieldService       Field = "service"
	FieldOtherService  Field = "otherService"
	FieldBudget        Field = "budget"
	FieldTimeline      Field = "timeline"
	FieldTeamSize      Field = "teamSize"
	FieldExistingStack Field = "existingStack"
	FieldTechnologies  Field = "technologies"
	FieldDate          Field = "date"
	FieldTime          Field = "time"
	FieldProduct       Field = "product"
)

var fieldLabels = map[Field]string{
	FieldName:          "Full Name",
	FieldEmail:         "Email Address",
	FieldPhone:         "Phone Number",
	FieldCompany:       "Company",
	FieldMessage:       "Message",
	FieldService:       "Service Required",
	FieldOtherService:  "Please specify",
	FieldBudget:        "Budget Range",
	FieldTimeline:      "Timeline",
	FieldTeamSize:      "Team Size",
	FieldExistingStack: "Existing Tech Stack",
	FieldTechnologies:  "Technologies",
	FieldDate:          "Preferred Date",
	FieldTime:          "Preferred Time",
	FieldProduct:       "Product",
}

// Label returns the human label of f.
func (f Field) Label() string {
	if l, ok := fieldLabels[f]; ok {
		return l
	}
	return string(f)
}
