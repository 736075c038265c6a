// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package forms

import (
	"errors"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/olegiv/vetpl-go/internal/validation"
)

// ErrValidation matches every *ValidationError.
var ErrValidation = errors.New("form validation failed")

// MaxTextLength bounds free-text fields.
const MaxTextLength = 5000

// DateLayout is the layout of the demo date input.
const DateLayout = "2006-01-02"

// ValidationError aggregates every problem found in one validation pass.
type ValidationError struct {
	// Missing lists blank required fields in definition order.
	Missing []Field
	// Invalid maps a filled-in field to its message.
	Invalid map[Field]string
}

func (e *ValidationError) Error() string {
	if len(e.Missing) > 0 {
		names := make([]string, len(e.Missing))
		for i, f := range e.Missing {
			names[i] = string(f)
		}
		return "Please fill in: " + strings.Join(names, ", ")
	}
	keys := make([]string, 0, len(e.Invalid))
	for f := range e.Invalid {
		keys = append(keys, string(f))
	}
	slices.Sort(keys)
	msgs := make([]string, len(keys))
	for i, k := range keys {
		msgs[i] = e.Invalid[Field(k)]
	}
	return strings.Join(msgs, "; ")
}

// Unwrap makes errors.Is(err, ErrValidation) match.
func (e *ValidationError) Unwrap() error { return ErrValidation }

// FieldErrors returns per-field messages for inline rendering.
func (e *ValidationError) FieldErrors() map[string]string {
	out := make(map[string]string, len(e.Missing)+len(e.Invalid))
	for _, f := range e.Missing {
		out[string(f)] = f.Label() + " is required"
	}
	for f, msg := range e.Invalid {
		out[string(f)] = msg
	}
	return out
}

// Validate checks the form against its definition as of now.
func (f *Form) Validate() error {
	return f.ValidateAt(time.Now())
}

// ValidateAt is Validate with an explicit clock for the demo date check.
func (f *Form) ValidateAt(now time.Time) error {
	ve := &ValidationError{Invalid: make(map[Field]string)}

	for _, field := range f.VisibleFields() {
		if f.isRequired(field) && f.delivered(field) == "" {
			ve.Missing = append(ve.Missing, field)
		}
	}

	for _, field := range f.VisibleFields() {
		v := strings.TrimSpace(f.Value(field))
		if v == "" {
			continue
		}
		if msg := checkField(field, v, now); msg != "" {
			ve.Invalid[field] = msg
		}
	}

	if len(ve.Missing) == 0 && len(ve.Invalid) == 0 {
		return nil
	}
	return ve
}

// isRequired reports whether field must be filled in. A shown
// otherService is always required.
func (f *Form) isRequired(field Field) bool {
	return field == FieldOtherService || f.spec.IsRequired(field)
}

func checkField(field Field, v string, now time.Time) string {
	switch field {
	case FieldEmail:
		if !validation.IsEmail(v) {
			return "Please enter a valid email address"
		}
	case FieldPhone:
		if !validation.IsPhone(v) {
			return "Please enter a valid phone number"
		}
	case FieldDate:
		d, err := time.Parse(DateLayout, v)
		if err != nil {
			return "Please enter a valid date"
		}
		today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		if d.Before(today) {
			return "Please choose a date from today onwards"
		}
	case FieldTime:
		if !validSlot(v) {
			return "Please choose one of the available time slots"
		}
	case FieldService, FieldBudget, FieldTimeline, FieldTeamSize:
		if !slices.Contains(Options(field), v) {
			return field.Label() + " has an unknown option"
		}
	case FieldName, FieldCompany, FieldOtherService:
		if utf8.RuneCountInString(v) > 200 {
			return field.Label() + " must be at most 200 characters"
		}
	case FieldMessage, FieldExistingStack:
		if utf8.RuneCountInString(v) > MaxTextLength {
			return field.Label() + " is too long"
		}
	}
	return ""
}
