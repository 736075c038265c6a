// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

// Form input type constants, used by templates to pick a control.
const (
	FieldTypeText     = "text"
	FieldTypeEmail    = "email"
	FieldTypeTel      = "tel"
	FieldTypeTextarea = "textarea"
	FieldTypeSelect   = "select"
	FieldTypeDate     = "date"
	FieldTypeCheckbox = "checkbox"
)
