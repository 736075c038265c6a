// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEventLevels(t *testing.T) {
	assert.Equal(t, "info", EventLevelInfo)
	assert.Equal(t, "warning", EventLevelWarning)
	assert.Equal(t, "error", EventLevelError)
}

func TestEventCategoriesUnique(t *testing.T) {
	categories := []string{
		EventCategoryAuth,
		EventCategoryUser,
		EventCategoryForm,
		EventCategoryCareers,
		EventCategorySystem,
		EventCategoryCache,
	}

	seen := make(map[string]bool, len(categories))
	for _, cat := range categories {
		assert.NotEmpty(t, cat)
		assert.False(t, seen[cat], "duplicate category %q", cat)
		seen[cat] = true
	}
}
