// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package apiclient

import (
	_ "embed"
	"fmt"
	"maps"
	"slices"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/olegiv/vetpl-go/internal/model"
)

//go:embed fallback.yaml
var defaultFallbackYAML []byte

// Fallback is the static data served when a public read fails.
type Fallback struct {
	Jobs  []model.Job            `yaml:"jobs"`
	Stats model.ApplicationStats `yaml:"stats"`
}

// ParseFallback decodes fallback data from YAML.
func ParseFallback(data []byte) (*Fallback, error) {
	var fb Fallback
	if err := yaml.Unmarshal(data, &fb); err != nil {
		return nil, fmt.Errorf("parsing fallback data: %w", err)
	}
	return &fb, nil
}

// DefaultFallback returns the embedded fallback data.
func DefaultFallback() *Fallback {
	fb, err := ParseFallback(defaultFallbackYAML)
	if err != nil {
		panic(err)
	}
	return fb
}

// Departments returns the sorted distinct departments of the fallback jobs.
func (f *Fallback) Departments() []string {
	set := make(map[string]struct{})
	for _, j := range f.Jobs {
		if j.Department != "" {
			set[j.Department] = struct{}{}
		}
	}
	out := slices.Collect(maps.Keys(set))
	sort.Strings(out)
	return out
}

// Listing is the result of a read that may have been served from fallback
// data. Fallback distinguishes "backend unreachable" from "genuinely empty".
type Listing[T any] struct {
	Items    []T
	Fallback bool
	// Cause is the error that triggered the fallback.
	Cause error
}

func (f *Fallback) jobs() []model.Job {
	out := make([]model.Job, len(f.Jobs))
	for i, j := range f.Jobs {
		j.Skills = slices.Clone(j.Skills)
		out[i] = j
	}
	return out
}

func (f *Fallback) stats() model.ApplicationStats {
	s := f.Stats
	s.Departments = maps.Clone(f.Stats.Departments)
	return s
}
