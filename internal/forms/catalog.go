// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package forms

import "slices"

// OtherService is the service option that reveals the free-text
// otherService field.
const OtherService = "Other"

// Services are the options of the service select.
var Services = []string{
	"Web Development",
	"Mobile App Development",
	"Cloud Solutions",
	"Cybersecurity Services",
	"AI & ML Solutions",
	"School ERP System",
	"Inventory & Production ERP",
	"Enterprise Software",
	"Digital Marketing",
	OtherService,
}

// Technology is a selectable technology chip.
type Technology struct {
	Name     string
	Category string
}

// Technologies are the predefined technology chips.
var Technologies = []Technology{
	{"React", "Frontend"},
	{"Node.js", "Backend"},
	{"Python", "Backend"},
	{"Java", "Backend"},
	{"React Native", "Mobile"},
	{"Flutter", "Mobile"},
	{"AWS", "Cloud"},
	{"Azure", "Cloud"},
	{"MongoDB", "Database"},
	{"PostgreSQL", "Database"},
	{"Docker", "DevOps"},
	{"Kubernetes", "DevOps"},
}

// Budgets are the options of the budget select.
var Budgets = []string{
	"Less than $5,000",
	"$5,000 - $10,000",
	"$10,000 - $25,000",
	"$25,000 - $50,000",
	"$50,000 - $100,000",
	"$100,000 - $250,000",
	"More than $250,000",
	"Not sure / Need quote",
}

// Timelines are the options of the timeline select.
var Timelines = []string{
	"Immediate (1-2 weeks)",
	"Short-term (1 month)",
	"Medium-term (1-3 months)",
	"Long-term (3-6 months)",
	"Not sure / Flexible",
}

// TeamSizes are the options of the team size select.
var TeamSizes = []string{
	"Just me",
	"2-5 people",
	"6-10 people",
	"11-20 people",
	"20+ people",
	"Enterprise team",
}

// TimeSlot is a bookable demo slot.
type TimeSlot struct {
	Value string
	Label string
}

// TimeSlots are the demo slots, in the company's business hours.
var TimeSlots = []TimeSlot{
	{"09:00-10:00", "9:00 AM - 10:00 AM"},
	{"10:00-11:00", "10:00 AM - 11:00 AM"},
	{"11:00-12:00", "11:00 AM - 12:00 PM"},
	{"13:00-14:00", "1:00 PM - 2:00 PM"},
	{"14:00-15:00", "2:00 PM - 3:00 PM"},
	{"15:00-16:00", "3:00 PM - 4:00 PM"},
	{"16:00-17:00", "4:00 PM - 5:00 PM"},
}

// Options returns the select options for f, or nil for free-text fields.
func Options(f Field) []string {
	switch f {
	case FieldService:
		return Services
	case FieldBudget:
		return Budgets
	case FieldTimeline:
		return Timelines
	case FieldTeamSize:
		return TeamSizes
	case FieldTime:
		out := make([]string, len(TimeSlots))
		for i, s := range TimeSlots {
			out[i] = s.Value
		}
		return out
	}
	return nil
}

func validSlot(v string) bool {
	return slices.ContainsFunc(TimeSlots, func(s TimeSlot) bool { return s.Value == v })
}
