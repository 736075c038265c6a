// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "github.com/shopspring/decimal"

// DashboardStats are the headline figures on the dashboard home.
type DashboardStats struct {
	Revenue        decimal.Decimal
	Users          int
	Projects       int
	ConversionRate decimal.Decimal
	Growth         decimal.Decimal
}

// Activity is one entry of the recent activity feed.
type Activity struct {
	User   string
	Action string
	Time   string
}

// ProjectProgress is a project card on the dashboard.
type ProjectProgress struct {
	Name     string
	Progress int
	Status   string
}

// DemoDashboardStats returns the placeholder dashboard figures.
func DemoDashboardStats() DashboardStats {
	return DashboardStats{
		Revenue:        decimal.NewFromInt(54231),
		Users:          2345,
		Projects:       45,
		ConversionRate: decimal.RequireFromString("3.2"),
		Growth:         decimal.RequireFromString("12.5"),
	}
}

// DemoActivities returns the placeholder activity feed.
func DemoActivities() []Activity {
	return []Activity{
		{User: "John Doe", Action: "created a new project", Time: "2 minutes ago"},
		{User: "Sarah Johnson", Action: "updated team settings", Time: "15 minutes ago"},
		{User: "Admin User", Action: "added a new user", Time: "1 hour ago"},
		{User: "John Doe", Action: "submitted a report", Time: "3 hours ago"},
	}
}

// DemoProjects returns the placeholder project cards.
func DemoProjects() []ProjectProgress {
	return []ProjectProgress{
		{Name: "Website Redesign", Progress: 75, Status: "In Progress"},
		{Name: "Mobile App", Progress: 45, Status: "In Progress"},
		{Name: "School ERP Rollout", Progress: 100, Status: "Completed"},
		{Name: "Cloud Migration", Progress: 20, Status: "Planning"},
	}
}
