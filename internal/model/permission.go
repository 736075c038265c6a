// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "slices"

// Permission names.
const (
	PermViewDashboard   = "view_dashboard"
	PermEditProfile     = "edit_profile"
	PermViewTasks       = "view_tasks"
	PermSubmitReports   = "submit_reports"
	PermManageTeam      = "manage_team"
	PermApproveRequests = "approve_requests"
	PermViewAnalytics   = "view_analytics"
	PermManageUsers     = "manage_users"
	PermManageSettings  = "manage_settings"
	PermViewReports     = "view_reports"
	PermManageRoles     = "manage_roles"
)

var (
	basePermissions      = []string{PermViewDashboard, PermEditProfile}
	developerPermissions = []string{PermViewTasks, PermSubmitReports}
	managerPermissions   = []string{PermManageTeam, PermApproveRequests, PermViewAnalytics}
	adminPermissions     = []string{PermManageUsers, PermManageSettings, PermViewReports, PermManageRoles}
)

// Permissions returns the capability set of a role. The result is freshly
// allocated on every call. Admin holds every permission of the lower roles.
func Permissions(role Role) []string {
	perms := slices.Clone(basePermissions)
	switch role {
	case RoleAdmin:
		perms = append(perms, developerPermissions...)
		perms = append(perms, managerPermissions...)
		perms = append(perms, adminPermissions...)
	case RoleManager:
		perms = append(perms, managerPermissions...)
	case RoleDeveloper:
		perms = append(perms, developerPermissions...)
	case RoleUser:
	}
	return perms
}

// HasPermission reports whether role grants perm.
func HasPermission(role Role, perm string) bool {
	return slices.Contains(Permissions(role), perm)
}
