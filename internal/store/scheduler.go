// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import "context"

// SchedulerOverrideKey identifies a scheduled job.
type SchedulerOverrideKey struct {
	Source string
	Name   string
}

// GetSchedulerOverride returns the stored cron expression for a job, or
// sql.ErrNoRows when the job runs on its default schedule.
func (q *Queries) GetSchedulerOverride(ctx context.Context, arg SchedulerOverrideKey) (string, error) {
	var schedule string
	err := q.db.QueryRowContext(ctx,
		`SELECT override_schedule FROM scheduler_overrides WHERE source = ? AND name = ?`,
		arg.Source, arg.Name,
	).Scan(&schedule)
	return schedule, err
}

// UpsertSchedulerOverrideParams holds a new schedule for a job.
type UpsertSchedulerOverrideParams struct {
	Source           string
	Name             string
	OverrideSchedule string
}

// UpsertSchedulerOverride stores or replaces a job's schedule.
func (q *Queries) UpsertSchedulerOverride(ctx context.Context, arg UpsertSchedulerOverrideParams) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO scheduler_overrides (source, name, override_schedule, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (source, name) DO UPDATE SET
			override_schedule = excluded.override_schedule,
			updated_at = CURRENT_TIMESTAMP`,
		arg.Source, arg.Name, arg.OverrideSchedule,
	)
	return err
}

// DeleteSchedulerOverride restores a job's default schedule.
func (q *Queries) DeleteSchedulerOverride(ctx context.Context, arg SchedulerOverrideKey) error {
	_, err := q.db.ExecContext(ctx,
		`DELETE FROM scheduler_overrides WHERE source = ? AND name = ?`,
		arg.Source, arg.Name,
	)
	return err
}
