// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/olegiv/vetpl-go/internal/auth"
	"github.com/olegiv/vetpl-go/internal/demo"
)

var seedReset bool

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the users table with the demo accounts",
	RunE:  runSeed,
}

func init() {
	seedCmd.Flags().BoolVar(&seedReset, "reset", false, "wipe the database before seeding")
	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	slog.SetDefault(slog.New(newLogHandler(cfg, os.Stdout)))

	if seedReset {
		if err := demo.Reset(cfg.DBPath, filepath.Dir(cfg.DBPath)); err != nil {
			return fmt.Errorf("resetting database: %w", err)
		}
		slog.Info("database wiped", "path", cfg.DBPath)
	}

	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer closeDB(db)

	return seedUsers(cmd.Context(), db, slog.Default())
}

func seedUsers(ctx context.Context, db *sql.DB, logger *slog.Logger) error {
	n, err := auth.Seed(ctx, db, logger, auth.DemoAccounts())
	if err != nil {
		return fmt.Errorf("seeding users: %w", err)
	}
	logger.Info("seed complete", "created", n)
	return nil
}
