// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/vetpl-go/internal/auth"
	"github.com/olegiv/vetpl-go/internal/config"
)

func TestLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, logLevel(tt.in), tt.in)
	}
}

func TestNewLogHandlerFormat(t *testing.T) {
	var buf bytes.Buffer
	slog.New(newLogHandler(&config.Config{Env: "production", LogLevel: "info"}, &buf)).Info("hello", "k", "v")
	assert.True(t, strings.HasPrefix(buf.String(), "{"), "production logs are JSON: %s", buf.String())

	buf.Reset()
	slog.New(newLogHandler(&config.Config{Env: "development", LogLevel: "info"}, &buf)).Info("hello", "k", "v")
	assert.Contains(t, buf.String(), "msg=hello")
}

func TestHashPasswordCommand(t *testing.T) {
	var out bytes.Buffer
	hashPasswordCmd.SetOut(&out)
	hashPasswordCmd.SetIn(strings.NewReader("s3cret-pass\n"))
	t.Cleanup(func() {
		hashPasswordCmd.SetOut(nil)
		hashPasswordCmd.SetIn(nil)
	})

	require.NoError(t, runHashPassword(hashPasswordCmd, nil))
	hash := strings.TrimSpace(out.String())
	ok, err := auth.CheckPassword("s3cret-pass", hash)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestHashPasswordCommandRejectsEmpty(t *testing.T) {
	hashPasswordCmd.SetIn(strings.NewReader("\n"))
	t.Cleanup(func() { hashPasswordCmd.SetIn(nil) })

	assert.Error(t, runHashPassword(hashPasswordCmd, nil))
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	versionCmd.SetOut(&out)
	t.Cleanup(func() { versionCmd.SetOut(nil) })

	versionCmd.Run(versionCmd, nil)
	assert.Equal(t, "vetpl dev (commit: unknown, built: unknown)\n", out.String())
}
