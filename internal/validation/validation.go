// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package validation holds the input rules shared by forms and the API client:
// email and phone formats, resume uploads and struct-tag validation.
package validation

import (
	"errors"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
)

var (
	emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phoneRegex = regexp.MustCompile(`^[\d\s\+\-\(\)]{10,20}$`)
)

// Upload size limits.
const (
	MB                 int64 = 1 << 20
	ResumeLimitApply         = 5 * MB
	ResumeLimitProject       = 10 * MB
)

// ResumeExtensions are the accepted resume file extensions.
var ResumeExtensions = []string{".pdf", ".doc", ".docx", ".txt"}

var (
	// ErrFileRequired is returned when no file was uploaded.
	ErrFileRequired = errors.New("Please attach your resume")
	// ErrFileType is returned for a disallowed extension.
	ErrFileType = errors.New("Please upload a PDF, DOC, DOCX, or TXT file")
	// ErrFileSize matches every *FileSizeError.
	ErrFileSize = errors.New("file too large")
)

// FileSizeError reports an upload above Limit bytes.
type FileSizeError struct {
	Limit int64
}

func (e *FileSizeError) Error() string {
	return fmt.Sprintf("File size must be less than %dMB", e.Limit/MB)
}

// Is makes errors.Is(err, ErrFileSize) match.
func (e *FileSizeError) Is(target error) bool {
	return target == ErrFileSize
}

// IsEmail reports whether s looks like an email address.
func IsEmail(s string) bool {
	return emailRegex.MatchString(strings.TrimSpace(s))
}

// IsPhone reports whether s is 10 to 20 digits, spaces or + - ( ) characters.
func IsPhone(s string) bool {
	return phoneRegex.MatchString(strings.TrimSpace(s))
}

// ValidateResume checks a resume by name and size against limit.
// The size is checked first, mirroring what the careers backend rejects first.
func ValidateResume(name string, size, limit int64) error {
	if name == "" {
		return ErrFileRequired
	}
	if limit > 0 && size > limit {
		return &FileSizeError{Limit: limit}
	}
	ext := strings.ToLower(filepath.Ext(name))
	if !slices.Contains(ResumeExtensions, ext) {
		return ErrFileType
	}
	return nil
}

// ValidateUpload runs ValidateResume against a multipart file header.
func ValidateUpload(fh *multipart.FileHeader, limit int64) error {
	if fh == nil {
		return ErrFileRequired
	}
	return ValidateResume(fh.Filename, fh.Size, limit)
}

// FormatFileSize renders a byte count for humans, e.g. "1.5 MB".
func FormatFileSize(bytes int64) string {
	if bytes <= 0 {
		return "0 Bytes"
	}
	units := []string{"Bytes", "KB", "MB", "GB"}
	size := float64(bytes)
	i := 0
	for size >= 1024 && i < len(units)-1 {
		size /= 1024
		i++
	}
	s := strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", size), "0"), ".")
	return s + " " + units[i]
}
