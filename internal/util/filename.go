// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package util

import (
	"path"
	"regexp"
	"strings"

	"github.com/mozillazg/go-unidecode"
)

// MaxFilenameLength bounds sanitized upload names.
const MaxFilenameLength = 255

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9_.\-]`)

// SanitizeFilename strips directory components from an uploaded file name,
// transliterates it to ASCII and replaces anything but letters, digits,
// dots, hyphens and underscores. The extension survives truncation.
func SanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, `\`, "/")
	name = path.Base(strings.TrimSpace(name))
	if name == "." || name == "/" || name == "" {
		return "unnamed_file"
	}

	name = unidecode.Unidecode(name)
	name = unsafeFilenameChars.ReplaceAllString(name, "_")
	name = strings.TrimLeft(name, ".")
	if name == "" {
		return "unnamed_file"
	}

	if len(name) > MaxFilenameLength {
		ext := path.Ext(name)
		if len(ext) >= MaxFilenameLength {
			ext = ""
		}
		name = name[:MaxFilenameLength-len(ext)] + ext
	}
	return name
}
