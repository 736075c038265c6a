// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/olegiv/vetpl-go/internal/validation"
)

var (
	// ErrNetwork wraps transport failures: refused connections, timeouts, DNS.
	ErrNetwork = errors.New("network error")
	// ErrUnauthorized is matched by every 401 response.
	ErrUnauthorized = errors.New("unauthorized")
)

// Messages shown to users.
const (
	MsgNetwork      = "Cannot connect to server. Please check your connection."
	MsgUnauthorized = "Your session has expired. Please sign in again."
	MsgGeneric      = "Something went wrong. Please try again."
)

// APIError is a non-2xx response from the backend.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// Is makes errors.Is(err, ErrUnauthorized) match 401 responses.
func (e *APIError) Is(target error) bool {
	return target == ErrUnauthorized && e.Status == http.StatusUnauthorized
}

// IsClientError reports a 4xx status.
func (e *APIError) IsClientError() bool {
	return e.Status >= 400 && e.Status < 500
}

// newAPIError extracts the best available message from a response body:
// the "detail" field (string or validation list), then "message" or
// "error", then the raw text, then "HTTP <status>".
func newAPIError(status int, body []byte) *APIError {
	return &APIError{Status: status, Message: extractMessage(status, body)}
}

func extractMessage(status int, body []byte) string {
	var payload struct {
		Detail  json.RawMessage `json:"detail"`
		Message string          `json:"message"`
		Error   string          `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if msg := detailMessage(payload.Detail); msg != "" {
			return msg
		}
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
	} else if text := strings.TrimSpace(string(body)); text != "" && len(text) <= 500 && !strings.HasPrefix(text, "<") {
		return text
	}
	return fmt.Sprintf("HTTP %d", status)
}

func detailMessage(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var items []struct {
		Msg string `json:"msg"`
		Loc []any  `json:"loc"`
	}
	if err := json.Unmarshal(raw, &items); err == nil {
		msgs := make([]string, 0, len(items))
		for _, it := range items {
			if it.Msg == "" {
				continue
			}
			if len(it.Loc) > 0 {
				msgs = append(msgs, fmt.Sprintf("%v: %s", it.Loc[len(it.Loc)-1], it.Msg))
			} else {
				msgs = append(msgs, it.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}
	return ""
}

// UserMessage converts an error from this package into text for a toast.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var fe validation.FieldErrors
	if errors.As(err, &fe) {
		return fe.Error()
	}
	if errors.Is(err, ErrUnauthorized) {
		return MsgUnauthorized
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	if errors.Is(err, ErrNetwork) {
		return MsgNetwork
	}
	if errors.Is(err, validation.ErrFileType) || errors.Is(err, validation.ErrFileSize) || errors.Is(err, validation.ErrFileRequired) {
		return err.Error()
	}
	return MsgGeneric
}
