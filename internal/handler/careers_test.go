// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/vetpl-go/internal/model"
)

func TestCareersList(t *testing.T) {
	app := newTestApp(t)

	status, _, body := app.get("/careers")
	assert.Equal(t, http.StatusOK, status)
	contains(t, body, "Senior Go Developer", "Product Designer", `href="/careers/1/apply"`, `id="1-senior-go-developer"`)
	assert.NotContains(t, body, "temporarily unavailable")
}

func TestCareersListDepartmentFilter(t *testing.T) {
	app := newTestApp(t)

	_, _, body := app.get("/careers?department=Design")
	contains(t, body, "Product Designer")
	assert.NotContains(t, body, "Senior Go Developer")
}

func TestCareersListFallbackNotice(t *testing.T) {
	app := newTestApp(t)
	app.listings.fallback = true

	status, _, body := app.get("/careers")
	assert.Equal(t, http.StatusOK, status)
	contains(t, body, "Live openings are temporarily unavailable", "Senior Go Developer")
}

func TestApplyFormUnknownJob(t *testing.T) {
	app := newTestApp(t)

	for _, path := range []string{"/careers/99/apply", "/careers/abc/apply"} {
		status, _, body := app.get(path)
		assert.Equal(t, http.StatusNotFound, status, path)
		contains(t, body, "Page Not Found")
	}
}

func multipartApplication(t *testing.T, fields map[string]string, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if filename != "" {
		fw, err := mw.CreateFormFile("resume", filename)
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func applicantFields() map[string]string {
	return map[string]string{
		"full_name":           "Jane Roe",
		"email":               "jane@example.com",
		"phone":               "+1 555 123 4567",
		"years_of_experience": "6",
		"cover_letter":        "I build reliable services.",
	}
}

func TestApplySubmitsApplication(t *testing.T) {
	app := newTestApp(t)

	body, contentType := multipartApplication(t, applicantFields(), "../../my resume.pdf", "%PDF-1.4 resume")
	req, err := http.NewRequest(http.MethodPost, app.server.URL+"/careers/1/apply", body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", contentType)

	status, loc, respBody := app.do(req)
	require.Equal(t, http.StatusSeeOther, status, respBody)
	assert.Equal(t, "/careers", loc)

	require.Len(t, app.applicant.forms, 1)
	form := app.applicant.forms[0]
	assert.Equal(t, "Jane Roe", form.FullName)
	assert.Equal(t, "Senior Go Developer", form.JobTitle)
	assert.Equal(t, model.JobTypeFullTime, form.JobType)
	assert.Equal(t, "Engineering", form.Department)
	assert.False(t, strings.Contains(app.applicant.resume[0], "/"), "filename must be sanitized: %s", app.applicant.resume[0])
	assert.True(t, strings.HasSuffix(app.applicant.resume[0], ":%PDF-1.4 resume"))

	_, _, page := app.get(loc)
	contains(t, page, "Application submitted successfully!", "APP-0007")
}

func TestApplyRejectsBadResume(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		wantText string
	}{
		{"missing", "", "resume"},
		{"wrong type", "resume.exe", "PDF"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(t)

			body, contentType := multipartApplication(t, applicantFields(), tt.filename, "data")
			req, err := http.NewRequest(http.MethodPost, app.server.URL+"/careers/1/apply", body)
			require.NoError(t, err)
			req.Header.Set("Content-Type", contentType)

			status, _, respBody := app.do(req)
			assert.Equal(t, http.StatusUnprocessableEntity, status)
			assert.Contains(t, strings.ToLower(respBody), strings.ToLower(tt.wantText))
			assert.Empty(t, app.applicant.forms)
			contains(t, respBody, `value="Jane Roe"`)
		})
	}
}
