// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package apiclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/olegiv/vetpl-go/internal/model"
	"github.com/olegiv/vetpl-go/internal/util"
	"github.com/olegiv/vetpl-go/internal/validation"
)

// ApplicationForm holds the text fields of a job application.
type ApplicationForm struct {
	FullName          string        `json:"full_name" validate:"required,min=2,max=200"`
	Email             string        `json:"email" validate:"required,appemail"`
	Phone             string        `json:"phone" validate:"required,appphone"`
	JobTitle          string        `json:"job_title" validate:"required,min=2,max=200"`
	JobType           model.JobType `json:"job_type" validate:"omitempty,oneof=full_time part_time contract internship remote hybrid"`
	Department        string        `json:"department"`
	LinkedInURL       string        `json:"linkedin_url" validate:"omitempty,url"`
	GitHubURL         string        `json:"github_url" validate:"omitempty,url"`
	PortfolioURL      string        `json:"portfolio_url" validate:"omitempty,url"`
	YearsOfExperience string        `json:"years_of_experience" validate:"max=50"`
	CoverLetter       string        `json:"cover_letter" validate:"max=5000"`
}

// Upload is a file part of a multipart request.
type Upload struct {
	Name    string
	Size    int64
	Content io.Reader
}

type formField struct {
	name, value string
	optional    bool
}

// writeFields writes fields in order, skipping blank optional ones.
func writeFields(w *multipart.Writer, fields []formField) error {
	for _, f := range fields {
		v := strings.TrimSpace(f.value)
		if v == "" && f.optional {
			continue
		}
		if err := w.WriteField(f.name, v); err != nil {
			return err
		}
	}
	return nil
}

func writeFile(w *multipart.Writer, field string, up Upload) error {
	part, err := w.CreateFormFile(field, util.SanitizeFilename(up.Name))
	if err != nil {
		return err
	}
	_, err = io.Copy(part, up.Content)
	return err
}

// Apply submits a job application with its resume. Input is validated
// locally first; an invalid form or resume never reaches the network.
func (c *Client) Apply(ctx context.Context, form ApplicationForm, resume Upload) (*model.Application, error) {
	if form.JobType == "" {
		form.JobType = model.JobTypeFullTime
	}
	if err := validation.Struct(form); err != nil {
		return nil, err
	}
	if err := validation.ValidateResume(resume.Name, resume.Size, validation.ResumeLimitApply); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	err := writeFields(w, []formField{
		{name: "full_name", value: form.FullName},
		{name: "email", value: form.Email},
		{name: "phone", value: form.Phone},
		{name: "job_title", value: form.JobTitle},
		{name: "job_type", value: string(form.JobType)},
		{name: "department", value: form.Department, optional: true},
		{name: "linkedin_url", value: form.LinkedInURL, optional: true},
		{name: "github_url", value: form.GitHubURL, optional: true},
		{name: "portfolio_url", value: form.PortfolioURL, optional: true},
		{name: "years_of_experience", value: form.YearsOfExperience, optional: true},
		{name: "cover_letter", value: form.CoverLetter, optional: true},
	})
	if err == nil {
		err = writeFile(w, "resume", resume)
	}
	if err == nil {
		err = w.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("building application form: %w", err)
	}

	var out model.Application
	err = c.do(ctx, call{
		endpoint: "apply",
		method:   http.MethodPost,
		path:     "/apply",
		body: func() (io.Reader, string, error) {
			return bytes.NewReader(buf.Bytes()), w.FormDataContentType(), nil
		},
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// JobOpenings lists open positions. Any failure is answered with the
// fallback jobs and Fallback set; an empty success stays empty.
func (c *Client) JobOpenings(ctx context.Context) Listing[model.Job] {
	var jobs []model.Job
	err := c.do(ctx, call{endpoint: "jobs_openings", method: http.MethodGet, path: "/jobs/openings"}, &jobs)
	if err != nil {
		c.logger.Warn("using fallback job openings", "error", err)
		c.metrics.IncFallback("jobs_openings")
		return Listing[model.Job]{Items: c.fallback.jobs(), Fallback: true, Cause: err}
	}
	if jobs == nil {
		jobs = []model.Job{}
	}
	return Listing[model.Job]{Items: jobs}
}

// Departments lists departments with the same fallback contract as JobOpenings.
func (c *Client) Departments(ctx context.Context) Listing[string] {
	var depts []string
	err := c.do(ctx, call{endpoint: "departments", method: http.MethodGet, path: "/departments"}, &depts)
	if err != nil {
		c.logger.Warn("using fallback departments", "error", err)
		c.metrics.IncFallback("departments")
		return Listing[string]{Items: c.fallback.Departments(), Fallback: true, Cause: err}
	}
	if depts == nil {
		depts = []string{}
	}
	return Listing[string]{Items: depts}
}

// Health is the backend health document.
type Health struct {
	Status  string `json:"status"`
	Service string `json:"service,omitempty"`
	Version string `json:"version,omitempty"`
}

// Health checks the backend.
func (c *Client) Health(ctx context.Context) (*Health, error) {
	var h Health
	if err := c.do(ctx, call{endpoint: "health", method: http.MethodGet, path: "/health"}, &h); err != nil {
		return nil, err
	}
	return &h, nil
}
