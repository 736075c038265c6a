// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/vetpl-go/internal/apiclient"
	"github.com/olegiv/vetpl-go/internal/middleware"
	"github.com/olegiv/vetpl-go/internal/model"
	"github.com/olegiv/vetpl-go/internal/service"
	"github.com/olegiv/vetpl-go/internal/util"
	"github.com/olegiv/vetpl-go/internal/validation"
)

// multipartOverhead is the room left for the text parts of an application.
const multipartOverhead = 1 << 20

// Fields of the application form.
var applicationFields = []string{
	"full_name", "email", "phone", "linkedin_url", "github_url",
	"portfolio_url", "years_of_experience", "cover_letter",
}

// Listings serves the careers listings.
type Listings interface {
	Jobs(ctx context.Context) apiclient.Listing[model.Job]
	Departments(ctx context.Context) apiclient.Listing[string]
	Job(ctx context.Context, id int) (model.Job, bool, error)
}

// Applicant submits job applications.
type Applicant interface {
	Apply(ctx context.Context, form apiclient.ApplicationForm, resume apiclient.Upload) (*model.Application, error)
}

// CareersView is the template data of the careers page.
type CareersView struct {
	Jobs        []model.Job
	Departments []string
	Department  string
	// Fallback is set when the listings could not be loaded from the
	// backend and sample openings are shown instead.
	Fallback bool
}

// ApplyView is the template data of the application form.
type ApplyView struct {
	Job      model.Job
	Values   map[string]string
	Errors   map[string]string
	Error    string
	Accept   string
	MaxSize  string
	Fallback bool
}

// CareersHandler serves the careers page and job applications.
type CareersHandler struct {
	views     *Views
	listings  Listings
	applicant Applicant
	events    *service.EventService
	maxUpload int64
	logger    *slog.Logger
}

// NewCareersHandler creates a new CareersHandler. maxUpload bounds the
// resume; zero uses the backend's limit.
func NewCareersHandler(views *Views, listings Listings, applicant Applicant, events *service.EventService, maxUpload int64, logger *slog.Logger) *CareersHandler {
	if maxUpload <= 0 || maxUpload > validation.ResumeLimitApply {
		maxUpload = validation.ResumeLimitApply
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CareersHandler{
		views:     views,
		listings:  listings,
		applicant: applicant,
		events:    events,
		maxUpload: maxUpload,
		logger:    logger,
	}
}

// List handles GET /careers.
func (h *CareersHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	jobs := h.listings.Jobs(ctx)
	depts := h.listings.Departments(ctx)

	view := CareersView{
		Departments: depts.Items,
		Department:  r.URL.Query().Get("department"),
		Fallback:    jobs.Fallback || depts.Fallback,
	}
	for _, j := range jobs.Items {
		if view.Department == "" || j.Department == view.Department {
			view.Jobs = append(view.Jobs, j)
		}
	}
	if jobs.Fallback {
		h.logger.Warn("serving fallback job openings", "error", jobs.Cause, "category", model.EventCategoryCareers)
	}

	h.views.page(w, r, tmplCareers, "Careers", view)
}

// ApplyForm handles GET /careers/{id}/apply.
func (h *CareersHandler) ApplyForm(w http.ResponseWriter, r *http.Request) {
	job, fallback, ok := h.job(w, r)
	if !ok {
		return
	}
	h.renderApply(w, r, http.StatusOK, ApplyView{Job: job, Fallback: fallback})
}

// Apply handles POST /careers/{id}/apply.
func (h *CareersHandler) Apply(w http.ResponseWriter, r *http.Request) {
	job, fallback, ok := h.job(w, r)
	if !ok {
		return
	}
	view := ApplyView{Job: job, Fallback: fallback, Values: map[string]string{}}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload+multipartOverhead)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			view.Errors = map[string]string{"resume": (&validation.FileSizeError{Limit: h.maxUpload}).Error()}
			h.renderApply(w, r, http.StatusRequestEntityTooLarge, view)
			return
		}
		view.Error = "Invalid form data"
		h.renderApply(w, r, http.StatusBadRequest, view)
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	for _, name := range applicationFields {
		view.Values[name] = formValue(r, name)
	}

	file, fh, err := r.FormFile("resume")
	if err != nil && !errors.Is(err, http.ErrMissingFile) {
		view.Error = "Could not read the uploaded file"
		h.renderApply(w, r, http.StatusBadRequest, view)
		return
	}
	if file != nil {
		defer func() { _ = file.Close() }()
	}
	if err := validation.ValidateUpload(fileHeader(fh, err), h.maxUpload); err != nil {
		view.Errors = map[string]string{"resume": err.Error()}
		h.renderApply(w, r, http.StatusUnprocessableEntity, view)
		return
	}

	form := apiclient.ApplicationForm{
		FullName:          view.Values["full_name"],
		Email:             view.Values["email"],
		Phone:             view.Values["phone"],
		JobTitle:          job.Title,
		JobType:           model.NormalizeJobType(job.Type),
		Department:        job.Department,
		LinkedInURL:       view.Values["linkedin_url"],
		GitHubURL:         view.Values["github_url"],
		PortfolioURL:      view.Values["portfolio_url"],
		YearsOfExperience: view.Values["years_of_experience"],
		CoverLetter:       view.Values["cover_letter"],
	}
	resume := apiclient.Upload{
		Name:    util.SanitizeFilename(fh.Filename),
		Size:    fh.Size,
		Content: file,
	}

	app, err := h.applicant.Apply(r.Context(), form, resume)
	if err != nil {
		h.logger.Warn("job application failed", "job_id", job.ID, "error", err)
		var fe validation.FieldErrors
		status := http.StatusBadGateway
		if errors.As(err, &fe) {
			view.Errors = fe
			status = http.StatusUnprocessableEntity
		}
		view.Error = apiclient.UserMessage(err)
		h.renderApply(w, r, status, view)
		return
	}

	if h.events != nil {
		_ = h.events.LogCareersEvent(r.Context(), model.EventLevelInfo, "Job application submitted",
			middleware.GetUserID(r), middleware.ClientIP(r), map[string]any{
				"job_id":         job.ID,
				"job_title":      job.Title,
				"application_id": app.ApplicationID,
			})
	}
	msg := "Application submitted successfully!"
	if app.ApplicationID != "" {
		msg += " Your application ID is " + app.ApplicationID + "."
	}
	flashSuccess(w, r, h.views.renderer, careersPath, msg)
}

// job resolves the {id} URL parameter. It renders the 404 page and
// returns false when there is no such opening.
func (h *CareersHandler) job(w http.ResponseWriter, r *http.Request) (model.Job, bool, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		h.views.NotFound().ServeHTTP(w, r)
		return model.Job{}, false, false
	}
	job, fallback, err := h.listings.Job(r.Context(), id)
	if err != nil {
		if !errors.Is(err, service.ErrJobNotFound) {
			h.logger.Error("failed to load job", "job_id", id, "error", err)
		}
		h.views.NotFound().ServeHTTP(w, r)
		return model.Job{}, false, false
	}
	return job, fallback, true
}

func (h *CareersHandler) renderApply(w http.ResponseWriter, r *http.Request, status int, view ApplyView) {
	view.Accept = strings.Join(validation.ResumeExtensions, ",")
	view.MaxSize = validation.FormatFileSize(h.maxUpload)
	h.views.status(w, r, status, tmplApply, "Apply: "+view.Job.Title, view)
}

// fileHeader returns fh unless the file was missing.
func fileHeader(fh *multipart.FileHeader, err error) *multipart.FileHeader {
	if err != nil {
		return nil
	}
	return fh
}
