// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/vetpl-go/internal/apiclient"
	"github.com/olegiv/vetpl-go/internal/auth"
	"github.com/olegiv/vetpl-go/internal/cache"
	"github.com/olegiv/vetpl-go/internal/content"
	"github.com/olegiv/vetpl-go/internal/forms"
	"github.com/olegiv/vetpl-go/internal/middleware"
	"github.com/olegiv/vetpl-go/internal/model"
	"github.com/olegiv/vetpl-go/internal/render"
	"github.com/olegiv/vetpl-go/internal/service"
	"github.com/olegiv/vetpl-go/internal/testutil"
	"github.com/olegiv/vetpl-go/web"
)

// fakeLeads records what the forms handler delivers.
type fakeLeads struct {
	mu       sync.Mutex
	projects []apiclient.ProjectSubmission
	contacts []model.ContactMessage
	err      error
}

func (f *fakeLeads) SubmitProject(_ context.Context, p apiclient.ProjectSubmission, _ []apiclient.Upload) (*apiclient.ProjectReceipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.projects = append(f.projects, p)
	return &apiclient.ProjectReceipt{ID: int64(len(f.projects)), ProjectID: "PRJ-1", Status: "new"}, nil
}

func (f *fakeLeads) SubmitContact(_ context.Context, msg model.ContactMessage) (*apiclient.ContactReceipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.contacts = append(f.contacts, msg)
	return &apiclient.ContactReceipt{ID: int64(len(f.contacts))}, nil
}

func (f *fakeLeads) contactCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.contacts)
}

// fakeListings serves a fixed set of openings.
type fakeListings struct {
	jobs     []model.Job
	depts    []string
	fallback bool
}

func (f *fakeListings) Jobs(context.Context) apiclient.Listing[model.Job] {
	l := apiclient.Listing[model.Job]{Items: f.jobs, Fallback: f.fallback}
	if f.fallback {
		l.Cause = errors.New("backend down")
	}
	return l
}

func (f *fakeListings) Departments(context.Context) apiclient.Listing[string] {
	return apiclient.Listing[string]{Items: f.depts, Fallback: f.fallback}
}

func (f *fakeListings) Job(_ context.Context, id int) (model.Job, bool, error) {
	for _, j := range f.jobs {
		if j.ID == id {
			return j, f.fallback, nil
		}
	}
	return model.Job{}, false, service.ErrJobNotFound
}

// fakeApplicant accepts every application.
type fakeApplicant struct {
	mu     sync.Mutex
	forms  []apiclient.ApplicationForm
	resume []string
	err    error
}

func (f *fakeApplicant) Apply(_ context.Context, form apiclient.ApplicationForm, resume apiclient.Upload) (*model.Application, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	body, _ := io.ReadAll(resume.Content)
	f.forms = append(f.forms, form)
	f.resume = append(f.resume, resume.Name+":"+string(body))
	return &model.Application{ID: 7, ApplicationID: "APP-0007", FullName: form.FullName}, nil
}

var testJobs = []model.Job{
	{ID: 1, Title: "Senior Go Developer", Department: "Engineering", Type: "Full-time", Location: "Remote"},
	{ID: 2, Title: "Product Designer", Department: "Design", Type: "Contract", Location: "Berlin"},
}

// testApp is a server running the handlers behind the session middleware.
type testApp struct {
	t         *testing.T
	server    *httptest.Server
	client    *http.Client
	leads     *fakeLeads
	listings  *fakeListings
	applicant *fakeApplicant
	jobs      *fakeJobs
	auth      *auth.Service
}

func newTestViews(t *testing.T, sm *scs.SessionManager) *Views {
	t.Helper()
	templates, err := fs.Sub(web.Templates, "templates")
	require.NoError(t, err)
	renderer, err := render.New(render.Config{
		TemplatesFS:    templates,
		SessionManager: sm,
		SiteName:       "Vetpl",
		IsDev:          true,
	})
	require.NoError(t, err)
	lib, err := content.Default()
	require.NoError(t, err)
	return NewViews(renderer, lib)
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	logger := testutil.TestLoggerSilent()

	sm := scs.New()
	authSvc := auth.NewService(auth.Options{
		Provider: auth.NewDemoProvider(),
		Issuer:   auth.NewTokenIssuer([]byte("test-secret-0123456789abcdef0123"), "vetpl-test", time.Hour),
		Logger:   logger,
	})
	views := newTestViews(t, sm)
	lib, err := content.Default()
	require.NoError(t, err)

	app := &testApp{
		t:         t,
		leads:     &fakeLeads{},
		listings:  &fakeListings{jobs: testJobs, depts: []string{"Design", "Engineering"}},
		applicant: &fakeApplicant{},
		jobs:      newFakeJobs(),
		auth:      authSvc,
	}

	claims := cache.NewMemoryCache(cache.MemoryCacheOptions{DefaultTTL: time.Hour})
	t.Cleanup(func() { _ = claims.Close() })
	engine := forms.NewEngine(forms.EngineOptions{Claims: claims, Logger: logger})

	throttle := middleware.NewLoginThrottle(middleware.LoginThrottleConfig{Logger: logger})
	t.Cleanup(throttle.Close)

	pagesH := NewPagesHandler(views, lib, logger)
	formsH := NewFormsHandler(views, engine, app.leads, nil, logger)
	careersH := NewCareersHandler(views, app.listings, app.applicant, nil, 0, logger)
	authH := NewAuthHandler(AuthHandlerConfig{
		Views:          views,
		Auth:           authSvc,
		SessionManager: sm,
		Throttle:       throttle,
		DemoAccounts:   auth.DemoAccounts(),
		Logger:         logger,
	})
	dashH := NewDashboardHandler(views, authSvc, logger)
	adminH := NewAdminHandler(views, authSvc, &fakeApplications{}, app.listings, nil, logger)
	jobsH := NewSchedulerHandler(views, app.jobs, nil, logger)
	g := middleware.NewGuard(middleware.GuardConfig{
		Auth:    authSvc,
		Loading: views.Loading(),
		Denied:  views.Denied(),
	})

	r := chi.NewRouter()
	r.Use(sm.LoadAndSave)
	r.Use(middleware.Session(sm, authSvc, "", logger))
	r.NotFound(views.NotFound().ServeHTTP)

	r.Get("/", pagesH.Home)
	r.Get("/contact", formsH.Contact)
	r.Post("/contact", formsH.SubmitContact)
	r.Get("/forms/{kind}", formsH.Show)
	r.Post("/forms/{kind}", formsH.Submit)
	r.Get("/careers", careersH.List)
	r.Get("/careers/{id}/apply", careersH.ApplyForm)
	r.Post("/careers/{id}/apply", careersH.Apply)
	r.Get("/login", authH.LoginForm)
	r.Post("/login", authH.Login)
	r.Get("/admin/login", authH.AdminLoginForm)
	r.Post("/admin/login", authH.AdminLogin)
	r.Get("/register", authH.RegisterForm)
	r.Post("/register", authH.Register)
	r.Post("/logout", authH.Logout)
	r.Route("/dashboard", func(r chi.Router) {
		r.Use(g.RequireAuth())
		r.Get("/", dashH.Home)
		r.Get("/profile", dashH.Profile)
		r.Post("/profile", dashH.UpdateProfile)
		r.Get("/settings", dashH.Settings)
		r.Post("/settings", dashH.ChangePassword)
		r.Post("/sidebar", dashH.ToggleSidebar)
		r.Route("/admin", func(r chi.Router) {
			r.Use(g.RequireAdmin())
			r.Get("/users", adminH.Users)
			r.Get("/applications", adminH.Applications)
			r.Get("/applications/stats", adminH.Stats)
			r.Get("/applications/{id}", adminH.Application)
			r.Get("/jobs", jobsH.List)
			r.Post("/jobs/update", jobsH.UpdateSchedule)
			r.Post("/jobs/reset", jobsH.ResetSchedule)
			r.Post("/jobs/trigger/{name}", jobsH.Trigger)
		})
	})
	r.Get("/{slug}", pagesH.Page)

	app.server = httptest.NewServer(r)
	t.Cleanup(app.server.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	app.client = &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	return app
}

// get requests path and returns the status, Location header and body.
func (a *testApp) get(path string) (int, string, string) {
	a.t.Helper()
	resp, err := a.client.Get(a.server.URL + path)
	require.NoError(a.t, err)
	return readResponse(a.t, resp)
}

// post submits vals as a urlencoded form.
func (a *testApp) post(path string, vals url.Values) (int, string, string) {
	a.t.Helper()
	resp, err := a.client.PostForm(a.server.URL+path, vals)
	require.NoError(a.t, err)
	return readResponse(a.t, resp)
}

func (a *testApp) do(req *http.Request) (int, string, string) {
	a.t.Helper()
	resp, err := a.client.Do(req)
	require.NoError(a.t, err)
	return readResponse(a.t, resp)
}

func (a *testApp) login(email, password string) {
	a.t.Helper()
	status, loc, body := a.post("/login", url.Values{"email": {email}, "password": {password}})
	require.Equal(a.t, http.StatusSeeOther, status, body)
	require.NotEmpty(a.t, loc)
}

func readResponse(t *testing.T, resp *http.Response) (int, string, string) {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, resp.Header.Get("Location"), string(body)
}

// fakeApplications is an empty applications backend.
type fakeApplications struct{}

func (fakeApplications) ListApplications(context.Context, apiclient.ApplicationFilter) ([]model.Application, error) {
	return []model.Application{{ID: 1, ApplicationID: "APP-0001", FullName: "Jane Roe", Email: "jane@example.com", JobTitle: "Senior Go Developer", Status: model.StatusPending}}, nil
}

func (fakeApplications) GetApplication(_ context.Context, id int64) (*model.Application, error) {
	if id != 1 {
		return nil, &apiclient.APIError{Status: http.StatusNotFound, Message: "Application not found"}
	}
	return &model.Application{ID: 1, ApplicationID: "APP-0001", FullName: "Jane Roe", Status: model.StatusPending}, nil
}

func (fakeApplications) UpdateApplication(_ context.Context, id int64, upd apiclient.ApplicationUpdate) (*model.Application, error) {
	return &model.Application{ID: id, ApplicationID: "APP-0001", Status: upd.Status}, nil
}

func (fakeApplications) DeleteApplication(context.Context, int64) error { return nil }

func (fakeApplications) ApplicationStats(context.Context) (apiclient.StatsResult, error) {
	return apiclient.StatsResult{
		Stats: model.ApplicationStats{Total: 3, Pending: 2, Hired: 1, Departments: map[string]int{"Engineering": 2, "Design": 1}},
	}, nil
}

func contains(t *testing.T, body string, parts ...string) {
	t.Helper()
	for _, p := range parts {
		if !strings.Contains(body, p) {
			t.Errorf("body does not contain %q", p)
		}
	}
}
