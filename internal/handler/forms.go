// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/vetpl-go/internal/apiclient"
	"github.com/olegiv/vetpl-go/internal/forms"
	"github.com/olegiv/vetpl-go/internal/middleware"
	"github.com/olegiv/vetpl-go/internal/model"
	"github.com/olegiv/vetpl-go/internal/service"
	"github.com/olegiv/vetpl-go/internal/validation"
)

// Messages shown for submissions that were not delivered.
const (
	msgFormBusy      = "Your submission is already being processed. Please wait."
	msgFormDuplicate = "This form has already been submitted."
	msgFormInvalid   = "Please correct the highlighted fields."
)

// maxFormBody bounds urlencoded lead forms.
const maxFormBody = 64 << 10

// LeadSubmitter delivers lead forms to the backend.
type LeadSubmitter interface {
	SubmitProject(ctx context.Context, p apiclient.ProjectSubmission, files []apiclient.Upload) (*apiclient.ProjectReceipt, error)
	SubmitContact(ctx context.Context, msg model.ContactMessage) (*apiclient.ContactReceipt, error)
}

// FormsHandler serves the universal lead form and the contact page.
type FormsHandler struct {
	views  *Views
	engine *forms.Engine
	leads  LeadSubmitter
	events *service.EventService
	logger *slog.Logger
}

// NewFormsHandler creates a new FormsHandler.
func NewFormsHandler(views *Views, engine *forms.Engine, leads LeadSubmitter, events *service.EventService, logger *slog.Logger) *FormsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &FormsHandler{
		views:  views,
		engine: engine,
		leads:  leads,
		events: events,
		logger: logger,
	}
}

// Show handles GET /forms/{kind}. Unknown kinds render the general form.
func (h *FormsHandler) Show(w http.ResponseWriter, r *http.Request) {
	kind := forms.Resolve(chi.URLParam(r, "kind"), h.logger)
	f := forms.New(kind, r.URL.Query().Get(string(forms.FieldProduct)))
	h.render(w, r, http.StatusOK, f, formAction(kind), nil, "")
}

// Submit handles POST /forms/{kind}.
func (h *FormsHandler) Submit(w http.ResponseWriter, r *http.Request) {
	kind := forms.Resolve(chi.URLParam(r, "kind"), h.logger)
	h.submit(w, r, kind, formAction(kind))
}

// Contact handles GET /contact.
func (h *FormsHandler) Contact(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, forms.New(forms.KindContact, ""), contactPath, nil, "")
}

// SubmitContact handles POST /contact.
func (h *FormsHandler) SubmitContact(w http.ResponseWriter, r *http.Request) {
	h.submit(w, r, forms.KindContact, contactPath)
}

func formAction(kind forms.Kind) string {
	return "/forms/" + string(kind)
}

func (h *FormsHandler) submit(w http.ResponseWriter, r *http.Request, kind forms.Kind, action string) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBody)
	if !parseFormOrRedirect(w, r, h.views.renderer, action) {
		return
	}

	f := forms.FromValues(kind, r.PostForm.Get(string(forms.FieldProduct)), r.PostForm)
	err := h.engine.Submit(r.Context(), ownerKey(r), f, h.deliver)

	var ve *forms.ValidationError
	switch {
	case err == nil:
		h.logEvent(r, model.EventLevelInfo, "Form submitted", f)
		flashSuccess(w, r, h.views.renderer, action, forms.SuccessMessage)
	case errors.As(err, &ve):
		h.render(w, r, http.StatusUnprocessableEntity, f, action, ve.FieldErrors(), msgFormInvalid)
	case errors.Is(err, forms.ErrSubmitting):
		h.render(w, r, http.StatusConflict, f, action, nil, msgFormBusy)
	case errors.Is(err, forms.ErrDuplicateSubmission):
		flashAndRedirect(w, r, h.views.renderer, action, msgFormDuplicate, "info")
	default:
		h.logger.Warn("form delivery failed", "kind", kind, "error", err)
		h.logEvent(r, model.EventLevelWarning, "Form delivery failed", f)
		status := http.StatusBadGateway
		var fe validation.FieldErrors
		if errors.As(err, &fe) {
			status = http.StatusUnprocessableEntity
		}
		h.render(w, r, status, f, action, leadFieldErrors(fe), apiclient.UserMessage(err))
	}
}

func (h *FormsHandler) render(w http.ResponseWriter, r *http.Request, status int, f *forms.Form, action string, fieldErrors map[string]string, message string) {
	view := newFormView(f, action, fieldErrors)
	view.Error = message
	h.views.status(w, r, status, tmplForm, view.Title, view)
}

func (h *FormsHandler) logEvent(r *http.Request, level, message string, f *forms.Form) {
	if h.events == nil {
		return
	}
	meta := map[string]any{"kind": string(f.Kind())}
	if p := f.ProductName(); p != "" {
		meta["product"] = p
	}
	_ = h.events.LogFormEvent(r.Context(), level, message, middleware.GetUserID(r), middleware.ClientIP(r), meta)
}

// deliver maps a form payload onto the backend endpoints. Project and
// quote requests go to the project intake; everything else is a contact
// message.
func (h *FormsHandler) deliver(ctx context.Context, kind forms.Kind, p forms.Payload) error {
	switch kind {
	case forms.KindProject, forms.KindQuote:
		_, err := h.leads.SubmitProject(ctx, apiclient.ProjectSubmission{
			FullName:      p.Get(forms.FieldName),
			Email:         p.Get(forms.FieldEmail),
			Phone:         p.Get(forms.FieldPhone),
			Company:       p.Get(forms.FieldCompany),
			ProjectType:   p.Get(forms.FieldService),
			Budget:        p.Get(forms.FieldBudget),
			Timeline:      p.Get(forms.FieldTimeline),
			TeamSize:      p.Get(forms.FieldTeamSize),
			ExistingStack: p.Get(forms.FieldExistingStack),
			Description:   p.Get(forms.FieldMessage),
			Technologies:  splitList(p.Get(forms.FieldTechnologies)),
		}, nil)
		return err
	default:
		_, err := h.leads.SubmitContact(ctx, model.ContactMessage{
			Name:    p.Get(forms.FieldName),
			Email:   p.Get(forms.FieldEmail),
			Phone:   p.Get(forms.FieldPhone),
			Subject: contactSubject(kind),
			Message: contactMessage(kind, p),
		})
		return err
	}
}

func contactSubject(kind forms.Kind) model.ContactSubject {
	switch kind {
	case forms.KindProduct, forms.KindDemo:
		return model.SubjectSales
	default:
		return model.SubjectGeneral
	}
}

// contactMessage folds the fields a contact message has no slot for into
// its body, below a heading naming the form.
func contactMessage(kind forms.Kind, p forms.Payload) string {
	def := forms.Definition(kind)
	var b strings.Builder
	fmt.Fprintf(&b, "%s request from %s", def.Title, p.Get(forms.FieldName))
	for _, field := range []forms.Field{forms.FieldProduct, forms.FieldCompany, forms.FieldDate, forms.FieldTime} {
		if v := p.Get(field); v != "" {
			fmt.Fprintf(&b, "\n%s: %s", field.Label(), v)
		}
	}
	if msg := p.Get(forms.FieldMessage); msg != "" {
		b.WriteString("\n\n")
		b.WriteString(msg)
	}
	return b.String()
}

// leadFields maps backend field names onto form fields.
var leadFields = map[string]forms.Field{
	"name":         forms.FieldName,
	"full_name":    forms.FieldName,
	"email":        forms.FieldEmail,
	"phone":        forms.FieldPhone,
	"company":      forms.FieldCompany,
	"project_type": forms.FieldService,
	"description":  forms.FieldMessage,
	"message":      forms.FieldMessage,
}

func leadFieldErrors(fe validation.FieldErrors) map[string]string {
	if len(fe) == 0 {
		return nil
	}
	out := make(map[string]string, len(fe))
	for k, msg := range fe {
		if field, ok := leadFields[k]; ok {
			out[string(field)] = msg
		}
	}
	return out
}

// splitList splits a ", " joined list.
func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
