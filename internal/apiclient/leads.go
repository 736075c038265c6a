// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/olegiv/vetpl-go/internal/model"
	"github.com/olegiv/vetpl-go/internal/validation"
)

// MaxProjectFiles bounds the attachments of one project request.
const MaxProjectFiles = 5

// ProjectSubmission is a project request with its contact details.
type ProjectSubmission struct {
	FullName      string   `json:"full_name" validate:"required,min=2,max=200"`
	Email         string   `json:"email" validate:"required,appemail"`
	Phone         string   `json:"phone" validate:"omitempty,appphone"`
	Company       string   `json:"company" validate:"max=200"`
	ProjectType   string   `json:"project_type" validate:"required,min=2,max=200"`
	Budget        string   `json:"budget"`
	Timeline      string   `json:"timeline"`
	TeamSize      string   `json:"team_size"`
	ExistingStack string   `json:"existing_stack"`
	Description   string   `json:"description" validate:"max=5000"`
	Technologies  []string `json:"technologies"`
}

// ProjectReceipt is the backend's acknowledgement of a project request.
type ProjectReceipt struct {
	ID        int64  `json:"id"`
	ProjectID string `json:"project_id"`
	Status    string `json:"status"`
}

// SubmitProject posts a project request. technologies travel as a JSON
// encoded string and every attachment as a repeated "files" part.
func (c *Client) SubmitProject(ctx context.Context, p ProjectSubmission, files []Upload) (*ProjectReceipt, error) {
	if err := validation.Struct(p); err != nil {
		return nil, err
	}
	if len(files) > MaxProjectFiles {
		return nil, validation.FieldErrors{"files": fmt.Sprintf("You can attach at most %d files", MaxProjectFiles)}
	}
	for _, f := range files {
		if err := validation.ValidateResume(f.Name, f.Size, validation.ResumeLimitProject); err != nil {
			return nil, err
		}
	}

	techs := p.Technologies
	if techs == nil {
		techs = []string{}
	}
	techJSON, err := json.Marshal(techs)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	err = writeFields(w, []formField{
		{name: "full_name", value: p.FullName},
		{name: "email", value: p.Email},
		{name: "phone", value: p.Phone},
		{name: "company", value: p.Company, optional: true},
		{name: "project_type", value: p.ProjectType},
		{name: "budget", value: p.Budget, optional: true},
		{name: "timeline", value: p.Timeline, optional: true},
		{name: "team_size", value: p.TeamSize, optional: true},
		{name: "existing_stack", value: p.ExistingStack, optional: true},
		{name: "description", value: p.Description},
		{name: "technologies", value: string(techJSON)},
	})
	for _, f := range files {
		if err != nil {
			break
		}
		err = writeFile(w, "files", f)
	}
	if err == nil {
		err = w.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("building project form: %w", err)
	}

	var out ProjectReceipt
	err = c.do(ctx, call{
		endpoint: "projects_submit",
		method:   http.MethodPost,
		path:     "/projects/submit",
		body: func() (io.Reader, string, error) {
			return bytes.NewReader(buf.Bytes()), w.FormDataContentType(), nil
		},
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ContactReceipt is the backend's acknowledgement of a contact message.
type ContactReceipt struct {
	ID      int64  `json:"id"`
	Message string `json:"message"`
}

// SubmitContact posts a contact message as JSON.
func (c *Client) SubmitContact(ctx context.Context, msg model.ContactMessage) (*ContactReceipt, error) {
	if msg.Subject == "" {
		msg.Subject = model.SubjectGeneral
	}
	if err := validation.Struct(msg); err != nil {
		return nil, err
	}

	var out ContactReceipt
	err := c.do(ctx, call{
		endpoint: "contact",
		method:   http.MethodPost,
		path:     "/contact",
		body:     jsonBody(msg),
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}
