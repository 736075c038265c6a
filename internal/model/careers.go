// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "time"

// JobType is the employment type of an application.
type JobType string

// Job types accepted by the careers backend.
const (
	JobTypeFullTime   JobType = "full_time"
	JobTypePartTime   JobType = "part_time"
	JobTypeContract   JobType = "contract"
	JobTypeInternship JobType = "internship"
	JobTypeRemote     JobType = "remote"
	JobTypeHybrid     JobType = "hybrid"
)

// NormalizeJobType maps listing labels such as "Full-time" onto the
// backend enumeration. Unknown labels map to full_time.
func NormalizeJobType(label string) JobType {
	switch label {
	case "full_time", "Full-time", "Full Time", "full-time":
		return JobTypeFullTime
	case "part_time", "Part-time", "Part Time", "part-time":
		return JobTypePartTime
	case "contract", "Contract":
		return JobTypeContract
	case "internship", "Internship":
		return JobTypeInternship
	case "remote", "Remote":
		return JobTypeRemote
	case "hybrid", "Hybrid":
		return JobTypeHybrid
	}
	return JobTypeFullTime
}

// ApplicationStatus is the review state of a job application.
type ApplicationStatus string

// Application statuses.
const (
	StatusPending            ApplicationStatus = "pending"
	StatusReviewed           ApplicationStatus = "reviewed"
	StatusShortlisted        ApplicationStatus = "shortlisted"
	StatusInterviewScheduled ApplicationStatus = "interview_scheduled"
	StatusRejected           ApplicationStatus = "rejected"
	StatusHired              ApplicationStatus = "hired"
	StatusWithdrawn          ApplicationStatus = "withdrawn"
)

// ApplicationStatuses lists statuses in review order.
func ApplicationStatuses() []ApplicationStatus {
	return []ApplicationStatus{
		StatusPending, StatusReviewed, StatusShortlisted, StatusInterviewScheduled,
		StatusRejected, StatusHired, StatusWithdrawn,
	}
}

// Valid reports whether s is a known status.
func (s ApplicationStatus) Valid() bool {
	for _, v := range ApplicationStatuses() {
		if v == s {
			return true
		}
	}
	return false
}

// Job is an open position published on the careers page.
type Job struct {
	ID          int      `json:"id" yaml:"id"`
	Title       string   `json:"title" yaml:"title"`
	Department  string   `json:"department" yaml:"department"`
	Type        string   `json:"type" yaml:"type"`
	Location    string   `json:"location" yaml:"location"`
	Experience  string   `json:"experience" yaml:"experience"`
	Salary      string   `json:"salary" yaml:"salary"`
	Description string   `json:"description" yaml:"description"`
	Skills      []string `json:"skills" yaml:"skills"`
	Urgent      bool     `json:"urgent" yaml:"urgent"`
	Posted      string   `json:"posted,omitempty" yaml:"posted,omitempty"`
}

// Application is a submitted job application as returned by the backend.
type Application struct {
	ID                int64             `json:"id"`
	ApplicationID     string            `json:"application_id"`
	FullName          string            `json:"full_name"`
	Email             string            `json:"email"`
	Phone             string            `json:"phone"`
	LinkedInURL       *string           `json:"linkedin_url"`
	GitHubURL         *string           `json:"github_url"`
	PortfolioURL      *string           `json:"portfolio_url"`
	YearsOfExperience *string           `json:"years_of_experience"`
	CoverLetter       *string           `json:"cover_letter"`
	JobTitle          string            `json:"job_title"`
	JobType           JobType           `json:"job_type"`
	Department        *string           `json:"department"`
	ResumePath        string            `json:"resume_path"`
	Status            ApplicationStatus `json:"status"`
	CreatedAt         time.Time         `json:"created_at"`
}

// ApplicationStats aggregates applications by status.
type ApplicationStats struct {
	Total       int            `json:"total" yaml:"total"`
	Pending     int            `json:"pending" yaml:"pending"`
	Reviewed    int            `json:"reviewed" yaml:"reviewed"`
	Shortlisted int            `json:"shortlisted" yaml:"shortlisted"`
	Hired       int            `json:"hired" yaml:"hired"`
	Rejected    int            `json:"rejected" yaml:"rejected"`
	Departments map[string]int `json:"departments,omitempty" yaml:"departments,omitempty"`
}

// ContactSubject classifies contact messages.
type ContactSubject string

// Contact subjects.
const (
	SubjectGeneral     ContactSubject = "general"
	SubjectSales       ContactSubject = "sales"
	SubjectSupport     ContactSubject = "support"
	SubjectCareer      ContactSubject = "career"
	SubjectPartnership ContactSubject = "partnership"
)

// ContactSubjects lists all subjects.
func ContactSubjects() []ContactSubject {
	return []ContactSubject{SubjectGeneral, SubjectSales, SubjectSupport, SubjectCareer, SubjectPartnership}
}

// ContactMessage is the JSON body of POST /contact.
type ContactMessage struct {
	Name    string         `json:"name" validate:"required,min=2,max=100"`
	Email   string         `json:"email" validate:"required,appemail"`
	Phone   string         `json:"phone,omitempty" validate:"omitempty,appphone"`
	Subject ContactSubject `json:"subject" validate:"required,oneof=general sales support career partnership"`
	Message string         `json:"message" validate:"required,min=10,max=5000"`
}
