// File path: internal/api/types.go
package api

import "github.com/nicodishanthj/pathlight/internal/learn"

type profileRequest struct {
	UserID         string `json:"user_id"`
	JobTitle       string `json:"job_title,omitempty"`
	JobDescription string `json:"job_description"`
	JobSeniority   string `json:"job_seniority,omitempty"`
	Firm           string `json:"firm,omitempty"`
}

type coverageResponse struct {
	Result    *learn.CoverageResult `json:"result"`
	Resources []learn.Resource      `json:"fallback_resources,omitempty"`
}

type structureRequest struct {
	Topic    string   `json:"topic"`
	Keywords []string `json:"keywords,omitempty"`
	RoleType string   `json:"role_type,omitempty"`
}

type contentRequest struct {
	Topic        string `json:"topic"`
	SectionID    string `json:"section_id"`
	SectionTitle string `json:"section_title"`
}

type invalidateRequest struct {
	BelowVersion int `json:"below_version"`
}

type invalidateResponse struct {
	Dropped int64 `json:"dropped"`
}

type logsResponse struct {
	Entries interface{} `json:"entries"`
}
