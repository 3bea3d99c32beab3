package models

import "time"

type GenerateCoverLetterRequest struct {
	Role           string `json:"role"`
	Company        string `json:"company"`
	JobDescription string `json:"job_description"`
	ResumeID       int64  `json:"resume_id"`
}

// CoverLetter — сгенерированное письмо. Content хранится в markdown.
type CoverLetter struct {
	ID        int64     `json:"id,omitempty"`
	Role      string    `json:"role,omitempty"`
	Company   string    `json:"company,omitempty"`
	Content   string    `json:"cover_letter"`
	ResumeID  int64     `json:"resume_id,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}
