package export

import "time"

type createRequest struct {
	TemplateID string `json:"templateId" validate:"omitempty,max=64"`
}

// JobResponse is the outward-facing representation of an export job.
type JobResponse struct {
	ID              string     `json:"id"`
	DocumentID      string     `json:"documentId"`
	DocumentVersion int        `json:"documentVersion"`
	TemplateID      string     `json:"templateId"`
	Status          string     `json:"status"`
	Attempts        int        `json:"attempts"`
	SizeBytes       int64      `json:"sizeBytes,omitempty"`
	PageCount       int        `json:"pageCount,omitempty"`
	Error           string     `json:"error,omitempty"`
	ExpiresAt       *time.Time `json:"expiresAt,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
	CompletedAt     *time.Time `json:"completedAt,omitempty"`
}

func ToResponse(job Job) JobResponse {
	return JobResponse{
		ID:              job.ID,
		DocumentID:      job.DocumentID,
		DocumentVersion: job.DocumentVersion,
		TemplateID:      job.TemplateID,
		Status:          string(job.Status),
		Attempts:        job.Attempts,
		SizeBytes:       job.SizeBytes,
		PageCount:       job.PageCount,
		Error:           job.Error,
		ExpiresAt:       job.ExpiresAt,
		CreatedAt:       job.CreatedAt,
		UpdatedAt:       job.UpdatedAt,
		CompletedAt:     job.CompletedAt,
	}
}
