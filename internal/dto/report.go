package dto

import "github.com/noah-isme/kkn-placement-api/internal/models"

// AttachmentPayload references a file uploaded out-of-band.
type AttachmentPayload struct {
	StorageKey string `json:"storage_key" validate:"required"`
	FileName   string `json:"file_name" validate:"required"`
	MimeType   string `json:"mime_type"`
}

// SubmitReportRequest submits a weekly or final report for a team. Week is
// required for weekly reports and must be absent for final reports.
type SubmitReportRequest struct {
	Type        models.ReportType   `json:"type" validate:"required,oneof=WEEKLY FINAL"`
	Week        *int                `json:"week"`
	Title       string              `json:"title" validate:"required"`
	Description string              `json:"description"`
	Attachments []AttachmentPayload `json:"attachments" validate:"omitempty,dive"`
}

// EvaluateReportRequest carries the advisor's decision for a submitted
// report. A note is mandatory unless the decision is APPROVED.
type EvaluateReportRequest struct {
	Decision models.ReportStatus `json:"decision" validate:"required,oneof=APPROVED REVISED REJECTED"`
	Note     string              `json:"note"`
}

// ReportQuery filters report listings.
type ReportQuery struct {
	Type   models.ReportType
	Status []models.ReportStatus
	Limit  int
	Offset int
}
