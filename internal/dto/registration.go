package dto

import "github.com/noah-isme/kkn-placement-api/internal/models"

// CreateRegistrationRequest is the payload a student submits to register for
// a placement period. The student id comes from the actor context.
type CreateRegistrationRequest struct {
	LocationID string                      `json:"location_id" validate:"required"`
	PeriodID   string                      `json:"period_id" validate:"required"`
	Category   models.RegistrationCategory `json:"category" validate:"omitempty,oneof=REGULAR SPECIAL_PROGRAM OTHER"`
	Notes      string                      `json:"notes"`
}

// ReviewRegistrationRequest carries a reviewer decision.
type ReviewRegistrationRequest struct {
	Decision models.RegistrationStatus `json:"decision" validate:"required,oneof=APPROVED REJECTED NEEDS_REVISION"`
	Note     string                    `json:"note"`
	// Override skips the document completeness gate on approval. Requires the
	// override_document_check capability and a non-empty note.
	Override bool `json:"override"`
}

// CommentRequest posts a guidance comment on a registration.
type CommentRequest struct {
	Note string `json:"note" validate:"required"`
}

// UploadDocumentRequest records an uploaded document reference. The file
// bytes were accepted out-of-band; only the opaque reference arrives here.
type UploadDocumentRequest struct {
	DocType    models.DocType `json:"doc_type" validate:"required"`
	StorageKey string         `json:"storage_key" validate:"required"`
	FileName   string         `json:"file_name" validate:"required"`
	MimeType   string         `json:"mime_type"`
}

// RegistrationQuery filters registration listings.
type RegistrationQuery struct {
	Status    []models.RegistrationStatus
	PeriodID  string
	StudentID string
	Limit     int
	Offset    int
}
