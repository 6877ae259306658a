package models

import "time"

// DocType is the logical type of an uploaded registration document. The set
// mirrors the template slugs; CUSTOM marks documents whose slot cannot be
// derived from the type alone.
type DocType string

const (
	DocTypeTranscript        DocType = "TRANSCRIPT"
	DocTypeHealthCertificate DocType = "HEALTH_CERTIFICATE"
	DocTypeParentalConsent   DocType = "PARENTAL_CONSENT"
	DocTypeCustom            DocType = "CUSTOM"
)

// RegistrationDocument stores an opaque reference to an uploaded file. The
// service never inspects file content; bytes live behind StorageKey.
type RegistrationDocument struct {
	ID             string    `db:"id" json:"id"`
	RegistrationID string    `db:"registration_id" json:"registration_id"`
	DocType        DocType   `db:"doc_type" json:"doc_type"`
	StorageKey     string    `db:"storage_key" json:"storage_key"`
	FileName       string    `db:"file_name" json:"file_name"`
	MimeType       string    `db:"mime_type" json:"mime_type"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// DocumentTemplate defines a required or optional document slot. A nil
// PeriodID makes the template global, applying to every period.
type DocumentTemplate struct {
	ID           string    `db:"id" json:"id"`
	PeriodID     *string   `db:"period_id" json:"period_id,omitempty"`
	Slug         string    `db:"slug" json:"slug"`
	Name         string    `db:"name" json:"name"`
	Required     bool      `db:"required" json:"required"`
	DisplayOrder int       `db:"display_order" json:"display_order"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// CompletionResult is the outcome of a document completeness check. Missing
// holds the required slugs with no matching document. Suggestions maps
// document IDs to the slot a name heuristic proposed; suggestions are
// advisory and never fulfil a slot by themselves.
type CompletionResult struct {
	Complete    bool              `json:"complete"`
	Missing     []string          `json:"missing"`
	Suggestions map[string]string `json:"suggestions,omitempty"`
	Unmatched   []string          `json:"unmatched,omitempty"`
}
