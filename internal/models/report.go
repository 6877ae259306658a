package models

import "time"

// ReportType distinguishes periodic from final reports.
type ReportType string

const (
	ReportTypeWeekly ReportType = "WEEKLY"
	ReportTypeFinal  ReportType = "FINAL"
)

// ReportAuthorRole tags who authored a report.
type ReportAuthorRole string

const (
	ReportAuthorStudent ReportAuthorRole = "STUDENT"
	ReportAuthorAdvisor ReportAuthorRole = "ADVISOR"
)

// ReportStatus captures the review cycle states.
type ReportStatus string

const (
	ReportStatusDraft     ReportStatus = "DRAFT"
	ReportStatusSubmitted ReportStatus = "SUBMITTED"
	ReportStatusRevised   ReportStatus = "REVISED"
	ReportStatusApproved  ReportStatus = "APPROVED"
	ReportStatusRejected  ReportStatus = "REJECTED"
)

// Report is a periodic or final account of team activity. Week is set iff
// the type is weekly. Notes caches the note of the newest history entry and
// must always equal it; the history table is the authoritative trail.
type Report struct {
	ID          string           `db:"id" json:"id"`
	TeamID      string           `db:"team_id" json:"team_id"`
	AuthorID    string           `db:"author_id" json:"author_id"`
	AuthorRole  ReportAuthorRole `db:"author_role" json:"author_role"`
	Type        ReportType       `db:"type" json:"type"`
	Week        *int             `db:"week" json:"week,omitempty"`
	Title       string           `db:"title" json:"title"`
	Description string           `db:"description" json:"description"`
	Status      ReportStatus     `db:"status" json:"status"`
	SubmittedAt *time.Time       `db:"submitted_at" json:"submitted_at,omitempty"`
	Notes       *string          `db:"notes" json:"notes,omitempty"`
	CreatedAt   time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time        `db:"updated_at" json:"updated_at"`
}

// ReportAttachment is an opaque file reference attached at submission time.
// Immutable once the report leaves draft.
type ReportAttachment struct {
	ID         string    `db:"id" json:"id"`
	ReportID   string    `db:"report_id" json:"report_id"`
	StorageKey string    `db:"storage_key" json:"storage_key"`
	FileName   string    `db:"file_name" json:"file_name"`
	MimeType   string    `db:"mime_type" json:"mime_type"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// ReportHistory is the append-only review trail for a report.
type ReportHistory struct {
	ID         string       `db:"id" json:"id"`
	ReportID   string       `db:"report_id" json:"report_id"`
	ReviewerID string       `db:"reviewer_id" json:"reviewer_id"`
	Status     ReportStatus `db:"status" json:"status"`
	Note       *string      `db:"note" json:"note,omitempty"`
	CreatedAt  time.Time    `db:"created_at" json:"created_at"`
}

// ReportFilter constrains report listing queries.
type ReportFilter struct {
	TeamID   string
	Type     ReportType
	Status   []ReportStatus
	AuthorID string
	Limit    int
	Offset   int
}
