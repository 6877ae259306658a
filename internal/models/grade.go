package models

import "time"

// Grade is the terminal evaluation attached to a completed registration. At
// most one grade exists per registration; repeated assignment updates in
// place.
type Grade struct {
	ID                string    `db:"id" json:"id"`
	RegistrationID    string    `db:"registration_id" json:"registration_id"`
	GraderID          string    `db:"grader_id" json:"grader_id"`
	Score             float64   `db:"score" json:"score"`
	Letter            string    `db:"letter" json:"letter"`
	CertificateNumber string    `db:"certificate_number" json:"certificate_number"`
	CertificatePath   *string   `db:"certificate_path" json:"certificate_path,omitempty"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}
