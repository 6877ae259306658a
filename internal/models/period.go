package models

import "time"

// Period is read-only reference data describing a placement period and its
// registration window.
type Period struct {
	ID       string    `db:"id" json:"id"`
	Name     string    `db:"name" json:"name"`
	Year     int       `db:"year" json:"year"`
	OpensAt  time.Time `db:"opens_at" json:"opens_at"`
	ClosesAt time.Time `db:"closes_at" json:"closes_at"`
	Active   bool      `db:"active" json:"active"`
}

// IsOpenAt reports whether the registration window covers the given instant.
func (p *Period) IsOpenAt(t time.Time) bool {
	if p == nil || !p.Active {
		return false
	}
	return !t.Before(p.OpensAt) && t.Before(p.ClosesAt)
}
