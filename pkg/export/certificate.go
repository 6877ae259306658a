package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// CertificateData carries the fields printed onto a completion certificate.
type CertificateData struct {
	CertificateNumber string
	StudentID         string
	StudentName       string
	TeamName          string
	LocationID        string
	PeriodName        string
	Score             float64
	Letter            string
	IssuerName        string
	IssuedAt          time.Time
}

// CertificateRenderer produces completion certificates as PDF bytes.
type CertificateRenderer struct{}

// NewCertificateRenderer constructs a certificate renderer.
func NewCertificateRenderer() *CertificateRenderer {
	return &CertificateRenderer{}
}

// Render lays out a landscape A4 certificate.
func (r *CertificateRenderer) Render(data CertificateData) ([]byte, error) {
	if data.CertificateNumber == "" {
		return nil, fmt.Errorf("certificate number is required")
	}

	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(20, 25, 20)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 26)
	pdf.CellFormat(0, 14, "CERTIFICATE OF COMPLETION", "", 1, "C", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(0, 7, fmt.Sprintf("No. %s", data.CertificateNumber), "", 1, "C", false, 0, "")
	pdf.Ln(6)

	pdf.SetFont("Arial", "", 12)
	pdf.CellFormat(0, 8, "This certifies that", "", 1, "C", false, 0, "")

	name := data.StudentName
	if name == "" {
		name = data.StudentID
	}
	pdf.SetFont("Arial", "B", 20)
	pdf.CellFormat(0, 12, name, "", 1, "C", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Arial", "", 12)
	pdf.CellFormat(0, 8, "has completed the community field placement program", "", 1, "C", false, 0, "")
	if data.TeamName != "" {
		pdf.CellFormat(0, 8, fmt.Sprintf("with team %s (%s)", data.TeamName, data.PeriodName), "", 1, "C", false, 0, "")
	} else if data.PeriodName != "" {
		pdf.CellFormat(0, 8, fmt.Sprintf("during %s", data.PeriodName), "", 1, "C", false, 0, "")
	}
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 9, fmt.Sprintf("Final Grade: %s (%.1f)", data.Letter, data.Score), "", 1, "C", false, 0, "")
	pdf.Ln(12)

	issued := data.IssuedAt
	if issued.IsZero() {
		issued = time.Now().UTC()
	}
	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(0, 7, fmt.Sprintf("Issued on %s", issued.Format("2 January 2006")), "", 1, "C", false, 0, "")
	if data.IssuerName != "" {
		pdf.Ln(10)
		pdf.SetFont("Arial", "B", 12)
		pdf.CellFormat(0, 7, data.IssuerName, "", 1, "C", false, 0, "")
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render certificate: %w", err)
	}
	return buf.Bytes(), nil
}
