package dto

// AssignGradeRequest attaches the terminal grade to a registration.
type AssignGradeRequest struct {
	Score             float64 `json:"score" validate:"gte=0,lte=100"`
	Letter            string  `json:"letter" validate:"required"`
	CertificateNumber string  `json:"certificate_number" validate:"required"`
}
