package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/kkn-placement-api/internal/dto"
	"github.com/noah-isme/kkn-placement-api/internal/models"
	"github.com/noah-isme/kkn-placement-api/pkg/export"
	appErrors "github.com/noah-isme/kkn-placement-api/pkg/errors"
)

type gradeStore interface {
	Upsert(ctx context.Context, grade *models.Grade) error
	GetByRegistration(ctx context.Context, registrationID string) (*models.Grade, error)
	CertificateNumberInUse(ctx context.Context, certificateNumber, excludeRegistrationID string) (bool, error)
}

type gradeRegistrationStore interface {
	GetByID(ctx context.Context, id string) (*models.Registration, error)
}

type gradeTeamStore interface {
	GetByID(ctx context.Context, id string) (*models.Team, error)
}

type certificateRenderer interface {
	Render(data export.CertificateData) ([]byte, error)
}

type certificateStorage interface {
	Save(filename string, data []byte) (string, error)
}

type downloadSigner interface {
	Generate(fileID, relPath string) (string, time.Time, error)
}

// CertificateLink is a signed, expiring download reference.
type CertificateLink struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// GradeService assigns terminal grades and issues completion certificates.
type GradeService struct {
	grades        gradeStore
	registrations gradeRegistrationStore
	teams         gradeTeamStore
	periods       periodStore
	renderer      certificateRenderer
	storage       certificateStorage
	signer        downloadSigner
	issuerName    string
	logger        *zap.Logger
	now           func() time.Time
}

// NewGradeService constructs the service.
func NewGradeService(
	grades gradeStore,
	registrations gradeRegistrationStore,
	teams gradeTeamStore,
	periods periodStore,
	renderer certificateRenderer,
	storage certificateStorage,
	signer downloadSigner,
	issuerName string,
	logger *zap.Logger,
) *GradeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GradeService{
		grades:        grades,
		registrations: registrations,
		teams:         teams,
		periods:       periods,
		renderer:      renderer,
		storage:       storage,
		signer:        signer,
		issuerName:    issuerName,
		logger:        logger,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// Assign records the terminal grade for a registration and renders the
// completion certificate. The registration must be approved and its team
// completed. Re-grading updates the existing grade in place.
func (s *GradeService) Assign(ctx context.Context, actor *models.ActorClaims, registrationID string, req dto.AssignGradeRequest) (*models.Grade, error) {
	if !actor.Has(models.CapabilityAssignGrades) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "assigning grades requires the assign_grades capability")
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	registration, err := s.registrations.GetByID(ctx, registrationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "registration not found")
		}
		return nil, err
	}
	if registration.Status != models.RegistrationStatusApproved {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "only approved registrations can be graded")
	}
	if registration.TeamID == nil {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "the registration is not linked to a team")
	}

	team, err := s.teams.GetByID(ctx, *registration.TeamID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "team not found")
		}
		return nil, err
	}
	if team.Status != models.TeamStatusCompleted {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "grades are assigned after the team completes its placement")
	}

	certificateNumber := strings.TrimSpace(req.CertificateNumber)
	inUse, err := s.grades.CertificateNumberInUse(ctx, certificateNumber, registrationID)
	if err != nil {
		return nil, err
	}
	if inUse {
		return nil, appErrors.ErrDuplicateCertificate
	}

	grade := &models.Grade{
		RegistrationID:    registrationID,
		GraderID:          actor.ActorID,
		Score:             req.Score,
		Letter:            strings.ToUpper(strings.TrimSpace(req.Letter)),
		CertificateNumber: certificateNumber,
	}

	certificatePath, err := s.renderCertificate(ctx, registration, team, grade)
	if err != nil {
		// The grade record is authoritative; certificate rendering can be
		// retried through the download endpoint.
		s.logger.Warn("certificate rendering failed",
			zap.String("registration_id", registrationID), zap.Error(err))
	} else {
		grade.CertificatePath = &certificatePath
	}

	if err := s.grades.Upsert(ctx, grade); err != nil {
		return nil, err
	}

	s.logger.Info("grade assigned",
		zap.String("registration_id", registrationID),
		zap.String("grader_id", actor.ActorID),
		zap.Float64("score", req.Score))
	return grade, nil
}

// Get fetches the grade attached to a registration. Students may only see
// their own.
func (s *GradeService) Get(ctx context.Context, actor *models.ActorClaims, registrationID string) (*models.Grade, error) {
	registration, err := s.registrations.GetByID(ctx, registrationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "registration not found")
		}
		return nil, err
	}
	if actor.Role == models.RoleStudent && registration.StudentID != actor.ActorID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "students may only view their own grade")
	}

	grade, err := s.grades.GetByRegistration(ctx, registrationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no grade has been assigned yet")
		}
		return nil, err
	}
	return grade, nil
}

// CertificateLink returns a signed download link for the stored certificate.
func (s *GradeService) CertificateLink(ctx context.Context, actor *models.ActorClaims, registrationID string) (*CertificateLink, error) {
	grade, err := s.Get(ctx, actor, registrationID)
	if err != nil {
		return nil, err
	}
	if grade.CertificatePath == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no certificate has been issued for this grade")
	}

	token, expiresAt, err := s.signer.Generate(grade.ID, *grade.CertificatePath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "signing certificate link failed")
	}
	return &CertificateLink{Token: token, ExpiresAt: expiresAt}, nil
}

func (s *GradeService) renderCertificate(ctx context.Context, registration *models.Registration, team *models.Team, grade *models.Grade) (string, error) {
	periodName := registration.PeriodID
	if period, err := s.periods.GetPeriod(ctx, registration.PeriodID); err == nil {
		periodName = period.Name
	}

	data := export.CertificateData{
		CertificateNumber: grade.CertificateNumber,
		StudentID:         registration.StudentID,
		TeamName:          team.Name,
		LocationID:        registration.LocationID,
		PeriodName:        periodName,
		Score:             grade.Score,
		Letter:            grade.Letter,
		IssuerName:        s.issuerName,
		IssuedAt:          s.now(),
	}
	rendered, err := s.renderer.Render(data)
	if err != nil {
		return "", err
	}

	filename := fmt.Sprintf("certificates/%s.pdf", registration.ID)
	return s.storage.Save(filename, rendered)
}
