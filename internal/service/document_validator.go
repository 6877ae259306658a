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
	appErrors "github.com/noah-isme/kkn-placement-api/pkg/errors"
)

type templateStore interface {
	ListForPeriod(ctx context.Context, periodID string) ([]models.DocumentTemplate, error)
	Upsert(ctx context.Context, template *models.DocumentTemplate) error
	GetPeriod(ctx context.Context, id string) (*models.Period, error)
}

// typeSlugs maps a declared document type to the template slugs it can
// satisfy. CUSTOM maps to nothing; custom documents never fulfil a slot on
// their own.
var typeSlugs = map[models.DocType][]string{
	models.DocTypeTranscript:        {"transcript"},
	models.DocTypeHealthCertificate: {"health_certificate"},
	models.DocTypeParentalConsent:   {"parental_consent"},
}

// slugKeywords drives the advisory filename heuristic for custom documents.
var slugKeywords = map[string][]string{
	"transcript":         {"transcript", "transkrip", "khs"},
	"health_certificate": {"health", "sehat", "medical"},
	"parental_consent":   {"consent", "izin", "orangtua", "parental"},
}

// DocumentService manages template reference data and runs completeness
// checks over uploaded documents.
type DocumentService struct {
	templates   templateStore
	cache       *CacheService
	templateTTL time.Duration
	logger      *zap.Logger
}

// NewDocumentService constructs the service.
func NewDocumentService(templates templateStore, cache *CacheService, templateTTL time.Duration, logger *zap.Logger) *DocumentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DocumentService{templates: templates, cache: cache, templateTTL: templateTTL, logger: logger}
}

func templateCacheKey(periodID string) string {
	return fmt.Sprintf("templates:period:%s", periodID)
}

// Templates returns the document template set applying to a period,
// consulting the cache first.
func (s *DocumentService) Templates(ctx context.Context, periodID string) ([]models.DocumentTemplate, error) {
	if periodID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "period id is required")
	}

	var cached []models.DocumentTemplate
	if hit, err := s.cache.Get(ctx, templateCacheKey(periodID), &cached); err == nil && hit {
		return cached, nil
	}

	templates, err := s.templates.ListForPeriod(ctx, periodID)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, templateCacheKey(periodID), templates, s.templateTTL); err != nil {
		s.logger.Warn("template cache population failed", zap.String("period_id", periodID), zap.Error(err))
	}
	return templates, nil
}

// Period returns placement period reference data.
func (s *DocumentService) Period(ctx context.Context, id string) (*models.Period, error) {
	if id == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "period id is required")
	}
	period, err := s.templates.GetPeriod(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "period not found")
		}
		return nil, err
	}
	return period, nil
}

// UpsertTemplate creates or updates a template slot. Reserved to actors with
// the manage_templates capability.
func (s *DocumentService) UpsertTemplate(ctx context.Context, actor *models.ActorClaims, req dto.UpsertTemplateRequest) (*models.DocumentTemplate, error) {
	if !actor.Has(models.CapabilityManageTemplates) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "managing templates requires the manage_templates capability")
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	slug := strings.ToLower(strings.TrimSpace(req.Slug))
	if slug == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "slug is required")
	}

	template := &models.DocumentTemplate{
		Slug:         slug,
		Name:         strings.TrimSpace(req.Name),
		Required:     req.Required,
		DisplayOrder: req.DisplayOrder,
	}
	if req.PeriodID != "" {
		periodID := req.PeriodID
		if _, err := s.templates.GetPeriod(ctx, periodID); err != nil {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "period not found")
		}
		template.PeriodID = &periodID
	}

	if err := s.templates.Upsert(ctx, template); err != nil {
		return nil, err
	}

	// A global template touches every period's effective set.
	pattern := "templates:period:*"
	if template.PeriodID != nil {
		pattern = templateCacheKey(*template.PeriodID)
	}
	if err := s.cache.Invalidate(ctx, pattern); err != nil {
		s.logger.Warn("template cache invalidation failed", zap.String("pattern", pattern), zap.Error(err))
	}
	return template, nil
}

// CheckCompletion evaluates uploaded documents against the period's required
// template slots. A required slot is fulfilled only by a document whose
// declared type maps to its slug; filename matches are advisory suggestions
// and never fulfil a slot.
func (s *DocumentService) CheckCompletion(ctx context.Context, periodID string, docs []models.RegistrationDocument) (*models.CompletionResult, error) {
	templates, err := s.Templates(ctx, periodID)
	if err != nil {
		return nil, err
	}

	fulfilled := make(map[string]bool, len(templates))
	for _, doc := range docs {
		for _, slug := range typeSlugs[doc.DocType] {
			fulfilled[slug] = true
		}
	}

	result := &models.CompletionResult{Complete: true, Missing: []string{}}
	known := make(map[string]bool, len(templates))
	for _, template := range templates {
		known[template.Slug] = true
		if template.Required && !fulfilled[template.Slug] {
			result.Complete = false
			result.Missing = append(result.Missing, template.Slug)
		}
	}

	for _, doc := range docs {
		slugs := typeSlugs[doc.DocType]
		matched := false
		for _, slug := range slugs {
			if known[slug] {
				matched = true
				break
			}
		}
		if matched {
			continue
		}
		result.Unmatched = append(result.Unmatched, doc.ID)
		if suggestion := suggestSlug(doc.FileName, known); suggestion != "" {
			if result.Suggestions == nil {
				result.Suggestions = make(map[string]string)
			}
			result.Suggestions[doc.ID] = suggestion
		}
	}

	return result, nil
}

// suggestSlug proposes a template slot from filename keywords. Only slugs
// present in the period's template set are suggested.
func suggestSlug(fileName string, known map[string]bool) string {
	name := strings.ToLower(fileName)
	for slug, keywords := range slugKeywords {
		if !known[slug] {
			continue
		}
		for _, keyword := range keywords {
			if strings.Contains(name, keyword) {
				return slug
			}
		}
	}
	return ""
}
