package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joeyyy09/clinical-flow/internal/infrastructure"
	"github.com/joeyyy09/clinical-flow/internal/validation"
	"github.com/joeyyy09/clinical-flow/pkg/contracts/domain"
)

// SiteScorer computes the per-site scores shown in site details
type SiteScorer interface {
	SiteDQI(ctx context.Context, site string) (domain.SiteDQI, error)
	SitePatients(ctx context.Context, site string) (domain.SitePatients, error)
}

// AnnotationStore persists site annotations
type AnnotationStore interface {
	AddAnnotation(ctx context.Context, a *domain.SiteAnnotation) error
	Annotations(ctx context.Context, site string) ([]domain.SiteAnnotation, error)
}

// AnnotationInput is a new monitoring note as entered by a user
type AnnotationInput struct {
	Site    string
	Comment string
	Tag     domain.AnnotationTag
	Author  string
}

// SiteService assembles the site drill-down and manages site annotations
type SiteService struct {
	scorer    SiteScorer
	notes     AnnotationStore
	validator *validation.Validator
	now       func() time.Time
	logger    *slog.Logger
}

// NewSiteService creates a site service
func NewSiteService(scorer SiteScorer, notes AnnotationStore, logger *slog.Logger) *SiteService {
	return &SiteService{
		scorer:    scorer,
		notes:     notes,
		validator: validation.New(),
		now:       time.Now,
		logger:    infrastructure.WithComponent(logger, "site_service"),
	}
}

// Details returns the DQI, patient classification and annotations of a site.
// A site with no records yields zero-valued scores, not an error.
func (s *SiteService) Details(ctx context.Context, site string) (domain.SiteDetails, error) {
	site = strings.TrimSpace(site)
	if site == "" {
		return domain.SiteDetails{}, ErrSiteRequired
	}

	quality, err := s.scorer.SiteDQI(ctx, site)
	if err != nil {
		return domain.SiteDetails{}, fmt.Errorf("site %s quality: %w", site, err)
	}
	patients, err := s.scorer.SitePatients(ctx, site)
	if err != nil {
		return domain.SiteDetails{}, fmt.Errorf("site %s patients: %w", site, err)
	}
	notes, err := s.ListAnnotations(ctx, site)
	if err != nil {
		return domain.SiteDetails{}, err
	}

	s.logger.DebugContext(ctx, "Site details assembled",
		slog.String("site", site),
		slog.Int("dqi", quality.DQI),
		slog.Int("patients", patients.TotalPatients),
		slog.Int("annotations", len(notes)))

	return domain.SiteDetails{
		Site:        site,
		Quality:     quality,
		Patients:    patients,
		Annotations: notes,
	}, nil
}

// AddAnnotation validates and stores a note. The tag defaults to Info and
// the creation time is set here.
func (s *SiteService) AddAnnotation(ctx context.Context, in AnnotationInput) (domain.SiteAnnotation, error) {
	note := domain.SiteAnnotation{
		SiteNumber: strings.TrimSpace(in.Site),
		Comment:    strings.TrimSpace(in.Comment),
		Tag:        in.Tag,
		Author:     strings.TrimSpace(in.Author),
		CreatedAt:  s.now().UTC(),
	}
	if note.Tag == "" {
		note.Tag = domain.AnnotationTagInfo
	}

	if err := s.validator.Struct(&note); err != nil {
		return domain.SiteAnnotation{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	if err := s.notes.AddAnnotation(ctx, &note); err != nil {
		s.logger.ErrorContext(ctx, "Failed to store annotation",
			slog.String("site", note.SiteNumber),
			slog.String("error", err.Error()))
		return domain.SiteAnnotation{}, err
	}

	s.logger.InfoContext(ctx, "Annotation added",
		slog.String("id", note.ID),
		slog.String("site", note.SiteNumber),
		slog.String("tag", string(note.Tag)))
	return note, nil
}

// ListAnnotations returns the notes of a site, oldest first
func (s *SiteService) ListAnnotations(ctx context.Context, site string) ([]domain.SiteAnnotation, error) {
	site = strings.TrimSpace(site)
	if site == "" {
		return nil, ErrSiteRequired
	}
	notes, err := s.notes.Annotations(ctx, site)
	if err != nil {
		return nil, fmt.Errorf("site %s annotations: %w", site, err)
	}
	return notes, nil
}
