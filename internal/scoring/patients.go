package scoring

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/samber/lo"

	"github.com/joeyyy09/clinical-flow/internal/storage"
	"github.com/joeyyy09/clinical-flow/pkg/contracts/domain"
)

const (
	// inferredSubjectStatus is given to subjects known only from missing pages
	inferredSubjectStatus = "Active"
	noVisit               = "N/A"
)

// SitePatients classifies every subject of a site as clean or not
func (e *Engine) SitePatients(ctx context.Context, site string) (domain.SitePatients, error) {
	subjects, err := e.store.SubjectStatuses(ctx, storage.Filter{Site: site})
	if err != nil {
		return domain.SitePatients{}, fmt.Errorf("load subject statuses: %w", err)
	}
	pages, err := e.store.MissingPages(ctx, storage.Filter{Site: site})
	if err != nil {
		return domain.SitePatients{}, fmt.Errorf("load missing pages: %w", err)
	}
	events, err := e.store.SafetyEvents(ctx, storage.Filter{})
	if err != nil {
		return domain.SitePatients{}, fmt.Errorf("load safety events: %w", err)
	}

	result := ComputeSitePatients(site, subjects, pages, eventsForSite(events, site))
	e.metrics.RecordScore(ctx, KindPatients)
	e.logger.DebugContext(ctx, "Site patients classified",
		slog.String("site", site),
		slog.Int("total", result.TotalPatients),
		slog.Int("clean", result.CleanPatientCount))
	return result, nil
}

// ComputeSitePatients builds the patient view of a site. The subject universe
// is the site's EDC rows; without any, it is the distinct subjects of the
// site's missing pages. A subject is clean with no missing pages at the site
// and no pending safety event. siteEvents must already be narrowed to the site.
func ComputeSitePatients(site string, subjects []domain.SubjectStatus, pages []domain.MissingPage, siteEvents []domain.SafetyEvent) domain.SitePatients {
	if len(subjects) == 0 {
		names := lo.Uniq(lo.Map(pages, func(p domain.MissingPage, _ int) string { return p.SubjectName }))
		subjects = lo.Map(names, func(name string, _ int) domain.SubjectStatus {
			return domain.SubjectStatus{SiteID: site, SubjectID: name, SubjectStatus: inferredSubjectStatus}
		})
	}

	missingBySubject := lo.CountValuesBy(pages, func(p domain.MissingPage) string { return p.SubjectName })
	pendingBySubject := lo.CountValuesBy(
		lo.Filter(siteEvents, func(ev domain.SafetyEvent, _ int) bool { return ev.IsPending() }),
		func(ev domain.SafetyEvent) string { return ev.PatientID },
	)

	out := domain.SitePatients{
		SiteID:        site,
		TotalPatients: len(subjects),
		Patients:      make([]domain.PatientStatus, 0, len(subjects)),
	}
	for _, s := range subjects {
		p := domain.PatientStatus{
			SubjectID:    s.SubjectID,
			Status:       s.SubjectStatus,
			MissingPages: missingBySubject[s.SubjectID],
			SAEPending:   pendingBySubject[s.SubjectID],
			LastVisit:    s.LatestVisit,
		}
		if p.LastVisit == "" {
			p.LastVisit = noVisit
		}
		p.IsClean = p.MissingPages == 0 && p.SAEPending == 0
		if p.IsClean {
			out.CleanPatientCount++
		}
		out.Patients = append(out.Patients, p)
	}

	out.CleanPatientRate = 100
	if out.TotalPatients > 0 {
		out.CleanPatientRate = roundScore(float64(out.CleanPatientCount) / float64(out.TotalPatients) * 100)
	}
	return out
}
