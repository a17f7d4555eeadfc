package scoring

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/joeyyy09/clinical-flow/internal/config"
	"github.com/joeyyy09/clinical-flow/internal/storage"
	"github.com/joeyyy09/clinical-flow/pkg/contracts/domain"
)

type mockLatency struct {
	mock.Mock
}

func (m *mockLatency) LatencyDays(site string) int {
	return m.Called(site).Int(0)
}

func events(site string, reviewed, pending int) []domain.SafetyEvent {
	var out []domain.SafetyEvent
	for i := 0; i < reviewed; i++ {
		out = append(out, domain.SafetyEvent{StudyID: "STUDY_1", Site: site, PatientID: fmt.Sprintf("R%d", i), ReviewStatus: "Reviewed"})
	}
	for i := 0; i < pending; i++ {
		out = append(out, domain.SafetyEvent{StudyID: "STUDY_1", Site: site, PatientID: fmt.Sprintf("P%d", i), ReviewStatus: "Pending"})
	}
	return out
}

func pages(study, site string, n int) []domain.MissingPage {
	out := make([]domain.MissingPage, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, domain.MissingPage{StudyID: study, SiteNumber: site, SubjectName: fmt.Sprintf("S%d", i%3), MissingDays: i})
	}
	return out
}

func seed(t *testing.T, store storage.Store, ev []domain.SafetyEvent, mp []domain.MissingPage, ss []domain.SubjectStatus) {
	t.Helper()
	ctx := context.Background()
	if len(ev) > 0 {
		require.NoError(t, store.InsertBatch(ctx, &domain.RecordBatch{Kind: domain.RecordKindSafetyEvent, SafetyEvents: ev}))
	}
	if len(mp) > 0 {
		require.NoError(t, store.InsertBatch(ctx, &domain.RecordBatch{Kind: domain.RecordKindMissingPage, MissingPages: mp}))
	}
	if len(ss) > 0 {
		require.NoError(t, store.InsertBatch(ctx, &domain.RecordBatch{Kind: domain.RecordKindSubjectStatus, SubjectStatus: ss}))
	}
}

func TestComputeStudyHealth(t *testing.T) {
	tests := []struct {
		name        string
		events      []domain.SafetyEvent
		pages       []domain.MissingPage
		wantSAE     float64
		wantMissing float64
		wantScore   int
	}{
		{
			name:        "empty store is vacuously healthy",
			wantSAE:     100,
			wantMissing: 100,
			wantScore:   100,
		},
		{
			name:        "seven of ten events pending",
			events:      events("Site 101", 3, 7),
			wantSAE:     65,
			wantMissing: 100,
			wantScore:   86,
		},
		{
			name:        "fifty missing pages",
			pages:       pages("STUDY_1", "101", 50),
			wantSAE:     100,
			wantMissing: 99,
			wantScore:   99,
		},
		{
			name:        "all pending floors at fifty",
			events:      events("Site 101", 0, 4),
			wantSAE:     50,
			wantMissing: 100,
			wantScore:   80,
		},
		{
			name:        "missing score never negative",
			pages:       pages("STUDY_1", "101", 6000),
			wantSAE:     100,
			wantMissing: 0,
			wantScore:   40,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeStudyHealth("STUDY_1", tt.events, tt.pages)
			assert.InDelta(t, tt.wantSAE, got.SAEScore, 1e-9)
			assert.InDelta(t, tt.wantMissing, got.MissingScore, 1e-9)
			assert.Equal(t, tt.wantScore, got.Score)
			assert.GreaterOrEqual(t, got.Score, 0)
			assert.LessOrEqual(t, got.Score, 100)
		})
	}
}

func TestStudyHealthFiltersByStudy(t *testing.T) {
	store := storage.NewMemoryStore()
	seed(t, store, nil, append(pages("STUDY_1", "101", 50), pages("STUDY_2", "201", 500)...), nil)

	engine := NewEngine(store, nil, EngineConfig{})
	h, err := engine.StudyHealth(context.Background(), "STUDY_1")
	require.NoError(t, err)
	assert.Equal(t, 99, h.Score)
	assert.Equal(t, 50, h.TotalMissingPages)

	all, err := engine.StudyHealth(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, 550, all.TotalMissingPages)
	assert.Equal(t, 93, all.Score)
}

func TestComputeSiteDQI(t *testing.T) {
	tests := []struct {
		name    string
		missing int
		latency int
		events  []domain.SafetyEvent
		wantSAE float64
		wantDQI int
	}{
		{name: "twelve missing pages and no SAEs", missing: 12, latency: 4, wantSAE: 100, wantDQI: 54},
		{name: "clean site", missing: 0, latency: 0, wantSAE: 100, wantDQI: 100},
		{name: "half reviewed", missing: 2, latency: 4, events: events("204", 1, 1), wantSAE: 50, wantDQI: 71},
		{name: "two of three reviewed rounds", missing: 0, latency: 20, events: events("204", 2, 1), wantSAE: 67, wantDQI: 60},
		{name: "very late site", missing: 100, latency: 40, events: events("204", 0, 3), wantSAE: 0, wantDQI: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeSiteDQI("204", tt.missing, tt.latency, tt.events)
			assert.InDelta(t, tt.wantSAE, got.SAEScore, 1e-9)
			assert.Equal(t, tt.wantDQI, got.DQI)
			assert.GreaterOrEqual(t, got.DQI, 0)
			assert.LessOrEqual(t, got.DQI, 100)
		})
	}
}

func TestSiteDQIUsesLatencyProvider(t *testing.T) {
	store := storage.NewMemoryStore()
	seed(t, store, events("Site 999", 1, 0), pages("STUDY_1", "204", 12), nil)

	latency := &mockLatency{}
	latency.On("LatencyDays", "204").Return(4).Once()

	engine := NewEngine(store, nil, EngineConfig{Latency: latency})
	dqi, err := engine.SiteDQI(context.Background(), "204")
	require.NoError(t, err)

	assert.Equal(t, 54, dqi.DQI)
	assert.Equal(t, 12, dqi.MissingCount)
	assert.Equal(t, 0, dqi.SAETotal)
	latency.AssertExpectations(t)
}

func TestApproximateSiteMatch(t *testing.T) {
	tests := []struct {
		eventSite string
		site      string
		want      bool
	}{
		{"Site 110", "10", true},
		{"Site 110", "110", true},
		{"110", "10", true},
		{"Site 101", "110", false},
		{"", "101", false},
		{"Site 101", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.eventSite+"/"+tt.site, func(t *testing.T) {
			assert.Equal(t, tt.want, ApproximateSiteMatch(tt.eventSite, tt.site))
		})
	}
}

func TestComputeRiskRow(t *testing.T) {
	tests := []struct {
		name      string
		missing   int
		sae       int
		latency   int
		wantScore float64
		wantLevel domain.RiskLevel
		wantText  string
	}{
		{"medium site", 40, 2, 5, 74, domain.RiskLevelMedium, RecommendRemote},
		{"low site", 10, 0, 2, 25, domain.RiskLevelLow, RecommendRoutine},
		{"exactly fifty is low", 0, 0, 5, 50, domain.RiskLevelLow, RecommendRoutine},
		{"exactly one hundred is medium", 0, 0, 10, 100, domain.RiskLevelMedium, RecommendRemote},
		{"missing dominates", 120, 3, 5, 116, domain.RiskLevelHigh, RecommendAudit},
		{"exactly five to one is dominant", 30, 6, 8, 107, domain.RiskLevelHigh, RecommendAudit},
		{"sae heavy", 20, 8, 8, 106, domain.RiskLevelHigh, RecommendSafety},
		{"high without dominant cause", 5, 2, 10, 106.5, domain.RiskLevelHigh, RecommendIntensive},
		{"latency only", 0, 0, 11, 110, domain.RiskLevelHigh, RecommendIntensive},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := ComputeRiskRow("101", tt.missing, tt.sae, tt.latency)
			assert.InDelta(t, tt.wantScore, row.RiskScore, 1e-9)
			assert.Equal(t, tt.wantLevel, row.RiskLevel)
			assert.Equal(t, tt.wantText, row.Recommendation)
		})
	}
}

func TestRiskRows(t *testing.T) {
	store := storage.NewMemoryStore()

	var mp []domain.MissingPage
	mp = append(mp, pages("STUDY_1", "101", 3)...)
	mp = append(mp, pages("STUDY_2", "202", 5)...)
	mp = append(mp, pages("STUDY_1", "303", 3)...)
	mp = append(mp, pages("STUDY_1", "404", 1)...)

	ev := []domain.SafetyEvent{
		{StudyID: "STUDY_1", Site: "Site 101", Country: "", ReviewStatus: "Reviewed"},
		{StudyID: "STUDY_1", Site: "Site 101", Country: "USA", ReviewStatus: "Pending"},
		{StudyID: "STUDY_2", Site: "Site 202", Country: "DEU", ReviewStatus: "Pending"},
	}
	seed(t, store, ev, mp, nil)

	engine := NewEngine(store, nil, EngineConfig{Latency: FixedLatency(5)})
	rows, err := engine.RiskRows(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, []string{"202", "101", "303"}, []string{rows[0].Site, rows[1].Site, rows[2].Site})

	assert.Equal(t, "DEU", rows[0].Country)
	assert.Equal(t, "STUDY_2", rows[0].StudyID)
	assert.Equal(t, 5, rows[0].MissingPages)
	assert.Equal(t, 1, rows[0].SAECount)
	assert.InDelta(t, 54.5, rows[0].RiskScore, 1e-9)

	assert.Equal(t, "USA", rows[1].Country)
	assert.Equal(t, 2, rows[1].SAECount)
	assert.Equal(t, ComputeSiteDQI("101", 3, 5, ev[:2]).DQI, rows[1].DQI)

	assert.Equal(t, "", rows[2].Country)
	assert.Equal(t, 0, rows[2].SAECount)

	again, err := engine.RiskRows(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, rows, again)

	all, err := engine.RiskRows(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestRiskRowsEmptyStore(t *testing.T) {
	engine := NewEngine(storage.NewMemoryStore(), nil, EngineConfig{})
	rows, err := engine.RiskRows(context.Background(), 0)
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestRiskHeatmap(t *testing.T) {
	store := storage.NewMemoryStore()
	var mp []domain.MissingPage
	for i := 0; i < 12; i++ {
		mp = append(mp, pages("STUDY_1", fmt.Sprintf("%d", 100+i), 1+i%3)...)
	}
	seed(t, store, nil, mp, nil)

	cells, err := NewEngine(store, nil, EngineConfig{}).RiskHeatmap(context.Background())
	require.NoError(t, err)
	require.Len(t, cells, 10)

	assert.Equal(t, domain.HeatmapCell{Site: "102", RiskScore: 3}, cells[0])
	assert.Equal(t, domain.HeatmapCell{Site: "105", RiskScore: 3}, cells[1])
	for i := 1; i < len(cells); i++ {
		assert.GreaterOrEqual(t, cells[i-1].RiskScore, cells[i].RiskScore)
	}
}

func TestComputeSitePatients(t *testing.T) {
	subjects := []domain.SubjectStatus{
		{SiteID: "101", SubjectID: "S1", SubjectStatus: "Enrolled", LatestVisit: "Week 4"},
		{SiteID: "101", SubjectID: "S2", SubjectStatus: "Enrolled"},
		{SiteID: "101", SubjectID: "S3", SubjectStatus: "Completed", LatestVisit: "Week 12"},
	}
	mp := []domain.MissingPage{{SiteNumber: "101", SubjectName: "S1"}, {SiteNumber: "101", SubjectName: "S1"}}
	ev := []domain.SafetyEvent{
		{Site: "Site 101", PatientID: "S2", ReviewStatus: "Pending"},
		{Site: "Site 101", PatientID: "S3", ReviewStatus: "Reviewed"},
	}

	got := ComputeSitePatients("101", subjects, mp, ev)
	assert.Equal(t, 3, got.TotalPatients)
	assert.Equal(t, 1, got.CleanPatientCount)
	assert.Equal(t, 33, got.CleanPatientRate)

	require.Len(t, got.Patients, 3)
	assert.Equal(t, 2, got.Patients[0].MissingPages)
	assert.False(t, got.Patients[0].IsClean)
	assert.Equal(t, 1, got.Patients[1].SAEPending)
	assert.Equal(t, "N/A", got.Patients[1].LastVisit)
	assert.True(t, got.Patients[2].IsClean)
}

func TestComputeSitePatientsFallsBackToMissingPages(t *testing.T) {
	mp := []domain.MissingPage{
		{SiteNumber: "101", SubjectName: "S9"},
		{SiteNumber: "101", SubjectName: "S8"},
		{SiteNumber: "101", SubjectName: "S9"},
	}

	got := ComputeSitePatients("101", nil, mp, nil)
	assert.Equal(t, 2, got.TotalPatients)
	assert.Equal(t, 0, got.CleanPatientRate)
	assert.Equal(t, "S9", got.Patients[0].SubjectID)
	assert.Equal(t, "Active", got.Patients[0].Status)
	assert.Equal(t, 2, got.Patients[0].MissingPages)
}

func TestComputeSitePatientsEmptySite(t *testing.T) {
	got := ComputeSitePatients("777", nil, nil, nil)
	assert.Equal(t, 0, got.TotalPatients)
	assert.Equal(t, 100, got.CleanPatientRate)
	assert.NotNil(t, got.Patients)
}

func TestSitePatientsMatchesSitesLoosely(t *testing.T) {
	store := storage.NewMemoryStore()
	seed(t, store,
		[]domain.SafetyEvent{{StudyID: "STUDY_1", Site: "Site 110", PatientID: "S1", ReviewStatus: "Pending"}},
		nil,
		[]domain.SubjectStatus{{StudyID: "STUDY_1", SiteID: "10", SubjectID: "S1", SubjectStatus: "Enrolled"}},
	)

	got, err := NewEngine(store, nil, EngineConfig{}).SitePatients(context.Background(), "10")
	require.NoError(t, err)
	require.Len(t, got.Patients, 1)
	assert.Equal(t, 1, got.Patients[0].SAEPending, "site 10 picks up events recorded for site 110")
	assert.Equal(t, 0, got.CleanPatientRate)
}

func TestComputeSummary(t *testing.T) {
	ev := []domain.SafetyEvent{
		{ReviewStatus: "Reviewed"},
		{ReviewStatus: "Pending"},
		{ReviewStatus: ""},
		{ReviewStatus: "Pending"},
	}
	mp := []domain.MissingPage{
		{SiteNumber: "101", MissingDays: 4},
		{SiteNumber: "202", MissingDays: 10},
		{SiteNumber: "202", MissingDays: 1},
	}

	got := ComputeSummary(ev, mp, []domain.SubjectStatus{{SubjectID: "S1"}})
	assert.Equal(t, 4, got.SafetyEvents)
	assert.Equal(t, 3, got.MissingPages)
	assert.Equal(t, 1, got.SubjectStatuses)
	assert.Equal(t, 3, got.PendingSAEs)
	assert.Equal(t, []domain.StatusCount{
		{Status: "Pending", Count: 2},
		{Status: "", Count: 1},
		{Status: "Reviewed", Count: 1},
	}, got.ReviewStatuses)
	assert.InDelta(t, 5.0, got.AverageMissingDays, 1e-9)
	assert.Equal(t, "202", got.TopMissingSite)

	empty := ComputeSummary(nil, nil, nil)
	assert.Empty(t, empty.ReviewStatuses)
	assert.Zero(t, empty.AverageMissingDays)
	assert.Empty(t, empty.TopMissingSite)
}

func TestNewLatencyProvider(t *testing.T) {
	fixed, err := NewLatencyProvider(config.LatencyConfig{Mode: config.LatencyModeFixed, Days: 7})
	require.NoError(t, err)
	assert.Equal(t, 7, fixed.LatencyDays("any"))

	table, err := NewLatencyProvider(config.LatencyConfig{Mode: config.LatencyModeTable, Days: 3, Table: map[string]int{"101": 9, "102": -2}})
	require.NoError(t, err)
	assert.Equal(t, 9, table.LatencyDays("101"))
	assert.Equal(t, 0, table.LatencyDays("102"))
	assert.Equal(t, 3, table.LatencyDays("999"))

	cfg := config.LatencyConfig{Mode: config.LatencyModeRandom, Min: 2, Max: 15, Seed: 42}
	a, err := NewLatencyProvider(cfg)
	require.NoError(t, err)
	b, err := NewLatencyProvider(cfg)
	require.NoError(t, err)
	for i := 0; i < 50; i++ {
		va, vb := a.LatencyDays("101"), b.LatencyDays("101")
		assert.Equal(t, va, vb)
		assert.GreaterOrEqual(t, va, 2)
		assert.LessOrEqual(t, va, 15)
	}

	_, err = NewLatencyProvider(config.LatencyConfig{Mode: "telepathic"})
	assert.Error(t, err)
}
