package domain

// RiskLevel buckets a site's composite risk score
type RiskLevel string

const (
	RiskLevelHigh   RiskLevel = "High"
	RiskLevelMedium RiskLevel = "Medium"
	RiskLevelLow    RiskLevel = "Low"
)

// StudyHealth is the 0-100 health score of one study (or of every study when StudyID is empty)
type StudyHealth struct {
	StudyID           string  `json:"study_id,omitempty"`
	Score             int     `json:"score"`
	SAEScore          float64 `json:"sae_score"`
	MissingScore      float64 `json:"missing_score"`
	TotalSAEs         int     `json:"total_saes"`
	PendingSAEs       int     `json:"pending_saes"`
	TotalMissingPages int     `json:"total_missing_pages"`
}

// SiteDQI is the Data Quality Index of one site with its components
type SiteDQI struct {
	Site         string  `json:"site"`
	DQI          int     `json:"dqi"`
	MissingCount int     `json:"missing_count"`
	MissingScore float64 `json:"missing_score"`
	LatencyDays  int     `json:"latency_days"`
	LatencyScore float64 `json:"latency_score"`
	SAETotal     int     `json:"sae_total"`
	SAEPending   int     `json:"sae_pending"`
	SAEScore     float64 `json:"sae_score"`
}

// RiskRow is one line of the site risk monitor
type RiskRow struct {
	Site           string    `json:"site"`
	Country        string    `json:"country"`
	StudyID        string    `json:"study_id"`
	SAECount       int       `json:"sae_count"`
	MissingPages   int       `json:"missing_pages"`
	QueryLatency   int       `json:"query_latency"`
	RiskScore      float64   `json:"risk_score"`
	RiskLevel      RiskLevel `json:"risk_level"`
	DQI            int       `json:"dqi"`
	Recommendation string    `json:"recommendation"`
}

// HeatmapCell is one site entry of the missing-page heatmap
type HeatmapCell struct {
	Site      string `json:"site"`
	RiskScore int    `json:"risk_score"`
}

// PatientStatus is the clean/dirty classification of one subject
type PatientStatus struct {
	SubjectID    string `json:"subject_id"`
	Status       string `json:"status"`
	IsClean      bool   `json:"is_clean"`
	MissingPages int    `json:"missing_pages"`
	SAEPending   int    `json:"sae_pending"`
	LastVisit    string `json:"last_visit"`
}

// SitePatients aggregates the patient-level view of one site
type SitePatients struct {
	SiteID            string          `json:"site_id"`
	TotalPatients     int             `json:"total_patients"`
	CleanPatientCount int             `json:"clean_patient_count"`
	CleanPatientRate  int             `json:"clean_patient_rate"`
	Patients          []PatientStatus `json:"patients"`
}

// StatusCount is the number of safety events sharing a review status
type StatusCount struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

// RecordSummary describes the persisted record set as a whole
type RecordSummary struct {
	SafetyEvents       int           `json:"safety_events"`
	MissingPages       int           `json:"missing_pages"`
	SubjectStatuses    int           `json:"subject_statuses"`
	PendingSAEs        int           `json:"pending_saes"`
	ReviewStatuses     []StatusCount `json:"review_statuses"`
	AverageMissingDays float64       `json:"average_missing_days"`
	TopMissingSite     string        `json:"top_missing_site,omitempty"`
}

// SiteDetails is everything a monitor sees when drilling into one site
type SiteDetails struct {
	Site        string           `json:"site"`
	Quality     SiteDQI          `json:"quality"`
	Patients    SitePatients     `json:"patients"`
	Annotations []SiteAnnotation `json:"annotations"`
}
