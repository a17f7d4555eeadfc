package dataprocessing

// Column aliases per canonical field, in priority order.
// Matching is case- and punctuation-insensitive (see NormalizeHeader).

var safetyEventAliases = struct {
	Country      []string
	Site         []string
	PatientID    []string
	ReviewStatus []string
	ActionStatus []string
}{
	Country:      []string{"Country", "Ctry"},
	Site:         []string{"Site", "Site ID", "Site Number"},
	PatientID:    []string{"Patient ID", "Subject", "Subject ID"},
	ReviewStatus: []string{"Review Status", "Status"},
	ActionStatus: []string{"Action Status", "Action"},
}

var missingPageAliases = struct {
	SiteNumber  []string
	SubjectName []string
	FormName    []string
	VisitDate   []string
	MissingDays []string
}{
	SiteNumber:  []string{"SiteNumber", "Site", "Site ID"},
	SubjectName: []string{"SubjectName", "Subject", "Patient"},
	FormName:    []string{"FormName", "Form", "Page Name"},
	VisitDate:   []string{"Visit date", "Date", "Visit"},
	MissingDays: []string{"No. #Days Page Missing", "Days Missing", "Missing Days"},
}

var subjectStatusAliases = struct {
	SiteID        []string
	SubjectID     []string
	SubjectStatus []string
	LatestVisit   []string
}{
	SiteID:        []string{"Site ID", "Site", "SiteNumber"},
	SubjectID:     []string{"Subject ID", "Subject", "Patient ID"},
	SubjectStatus: []string{"Subject Status (Source: PRIMARY Form)", "Subject Status", "Status"},
	LatestVisit:   []string{"Latest Visit (SV) (Source: Rave EDC: BO4)", "Latest Visit", "Visit"},
}
