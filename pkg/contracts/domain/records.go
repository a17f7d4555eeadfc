package domain

import (
	"time"
)

// UnknownStudy is stored as study_id when no study can be derived from context
const UnknownStudy = "UNKNOWN_STUDY"

// ReviewedStatus is the only review status that marks a safety event as closed
const ReviewedStatus = "Reviewed"

// RecordKind identifies which canonical export a file or record belongs to
type RecordKind string

const (
	RecordKindSafetyEvent   RecordKind = "safety_event"
	RecordKindMissingPage   RecordKind = "missing_page"
	RecordKindSubjectStatus RecordKind = "subject_status"
	RecordKindUnknown       RecordKind = ""
)

// String returns the string representation of the kind
func (k RecordKind) String() string {
	if k == RecordKindUnknown {
		return "unknown"
	}
	return string(k)
}

// SafetyEvent is one row of an SAE dashboard export
type SafetyEvent struct {
	ID           uint   `json:"id" gorm:"primaryKey;autoIncrement"`
	StudyID      string `json:"study_id" gorm:"column:study_id;index;not null"`
	Country      string `json:"country" gorm:"column:country"`
	Site         string `json:"site" gorm:"column:site"`
	PatientID    string `json:"patient_id" gorm:"column:patient_id"`
	ReviewStatus string `json:"review_status" gorm:"column:review_status"`
	ActionStatus string `json:"action_status" gorm:"column:action_status"`
	SourceFile   string `json:"source_file,omitempty" gorm:"column:source_file"`
	SourceRow    int    `json:"source_row,omitempty" gorm:"column:source_row"`
}

// TableName returns the GORM table name.
func (SafetyEvent) TableName() string { return "sae_metrics" }

// IsPending reports whether the event still awaits review.
// Anything other than an exact "Reviewed" counts, including an empty status.
func (e SafetyEvent) IsPending() bool {
	return e.ReviewStatus != ReviewedStatus
}

// MissingPage is one outstanding case-report page
type MissingPage struct {
	ID          uint   `json:"id" gorm:"primaryKey;autoIncrement"`
	StudyID     string `json:"study_id" gorm:"column:study_id;index;not null"`
	SiteNumber  string `json:"site_number" gorm:"column:site_number;index"`
	SubjectName string `json:"subject_name" gorm:"column:subject_name"`
	FormName    string `json:"form_name" gorm:"column:form_name"`
	VisitDate   string `json:"visit_date" gorm:"column:visit_date"`
	MissingDays int    `json:"missing_days" gorm:"column:missing_days;not null;default:0"`
	SourceFile  string `json:"source_file,omitempty" gorm:"column:source_file"`
	SourceRow   int    `json:"source_row,omitempty" gorm:"column:source_row"`
}

// TableName returns the GORM table name.
func (MissingPage) TableName() string { return "missing_pages" }

// SubjectStatus is the current EDC status snapshot for a subject
type SubjectStatus struct {
	ID            uint   `json:"id" gorm:"primaryKey;autoIncrement"`
	StudyID       string `json:"study_id" gorm:"column:study_id;index;not null"`
	SiteID        string `json:"site_id" gorm:"column:site_id;index"`
	SubjectID     string `json:"subject_id" gorm:"column:subject_id"`
	SubjectStatus string `json:"subject_status" gorm:"column:subject_status"`
	LatestVisit   string `json:"latest_visit" gorm:"column:latest_visit"`
	SourceFile    string `json:"source_file,omitempty" gorm:"column:source_file"`
	SourceRow     int    `json:"source_row,omitempty" gorm:"column:source_row"`
}

// TableName returns the GORM table name.
func (SubjectStatus) TableName() string { return "edc_metrics" }

// AnnotationTag classifies a monitoring note
type AnnotationTag string

const (
	AnnotationTagInfo   AnnotationTag = "Info"
	AnnotationTagReview AnnotationTag = "Review"
	AnnotationTagUrgent AnnotationTag = "Urgent"
)

// SiteAnnotation is a free-text monitoring note attached to a site.
// Annotations are append-only and never feed into any score.
type SiteAnnotation struct {
	ID         string        `json:"id" gorm:"primaryKey;column:id;type:varchar(36)" validate:"omitempty,uuid"`
	SiteNumber string        `json:"site_number" gorm:"column:site_number;index;not null" validate:"required,notblank,max=64"`
	Comment    string        `json:"comment" gorm:"column:comment;not null" validate:"required,notblank,max=4000"`
	Tag        AnnotationTag `json:"tag" gorm:"column:tag;default:Info" validate:"omitempty,oneof=Info Review Urgent"`
	Author     string        `json:"author" gorm:"column:author" validate:"max=200"`
	CreatedAt  time.Time     `json:"created_at" gorm:"column:created_at"`
}

// TableName returns the GORM table name.
func (SiteAnnotation) TableName() string { return "site_comments" }

// RecordBatch holds every record parsed from one source file.
// Exactly one of the slices is populated, matching Kind.
type RecordBatch struct {
	Kind          RecordKind      `json:"kind"`
	SourceFile    string          `json:"source_file"`
	StudyID       string          `json:"study_id"`
	SafetyEvents  []SafetyEvent   `json:"safety_events,omitempty"`
	MissingPages  []MissingPage   `json:"missing_pages,omitempty"`
	SubjectStatus []SubjectStatus `json:"subject_status,omitempty"`
}

// Len returns the number of records in the batch
func (b *RecordBatch) Len() int {
	if b == nil {
		return 0
	}
	switch b.Kind {
	case RecordKindSafetyEvent:
		return len(b.SafetyEvents)
	case RecordKindMissingPage:
		return len(b.MissingPages)
	case RecordKindSubjectStatus:
		return len(b.SubjectStatus)
	default:
		return 0
	}
}
