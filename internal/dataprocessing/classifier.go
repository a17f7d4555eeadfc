package dataprocessing

import (
	"path/filepath"
	"strings"

	"github.com/joeyyy09/clinical-flow/pkg/contracts/domain"
)

// Reasons reported for files the classifier skips
const (
	SkipReasonLockFile  = "office lock file"
	SkipReasonHidden    = "hidden file"
	SkipReasonExtension = "unsupported extension"
	SkipReasonNoPattern = "no matching export pattern"
)

// classificationRules are checked in order; the first substring found wins.
// Matching is case-sensitive.
var classificationRules = []struct {
	pattern string
	kind    domain.RecordKind
}{
	{"SAE Dashboard", domain.RecordKindSafetyEvent},
	{"eSAE", domain.RecordKindSafetyEvent},
	{"Global_Missing_Pages", domain.RecordKindMissingPage},
	{"EDC_Metrics", domain.RecordKindSubjectStatus},
}

// Classify decides which record kind a file holds from its base name.
// It returns RecordKindUnknown with a skip reason for anything that is not a
// recognised export.
func Classify(path string) (domain.RecordKind, string) {
	name := filepath.Base(path)

	switch {
	case strings.HasPrefix(name, "~$"):
		return domain.RecordKindUnknown, SkipReasonLockFile
	case strings.HasPrefix(name, "."):
		return domain.RecordKindUnknown, SkipReasonHidden
	case !IsSpreadsheet(name):
		return domain.RecordKindUnknown, SkipReasonExtension
	}

	for _, rule := range classificationRules {
		if strings.Contains(name, rule.pattern) {
			return rule.kind, ""
		}
	}
	return domain.RecordKindUnknown, SkipReasonNoPattern
}

// IsSpreadsheet reports whether name carries an .xlsx or .xls extension
func IsSpreadsheet(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".xlsx" || ext == ".xls"
}
