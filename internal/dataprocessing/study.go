package dataprocessing

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/joeyyy09/clinical-flow/pkg/contracts/domain"
)

var studyTagPattern = regexp.MustCompile(`(?i)study\s+\d+`)

// ExtractStudyID derives the study tag from a file name.
// "Study 101_Global_Missing_Pages.xlsx" yields "STUDY_101"; a name without a
// study tag yields domain.UnknownStudy.
func ExtractStudyID(path string) string {
	match := studyTagPattern.FindString(filepath.Base(path))
	if match == "" {
		return domain.UnknownStudy
	}
	return strings.ToUpper(strings.Join(strings.Fields(match), "_"))
}
