package scoring

import "strings"

// ApproximateSiteMatch reports whether the free-text site of a safety event
// refers to the canonical site number. It is a plain substring test, so
// "10" also matches "110" and "Site 1010", and an empty site matches
// every event.
func ApproximateSiteMatch(eventSite, site string) bool {
	return strings.Contains(eventSite, site)
}
