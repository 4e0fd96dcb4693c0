package store

import (
	"strings"

	"hrcases-be/models"
)

// The predicates below are the in-process twin of the Mongo filters in
// mongoFilters.go. Both must agree: inclusive day bounds, case-insensitive
// exact string matches, exact violation-type membership.

func matchFold(value, want string) bool {
	return want == "" || strings.EqualFold(value, want)
}

// MatchCase reports whether an active case passes a List filter.
func MatchCase(c *models.Case, f models.CaseFilter) bool {
	if c.Archived {
		return false
	}
	if f.DateOccurred != nil && !c.DateOccurred.Equal(*f.DateOccurred) {
		return false
	}
	if !matchFold(c.Location.Country, f.Country) ||
		!matchFold(c.Location.Region, f.Region) ||
		!matchFold(string(c.Priority), f.Priority) ||
		!matchFold(c.Status, f.Status) {
		return false
	}
	if f.ViolationType != "" && !c.HasViolationType(f.ViolationType) {
		return false
	}
	return models.ReportedWithin(c.DateReported, f.ReportedFrom, f.ReportedTo)
}

// MatchAnalytics reports whether an active case belongs to an aggregation's
// population.
func MatchAnalytics(c *models.Case, f models.AnalyticsFilter) bool {
	if c.Archived {
		return false
	}
	if !models.ReportedWithin(c.DateReported, f.Start, f.End) {
		return false
	}
	if !matchFold(c.Location.Region, f.Region) {
		return false
	}
	return f.ViolationType == "" || c.HasViolationType(f.ViolationType)
}
