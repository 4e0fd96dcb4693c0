package models

import (
	"strconv"
	"strings"
)

// Pagination bounds for case listing.
const (
	DefaultPageLimit int64 = 10
	MaxPageLimit     int64 = 100
)

// CaseFilter selects non-archived cases for List. String fields match
// case-insensitively and exactly, except ViolationType which is exact
// membership in the case's set. Empty fields do not filter.
type CaseFilter struct {
	DateOccurred  *Date
	Country       string
	Region        string
	ViolationType string
	Priority      string
	Status        string
	ReportedFrom  *Date
	ReportedTo    *Date
}

// Page is a limit/skip window over an ordered result set.
type Page struct {
	Limit int64
	Skip  int64
}

// AnalyticsFilter narrows the population the aggregations run over.
// Start and End bound date_reported inclusively.
type AnalyticsFilter struct {
	Start         *Date
	End           *Date
	Region        string
	ViolationType string
}

// Key is a canonical, order-stable rendering used for cache keys.
func (f AnalyticsFilter) Key() string {
	var b strings.Builder
	b.WriteString("s=")
	if f.Start != nil {
		b.WriteString(f.Start.String())
	}
	b.WriteString("|e=")
	if f.End != nil {
		b.WriteString(f.End.String())
	}
	b.WriteString("|r=")
	b.WriteString(strconv.Quote(strings.ToLower(f.Region)))
	b.WriteString("|v=")
	b.WriteString(strconv.Quote(f.ViolationType))
	return b.String()
}

// ReportedWithin applies the inclusive [from, to] day window to d.
func ReportedWithin(d Date, from, to *Date) bool {
	if from != nil && d.Before(*from) {
		return false
	}
	if to != nil && d.After(*to) {
		return false
	}
	return true
}
