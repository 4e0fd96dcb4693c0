package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Priority of a case. Optional; empty means unset.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Location is where a violation took place.
type Location struct {
	Country     string   `bson:"country" json:"country" validate:"required"`
	Region      string   `bson:"region" json:"region,omitempty"`
	Coordinates GeoPoint `bson:"coordinates" json:"coordinates"`
}

// Perpetrator is a named actor held responsible, optionally typed
// (state actor, militia, individual, ...).
type Perpetrator struct {
	Name string `bson:"name" json:"name" validate:"required"`
	Type string `bson:"type,omitempty" json:"type,omitempty"`
}

// Evidence is an already-resolved reference to material backing a case.
type Evidence struct {
	Type         string `bson:"type" json:"type" validate:"required"`
	URL          string `bson:"url" json:"url" validate:"required"`
	Description  string `bson:"description,omitempty" json:"description,omitempty"`
	DateCaptured *Date  `bson:"date_captured,omitempty" json:"date_captured,omitempty"`
}

// Case is a recorded human-rights violation report.
//
// Optional collections are stored without omitempty so that a full
// replacement clears them instead of leaving the previous value behind.
type Case struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CaseID         string             `bson:"case_id" json:"case_id" validate:"required"`
	Title          string             `bson:"title" json:"title" validate:"required"`
	Description    string             `bson:"description" json:"description"`
	ViolationTypes []string           `bson:"violation_types" json:"violation_types" validate:"min=1,dive,required"`
	Status         string             `bson:"status" json:"status" validate:"required"`
	Priority       Priority           `bson:"priority" json:"priority,omitempty" validate:"omitempty,oneof=low medium high urgent"`
	Location       Location           `bson:"location" json:"location"`
	DateOccurred   Date               `bson:"date_occurred" json:"date_occurred"`
	DateReported   Date               `bson:"date_reported" json:"date_reported"`
	Victims        []string           `bson:"victims" json:"victims"`
	Perpetrators   []Perpetrator      `bson:"perpetrators" json:"perpetrators" validate:"dive"`
	Evidence       []Evidence         `bson:"evidence" json:"evidence" validate:"dive"`
	Archived       bool               `bson:"archived,omitempty" json:"-"`
	CreatedAt      time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time          `bson:"updated_at" json:"updated_at"`
}

// HasViolationType reports exact membership of t in the case's set.
func (c *Case) HasViolationType(t string) bool {
	for _, v := range c.ViolationTypes {
		if v == t {
			return true
		}
	}
	return false
}

// Normalize trims free-text fields, lower-cases the priority, defaults the
// geometry type and drops duplicate violation types while keeping order.
func (c *Case) Normalize() {
	c.CaseID = strings.TrimSpace(c.CaseID)
	c.Title = strings.TrimSpace(c.Title)
	c.Status = strings.TrimSpace(c.Status)
	c.Priority = Priority(strings.ToLower(strings.TrimSpace(string(c.Priority))))
	c.Location.Country = strings.TrimSpace(c.Location.Country)
	c.Location.Region = strings.TrimSpace(c.Location.Region)
	if c.Location.Coordinates.Type == "" {
		c.Location.Coordinates.Type = GeoPointType
	}

	seen := make(map[string]struct{}, len(c.ViolationTypes))
	types := make([]string, 0, len(c.ViolationTypes))
	for _, t := range c.ViolationTypes {
		t = strings.TrimSpace(t)
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		types = append(types, t)
	}
	c.ViolationTypes = types
}

// Clone returns a deep copy so callers cannot alias store-owned slices.
func (c *Case) Clone() *Case {
	if c == nil {
		return nil
	}
	out := *c
	out.ViolationTypes = append([]string(nil), c.ViolationTypes...)
	out.Location.Coordinates.Coordinates = append([]float64(nil), c.Location.Coordinates.Coordinates...)
	if c.Victims != nil {
		out.Victims = append([]string{}, c.Victims...)
	}
	if c.Perpetrators != nil {
		out.Perpetrators = append([]Perpetrator{}, c.Perpetrators...)
	}
	if c.Evidence != nil {
		out.Evidence = make([]Evidence, len(c.Evidence))
		for i, e := range c.Evidence {
			out.Evidence[i] = e
			if e.DateCaptured != nil {
				d := *e.DateCaptured
				out.Evidence[i].DateCaptured = &d
			}
		}
	}
	return &out
}
