package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// GeoPointType is the only GeoJSON geometry a case location may carry.
const GeoPointType = "Point"

// GeoPoint is a GeoJSON point. Coordinates are always [longitude, latitude].
type GeoPoint struct {
	Type        string    `bson:"type" json:"type"`
	Coordinates []float64 `bson:"coordinates" json:"coordinates"`
}

// NewGeoPoint builds a point from longitude and latitude.
func NewGeoPoint(lon, lat float64) GeoPoint {
	return GeoPoint{Type: GeoPointType, Coordinates: []float64{lon, lat}}
}

func (p GeoPoint) Longitude() float64 {
	if len(p.Coordinates) < 1 {
		return 0
	}
	return p.Coordinates[0]
}

func (p GeoPoint) Latitude() float64 {
	if len(p.Coordinates) < 2 {
		return 0
	}
	return p.Coordinates[1]
}

// UnmarshalJSON accepts both the GeoJSON object form
// {"type":"Point","coordinates":[lon,lat]} and a bare [lon,lat] pair.
func (p *GeoPoint) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var pair []float64
		if err := json.Unmarshal(trimmed, &pair); err != nil {
			return fmt.Errorf("coordinates must be numbers: %w", err)
		}
		*p = GeoPoint{Type: GeoPointType, Coordinates: pair}
		return nil
	}
	type plain GeoPoint
	var v plain
	if err := json.Unmarshal(trimmed, &v); err != nil {
		return err
	}
	*p = GeoPoint(v)
	return nil
}
