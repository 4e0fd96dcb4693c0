package models

// ViolationTypeCount is the number of cases whose set contains ViolationType.
type ViolationTypeCount struct {
	ViolationType string `bson:"_id" json:"violation_type"`
	Count         int64  `bson:"count" json:"count"`
}

// DayCount is the number of cases reported on Date.
type DayCount struct {
	Date  Date  `json:"date"`
	Count int64 `json:"count"`
}

// GeoCount is the number of cases sharing one country, region and point.
type GeoCount struct {
	Country     string    `json:"country"`
	Region      string    `json:"region"`
	Coordinates []float64 `json:"coordinates"`
	Count       int64     `json:"count"`
}
