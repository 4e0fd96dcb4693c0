package services

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"

	"hrcases-be/apperrors"
	"hrcases-be/models"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

// newValidator reports fields by their JSON names so error maps line up
// with request payloads.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// fieldPath drops the root struct name from a validator namespace.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must contain at least %s item(s)", fe.Param())
	case "len":
		return fmt.Sprintf("must contain exactly %s items", fe.Param())
	case "oneof":
		return "must be one of: " + fe.Param()
	default:
		return fmt.Sprintf("failed %q check", fe.Tag())
	}
}

// collect runs struct validation for v and merges failures into fields,
// prefixing each path with prefix.
func collect(v interface{}, prefix string, fields map[string]string) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	for _, fe := range verrs {
		fields[prefix+fieldPath(fe)] = describe(fe)
	}
	return nil
}

func checkCoordinates(p models.GeoPoint, fields map[string]string) {
	const key = "location.coordinates"
	if p.Type != models.GeoPointType {
		fields[key+".type"] = "must be \"Point\""
	}
	if len(p.Coordinates) != 2 {
		fields[key] = "must be exactly [longitude, latitude]"
		return
	}
	lon, lat := p.Coordinates[0], p.Coordinates[1]
	if math.IsNaN(lon) || lon < -180 || lon > 180 {
		fields[key] = "longitude must be within [-180, 180]"
	}
	if math.IsNaN(lat) || lat < -90 || lat > 90 {
		fields[key] = "latitude must be within [-90, 90]"
	}
}

// validateCase checks a normalized case before any write is attempted.
func validateCase(op string, c *models.Case) error {
	fields := map[string]string{}
	if err := collect(c, "", fields); err != nil {
		return apperrors.Internal(op, err)
	}
	if c.DateOccurred.IsZero() {
		fields["date_occurred"] = "is required"
	}
	if c.DateReported.IsZero() {
		fields["date_reported"] = "is required"
	}
	checkCoordinates(c.Location.Coordinates, fields)

	if len(fields) > 0 {
		return apperrors.Validation(op, "invalid case", fields)
	}
	return nil
}

func validateEvidence(op string, items []models.Evidence) error {
	fields := map[string]string{}
	if len(items) == 0 {
		fields["evidence"] = "must contain at least 1 item(s)"
	}
	for i := range items {
		items[i].Type = strings.TrimSpace(items[i].Type)
		items[i].URL = strings.TrimSpace(items[i].URL)
		if err := collect(items[i], fmt.Sprintf("evidence[%d].", i), fields); err != nil {
			return apperrors.Internal(op, err)
		}
	}
	if len(fields) > 0 {
		return apperrors.Validation(op, "invalid evidence", fields)
	}
	return nil
}
