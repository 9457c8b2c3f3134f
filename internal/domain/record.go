package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Record field names shared by warnings and GSR events. The underscore style
// follows the published submission schema.
const (
	FieldWarningID           = "Warning_ID"
	FieldEventID             = "Event_ID"
	FieldEventType           = "Event_Type"
	FieldCountry             = "Country"
	FieldState               = "State"
	FieldCity                = "City"
	FieldEventDate           = "Event_Date"
	FieldCaseCount           = "Case_Count"
	FieldLatitude            = "Latitude"
	FieldLongitude           = "Longitude"
	FieldActor               = "Actor"
	FieldSubtype             = "Event_Subtype"
	FieldApproximateLocation = "Approximate_Location"
)

// Warning is a participant's forecast record.
type Warning struct {
	ID        string
	EventType string
	Country   string
	State     string
	City      string
	EventDate time.Time

	// Category payload: count categories fill CaseCount, discrete-event
	// categories fill the coordinate and facet fields.
	CaseCount float64
	Latitude  float64
	Longitude float64
	Actor     string
	Subtype   string
}

// Event is a GSR ground-truth record.
type Event struct {
	ID        string
	EventType string
	Country   string
	State     string
	City      string
	EventDate time.Time

	CaseCount float64
	Latitude  float64
	Longitude float64

	// Actors and Subtypes hold one or more acceptable values; GSR encodes
	// ambiguity as multiple acceptable labels.
	Actors   []string
	Subtypes []string

	// ApproximateLocation marks representative rather than exact coordinates.
	ApproximateLocation bool
}

// ParseWarning builds a Warning from a generic field map as decoded from JSON.
func ParseWarning(rec map[string]any) (Warning, error) {
	id := stringField(rec, FieldWarningID)
	if id == "" {
		return Warning{}, fmt.Errorf("parse warning: missing %s", FieldWarningID)
	}
	eventType := stringField(rec, FieldEventType)
	if eventType == "" {
		return Warning{}, fmt.Errorf("parse warning %s: missing %s", id, FieldEventType)
	}
	date, err := dateField(rec, FieldEventDate)
	if err != nil {
		return Warning{}, fmt.Errorf("parse warning %s: %w", id, err)
	}

	return Warning{
		ID:        id,
		EventType: eventType,
		Country:   stringField(rec, FieldCountry),
		State:     stringField(rec, FieldState),
		City:      stringField(rec, FieldCity),
		EventDate: date,
		CaseCount: floatField(rec, FieldCaseCount),
		Latitude:  floatField(rec, FieldLatitude),
		Longitude: floatField(rec, FieldLongitude),
		Actor:     stringField(rec, FieldActor),
		Subtype:   stringField(rec, FieldSubtype),
	}, nil
}

// ParseEvent builds an Event from a generic field map as decoded from JSON.
func ParseEvent(rec map[string]any) (Event, error) {
	id := stringField(rec, FieldEventID)
	if id == "" {
		return Event{}, fmt.Errorf("parse gsr event: missing %s", FieldEventID)
	}
	eventType := stringField(rec, FieldEventType)
	if eventType == "" {
		return Event{}, fmt.Errorf("parse gsr event %s: missing %s", id, FieldEventType)
	}
	date, err := dateField(rec, FieldEventDate)
	if err != nil {
		return Event{}, fmt.Errorf("parse gsr event %s: %w", id, err)
	}
	approx, err := boolField(rec, FieldApproximateLocation)
	if err != nil {
		return Event{}, fmt.Errorf("parse gsr event %s: %w", id, err)
	}

	return Event{
		ID:                  id,
		EventType:           eventType,
		Country:             stringField(rec, FieldCountry),
		State:               stringField(rec, FieldState),
		City:                stringField(rec, FieldCity),
		EventDate:           date,
		CaseCount:           floatField(rec, FieldCaseCount),
		Latitude:            floatField(rec, FieldLatitude),
		Longitude:           floatField(rec, FieldLongitude),
		Actors:              stringListField(rec, FieldActor),
		Subtypes:            stringListField(rec, FieldSubtype),
		ApproximateLocation: approx,
	}, nil
}

// ParseWarnings parses a collection of warning records, failing on the first
// malformed record with its position in the collection.
func ParseWarnings(recs []map[string]any) ([]Warning, error) {
	warnings := make([]Warning, 0, len(recs))
	for i, rec := range recs {
		w, err := ParseWarning(rec)
		if err != nil {
			return nil, fmt.Errorf("warning record %d: %w", i, err)
		}
		warnings = append(warnings, w)
	}
	return warnings, nil
}

// ParseEvents parses a collection of GSR records, failing on the first
// malformed record with its position in the collection.
func ParseEvents(recs []map[string]any) ([]Event, error) {
	events := make([]Event, 0, len(recs))
	for i, rec := range recs {
		e, err := ParseEvent(rec)
		if err != nil {
			return nil, fmt.Errorf("gsr record %d: %w", i, err)
		}
		events = append(events, e)
	}
	return events, nil
}

// stringField returns the field as a trimmed string, or "" when absent.
func stringField(rec map[string]any, key string) string {
	v, ok := rec[key]
	if !ok || v == nil {
		return ""
	}
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s)
	case fmt.Stringer:
		return strings.TrimSpace(s.String())
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", v))
	}
}

// floatField returns the field as float64, accepting JSON numbers and numeric
// strings. Absent or unparseable values yield 0.
func floatField(rec map[string]any, key string) float64 {
	v, ok := rec[key]
	if !ok || v == nil {
		return 0
	}
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

// dateField parses an ISO-8601 date or timestamp, truncated to the calendar day.
func dateField(rec map[string]any, key string) (time.Time, error) {
	raw := stringField(rec, key)
	if raw == "" {
		return time.Time{}, fmt.Errorf("missing %s", key)
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid %s %q", key, raw)
}

// boolField coerces a boolean field that may arrive as a JSON bool or as the
// strings "True"/"False" (any case). Absent values default to false.
func boolField(rec map[string]any, key string) (bool, error) {
	v, ok := rec[key]
	if !ok || v == nil {
		return false, nil
	}
	switch b := v.(type) {
	case bool:
		return b, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(b)) {
		case "true":
			return true, nil
		case "false", "":
			return false, nil
		}
		return false, fmt.Errorf("invalid %s %q", key, b)
	default:
		return false, fmt.Errorf("invalid %s type %T", key, v)
	}
}

// stringListField normalizes a one-or-many field to a slice of strings.
func stringListField(rec map[string]any, key string) []string {
	v, ok := rec[key]
	if !ok || v == nil {
		return nil
	}
	switch vals := v.(type) {
	case []any:
		out := make([]string, 0, len(vals))
		for _, item := range vals {
			if s := strings.TrimSpace(fmt.Sprintf("%v", item)); s != "" {
				out = append(out, s)
			}
		}
		return out
	case []string:
		out := make([]string, 0, len(vals))
		for _, s := range vals {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		if s := stringField(rec, key); s != "" {
			return []string{s}
		}
		return nil
	}
}
