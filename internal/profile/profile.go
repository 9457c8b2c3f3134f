// Package profile loads the TOML scoring profile that declares which scorers
// run for which event types, and builds the scorer instances from it.
package profile

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"

	"github.com/couchcryptid/warning-score-service/internal/score"
)

// Entry declares one scorer instance in the profile file.
type Entry struct {
	Name      string `toml:"name" validate:"required"`
	EventType string `toml:"event_type" validate:"required"`
	Mode      string `toml:"mode" validate:"required,oneof=case_count facet"`

	// Location names a preset scope instead of spelling out the fields below.
	Location string `toml:"location"`

	// Location scope. Country is optional for facet scorers, and State/City
	// narrow a case-count scope further. Explicit fields win over a preset.
	Country string `toml:"country"`
	State   string `toml:"state"`
	City    string `toml:"city"`

	// Case-count tuning.
	AccuracyDenominator float64 `toml:"accuracy_denominator" validate:"gte=0"`

	// Facet tuning. Weights carry no validation on purpose; negative weights
	// surface as per-pair data errors at scoring time.
	MaxDistanceKM    float64  `toml:"max_distance_km" validate:"gte=0"`
	DistanceBufferKM float64  `toml:"distance_buffer_km" validate:"gte=0"`
	MaxDateDiffDays  float64  `toml:"max_date_diff_days" validate:"gte=0"`
	Actors           []string `toml:"actors"`
	WildcardActors   []string `toml:"wildcard_actors"`
	Subtypes         []string `toml:"subtypes"`
	LocationWeight   float64  `toml:"location_weight"`
	DateWeight       float64  `toml:"date_weight"`
	ActorWeight      float64  `toml:"actor_weight"`
	SubtypeWeight    float64  `toml:"subtype_weight"`
}

// scope is a resolved location filter.
type scope struct {
	Country string
	State   string
	City    string
}

// locationPresets names the scopes the challenge was scored over, so profile
// entries can say location = "Amman" instead of spelling out the fields.
var locationPresets = map[string]scope{
	"Egypt":         {Country: "Egypt"},
	"Saudi Arabia":  {Country: "Saudi Arabia"},
	"Jordan":        {Country: "Jordan"},
	"Tahrir Square": {Country: "Egypt", City: "Tahrir Square"},
	"Amman":         {Country: "Jordan", State: "Amman"},
	"Irbid":         {Country: "Jordan", State: "Irbid"},
	"Madaba":        {Country: "Jordan", State: "Madaba"},
}

// scope resolves the entry's location filter, expanding a named preset and
// letting explicit fields override it.
func (e *Entry) scope() (scope, error) {
	sc := scope{Country: e.Country, State: e.State, City: e.City}
	if e.Location == "" {
		return sc, nil
	}
	preset, ok := locationPresets[e.Location]
	if !ok {
		return scope{}, fmt.Errorf("unknown location preset %q", e.Location)
	}
	if sc.Country == "" {
		sc.Country = preset.Country
	}
	if sc.State == "" {
		sc.State = preset.State
	}
	if sc.City == "" {
		sc.City = preset.City
	}
	return sc, nil
}

// Profile is the full scoring profile: a list of scorer declarations.
type Profile struct {
	Scorers []Entry `toml:"scorer" validate:"min=1,dive"`
}

// Default returns the profile used when no file is configured: the two
// challenge scopes the service was stood up for.
func Default() *Profile {
	return &Profile{
		Scorers: []Entry{
			{
				Name:      "egypt-disease",
				EventType: "Disease",
				Mode:      "case_count",
				Country:   "Egypt",
			},
			{
				Name:           "jordan-military-activity",
				EventType:      "Military Activity",
				Mode:           "facet",
				Country:        "Jordan",
				Actors:         []string{"Jordanian Military"},
				WildcardActors: []string{"Unspecified"},
				Subtypes:       []string{"Conflict", "Force Posture"},
			},
		},
	}
}

// Load reads and validates a profile file. An empty path yields Default().
func Load(path string) (*Profile, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scoring profile: %w", err)
	}
	var p Profile
	if err := toml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse scoring profile: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scoring profile: %w", err)
	}
	return &p, nil
}

// Validate checks the structural constraints of the profile, plus uniqueness
// of scorer names.
func (p *Profile) Validate() error {
	if err := validator.New().Struct(p); err != nil {
		return err
	}
	seen := make(map[string]bool, len(p.Scorers))
	for _, e := range p.Scorers {
		if seen[e.Name] {
			return fmt.Errorf("duplicate scorer name %q", e.Name)
		}
		seen[e.Name] = true
	}
	return nil
}

// NamedScorer pairs a scorer with its profile name for report attribution.
type NamedScorer struct {
	Name   string
	Scorer score.Scorer
}

// Set indexes the built scorers by event type.
type Set struct {
	byEventType map[string][]NamedScorer
}

// ForEventType returns the scorers registered for the given event type, in
// profile order.
func (s *Set) ForEventType(eventType string) []NamedScorer {
	return s.byEventType[eventType]
}

// Len reports how many scorers the set holds.
func (s *Set) Len() int {
	n := 0
	for _, scorers := range s.byEventType {
		n += len(scorers)
	}
	return n
}

// BuildSet constructs scorer instances from a validated profile.
func BuildSet(p *Profile) (*Set, error) {
	set := &Set{byEventType: make(map[string][]NamedScorer)}
	for _, e := range p.Scorers {
		sc, err := e.scope()
		if err != nil {
			return nil, fmt.Errorf("scorer %s: %w", e.Name, err)
		}
		var scorer score.Scorer
		switch e.Mode {
		case "case_count":
			scorer = &score.CaseCountScorer{
				Name:                e.Name,
				EventType:           e.EventType,
				Country:             sc.Country,
				State:               sc.State,
				City:                sc.City,
				AccuracyDenominator: e.AccuracyDenominator,
			}
		case "facet":
			scorer = &score.FacetScorer{
				Name:             e.Name,
				EventType:        e.EventType,
				Country:          sc.Country,
				MaxDistanceKM:    e.MaxDistanceKM,
				DistanceBufferKM: e.DistanceBufferKM,
				MaxDateDiffDays:  e.MaxDateDiffDays,
				Actors:           e.Actors,
				WildcardActors:   e.WildcardActors,
				Subtypes:         e.Subtypes,
				LocationWeight:   e.LocationWeight,
				DateWeight:       e.DateWeight,
				ActorWeight:      e.ActorWeight,
				SubtypeWeight:    e.SubtypeWeight,
			}
		default:
			return nil, fmt.Errorf("scorer %s: unknown mode %q", e.Name, e.Mode)
		}
		set.byEventType[e.EventType] = append(set.byEventType[e.EventType], NamedScorer{
			Name:   e.Name,
			Scorer: scorer,
		})
	}
	return set, nil
}
