package score

import (
	"fmt"
	"math"

	"github.com/couchcryptid/warning-score-service/internal/domain"
	"github.com/couchcryptid/warning-score-service/internal/geo"
)

// Multi-facet scoring defaults.
const (
	DefaultMaxDistanceKM   = 100.0
	DefaultMaxDateDiffDays = 4.0

	// weightTotal is the fixed sum the four component weights are rescaled to,
	// so the raw combined score tops out at weightTotal regardless of the
	// configured emphasis. Pair quality scores are then normalized to [0, 1].
	weightTotal = 4.0
)

// FacetScorer scores discrete-event warnings on four facets: location, date,
// actor and event subtype. Candidate pairs are assembled into a quality-score
// matrix and resolved with the assignment solver.
type FacetScorer struct {
	Name      string
	EventType string
	Country   string

	// MaxDistanceKM is the distance at which the location score reaches 0.
	// Zero means DefaultMaxDistanceKM.
	MaxDistanceKM float64

	// DistanceBufferKM is the leniency subtracted from both the distance and
	// the threshold when the event location is approximate. Zero means
	// MaxDistanceKM / 6.
	DistanceBufferKM float64

	// MaxDateDiffDays is the absolute date difference at which the date score
	// reaches 0. Zero means DefaultMaxDateDiffDays.
	MaxDateDiffDays float64

	// Actors is the set of legitimate warning actors. A warning naming an
	// actor outside the set scores 0 on the actor facet. Empty disables the
	// legitimacy check.
	Actors []string

	// WildcardActors score 1 against any GSR actor.
	WildcardActors []string

	// Subtypes is the set of legitimate warning subtypes, checked like Actors.
	Subtypes []string

	// Component weights. Zero means 1. Negative weights are a per-pair error.
	LocationWeight float64
	DateWeight     float64
	ActorWeight    float64
	SubtypeWeight  float64

	// Distance computes the km between a warning and an event. Nil means
	// geo.HaversineKM.
	Distance geo.DistanceFunc
}

func (s *FacetScorer) maxDistance() float64 {
	if s.MaxDistanceKM > 0 {
		return s.MaxDistanceKM
	}
	return DefaultMaxDistanceKM
}

func (s *FacetScorer) distanceBuffer() float64 {
	if s.DistanceBufferKM > 0 {
		return s.DistanceBufferKM
	}
	return s.maxDistance() / 6
}

func (s *FacetScorer) maxDateDiff() float64 {
	if s.MaxDateDiffDays > 0 {
		return s.MaxDateDiffDays
	}
	return DefaultMaxDateDiffDays
}

func (s *FacetScorer) distance() geo.DistanceFunc {
	if s.Distance != nil {
		return s.Distance
	}
	return geo.HaversineKM
}

func weightOrDefault(w float64) float64 {
	if w == 0 {
		return 1
	}
	return w
}

// weights returns the four component weights rescaled to sum to weightTotal,
// with a notice when rescaling changed them. A negative weight is an error.
func (s *FacetScorer) weights() (ls, ds, as, ess float64, notice string, err error) {
	ls = weightOrDefault(s.LocationWeight)
	ds = weightOrDefault(s.DateWeight)
	as = weightOrDefault(s.ActorWeight)
	ess = weightOrDefault(s.SubtypeWeight)

	for _, w := range []float64{ls, ds, as, ess} {
		if w < 0 {
			return 0, 0, 0, 0, "", fmt.Errorf("negative component weight %v", w)
		}
	}
	sum := ls + ds + as + ess
	if sum == 0 {
		return 0, 0, 0, 0, "", fmt.Errorf("component weights sum to 0")
	}
	if sum != weightTotal {
		factor := weightTotal / sum
		ls *= factor
		ds *= factor
		as *= factor
		ess *= factor
		notice = fmt.Sprintf("weights rescaled by %v to sum to %v", factor, weightTotal)
	}
	return ls, ds, as, ess, notice, nil
}

func contains(set []string, value string) bool {
	for _, s := range set {
		if s == value {
			return true
		}
	}
	return false
}

// ScoreOne computes the per-pair audit record for a single warning/event
// candidate pair.
func (s *FacetScorer) ScoreOne(w domain.Warning, e domain.Event) domain.PairScore {
	pair := domain.PairScore{
		WarningID:           w.ID,
		EventID:             e.ID,
		ApproximateLocation: e.ApproximateLocation,
	}

	wls, wds, was, wess, notice, err := s.weights()
	if err != nil {
		pair.Errors = append(pair.Errors, err.Error())
		return pair
	}
	if notice != "" {
		pair.Notices = append(pair.Notices, notice)
	}

	pair.DistanceKM = s.distance()(w.Latitude, w.Longitude, e.Latitude, e.Longitude)
	dist := pair.DistanceKM
	maxDist := s.maxDistance()
	if e.ApproximateLocation {
		buffer := s.distanceBuffer()
		dist = math.Max(dist-buffer, 0)
		maxDist -= buffer
	}
	ls, err := SlopeScore(dist, 0, maxDist)
	if err != nil {
		pair.Errors = append(pair.Errors, fmt.Sprintf("location score: %v", err))
		return pair
	}
	pair.LocationScore = ls

	pair.DateDiff = DateDiff(w.EventDate, e.EventDate)
	dsc, err := DateScore(pair.DateDiff, s.maxDateDiff())
	if err != nil {
		pair.Errors = append(pair.Errors, fmt.Sprintf("date score: %v", err))
		return pair
	}
	pair.DateScore = dsc

	// An actor outside the legitimate set scores 0; wildcards bypass the check.
	if len(s.Actors) == 0 || contains(s.Actors, w.Actor) || contains(s.WildcardActors, w.Actor) {
		pair.ActorScore = FacetScore(w.Actor, e.Actors, s.WildcardActors)
	}
	if len(s.Subtypes) == 0 || contains(s.Subtypes, w.Subtype) {
		pair.SubtypeScore = FacetScore(w.Subtype, e.Subtypes, nil)
	}

	// Location and date are necessary conditions, not just weighted terms.
	if pair.LocationScore == 0 || pair.DateScore == 0 {
		pair.QualityScore = 0
		return pair
	}
	raw := wls*pair.LocationScore + wds*pair.DateScore + was*pair.ActorScore + wess*pair.SubtypeScore
	pair.QualityScore = raw / weightTotal
	return pair
}

func (s *FacetScorer) inScopeWarning(w domain.Warning) bool {
	return w.EventType == s.EventType && (s.Country == "" || w.Country == s.Country)
}

func (s *FacetScorer) inScopeEvent(e domain.Event) bool {
	return e.EventType == s.EventType && (s.Country == "" || e.Country == s.Country)
}

// Score filters both sides to the scorer's scope, scores every candidate
// pair, and resolves the quality-score matrix with the assignment solver.
func (s *FacetScorer) Score(warnings []domain.Warning, events []domain.Event) (domain.Result, error) {
	inWarn := make([]domain.Warning, 0, len(warnings))
	for _, w := range warnings {
		if s.inScopeWarning(w) {
			inWarn = append(inWarn, w)
		}
	}
	inEvent := make([]domain.Event, 0, len(events))
	for _, e := range events {
		if s.inScopeEvent(e) {
			inEvent = append(inEvent, e)
		}
	}

	result := domain.Result{
		Matches:           []domain.MatchPair{},
		UnmatchedWarnings: []string{},
		UnmatchedGSR:      []string{},
	}
	if len(inWarn) == 0 || len(inEvent) == 0 {
		for _, w := range inWarn {
			result.UnmatchedWarnings = append(result.UnmatchedWarnings, w.ID)
		}
		for _, e := range inEvent {
			result.UnmatchedGSR = append(result.UnmatchedGSR, e.ID)
		}
		f1 := 0.0
		result.Results.F1 = &f1
		return result, nil
	}

	scores := make([][]float64, len(inWarn))
	for i, w := range inWarn {
		scores[i] = make([]float64, len(inEvent))
		for j, e := range inEvent {
			pair := s.ScoreOne(w, e)
			result.Details.Pairs = append(result.Details.Pairs, pair)
			if len(pair.Errors) > 0 {
				result.Details.Errors = append(result.Details.Errors, fmt.Sprintf(
					"pair %s/%s: %s", pair.WarningID, pair.EventID, pair.Errors[0]))
				continue
			}
			scores[i][j] = pair.QualityScore
		}
	}

	match := Match(scores, false)
	matchedWarn := make(map[int]bool, len(match.Pairs))
	matchedEvent := make(map[int]bool, len(match.Pairs))
	for _, a := range match.Pairs {
		result.Matches = append(result.Matches, domain.MatchPair{
			WarningID: inWarn[a.Row].ID,
			EventID:   inEvent[a.Col].ID,
		})
		matchedWarn[a.Row] = true
		matchedEvent[a.Col] = true
	}
	for i, w := range inWarn {
		if !matchedWarn[i] {
			result.UnmatchedWarnings = append(result.UnmatchedWarnings, w.ID)
		}
	}
	for j, e := range inEvent {
		if !matchedEvent[j] {
			result.UnmatchedGSR = append(result.UnmatchedGSR, e.ID)
		}
	}

	result.Details.QualityScores = match.QualityScores
	result.Results.QualityScore = match.QualityScore
	result.Results.Precision = match.Precision
	result.Results.Recall = match.Recall
	f1 := match.F1
	result.Results.F1 = &f1
	return result, nil
}
