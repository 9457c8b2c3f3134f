package score

import (
	"fmt"
	"math"
	"sort"

	"github.com/couchcryptid/warning-score-service/internal/domain"
)

const (
	// DefaultAccuracyDenominator floors the divisor of the case-count accuracy
	// formula so small counts are not scored too harshly.
	DefaultAccuracyDenominator = 4.0

	dateKeyLayout = "2006-01-02"
)

// QualityScore rates a predicted case count against the actual one. The
// error is taken relative to the larger of the two counts, floored at denom.
// A perfect prediction scores 1. Counts must be non-negative and the
// denominator positive.
func QualityScore(predicted, actual, denom float64) (float64, error) {
	if predicted < 0 || actual < 0 {
		return 0, fmt.Errorf("case counts must be non-negative, got predicted %v and actual %v", predicted, actual)
	}
	if denom <= 0 {
		return 0, fmt.Errorf("accuracy denominator must be positive, got %v", denom)
	}
	divisor := math.Max(predicted, math.Max(actual, denom))
	return 1 - math.Abs(predicted-actual)/divisor, nil
}

// CaseCountScorer scores daily case-count warnings for one location scope.
// Warnings and GSR events are joined on event date; each date carries at most
// one record on each side.
type CaseCountScorer struct {
	Name      string
	EventType string
	Country   string
	State     string
	City      string

	// AccuracyDenominator is the floor divisor for QualityScore. Zero means
	// DefaultAccuracyDenominator.
	AccuracyDenominator float64
}

func (s *CaseCountScorer) denom() float64 {
	if s.AccuracyDenominator > 0 {
		return s.AccuracyDenominator
	}
	return DefaultAccuracyDenominator
}

func (s *CaseCountScorer) inScopeWarning(w domain.Warning) bool {
	return w.EventType == s.EventType &&
		(s.Country == "" || w.Country == s.Country) &&
		(s.State == "" || w.State == s.State) &&
		(s.City == "" || w.City == s.City)
}

func (s *CaseCountScorer) inScopeEvent(e domain.Event) bool {
	return e.EventType == s.EventType &&
		(s.Country == "" || e.Country == s.Country) &&
		(s.State == "" || e.State == s.State) &&
		(s.City == "" || e.City == s.City)
}

// Score joins warnings and GSR events on event date and scores each matched
// date's predicted count against the actual one. Duplicate dates on either
// side are rejected before any matching happens.
func (s *CaseCountScorer) Score(warnings []domain.Warning, events []domain.Event) (domain.Result, error) {
	warnByDate := make(map[string]domain.Warning)
	for _, w := range warnings {
		if !s.inScopeWarning(w) {
			continue
		}
		key := w.EventDate.Format(dateKeyLayout)
		if dup, ok := warnByDate[key]; ok {
			return domain.Result{}, fmt.Errorf(
				"case count scorer %s: warnings %s and %s share event date %s",
				s.Name, dup.ID, w.ID, key)
		}
		warnByDate[key] = w
	}

	eventByDate := make(map[string]domain.Event)
	for _, e := range events {
		if !s.inScopeEvent(e) {
			continue
		}
		key := e.EventDate.Format(dateKeyLayout)
		if dup, ok := eventByDate[key]; ok {
			return domain.Result{}, fmt.Errorf(
				"case count scorer %s: gsr events %s and %s share event date %s",
				s.Name, dup.ID, e.ID, key)
		}
		eventByDate[key] = e
	}

	// Outer join over the sorted union of dates, so output ordering is
	// deterministic.
	dateSet := make(map[string]struct{}, len(warnByDate)+len(eventByDate))
	for key := range warnByDate {
		dateSet[key] = struct{}{}
	}
	for key := range eventByDate {
		dateSet[key] = struct{}{}
	}
	dates := make([]string, 0, len(dateSet))
	for key := range dateSet {
		dates = append(dates, key)
	}
	sort.Strings(dates)

	result := domain.Result{
		Matches:           []domain.MatchPair{},
		UnmatchedWarnings: []string{},
		UnmatchedGSR:      []string{},
	}
	validTotal := 0.0
	validCount := 0
	for _, key := range dates {
		w, haveWarn := warnByDate[key]
		e, haveEvent := eventByDate[key]
		switch {
		case haveWarn && haveEvent:
			// The pair stays matched even when its counts are unscorable; the
			// rejection is reported and the pair contributes no score.
			result.Matches = append(result.Matches, domain.MatchPair{WarningID: w.ID, EventID: e.ID})
			qs, err := QualityScore(w.CaseCount, e.CaseCount, s.denom())
			if err != nil {
				result.Details.Errors = append(result.Details.Errors, fmt.Sprintf(
					"pair %s/%s: %v", w.ID, e.ID, err))
				continue
			}
			result.Details.QSValues = append(result.Details.QSValues, qs)
			validTotal += qs
			validCount++
		case haveWarn:
			result.UnmatchedWarnings = append(result.UnmatchedWarnings, w.ID)
		case haveEvent:
			result.UnmatchedGSR = append(result.UnmatchedGSR, e.ID)
		}
	}

	if validCount > 0 {
		result.Results.QualityScore = validTotal / float64(validCount)
	}
	if len(warnByDate) > 0 {
		result.Results.Precision = float64(len(result.Matches)) / float64(len(warnByDate))
	}
	if len(eventByDate) > 0 {
		result.Results.Recall = float64(len(result.Matches)) / float64(len(eventByDate))
	}
	return result, nil
}
