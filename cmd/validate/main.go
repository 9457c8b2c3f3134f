// Command validate checks warning and GSR fixture files against the record
// contract before they are bundled into submissions: field presence, date
// formats, category payloads, ID uniqueness, and duplicate count dates. It
// finishes with a scoring dry run over the configured profile to catch
// records the scorers would reject at runtime.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -warnings data/mock/warnings.json \
//	  -gsr data/mock/gsr.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/couchcryptid/warning-score-service/internal/domain"
	"github.com/couchcryptid/warning-score-service/internal/profile"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	warningsPath := flag.String("warnings", "", "path to warnings JSON fixture")
	gsrPath := flag.String("gsr", "", "path to GSR JSON fixture")
	profilePath := flag.String("profile", "", "path to scoring profile TOML (default profile when empty)")
	flag.Parse()

	if *warningsPath == "" || *gsrPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*warningsPath, *gsrPath, *profilePath); code != 0 {
		os.Exit(code)
	}
}

func run(warningsPath, gsrPath, profilePath string) int {
	fmt.Println("=== Warning Record Contract Validation ===")
	fmt.Println()

	warningRecs, err := loadJSON[map[string]any](warningsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load warnings: %v\n", err)
		return 1
	}

	gsrRecs, err := loadJSON[map[string]any](gsrPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load GSR: %v\n", err)
		return 1
	}

	prof, err := profile.Load(profilePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load profile: %v\n", err)
		return 1
	}

	phases := []*phase{
		validateWarningContract(warningRecs),
		validateGSRContract(gsrRecs),
		validateCountDates(warningRecs, gsrRecs),
		validateScoringDryRun(prof, warningRecs, gsrRecs),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Records: %d warnings, %d GSR\n", len(warningRecs), len(gsrRecs))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

func loadJSON[T any](path string) ([]T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// ── Phase 1: Warning Contract ──
// Parses every warning record and checks the category payload matches the
// declared event type.

func validateWarningContract(recs []map[string]any) *phase {
	p := &phase{name: "Phase 1: Warning Contract"}

	seen := map[string]int{}
	for i, rec := range recs {
		w, err := domain.ParseWarning(rec)
		if err != nil {
			p.errorf("record %d: %v", i, err)
			continue
		}

		if prev, dup := seen[w.ID]; dup {
			p.errorf("record %d: duplicate Warning_ID %q (first at record %d)", i, w.ID, prev)
		} else {
			seen[w.ID] = i
		}

		checkPayload(p, fmt.Sprintf("warning %s", w.ID), w.EventType, rec)
	}
	return p
}

// ── Phase 2: GSR Contract ──
// Parses every GSR record, including Approximate_Location coercion, and
// checks the category payload.

func validateGSRContract(recs []map[string]any) *phase {
	p := &phase{name: "Phase 2: GSR Contract"}

	seen := map[string]int{}
	for i, rec := range recs {
		e, err := domain.ParseEvent(rec)
		if err != nil {
			p.errorf("record %d: %v", i, err)
			continue
		}

		if prev, dup := seen[e.ID]; dup {
			p.errorf("record %d: duplicate Event_ID %q (first at record %d)", i, e.ID, prev)
		} else {
			seen[e.ID] = i
		}

		checkPayload(p, fmt.Sprintf("gsr %s", e.ID), e.EventType, rec)
	}
	return p
}

// countEventTypes are the categories scored on daily counts rather than
// discrete located events.
var countEventTypes = map[string]bool{
	"Disease":       true,
	"Civil Unrest":  true,
	"ICEWS Protest": true,
}

// checkPayload verifies that a record carries the fields its category is
// scored on.
func checkPayload(p *phase, label, eventType string, rec map[string]any) {
	if countEventTypes[eventType] {
		if _, ok := rec[domain.FieldCaseCount]; !ok {
			p.errorf("%s: count category %q missing %s", label, eventType, domain.FieldCaseCount)
		}
		return
	}

	lat, lon := fieldAsFloat(rec, domain.FieldLatitude), fieldAsFloat(rec, domain.FieldLongitude)
	if lat == 0 && lon == 0 {
		p.errorf("%s: discrete category %q has zero coordinates", label, eventType)
	}
	if lat < -90 || lat > 90 {
		p.errorf("%s: %s %g out of range [-90, 90]", label, domain.FieldLatitude, lat)
	}
	if lon < -180 || lon > 180 {
		p.errorf("%s: %s %g out of range [-180, 180]", label, domain.FieldLongitude, lon)
	}
}

func fieldAsFloat(rec map[string]any, key string) float64 {
	switch v := rec[key].(type) {
	case float64:
		return v
	case string:
		var f float64
		fmt.Sscanf(strings.TrimSpace(v), "%g", &f) //nolint:errcheck // unparseable stays 0
		return f
	default:
		return 0
	}
}

// ── Phase 3: Count Dates ──
// Count categories require at most one warning and one GSR event per
// country/date; duplicates would abort a scoring run.

func validateCountDates(warnings, gsr []map[string]any) *phase {
	p := &phase{name: "Phase 3: Count Date Uniqueness"}

	checkDates := func(recs []map[string]any, idField, kind string) {
		seen := map[string]string{}
		for _, rec := range recs {
			w, err := domain.ParseWarning(mapWithID(rec, idField))
			if err != nil || !countEventTypes[w.EventType] {
				continue
			}
			key := w.EventType + "|" + w.Country + "|" + w.EventDate.Format("2006-01-02")
			if prev, dup := seen[key]; dup {
				p.errorf("%s %s and %s share date %s in %s/%s",
					kind, prev, w.ID, w.EventDate.Format("2006-01-02"), w.EventType, w.Country)
				continue
			}
			seen[key] = w.ID
		}
	}

	checkDates(warnings, domain.FieldWarningID, "warnings")
	checkDates(gsr, domain.FieldEventID, "gsr events")
	return p
}

// mapWithID rewrites a record so ParseWarning can read its ID regardless of
// whether it is a warning or a GSR event.
func mapWithID(rec map[string]any, idField string) map[string]any {
	if idField == domain.FieldWarningID {
		return rec
	}
	out := make(map[string]any, len(rec)+1)
	for k, v := range rec {
		out[k] = v
	}
	out[domain.FieldWarningID] = rec[idField]
	return out
}

// ── Phase 4: Scoring Dry Run ──
// Runs every profile scorer over the records it is scoped to and surfaces
// anything the scorers would reject or flag at runtime.

func validateScoringDryRun(prof *profile.Profile, warningRecs, gsrRecs []map[string]any) *phase {
	p := &phase{name: "Phase 4: Scoring Dry Run"}

	scorers, err := profile.BuildSet(prof)
	if err != nil {
		p.errorf("build scorers: %v", err)
		return p
	}

	warnings, err := domain.ParseWarnings(warningRecs)
	if err != nil {
		p.errorf("parse warnings: %v", err)
		return p
	}
	events, err := domain.ParseEvents(gsrRecs)
	if err != nil {
		p.errorf("parse gsr: %v", err)
		return p
	}

	eventTypes := map[string]bool{}
	for _, w := range warnings {
		eventTypes[w.EventType] = true
	}

	for eventType := range eventTypes {
		named := scorers.ForEventType(eventType)
		if len(named) == 0 {
			p.errorf("no scorer configured for event type %q", eventType)
			continue
		}
		for _, n := range named {
			result, err := n.Scorer.Score(warnings, events)
			if err != nil {
				p.errorf("scorer %s: %v", n.Name, err)
				continue
			}
			for _, e := range result.Details.Errors {
				p.errorf("scorer %s: %s", n.Name, e)
			}
			if qs := result.Results.QualityScore; qs < 0 || qs > 1 {
				p.errorf("scorer %s: quality score %g outside [0, 1]", n.Name, qs)
			}
		}
	}
	return p
}
