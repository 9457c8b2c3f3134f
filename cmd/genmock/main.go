// Command genmock generates deterministic warning and GSR fixtures for both
// scoring categories, plus ready-to-produce submission envelopes. It runs the
// actual scoring profile over the generated records so the printed stats can
// seed test assertions that match real pipeline behavior.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -out-dir data/mock \
//	  -days 14 \
//	  -seed 42
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/warning-score-service/internal/domain"
	"github.com/couchcryptid/warning-score-service/internal/profile"
)

var baseDate = time.Date(2024, time.April, 22, 0, 0, 0, 0, time.UTC)

// ammanLat and ammanLon anchor the generated military-activity coordinates.
const (
	ammanLat = 31.95
	ammanLon = 35.93
)

// Actor and subtype pools mirror the default jordan-military-activity scorer
// so generated pairs stay legitimate under the built-in profile.
var legitimateActors = []string{"Jordanian Military", "Unspecified"}

var legitimateSubtypes = []string{"Conflict", "Force Posture"}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	outDir := flag.String("out-dir", "", "output directory for fixture JSON files")
	days := flag.Int("days", 14, "number of days of disease count data to generate")
	pairs := flag.Int("pairs", 12, "number of military activity warning/event pairs to generate")
	seed := flag.Int64("seed", 42, "RNG seed for reproducible fixtures")
	flag.Parse()

	if *outDir == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out-dir")
	}

	// Set a fixed clock for reproducible Scored_At timestamps.
	domain.SetClock(clockwork.NewFakeClockAt(
		time.Date(2024, time.May, 6, 6, 0, 0, 0, time.UTC),
	))
	defer domain.SetClock(nil)

	rng := rand.New(rand.NewSource(*seed))

	diseaseWarnings, diseaseGSR := genDisease(rng, *days)
	militaryWarnings, militaryGSR := genMilitary(rng, *pairs)

	warnings := append(append([]map[string]any{}, diseaseWarnings...), militaryWarnings...)
	gsr := append(append([]map[string]any{}, diseaseGSR...), militaryGSR...)

	log.Printf("disease: %d warnings, %d gsr", len(diseaseWarnings), len(diseaseGSR))
	log.Printf("military activity: %d warnings, %d gsr", len(militaryWarnings), len(militaryGSR))

	submissions := []domain.Submission{
		{
			ID:            "mock-disease-01",
			ParticipantID: "mock-team",
			EventType:     "Disease",
			Warnings:      diseaseWarnings,
			GSR:           diseaseGSR,
		},
		{
			ID:            "mock-military-01",
			ParticipantID: "mock-team",
			EventType:     "Military Activity",
			Warnings:      militaryWarnings,
			GSR:           militaryGSR,
		},
	}

	files := []struct {
		name string
		data any
	}{
		{"warnings.json", warnings},
		{"gsr.json", gsr},
		{"submissions.json", submissions},
	}
	for _, f := range files {
		path := filepath.Join(*outDir, f.name)
		if err := writeJSON(path, f.data); err != nil {
			return fmt.Errorf("writing %s: %w", f.name, err)
		}
		log.Printf("wrote %s", path)
	}

	return printStats(submissions)
}

// genDisease produces one warning and one GSR record per day for the Egypt
// disease count series. Predicted counts track actuals with small noise so
// the resulting quality scores land strictly between 0 and 1.
func genDisease(rng *rand.Rand, days int) (warnings, gsr []map[string]any) {
	for i := 0; i < days; i++ {
		date := baseDate.AddDate(0, 0, i).Format("2006-01-02")
		actual := rng.Intn(8)
		predicted := actual + rng.Intn(3) - 1
		if predicted < 0 {
			predicted = 0
		}

		warnings = append(warnings, map[string]any{
			domain.FieldWarningID: fmt.Sprintf("mock-dis-w%03d", i+1),
			domain.FieldEventType: "Disease",
			domain.FieldCountry:   "Egypt",
			domain.FieldEventDate: date,
			domain.FieldCaseCount: predicted,
		})
		gsr = append(gsr, map[string]any{
			domain.FieldEventID:   fmt.Sprintf("mock-dis-e%03d", i+1),
			domain.FieldEventType: "Disease",
			domain.FieldCountry:   "Egypt",
			domain.FieldEventDate: date,
			domain.FieldCaseCount: actual,
		})
	}
	return warnings, gsr
}

// genMilitary produces discrete military activity pairs around Amman. Each
// warning is jittered in space and time relative to its GSR counterpart, and
// every third event carries approximate coordinates.
func genMilitary(rng *rand.Rand, pairs int) (warnings, gsr []map[string]any) {
	for i := 0; i < pairs; i++ {
		eventDate := baseDate.AddDate(0, 0, rng.Intn(14))
		warnDate := eventDate.AddDate(0, 0, rng.Intn(5)-2)

		lat := ammanLat + rng.Float64()*0.6 - 0.3
		lon := ammanLon + rng.Float64()*0.6 - 0.3
		actor := legitimateActors[rng.Intn(len(legitimateActors))]
		subtype := legitimateSubtypes[rng.Intn(len(legitimateSubtypes))]

		warnings = append(warnings, map[string]any{
			domain.FieldWarningID: fmt.Sprintf("mock-mil-w%03d", i+1),
			domain.FieldEventType: "Military Activity",
			domain.FieldCountry:   "Jordan",
			domain.FieldEventDate: warnDate.Format("2006-01-02"),
			domain.FieldLatitude:  lat + rng.Float64()*0.2 - 0.1,
			domain.FieldLongitude: lon + rng.Float64()*0.2 - 0.1,
			domain.FieldActor:     actor,
			domain.FieldSubtype:   subtype,
		})
		gsr = append(gsr, map[string]any{
			domain.FieldEventID:             fmt.Sprintf("mock-mil-e%03d", i+1),
			domain.FieldEventType:           "Military Activity",
			domain.FieldCountry:             "Jordan",
			domain.FieldEventDate:           eventDate.Format("2006-01-02"),
			domain.FieldLatitude:            lat,
			domain.FieldLongitude:           lon,
			domain.FieldActor:               []string{actor},
			domain.FieldSubtype:             []string{subtype},
			domain.FieldApproximateLocation: i%3 == 0,
		})
	}
	return warnings, gsr
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}

// printStats scores the generated submissions with the default profile and
// prints the numbers a test would assert on.
func printStats(submissions []domain.Submission) error {
	scorers, err := profile.BuildSet(profile.Default())
	if err != nil {
		return fmt.Errorf("building default profile: %w", err)
	}

	fmt.Println("\n=== Stats for updating test assertions ===")
	for _, sub := range submissions {
		warnings, err := domain.ParseWarnings(sub.Warnings)
		if err != nil {
			return fmt.Errorf("submission %s: %w", sub.ID, err)
		}
		events, err := domain.ParseEvents(sub.GSR)
		if err != nil {
			return fmt.Errorf("submission %s: %w", sub.ID, err)
		}

		for _, named := range scorers.ForEventType(sub.EventType) {
			result, err := named.Scorer.Score(warnings, events)
			if err != nil {
				return fmt.Errorf("submission %s scorer %s: %w", sub.ID, named.Name, err)
			}
			fmt.Printf("\n%s via %s:\n", sub.ID, named.Name)
			fmt.Printf("  Matches: %d\n", len(result.Matches))
			fmt.Printf("  Quality Score: %.4f\n", result.Results.QualityScore)
			fmt.Printf("  Precision: %.4f, Recall: %.4f\n", result.Results.Precision, result.Results.Recall)
			if result.Results.F1 != nil {
				fmt.Printf("  F1: %.4f\n", *result.Results.F1)
			}
			fmt.Printf("  Unmatched: %d warnings, %d gsr\n",
				len(result.UnmatchedWarnings), len(result.UnmatchedGSR))
			if len(result.Details.Errors) > 0 {
				fmt.Printf("  Scoring notices: %d\n", len(result.Details.Errors))
			}
		}
	}
	return nil
}
