// Command score runs the scoring profile over local warning and GSR JSON
// files, letting participants score a submission offline before producing it
// to the service.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/couchcryptid/warning-score-service/internal/domain"
	"github.com/couchcryptid/warning-score-service/internal/profile"
)

var (
	warningsPath string
	gsrPath      string
	profilePath  string
	scorerName   string
	outputFmt    string
)

var rootCmd = &cobra.Command{
	Use:   "score",
	Short: "Score warning files against GSR ground truth",
	Long: `score matches a file of forecast warnings against a file of GSR
ground-truth events using the configured scoring profile and reports
quality, precision, and recall per scorer.

Examples:
  score --warnings warnings.json --gsr gsr.json
  score --warnings warnings.json --gsr gsr.json --scorer jordan-military-activity
  score --warnings warnings.json --gsr gsr.json --output json`,
	RunE: runScore,
}

func init() {
	rootCmd.Flags().StringVar(&warningsPath, "warnings", "", "path to warnings JSON file")
	rootCmd.Flags().StringVar(&gsrPath, "gsr", "", "path to GSR JSON file")
	rootCmd.Flags().StringVar(&profilePath, "profile", "",
		"scoring profile TOML (default: $SCORING_PROFILE, else built-in profile)")
	rootCmd.Flags().StringVar(&scorerName, "scorer", "", "run only the named scorer")
	rootCmd.Flags().StringVarP(&outputFmt, "output", "o", "table", "output format (table, json)")
	cobra.CheckErr(rootCmd.MarkFlagRequired("warnings"))
	cobra.CheckErr(rootCmd.MarkFlagRequired("gsr"))
}

func main() {
	_ = godotenv.Load()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// scorerOutcome pairs one scorer's identity with its result for reporting.
type scorerOutcome struct {
	Scorer    string        `json:"Scorer"`
	EventType string        `json:"Event_Type"`
	Result    domain.Result `json:"Result"`
}

func runScore(cmd *cobra.Command, _ []string) error {
	if profilePath == "" {
		profilePath = os.Getenv("SCORING_PROFILE")
	}
	prof, err := profile.Load(profilePath)
	if err != nil {
		return fmt.Errorf("load profile: %w", err)
	}
	scorers, err := profile.BuildSet(prof)
	if err != nil {
		return fmt.Errorf("build scorers: %w", err)
	}

	warnings, err := loadWarnings(warningsPath)
	if err != nil {
		return fmt.Errorf("load warnings: %w", err)
	}
	events, err := loadEvents(gsrPath)
	if err != nil {
		return fmt.Errorf("load gsr: %w", err)
	}

	outcomes, err := runScorers(scorers, warnings, events)
	if err != nil {
		return err
	}
	if len(outcomes) == 0 {
		return fmt.Errorf("no scorer matched the input (scorer filter %q)", scorerName)
	}

	if outputFmt == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(outcomes)
	}
	return printTable(cmd, outcomes)
}

func loadWarnings(path string) ([]domain.Warning, error) {
	recs, err := loadRecords(path)
	if err != nil {
		return nil, err
	}
	return domain.ParseWarnings(recs)
}

func loadEvents(path string) ([]domain.Event, error) {
	recs, err := loadRecords(path)
	if err != nil {
		return nil, err
	}
	return domain.ParseEvents(recs)
}

func loadRecords(path string) ([]map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var recs []map[string]any
	if err := json.Unmarshal(data, &recs); err != nil {
		return nil, err
	}
	return recs, nil
}

// runScorers runs every configured scorer whose event type appears in the
// warnings, optionally narrowed to a single named scorer.
func runScorers(scorers *profile.Set, warnings []domain.Warning, events []domain.Event) ([]scorerOutcome, error) {
	eventTypes := map[string]bool{}
	for _, w := range warnings {
		eventTypes[w.EventType] = true
	}
	sorted := make([]string, 0, len(eventTypes))
	for et := range eventTypes {
		sorted = append(sorted, et)
	}
	sort.Strings(sorted)

	var outcomes []scorerOutcome
	for _, eventType := range sorted {
		for _, named := range scorers.ForEventType(eventType) {
			if scorerName != "" && named.Name != scorerName {
				continue
			}
			result, err := named.Scorer.Score(warnings, events)
			if err != nil {
				return nil, fmt.Errorf("scorer %s: %w", named.Name, err)
			}
			outcomes = append(outcomes, scorerOutcome{
				Scorer:    named.Name,
				EventType: eventType,
				Result:    result,
			})
		}
	}
	return outcomes, nil
}

func printTable(cmd *cobra.Command, outcomes []scorerOutcome) error {
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SCORER\tEVENT TYPE\tMATCHES\tQUALITY\tPRECISION\tRECALL\tF1\tUNMATCHED W/G")
	fmt.Fprintln(tw, "------\t----------\t-------\t-------\t---------\t------\t--\t-------------")

	for _, o := range outcomes {
		m := o.Result.Results
		f1 := "-"
		if m.F1 != nil {
			f1 = fmt.Sprintf("%.4f", *m.F1)
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%.4f\t%.4f\t%.4f\t%s\t%d/%d\n",
			o.Scorer, o.EventType, len(o.Result.Matches),
			m.QualityScore, m.Precision, m.Recall, f1,
			len(o.Result.UnmatchedWarnings), len(o.Result.UnmatchedGSR))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	for _, o := range outcomes {
		if len(o.Result.Details.Errors) == 0 {
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "\n%s notices:\n", o.Scorer)
		for _, e := range o.Result.Details.Errors {
			fmt.Fprintf(cmd.OutOrStdout(), "  - %s\n", e)
		}
	}
	return nil
}
