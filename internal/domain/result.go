package domain

// MatchPair links one warning to the GSR event it was matched with.
type MatchPair struct {
	WarningID string `json:"Warning_ID"`
	EventID   string `json:"Event_ID"`
}

// Metrics holds the aggregate scores for one scoring run. F1 is only defined
// for the multi-facet scorer; count scoring reports precision/recall/quality
// alone, so the field is a pointer and omitted when unset.
type Metrics struct {
	QualityScore float64  `json:"Quality Score"`
	Precision    float64  `json:"Precision"`
	Recall       float64  `json:"Recall"`
	F1           *float64 `json:"F1,omitempty"`
}

// PairScore is the per-pair audit record for multi-facet scoring: the raw
// distance and date difference plus every component score that fed the
// combined quality score.
type PairScore struct {
	WarningID           string  `json:"Warning_ID"`
	EventID             string  `json:"Event_ID"`
	ApproximateLocation bool    `json:"Approximate_Location"`
	DistanceKM          float64 `json:"Distance"`
	DateDiff            int     `json:"Date Difference"`
	LocationScore       float64 `json:"Location Score"`
	DateScore           float64 `json:"Date Score"`
	ActorScore          float64 `json:"Actor Score"`
	SubtypeScore        float64 `json:"Event Subtype Score"`
	QualityScore        float64 `json:"Quality Score"`

	// Errors makes the pair unscorable (e.g. a negative weight); Notices
	// record non-fatal adjustments such as weight renormalization.
	Errors  []string `json:"Errors,omitempty"`
	Notices []string `json:"Notices,omitempty"`
}

// Details exposes the raw per-pair data behind the aggregate metrics.
type Details struct {
	// QSValues lists the quality scores of a count scoring run's scorable
	// pairs; pairs rejected with a data error are reported in Errors instead.
	QSValues []float64 `json:"QS Values,omitempty"`

	// QualityScores lists the matched pair scores chosen by the assignment
	// solver in a multi-facet run.
	QualityScores []float64 `json:"Quality Scores,omitempty"`

	// Pairs holds the full candidate-pair audit for a multi-facet run,
	// including pairs the solver did not select.
	Pairs []PairScore `json:"Pair Scores,omitempty"`

	// Errors collects data-quality reports for skipped pairs.
	Errors []string `json:"Errors,omitempty"`
}

// Result is the outcome of scoring one warning set against one GSR set. The
// JSON keys mirror the published participant-facing contract.
type Result struct {
	Matches           []MatchPair `json:"Matches"`
	UnmatchedWarnings []string    `json:"Unmatched Warnings"`
	UnmatchedGSR      []string    `json:"Unmatched GSR"`
	Results           Metrics     `json:"Results"`
	Details           Details     `json:"Details"`
}
