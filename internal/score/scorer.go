package score

import (
	"github.com/couchcryptid/warning-score-service/internal/domain"
)

// Scorer evaluates a set of warnings against a set of GSR events and produces
// a scoring result. Implementations filter out records outside their scope
// before matching.
type Scorer interface {
	Score(warnings []domain.Warning, events []domain.Event) (domain.Result, error)
}
