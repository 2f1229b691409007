package reconcile

import (
	"fmt"
	"strings"

	"gamesheet/internal/match"
	"gamesheet/internal/runstate"
	"gamesheet/internal/sheets"
)

// Placeholder values written to the sheet for rows that need manual
// follow-up.
const (
	placeholderNotFound  = "NO MATCHING GAMES"
	placeholderAmbiguous = "NO EXACT MATCHES"
	placeholderFailed    = "LOOKUP FAILED"
)

// outputLayout maps the configured first output column to the five columns a
// matched row fills: summary, genres, keywords, rating, storefront URL.
type outputLayout struct {
	summary    string
	genres     string
	keywords   string
	rating     string
	storefront string
}

func newOutputLayout(firstColumn string) (outputLayout, error) {
	base, err := sheets.ColumnIndex(firstColumn)
	if err != nil {
		return outputLayout{}, err
	}
	return outputLayout{
		summary:    sheets.ColumnRef(base),
		genres:     sheets.ColumnRef(base + 1),
		keywords:   sheets.ColumnRef(base + 2),
		rating:     sheets.ColumnRef(base + 3),
		storefront: sheets.ColumnRef(base + 4),
	}, nil
}

// cellsFor converts a matcher outcome into the cell writes for one row and
// the status/detail pair recorded in run state.
func (l outputLayout) cellsFor(outcome match.Outcome) (map[string]string, runstate.Status, string) {
	switch outcome.Decision {
	case match.DecisionMatched:
		candidate := outcome.Best.Candidate
		cells := map[string]string{
			l.summary:    candidate.Summary,
			l.genres:     strings.Join(candidate.Genres, ", "),
			l.keywords:   strings.Join(candidate.Keywords, ", "),
			l.storefront: candidate.StorefrontURL,
		}
		if candidate.Rating > 0 {
			cells[l.rating] = fmt.Sprintf("%.1f", candidate.Rating)
		} else {
			cells[l.rating] = ""
		}
		return cells, runstate.StatusMatched, candidate.Name

	case match.DecisionAmbiguous:
		names := make([]string, 0, len(outcome.Candidates))
		for _, entry := range outcome.Candidates {
			names = append(names, entry.Candidate.Name)
		}
		joined := strings.Join(names, "; ")
		cells := map[string]string{
			l.summary: placeholderAmbiguous + ": " + joined,
		}
		return cells, runstate.StatusAmbiguous, joined

	default:
		cells := map[string]string{
			l.summary: placeholderNotFound,
		}
		return cells, runstate.StatusNotFound, ""
	}
}

// failureCells flags a row whose lookups kept failing.
func (l outputLayout) failureCells(cause string) map[string]string {
	return map[string]string{
		l.summary: placeholderFailed + ": " + cause,
	}
}
