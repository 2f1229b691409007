package match

import (
	"sort"
	"strings"

	"gamesheet/internal/config"
	"gamesheet/internal/igdb"
)

// Decision classifies the result of resolving a title against the catalog.
type Decision int

const (
	DecisionMatched Decision = iota + 1
	DecisionAmbiguous
	DecisionNotFound
)

func (d Decision) String() string {
	switch d {
	case DecisionMatched:
		return "matched"
	case DecisionAmbiguous:
		return "ambiguous"
	case DecisionNotFound:
		return "notfound"
	default:
		return "unknown"
	}
}

// Scored pairs a candidate with its similarity score against the raw title.
type Scored struct {
	Candidate igdb.Candidate
	Score     float64
	Exact     bool
}

// Outcome is the matcher's verdict for one title. Best is meaningful only
// when Decision is DecisionMatched; Candidates holds the top contenders when
// DecisionAmbiguous, in score order with catalog relevance breaking ties.
type Outcome struct {
	Decision   Decision
	Best       Scored
	Candidates []Scored
}

// Matcher applies the threshold policy that turns scored candidates into an
// Outcome. Thresholds come from configuration so operators can tune how
// aggressively titles auto-match.
type Matcher struct {
	high         float64
	low          float64
	separation   float64
	maxAmbiguous int
}

func New(cfg *config.Config) *Matcher {
	return &Matcher{
		high:         cfg.Matcher.HighConfidence,
		low:          cfg.Matcher.LowConfidence,
		separation:   cfg.Matcher.Separation,
		maxAmbiguous: cfg.Matcher.MaxAmbiguous,
	}
}

// Resolve scores every candidate against rawTitle and decides the outcome.
// A single exact normalized match wins outright. Otherwise the top score must
// clear the high-confidence threshold with sufficient margin over the
// runner-up to match; scores clearing only the low threshold, or top-score
// ties, come back ambiguous for manual follow-up.
func (m *Matcher) Resolve(rawTitle string, candidates []igdb.Candidate) Outcome {
	normTitle := Normalize(rawTitle)
	if normTitle == "" || len(candidates) == 0 {
		return Outcome{Decision: DecisionNotFound}
	}
	titleTokens := strings.Fields(normTitle)

	scored := make([]Scored, 0, len(candidates))
	exactCount := 0
	for _, candidate := range candidates {
		normName := Normalize(candidate.Name)
		entry := Scored{
			Candidate: candidate,
			Score:     diceScore(titleTokens, strings.Fields(normName)),
		}
		if normName != "" && normName == normTitle {
			entry.Score = 1
			entry.Exact = true
			exactCount++
		}
		scored = append(scored, entry)
	}
	// Stable sort keeps the catalog's relevance order as the tiebreak.
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })

	best := scored[0]
	if best.Exact && exactCount == 1 {
		return Outcome{Decision: DecisionMatched, Best: best}
	}
	if best.Score < m.low {
		return Outcome{Decision: DecisionNotFound}
	}

	margin := 1.0
	tied := false
	if len(scored) > 1 {
		margin = best.Score - scored[1].Score
		tied = scored[1].Score == best.Score
	}
	if best.Score >= m.high && margin >= m.separation && !tied {
		return Outcome{Decision: DecisionMatched, Best: best}
	}

	top := make([]Scored, 0, m.maxAmbiguous)
	for _, entry := range scored {
		if entry.Score < m.low || len(top) == m.maxAmbiguous {
			break
		}
		top = append(top, entry)
	}
	return Outcome{Decision: DecisionAmbiguous, Candidates: top}
}
