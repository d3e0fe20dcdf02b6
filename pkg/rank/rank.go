// Package rank computes track rankings from pairwise comparison logs.
// It builds a preference graph from a log snapshot and offers five modes:
// partial-order resolution into tie groups (the default) plus Elo,
// Bradley-Terry, best-fit, and margin scoring. Every mode is a pure
// function of its inputs: identical snapshots yield identical rankings,
// and nothing is cached between calls.
package rank

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pashagolub/trackelo/pkg/data"
)

// Error types for ranking operations
var (
	ErrInvalidMode         = errors.New("invalid ranking mode")
	ErrInvalidKFactor      = errors.New("invalid K-factor")
	ErrInvalidRating       = errors.New("invalid rating value")
	ErrInvalidTolerance    = errors.New("invalid tolerance")
	ErrInvalidIterationCap = errors.New("invalid iteration cap")
	ErrNotEnoughTracks     = errors.New("not enough tracks")
)

// Mode selects the ranking algorithm.
type Mode string

const (
	// ModeDefault resolves the preference graph into an ordered sequence
	// of tie groups, reporting genuinely unresolved cycles as equivalence
	// groups instead of inventing precision.
	ModeDefault Mode = "default"

	// ModeElo replays the log in order, applying standard Elo updates.
	ModeElo Mode = "elo"

	// ModeBradleyTerry fits Bradley-Terry strengths by MM iteration.
	ModeBradleyTerry Mode = "bradley-terry"

	// ModeBestFit ranks by net wins with head-to-head tie-breaks.
	ModeBestFit Mode = "best-fit"

	// ModeMargin ranks by normalized win margin.
	ModeMargin Mode = "margin"
)

// Modes lists every supported mode in presentation order.
func Modes() []Mode {
	return []Mode{ModeDefault, ModeElo, ModeBradleyTerry, ModeBestFit, ModeMargin}
}

// ParseMode maps a mode name to a Mode. Underscore spellings are accepted
// as aliases for the hyphenated names; anything else returns
// ErrInvalidMode.
func ParseMode(s string) (Mode, error) {
	normalized := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "_", "-")
	for _, m := range Modes() {
		if normalized == string(m) {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %q (valid: default, elo, bradley-terry, best-fit, margin)", ErrInvalidMode, s)
}

// TieGroup is a set of tracks the comparison evidence cannot separate,
// either because they sit in a preference cycle or because they are the
// same track set of one strongly connected component. Members are listed
// in ascending id order.
type TieGroup struct {
	TrackIDs []string `json:"track_ids"`
}

// ScoredTrack carries one track's score under a scoring mode. Scored is
// false when the algorithm could not assign a score, such as a
// Bradley-Terry fit over a track with no games; Score is meaningless in
// that case.
type ScoredTrack struct {
	ID     string  `json:"id"`
	Score  float64 `json:"score"`
	Scored bool    `json:"scored"`
}

// Ranking is the result of one Rank call. Default mode fills Groups, the
// scoring modes fill Scores; the other field stays nil. Degraded marks a
// Bradley-Terry fit that stopped at the iteration cap before converging:
// the scores are the best available, not final.
type Ranking struct {
	Mode     Mode          `json:"mode"`
	Groups   []TieGroup    `json:"groups,omitempty"`
	Scores   []ScoredTrack `json:"scores,omitempty"`
	Degraded bool          `json:"degraded,omitempty"`
}

// Options bundles the per-mode parameters of a Ranker.
type Options struct {
	Elo          EloOptions
	BradleyTerry BradleyTerryOptions
}

// DefaultOptions returns the standard parameters for every mode.
func DefaultOptions() Options {
	return Options{
		Elo:          DefaultEloOptions(),
		BradleyTerry: DefaultBradleyTerryOptions(),
	}
}

// Ranker computes rankings from comparison log snapshots. It holds only
// configuration; every Rank call is a pure function of its inputs, so a
// single Ranker may be shared freely.
type Ranker struct {
	opts Options
}

// NewRanker validates the options and creates a Ranker.
func NewRanker(opts Options) (*Ranker, error) {
	if opts.Elo.KFactor <= 0 {
		return nil, fmt.Errorf("%w: K-factor must be positive, got %d", ErrInvalidKFactor, opts.Elo.KFactor)
	}
	if opts.Elo.InitialRating <= 0 {
		return nil, fmt.Errorf("%w: initial rating must be positive, got %.2f", ErrInvalidRating, opts.Elo.InitialRating)
	}
	if opts.BradleyTerry.Tolerance <= 0 {
		return nil, fmt.Errorf("%w: tolerance must be positive, got %g", ErrInvalidTolerance, opts.BradleyTerry.Tolerance)
	}
	if opts.BradleyTerry.MaxIterations <= 0 {
		return nil, fmt.Errorf("%w: iteration cap must be positive, got %d", ErrInvalidIterationCap, opts.BradleyTerry.MaxIterations)
	}

	return &Ranker{opts: opts}, nil
}

// Rank computes the ranking for mode over the given id universe and log
// snapshot. The universe is the union of trackIDs and every id referenced
// by the log, so tracks known to the catalog but never compared still
// appear in the result under each mode's policy for them.
//
// The snapshot must carry its log order (oldest first); the Elo mode
// depends on it. Comparisons are re-validated, a self-comparison returns
// data.ErrInvalidComparison. An unknown mode returns ErrInvalidMode. An
// empty log is not an error: scoring modes report every known track with
// an absent score in ascending id order, and the default mode reports
// singleton groups in the same order.
func (r *Ranker) Rank(mode Mode, trackIDs []string, comparisons []data.Comparison) (*Ranking, error) {
	switch mode {
	case ModeDefault, ModeElo, ModeBradleyTerry, ModeBestFit, ModeMargin:
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidMode, string(mode))
	}

	g, err := BuildGraph(trackIDs, comparisons)
	if err != nil {
		return nil, err
	}

	ranking := &Ranking{Mode: mode}

	// An empty log carries no preference evidence, so no scoring mode
	// gets to claim one track outranks another.
	if len(comparisons) == 0 && mode != ModeDefault {
		for _, id := range g.ids {
			ranking.Scores = append(ranking.Scores, ScoredTrack{ID: id})
		}
		return ranking, nil
	}

	switch mode {
	case ModeDefault:
		ranking.Groups = resolvePartialOrder(g)
	case ModeElo:
		ranking.Scores = scoreElo(g, comparisons, r.opts.Elo)
	case ModeBradleyTerry:
		outcome := scoreBradleyTerry(g, r.opts.BradleyTerry)
		ranking.Scores = outcome.scores
		ranking.Degraded = outcome.degraded
	case ModeBestFit:
		ranking.Scores = scoreBestFit(g)
	case ModeMargin:
		ranking.Scores = scoreMargin(g)
	}

	return ranking, nil
}
