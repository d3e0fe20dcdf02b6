package rank

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/pashagolub/trackelo/pkg/data"
)

// Matchup is a proposed next comparison between two tracks
type Matchup struct {
	TrackA       string  // ID of the track most in need of comparisons
	TrackB       string  // ID of the chosen opponent
	RatingGap    float64 // absolute Elo rating distance between the two
	WithinWindow bool    // true when the opponent fell inside the rating window
}

// MatchupOptions holds settings for next-pair selection
type MatchupOptions struct {
	RatingWindow float64    // preferred opponent rating distance (default 250)
	Elo          EloOptions // rating parameters used to measure the gap
}

// DefaultMatchupOptions returns standard selection parameters.
func DefaultMatchupOptions() MatchupOptions {
	return MatchupOptions{
		RatingWindow: 250.0,
		Elo:          DefaultEloOptions(),
	}
}

// NextPair proposes the next comparison worth asking a listener for.
//
// The track with the fewest recorded comparisons is picked first, ties
// broken at random, so coverage spreads across the catalog before any
// track accumulates a deep history. The opponent is drawn at random from
// the tracks within RatingWindow Elo points of the pick, where the
// expected outcome is closest to even and a result carries the most
// information; when no track is that close, any other track qualifies.
//
// Ratings are recomputed from the snapshot on every call, keeping
// selection consistent with the no-persisted-scores rule. Zero-valued
// options fall back to defaults. rng drives every random choice and may
// be seeded for reproducible selection; nil uses a time-seeded source.
// Fewer than two known tracks returns ErrNotEnoughTracks.
func NextPair(trackIDs []string, comparisons []data.Comparison, opts MatchupOptions, rng *rand.Rand) (*Matchup, error) {
	if opts.RatingWindow <= 0 {
		opts.RatingWindow = DefaultMatchupOptions().RatingWindow
	}
	if opts.Elo.KFactor <= 0 {
		opts.Elo.KFactor = DefaultEloOptions().KFactor
	}
	if opts.Elo.InitialRating <= 0 {
		opts.Elo.InitialRating = DefaultEloOptions().InitialRating
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	g, err := BuildGraph(trackIDs, comparisons)
	if err != nil {
		return nil, err
	}
	if g.Size() < 2 {
		return nil, fmt.Errorf("%w: need at least 2 tracks, have %d", ErrNotEnoughTracks, g.Size())
	}

	ratings := make(map[string]float64, g.Size())
	for _, s := range scoreElo(g, comparisons, opts.Elo) {
		ratings[s.ID] = s.Score
	}

	// Least-compared track first
	minPlayed := -1
	var least []string
	for _, id := range g.ids {
		played := g.Played(id)
		switch {
		case minPlayed < 0 || played < minPlayed:
			minPlayed = played
			least = least[:0]
			least = append(least, id)
		case played == minPlayed:
			least = append(least, id)
		}
	}
	primary := least[rng.Intn(len(least))]

	var inWindow, others []string
	for _, id := range g.ids {
		if id == primary {
			continue
		}
		gap := math.Abs(ratings[id] - ratings[primary])
		if gap <= opts.RatingWindow {
			inWindow = append(inWindow, id)
		}
		others = append(others, id)
	}

	pool := inWindow
	within := true
	if len(pool) == 0 {
		pool = others
		within = false
	}
	opponent := pool[rng.Intn(len(pool))]

	return &Matchup{
		TrackA:       primary,
		TrackB:       opponent,
		RatingGap:    math.Abs(ratings[opponent] - ratings[primary]),
		WithinWindow: within,
	}, nil
}
