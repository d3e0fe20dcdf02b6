package data

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Error types for comparison recording
var (
	ErrInvalidComparison = errors.New("invalid comparison")
)

// Comparison is a single pairwise preference result: the listener preferred
// WinnerID over LoserID at CreatedAt. Records are immutable once appended.
type Comparison struct {
	ID        string    `json:"id" yaml:"id"`
	WinnerID  string    `json:"winner_id" yaml:"winner_id"`
	LoserID   string    `json:"loser_id" yaml:"loser_id"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// ValidateOutcome checks a winner/loser id pair before it may enter the log.
// Both ids must be non-empty and distinct. A track never competes against
// itself.
func ValidateOutcome(winnerID, loserID string) error {
	if strings.TrimSpace(winnerID) == "" {
		return fmt.Errorf("%w: winner id is empty", ErrInvalidComparison)
	}
	if strings.TrimSpace(loserID) == "" {
		return fmt.Errorf("%w: loser id is empty", ErrInvalidComparison)
	}
	if winnerID == loserID {
		return fmt.Errorf("%w: track %q compared against itself", ErrInvalidComparison, winnerID)
	}
	return nil
}

// Log is an append-only in-memory comparison log. All methods are safe for
// concurrent use. Snapshots are deep copies: later appends never change a
// snapshot already handed out.
type Log struct {
	mu      sync.RWMutex
	records []Comparison
}

// NewLog creates an empty comparison log.
func NewLog() *Log {
	return &Log{}
}

// Append validates and appends one comparison result. The record id is
// generated, the timestamp is taken as given. Invalid outcomes return
// ErrInvalidComparison and leave the log untouched.
func (l *Log) Append(winnerID, loserID string, at time.Time) (Comparison, error) {
	if err := ValidateOutcome(winnerID, loserID); err != nil {
		return Comparison{}, err
	}

	c := Comparison{
		ID:        uuid.NewString(),
		WinnerID:  winnerID,
		LoserID:   loserID,
		CreatedAt: at,
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, c)

	return c, nil
}

// Snapshot returns a copy of the log ordered by timestamp, with insertion
// order breaking timestamp ties. The returned slice is owned by the caller.
func (l *Log) Snapshot() []Comparison {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Comparison, len(l.records))
	copy(out, l.records)

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})

	return out
}

// Len returns the number of recorded comparisons.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records)
}

// Counts returns how many comparisons each track id has participated in,
// wins and losses combined.
func (l *Log) Counts() map[string]int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	counts := make(map[string]int)
	for _, c := range l.records {
		counts[c.WinnerID]++
		counts[c.LoserID]++
	}
	return counts
}
