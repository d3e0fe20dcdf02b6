package journal

import (
	"bufio"
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/pashagolub/trackelo/pkg/data"
)

// Error types for comparison log export and verification
var (
	ErrLogCorrupted    = errors.New("comparison log corrupted or tampered")
	ErrInvalidLogEntry = errors.New("invalid log entry format")
)

// LogEntry is one line of the JSON Lines comparison trail. Each entry
// carries the hash of its predecessor, so any edit or reordering of the
// exported file breaks the chain.
type LogEntry struct {
	Sequence     uint64    `json:"sequence"`      // Sequential entry number, starting at 1
	ComparisonID string    `json:"comparison_id"` // Original comparison record id
	WinnerID     string    `json:"winner_id"`     // Preferred track
	LoserID      string    `json:"loser_id"`      // Rejected track
	CreatedAt    time.Time `json:"created_at"`    // When the comparison happened
	PreviousHash string    `json:"previous_hash"` // Hash of the previous entry, empty for the first
	EntryHash    string    `json:"entry_hash"`    // Hash of this entry's content
}

// computeEntryHash derives the tamper-evident hash over the entry content
// and the previous hash.
func computeEntryHash(entry LogEntry) string {
	payload := strings.Join([]string{
		strconv.FormatUint(entry.Sequence, 10),
		entry.ComparisonID,
		entry.WinnerID,
		entry.LoserID,
		entry.CreatedAt.UTC().Format(time.RFC3339Nano),
		entry.PreviousHash,
	}, "|")

	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}

// WriteComparisonLog writes the comparison history as hash-chained JSON
// Lines. The input order is preserved; it should be the store's snapshot
// order.
func WriteComparisonLog(comparisons []data.Comparison, writer io.Writer) error {
	encoder := json.NewEncoder(writer)

	previousHash := ""
	for i, c := range comparisons {
		entry := LogEntry{
			Sequence:     uint64(i + 1),
			ComparisonID: c.ID,
			WinnerID:     c.WinnerID,
			LoserID:      c.LoserID,
			CreatedAt:    c.CreatedAt,
			PreviousHash: previousHash,
		}
		entry.EntryHash = computeEntryHash(entry)

		if err := encoder.Encode(entry); err != nil {
			return fmt.Errorf("failed to encode log entry %d: %w", entry.Sequence, err)
		}
		previousHash = entry.EntryHash
	}

	return nil
}

// VerifyComparisonLog checks the hash chain of an exported comparison log
// and returns the number of verified entries.
func VerifyComparisonLog(reader io.Reader) (int, error) {
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	previousHash := ""
	var expectedSequence uint64 = 1
	verified := 0

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var entry LogEntry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			return verified, fmt.Errorf("%w: line %d: %v", ErrInvalidLogEntry, verified+1, err)
		}

		if entry.Sequence != expectedSequence {
			return verified, fmt.Errorf("%w: entry %d has sequence %d", ErrLogCorrupted, expectedSequence, entry.Sequence)
		}
		if entry.PreviousHash != previousHash {
			return verified, fmt.Errorf("%w: entry %d chain mismatch", ErrLogCorrupted, entry.Sequence)
		}
		if computeEntryHash(entry) != entry.EntryHash {
			return verified, fmt.Errorf("%w: entry %d content hash mismatch", ErrLogCorrupted, entry.Sequence)
		}

		previousHash = entry.EntryHash
		expectedSequence++
		verified++
	}

	if err := scanner.Err(); err != nil {
		return verified, fmt.Errorf("failed to read comparison log: %w", err)
	}

	return verified, nil
}

// ExportComparisonCSV writes the comparison history as plain CSV.
func ExportComparisonCSV(comparisons []data.Comparison, writer io.Writer) error {
	csvWriter := csv.NewWriter(writer)
	defer csvWriter.Flush()

	if err := csvWriter.Write([]string{"id", "winner_id", "loser_id", "created_at"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, c := range comparisons {
		record := []string{c.ID, c.WinnerID, c.LoserID, c.CreatedAt.UTC().Format(time.RFC3339)}
		if err := csvWriter.Write(record); err != nil {
			return fmt.Errorf("failed to write comparison %s: %w", c.ID, err)
		}
	}

	return nil
}

// TrackRecord is one track's tally within a Summary.
type TrackRecord struct {
	Wins   int `json:"wins"`
	Losses int `json:"losses"`
}

// Summary aggregates the comparison history against the known catalog.
type Summary struct {
	TotalTracks      int                    `json:"total_tracks"`
	ComparedTracks   int                    `json:"compared_tracks"`
	TotalComparisons int                    `json:"total_comparisons"`
	Coverage         float64                `json:"coverage"` // Share of the catalog with at least one comparison
	FirstComparison  time.Time              `json:"first_comparison,omitempty"`
	LastComparison   time.Time              `json:"last_comparison,omitempty"`
	PerTrack         map[string]TrackRecord `json:"per_track,omitempty"`
}

// Summarize computes coverage statistics over the comparison history.
// Tracks appearing only in the log still count toward the totals.
func Summarize(trackIDs []string, comparisons []data.Comparison) Summary {
	known := make(map[string]bool, len(trackIDs))
	for _, id := range trackIDs {
		if id != "" {
			known[id] = true
		}
	}

	perTrack := make(map[string]TrackRecord)
	for _, c := range comparisons {
		known[c.WinnerID] = true
		known[c.LoserID] = true

		w := perTrack[c.WinnerID]
		w.Wins++
		perTrack[c.WinnerID] = w

		l := perTrack[c.LoserID]
		l.Losses++
		perTrack[c.LoserID] = l
	}

	summary := Summary{
		TotalTracks:      len(known),
		ComparedTracks:   len(perTrack),
		TotalComparisons: len(comparisons),
		PerTrack:         perTrack,
	}

	if summary.TotalTracks > 0 {
		summary.Coverage = float64(summary.ComparedTracks) / float64(summary.TotalTracks)
	}

	if len(comparisons) > 0 {
		first, last := comparisons[0].CreatedAt, comparisons[0].CreatedAt
		for _, c := range comparisons[1:] {
			if c.CreatedAt.Before(first) {
				first = c.CreatedAt
			}
			if c.CreatedAt.After(last) {
				last = c.CreatedAt
			}
		}
		summary.FirstComparison = first
		summary.LastComparison = last
	}

	return summary
}
