package journal

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteAndVerifyComparisonLog(t *testing.T) {
	t.Run("round trip verifies", func(t *testing.T) {
		comparisons := createTestComparisons("t1>t2", "t2>t3", "t1>t3")

		var buf bytes.Buffer
		require.NoError(t, WriteComparisonLog(comparisons, &buf))

		verified, err := VerifyComparisonLog(&buf)
		require.NoError(t, err)
		assert.Equal(t, 3, verified)
	})

	t.Run("empty log verifies as zero entries", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, WriteComparisonLog(nil, &buf))

		verified, err := VerifyComparisonLog(&buf)
		require.NoError(t, err)
		assert.Equal(t, 0, verified)
	})

	t.Run("entries chain in order", func(t *testing.T) {
		comparisons := createTestComparisons("t1>t2", "t2>t3")

		var buf bytes.Buffer
		require.NoError(t, WriteComparisonLog(comparisons, &buf))

		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		require.Len(t, lines, 2)
		assert.Contains(t, lines[0], `"previous_hash":""`)
		assert.Contains(t, lines[0], `"sequence":1`)
		assert.Contains(t, lines[1], `"sequence":2`)
	})
}

func TestVerifyComparisonLogDetectsTampering(t *testing.T) {
	t.Run("edited content", func(t *testing.T) {
		comparisons := createTestComparisons("t1>t2", "t2>t3")

		var buf bytes.Buffer
		require.NoError(t, WriteComparisonLog(comparisons, &buf))

		tampered := strings.Replace(buf.String(), `"winner_id":"t1"`, `"winner_id":"t9"`, 1)

		_, err := VerifyComparisonLog(strings.NewReader(tampered))
		assert.ErrorIs(t, err, ErrLogCorrupted)
	})

	t.Run("removed first entry", func(t *testing.T) {
		comparisons := createTestComparisons("t1>t2", "t2>t3")

		var buf bytes.Buffer
		require.NoError(t, WriteComparisonLog(comparisons, &buf))

		lines := strings.SplitN(buf.String(), "\n", 2)
		require.Len(t, lines, 2)

		_, err := VerifyComparisonLog(strings.NewReader(lines[1]))
		assert.ErrorIs(t, err, ErrLogCorrupted)
	})

	t.Run("garbage line", func(t *testing.T) {
		_, err := VerifyComparisonLog(strings.NewReader("not json at all"))
		assert.ErrorIs(t, err, ErrInvalidLogEntry)
	})
}

func TestExportComparisonCSV(t *testing.T) {
	comparisons := createTestComparisons("t1>t2", "t2>t3")

	var buf bytes.Buffer
	require.NoError(t, ExportComparisonCSV(comparisons, &buf))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, []string{"id", "winner_id", "loser_id", "created_at"}, records[0])
	assert.Equal(t, "c000", records[1][0])
	assert.Equal(t, "t1", records[1][1])
	assert.Equal(t, "t2", records[1][2])
	assert.Equal(t, "2025-03-01T12:00:00Z", records[1][3])
}

func TestSummarize(t *testing.T) {
	t.Run("aggregates records and coverage", func(t *testing.T) {
		comparisons := createTestComparisons("t1>t2", "t1>t3", "t2>t1")

		summary := Summarize([]string{"t1", "t2", "t3", "idle"}, comparisons)

		assert.Equal(t, 4, summary.TotalTracks)
		assert.Equal(t, 3, summary.ComparedTracks)
		assert.Equal(t, 3, summary.TotalComparisons)
		assert.InDelta(t, 0.75, summary.Coverage, 0.0001)

		assert.Equal(t, TrackRecord{Wins: 2, Losses: 1}, summary.PerTrack["t1"])
		assert.Equal(t, TrackRecord{Wins: 1, Losses: 1}, summary.PerTrack["t2"])
		assert.Equal(t, TrackRecord{Wins: 0, Losses: 1}, summary.PerTrack["t3"])
		assert.NotContains(t, summary.PerTrack, "idle")

		assert.Equal(t, exportTestTime, summary.FirstComparison)
		assert.Equal(t, exportTestTime.Add(2*time.Minute), summary.LastComparison)
	})

	t.Run("log participants extend the universe", func(t *testing.T) {
		summary := Summarize([]string{"t1"}, createTestComparisons("t1>stray"))

		assert.Equal(t, 2, summary.TotalTracks)
		assert.Equal(t, 2, summary.ComparedTracks)
		assert.InDelta(t, 1.0, summary.Coverage, 0.0001)
	})

	t.Run("empty history", func(t *testing.T) {
		summary := Summarize([]string{"t1", "t2"}, nil)

		assert.Equal(t, 2, summary.TotalTracks)
		assert.Equal(t, 0, summary.ComparedTracks)
		assert.Equal(t, 0.0, summary.Coverage)
		assert.True(t, summary.FirstComparison.IsZero())
		assert.Empty(t, summary.PerTrack)
	})
}
