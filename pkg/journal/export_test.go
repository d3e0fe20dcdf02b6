package journal

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pashagolub/trackelo/pkg/data"
	"github.com/pashagolub/trackelo/pkg/rank"
)

var exportTestTime = time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)

func createTestCatalog() []data.Track {
	return []data.Track{
		{ID: "t1", Title: "First Song", Artist: "Alpha", Album: "Debut"},
		{ID: "t2", Title: "Second Song", Artist: "Beta"},
		{ID: "t3", Title: "Third Song"},
	}
}

func createTestComparisons(results ...string) []data.Comparison {
	comparisons := make([]data.Comparison, 0, len(results))
	for i, r := range results {
		parts := strings.SplitN(r, ">", 2)
		comparisons = append(comparisons, data.Comparison{
			ID:        fmt.Sprintf("c%03d", i),
			WinnerID:  parts[0],
			LoserID:   parts[1],
			CreatedAt: exportTestTime.Add(time.Duration(i) * time.Minute),
		})
	}
	return comparisons
}

func rankForTest(t *testing.T, mode rank.Mode, ids []string, comparisons []data.Comparison) *rank.Ranking {
	t.Helper()

	ranker, err := rank.NewRanker(rank.DefaultOptions())
	require.NoError(t, err)

	ranking, err := ranker.Rank(mode, ids, comparisons)
	require.NoError(t, err)
	return ranking
}

func TestBuildRows(t *testing.T) {
	exporter := NewExporter(data.DefaultExportConfig())

	t.Run("scoring mode rows carry scores and tallies", func(t *testing.T) {
		comparisons := createTestComparisons("t1>t2")
		ranking := rankForTest(t, rank.ModeElo, []string{"t1", "t2", "t3"}, comparisons)

		rows := exporter.BuildRows(ranking, createTestCatalog(), comparisons)
		require.Len(t, rows, 3)

		assert.Equal(t, 1, rows[0].Rank)
		assert.Equal(t, "t1", rows[0].ID)
		assert.Equal(t, "First Song", rows[0].Title)
		assert.Equal(t, "Alpha", rows[0].Artist)
		assert.Equal(t, "1516.00", rows[0].Score)
		assert.Equal(t, 1, rows[0].Wins)
		assert.Equal(t, 0, rows[0].Losses)
		assert.Equal(t, 1, rows[0].Played)

		assert.Equal(t, 2, rows[1].Rank)
		assert.Equal(t, "1500.00", rows[1].Score)
		assert.Equal(t, 0, rows[1].Played)

		assert.Equal(t, 3, rows[2].Rank)
		assert.Equal(t, "1484.00", rows[2].Score)
	})

	t.Run("tie group members share a rank", func(t *testing.T) {
		comparisons := createTestComparisons("t1>t2", "t2>t1", "t1>t3")
		ranking := rankForTest(t, rank.ModeDefault, nil, comparisons)

		rows := exporter.BuildRows(ranking, createTestCatalog(), comparisons)
		require.Len(t, rows, 3)

		assert.Equal(t, 1, rows[0].Rank)
		assert.Equal(t, 1, rows[1].Rank)
		assert.Equal(t, 3, rows[2].Rank)
		assert.Equal(t, "t3", rows[2].ID)

		for _, row := range rows {
			assert.Equal(t, "-", row.Score)
		}
	})

	t.Run("absent scores render as dash", func(t *testing.T) {
		comparisons := createTestComparisons("t1>t2")
		ranking := rankForTest(t, rank.ModeBradleyTerry, []string{"t1", "t2", "t3"}, comparisons)

		rows := exporter.BuildRows(ranking, createTestCatalog(), comparisons)
		require.Len(t, rows, 3)
		assert.Equal(t, "t3", rows[2].ID)
		assert.Equal(t, "-", rows[2].Score)
	})

	t.Run("unknown catalog id falls back to the id itself", func(t *testing.T) {
		comparisons := createTestComparisons("ghost>t1")
		ranking := rankForTest(t, rank.ModeBestFit, nil, comparisons)

		rows := exporter.BuildRows(ranking, createTestCatalog(), comparisons)
		require.Len(t, rows, 2)
		assert.Equal(t, "ghost", rows[0].Title)
	})
}

func TestExportCSV(t *testing.T) {
	t.Run("with metadata columns", func(t *testing.T) {
		exporter := NewExporter(data.DefaultExportConfig())
		comparisons := createTestComparisons("t1>t2")
		ranking := rankForTest(t, rank.ModeElo, nil, comparisons)

		var buf bytes.Buffer
		require.NoError(t, exporter.ExportCSV(ranking, createTestCatalog(), comparisons, &buf))

		records, err := csv.NewReader(&buf).ReadAll()
		require.NoError(t, err)
		require.Len(t, records, 3)

		assert.Equal(t, []string{"rank", "id", "title", "artist", "album", "score", "wins", "losses", "played"}, records[0])
		assert.Equal(t, []string{"1", "t1", "First Song", "Alpha", "Debut", "1516.00", "1", "0", "1"}, records[1])
		assert.Equal(t, []string{"2", "t2", "Second Song", "Beta", "", "1484.00", "0", "1", "1"}, records[2])
	})

	t.Run("without metadata columns", func(t *testing.T) {
		options := data.DefaultExportConfig()
		options.IncludeMeta = false
		options.RoundDecimals = 0
		exporter := NewExporter(options)

		comparisons := createTestComparisons("t1>t2")
		ranking := rankForTest(t, rank.ModeElo, nil, comparisons)

		var buf bytes.Buffer
		require.NoError(t, exporter.ExportCSV(ranking, createTestCatalog(), comparisons, &buf))

		records, err := csv.NewReader(&buf).ReadAll()
		require.NoError(t, err)
		assert.Equal(t, []string{"rank", "id", "title", "score", "wins", "losses", "played"}, records[0])
		assert.Equal(t, "1516", records[1][3])
	})
}

func TestExportJSON(t *testing.T) {
	exporter := NewExporter(data.DefaultExportConfig())
	comparisons := createTestComparisons("t1>t2", "t2>t3")
	ranking := rankForTest(t, rank.ModeBestFit, nil, comparisons)

	var buf bytes.Buffer
	require.NoError(t, exporter.ExportJSON(ranking, createTestCatalog(), comparisons, &buf))

	var export RankingExport
	require.NoError(t, json.Unmarshal(buf.Bytes(), &export))

	assert.Equal(t, "best-fit", export.Mode)
	assert.Equal(t, 3, export.TotalTracks)
	assert.Equal(t, 2, export.TotalComparisons)
	assert.False(t, export.Degraded)
	require.Len(t, export.Rows, 3)
	assert.Equal(t, "t1", export.Rows[0].ID)
	assert.False(t, export.ExportedAt.IsZero())
}

func TestExportReport(t *testing.T) {
	t.Run("scored ranking", func(t *testing.T) {
		exporter := NewExporter(data.DefaultExportConfig())
		comparisons := createTestComparisons("t1>t2")
		ranking := rankForTest(t, rank.ModeElo, []string{"t1", "t2", "t3"}, comparisons)

		var buf bytes.Buffer
		require.NoError(t, exporter.ExportReport(ranking, createTestCatalog(), comparisons, &buf))
		report := buf.String()

		assert.Contains(t, report, "Track Ranking Report")
		assert.Contains(t, report, "Mode: elo")
		assert.Contains(t, report, "Alpha - First Song")
		assert.Contains(t, report, "Score: 1516.00 | Record: 1-0")
		assert.NotContains(t, report, "⚠")
	})

	t.Run("tie groups and degraded warning", func(t *testing.T) {
		exporter := NewExporter(data.DefaultExportConfig())
		comparisons := createTestComparisons("t1>t2", "t2>t1")
		ranking := rankForTest(t, rank.ModeDefault, nil, comparisons)
		ranking.Degraded = true

		var buf bytes.Buffer
		require.NoError(t, exporter.ExportReport(ranking, createTestCatalog(), comparisons, &buf))
		report := buf.String()

		assert.Contains(t, report, "tie group")
		assert.Contains(t, report, "⚠")
	})

	t.Run("uncompared track note", func(t *testing.T) {
		exporter := NewExporter(data.DefaultExportConfig())
		ranking := rankForTest(t, rank.ModeBradleyTerry, []string{"t1", "t2", "t3"}, createTestComparisons("t1>t2"))

		var buf bytes.Buffer
		require.NoError(t, exporter.ExportReport(ranking, createTestCatalog(), createTestComparisons("t1>t2"), &buf))

		assert.Contains(t, buf.String(), "not yet compared")
	})
}

func TestExportToFile(t *testing.T) {
	t.Run("writes the target atomically", func(t *testing.T) {
		exporter := NewExporter(data.DefaultExportConfig())
		comparisons := createTestComparisons("t1>t2")
		ranking := rankForTest(t, rank.ModeElo, nil, comparisons)

		path := filepath.Join(t.TempDir(), "out", "ranking.csv")
		require.NoError(t, exporter.ExportToFile(ranking, createTestCatalog(), comparisons, path))

		content, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(content), "rank,id,title")

		_, err = os.Stat(path + ".tmp")
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("unsupported format fails", func(t *testing.T) {
		options := data.DefaultExportConfig()
		options.Format = "yaml"
		exporter := NewExporter(options)

		comparisons := createTestComparisons("t1>t2")
		ranking := rankForTest(t, rank.ModeElo, nil, comparisons)

		path := filepath.Join(t.TempDir(), "ranking.yaml")
		err := exporter.ExportToFile(ranking, createTestCatalog(), comparisons, path)
		assert.Error(t, err)

		_, statErr := os.Stat(path)
		assert.True(t, os.IsNotExist(statErr))
	})
}
