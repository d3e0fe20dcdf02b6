// Package journal provides export functionality for the track ranking
// application. It flattens engine rankings into rows for CSV, JSON, and
// human-readable text output, and exports the comparison history as a
// tamper-evident JSON Lines trail.
package journal

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/pashagolub/trackelo/pkg/data"
	"github.com/pashagolub/trackelo/pkg/rank"
)

// ExportFormat represents the format for exporting results
type ExportFormat string

const (
	FormatCSV  ExportFormat = "csv"
	FormatJSON ExportFormat = "json"
	FormatText ExportFormat = "text"
)

// RankedRow is one line of a flattened ranking. In default mode every
// member of a tie group carries the group's shared rank; in scoring modes
// each row has its own position. Score is pre-formatted, "-" when the
// mode produced no score for the track.
type RankedRow struct {
	Rank   int    `json:"rank"`
	ID     string `json:"id"`
	Title  string `json:"title"`
	Artist string `json:"artist,omitempty"`
	Album  string `json:"album,omitempty"`
	Score  string `json:"score"`
	Wins   int    `json:"wins"`
	Losses int    `json:"losses"`
	Played int    `json:"played"`
}

// RankingExport is the complete JSON export payload
type RankingExport struct {
	Mode             string      `json:"mode"`
	ExportedAt       time.Time   `json:"exported_at"`
	TotalTracks      int         `json:"total_tracks"`
	TotalComparisons int         `json:"total_comparisons"`
	Degraded         bool        `json:"degraded,omitempty"`
	Rows             []RankedRow `json:"rankings"`
}

// Exporter flattens rankings and writes them in the configured format.
type Exporter struct {
	options data.ExportConfig
}

// NewExporter creates an exporter with the given output options.
func NewExporter(options data.ExportConfig) *Exporter {
	return &Exporter{options: options}
}

// BuildRows flattens a ranking into export rows. Track metadata is looked
// up from the catalog; win and loss tallies come from the comparison log.
// Rows keep the ranking's order.
func (e *Exporter) BuildRows(ranking *rank.Ranking, tracks []data.Track, comparisons []data.Comparison) []RankedRow {
	byID := make(map[string]data.Track, len(tracks))
	for _, t := range tracks {
		byID[t.ID] = t
	}

	wins := make(map[string]int)
	losses := make(map[string]int)
	for _, c := range comparisons {
		wins[c.WinnerID]++
		losses[c.LoserID]++
	}

	makeRow := func(rankNum int, id, score string) RankedRow {
		row := RankedRow{
			Rank:   rankNum,
			ID:     id,
			Title:  id,
			Score:  score,
			Wins:   wins[id],
			Losses: losses[id],
			Played: wins[id] + losses[id],
		}
		if track, ok := byID[id]; ok {
			row.Title = track.Title
			row.Artist = track.Artist
			row.Album = track.Album
		}
		return row
	}

	var rows []RankedRow

	if len(ranking.Groups) > 0 {
		// Default mode: members of a group share its competition rank
		position := 1
		for _, group := range ranking.Groups {
			for _, id := range group.TrackIDs {
				rows = append(rows, makeRow(position, id, "-"))
			}
			position += len(group.TrackIDs)
		}
		return rows
	}

	for i, scored := range ranking.Scores {
		score := "-"
		if scored.Scored {
			score = strconv.FormatFloat(scored.Score, 'f', e.options.RoundDecimals, 64)
		}
		rows = append(rows, makeRow(i+1, scored.ID, score))
	}

	return rows
}

// ExportToFile writes the ranking to a file in the configured format. The
// write goes through a temporary file and a rename so a failed export never
// leaves a truncated target behind.
func (e *Exporter) ExportToFile(ranking *rank.Ranking, tracks []data.Track, comparisons []data.Comparison, filePath string) error {
	dir := filepath.Dir(filePath)
	if dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	tempFile := filePath + ".tmp"
	file, err := os.Create(tempFile)
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	defer func() {
		_ = file.Close()
		if err != nil {
			_ = os.Remove(tempFile)
		}
	}()

	switch ExportFormat(e.options.Format) {
	case FormatCSV:
		err = e.ExportCSV(ranking, tracks, comparisons, file)
	case FormatJSON:
		err = e.ExportJSON(ranking, tracks, comparisons, file)
	case FormatText:
		err = e.ExportReport(ranking, tracks, comparisons, file)
	default:
		err = fmt.Errorf("unsupported export format: %s", e.options.Format)
	}
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	if err = file.Close(); err != nil {
		return fmt.Errorf("failed to close temporary file: %w", err)
	}

	if err = os.Rename(tempFile, filePath); err != nil {
		_ = os.Remove(tempFile)
		return fmt.Errorf("failed to replace target file: %w", err)
	}

	return nil
}

// ExportCSV writes the ranking as CSV rows.
func (e *Exporter) ExportCSV(ranking *rank.Ranking, tracks []data.Track, comparisons []data.Comparison, writer io.Writer) error {
	rows := e.BuildRows(ranking, tracks, comparisons)

	csvWriter := csv.NewWriter(writer)
	defer csvWriter.Flush()

	headers := []string{"rank", "id", "title"}
	if e.options.IncludeMeta {
		headers = append(headers, "artist", "album")
	}
	headers = append(headers, "score", "wins", "losses", "played")

	if err := csvWriter.Write(headers); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, row := range rows {
		record := []string{strconv.Itoa(row.Rank), row.ID, row.Title}
		if e.options.IncludeMeta {
			record = append(record, row.Artist, row.Album)
		}
		record = append(record,
			row.Score,
			strconv.Itoa(row.Wins),
			strconv.Itoa(row.Losses),
			strconv.Itoa(row.Played),
		)

		if err := csvWriter.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV record for track %s: %w", row.ID, err)
		}
	}

	return nil
}

// ExportJSON writes the ranking as an indented JSON document.
func (e *Exporter) ExportJSON(ranking *rank.Ranking, tracks []data.Track, comparisons []data.Comparison, writer io.Writer) error {
	export := &RankingExport{
		Mode:             string(ranking.Mode),
		ExportedAt:       time.Now().UTC(),
		TotalTracks:      len(tracks),
		TotalComparisons: len(comparisons),
		Degraded:         ranking.Degraded,
		Rows:             e.BuildRows(ranking, tracks, comparisons),
	}

	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(export); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}

	return nil
}

// ExportReport generates a human-readable text report of the ranking.
func (e *Exporter) ExportReport(ranking *rank.Ranking, tracks []data.Track, comparisons []data.Comparison, writer io.Writer) error {
	rows := e.BuildRows(ranking, tracks, comparisons)

	fmt.Fprintf(writer, "Track Ranking Report\n")
	fmt.Fprintf(writer, "====================\n\n")
	fmt.Fprintf(writer, "Mode: %s\n", ranking.Mode)
	fmt.Fprintf(writer, "Generated: %s\n", time.Now().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(writer, "Tracks: %d\n", len(tracks))
	fmt.Fprintf(writer, "Comparisons: %d\n", len(comparisons))

	if ranking.Degraded {
		fmt.Fprintf(writer, "\n⚠ Scores did not fully converge within the iteration cap.\n")
		fmt.Fprintf(writer, "  Results are the best available approximation.\n")
	}

	fmt.Fprintf(writer, "\nRankings\n")
	fmt.Fprintf(writer, "--------\n\n")

	for _, row := range rows {
		display := row.Title
		if row.Artist != "" {
			display = row.Artist + " - " + display
		}
		fmt.Fprintf(writer, "%3d. %s\n", row.Rank, display)

		if row.Score == "-" {
			if row.Played == 0 {
				fmt.Fprintf(writer, "     not yet compared\n")
			}
		} else {
			fmt.Fprintf(writer, "     Score: %s | Record: %d-%d\n", row.Score, row.Wins, row.Losses)
		}
	}

	if len(ranking.Groups) > 0 {
		shared := 0
		for _, group := range ranking.Groups {
			if len(group.TrackIDs) > 1 {
				shared++
			}
		}
		if shared > 0 {
			fmt.Fprintf(writer, "\n%d tie group(s): tracks sharing a rank could not be separated\n", shared)
			fmt.Fprintf(writer, "by the recorded comparisons.\n")
		}
	}

	return nil
}
