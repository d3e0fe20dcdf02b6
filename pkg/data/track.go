package data

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Error types for track validation and CSV import
var (
	ErrInvalidTrack = errors.New("invalid track")
	ErrDuplicateID  = errors.New("duplicate track ID")
	ErrCSVParsing   = errors.New("CSV parsing error")
)

// Track is one entry of the catalog being ranked. The ID is the stable
// identity used throughout the comparison log; metadata is display-only.
type Track struct {
	ID      string    `json:"id"`
	Title   string    `json:"title"`
	Artist  string    `json:"artist,omitempty"`
	Album   string    `json:"album,omitempty"`
	AddedAt time.Time `json:"added_at"`
}

// Validate checks that the track has the required fields.
func (t *Track) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return fmt.Errorf("%w: ID is required", ErrInvalidTrack)
	}
	if strings.TrimSpace(t.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidTrack)
	}
	return nil
}

// Display returns a single-line human readable description,
// "Artist - Title (Album)" with missing parts omitted.
func (t *Track) Display() string {
	title := strings.TrimSpace(t.Title)
	if title == "" {
		return t.ID
	}

	var b strings.Builder
	if artist := strings.TrimSpace(t.Artist); artist != "" {
		b.WriteString(artist)
		b.WriteString(" - ")
	}
	b.WriteString(title)
	if album := strings.TrimSpace(t.Album); album != "" {
		b.WriteString(" (")
		b.WriteString(album)
		b.WriteString(")")
	}
	return b.String()
}

// Catalog is an in-memory track collection with fast ID lookup.
type Catalog struct {
	Tracks  []Track        `json:"tracks"`
	idIndex map[string]int // internal index for fast ID lookups
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		Tracks:  make([]Track, 0),
		idIndex: make(map[string]int),
	}
}

// Add inserts a track, rejecting duplicates and invalid entries.
func (c *Catalog) Add(track Track) error {
	if err := track.Validate(); err != nil {
		return err
	}

	if _, exists := c.idIndex[track.ID]; exists {
		return fmt.Errorf("%w: ID '%s' already exists", ErrDuplicateID, track.ID)
	}

	c.idIndex[track.ID] = len(c.Tracks)
	c.Tracks = append(c.Tracks, track)

	return nil
}

// Get retrieves a track by its ID.
func (c *Catalog) Get(id string) (*Track, bool) {
	index, exists := c.idIndex[id]
	if !exists || index >= len(c.Tracks) {
		return nil, false
	}
	return &c.Tracks[index], true
}

// Count returns the number of tracks in the catalog.
func (c *Catalog) Count() int {
	return len(c.Tracks)
}

// IDs returns all track IDs sorted ascending.
func (c *Catalog) IDs() []string {
	ids := make([]string, len(c.Tracks))
	for i, track := range c.Tracks {
		ids[i] = track.ID
	}
	sort.Strings(ids)
	return ids
}

// TrackParseResult contains the result of parsing track CSV data
type TrackParseResult struct {
	Tracks         []Track            `json:"tracks"`
	ParseErrors    []TrackParseError  `json:"parse_errors,omitempty"`
	SkippedRows    []int              `json:"skipped_rows,omitempty"`
	TotalRows      int                `json:"total_rows"`
	SuccessfulRows int                `json:"successful_rows"`
	Metadata       TrackParseMetadata `json:"metadata"`
}

// TrackParseError represents an error encountered while parsing a CSV row
type TrackParseError struct {
	RowNumber int    `json:"row_number"`
	Field     string `json:"field"`
	Value     string `json:"value"`
	Message   string `json:"error"`
}

// Error implements the error interface
func (e TrackParseError) Error() string {
	return fmt.Sprintf("row %d, field '%s' (value: '%s'): %s", e.RowNumber, e.Field, e.Value, e.Message)
}

// TrackParseMetadata contains information about the CSV parsing process
type TrackParseMetadata struct {
	Headers         []string       `json:"headers"`
	DetectedColumns map[string]int `json:"detected_columns"`
	UnmappedColumns []string       `json:"unmapped_columns"`
	ParsedAt        time.Time      `json:"parsed_at"`
}

// ParseTracksFromReader parses tracks from a CSV reader using the given
// configuration. Malformed rows are collected as parse errors rather than
// aborting the import; duplicated ids within the file are reported per row.
func ParseTracksFromReader(reader io.Reader, csvConfig CSVConfig) (*TrackParseResult, error) {
	csvReader := csv.NewReader(reader)
	if csvConfig.Delimiter != "" {
		csvReader.Comma = rune(csvConfig.Delimiter[0])
	}
	csvReader.LazyQuotes = true
	csvReader.TrimLeadingSpace = true

	result := &TrackParseResult{
		Tracks:      make([]Track, 0),
		ParseErrors: make([]TrackParseError, 0),
		SkippedRows: make([]int, 0),
		Metadata: TrackParseMetadata{
			DetectedColumns: make(map[string]int),
			UnmappedColumns: make([]string, 0),
			ParsedAt:        time.Now().UTC(),
		},
	}

	seen := make(map[string]bool)
	var headers []string
	var columnMap map[string]int
	rowNumber := 0

	for {
		record, err := csvReader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: failed to read CSV: %v", ErrCSVParsing, err)
		}

		rowNumber++
		result.TotalRows++

		// Handle header row
		if rowNumber == 1 && csvConfig.HasHeader {
			headers = record
			result.Metadata.Headers = headers
			columnMap = buildTrackColumnMap(headers, csvConfig)
			result.Metadata.DetectedColumns = columnMap
			result.Metadata.UnmappedColumns = findUnmappedTrackColumns(headers, csvConfig)
			result.TotalRows--
			continue
		}

		// Initialize column map for no-header CSV with numeric indices
		if columnMap == nil {
			columnMap = buildTrackColumnMapFromIndices(csvConfig, len(record))
		}

		track, parseErrors := parseTrackRow(record, columnMap, rowNumber)
		if len(parseErrors) > 0 {
			result.ParseErrors = append(result.ParseErrors, parseErrors...)
			result.SkippedRows = append(result.SkippedRows, rowNumber)
			continue
		}

		if seen[track.ID] {
			result.ParseErrors = append(result.ParseErrors, TrackParseError{
				RowNumber: rowNumber,
				Field:     "id",
				Value:     track.ID,
				Message:   "duplicate track ID in file",
			})
			result.SkippedRows = append(result.SkippedRows, rowNumber)
			continue
		}
		seen[track.ID] = true

		result.Tracks = append(result.Tracks, *track)
		result.SuccessfulRows++
	}

	return result, nil
}

// buildTrackColumnMap creates a mapping from CSV column names to their indices
func buildTrackColumnMap(headers []string, csvConfig CSVConfig) map[string]int {
	columnMap := make(map[string]int)

	for i, header := range headers {
		header = strings.TrimSpace(header)
		switch {
		case header == csvConfig.IDColumn:
			columnMap["id"] = i
		case header == csvConfig.TitleColumn:
			columnMap["title"] = i
		case header == csvConfig.ArtistColumn && csvConfig.ArtistColumn != "":
			columnMap["artist"] = i
		case header == csvConfig.AlbumColumn && csvConfig.AlbumColumn != "":
			columnMap["album"] = i
		}
	}

	return columnMap
}

// buildTrackColumnMapFromIndices creates a mapping using numeric column indices
func buildTrackColumnMapFromIndices(csvConfig CSVConfig, numColumns int) map[string]int {
	columnMap := make(map[string]int)

	if idx, err := strconv.Atoi(csvConfig.IDColumn); err == nil && idx >= 0 && idx < numColumns {
		columnMap["id"] = idx
	}
	if idx, err := strconv.Atoi(csvConfig.TitleColumn); err == nil && idx >= 0 && idx < numColumns {
		columnMap["title"] = idx
	}
	if csvConfig.ArtistColumn != "" {
		if idx, err := strconv.Atoi(csvConfig.ArtistColumn); err == nil && idx >= 0 && idx < numColumns {
			columnMap["artist"] = idx
		}
	}
	if csvConfig.AlbumColumn != "" {
		if idx, err := strconv.Atoi(csvConfig.AlbumColumn); err == nil && idx >= 0 && idx < numColumns {
			columnMap["album"] = idx
		}
	}

	return columnMap
}

// findUnmappedTrackColumns identifies CSV columns not mapped to track fields
func findUnmappedTrackColumns(headers []string, csvConfig CSVConfig) []string {
	mappedColumns := map[string]bool{
		csvConfig.IDColumn:    true,
		csvConfig.TitleColumn: true,
	}
	if csvConfig.ArtistColumn != "" {
		mappedColumns[csvConfig.ArtistColumn] = true
	}
	if csvConfig.AlbumColumn != "" {
		mappedColumns[csvConfig.AlbumColumn] = true
	}

	unmapped := make([]string, 0)
	for _, header := range headers {
		header = strings.TrimSpace(header)
		if !mappedColumns[header] && header != "" {
			unmapped = append(unmapped, header)
		}
	}

	return unmapped
}

// parseTrackRow parses a single CSV row into a Track
func parseTrackRow(record []string, columnMap map[string]int, rowNumber int) (*Track, []TrackParseError) {
	var parseErrors []TrackParseError

	getColumn := func(field string) string {
		if index, exists := columnMap[field]; exists && index < len(record) {
			return strings.TrimSpace(record[index])
		}
		return ""
	}

	id := getColumn("id")
	title := getColumn("title")

	if id == "" {
		parseErrors = append(parseErrors, TrackParseError{
			RowNumber: rowNumber,
			Field:     "id",
			Value:     id,
			Message:   "ID is required",
		})
	}

	if title == "" {
		parseErrors = append(parseErrors, TrackParseError{
			RowNumber: rowNumber,
			Field:     "title",
			Value:     title,
			Message:   "title is required",
		})
	}

	if len(parseErrors) > 0 {
		return nil, parseErrors
	}

	return &Track{
		ID:      id,
		Title:   title,
		Artist:  getColumn("artist"),
		Album:   getColumn("album"),
		AddedAt: time.Now().UTC(),
	}, nil
}
