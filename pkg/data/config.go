// Package data provides the comparison log, track catalog, and configuration
// for the trackelo application. It owns the SQLite persistence layer, CSV
// track import with configurable formats, and validation of every comparison
// before it enters the log.
package data

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Error types for configuration validation
var (
	ErrInvalidDatabaseConfig = errors.New("invalid database configuration")
	ErrInvalidCSVConfig      = errors.New("invalid CSV configuration")
	ErrInvalidEloConfig      = errors.New("invalid Elo configuration")
	ErrInvalidBTConfig       = errors.New("invalid Bradley-Terry configuration")
	ErrInvalidMatchupConfig  = errors.New("invalid matchup configuration")
	ErrInvalidExportConfig   = errors.New("invalid export configuration")
	ErrConfigNotFound        = errors.New("configuration file not found")
	ErrConfigParseError      = errors.New("failed to parse configuration file")
)

// Config is the top-level configuration for trackelo
type Config struct {
	Database     DatabaseConfig     `yaml:"database" json:"database"`
	CSV          CSVConfig          `yaml:"csv" json:"csv"`
	Elo          EloConfig          `yaml:"elo" json:"elo"`
	BradleyTerry BradleyTerryConfig `yaml:"bradley_terry" json:"bradley_terry"`
	Matchup      MatchupConfig      `yaml:"matchup" json:"matchup"`
	Export       ExportConfig       `yaml:"export" json:"export"`
}

// DatabaseConfig locates the SQLite database holding tracks and comparisons
type DatabaseConfig struct {
	Path    string `yaml:"path" json:"path"`         // SQLite database file (default trackelo.db)
	LogFile string `yaml:"log_file" json:"log_file"` // Log destination while the TUI owns the terminal
}

// CSVConfig defines how to parse track catalog CSV files
type CSVConfig struct {
	IDColumn     string `yaml:"id_column" json:"id_column"`         // Column name for track ID (required)
	TitleColumn  string `yaml:"title_column" json:"title_column"`   // Column name for title (required)
	ArtistColumn string `yaml:"artist_column" json:"artist_column"` // Column name for artist (optional)
	AlbumColumn  string `yaml:"album_column" json:"album_column"`   // Column name for album (optional)
	HasHeader    bool   `yaml:"has_header" json:"has_header"`       // Whether CSV has header row
	Delimiter    string `yaml:"delimiter" json:"delimiter"`         // CSV field separator (default comma)
}

// EloConfig holds settings for the Elo scoring mode
type EloConfig struct {
	InitialRating float64 `yaml:"initial_rating" json:"initial_rating"` // Starting rating for new tracks (default 1500)
	KFactor       int     `yaml:"k_factor" json:"k_factor"`             // Rating change sensitivity (default 32)
}

// BradleyTerryConfig holds settings for the Bradley-Terry scoring mode
type BradleyTerryConfig struct {
	Tolerance     float64 `yaml:"tolerance" json:"tolerance"`           // Convergence threshold on relative strength change (default 1e-6)
	MaxIterations int     `yaml:"max_iterations" json:"max_iterations"` // Hard cap on MM iterations (default 1000)
}

// MatchupConfig holds settings for next-pair selection
type MatchupConfig struct {
	RatingWindow float64 `yaml:"rating_window" json:"rating_window"` // Preferred opponent rating distance (default 250)
}

// ExportConfig holds output format settings for ranking exports
type ExportConfig struct {
	Format        string `yaml:"format" json:"format"`                 // Output format (csv/json/text)
	IncludeMeta   bool   `yaml:"include_meta" json:"include_meta"`     // Include artist/album columns in exports
	RoundDecimals int    `yaml:"round_decimals" json:"round_decimals"` // Decimal places for scores
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() Config {
	return Config{
		Database:     DefaultDatabaseConfig(),
		CSV:          DefaultCSVConfig(),
		Elo:          DefaultEloConfig(),
		BradleyTerry: DefaultBradleyTerryConfig(),
		Matchup:      DefaultMatchupConfig(),
		Export:       DefaultExportConfig(),
	}
}

// DefaultDatabaseConfig returns database location defaults
func DefaultDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		Path:    "trackelo.db",
		LogFile: "trackelo.log",
	}
}

// DefaultCSVConfig returns CSV parsing defaults
func DefaultCSVConfig() CSVConfig {
	return CSVConfig{
		IDColumn:     "id",
		TitleColumn:  "title",
		ArtistColumn: "artist",
		AlbumColumn:  "album",
		HasHeader:    true,
		Delimiter:    ",",
	}
}

// DefaultEloConfig returns Elo scoring defaults
func DefaultEloConfig() EloConfig {
	return EloConfig{
		InitialRating: 1500.0,
		KFactor:       32,
	}
}

// DefaultBradleyTerryConfig returns Bradley-Terry iteration defaults
func DefaultBradleyTerryConfig() BradleyTerryConfig {
	return BradleyTerryConfig{
		Tolerance:     1e-6,
		MaxIterations: 1000,
	}
}

// DefaultMatchupConfig returns next-pair selection defaults
func DefaultMatchupConfig() MatchupConfig {
	return MatchupConfig{
		RatingWindow: 250.0,
	}
}

// DefaultExportConfig returns export format defaults
func DefaultExportConfig() ExportConfig {
	return ExportConfig{
		Format:        "csv",
		IncludeMeta:   true,
		RoundDecimals: 2,
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if err := c.Database.Validate(); err != nil {
		return fmt.Errorf("database config validation failed: %w", err)
	}

	if err := c.CSV.Validate(); err != nil {
		return fmt.Errorf("CSV config validation failed: %w", err)
	}

	if err := c.Elo.Validate(); err != nil {
		return fmt.Errorf("Elo config validation failed: %w", err)
	}

	if err := c.BradleyTerry.Validate(); err != nil {
		return fmt.Errorf("Bradley-Terry config validation failed: %w", err)
	}

	if err := c.Matchup.Validate(); err != nil {
		return fmt.Errorf("matchup config validation failed: %w", err)
	}

	if err := c.Export.Validate(); err != nil {
		return fmt.Errorf("export config validation failed: %w", err)
	}

	return nil
}

// Validate checks that the database configuration is valid
func (d *DatabaseConfig) Validate() error {
	if strings.TrimSpace(d.Path) == "" {
		return fmt.Errorf("%w: path is required", ErrInvalidDatabaseConfig)
	}

	return nil
}

// Validate checks that CSV configuration is valid
func (c *CSVConfig) Validate() error {
	// Required columns
	if strings.TrimSpace(c.IDColumn) == "" {
		return fmt.Errorf("%w: id_column is required", ErrInvalidCSVConfig)
	}

	if strings.TrimSpace(c.TitleColumn) == "" {
		return fmt.Errorf("%w: title_column is required", ErrInvalidCSVConfig)
	}

	// Check for duplicate column names (only for non-empty columns)
	columns := make(map[string]bool)
	columnNames := []struct {
		name  string
		field string
	}{
		{c.IDColumn, "id_column"},
		{c.TitleColumn, "title_column"},
		{c.ArtistColumn, "artist_column"},
		{c.AlbumColumn, "album_column"},
	}

	for _, col := range columnNames {
		if col.name != "" {
			if columns[col.name] {
				return fmt.Errorf("%w: duplicate column name '%s' in field %s", ErrInvalidCSVConfig, col.name, col.field)
			}
			columns[col.name] = true
		}
	}

	// Validate delimiter
	if c.Delimiter == "" {
		return fmt.Errorf("%w: delimiter cannot be empty", ErrInvalidCSVConfig)
	}

	// Common CSV delimiters
	validDelimiters := map[string]bool{
		",": true, ";": true, "\t": true, "|": true,
	}

	if !validDelimiters[c.Delimiter] {
		return fmt.Errorf("%w: delimiter '%s' is not a common CSV separator", ErrInvalidCSVConfig, c.Delimiter)
	}

	return nil
}

// Validate checks that Elo configuration is valid
func (e *EloConfig) Validate() error {
	if e.KFactor <= 0 {
		return fmt.Errorf("%w: k_factor must be positive, got %d", ErrInvalidEloConfig, e.KFactor)
	}

	if e.KFactor > 100 {
		return fmt.Errorf("%w: k_factor %d is unusually high (typical range: 10-50)", ErrInvalidEloConfig, e.KFactor)
	}

	if e.InitialRating <= 0 {
		return fmt.Errorf("%w: initial_rating must be positive, got %.2f", ErrInvalidEloConfig, e.InitialRating)
	}

	return nil
}

// Validate checks that Bradley-Terry configuration is valid
func (b *BradleyTerryConfig) Validate() error {
	if b.Tolerance <= 0 {
		return fmt.Errorf("%w: tolerance must be positive, got %g", ErrInvalidBTConfig, b.Tolerance)
	}

	if b.MaxIterations <= 0 {
		return fmt.Errorf("%w: max_iterations must be positive, got %d", ErrInvalidBTConfig, b.MaxIterations)
	}

	return nil
}

// Validate checks that matchup configuration is valid
func (m *MatchupConfig) Validate() error {
	if m.RatingWindow <= 0 {
		return fmt.Errorf("%w: rating_window must be positive, got %.2f", ErrInvalidMatchupConfig, m.RatingWindow)
	}

	return nil
}

// Validate checks that export configuration is valid
func (e *ExportConfig) Validate() error {
	validFormats := map[string]bool{
		"csv":  true,
		"json": true,
		"text": true,
	}

	if !validFormats[e.Format] {
		return fmt.Errorf("%w: format '%s' must be one of: csv, json, text", ErrInvalidExportConfig, e.Format)
	}

	if e.RoundDecimals < 0 || e.RoundDecimals > 10 {
		return fmt.Errorf("%w: round_decimals %d must be between 0 and 10", ErrInvalidExportConfig, e.RoundDecimals)
	}

	return nil
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(filename string) (*Config, error) {
	raw, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, filename)
		}
		return nil, fmt.Errorf("failed to read config file %s: %w", filename, err)
	}

	var config Config
	if err := yaml.Unmarshal(raw, &config); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrConfigParseError, filename, err)
	}

	// Apply defaults for missing values
	config = mergeWithDefaults(config)

	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration in %s: %w", filename, err)
	}

	return &config, nil
}

// LoadWithEnvironment loads configuration from file and applies environment variable overrides
func LoadWithEnvironment(filename string) (*Config, error) {
	// Start with defaults
	config := DefaultConfig()

	// Load from file if it exists
	if filename != "" {
		fileConfig, err := LoadFromFile(filename)
		if err != nil && !errors.Is(err, ErrConfigNotFound) {
			return nil, err
		}
		if err == nil {
			config = *fileConfig
		}
	}

	// Apply environment variable overrides
	applyEnvironmentOverrides(&config)

	// Validate final configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid final configuration: %w", err)
	}

	return &config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(filename string) error {
	raw, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, raw, 0644); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", filename, err)
	}

	return nil
}

// mergeWithDefaults fills in missing values with defaults
func mergeWithDefaults(config Config) Config {
	defaults := DefaultConfig()

	// Merge database config
	if config.Database.Path == "" {
		config.Database.Path = defaults.Database.Path
	}
	if config.Database.LogFile == "" {
		config.Database.LogFile = defaults.Database.LogFile
	}

	// Merge CSV config
	if config.CSV.IDColumn == "" {
		config.CSV.IDColumn = defaults.CSV.IDColumn
	}
	if config.CSV.TitleColumn == "" {
		config.CSV.TitleColumn = defaults.CSV.TitleColumn
	}
	if config.CSV.Delimiter == "" {
		config.CSV.Delimiter = defaults.CSV.Delimiter
	}

	// Merge Elo config
	if config.Elo.InitialRating == 0 {
		config.Elo.InitialRating = defaults.Elo.InitialRating
	}
	if config.Elo.KFactor == 0 {
		config.Elo.KFactor = defaults.Elo.KFactor
	}

	// Merge Bradley-Terry config
	if config.BradleyTerry.Tolerance == 0 {
		config.BradleyTerry.Tolerance = defaults.BradleyTerry.Tolerance
	}
	if config.BradleyTerry.MaxIterations == 0 {
		config.BradleyTerry.MaxIterations = defaults.BradleyTerry.MaxIterations
	}

	// Merge matchup config
	if config.Matchup.RatingWindow == 0 {
		config.Matchup.RatingWindow = defaults.Matchup.RatingWindow
	}

	// Merge export config
	if config.Export.Format == "" {
		config.Export.Format = defaults.Export.Format
	}

	return config
}

// applyEnvironmentOverrides applies environment variable overrides
func applyEnvironmentOverrides(config *Config) {
	// Database configuration overrides
	if val := os.Getenv("TRACKELO_DATABASE_PATH"); val != "" {
		config.Database.Path = val
	}
	if val := os.Getenv("TRACKELO_DATABASE_LOG_FILE"); val != "" {
		config.Database.LogFile = val
	}

	// CSV configuration overrides
	if val := os.Getenv("TRACKELO_CSV_ID_COLUMN"); val != "" {
		config.CSV.IDColumn = val
	}
	if val := os.Getenv("TRACKELO_CSV_TITLE_COLUMN"); val != "" {
		config.CSV.TitleColumn = val
	}
	if val := os.Getenv("TRACKELO_CSV_ARTIST_COLUMN"); val != "" {
		config.CSV.ArtistColumn = val
	}
	if val := os.Getenv("TRACKELO_CSV_ALBUM_COLUMN"); val != "" {
		config.CSV.AlbumColumn = val
	}
	if val := os.Getenv("TRACKELO_CSV_DELIMITER"); val != "" {
		config.CSV.Delimiter = val
	}
	if val := os.Getenv("TRACKELO_CSV_HAS_HEADER"); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			config.CSV.HasHeader = parsed
		}
	}

	// Elo configuration overrides
	if val := os.Getenv("TRACKELO_ELO_INITIAL_RATING"); val != "" {
		if parsed, err := strconv.ParseFloat(val, 64); err == nil {
			config.Elo.InitialRating = parsed
		}
	}
	if val := os.Getenv("TRACKELO_ELO_K_FACTOR"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			config.Elo.KFactor = parsed
		}
	}

	// Bradley-Terry configuration overrides
	if val := os.Getenv("TRACKELO_BT_TOLERANCE"); val != "" {
		if parsed, err := strconv.ParseFloat(val, 64); err == nil {
			config.BradleyTerry.Tolerance = parsed
		}
	}
	if val := os.Getenv("TRACKELO_BT_MAX_ITERATIONS"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			config.BradleyTerry.MaxIterations = parsed
		}
	}

	// Matchup configuration overrides
	if val := os.Getenv("TRACKELO_MATCHUP_RATING_WINDOW"); val != "" {
		if parsed, err := strconv.ParseFloat(val, 64); err == nil {
			config.Matchup.RatingWindow = parsed
		}
	}

	// Export configuration overrides
	if val := os.Getenv("TRACKELO_EXPORT_FORMAT"); val != "" {
		config.Export.Format = val
	}
	if val := os.Getenv("TRACKELO_EXPORT_INCLUDE_META"); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			config.Export.IncludeMeta = parsed
		}
	}
	if val := os.Getenv("TRACKELO_EXPORT_ROUND_DECIMALS"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			config.Export.RoundDecimals = parsed
		}
	}
}
