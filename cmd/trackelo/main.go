// Package main provides the command-line interface for the trackelo track ranking
// application. It implements subcommands for importing a track catalog, recording
// comparisons, computing rankings, inspecting the comparison log, and running the
// interactive TUI.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/jessevdk/go-flags"

	"github.com/pashagolub/trackelo/pkg/data"
	"github.com/pashagolub/trackelo/pkg/journal"
	"github.com/pashagolub/trackelo/pkg/logging"
	"github.com/pashagolub/trackelo/pkg/rank"
	"github.com/pashagolub/trackelo/pkg/tui"
	"github.com/pashagolub/trackelo/pkg/tui/screens"
)

// Version information - set by build process
var (
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// Commands are handled by go-flags directly through struct tag annotations

// GlobalOptions defines global CLI flags
type GlobalOptions struct {
	Database string `long:"db" short:"d" description:"SQLite database path (overrides config)"`
	Config   string `long:"config" short:"c" description:"Configuration file path" default:"trackelo.yaml"`
	Verbose  bool   `long:"verbose" short:"v" description:"Enable verbose logging"`
	Version  bool   `long:"version" description:"Show version information"`
}

// ImportCommand handles 'trackelo import' subcommand
type ImportCommand struct {
	Input string `long:"input" short:"i" description:"Path to CSV file containing tracks" required:"true"`

	Global *GlobalOptions
}

// RecordCommand handles 'trackelo record' subcommand
type RecordCommand struct {
	Winner string `long:"winner" short:"w" description:"ID of the preferred track" required:"true"`
	Loser  string `long:"loser" short:"l" description:"ID of the other track" required:"true"`
	At     string `long:"at" description:"Comparison timestamp (RFC3339), defaults to now"`

	Global *GlobalOptions
}

// RankCommand handles 'trackelo rank' subcommand
type RankCommand struct {
	Mode   string `long:"mode" short:"m" description:"Scoring mode (default/elo/bradley-terry/best-fit/margin)" default:"default"`
	Format string `long:"format" description:"Output format (csv/json/text)"`
	Output string `long:"output" short:"o" description:"Output file path (stdout when omitted)"`

	Global *GlobalOptions
}

// CompareCommand handles 'trackelo compare' subcommand
type CompareCommand struct {
	Seed int64 `long:"seed" description:"Seed for pair selection (0 = random)" default:"0"`

	Global *GlobalOptions
}

// LogCommand handles 'trackelo log' subcommand
type LogCommand struct {
	Limit  int    `long:"limit" short:"n" description:"Show only the most recent N comparisons" default:"0"`
	Format string `long:"format" description:"Output format (table/csv/json)" default:"table"`

	Global *GlobalOptions
}

// ErrorCode represents CLI exit codes
type ErrorCode int

const (
	ExitSuccess ErrorCode = iota
	ExitFileError
	ExitConfigError
	ExitStoreError
	ExitExportError
	ExitValidationError
)

// CLIError represents a CLI error with exit code
type CLIError struct {
	Code        ErrorCode
	Message     string
	Details     map[string]interface{}
	Suggestions []string
}

func (e *CLIError) Error() string {
	return e.Message
}

// formatErrorJSON formats error as JSON for structured output
func formatErrorJSON(err *CLIError) string {
	errorObj := map[string]interface{}{
		"error": map[string]interface{}{
			"code":    err.Code,
			"message": err.Message,
		},
	}

	if err.Details != nil {
		errorObj["error"].(map[string]interface{})["details"] = err.Details
	}

	if err.Suggestions != nil {
		errorObj["error"].(map[string]interface{})["suggestions"] = err.Suggestions
	}

	jsonBytes, _ := json.MarshalIndent(errorObj, "", "  ")
	return string(jsonBytes)
}

func main() {
	if err := run(); err != nil {
		if cliErr, ok := err.(*CLIError); ok {
			fmt.Fprintln(os.Stderr, formatErrorJSON(cliErr))
			os.Exit(int(cliErr.Code))
		}
		log.Fatal(err)
	}
}

func run() error {
	parser := flags.NewParser(nil, flags.Default)
	parser.Usage = "[OPTIONS] COMMAND [COMMAND-OPTIONS]"

	// Add subcommands
	importCmd := &ImportCommand{}
	recordCmd := &RecordCommand{}
	rankCmd := &RankCommand{}
	compareCmd := &CompareCommand{}
	logCmd := &LogCommand{}

	parser.AddCommand("import", "Import a track catalog from CSV", "", importCmd)
	parser.AddCommand("record", "Record one pairwise comparison", "", recordCmd)
	parser.AddCommand("rank", "Compute and output a ranking", "", rankCmd)
	parser.AddCommand("compare", "Run the interactive comparison TUI", "", compareCmd)
	parser.AddCommand("log", "Show the comparison history", "", logCmd)

	// Parse command line
	_, err := parser.Parse()
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			switch flagsErr.Type {
			case flags.ErrHelp:
				return nil
			case flags.ErrCommandRequired:
				fmt.Fprintln(os.Stderr, "Error: No command specified")
				parser.WriteHelp(os.Stderr)
				return &CLIError{
					Code:    ExitConfigError,
					Message: "No command specified",
					Suggestions: []string{
						"Use 'trackelo import --input tracks.csv' to load a catalog",
						"Use 'trackelo compare' to start comparing tracks",
						"Use 'trackelo --help' to see all available commands",
					},
				}
			default:
				return &CLIError{
					Code:    ExitConfigError,
					Message: fmt.Sprintf("Invalid arguments: %v", err),
				}
			}
		}
		return err
	}

	return nil
}

// Execute implements the Command interface for ImportCommand
func (c *ImportCommand) Execute(args []string) error {
	if c.Global != nil && c.Global.Version {
		return showVersion()
	}

	config, err := loadConfiguration(c.Global.Config, c.Global.Verbose)
	if err != nil {
		return configError(err)
	}
	logging.Init(os.Stderr, c.Global.Verbose)

	// Validate CSV file exists
	if _, err := os.Stat(c.Input); os.IsNotExist(err) {
		return &CLIError{
			Code:    ExitFileError,
			Message: fmt.Sprintf("Input file not found: %s", c.Input),
			Details: map[string]interface{}{
				"file": c.Input,
			},
			Suggestions: []string{
				"Check file path and name",
				"Ensure file has .csv extension",
				"Use absolute path if needed",
			},
		}
	}

	file, err := os.Open(c.Input)
	if err != nil {
		return &CLIError{
			Code:    ExitFileError,
			Message: fmt.Sprintf("Failed to open input file: %v", err),
			Details: map[string]interface{}{
				"file": c.Input,
			},
		}
	}
	defer func() { _ = file.Close() }()

	parseResult, err := data.ParseTracksFromReader(file, config.CSV)
	if err != nil {
		return &CLIError{
			Code:    ExitFileError,
			Message: fmt.Sprintf("Failed to parse CSV file: %v", err),
			Details: map[string]interface{}{
				"file": c.Input,
			},
			Suggestions: []string{
				"Check for missing required columns",
				"Verify delimiter and header settings in the config",
				"Ensure file encoding is UTF-8",
			},
		}
	}

	store, err := openStore(c.Global, config)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	written, err := store.AddTracks(parseResult.Tracks)
	if err != nil {
		return &CLIError{
			Code:    ExitStoreError,
			Message: fmt.Sprintf("Failed to store tracks: %v", err),
		}
	}

	fmt.Printf("Imported %d tracks from %s (%d rows read, %d skipped)\n",
		written, c.Input, parseResult.TotalRows, len(parseResult.SkippedRows))

	if len(parseResult.ParseErrors) > 0 {
		fmt.Printf("Parse issues: %d\n", len(parseResult.ParseErrors))
		if c.Global.Verbose {
			for _, parseErr := range parseResult.ParseErrors {
				fmt.Printf("  - Row %d: %s\n", parseErr.RowNumber, parseErr.Message)
			}
		}
	}

	return nil
}

// Execute implements the Command interface for RecordCommand
func (c *RecordCommand) Execute(args []string) error {
	if c.Global != nil && c.Global.Version {
		return showVersion()
	}

	config, err := loadConfiguration(c.Global.Config, c.Global.Verbose)
	if err != nil {
		return configError(err)
	}
	logging.Init(os.Stderr, c.Global.Verbose)

	at := time.Now().UTC()
	if c.At != "" {
		at, err = time.Parse(time.RFC3339, c.At)
		if err != nil {
			return &CLIError{
				Code:    ExitValidationError,
				Message: fmt.Sprintf("Invalid timestamp: %v", err),
				Details: map[string]interface{}{
					"at": c.At,
				},
				Suggestions: []string{
					"Use RFC3339 format, e.g. 2026-01-15T10:30:00Z",
				},
			}
		}
	}

	store, err := openStore(c.Global, config)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	comparison, err := store.RecordComparisonAt(c.Winner, c.Loser, at)
	if err != nil {
		suggestions := []string{
			"Use 'trackelo log' to review recorded comparisons",
		}
		code := ExitStoreError
		if errors.Is(err, data.ErrInvalidComparison) {
			code = ExitValidationError
			suggestions = []string{
				"Winner and loser must be two different track IDs",
			}
		}
		if errors.Is(err, data.ErrUnknownTrack) {
			code = ExitValidationError
			suggestions = []string{
				"Import the catalog first with 'trackelo import --input tracks.csv'",
				"Check track ID spelling",
			}
		}

		return &CLIError{
			Code:    code,
			Message: fmt.Sprintf("Failed to record comparison: %v", err),
			Details: map[string]interface{}{
				"winner": c.Winner,
				"loser":  c.Loser,
			},
			Suggestions: suggestions,
		}
	}

	fmt.Printf("Recorded: %s beat %s (%s)\n",
		comparison.WinnerID, comparison.LoserID, comparison.CreatedAt.Format(time.RFC3339))

	return nil
}

// Execute implements the Command interface for RankCommand
func (c *RankCommand) Execute(args []string) error {
	if c.Global != nil && c.Global.Version {
		return showVersion()
	}

	config, err := loadConfiguration(c.Global.Config, c.Global.Verbose)
	if err != nil {
		return configError(err)
	}
	logging.Init(os.Stderr, c.Global.Verbose)

	mode, err := rank.ParseMode(c.Mode)
	if err != nil {
		return &CLIError{
			Code:    ExitValidationError,
			Message: fmt.Sprintf("Unknown scoring mode: %s", c.Mode),
			Details: map[string]interface{}{
				"mode": c.Mode,
			},
			Suggestions: []string{
				"Valid modes: default, elo, bradley-terry, best-fit, margin",
			},
		}
	}

	ranker, err := rank.NewRanker(rankerOptions(config))
	if err != nil {
		return &CLIError{
			Code:    ExitConfigError,
			Message: fmt.Sprintf("Invalid ranking options: %v", err),
			Suggestions: []string{
				"Check elo and bradley_terry sections of the configuration",
			},
		}
	}

	store, err := openStore(c.Global, config)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	tracks, err := store.Tracks()
	if err != nil {
		return &CLIError{
			Code:    ExitStoreError,
			Message: fmt.Sprintf("Failed to load tracks: %v", err),
		}
	}

	comparisons, err := store.Comparisons()
	if err != nil {
		return &CLIError{
			Code:    ExitStoreError,
			Message: fmt.Sprintf("Failed to load comparisons: %v", err),
		}
	}

	ids := make([]string, len(tracks))
	for i, track := range tracks {
		ids[i] = track.ID
	}

	ranking, err := ranker.Rank(mode, ids, comparisons)
	if err != nil {
		return &CLIError{
			Code:    ExitValidationError,
			Message: fmt.Sprintf("Ranking failed: %v", err),
		}
	}

	if ranking.Degraded {
		logging.Warn("scores did not fully converge", "mode", string(mode))
	}

	exportOptions := config.Export
	if c.Format != "" {
		exportOptions.Format = c.Format
	}
	exporter := journal.NewExporter(exportOptions)

	if c.Output != "" {
		if err := exporter.ExportToFile(ranking, tracks, comparisons, c.Output); err != nil {
			return &CLIError{
				Code:    ExitExportError,
				Message: fmt.Sprintf("Export failed: %v", err),
				Details: map[string]interface{}{
					"output_file": c.Output,
					"format":      exportOptions.Format,
				},
				Suggestions: []string{
					"Check output directory permissions",
					"Try a different output format",
				},
			}
		}

		fmt.Printf("Exported rankings to: %s\n", c.Output)
		return nil
	}

	switch exportOptions.Format {
	case "json":
		err = exporter.ExportJSON(ranking, tracks, comparisons, os.Stdout)
	case "csv":
		err = exporter.ExportCSV(ranking, tracks, comparisons, os.Stdout)
	default:
		err = exporter.ExportReport(ranking, tracks, comparisons, os.Stdout)
	}
	if err != nil {
		return &CLIError{
			Code:    ExitExportError,
			Message: fmt.Sprintf("Failed to write ranking: %v", err),
		}
	}

	return nil
}

// Execute implements the Command interface for CompareCommand
func (c *CompareCommand) Execute(args []string) error {
	if c.Global != nil && c.Global.Version {
		return showVersion()
	}

	config, err := loadConfiguration(c.Global.Config, c.Global.Verbose)
	if err != nil {
		return configError(err)
	}

	// The TUI owns the terminal, so logging goes to a file
	if err := logging.InitFile(config.Database.LogFile, c.Global.Verbose); err != nil {
		return &CLIError{
			Code:    ExitFileError,
			Message: fmt.Sprintf("Failed to open log file: %v", err),
			Details: map[string]interface{}{
				"log_file": config.Database.LogFile,
			},
		}
	}
	defer logging.Close()

	store, err := openStore(c.Global, config)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	app, err := tui.NewApp(store, config)
	if err != nil {
		return &CLIError{
			Code:    ExitConfigError,
			Message: fmt.Sprintf("Failed to initialize TUI: %v", err),
		}
	}

	var rng *rand.Rand
	if c.Seed != 0 {
		rng = rand.New(rand.NewSource(c.Seed))
	}

	if err := app.RegisterScreen(tui.ScreenComparison, screens.NewComparisonScreen(rng)); err != nil {
		return err
	}
	if err := app.RegisterScreen(tui.ScreenRanking, screens.NewRankingScreen()); err != nil {
		return err
	}
	if err := app.RegisterScreen(tui.ScreenHelp, tui.NewHelpScreen()); err != nil {
		return err
	}

	if err := app.Run(); err != nil {
		return &CLIError{
			Code:    ExitStoreError,
			Message: fmt.Sprintf("TUI session failed: %v", err),
		}
	}

	return nil
}

// Execute implements the Command interface for LogCommand
func (c *LogCommand) Execute(args []string) error {
	if c.Global != nil && c.Global.Version {
		return showVersion()
	}

	config, err := loadConfiguration(c.Global.Config, c.Global.Verbose)
	if err != nil {
		return configError(err)
	}
	logging.Init(os.Stderr, c.Global.Verbose)

	store, err := openStore(c.Global, config)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	comparisons, err := store.Comparisons()
	if err != nil {
		return &CLIError{
			Code:    ExitStoreError,
			Message: fmt.Sprintf("Failed to load comparisons: %v", err),
		}
	}

	// Limit keeps the most recent entries
	if c.Limit > 0 && len(comparisons) > c.Limit {
		comparisons = comparisons[len(comparisons)-c.Limit:]
	}

	switch c.Format {
	case "csv":
		if err := journal.ExportComparisonCSV(comparisons, os.Stdout); err != nil {
			return &CLIError{
				Code:    ExitExportError,
				Message: fmt.Sprintf("Failed to write comparison CSV: %v", err),
			}
		}
		return nil
	case "json":
		if err := journal.WriteComparisonLog(comparisons, os.Stdout); err != nil {
			return &CLIError{
				Code:    ExitExportError,
				Message: fmt.Sprintf("Failed to write comparison log: %v", err),
			}
		}
		return nil
	default:
		return c.printLogTable(store, comparisons)
	}
}

// printLogTable renders the comparison history with track display names
func (c *LogCommand) printLogTable(store *data.Store, comparisons []data.Comparison) error {
	if len(comparisons) == 0 {
		fmt.Println("No comparisons recorded")
		return nil
	}

	tracks, err := store.Tracks()
	if err != nil {
		return &CLIError{
			Code:    ExitStoreError,
			Message: fmt.Sprintf("Failed to load tracks: %v", err),
		}
	}

	display := make(map[string]string, len(tracks))
	ids := make([]string, len(tracks))
	for i, track := range tracks {
		display[track.ID] = track.Display()
		ids[i] = track.ID
	}

	name := func(id string) string {
		if d, ok := display[id]; ok {
			return d
		}
		return id
	}

	fmt.Printf("%-30s %-30s %s\n", "WINNER", "LOSER", "WHEN")
	fmt.Println(strings.Repeat("-", 90))

	for _, comparison := range comparisons {
		fmt.Printf("%-30s %-30s %s\n",
			clip(name(comparison.WinnerID), 30),
			clip(name(comparison.LoserID), 30),
			comparison.CreatedAt.Format("2006-01-02 15:04:05"))
	}

	summary := journal.Summarize(ids, comparisons)
	fmt.Printf("\n%d comparisons across %d of %d tracks (%.1f%% pair coverage)\n",
		summary.TotalComparisons, summary.ComparedTracks, summary.TotalTracks,
		summary.Coverage*100)

	return nil
}

// Helper functions

func showVersion() error {
	fmt.Printf("trackelo version %s\n", Version)
	fmt.Printf("Build date: %s\n", BuildDate)
	fmt.Printf("Git commit: %s\n", GitCommit)
	return nil
}

func loadConfiguration(configPath string, verbose bool) (*data.Config, error) {
	if configPath == "" {
		configPath = "trackelo.yaml"
	}

	config, err := data.LoadWithEnvironment(configPath)
	if err != nil {
		if verbose {
			fmt.Fprintf(os.Stderr, "Config load error: %v\n", err)
		}
		// Use defaults if config file not found
		defaultConfig := data.DefaultConfig()
		return &defaultConfig, nil
	}

	return config, nil
}

// configError wraps a configuration failure with recovery hints
func configError(err error) *CLIError {
	return &CLIError{
		Code:    ExitConfigError,
		Message: fmt.Sprintf("Failed to load configuration: %v", err),
		Suggestions: []string{
			"Check configuration file syntax",
			"Use --config flag to specify different config file",
			"Run with --verbose for more details",
		},
	}
}

// openStore opens the SQLite store, honoring the --db override
func openStore(global *GlobalOptions, config *data.Config) (*data.Store, error) {
	path := config.Database.Path
	if global != nil && global.Database != "" {
		path = global.Database
	}
	if path == "" {
		path = "trackelo.db"
	}

	store, err := data.OpenStore(path)
	if err != nil {
		return nil, &CLIError{
			Code:    ExitStoreError,
			Message: fmt.Sprintf("Failed to open database: %v", err),
			Details: map[string]interface{}{
				"database": path,
			},
			Suggestions: []string{
				"Check the database path and directory permissions",
				"Use --db to point at a different database file",
			},
		}
	}

	return store, nil
}

// rankerOptions maps the persisted configuration onto ranking parameters
func rankerOptions(config *data.Config) rank.Options {
	return rank.Options{
		Elo: rank.EloOptions{
			InitialRating: config.Elo.InitialRating,
			KFactor:       config.Elo.KFactor,
		},
		BradleyTerry: rank.BradleyTerryOptions{
			Tolerance:     config.BradleyTerry.Tolerance,
			MaxIterations: config.BradleyTerry.MaxIterations,
		},
	}
}

// clip shortens a display name to fit the table column
func clip(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
