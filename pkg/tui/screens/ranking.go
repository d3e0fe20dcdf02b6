// Package screens provides the TUI screen implementations for track
// ranking. This file implements the ranking display screen where
// listeners view the computed order, cycle scoring modes, and export.
package screens

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/pashagolub/trackelo/pkg/data"
	"github.com/pashagolub/trackelo/pkg/journal"
	"github.com/pashagolub/trackelo/pkg/logging"
	"github.com/pashagolub/trackelo/pkg/rank"
)

// RankingScreen displays the computed ranking for the active scoring mode
type RankingScreen struct {
	container     *tview.Flex
	mainLayout    *tview.Flex
	sidebarLayout *tview.Flex

	rankingTable *tview.Table

	summaryPanel *tview.TextView
	exportPanel  *tview.TextView

	statusBar *tview.TextView
	helpBar   *tview.TextView

	// Current state, rebuilt on every entry and mode change
	mode        rank.Mode
	ranking     *rank.Ranking
	rows        []journal.RankedRow
	tracks      []data.Track
	comparisons []data.Comparison

	exportInProgress bool

	app interface{}
}

// NewRankingScreen creates a new ranking screen instance
func NewRankingScreen() *RankingScreen {
	rs := &RankingScreen{
		container:     tview.NewFlex(),
		mainLayout:    tview.NewFlex(),
		sidebarLayout: tview.NewFlex(),
		rankingTable:  tview.NewTable(),
		summaryPanel:  tview.NewTextView(),
		exportPanel:   tview.NewTextView(),
		statusBar:     tview.NewTextView(),
		helpBar:       tview.NewTextView(),
		mode:          rank.ModeDefault,
	}

	rs.setupUI()
	rs.setupKeyBindings()

	return rs
}

// GetPrimitive returns the main primitive for the ranking screen
func (rs *RankingScreen) GetPrimitive() tview.Primitive {
	return rs.container
}

// OnEnter recomputes the ranking when the screen becomes active. Scores
// are never persisted, so every visit reflects the full log as of now.
func (rs *RankingScreen) OnEnter(app interface{}) error {
	rs.app = app

	if err := rs.refresh(); err != nil {
		return fmt.Errorf("failed to build ranking: %w", err)
	}

	return nil
}

// OnExit is called when leaving the ranking screen
func (rs *RankingScreen) OnExit(app interface{}) error {
	return nil
}

// GetTitle returns the screen title
func (rs *RankingScreen) GetTitle() string {
	return fmt.Sprintf("Rankings (%d tracks, %s)", len(rs.tracks), rs.mode)
}

// setupUI initializes the user interface layout
func (rs *RankingScreen) setupUI() {
	rs.rankingTable.SetSelectable(true, false).
		SetFixed(1, 0)
	rs.rankingTable.SetBorder(true).
		SetTitle(" Rankings ").
		SetTitleAlign(tview.AlignLeft)

	rs.setupTableHeaders()

	rs.summaryPanel.SetDynamicColors(true)
	rs.summaryPanel.SetBorder(true).
		SetTitle(" Summary ").
		SetTitleAlign(tview.AlignLeft)

	rs.exportPanel.SetDynamicColors(true)
	rs.exportPanel.SetBorder(true).
		SetTitle(" Export ").
		SetTitleAlign(tview.AlignLeft)
	rs.resetExportPanel()

	rs.statusBar.SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft)

	rs.helpBar.SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter).
		SetText("[gray]m:Mode  e:Export  Esc:Back[-]")

	rs.sidebarLayout.SetDirection(tview.FlexRow).
		AddItem(rs.summaryPanel, 0, 1, false).
		AddItem(rs.exportPanel, 0, 1, false)

	rs.mainLayout.SetDirection(tview.FlexColumn).
		AddItem(rs.rankingTable, 0, 3, true).
		AddItem(rs.sidebarLayout, 36, 1, false)

	rs.container.SetDirection(tview.FlexRow).
		AddItem(rs.mainLayout, 0, 1, true).
		AddItem(rs.statusBar, 1, 1, false).
		AddItem(rs.helpBar, 1, 1, false)
}

// setupTableHeaders configures the ranking table headers
func (rs *RankingScreen) setupTableHeaders() {
	headers := []string{"Rank", "Track", "Artist", "Score", "Record"}
	for col, header := range headers {
		cell := tview.NewTableCell(header).
			SetTextColor(tcell.ColorYellow).
			SetAlign(tview.AlignCenter).
			SetSelectable(false).
			SetExpansion(1)
		if col == 1 {
			cell.SetExpansion(3)
		}
		rs.rankingTable.SetCell(0, col, cell)
	}
}

// setupKeyBindings configures ranking screen shortcuts
func (rs *RankingScreen) setupKeyBindings() {
	rs.rankingTable.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() == tcell.KeyEsc {
			rs.goBack()
			return nil
		}

		switch event.Rune() {
		case 'm', 'M':
			rs.cycleMode()
			return nil
		case 'e', 'E':
			rs.initiateExport()
			return nil
		}

		return event
	})
}

// refresh reloads the catalog and log and recomputes the current mode.
func (rs *RankingScreen) refresh() error {
	store := rs.getStore()
	if store == nil {
		return fmt.Errorf("no track store available")
	}

	ranker := rs.getRanker()
	if ranker == nil {
		return fmt.Errorf("no ranking engine available")
	}

	tracks, err := store.Tracks()
	if err != nil {
		return fmt.Errorf("failed to load tracks: %w", err)
	}

	comparisons, err := store.Comparisons()
	if err != nil {
		return fmt.Errorf("failed to load comparisons: %w", err)
	}

	ids := make([]string, len(tracks))
	for i, track := range tracks {
		ids[i] = track.ID
	}

	ranking, err := ranker.Rank(rs.mode, ids, comparisons)
	if err != nil {
		return fmt.Errorf("failed to rank tracks: %w", err)
	}

	rs.tracks = tracks
	rs.comparisons = comparisons
	rs.ranking = ranking
	rs.rows = journal.NewExporter(rs.exportConfig()).BuildRows(ranking, tracks, comparisons)

	rs.updateTable()
	rs.updateSummary()
	rs.updateStatusBar()

	return nil
}

// exportConfig returns the configured export options, or defaults.
func (rs *RankingScreen) exportConfig() data.ExportConfig {
	if config := rs.getConfig(); config != nil {
		return config.Export
	}
	return data.DefaultExportConfig()
}

// updateTable refreshes the ranking table from the built rows
func (rs *RankingScreen) updateTable() {
	rs.rankingTable.Clear()
	rs.setupTableHeaders()

	for i, row := range rs.rows {
		rs.addRankedRow(i+1, row)
	}

	if len(rs.rows) > 0 {
		rs.rankingTable.Select(1, 0)
	}
}

// addRankedRow adds a single ranked track row to the table. Tracks in
// the same tie group share a rank number.
func (rs *RankingScreen) addRankedRow(tableRow int, row journal.RankedRow) {
	rs.rankingTable.SetCell(tableRow, 0,
		tview.NewTableCell(strconv.Itoa(row.Rank)).
			SetAlign(tview.AlignCenter).
			SetTextColor(tcell.ColorWhite))

	rs.rankingTable.SetCell(tableRow, 1,
		tview.NewTableCell(truncate(row.Title, 40)).
			SetAlign(tview.AlignLeft).
			SetTextColor(tcell.ColorWhite).
			SetExpansion(3))

	rs.rankingTable.SetCell(tableRow, 2,
		tview.NewTableCell(truncate(row.Artist, 20)).
			SetAlign(tview.AlignLeft).
			SetTextColor(tcell.ColorLightBlue))

	scoreColor := tcell.ColorWhite
	if row.Score == "-" {
		scoreColor = tcell.ColorGray
	}
	rs.rankingTable.SetCell(tableRow, 3,
		tview.NewTableCell(row.Score).
			SetAlign(tview.AlignCenter).
			SetTextColor(scoreColor))

	rs.rankingTable.SetCell(tableRow, 4,
		tview.NewTableCell(fmt.Sprintf("%d-%d", row.Wins, row.Losses)).
			SetAlign(tview.AlignCenter).
			SetTextColor(tcell.ColorLightGreen))
}

// updateSummary refreshes the sidebar with comparison log statistics
func (rs *RankingScreen) updateSummary() {
	ids := make([]string, len(rs.tracks))
	for i, track := range rs.tracks {
		ids[i] = track.ID
	}

	summary := journal.Summarize(ids, rs.comparisons)

	var b strings.Builder
	fmt.Fprintf(&b, "[yellow]Mode:[-] %s\n", rs.mode)
	fmt.Fprintf(&b, "[yellow]Tracks:[-] %d (%d compared)\n", summary.TotalTracks, summary.ComparedTracks)
	fmt.Fprintf(&b, "[yellow]Comparisons:[-] %d\n", summary.TotalComparisons)
	fmt.Fprintf(&b, "[yellow]Coverage:[-] %.1f%%\n", summary.Coverage*100)

	if rs.ranking != nil && rs.ranking.Degraded {
		b.WriteString("\n[red]⚠ Scores did not fully converge[-]\n")
	}
	if tied := rs.tiedGroups(); tied > 0 {
		fmt.Fprintf(&b, "\n[gray]%d tie group(s) in the order[-]\n", tied)
	}

	rs.summaryPanel.SetText(b.String())
}

// tiedGroups counts groups holding more than one track.
func (rs *RankingScreen) tiedGroups() int {
	if rs.ranking == nil {
		return 0
	}

	tied := 0
	for _, group := range rs.ranking.Groups {
		if len(group.TrackIDs) > 1 {
			tied++
		}
	}
	return tied
}

// updateStatusBar updates the status line
func (rs *RankingScreen) updateStatusBar() {
	degraded := ""
	if rs.ranking != nil && rs.ranking.Degraded {
		degraded = " | [red]degraded[blue]"
	}

	rs.statusBar.SetText(fmt.Sprintf("[blue]%d tracks | Mode: %s%s | 'm' cycles scoring modes[-]",
		len(rs.rows), rs.mode, degraded))
}

// cycleMode advances to the next scoring mode and recomputes
func (rs *RankingScreen) cycleMode() {
	modes := rank.Modes()
	next := 0
	for i, mode := range modes {
		if mode == rs.mode {
			next = (i + 1) % len(modes)
			break
		}
	}
	rs.mode = modes[next]

	if err := rs.refresh(); err != nil {
		rs.statusBar.SetText(fmt.Sprintf("[red]%v[-]", err))
	}
}

// resetExportPanel restores the export hint text
func (rs *RankingScreen) resetExportPanel() {
	rs.exportPanel.SetText("[yellow]Press 'e' to export the current ranking[-]\n\nThe configured format applies:\ncsv, json, or text report.")
}

// initiateExport writes the current ranking to a timestamped file
func (rs *RankingScreen) initiateExport() {
	if rs.exportInProgress {
		return
	}

	rs.exportInProgress = true
	rs.exportPanel.SetText("[yellow]Export in progress...[-]")

	go func() {
		defer func() {
			rs.exportInProgress = false
		}()

		path, err := rs.performExport(".")
		if err != nil {
			rs.exportPanel.SetText(fmt.Sprintf("[red]Export failed[-]\n\n%v", err))
			return
		}

		rs.exportPanel.SetText(fmt.Sprintf("[green]Export complete[-]\n\n%s", path))
		logging.Info("exported ranking", "path", path, "mode", string(rs.mode))

		go func() {
			time.Sleep(3 * time.Second)
			rs.resetExportPanel()
		}()
	}()
}

// performExport writes the current ranking into dir and returns the path.
func (rs *RankingScreen) performExport(dir string) (string, error) {
	if rs.ranking == nil {
		return "", fmt.Errorf("nothing to export yet")
	}

	options := rs.exportConfig()
	name := fmt.Sprintf("trackelo_rankings_%s.%s",
		time.Now().Format("20060102_150405"), exportExtension(options.Format))
	path := filepath.Join(dir, name)

	exporter := journal.NewExporter(options)
	if err := exporter.ExportToFile(rs.ranking, rs.tracks, rs.comparisons, path); err != nil {
		return "", err
	}

	return path, nil
}

// exportExtension maps an export format to its file extension.
func exportExtension(format string) string {
	switch format {
	case "json":
		return "json"
	case "text":
		return "txt"
	default:
		return "csv"
	}
}

// goBack returns to the previous screen
func (rs *RankingScreen) goBack() {
	app, ok := rs.app.(interface{ GoBack() error })
	if !ok {
		return
	}

	go func() {
		if err := app.GoBack(); err != nil {
			rs.statusBar.SetText(fmt.Sprintf("[red]%v[-]", err))
		}
	}()
}

// getStore extracts the track store from the app reference
func (rs *RankingScreen) getStore() *data.Store {
	if app, ok := rs.app.(interface{ GetStore() *data.Store }); ok {
		return app.GetStore()
	}
	return nil
}

// getConfig extracts the configuration from the app reference
func (rs *RankingScreen) getConfig() *data.Config {
	if app, ok := rs.app.(interface{ GetConfig() *data.Config }); ok {
		return app.GetConfig()
	}
	return nil
}

// getRanker extracts the ranking engine from the app reference
func (rs *RankingScreen) getRanker() *rank.Ranker {
	if app, ok := rs.app.(interface{ GetRanker() *rank.Ranker }); ok {
		return app.GetRanker()
	}
	return nil
}
