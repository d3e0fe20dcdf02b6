// Package screens provides the TUI screen implementations for track
// ranking: the comparison screen that collects pairwise verdicts and the
// ranking screen that displays the computed orderings.
package screens

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/pashagolub/trackelo/pkg/data"
	"github.com/pashagolub/trackelo/pkg/logging"
	"github.com/pashagolub/trackelo/pkg/rank"
	"github.com/pashagolub/trackelo/pkg/tui/components"
)

// ComparisonScreen collects pairwise verdicts between two tracks
type ComparisonScreen struct {
	container *tview.Flex
	leftCard  *tview.TextView
	rightCard *tview.TextView
	progress  *components.Progress
	statusBar *tview.TextView
	helpBar   *tview.TextView

	left    *data.Track
	right   *data.Track
	matchup *rank.Matchup

	// Verdicts recorded since the screen was created
	recorded int

	rng *rand.Rand

	app interface{}
}

// NewComparisonScreen creates the comparison screen. rng drives opponent
// selection and may be nil for a time-seeded source.
func NewComparisonScreen(rng *rand.Rand) *ComparisonScreen {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	cs := &ComparisonScreen{
		container: tview.NewFlex(),
		leftCard:  tview.NewTextView(),
		rightCard: tview.NewTextView(),
		progress:  components.NewProgress(components.DefaultProgressConfig()),
		statusBar: tview.NewTextView(),
		helpBar:   tview.NewTextView(),
		rng:       rng,
	}

	cs.setupUI()
	return cs
}

// GetPrimitive returns the main primitive for the comparison screen
func (cs *ComparisonScreen) GetPrimitive() tview.Primitive {
	return cs.container
}

// OnEnter loads the next proposed pair when the screen becomes active
func (cs *ComparisonScreen) OnEnter(app interface{}) error {
	cs.app = app

	if err := cs.loadNextPair(); err != nil {
		return fmt.Errorf("failed to load next pair: %w", err)
	}

	return nil
}

// OnExit is called when leaving the comparison screen
func (cs *ComparisonScreen) OnExit(app interface{}) error {
	return nil
}

// GetTitle returns the screen title
func (cs *ComparisonScreen) GetTitle() string {
	return fmt.Sprintf("Compare Tracks (%d recorded)", cs.recorded)
}

// setupUI initializes the comparison screen layout
func (cs *ComparisonScreen) setupUI() {
	cs.leftCard.SetDynamicColors(true).
		SetWrap(true)
	cs.leftCard.SetBorder(true).
		SetTitle(" Track 1 ").
		SetTitleAlign(tview.AlignLeft).
		SetBorderColor(tcell.ColorBlue)

	cs.rightCard.SetDynamicColors(true).
		SetWrap(true)
	cs.rightCard.SetBorder(true).
		SetTitle(" Track 2 ").
		SetTitleAlign(tview.AlignLeft).
		SetBorderColor(tcell.ColorGreen)

	cards := tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(cs.leftCard, 0, 1, false).
		AddItem(cs.rightCard, 0, 1, false)

	cs.statusBar.SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft)

	cs.helpBar.SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter).
		SetText("[gray]1:Left wins  2:Right wins  s:Skip pair[-]")

	cs.container.SetDirection(tview.FlexRow).
		AddItem(cards, 0, 1, true).
		AddItem(cs.progress.GetContainer(), 4, 0, false).
		AddItem(cs.statusBar, 1, 0, false).
		AddItem(cs.helpBar, 1, 0, false)

	cs.container.SetInputCapture(cs.handleInput)
}

// handleInput processes comparison screen keyboard input
func (cs *ComparisonScreen) handleInput(event *tcell.EventKey) *tcell.EventKey {
	switch event.Rune() {
	case '1':
		cs.recordWinner(true)
		return nil
	case '2':
		cs.recordWinner(false)
		return nil
	case 's', 'S':
		cs.skipPair()
		return nil
	}

	return event
}

// loadNextPair asks the matchup picker for a fresh pair and fills the
// cards. An undersized catalog is not an error, the screen just waits.
func (cs *ComparisonScreen) loadNextPair() error {
	store := cs.getStore()
	if store == nil {
		return fmt.Errorf("no track store available")
	}

	ids, err := store.TrackIDs()
	if err != nil {
		return fmt.Errorf("failed to load track ids: %w", err)
	}

	comparisons, err := store.Comparisons()
	if err != nil {
		return fmt.Errorf("failed to load comparisons: %w", err)
	}

	cs.refreshProgress(len(ids), comparisons)

	matchup, err := rank.NextPair(ids, comparisons, cs.matchupOptions(), cs.rng)
	if err != nil {
		if errors.Is(err, rank.ErrNotEnoughTracks) {
			cs.showNoPair()
			return nil
		}
		return fmt.Errorf("failed to pick next pair: %w", err)
	}

	left, err := store.GetTrack(matchup.TrackA)
	if err != nil {
		return fmt.Errorf("failed to load track %q: %w", matchup.TrackA, err)
	}

	right, err := store.GetTrack(matchup.TrackB)
	if err != nil {
		return fmt.Errorf("failed to load track %q: %w", matchup.TrackB, err)
	}

	cs.matchup = matchup
	cs.left = left
	cs.right = right

	cs.updateCards(cs.currentRatings(ids, comparisons))
	cs.updateStatus()

	return nil
}

// matchupOptions derives pair-selection options from the app config.
func (cs *ComparisonScreen) matchupOptions() rank.MatchupOptions {
	opts := rank.DefaultMatchupOptions()
	if config := cs.getConfig(); config != nil {
		opts.RatingWindow = config.Matchup.RatingWindow
		opts.Elo = rank.EloOptions{
			InitialRating: config.Elo.InitialRating,
			KFactor:       config.Elo.KFactor,
		}
	}
	return opts
}

// currentRatings recomputes Elo ratings for the card display.
func (cs *ComparisonScreen) currentRatings(ids []string, comparisons []data.Comparison) map[string]float64 {
	ranker := cs.getRanker()
	if ranker == nil {
		return nil
	}

	ranking, err := ranker.Rank(rank.ModeElo, ids, comparisons)
	if err != nil {
		logging.Warn("failed to compute ratings for display", "error", err)
		return nil
	}

	ratings := make(map[string]float64, len(ranking.Scores))
	for _, scored := range ranking.Scores {
		if scored.Scored {
			ratings[scored.ID] = scored.Score
		}
	}
	return ratings
}

// updateCards fills both track cards
func (cs *ComparisonScreen) updateCards(ratings map[string]float64) {
	cs.leftCard.SetText(formatTrackCard(cs.left, ratings))
	cs.rightCard.SetText(formatTrackCard(cs.right, ratings))
}

// formatTrackCard renders one track using tview color markup.
func formatTrackCard(track *data.Track, ratings map[string]float64) string {
	if track == nil {
		return "[gray]No track[-]"
	}

	title := track.Title
	if title == "" {
		title = track.ID
	}

	var b strings.Builder
	fmt.Fprintf(&b, "[white::b]%s[-:-:-]\n\n", tview.Escape(title))
	if track.Artist != "" {
		fmt.Fprintf(&b, "[yellow]Artist:[-] %s\n", tview.Escape(track.Artist))
	}
	if track.Album != "" {
		fmt.Fprintf(&b, "[yellow]Album:[-] %s\n", tview.Escape(track.Album))
	}
	if rating, ok := ratings[track.ID]; ok {
		fmt.Fprintf(&b, "\n[yellow]Rating:[-] %.0f", rating)
	}

	return b.String()
}

// updateStatus shows the rating gap of the proposed pair
func (cs *ComparisonScreen) updateStatus() {
	if cs.matchup == nil {
		return
	}

	window := ""
	if !cs.matchup.WithinWindow {
		window = " [yellow](outside rating window)[blue]"
	}
	cs.statusBar.SetText(fmt.Sprintf("[blue]Rating gap: %.0f%s | Press 1 or 2 to pick the better track[-]",
		cs.matchup.RatingGap, window))
}

// showNoPair clears the cards when the catalog is too small to compare
func (cs *ComparisonScreen) showNoPair() {
	cs.matchup = nil
	cs.left = nil
	cs.right = nil

	cs.leftCard.SetText("[gray]Not enough tracks to compare.\n\nImport at least two tracks first.[-]")
	cs.rightCard.SetText("")
	cs.statusBar.SetText("[yellow]Waiting for tracks - import a catalog with the import command[-]")
}

// recordWinner persists the verdict for the current pair and moves on.
func (cs *ComparisonScreen) recordWinner(leftWins bool) {
	if cs.matchup == nil || cs.left == nil || cs.right == nil {
		return
	}

	winner, loser := cs.left, cs.right
	if !leftWins {
		winner, loser = cs.right, cs.left
	}

	store := cs.getStore()
	if store == nil {
		cs.statusBar.SetText("[red]No track store available[-]")
		return
	}

	if _, err := store.RecordComparison(winner.ID, loser.ID); err != nil {
		cs.statusBar.SetText(fmt.Sprintf("[red]Failed to record comparison: %v[-]", err))
		return
	}

	cs.recorded++
	logging.Debug("recorded verdict", "winner", winner.ID, "loser", loser.ID)

	if refresher, ok := cs.app.(interface{ RefreshCounts() }); ok {
		refresher.RefreshCounts()
	}

	if err := cs.loadNextPair(); err != nil {
		cs.statusBar.SetText(fmt.Sprintf("[red]%v[-]", err))
		return
	}

	cs.statusBar.SetText(fmt.Sprintf("[green]Recorded: %s beat %s[-]",
		truncate(winner.Display(), 40), truncate(loser.Display(), 40)))
}

// skipPair asks for a different pair without recording a verdict.
func (cs *ComparisonScreen) skipPair() {
	if cs.matchup == nil {
		return
	}

	if err := cs.loadNextPair(); err != nil {
		cs.statusBar.SetText(fmt.Sprintf("[red]%v[-]", err))
		return
	}

	cs.statusBar.SetText("[yellow]Skipped - nothing recorded[-]")
}

// refreshProgress recounts explored pairs for the coverage bar.
func (cs *ComparisonScreen) refreshProgress(trackCount int, comparisons []data.Comparison) {
	seen := make(map[string]bool)
	for _, c := range comparisons {
		seen[pairKey(c.WinnerID, c.LoserID)] = true
	}

	totalPairs := trackCount * (trackCount - 1) / 2
	cs.progress.Update(len(seen), totalPairs, len(comparisons))
}

// pairKey builds an order-independent key for a pair of track ids.
func pairKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + "|" + b
}

// getStore extracts the track store from the app reference
func (cs *ComparisonScreen) getStore() *data.Store {
	if app, ok := cs.app.(interface{ GetStore() *data.Store }); ok {
		return app.GetStore()
	}
	return nil
}

// getConfig extracts the configuration from the app reference
func (cs *ComparisonScreen) getConfig() *data.Config {
	if app, ok := cs.app.(interface{ GetConfig() *data.Config }); ok {
		return app.GetConfig()
	}
	return nil
}

// getRanker extracts the ranking engine from the app reference
func (cs *ComparisonScreen) getRanker() *rank.Ranker {
	if app, ok := cs.app.(interface{ GetRanker() *rank.Ranker }); ok {
		return app.GetRanker()
	}
	return nil
}

// truncate shortens a string for single-line display.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
