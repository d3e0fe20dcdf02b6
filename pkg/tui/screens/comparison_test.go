package screens

import (
	"math/rand"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gdamore/tcell/v2"

	"github.com/pashagolub/trackelo/pkg/data"
	"github.com/pashagolub/trackelo/pkg/rank"
)

// screenMockApp implements the accessor interfaces the screens expect
type screenMockApp struct {
	store     *data.Store
	config    *data.Config
	ranker    *rank.Ranker
	refreshes int
	wentBack  bool
}

func (m *screenMockApp) GetStore() *data.Store   { return m.store }
func (m *screenMockApp) GetConfig() *data.Config { return m.config }
func (m *screenMockApp) GetRanker() *rank.Ranker { return m.ranker }
func (m *screenMockApp) RefreshCounts()          { m.refreshes++ }

func (m *screenMockApp) GoBack() error {
	m.wentBack = true
	return nil
}

// newScreenTestApp opens a temporary store seeded with one track per id.
func newScreenTestApp(t *testing.T, ids ...string) *screenMockApp {
	t.Helper()

	store, err := data.OpenStore(filepath.Join(t.TempDir(), "screens.db"))
	if err != nil {
		t.Fatalf("OpenStore() failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	if len(ids) > 0 {
		tracks := make([]data.Track, len(ids))
		for i, id := range ids {
			tracks[i] = data.Track{ID: id, Title: "Track " + id, Artist: "Artist " + id}
		}
		if _, err := store.AddTracks(tracks); err != nil {
			t.Fatalf("AddTracks() failed: %v", err)
		}
	}

	config := data.DefaultConfig()
	ranker, err := rank.NewRanker(rank.DefaultOptions())
	if err != nil {
		t.Fatalf("NewRanker() failed: %v", err)
	}

	return &screenMockApp{store: store, config: &config, ranker: ranker}
}

func TestNewComparisonScreen(t *testing.T) {
	screen := NewComparisonScreen(nil)

	if screen == nil {
		t.Fatal("NewComparisonScreen() returned nil")
	}

	if screen.container == nil {
		t.Error("Container not initialized")
	}

	if screen.leftCard == nil || screen.rightCard == nil {
		t.Error("Track cards not initialized")
	}

	if screen.progress == nil {
		t.Error("Coverage bar not initialized")
	}

	if screen.rng == nil {
		t.Error("Random source not initialized")
	}
}

func TestComparisonScreen_GetPrimitive(t *testing.T) {
	screen := NewComparisonScreen(nil)

	if screen.GetPrimitive() != screen.container {
		t.Error("GetPrimitive() did not return the container")
	}
}

func TestComparisonScreen_GetTitle(t *testing.T) {
	screen := NewComparisonScreen(nil)

	if got := screen.GetTitle(); got != "Compare Tracks (0 recorded)" {
		t.Errorf("Unexpected title: %s", got)
	}
}

func TestComparisonScreen_OnEnterLoadsPair(t *testing.T) {
	app := newScreenTestApp(t, "a", "b", "c")
	screen := NewComparisonScreen(rand.New(rand.NewSource(1)))

	if err := screen.OnEnter(app); err != nil {
		t.Fatalf("OnEnter() failed: %v", err)
	}

	if screen.matchup == nil {
		t.Fatal("Expected a matchup to be proposed")
	}

	if screen.left == nil || screen.right == nil {
		t.Fatal("Expected both tracks to be loaded")
	}

	if screen.left.ID == screen.right.ID {
		t.Errorf("Pair must hold two distinct tracks, got %s twice", screen.left.ID)
	}
}

func TestComparisonScreen_OnEnterWithoutTracks(t *testing.T) {
	app := newScreenTestApp(t)
	screen := NewComparisonScreen(rand.New(rand.NewSource(1)))

	if err := screen.OnEnter(app); err != nil {
		t.Fatalf("OnEnter() should tolerate an empty catalog, got: %v", err)
	}

	if screen.matchup != nil {
		t.Error("No matchup expected without tracks")
	}
}

func TestComparisonScreen_RecordWinner(t *testing.T) {
	app := newScreenTestApp(t, "a", "b")
	screen := NewComparisonScreen(rand.New(rand.NewSource(2)))

	if err := screen.OnEnter(app); err != nil {
		t.Fatalf("OnEnter() failed: %v", err)
	}

	winner := screen.left.ID
	screen.recordWinner(true)

	count, err := app.store.ComparisonCount()
	if err != nil {
		t.Fatalf("ComparisonCount() failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("Expected 1 recorded comparison, got %d", count)
	}

	comparisons, err := app.store.Comparisons()
	if err != nil {
		t.Fatalf("Comparisons() failed: %v", err)
	}
	if comparisons[0].WinnerID != winner {
		t.Errorf("Expected winner %s, got %s", winner, comparisons[0].WinnerID)
	}

	if screen.recorded != 1 {
		t.Errorf("Expected 1 verdict this session, got %d", screen.recorded)
	}

	if app.refreshes == 0 {
		t.Error("Expected the app counters to be refreshed")
	}

	if screen.matchup == nil {
		t.Error("Expected a follow-up pair after recording")
	}
}

func TestComparisonScreen_RecordWinnerRightSide(t *testing.T) {
	app := newScreenTestApp(t, "a", "b")
	screen := NewComparisonScreen(rand.New(rand.NewSource(3)))

	if err := screen.OnEnter(app); err != nil {
		t.Fatalf("OnEnter() failed: %v", err)
	}

	winner := screen.right.ID
	screen.recordWinner(false)

	comparisons, err := app.store.Comparisons()
	if err != nil {
		t.Fatalf("Comparisons() failed: %v", err)
	}
	if len(comparisons) != 1 {
		t.Fatalf("Expected 1 comparison, got %d", len(comparisons))
	}
	if comparisons[0].WinnerID != winner {
		t.Errorf("Expected winner %s, got %s", winner, comparisons[0].WinnerID)
	}
}

func TestComparisonScreen_RecordWithoutPairIsNoop(t *testing.T) {
	app := newScreenTestApp(t)
	screen := NewComparisonScreen(rand.New(rand.NewSource(4)))

	if err := screen.OnEnter(app); err != nil {
		t.Fatalf("OnEnter() failed: %v", err)
	}

	screen.recordWinner(true)

	count, err := app.store.ComparisonCount()
	if err != nil {
		t.Fatalf("ComparisonCount() failed: %v", err)
	}
	if count != 0 {
		t.Errorf("Nothing should be recorded without a pair, got %d", count)
	}
}

func TestComparisonScreen_SkipLeavesLogUntouched(t *testing.T) {
	app := newScreenTestApp(t, "a", "b", "c")
	screen := NewComparisonScreen(rand.New(rand.NewSource(5)))

	if err := screen.OnEnter(app); err != nil {
		t.Fatalf("OnEnter() failed: %v", err)
	}

	screen.skipPair()

	count, err := app.store.ComparisonCount()
	if err != nil {
		t.Fatalf("ComparisonCount() failed: %v", err)
	}
	if count != 0 {
		t.Errorf("Skip must not record anything, got %d comparisons", count)
	}

	if screen.matchup == nil {
		t.Error("Expected a fresh pair after skipping")
	}
}

func TestComparisonScreen_HandleInput(t *testing.T) {
	app := newScreenTestApp(t, "a", "b")
	screen := NewComparisonScreen(rand.New(rand.NewSource(6)))

	if err := screen.OnEnter(app); err != nil {
		t.Fatalf("OnEnter() failed: %v", err)
	}

	event := tcell.NewEventKey(tcell.KeyRune, '2', tcell.ModNone)
	if screen.handleInput(event) != nil {
		t.Error("Expected '2' to be consumed")
	}

	count, err := app.store.ComparisonCount()
	if err != nil {
		t.Fatalf("ComparisonCount() failed: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected '2' to record a comparison, got %d", count)
	}

	other := tcell.NewEventKey(tcell.KeyRune, 'x', tcell.ModNone)
	if screen.handleInput(other) == nil {
		t.Error("Expected unrelated keys to pass through")
	}
}

func TestComparisonScreen_CardContent(t *testing.T) {
	track := &data.Track{ID: "t1", Title: "Blue in Green", Artist: "Miles Davis", Album: "Kind of Blue"}
	ratings := map[string]float64{"t1": 1516.0}

	card := formatTrackCard(track, ratings)

	for _, want := range []string{"Blue in Green", "Miles Davis", "Kind of Blue", "1516"} {
		if !strings.Contains(card, want) {
			t.Errorf("Card should contain %q, got: %s", want, card)
		}
	}

	// Title falls back to the id, missing fields stay off the card.
	bare := formatTrackCard(&data.Track{ID: "t2"}, nil)
	if !strings.Contains(bare, "t2") {
		t.Errorf("Card should fall back to the id, got: %s", bare)
	}
	if strings.Contains(bare, "Artist:") {
		t.Errorf("Empty artist should be omitted, got: %s", bare)
	}

	if got := formatTrackCard(nil, nil); !strings.Contains(got, "No track") {
		t.Errorf("Nil track should render a placeholder, got: %s", got)
	}
}

func TestPairKey(t *testing.T) {
	if pairKey("b", "a") != pairKey("a", "b") {
		t.Error("pairKey must be order independent")
	}

	if pairKey("a", "b") == pairKey("a", "c") {
		t.Error("Different pairs must produce different keys")
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("Expected 'short', got %q", got)
	}

	if got := truncate("a very long track title", 10); got != "a very ..." {
		t.Errorf("Expected 'a very ...', got %q", got)
	}
}
