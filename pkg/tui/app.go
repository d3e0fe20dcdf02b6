// Package tui provides the terminal user interface for track ranking.
// This file implements the main application framework with screen
// management, navigation, and global keyboard shortcuts.
package tui

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/pashagolub/trackelo/pkg/data"
	"github.com/pashagolub/trackelo/pkg/logging"
	"github.com/pashagolub/trackelo/pkg/rank"
)

// ScreenType identifies the different screens in the application
type ScreenType int

const (
	ScreenComparison ScreenType = iota
	ScreenRanking
	ScreenHelp
)

// String returns the string representation of a screen type
func (st ScreenType) String() string {
	switch st {
	case ScreenComparison:
		return "comparison"
	case ScreenRanking:
		return "ranking"
	case ScreenHelp:
		return "help"
	default:
		return "unknown"
	}
}

// Screen defines the interface that all application screens must implement
type Screen interface {
	// GetPrimitive returns the main UI component for this screen
	GetPrimitive() tview.Primitive

	// OnEnter is called when the screen becomes active
	OnEnter(app interface{}) error

	// OnExit is called when the screen becomes inactive
	OnExit(app interface{}) error

	// GetTitle returns the screen title for display
	GetTitle() string
}

// AppState holds the shared state of the TUI application
type AppState struct {
	mu sync.RWMutex

	currentScreen  ScreenType
	previousScreen ScreenType
	isRunning      bool

	// Header counters, refreshed from the store via RefreshCounts
	trackCount      int
	comparisonCount int
}

// App represents the main TUI application
type App struct {
	tviewApp *tview.Application
	pages    *tview.Pages
	layout   *tview.Flex
	header   *tview.TextView
	footer   *tview.TextView

	screens map[ScreenType]Screen
	state   *AppState

	store  *data.Store
	config *data.Config
	ranker *rank.Ranker

	ctx    context.Context
	cancel context.CancelFunc
}

// KeyBinding represents a global keyboard shortcut
type KeyBinding struct {
	Key         tcell.Key
	Rune        rune
	Description string
	Handler     func(app *App) error
}

// globalKeyBindings defines application-wide keyboard shortcuts.
// Assigned in init rather than a static initializer because the handlers
// reference App methods that in turn read this slice, which the compiler
// rejects as an initialization cycle.
var globalKeyBindings []KeyBinding

func init() {
	globalKeyBindings = []KeyBinding{
		{
			Key:         tcell.KeyRune,
			Rune:        'q',
			Description: "Quit",
			Handler: func(app *App) error {
				return app.Exit()
			},
		},
		{
			Key:         tcell.KeyRune,
			Rune:        'c',
			Description: "Compare",
			Handler: func(app *App) error {
				return app.ShowComparison()
			},
		},
		{
			Key:         tcell.KeyRune,
			Rune:        'r',
			Description: "Rankings",
			Handler: func(app *App) error {
				return app.ShowRanking()
			},
		},
		{
			Key:         tcell.KeyRune,
			Rune:        'h',
			Description: "Help",
			Handler: func(app *App) error {
				return app.ShowHelp()
			},
		},
		{
			Key:         tcell.KeyF1,
			Description: "Help",
			Handler: func(app *App) error {
				return app.ShowHelp()
			},
		},
		{
			Key:         tcell.KeyCtrlC,
			Description: "Quit",
			Handler: func(app *App) error {
				return app.Exit()
			},
		},
	}
}

// NewApp creates a new TUI application backed by an open track store.
func NewApp(store *data.Store, config *data.Config) (*App, error) {
	if store == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}
	if config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	ranker, err := rank.NewRanker(rankOptions(config))
	if err != nil {
		return nil, fmt.Errorf("invalid ranking options: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	app := &App{
		tviewApp: tview.NewApplication(),
		pages:    tview.NewPages(),
		screens:  make(map[ScreenType]Screen),
		state: &AppState{
			currentScreen:  ScreenComparison,
			previousScreen: ScreenComparison,
		},
		store:  store,
		config: config,
		ranker: ranker,
		ctx:    ctx,
		cancel: cancel,
	}

	app.setupUI()
	app.RefreshCounts()

	return app, nil
}

// rankOptions maps the persisted configuration onto ranking parameters.
func rankOptions(config *data.Config) rank.Options {
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

// setupUI initializes the main application layout
func (a *App) setupUI() {
	a.header = tview.NewTextView()
	a.header.SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)
	a.header.SetBorder(true).
		SetBackgroundColor(tcell.ColorDarkBlue)

	a.footer = tview.NewTextView()
	a.footer.SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)
	a.footer.SetBorder(true).
		SetBackgroundColor(tcell.ColorDarkGreen)

	a.layout = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(a.header, 3, 0, false).
		AddItem(a.pages, 0, 1, true).
		AddItem(a.footer, 3, 0, false)

	a.tviewApp.SetInputCapture(a.handleGlobalInput)
	a.tviewApp.SetRoot(a.layout, true).EnableMouse(true)

	a.tviewApp.SetBeforeDrawFunc(func(screen tcell.Screen) bool {
		a.updateHeader()
		return false
	})

	a.updateHeader()
	a.updateFooter()
}

// RegisterScreen adds a screen to the application
func (a *App) RegisterScreen(screenType ScreenType, screen Screen) error {
	if screen == nil {
		return fmt.Errorf("cannot register nil screen for type %s", screenType)
	}

	a.screens[screenType] = screen
	a.pages.AddPage(screenType.String(), screen.GetPrimitive(), true, false)

	return nil
}

// NavigateTo switches to the specified screen, running the exit hook of
// the current screen and the enter hook of the target. A failing enter
// hook rolls the state back and keeps the current screen active.
func (a *App) NavigateTo(screenType ScreenType) error {
	screen, exists := a.screens[screenType]
	if !exists {
		return fmt.Errorf("screen %s not registered", screenType)
	}

	a.state.mu.RLock()
	current := a.state.currentScreen
	a.state.mu.RUnlock()

	if currentScreen, ok := a.screens[current]; ok && current != screenType {
		if err := currentScreen.OnExit(a); err != nil {
			return fmt.Errorf("failed to exit screen %s: %w", current, err)
		}
	}

	a.state.mu.Lock()
	a.state.previousScreen = current
	a.state.currentScreen = screenType
	a.state.mu.Unlock()

	if err := screen.OnEnter(a); err != nil {
		a.state.mu.Lock()
		a.state.currentScreen = current
		a.state.mu.Unlock()
		return fmt.Errorf("failed to enter screen %s: %w", screenType, err)
	}

	a.pages.SwitchToPage(screenType.String())
	a.updateFooter()

	logging.Debug("switched screen", "from", current.String(), "to", screenType.String())

	return nil
}

// GoBack returns to the previously active screen.
func (a *App) GoBack() error {
	a.state.mu.RLock()
	previous := a.state.previousScreen
	current := a.state.currentScreen
	a.state.mu.RUnlock()

	if previous == current {
		previous = ScreenComparison
	}
	if _, exists := a.screens[previous]; !exists {
		previous = ScreenComparison
	}

	return a.NavigateTo(previous)
}

// ShowComparison navigates to the comparison screen
func (a *App) ShowComparison() error {
	return a.NavigateTo(ScreenComparison)
}

// ShowRanking navigates to the ranking screen
func (a *App) ShowRanking() error {
	return a.NavigateTo(ScreenRanking)
}

// ShowHelp navigates to the help screen
func (a *App) ShowHelp() error {
	return a.NavigateTo(ScreenHelp)
}

// Exit shuts the application down
func (a *App) Exit() error {
	a.cancel()

	a.state.mu.Lock()
	a.state.isRunning = false
	a.state.mu.Unlock()

	a.tviewApp.Stop()
	return nil
}

// Run starts the TUI event loop and blocks until exit.
func (a *App) Run() error {
	if err := a.NavigateTo(ScreenComparison); err != nil {
		return fmt.Errorf("failed to show initial screen: %w", err)
	}

	a.state.mu.Lock()
	a.state.isRunning = true
	a.state.mu.Unlock()

	logging.Info("starting TUI", "database", a.store.Path())

	err := a.tviewApp.Run()

	a.state.mu.Lock()
	a.state.isRunning = false
	a.state.mu.Unlock()

	return err
}

// Stop terminates the application event loop. Safe to call repeatedly.
func (a *App) Stop() {
	a.state.mu.Lock()
	a.state.isRunning = false
	a.state.mu.Unlock()

	a.cancel()
	a.tviewApp.Stop()
}

// GetState returns the application state
func (a *App) GetState() *AppState {
	return a.state
}

// GetStore returns the track store
func (a *App) GetStore() *data.Store {
	return a.store
}

// GetConfig returns the application configuration
func (a *App) GetConfig() *data.Config {
	return a.config
}

// GetRanker returns the shared ranking engine
func (a *App) GetRanker() *rank.Ranker {
	return a.ranker
}

// GetTViewApp returns the underlying tview application
func (a *App) GetTViewApp() *tview.Application {
	return a.tviewApp
}

// RefreshCounts reloads the header counters from the store. Screens call
// this after recording comparisons so the header stays current.
func (a *App) RefreshCounts() {
	ids, err := a.store.TrackIDs()
	if err != nil {
		logging.Warn("failed to count tracks", "error", err)
		return
	}

	count, err := a.store.ComparisonCount()
	if err != nil {
		logging.Warn("failed to count comparisons", "error", err)
		return
	}

	a.state.mu.Lock()
	a.state.trackCount = len(ids)
	a.state.comparisonCount = count
	a.state.mu.Unlock()
}

// TrackCount returns the track count as of the last refresh.
func (a *App) TrackCount() int {
	a.state.mu.RLock()
	defer a.state.mu.RUnlock()
	return a.state.trackCount
}

// ComparisonCount returns the comparison count as of the last refresh.
func (a *App) ComparisonCount() int {
	a.state.mu.RLock()
	defer a.state.mu.RUnlock()
	return a.state.comparisonCount
}

// IsRunning reports whether the event loop is active
func (a *App) IsRunning() bool {
	a.state.mu.RLock()
	defer a.state.mu.RUnlock()
	return a.state.isRunning
}

// GetCurrentScreen returns the active screen type
func (a *App) GetCurrentScreen() ScreenType {
	a.state.mu.RLock()
	defer a.state.mu.RUnlock()
	return a.state.currentScreen
}

// handleGlobalInput processes global keyboard shortcuts. Matched handlers
// run in their own goroutine so navigation never blocks the event loop.
func (a *App) handleGlobalInput(event *tcell.EventKey) *tcell.EventKey {
	for _, binding := range globalKeyBindings {
		var matched bool
		if binding.Key == tcell.KeyRune {
			matched = event.Key() == tcell.KeyRune && event.Rune() == binding.Rune
		} else {
			matched = event.Key() == binding.Key
		}

		if matched {
			go func(handler func(*App) error) {
				if err := handler(a); err != nil {
					a.showErrorDialog("Error", err.Error())
				}
			}(binding.Handler)
			return nil
		}
	}

	return event
}

// updateHeader refreshes the header line with catalog counters
func (a *App) updateHeader() {
	a.state.mu.RLock()
	tracks := a.state.trackCount
	comparisons := a.state.comparisonCount
	a.state.mu.RUnlock()

	a.header.SetText(fmt.Sprintf("[::b]Trackelo[::-] - Track Ranking | %d tracks | %d comparisons | %s",
		tracks, comparisons, filepath.Base(a.store.Path())))
}

// showErrorDialog displays a modal error message over the current screen
func (a *App) showErrorDialog(title, message string) {
	modal := tview.NewModal().
		SetText(fmt.Sprintf("%s\n\n%s", title, message)).
		AddButtons([]string{"OK"}).
		SetDoneFunc(func(buttonIndex int, buttonLabel string) {
			a.pages.RemovePage("error-dialog")
		})

	a.pages.AddPage("error-dialog", modal, true, true)
}

// updateFooter rebuilds the footer from the global key bindings
func (a *App) updateFooter() {
	var parts []string
	seen := make(map[string]bool)

	for _, binding := range globalKeyBindings {
		if seen[binding.Description] {
			continue
		}
		seen[binding.Description] = true

		keyText := ""
		if binding.Key == tcell.KeyRune {
			keyText = string(binding.Rune)
		} else {
			keyText = tcell.KeyNames[binding.Key]
		}
		parts = append(parts, fmt.Sprintf("%s:%s", keyText, binding.Description))
	}

	text := strings.Join(parts, "  ")
	if screen, exists := a.screens[a.GetCurrentScreen()]; exists {
		text += " | " + screen.GetTitle()
	}

	a.footer.SetText(text)
}
