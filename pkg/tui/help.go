// Package tui provides the terminal user interface for track ranking.
// This file implements the help screen with keyboard shortcuts and
// workflow notes.
package tui

import (
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// HelpScreen provides help and keyboard shortcut information
type HelpScreen struct {
	root     *tview.Flex
	textView *tview.TextView
	app      *App
}

// NewHelpScreen creates a new help screen
func NewHelpScreen() *HelpScreen {
	hs := &HelpScreen{
		root:     tview.NewFlex(),
		textView: tview.NewTextView(),
	}

	hs.setupLayout()
	return hs
}

// GetPrimitive returns the root primitive for this screen
func (hs *HelpScreen) GetPrimitive() tview.Primitive {
	return hs.root
}

// OnEnter is called when the help screen becomes active
func (hs *HelpScreen) OnEnter(app interface{}) error {
	if a, ok := app.(*App); ok {
		hs.app = a
	}
	hs.updateContent()
	return nil
}

// OnExit is called when leaving the help screen
func (hs *HelpScreen) OnExit(app interface{}) error {
	return nil
}

// GetTitle returns the screen title
func (hs *HelpScreen) GetTitle() string {
	return "Help"
}

// setupLayout configures the help screen layout
func (hs *HelpScreen) setupLayout() {
	hs.textView.SetWrap(true).
		SetDynamicColors(true).
		SetScrollable(true)
	hs.textView.SetBorder(true).
		SetTitle(" Help - Trackelo ").
		SetTitleAlign(tview.AlignCenter)

	hs.textView.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() == tcell.KeyEsc {
			if hs.app != nil {
				go hs.app.GoBack()
			}
			return nil
		}

		return event
	})

	hs.root.AddItem(hs.textView, 0, 1, true)
}

// updateContent updates the help screen content
func (hs *HelpScreen) updateContent() {
	var content strings.Builder

	content.WriteString("[yellow]Trackelo - Track Ranking[-]\n\n")
	content.WriteString("Rank the tracks in your library through pairwise comparisons.\n")
	content.WriteString("Every verdict lands in an append-only log; scores and orderings\n")
	content.WriteString("are recomputed from that log on demand and never stored.\n\n")

	content.WriteString("[green]Global Keyboard Shortcuts[-]\n")
	content.WriteString("═════════════════════════════\n")
	for _, binding := range globalKeyBindings {
		keyText := ""
		if binding.Key != tcell.KeyRune {
			keyText = tcell.KeyNames[binding.Key]
		} else {
			keyText = string(binding.Rune)
		}
		content.WriteString("[white]")
		content.WriteString(keyText)
		content.WriteString("[-]  - ")
		content.WriteString(binding.Description)
		content.WriteString("\n")
	}

	content.WriteString("\n[green]Comparison Screen[-]\n")
	content.WriteString("═══════════════════\n")
	content.WriteString("[white]1[-]    - The left track wins\n")
	content.WriteString("[white]2[-]    - The right track wins\n")
	content.WriteString("[white]s[-]    - Skip this pair without recording\n")

	content.WriteString("\n[green]Ranking Screen[-]\n")
	content.WriteString("════════════════\n")
	content.WriteString("[white]m[-]    - Cycle through scoring modes\n")
	content.WriteString("[white]e[-]    - Export the current ranking\n")
	content.WriteString("[white]Esc[-]  - Back to the previous screen\n")

	content.WriteString("\n[green]Scoring Modes[-]\n")
	content.WriteString("═══════════════\n")
	content.WriteString("[white]default[-]       - Order from wins, cyclic groups shown as ties\n")
	content.WriteString("[white]elo[-]           - Chess-style ratings replayed in log order\n")
	content.WriteString("[white]bradley-terry[-] - Maximum-likelihood strengths from win counts\n")
	content.WriteString("[white]best-fit[-]      - Net wins with head-to-head tie-breaks\n")
	content.WriteString("[white]margin[-]        - Win margin normalized by games played\n")

	content.WriteString("\n[green]Typical Workflow[-]\n")
	content.WriteString("══════════════════\n")
	content.WriteString("1. Import your track catalog from CSV with the import command\n")
	content.WriteString("2. Compare pairs on the [white]Comparison[-] screen until coverage feels right\n")
	content.WriteString("3. Check the [white]Ranking[-] screen, cycling modes to compare orderings\n")
	content.WriteString("4. Export the result as CSV, JSON, or a text report\n")

	content.WriteString("\n[green]Tips[-]\n")
	content.WriteString("════\n")
	content.WriteString("• Pairs are proposed from the least-compared tracks first\n")
	content.WriteString("• A verdict between close ratings carries the most information\n")
	content.WriteString("• The comparison log can be audited and verified for tampering\n")
	content.WriteString("• All data stays in a single local SQLite file\n")

	hs.textView.SetText(content.String())
}
