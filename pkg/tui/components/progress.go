// Package components provides reusable TUI widgets for track ranking.
// This file implements a textual coverage bar showing how much of the
// pairwise comparison space has been explored so far.
package components

import (
	"fmt"
	"strings"

	"github.com/rivo/tview"
)

// Progress renders pairwise coverage as a block-character bar with counters
type Progress struct {
	view *tview.TextView

	comparedPairs int
	totalPairs    int
	comparisons   int

	barWidth   int
	showCounts bool
}

// ProgressConfig holds display options for the coverage bar
type ProgressConfig struct {
	BarWidth   int
	ShowCounts bool
}

// DefaultProgressConfig returns sensible defaults for the coverage bar.
func DefaultProgressConfig() ProgressConfig {
	return ProgressConfig{
		BarWidth:   30,
		ShowCounts: true,
	}
}

// NewProgress creates a coverage bar component.
func NewProgress(config ProgressConfig) *Progress {
	p := &Progress{
		view:       tview.NewTextView(),
		barWidth:   config.BarWidth,
		showCounts: config.ShowCounts,
	}

	if p.barWidth <= 0 {
		p.barWidth = 30
	}

	p.view.SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)
	p.view.SetBorder(true).
		SetTitle(" Coverage ").
		SetTitleAlign(tview.AlignLeft)

	p.render()

	return p
}

// Update refreshes the bar with the current exploration counts.
// comparedPairs counts distinct unordered pairs with at least one verdict,
// totalPairs the theoretical pair count, comparisons every recorded verdict.
func (p *Progress) Update(comparedPairs, totalPairs, comparisons int) {
	if comparedPairs < 0 {
		comparedPairs = 0
	}
	if totalPairs < 0 {
		totalPairs = 0
	}
	if comparisons < 0 {
		comparisons = 0
	}

	p.comparedPairs = comparedPairs
	p.totalPairs = totalPairs
	p.comparisons = comparisons

	p.render()
}

// Coverage returns the explored share of the pair space in [0, 1].
func (p *Progress) Coverage() float64 {
	if p.totalPairs == 0 {
		return 0.0
	}

	coverage := float64(p.comparedPairs) / float64(p.totalPairs)
	if coverage > 1.0 {
		coverage = 1.0
	}
	return coverage
}

// GetContainer returns the primitive for embedding in screen layouts
func (p *Progress) GetContainer() tview.Primitive {
	return p.view
}

// render rebuilds the bar text from the current counts
func (p *Progress) render() {
	coverage := p.Coverage()

	text := p.renderBar(coverage) + fmt.Sprintf(" [white]%.1f%%[-]", coverage*100)
	if p.showCounts {
		text += fmt.Sprintf("\n[gray]Pairs: %d/%d | Comparisons: %d[-]",
			p.comparedPairs, p.totalPairs, p.comparisons)
	}

	p.view.SetText(text)
}

// renderBar creates a visual progress bar using text characters
func (p *Progress) renderBar(progress float64) string {
	filledWidth := int(progress * float64(p.barWidth))
	if filledWidth > p.barWidth {
		filledWidth = p.barWidth
	}

	color := "[blue]"
	if progress >= 0.95 {
		color = "[green]"
	}

	return color + strings.Repeat("█", filledWidth) + "[gray]" + strings.Repeat("░", p.barWidth-filledWidth) + "[-]"
}
