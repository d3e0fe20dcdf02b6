package components

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewProgress(t *testing.T) {
	progress := NewProgress(DefaultProgressConfig())

	assert.NotNil(t, progress)
	assert.NotNil(t, progress.GetContainer())
	assert.Equal(t, 30, progress.barWidth)
	assert.True(t, progress.showCounts)
}

func TestNewProgressAppliesFallbacks(t *testing.T) {
	progress := NewProgress(ProgressConfig{})

	assert.Equal(t, 30, progress.barWidth)
	assert.False(t, progress.showCounts)
}

func TestProgressCoverage(t *testing.T) {
	progress := NewProgress(DefaultProgressConfig())

	assert.Equal(t, 0.0, progress.Coverage())

	progress.Update(3, 10, 5)
	assert.InDelta(t, 0.3, progress.Coverage(), 1e-9)

	// More explored pairs than theoretical pairs clamps to full.
	progress.Update(12, 10, 20)
	assert.Equal(t, 1.0, progress.Coverage())

	// An empty catalog stays at zero.
	progress.Update(0, 0, 0)
	assert.Equal(t, 0.0, progress.Coverage())
}

func TestProgressIgnoresNegativeCounts(t *testing.T) {
	progress := NewProgress(DefaultProgressConfig())

	progress.Update(-3, -10, -5)

	assert.Equal(t, 0.0, progress.Coverage())
	assert.Equal(t, 0, progress.comparedPairs)
	assert.Equal(t, 0, progress.comparisons)
}

func TestProgressRendersCounts(t *testing.T) {
	progress := NewProgress(DefaultProgressConfig())

	progress.Update(3, 15, 7)

	text := progress.view.GetText(true)
	assert.Contains(t, text, "20.0%")
	assert.Contains(t, text, "3/15")
	assert.Contains(t, text, "7")
}

func TestProgressRenderBar(t *testing.T) {
	progress := NewProgress(ProgressConfig{BarWidth: 10})

	bar := progress.renderBar(0.5)
	assert.Equal(t, 5, strings.Count(bar, "█"))
	assert.Equal(t, 5, strings.Count(bar, "░"))

	full := progress.renderBar(1.0)
	assert.Equal(t, 10, strings.Count(full, "█"))
	assert.Contains(t, full, "[green]")

	empty := progress.renderBar(0.0)
	assert.Equal(t, 10, strings.Count(empty, "░"))
	assert.Contains(t, empty, "[blue]")
}
