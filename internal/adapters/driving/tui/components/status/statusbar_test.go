package status

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/autoreview/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/autoreview/internal/adapters/driving/tui/styles"
)

func TestNewBar(t *testing.T) {
	bar := NewBar(styles.DefaultStyles(), keymap.DefaultKeyMap())

	require.NotNil(t, bar)
	assert.Equal(t, StateLoading, bar.State())
	assert.Equal(t, "", bar.Message())
	assert.Equal(t, 80, bar.Width())
}

func TestNewBar_NilStyles(t *testing.T) {
	bar := NewBar(nil, nil)

	require.NotNil(t, bar)
	assert.NotNil(t, bar.styles)
	assert.NotNil(t, bar.keymap)
}

func TestStatusBar_Update(t *testing.T) {
	bar := NewBar(nil, nil)

	updated, cmd := bar.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, bar, updated)
	assert.Nil(t, cmd)
}

func TestStatusBar_View(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(b *Bar)
		contains []string
	}{
		{
			name:     "loading",
			setup:    func(*Bar) {},
			contains: []string{"Loading report..."},
		},
		{
			name: "ready with counts",
			setup: func(b *Bar) {
				b.SetState(StateReady)
				b.SetCounts(12, 0)
			},
			contains: []string{"12 paragraphs", "enter: open", "s: sort"},
		},
		{
			name: "incomplete paragraphs",
			setup: func(b *Bar) {
				b.SetState(StateReady)
				b.SetCounts(12, 2)
			},
			contains: []string{"12 paragraphs", "2 incomplete"},
		},
		{
			name: "detail hints",
			setup: func(b *Bar) {
				b.SetState(StateDetail)
				b.SetCounts(3, 0)
			},
			contains: []string{"n: next", "p: previous", "esc: back"},
		},
		{
			name: "error message",
			setup: func(b *Bar) {
				b.SetState(StateError)
				b.SetMessage("no report")
			},
			contains: []string{"Error: no report"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bar := NewBar(nil, nil)
			bar.SetWidth(120)
			tt.setup(bar)

			view := bar.View()
			for _, want := range tt.contains {
				assert.Contains(t, view, want)
			}
		})
	}
}

func TestStatusBar_Bindings(t *testing.T) {
	bar := NewBar(nil, nil)
	assert.Len(t, bar.Bindings(), 4)

	bar.SetState(StateDetail)
	assert.Len(t, bar.Bindings(), 3)
}
