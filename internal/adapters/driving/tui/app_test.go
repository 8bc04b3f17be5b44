package tui

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/autoreview/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/autoreview/internal/core/domain"
)

// mockReportLoader returns a canned report.
type mockReportLoader struct {
	report *domain.ConsolidatedReport
	err    error
	dir    string
}

func (m *mockReportLoader) ReadReport(_ context.Context, dir string) (*domain.ConsolidatedReport, error) {
	m.dir = dir
	return m.report, m.err
}

func ptr(v float64) *float64 { return &v }

func testReport() *domain.ConsolidatedReport {
	return &domain.ConsolidatedReport{
		DocumentPath:      "notes.md",
		OverallScore:      ptr(3),
		ScaleMin:          1,
		ScaleMax:          5,
		ExpectedFindings:  4,
		SucceededFindings: 3,
		Paragraphs: []domain.ParagraphReport{
			{ParagraphID: "a", Ordinal: 0, Text: "First paragraph.", OverallScore: ptr(4), Succeeded: 2},
			{ParagraphID: "b", Ordinal: 1, Text: "Second paragraph.", Incomplete: true, Failed: 1, Succeeded: 1},
		},
	}
}

func keyMsg(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func newLoadedApp(t *testing.T) *App {
	t.Helper()
	app, err := NewApp(&Ports{Reports: &mockReportLoader{}}, "notes-review")
	require.NoError(t, err)
	app.SetDimensions(100, 30)
	app.Update(messages.ReportLoaded{Report: testReport()})
	return app
}

func TestNewApp(t *testing.T) {
	t.Run("missing loader", func(t *testing.T) {
		app, err := NewApp(&Ports{}, "out")
		assert.ErrorIs(t, err, ErrMissingReportLoader)
		assert.Nil(t, app)
	})

	t.Run("missing directory", func(t *testing.T) {
		app, err := NewApp(&Ports{Reports: &mockReportLoader{}}, "")
		assert.ErrorIs(t, err, ErrMissingDirectory)
		assert.Nil(t, app)
	})

	t.Run("starts on the paragraph list", func(t *testing.T) {
		app, err := NewApp(&Ports{Reports: &mockReportLoader{}}, "out")
		require.NoError(t, err)
		assert.Equal(t, messages.ViewParagraphs, app.CurrentView())
		assert.False(t, app.Ready())
		assert.Equal(t, "Initialising...", app.View())
	})
}

func TestApp_LoadReport(t *testing.T) {
	loader := &mockReportLoader{report: testReport()}
	app, err := NewApp(&Ports{Reports: loader}, "notes-review")
	require.NoError(t, err)

	msg := app.loadReport()()
	loaded, ok := msg.(messages.ReportLoaded)
	require.True(t, ok)
	assert.Equal(t, "notes-review", loader.dir)
	assert.Equal(t, testReport(), loaded.Report)
	assert.NotNil(t, app.Init())
}

func TestApp_ReportLoaded(t *testing.T) {
	app := newLoadedApp(t)

	require.NotNil(t, app.Report())
	view := app.View()
	assert.Contains(t, view, "notes.md")
	assert.Contains(t, view, "Overall 3.00 / 5")
	assert.Contains(t, view, "3 of 4 findings ok")
	assert.Contains(t, view, "partial")
	assert.Contains(t, view, "2 paragraphs, 1 incomplete")
}

func TestApp_LoadError(t *testing.T) {
	app, err := NewApp(&Ports{Reports: &mockReportLoader{}}, "missing")
	require.NoError(t, err)
	app.SetDimensions(100, 30)

	app.Update(messages.ReportLoaded{Err: errors.New("no consolidated.json")})

	assert.Error(t, app.Err())
	view := app.View()
	assert.Contains(t, view, "Could not load report from missing")
	assert.Contains(t, view, "Error: no consolidated.json")
}

func TestApp_OpenParagraphAndBack(t *testing.T) {
	app := newLoadedApp(t)

	app.Update(keyMsg("j"))
	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Equal(t, messages.ParagraphSelected{Index: 1}, cmd())

	app.Update(cmd())
	assert.Equal(t, messages.ViewParagraph, app.CurrentView())
	assert.Contains(t, app.View(), "Paragraph 2 of 2")

	_, cmd = app.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	app.Update(cmd())
	assert.Equal(t, messages.ViewParagraphs, app.CurrentView())
}

func TestApp_Help(t *testing.T) {
	app := newLoadedApp(t)

	app.Update(keyMsg("?"))
	assert.Equal(t, messages.ViewHelp, app.CurrentView())
	assert.Contains(t, app.View(), "previous")

	app.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, messages.ViewParagraphs, app.CurrentView())
}

func TestApp_Quit(t *testing.T) {
	tests := []struct {
		name string
		msg  tea.Msg
	}{
		{"q on list", keyMsg("q")},
		{"ctrl+c", tea.KeyMsg{Type: tea.KeyCtrlC}},
		{"quit message", messages.Quit{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newLoadedApp(t)
			_, cmd := app.Update(tt.msg)
			require.NotNil(t, cmd)
			assert.Equal(t, tea.Quit(), cmd())
		})
	}
}

func TestApp_QIgnoredInDetail(t *testing.T) {
	app := newLoadedApp(t)
	app.Update(messages.ParagraphSelected{Index: 0})

	_, cmd := app.Update(keyMsg("q"))
	assert.Nil(t, cmd)
	assert.Equal(t, messages.ViewParagraph, app.CurrentView())
}

func TestApp_WithContext(t *testing.T) {
	app, err := NewApp(&Ports{Reports: &mockReportLoader{}}, "out")
	require.NoError(t, err)

	type contextKey string
	ctx := context.WithValue(context.Background(), contextKey("key"), "value")

	assert.Same(t, app, app.WithContext(ctx))
	assert.Equal(t, ctx, app.ctx)
}
