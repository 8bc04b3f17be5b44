package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/autoreview/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/autoreview/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/autoreview/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/autoreview/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/autoreview/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/autoreview/internal/adapters/driving/tui/views/paragraph"
	"github.com/custodia-labs/autoreview/internal/core/domain"
)

// App browses the consolidated report of one run. It implements tea.Model.
type App struct {
	ports *Ports
	dir   string
	ctx   context.Context

	styles *styles.Styles
	keymap *keymap.KeyMap

	list          *list.ParagraphList
	paragraphView *paragraph.View
	statusBar     *status.Bar

	report      *domain.ConsolidatedReport
	currentView messages.ViewType
	err         error

	width  int
	height int
	ready  bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a browser for the run outputs in dir.
func NewApp(ports *Ports, dir string) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}
	if dir == "" {
		return nil, ErrMissingDirectory
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()
	return &App{
		ports:         ports,
		dir:           dir,
		ctx:           context.Background(),
		styles:        s,
		keymap:        km,
		list:          list.NewParagraphList(s),
		paragraphView: paragraph.NewView(s),
		statusBar:     status.NewBar(s, km),
		currentView:   messages.ViewParagraphs,
	}, nil
}

// WithContext sets the context used to load the report.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.SetWindowTitle("autoreview - "+a.dir),
		a.loadReport(),
	)
}

func (a *App) loadReport() tea.Cmd {
	return func() tea.Msg {
		report, err := a.ports.Reports.ReadReport(a.ctx, a.dir)
		return messages.ReportLoaded{Report: report, Err: err}
	}
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case messages.ReportLoaded:
		if msg.Err != nil {
			a.setError(msg.Err)
			return a, nil
		}
		a.setReport(msg.Report)
		return a, nil

	case messages.ParagraphSelected:
		a.paragraphView.SetIndex(msg.Index)
		a.currentView = messages.ViewParagraph
		a.statusBar.SetState(status.StateDetail)
		return a, nil

	case messages.ViewChanged:
		a.currentView = msg.View
		if msg.View == messages.ViewParagraph {
			a.statusBar.SetState(status.StateDetail)
		} else if a.report != nil {
			a.statusBar.SetState(status.StateReady)
		}
		return a, nil

	case messages.ErrorOccurred:
		a.setError(msg.Err)
		return a, nil

	case messages.Quit:
		return a, tea.Quit

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		return a.handleKey(msg)
	}

	if a.currentView == messages.ViewParagraph {
		a.paragraphView, cmd = a.paragraphView.Update(msg)
	}
	return a, cmd
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	keyStr := msg.String()

	switch a.currentView {
	case messages.ViewHelp:
		if keymap.Matches(keyStr, a.keymap.Back) || keymap.Matches(keyStr, a.keymap.Help) {
			return a.Update(messages.ViewChanged{View: messages.ViewParagraphs})
		}
		if keymap.Matches(keyStr, a.keymap.Quit) {
			return a, tea.Quit
		}
		return a, nil

	case messages.ViewParagraph:
		a.paragraphView, cmd = a.paragraphView.Update(msg)
		return a, cmd

	default:
		switch {
		case keymap.Matches(keyStr, a.keymap.Quit):
			return a, tea.Quit
		case keymap.Matches(keyStr, a.keymap.Help):
			a.currentView = messages.ViewHelp
			return a, nil
		case keymap.Matches(keyStr, a.keymap.Select):
			if i := a.list.SelectedIndex(); i >= 0 {
				index := i
				return a, func() tea.Msg { return messages.ParagraphSelected{Index: index} }
			}
			return a, nil
		}
		a.list, cmd = a.list.Update(msg)
		return a, cmd
	}
}

func (a *App) setReport(report *domain.ConsolidatedReport) {
	a.report = report
	a.err = nil
	a.list.SetReport(report)
	a.paragraphView.SetReport(report)

	incomplete := 0
	for i := range report.Paragraphs {
		if report.Paragraphs[i].Incomplete {
			incomplete++
		}
	}
	a.statusBar.SetCounts(len(report.Paragraphs), incomplete)
	a.statusBar.SetState(status.StateReady)
}

func (a *App) setError(err error) {
	a.err = err
	a.statusBar.SetState(status.StateError)
	a.statusBar.SetMessage(err.Error())
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	var body string
	switch a.currentView {
	case messages.ViewParagraph:
		body = a.paragraphView.View()
	case messages.ViewHelp:
		body = a.viewHelp()
	default:
		body = a.viewParagraphs()
	}
	return body + "\n" + a.statusBar.View()
}

func (a *App) viewParagraphs() string {
	if a.report == nil {
		if a.err != nil {
			return a.styles.Error.Render("Could not load report from " + a.dir)
		}
		return a.styles.Muted.Render("Loading " + a.dir + "...")
	}

	r := a.report
	var b strings.Builder
	b.WriteString(a.styles.Title.Render("autoreview"))
	b.WriteString("  ")
	b.WriteString(a.styles.Normal.Render(r.DocumentPath))
	b.WriteString("\n")

	overall := a.styles.OptionalScore(r.OverallScore, r.ScaleMin, r.ScaleMax)
	fmt.Fprintf(&b, "Overall %s / %d   %d of %d findings ok", overall, r.ScaleMax,
		r.SucceededFindings, r.ExpectedFindings)
	if !r.Complete {
		b.WriteString("   " + a.styles.Warning.Render("partial"))
	}
	b.WriteString("\n\n")
	b.WriteString(a.list.View())
	return b.String()
}

func (a *App) viewHelp() string {
	var b strings.Builder
	b.WriteString(a.styles.Title.Render("Help"))
	b.WriteString("\n\n")
	for _, group := range a.keymap.FullHelp() {
		for _, binding := range group {
			h := binding.Help()
			fmt.Fprintf(&b, "  %-8s %s\n", h.Key, h.Desc)
		}
		b.WriteString("\n")
	}
	b.WriteString(a.styles.Help.Render("[esc] back"))
	return b.String()
}

// Run starts the TUI application.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(a.ctx))
	_, err := p.Run()
	return err
}

// CurrentView returns the current view type.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}

// Report returns the loaded report, or nil.
func (a *App) Report() *domain.ConsolidatedReport {
	return a.report
}

// Err returns the last error that occurred.
func (a *App) Err() error {
	return a.err
}

// Ready returns whether the app has received its dimensions.
func (a *App) Ready() bool {
	return a.ready
}

// SetDimensions sets the terminal dimensions.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	// header and status bar
	a.list.SetDimensions(width, height-4)
	a.paragraphView.SetDimensions(width, height-1)
	a.statusBar.SetWidth(width)
}
