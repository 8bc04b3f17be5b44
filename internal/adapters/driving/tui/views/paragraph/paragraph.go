// Package paragraph provides the paragraph detail view for the TUI.
package paragraph

import (
	"fmt"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/autoreview/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/autoreview/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/autoreview/internal/core/domain"
)

// View shows one paragraph with every agent's finding.
type View struct {
	styles *styles.Styles

	report       *domain.ConsolidatedReport
	index        int
	lines        []string
	scrollOffset int
	width        int
	height       int
}

// NewView creates a new paragraph view.
func NewView(s *styles.Styles) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{styles: s, width: 80, height: 24}
}

// SetReport sets the report the view steps through.
func (v *View) SetReport(report *domain.ConsolidatedReport) {
	v.report = report
	v.index = 0
	v.render()
}

// SetIndex shows the paragraph at index, clamped to the report.
func (v *View) SetIndex(index int) {
	if v.report == nil || len(v.report.Paragraphs) == 0 {
		return
	}
	v.index = max(0, min(index, len(v.report.Paragraphs)-1))
	v.scrollOffset = 0
	v.render()
}

// Index returns the index of the shown paragraph.
func (v *View) Index() int {
	return v.index
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return nil
}

// Update handles messages for the paragraph view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
	case tea.KeyMsg:
		return v.handleKeyMsg(msg)
	}
	return v, nil
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if v.scrollOffset > 0 {
			v.scrollOffset--
		}
	case "down", "j":
		if v.scrollOffset < v.maxScrollOffset() {
			v.scrollOffset++
		}
	case "pgup", "ctrl+u":
		v.scrollOffset = max(v.scrollOffset-v.visibleLines(), 0)
	case "pgdown", "ctrl+d":
		v.scrollOffset = min(v.scrollOffset+v.visibleLines(), v.maxScrollOffset())
	case "home", "g":
		v.scrollOffset = 0
	case "end", "G":
		v.scrollOffset = v.maxScrollOffset()
	case "n":
		v.SetIndex(v.index + 1)
	case "p":
		v.SetIndex(v.index - 1)
	case "esc":
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewParagraphs}
		}
	}
	return v, nil
}

// render builds the wrapped content lines for the current paragraph.
func (v *View) render() {
	v.lines = nil
	if v.report == nil || len(v.report.Paragraphs) == 0 {
		return
	}
	p := &v.report.Paragraphs[v.index]
	lo, hi := v.report.ScaleMin, v.report.ScaleMax
	width := max(v.width-4, 20)
	wrap := lipgloss.NewStyle().Width(width)

	var b strings.Builder
	score := v.styles.OptionalScore(p.OverallScore, lo, hi)
	if p.Incomplete {
		score = v.styles.Error.Render("incomplete")
	}
	fmt.Fprintf(&b, "Overall %s  (%d ok, %d failed, %d high, %d low)\n\n",
		score, p.Succeeded, p.Failed, p.HighScores, p.LowScores)
	b.WriteString(wrap.Render(p.Text))
	b.WriteString("\n")

	if len(p.Criteria) > 0 {
		b.WriteString("\n" + v.styles.Subtitle.Render("Criteria") + "\n")
		for _, c := range sortedKeys(p.Criteria) {
			fmt.Fprintf(&b, "  %s %s\n", c, v.styles.Score(p.Criteria[c], lo, hi))
		}
	}

	if p.BestRewrite != nil {
		b.WriteString("\n" + v.styles.Subtitle.Render(
			fmt.Sprintf("Suggested rewrite (%s, confidence %.2f)", p.BestRewrite.AgentName, p.BestRewrite.Confidence)) + "\n")
		b.WriteString(wrap.Render(p.BestRewrite.Text))
		b.WriteString("\n")
	}

	for i := range p.Findings {
		b.WriteString("\n")
		b.WriteString(v.renderFinding(&p.Findings[i], lo, hi, wrap))
	}

	v.lines = strings.Split(strings.TrimRight(b.String(), "\n"), "\n")
}

func (v *View) renderFinding(f *domain.ReviewFinding, lo, hi int, wrap lipgloss.Style) string {
	var b strings.Builder
	b.WriteString(v.styles.Title.Render(f.AgentName))
	if !f.OK() {
		reason := "failed"
		if f.Failure != nil {
			reason = string(f.Failure.Kind)
			if f.Failure.Message != "" {
				reason += ": " + f.Failure.Message
			}
		}
		fmt.Fprintf(&b, " %s\n", v.styles.Error.Render(reason))
		return b.String()
	}

	fmt.Fprintf(&b, " %s  confidence %.2f\n", v.styles.Score(f.OverallScore, lo, hi), f.Confidence)
	for _, c := range sortedKeys(f.Scores) {
		fmt.Fprintf(&b, "  %s %s\n", c, v.styles.Score(f.Scores[c], lo, hi))
	}
	if f.Comment != "" {
		b.WriteString(wrap.Render(f.Comment))
		b.WriteString("\n")
	}
	return b.String()
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// visibleLines returns the number of content lines that fit.
func (v *View) visibleLines() int {
	// title, separator, blank, scroll indicator, help
	return max(v.height-6, 1)
}

func (v *View) maxScrollOffset() int {
	return max(len(v.lines)-v.visibleLines(), 0)
}

// View renders the paragraph view.
func (v *View) View() string {
	var b strings.Builder

	title := "Paragraph"
	if v.report != nil && len(v.report.Paragraphs) > 0 {
		p := v.report.Paragraphs[v.index]
		title = fmt.Sprintf("Paragraph %d of %d", p.Ordinal+1, len(v.report.Paragraphs))
	}
	b.WriteString(v.styles.Title.Render(title))
	b.WriteString("\n")
	b.WriteString(strings.Repeat("─", min(max(v.width-4, 1), 60)))
	b.WriteString("\n\n")

	if len(v.lines) == 0 {
		b.WriteString(v.styles.Muted.Render("(No paragraph)"))
		b.WriteString("\n\n")
		b.WriteString(v.renderHelp())
		return b.String()
	}

	visible := v.visibleLines()
	end := min(v.scrollOffset+visible, len(v.lines))
	for i := v.scrollOffset; i < end; i++ {
		b.WriteString(v.lines[i])
		b.WriteString("\n")
	}

	if len(v.lines) > visible {
		b.WriteString(v.styles.Muted.Render(fmt.Sprintf("  Line %d-%d of %d",
			v.scrollOffset+1, end, len(v.lines))))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(v.renderHelp())
	return b.String()
}

func (v *View) renderHelp() string {
	return v.styles.Help.Render("[↑/↓/PgUp/PgDn] scroll  [n/p] next/previous  [esc] back")
}

// SetDimensions sets the view dimensions and rewraps the content.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.render()
}

// Lines returns the rendered content lines.
func (v *View) Lines() []string {
	return v.lines
}
