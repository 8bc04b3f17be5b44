// Package list provides list display components for the TUI.
package list

import (
	"fmt"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/autoreview/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/autoreview/internal/core/domain"
)

// ParagraphList displays paragraph scores in a navigable list.
type ParagraphList struct {
	paragraphs []domain.ParagraphReport
	scaleMin   int
	scaleMax   int

	// order maps list rows to indices in paragraphs.
	order    []int
	byScore  bool
	selected int

	styles *styles.Styles
	width  int
	height int
}

// NewParagraphList creates a new paragraph list component.
func NewParagraphList(s *styles.Styles) *ParagraphList {
	if s == nil {
		s = styles.DefaultStyles()
	}

	return &ParagraphList{
		styles: s,
		width:  80,
		height: 10,
	}
}

// Init initialises the list.
func (r *ParagraphList) Init() tea.Cmd {
	return nil
}

// Update handles list navigation messages.
func (r *ParagraphList) Update(msg tea.Msg) (*ParagraphList, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "up", "k":
			r.MoveUp()
		case "down", "j":
			r.MoveDown()
		case "s":
			r.ToggleSort()
		}
	}
	return r, nil
}

// View renders the list.
func (r *ParagraphList) View() string {
	if len(r.paragraphs) == 0 {
		return r.styles.Muted.Render("No paragraphs")
	}

	title := fmt.Sprintf("Paragraphs (%d, document order)", len(r.paragraphs))
	if r.byScore {
		title = fmt.Sprintf("Paragraphs (%d, lowest score first)", len(r.paragraphs))
	}
	lines := make([]string, 0, len(r.order)*2+2)
	lines = append(lines, r.styles.Subtitle.Render(title), "")

	// Each row is two lines.
	visibleCount := (r.height - 4) / 2
	if visibleCount < 1 {
		visibleCount = 1
	}

	start := 0
	if r.selected >= visibleCount {
		start = r.selected - visibleCount + 1
	}
	end := min(start+visibleCount, len(r.order))

	for row := start; row < end; row++ {
		lines = append(lines, r.renderRow(row))
	}

	return strings.Join(lines, "\n")
}

func (r *ParagraphList) renderRow(row int) string {
	p := &r.paragraphs[r.order[row]]

	indicator := "  "
	if row == r.selected {
		indicator = "> "
	}

	label := fmt.Sprintf("%s#%-3d", indicator, p.Ordinal+1)
	score := r.styles.OptionalScore(p.OverallScore, r.scaleMin, r.scaleMax)
	if p.Incomplete {
		score = r.styles.Error.Render("incomplete")
	}

	meta := fmt.Sprintf("  %d ok", p.Succeeded)
	if p.Failed > 0 {
		meta += fmt.Sprintf(", %d failed", p.Failed)
	}
	if p.BestRewrite != nil {
		meta += ", rewrite"
	}

	var head string
	if row == r.selected {
		head = r.styles.Selected.Render(label) + " " + score + r.styles.Muted.Render(meta)
	} else {
		head = r.styles.Normal.Render(label) + " " + score + r.styles.Muted.Render(meta)
	}

	return head + "\n" + r.styles.Muted.Render("    "+truncate(p.Text, max(r.width-6, 20)))
}

// truncate shortens s to at most n runes on one line.
func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}

// SetReport replaces the list contents and resets the selection.
func (r *ParagraphList) SetReport(report *domain.ConsolidatedReport) {
	r.paragraphs = nil
	if report != nil {
		r.paragraphs = report.Paragraphs
		r.scaleMin, r.scaleMax = report.ScaleMin, report.ScaleMax
	}
	r.selected = 0
	r.reorder()
}

// ToggleSort switches between document order and lowest score first,
// keeping the selected paragraph selected.
func (r *ParagraphList) ToggleSort() {
	current := r.SelectedIndex()
	r.byScore = !r.byScore
	r.reorder()
	for row, i := range r.order {
		if i == current {
			r.selected = row
			break
		}
	}
}

// SortedByScore reports whether the list is ordered by score.
func (r *ParagraphList) SortedByScore() bool {
	return r.byScore
}

// reorder rebuilds order. Incomplete paragraphs sort first, then by
// ascending score, ties by ordinal.
func (r *ParagraphList) reorder() {
	r.order = make([]int, len(r.paragraphs))
	for i := range r.order {
		r.order[i] = i
	}
	if !r.byScore {
		return
	}
	sort.SliceStable(r.order, func(a, b int) bool {
		pa, pb := &r.paragraphs[r.order[a]], &r.paragraphs[r.order[b]]
		sa, sb := sortScore(pa), sortScore(pb)
		if sa != sb {
			return sa < sb
		}
		return pa.Ordinal < pb.Ordinal
	})
}

func sortScore(p *domain.ParagraphReport) float64 {
	if p.Incomplete || p.OverallScore == nil {
		return -1
	}
	return *p.OverallScore
}

// SelectedIndex returns the index into the report's paragraphs of the
// selected row, or -1 when empty.
func (r *ParagraphList) SelectedIndex() int {
	if len(r.order) == 0 {
		return -1
	}
	return r.order[r.selected]
}

// MoveUp moves selection up.
func (r *ParagraphList) MoveUp() {
	if r.selected > 0 {
		r.selected--
	}
}

// MoveDown moves selection down.
func (r *ParagraphList) MoveDown() {
	if r.selected < len(r.order)-1 {
		r.selected++
	}
}

// SetDimensions sets the component dimensions.
func (r *ParagraphList) SetDimensions(width, height int) {
	r.width = width
	r.height = height
}

// Count returns the number of paragraphs.
func (r *ParagraphList) Count() int {
	return len(r.paragraphs)
}
