package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/autoreview/internal/core/domain"
	"github.com/custodia-labs/autoreview/internal/core/ports/driving"
)

var (
	reviewAgents   string
	reviewOut      string
	reviewMarkdown bool
	reviewForce    bool
	reviewWorkers  int
	reviewTimeout  time.Duration
)

var reviewCmd = &cobra.Command{
	Use:   "review <document>",
	Short: "Review a document with every configured agent",
	Long: `Review splits the document into paragraphs, asks every agent in the
agents file to score every paragraph, and writes run.json, one JSONL file
per agent and consolidated.json to the output directory.

Exit status is 0 for a complete run, 1 for a fatal error and 2 when the
run finished partial or some paragraphs could not be scored.`,
	Args: cobra.ExactArgs(1),
	RunE: runReview,
}

func init() {
	reviewCmd.Flags().StringVarP(&reviewAgents, "agents", "a", "", "agents configuration file (JSON or YAML)")
	reviewCmd.Flags().StringVarP(&reviewOut, "out", "o", "", "output directory (default <document>-review)")
	reviewCmd.Flags().BoolVar(&reviewMarkdown, "markdown", false, "also write markdown reports")
	reviewCmd.Flags().BoolVar(&reviewForce, "force", false, "overwrite existing outputs")
	reviewCmd.Flags().IntVarP(&reviewWorkers, "workers", "w", 0, "concurrent reviews (default from settings)")
	reviewCmd.Flags().DurationVar(&reviewTimeout, "timeout", 0, "stop dispatching after this long, 0 for no limit")
	_ = reviewCmd.MarkFlagRequired("agents")
	rootCmd.AddCommand(reviewCmd)
}

func runReview(cmd *cobra.Command, args []string) error {
	document := args[0]

	_, settings, err := loadSettings()
	if err != nil {
		return err
	}
	agents, err := services.LoadAgents(reviewAgents)
	if err != nil {
		return err
	}

	if agents.Model != "" {
		settings.LLM.Model = agents.Model
	}
	if reviewWorkers > 0 {
		settings.Runner.Workers = reviewWorkers
	}
	if cmd.Flags().Changed("timeout") {
		settings.Runner.RunTimeout = reviewTimeout
	}

	out := reviewOut
	if out == "" {
		out = defaultOutputDir(document)
	}

	ctx := cmd.Context()
	svc, release, err := services.Review(ctx, *settings, ReviewOptions{Markdown: reviewMarkdown, Force: reviewForce})
	if err != nil {
		return err
	}
	defer release()

	result, err := svc.Review(ctx, driving.ReviewRequest{
		DocumentPath: document,
		Agents:       agents,
		OutputDir:    out,
	})
	if result == nil {
		return err
	}

	w := cmd.OutOrStdout()
	printSummary(w, result, newStyles(isTerminal(w)))
	if err != nil {
		return err
	}
	if result.Partial() {
		return fmt.Errorf("%w: %s", errPartial, partialReason(result))
	}
	return nil
}

// defaultOutputDir is "<stem>-review" beside the document.
func defaultOutputDir(document string) string {
	base := filepath.Base(document)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(filepath.Dir(document), stem+"-review")
}

func partialReason(r *domain.RunResult) string {
	if r.Metadata.AbortReason != "" {
		return r.Metadata.AbortReason
	}
	return fmt.Sprintf("%d of %d findings failed", r.Metadata.Failed, r.Metadata.ExpectedFindings)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// styles renders the summary, plain when output is not a terminal.
type styles struct {
	enabled bool
	title   lipgloss.Style
	label   lipgloss.Style
	good    lipgloss.Style
	warn    lipgloss.Style
	bad     lipgloss.Style
}

func newStyles(enabled bool) styles {
	return styles{
		enabled: enabled,
		title:   lipgloss.NewStyle().Bold(true),
		label:   lipgloss.NewStyle().Faint(true),
		good:    lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		warn:    lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		bad:     lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
	}
}

func (s styles) render(st lipgloss.Style, text string) string {
	if !s.enabled {
		return text
	}
	return st.Render(text)
}

// score picks a colour by where v falls on the rubric scale.
func (s styles) score(v float64, lo, hi int) string {
	text := fmt.Sprintf("%.2f", v)
	if hi <= lo {
		return text
	}
	switch n := (v - float64(lo)) / float64(hi-lo); {
	case n >= 0.75:
		return s.render(s.good, text)
	case n < 0.5:
		return s.render(s.bad, text)
	default:
		return s.render(s.warn, text)
	}
}

func printSummary(w io.Writer, r *domain.RunResult, s styles) {
	meta := r.Metadata
	status := s.render(s.good, "complete")
	if r.Partial() {
		status = s.render(s.warn, "partial")
	}
	fmt.Fprintf(w, "%s %s\n", s.render(s.title, "Review"), status)
	fmt.Fprintf(w, "  %s %s (%d paragraphs)\n", s.render(s.label, "Document:"), meta.DocumentPath, meta.ParagraphCount)
	fmt.Fprintf(w, "  %s %s\n", s.render(s.label, "Run ID:  "), meta.RunID)
	fmt.Fprintf(w, "  %s %s\n", s.render(s.label, "Model:   "), meta.Model)
	fmt.Fprintf(w, "  %s %d ok, %d failed of %d\n", s.render(s.label, "Findings:"),
		meta.Succeeded, meta.Failed, meta.ExpectedFindings)
	if meta.AbortReason != "" {
		fmt.Fprintf(w, "  %s %s\n", s.render(s.label, "Stopped: "), s.render(s.bad, meta.AbortReason))
	}

	report := r.Report
	if report != nil {
		if report.OverallScore != nil {
			fmt.Fprintf(w, "  %s %s / %d\n", s.render(s.label, "Overall: "),
				s.score(*report.OverallScore, report.ScaleMin, report.ScaleMax), report.ScaleMax)
		} else {
			fmt.Fprintf(w, "  %s n/a\n", s.render(s.label, "Overall: "))
		}

		if len(report.Criteria) > 0 {
			fmt.Fprintln(w)
			fmt.Fprintln(w, s.render(s.title, "Criteria"))
			names := make([]string, 0, len(report.Criteria))
			width := 0
			for c := range report.Criteria {
				names = append(names, c)
				width = max(width, len(c))
			}
			sort.Strings(names)
			for _, c := range names {
				fmt.Fprintf(w, "  %-*s %s\n", width, c, s.score(report.Criteria[c].Mean, report.ScaleMin, report.ScaleMax))
			}
		}

		fmt.Fprintln(w)
		fmt.Fprintln(w, s.render(s.title, "Agents"))
		for _, a := range report.Agents {
			score := "n/a"
			if a.OverallScore != nil {
				score = s.score(*a.OverallScore, a.ScaleMin, a.ScaleMax)
			}
			fmt.Fprintf(w, "  %s: %s (%d ok, %d failed)\n", a.AgentName, score, a.Succeeded, a.Failed)
		}

		if len(report.Recommendations) > 0 {
			fmt.Fprintln(w)
			fmt.Fprintln(w, s.render(s.title, "Recommendations"))
			for _, rec := range report.Recommendations {
				fmt.Fprintf(w, "  - %s\n", rec)
			}
		}
	}

	fmt.Fprintln(w)
	stats := r.Stats
	fmt.Fprintf(w, "%s %s LLM calls, %s cached / %s embedded, %s\n",
		s.render(s.label, "Stats:"),
		humanize.Comma(stats.LLMCalls),
		humanize.Comma(int64(stats.CacheHits)),
		humanize.Comma(int64(stats.CacheMisses)),
		stats.Duration.Round(time.Millisecond))
	if r.OutputDir != "" {
		fmt.Fprintf(w, "%s %s\n", s.render(s.label, "Outputs:"), r.OutputDir)
	}
}
