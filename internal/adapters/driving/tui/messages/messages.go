// Package messages defines Bubbletea message types for the TUI.
package messages

import (
	"github.com/custodia-labs/autoreview/internal/core/domain"
)

// ReportLoaded carries the consolidated report back to the model.
type ReportLoaded struct {
	Report *domain.ConsolidatedReport
	Err    error
}

// ParagraphSelected is sent when a paragraph is opened. Index is the
// position in the report's paragraph list.
type ParagraphSelected struct {
	Index int
}

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewParagraphs lists every paragraph with its score.
	ViewParagraphs ViewType = iota
	// ViewParagraph shows one paragraph's findings.
	ViewParagraph
	// ViewHelp is the keybindings view.
	ViewHelp
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewParagraphs:
		return "paragraphs"
	case ViewParagraph:
		return "paragraph"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// ErrorOccurred is sent when an error needs to be displayed.
type ErrorOccurred struct {
	Err error
}

// Quit is sent to exit the application.
type Quit struct{}
