package tui

import "errors"

// ErrMissingReportLoader is returned when the report loader is not provided.
var ErrMissingReportLoader = errors.New("tui: report loader is required")

// ErrMissingDirectory is returned when no output directory is given.
var ErrMissingDirectory = errors.New("tui: output directory is required")
