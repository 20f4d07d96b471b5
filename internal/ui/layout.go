package ui

import "time"

// Terminal width thresholds for responsive layouts.
const (
	// LayoutCompactWidth is the threshold below which the header drops the
	// user and refresh age.
	LayoutCompactWidth = 80

	// LayoutProgressBarWidth is the minimum width to draw progress bars on the
	// home view.
	LayoutProgressBarWidth = 100
)

// Timing constants.
const (
	// DefaultUIInterval is how often the header clock redraws.
	DefaultUIInterval = time.Second

	// LibrariesFetchTimeout bounds the on-demand libraries request.
	LibrariesFetchTimeout = 10 * time.Second

	// BrowseFetchTimeout bounds listing a category or library.
	BrowseFetchTimeout = 10 * time.Second
)
