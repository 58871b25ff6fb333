package tui

// UI Layout Constants
// These constants define spacing, margins, and dimensions for the TUI layout

const (
	// Modal Dimensions - Standard margins for modal dialogs
	ModalWidthMargin       = 6  // Standard horizontal margin (m.width - 6)
	ModalHeightMargin      = 3  // Standard vertical margin (m.height - 3)
	ModalWidthMarginNarrow = 10 // Narrow horizontal margin for focused modals (m.width - 10)
	ModalHeightMarginMed   = 4  // Medium vertical margin (m.height - 4)

	// Viewport Padding and Borders
	ViewportPaddingHorizontal = 4 // Horizontal padding (left + right)

	// Modal Content Calculations
	ModalOverheadLines = 6 // Title (2) + padding (2) + border (2)
	ModalFooterLines   = 2 // Footer + blank line

	// Main view
	StatusBarLines     = 1  // Status bar below the panes
	SidebarMinWidth    = 32 // Narrowest recipe list
	SidebarWidthRatio  = 35 // Percent of the width given to the recipe list
	RequestPaneLines   = 6  // Recipe name, method/URL preview and spacing above the response
	MaxStatusBarLength = 100
)
