package types

// PageData represents data passed to templates
type PageData struct {
	Title        string
	DefaultQuery string
	// Columns are the sortable table columns, as sort key and label.
	Columns []Column
	Version string // Application version (for footer display)
}

// Column is one sortable table column.
type Column struct {
	Key   string
	Label string
}
