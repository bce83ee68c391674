package components

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/evertras/bubble-table/table"

	"github.com/allbin/serialrelay/internal/tui/styles"
)

// Column is one column of a static listing
type Column struct {
	Key   string
	Title string
	Width int
}

// Listing renders rows as a bordered table for non-interactive commands
// such as ports and discover
func Listing(columns []Column, rows []map[string]any) string {
	cols := make([]table.Column, len(columns))
	for i, c := range columns {
		cols[i] = table.NewColumn(c.Key, c.Title, c.Width)
	}

	trs := make([]table.Row, len(rows))
	for i, r := range rows {
		trs[i] = table.NewRow(table.RowData(r))
	}

	return table.New(cols).
		WithRows(trs).
		BorderRounded().
		HeaderStyle(lipgloss.NewStyle().Foreground(styles.Mauve).Bold(true)).
		WithBaseStyle(lipgloss.NewStyle().
			Foreground(styles.Text).
			BorderForeground(styles.Surface2).
			Align(lipgloss.Left)).
		View()
}
