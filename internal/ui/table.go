package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Alineaciones de columna.
const (
	AlignLeft  = "left"
	AlignRight = "right"
)

type Column struct {
	Header string
	Width  int // ancho mínimo
	Max    int // 0 = sin recorte
	Align  string
}

// Table acumula filas y las pinta con anchos calculados por contenido.
type Table struct {
	Columns []Column
	Rows    [][]string
}

func NewTable(columns ...Column) *Table {
	return &Table{Columns: columns, Rows: [][]string{}}
}

func (table *Table) AddRow(cells ...string) {
	table.Rows = append(table.Rows, cells)
}

func (table *Table) Render() string {
	if len(table.Columns) == 0 {
		return ""
	}

	widths := make([]int, len(table.Columns))
	for i, column := range table.Columns {
		widths[i] = max(lipgloss.Width(column.Header), column.Width)
	}
	for _, row := range table.Rows {
		for i, cell := range row {
			if i < len(widths) {
				widths[i] = max(widths[i], lipgloss.Width(table.clip(i, cell)))
			}
		}
	}

	var builder strings.Builder

	header := make([]string, len(table.Columns))
	separator := make([]string, len(table.Columns))
	for i, column := range table.Columns {
		header[i] = pad(column.Header, widths[i], AlignLeft)
		separator[i] = strings.Repeat("─", widths[i])
	}
	builder.WriteString(StyleTableHeader.Render(strings.Join(header, "  ")))
	builder.WriteString("\n")
	builder.WriteString(StyleTableBorder.Render(strings.Join(separator, "  ")))
	builder.WriteString("\n")

	for index, row := range table.Rows {
		cells := make([]string, len(table.Columns))
		for i, column := range table.Columns {
			cell := ""
			if i < len(row) {
				cell = table.clip(i, row[i])
			}
			cells[i] = pad(cell, widths[i], column.Align)
		}

		line := strings.Join(cells, "  ")
		if index%2 == 1 {
			line = StyleTableRowAlt.Render(line)
		}
		builder.WriteString(line)
		builder.WriteString("\n")
	}

	return builder.String()
}

func (table *Table) clip(column int, cell string) string {
	return Truncate(cell, table.Columns[column].Max)
}

// Truncate recorta a limit runas con "…" al final.
func Truncate(text string, limit int) string {
	runes := []rune(text)
	if limit <= 0 || len(runes) <= limit {
		return text
	}
	if limit == 1 {
		return "…"
	}
	return string(runes[:limit-1]) + "…"
}

func pad(text string, width int, align string) string {
	gap := width - lipgloss.Width(text)
	if gap <= 0 {
		return text
	}
	if align == AlignRight {
		return strings.Repeat(" ", gap) + text
	}
	return text + strings.Repeat(" ", gap)
}
