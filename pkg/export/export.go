package export

import (
	"sort"
	"strings"
)

// Column is one rendered column: Key selects the record value and Label is
// printed in the header row.
type Column struct {
	Key   string
	Label string
}

// Dataset is a rendered table. Rows hold cell text in column order.
type Dataset struct {
	Title   string
	Columns []Column
	Rows    [][]string
}

func (d Dataset) labels() []string {
	labels := make([]string, len(d.Columns))
	for i, col := range d.Columns {
		labels[i] = col.Label
		if labels[i] == "" {
			labels[i] = col.Key
		}
	}
	return labels
}

// Renderer encodes a Dataset as one downloadable file format.
type Renderer interface {
	Render(data Dataset) ([]byte, error)
	ContentType() string
	Extension() string
}

var renderers = map[string]Renderer{
	"csv": CSVRenderer{},
	"pdf": PDFRenderer{},
}

// ForFormat returns the renderer registered for format, matched case-insensitively.
func ForFormat(format string) (Renderer, bool) {
	r, ok := renderers[strings.ToLower(strings.TrimSpace(format))]
	return r, ok
}

// Formats lists the supported format names in sorted order.
func Formats() []string {
	names := make([]string, 0, len(renderers))
	for name := range renderers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FromRecords builds a dataset from projected records, formatting each cell
// with FormatValue.
func FromRecords(title string, columns []Column, records []map[string]interface{}) Dataset {
	rows := make([][]string, 0, len(records))
	for _, record := range records {
		row := make([]string, len(columns))
		for i, col := range columns {
			row[i] = FormatValue(record[col.Key])
		}
		rows = append(rows, row)
	}
	return Dataset{Title: title, Columns: columns, Rows: rows}
}
