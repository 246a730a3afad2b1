// Package projection narrows typed rows to a client-selected set of fields
// and describes the resulting columns for table-style rendering.
//
// Fields are declared explicitly per row type; there is no reflection. Unknown
// field names and unsafe sort requests are neutralised, never reported.
package projection

import (
	"sort"
	"strings"
)

// ColumnType is the rendering hint attached to a column.
type ColumnType string

const (
	TypeNumber  ColumnType = "number"
	TypeBoolean ColumnType = "boolean"
	TypeDate    ColumnType = "date"
	TypeString  ColumnType = "string"
)

// Field declares one projectable key of a row type T.
type Field[T any] struct {
	Key   string
	Label string
	Type  ColumnType
	// Value extracts the JSON-ready value for the row.
	Value func(T) interface{}
	// Compare orders two rows by this field. Nil marks the field unsortable.
	Compare func(a, b T) int
}

// Column describes a returned key.
type Column struct {
	Key      string     `json:"key"`
	Label    string     `json:"label"`
	Type     ColumnType `json:"type"`
	Sortable bool       `json:"sortable"`
}

// Result is the projected view of a row set.
type Result[T any] struct {
	Rows        []T
	Fields      []string
	Columns     []Column
	AppliedSort string
}

// Catalog is the static field registry of a row type.
type Catalog[T any] struct {
	order  []string
	fields map[string]Field[T]
}

// NewCatalog builds a catalog; declaration order is the canonical column order.
// Duplicate keys panic since catalogs are package-level declarations.
func NewCatalog[T any](fields ...Field[T]) *Catalog[T] {
	c := &Catalog[T]{fields: make(map[string]Field[T], len(fields))}
	for _, f := range fields {
		if _, dup := c.fields[f.Key]; dup {
			panic("projection: duplicate field " + f.Key)
		}
		if f.Type == "" {
			f.Type = TypeString
		}
		if f.Label == "" {
			f.Label = TitleLabel(f.Key)
		}
		c.fields[f.Key] = f
		c.order = append(c.order, f.Key)
	}
	return c
}

// Keys returns the canonical field order.
func (c *Catalog[T]) Keys() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// Has reports whether key is a declared field.
func (c *Catalog[T]) Has(key string) bool {
	_, ok := c.fields[key]
	return ok
}

// Resolve intersects the requested names with the catalog, keeping request
// order and dropping unknown names and duplicates. An empty request, or one
// with no known names, resolves to every field.
func (c *Catalog[T]) Resolve(requested []string) []string {
	if len(requested) == 0 {
		return c.Keys()
	}
	seen := make(map[string]struct{}, len(requested))
	out := make([]string, 0, len(requested))
	for _, name := range requested {
		name = strings.TrimSpace(name)
		if !c.Has(name) {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	if len(out) == 0 {
		return c.Keys()
	}
	return out
}

// SortKey validates a raw sort expression against the effective field set. It
// returns the field key, whether the order is descending, and ok=false when
// the sort must be ignored.
func (c *Catalog[T]) SortKey(raw string, effective []string) (key string, desc bool, ok bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false, false
	}
	key = raw
	if strings.HasPrefix(raw, "-") {
		key = raw[1:]
		desc = true
	}
	field, known := c.fields[key]
	if !known || field.Compare == nil || !contains(effective, key) {
		return "", false, false
	}
	return key, desc, true
}

// Project resolves fields, applies the sort when allowed and describes the
// columns. Rows are sorted in place with a stable sort; otherwise their order
// is left untouched.
func (c *Catalog[T]) Project(rows []T, requested []string, rawSort string) Result[T] {
	fields := c.Resolve(requested)

	applied := ""
	if key, desc, ok := c.SortKey(rawSort, fields); ok {
		cmp := c.fields[key].Compare
		sort.SliceStable(rows, func(i, j int) bool {
			if desc {
				return cmp(rows[j], rows[i]) < 0
			}
			return cmp(rows[i], rows[j]) < 0
		})
		applied = key
		if desc {
			applied = "-" + key
		}
	}

	columns := make([]Column, 0, len(fields))
	for _, key := range fields {
		f := c.fields[key]
		columns = append(columns, Column{
			Key:      key,
			Label:    f.Label,
			Type:     f.Type,
			Sortable: f.Compare != nil,
		})
	}

	return Result[T]{Rows: rows, Fields: fields, Columns: columns, AppliedSort: applied}
}

// Records renders rows into ordered key/value maps restricted to fields.
func (c *Catalog[T]) Records(rows []T, fields []string) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(rows))
	for _, row := range rows {
		record := make(map[string]interface{}, len(fields))
		for _, key := range fields {
			if f, ok := c.fields[key]; ok {
				record[key] = f.Value(row)
			}
		}
		out = append(out, record)
	}
	return out
}

// TitleLabel turns snake_case keys into "Title Case" labels.
func TitleLabel(key string) string {
	parts := strings.FieldsFunc(key, func(r rune) bool { return r == '_' || r == '-' })
	for i, p := range parts {
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, " ")
}

func contains(list []string, value string) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}
