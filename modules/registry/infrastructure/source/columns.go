package source

import (
	"fmt"
	"strings"

	"github.com/fieo/orgregistry/modules/registry/domain/schema"
)

// MissingColumnsError reports required canonical fields with no matching header.
type MissingColumnsError struct {
	Kind    schema.Kind
	Missing []string
	Header  []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf(
		"%s: required column missing: %s (detected: %s)",
		e.Kind, strings.Join(e.Missing, ", "), strings.Join(e.Header, ", "),
	)
}

// ColumnMap is the resolved position of every canonical field present in a header.
type ColumnMap struct {
	def      schema.Definition
	index    map[string]int
	minCells int
}

// Resolve maps the canonical fields of def onto header positions. For each
// field its aliases are tried in order and the first one present wins.
func Resolve(def schema.Definition, header []string) (*ColumnMap, error) {
	positions := make(map[string]int, len(header))
	for i, h := range header {
		if _, seen := positions[h]; !seen {
			positions[h] = i
		}
	}

	m := &ColumnMap{def: def, index: make(map[string]int, len(def.Fields))}
	var missing []string
	for _, f := range def.Fields {
		idx, ok := -1, false
		for _, alias := range f.Aliases {
			if idx, ok = positions[alias]; ok {
				break
			}
		}
		if !ok {
			if f.Required {
				missing = append(missing, f.Name)
			}
			continue
		}
		m.index[f.Name] = idx
		if f.Required && idx+1 > m.minCells {
			m.minCells = idx + 1
		}
	}
	if len(missing) > 0 {
		return nil, &MissingColumnsError{Kind: def.Kind, Missing: missing, Header: header}
	}
	return m, nil
}

func (m *ColumnMap) Definition() schema.Definition { return m.def }

// MinCells is the smallest record length that still holds every required column.
func (m *ColumnMap) MinCells() int { return m.minCells }

// Has reports whether field resolved to a column.
func (m *ColumnMap) Has(field string) bool {
	_, ok := m.index[field]
	return ok
}

// Index returns the column position of field, -1 when absent.
func (m *ColumnMap) Index(field string) int {
	if i, ok := m.index[field]; ok {
		return i
	}
	return -1
}

// Get returns the trimmed cell of field, "" for absent fields and short records.
func (m *ColumnMap) Get(rec Record, field string) string {
	i, ok := m.index[field]
	if !ok || i >= len(rec.Cells) {
		return ""
	}
	return strings.TrimSpace(rec.Cells[i])
}
