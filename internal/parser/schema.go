package parser

import (
	"errors"
	"fmt"
	"strings"

	"github.com/atikulmunna/iisfilter/internal/model"
)

// HeaderMarker prefixes the field declaration line of a W3C log.
const HeaderMarker = "#fields:"

// markerWidth is the marker plus the single space that follows it.
const markerWidth = len(HeaderMarker) + 1

// ErrShortRow is returned by Project when a data line has fewer tokens than a
// recognized column requires.
var ErrShortRow = errors.New("row has fewer columns than the schema")

// IsHeader reports whether line declares a field schema. The marker is
// matched case-insensitively.
func IsHeader(line string) bool {
	return len(line) >= len(HeaderMarker) && strings.EqualFold(line[:len(HeaderMarker)], HeaderMarker)
}

// Schema maps the columns of a W3C log to the supported fields.
//
// The projection is positional: the k-th recognized column fills canonical
// slot k regardless of its name. Headers that list the supported fields out
// of canonical order, or omit some of them, therefore misalign the slots.
type Schema struct {
	columns []int    // original column index of each recognized field
	names   []string // output name of each recognized field
	ready   bool
}

// NewSchema returns an empty schema that is not ready.
func NewSchema() *Schema {
	return &Schema{}
}

// Parse rebuilds the recognized columns from a header line.
//
// Ready becomes true the first time a header yields at least one
// recognized field and is never cleared by a later header, even one that
// yields none.
func (s *Schema) Parse(header string) {
	s.columns = nil
	s.names = nil

	rest := ""
	if len(header) > markerWidth {
		rest = strings.TrimRight(header[markerWidth:], " \t\r\n")
	}
	if rest != "" {
		for i, tok := range strings.Split(rest, " ") {
			if _, ok := model.LookupField(tok); ok {
				s.columns = append(s.columns, i)
				s.names = append(s.names, slotName(len(s.names), tok))
			}
		}
	}

	if len(s.columns) > 0 {
		s.ready = true
	}
}

// Ready reports whether any header has produced a usable mapping.
func (s *Schema) Ready() bool { return s.ready }

// Columns returns the original column indices of the recognized fields, in
// header order.
func (s *Schema) Columns() []int { return s.columns }

// Names returns one name per recognized column: the canonical name of the
// slot the column projects into, or the header token past the last slot.
func (s *Schema) Names() []string { return s.names }

func slotName(k int, token string) string {
	if k < model.FieldCount {
		return model.Field(k).String()
	}
	return token
}

// Row is a data line projected through a Schema.
type Row struct {
	// Values holds the token at each recognized column, in header order.
	Values []string
}

// Has reports whether enough columns were recognized to fill slot f.
func (r Row) Has(f model.Field) bool {
	return int(f) >= 0 && int(f) < len(r.Values)
}

// Get returns the value projected into canonical slot f, or "" when fewer
// columns were recognized.
func (r Row) Get(f model.Field) string {
	if !r.Has(f) {
		return ""
	}
	return r.Values[f]
}

// Project copies the tokens at the recognized columns into a Row.
func (s *Schema) Project(tokens []string) (Row, error) {
	values := make([]string, len(s.columns))
	for k, col := range s.columns {
		if col >= len(tokens) {
			return Row{}, fmt.Errorf("column %d of %d: %w", col+1, len(tokens), ErrShortRow)
		}
		values[k] = tokens[col]
	}
	return Row{Values: values}, nil
}

// Tokenize splits a data line on single spaces. Consecutive spaces yield
// empty tokens that still occupy a column.
func Tokenize(line string) []string {
	return strings.Split(line, " ")
}
