// Package processor drives one pass of the filter over a line source.
package processor

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/atikulmunna/iisfilter/internal/filter"
	"github.com/atikulmunna/iisfilter/internal/model"
	"github.com/atikulmunna/iisfilter/internal/output"
	"github.com/atikulmunna/iisfilter/internal/parser"
	"github.com/atikulmunna/iisfilter/internal/source"
	"github.com/atikulmunna/iisfilter/internal/stats"
)

var (
	// ErrTimeTaken marks a time-taken value that is not an integer.
	ErrTimeTaken = filter.ErrTimeTaken
	// ErrShortRow marks a data line with too few columns for the schema.
	ErrShortRow = parser.ErrShortRow
)

// DataError is a fatal problem with a data line. It stops the run.
type DataError struct {
	Source string
	Line   int
	Text   string
	Err    error
}

func (e *DataError) Error() string {
	return fmt.Sprintf("%s:%d: %v", e.Source, e.Line, e.Err)
}

func (e *DataError) Unwrap() error { return e.Err }

// WriteError wraps a failure of the output sink.
type WriteError struct {
	Err error
}

func (e *WriteError) Error() string { return "write output: " + e.Err.Error() }

func (e *WriteError) Unwrap() error { return e.Err }

// Processor routes lines to the schema or the cascade and writes the
// results. The schema it owns changes only on header lines, so a new header
// takes effect from the next data line on.
type Processor struct {
	cascade *filter.Cascade
	schema  *parser.Schema
	out     output.Renderer
	stats   *stats.Counter
	line    int
}

// New returns a Processor for one stream. counter may be nil.
func New(cfg filter.Config, out output.Renderer, counter *stats.Counter) *Processor {
	if counter == nil {
		counter = stats.New()
	}
	return &Processor{
		cascade: filter.New(cfg),
		schema:  parser.NewSchema(),
		out:     out,
		stats:   counter,
	}
}

// Schema exposes the current field mapping.
func (p *Processor) Schema() *parser.Schema { return p.schema }

// Run processes lines from src until it signals io.EOF.
//
// A DataError or WriteError aborts the run at once; output already written
// is left as is. Any other error comes from the source.
func (p *Processor) Run(src source.LineSource) error {
	for {
		raw, err := src.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := p.Process(raw); err != nil {
			return err
		}
	}
}

// Process handles a single line.
func (p *Processor) Process(raw model.RawLine) error {
	p.line++
	p.stats.Line()

	line := strings.ToLower(raw.Text)

	if strings.HasPrefix(line, "#") {
		return p.directive(raw.Source, line)
	}

	if !p.schema.Ready() {
		p.stats.Unready()
		return nil
	}

	row, err := p.schema.Project(parser.Tokenize(line))
	if err != nil {
		return p.dataError(raw, err)
	}

	d, err := p.cascade.Classify(row, line)
	if err != nil {
		return p.dataError(raw, err)
	}
	p.stats.Decision(d)

	switch d.Action {
	case filter.EmitFull:
		return p.render(model.Output{
			Kind:   model.KindLine,
			Source: raw.Source,
			Number: p.line,
			Text:   d.Line,
			Names:  p.schema.Names(),
			Values: row.Values,
		})
	case filter.EmitCompact:
		return p.render(model.Output{
			Kind:   model.KindFields,
			Source: raw.Source,
			Number: p.line,
			Text:   line,
			Names:  p.schema.Names(),
			Values: d.Fields,
		})
	}
	return nil
}

// directive handles '#' lines. They bypass the cascade and the ready check.
func (p *Processor) directive(src, line string) error {
	out := model.Output{Source: src, Number: p.line, Text: line}

	if !parser.IsHeader(line) {
		p.stats.Comment()
		out.Kind = model.KindComment
		return p.render(out)
	}

	p.schema.Parse(line)
	p.stats.Header()
	out.Kind = model.KindHeader
	if p.cascade.Config().Compact {
		out.Kind = model.KindCompactHeader
		out.Names = p.schema.Names()
	}
	return p.render(out)
}

func (p *Processor) render(out model.Output) error {
	if err := p.out.Render(out); err != nil {
		return &WriteError{Err: err}
	}
	return nil
}

func (p *Processor) dataError(raw model.RawLine, err error) error {
	return &DataError{Source: raw.Source, Line: p.line, Text: raw.Text, Err: err}
}
