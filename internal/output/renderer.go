package output

import (
	"fmt"
	"io"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/atikulmunna/iisfilter/internal/model"
)

// Renderer writes Output values to an output stream, one per call, in order.
type Renderer interface {
	Render(out model.Output) error
}

// ---------------------------------------------------------------------------
// Text Renderer (log lines for piping)
// ---------------------------------------------------------------------------

// TextRenderer writes records in W3C log form.
type TextRenderer struct {
	w io.Writer
}

// NewTextRenderer returns a Renderer that writes log text to w.
func NewTextRenderer(w io.Writer) *TextRenderer {
	return &TextRenderer{w: w}
}

// Render writes full lines verbatim. Compact headers and rows are written
// space-joined with a trailing separator.
func (r *TextRenderer) Render(out model.Output) error {
	var line string
	switch out.Kind {
	case model.KindCompactHeader:
		line = "#Fields: " + joinTrailing(out.Names)
	case model.KindFields:
		line = joinTrailing(out.Values)
	default:
		line = out.Text
	}
	_, err := fmt.Fprintln(r.w, line)
	return err
}

func joinTrailing(parts []string) string {
	var b strings.Builder
	for _, p := range parts {
		b.WriteString(p)
		b.WriteByte(' ')
	}
	return b.String()
}

// ---------------------------------------------------------------------------
// JSON Renderer (structured output for piping)
// ---------------------------------------------------------------------------

// JSONRenderer writes each emitted data record as a single JSON object per
// line. Comment and header lines are not rendered.
type JSONRenderer struct {
	enc *json.Encoder
}

// NewJSONRenderer returns a Renderer that writes JSON lines to w.
func NewJSONRenderer(w io.Writer) *JSONRenderer {
	return &JSONRenderer{enc: json.NewEncoder(w)}
}

type jsonRecord struct {
	Source string            `json:"source,omitempty"`
	Number int               `json:"line_number"`
	Line   string            `json:"line,omitempty"`
	Fields map[string]string `json:"fields"`
}

func (r *JSONRenderer) Render(out model.Output) error {
	if out.Kind != model.KindLine && out.Kind != model.KindFields {
		return nil
	}

	rec := jsonRecord{
		Source: out.Source,
		Number: out.Number,
		Fields: make(map[string]string, len(out.Values)),
	}
	if out.Kind == model.KindLine {
		rec.Line = out.Text
	}
	for i, v := range out.Values {
		if i < len(out.Names) {
			rec.Fields[out.Names[i]] = v
		}
	}
	return r.enc.Encode(rec)
}
