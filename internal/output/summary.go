package output

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/atikulmunna/iisfilter/internal/stats"
)

var (
	styleLabel    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))            // gray
	styleCount    = lipgloss.NewStyle().Foreground(lipgloss.Color("255")).Bold(true) // white bold
	styleEmitted  = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)  // green bold
	styleDropped  = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))            // yellow
	styleHeadline = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)  // cyan
)

// SummaryRenderer prints a run summary, meant for stderr so it never mixes
// with filtered output.
type SummaryRenderer struct {
	w io.Writer
}

// NewSummaryRenderer returns a SummaryRenderer writing to w.
func NewSummaryRenderer(w io.Writer) *SummaryRenderer {
	return &SummaryRenderer{w: w}
}

func (r *SummaryRenderer) Render(s stats.Stats) error {
	rows := []struct {
		label string
		value string
	}{
		{"lines read", styleCount.Render(fmt.Sprint(s.LinesRead))},
		{"headers", styleCount.Render(fmt.Sprint(s.Headers))},
		{"comments", styleCount.Render(fmt.Sprint(s.Comments))},
		{"before header", styleDropped.Render(fmt.Sprint(s.Unready))},
		{"below time-taken", styleDropped.Render(fmt.Sprint(s.BelowThreshold))},
		{"excluded", styleDropped.Render(fmt.Sprint(s.Excluded))},
		{"not included", styleDropped.Render(fmt.Sprint(s.NotIncluded))},
		{"emitted", styleEmitted.Render(fmt.Sprint(s.Emitted))},
	}

	if _, err := fmt.Fprintln(r.w, styleHeadline.Render("iisfilter summary ("+s.Elapsed+")")); err != nil {
		return err
	}
	for _, row := range rows {
		label := styleLabel.Render(fmt.Sprintf("  %-17s", row.label))
		if _, err := fmt.Fprintf(r.w, "%s %s\n", label, row.value); err != nil {
			return err
		}
	}
	return nil
}
