// Package filter decides whether a projected log row is emitted.
//
// Rows pass through three levels in order:
//
//	Level 1: time-taken must be at least the threshold.
//	Level 2: a uri-stem containing any exclusion term is suppressed.
//	Level 3: when inclusion terms are set, the uri-stem must contain one.
//
// Exclusion always wins over inclusion.
package filter

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/atikulmunna/iisfilter/internal/model"
	"github.com/atikulmunna/iisfilter/internal/parser"
)

// ErrTimeTaken is returned when the time-taken slot is not an integer.
var ErrTimeTaken = errors.New("time-taken is not an integer")

// Config holds the per-run filter settings.
type Config struct {
	TimeTaken int      // minimum time-taken in milliseconds
	Exclusion []string // uri-stem substrings that suppress a row
	Inclusion []string // uri-stem substrings a row must contain
	Compact   bool     // emit only the recognized column values
}

// NewConfig builds a Config from raw filter arguments. Each argument may
// hold several whitespace-separated terms; terms are lowercased so they
// match the lowercased input.
func NewConfig(threshold int, exclusion, inclusion []string, compact bool) Config {
	return Config{
		TimeTaken: threshold,
		Exclusion: splitTerms(exclusion),
		Inclusion: splitTerms(inclusion),
		Compact:   compact,
	}
}

func splitTerms(args []string) []string {
	var terms []string
	for _, a := range args {
		for _, t := range strings.Fields(a) {
			terms = append(terms, strings.ToLower(t))
		}
	}
	return terms
}

// Action is the outcome of classifying a row.
type Action int

const (
	Suppress Action = iota
	EmitFull
	EmitCompact
)

func (a Action) String() string {
	switch a {
	case EmitFull:
		return "emit-full"
	case EmitCompact:
		return "emit-compact"
	default:
		return "suppress"
	}
}

// Level names the cascade level that produced a Decision.
type Level int

const (
	LevelNone Level = iota // emitted with no term filter configured
	LevelTimeTaken
	LevelExclusion
	LevelInclusion
)

// Decision is the tagged result of Classify. Line is set for EmitFull and
// Fields for EmitCompact.
type Decision struct {
	Action Action
	Level  Level
	Line   string
	Fields []string
}

// Emitted reports whether the decision writes anything.
func (d Decision) Emitted() bool { return d.Action != Suppress }

// Cascade applies a Config to projected rows.
type Cascade struct {
	cfg Config
}

// New returns a Cascade for cfg.
func New(cfg Config) *Cascade {
	return &Cascade{cfg: cfg}
}

// Config returns the settings the cascade was built with.
func (c *Cascade) Config() Config { return c.cfg }

// Classify runs the cascade over row. line is the lowercased text the row
// was projected from and is what EmitFull carries.
//
// A missing time-taken slot counts as 0. A present value that is not a
// 32-bit integer, including an empty token, yields ErrTimeTaken.
func (c *Cascade) Classify(row parser.Row, line string) (Decision, error) {
	taken, err := timeTaken(row)
	if err != nil {
		return Decision{}, err
	}

	// Level 1
	if taken < c.cfg.TimeTaken {
		return Decision{Action: Suppress, Level: LevelTimeTaken}, nil
	}

	stem := row.Get(model.URIStem)

	// Level 2
	if len(c.cfg.Exclusion) > 0 {
		if containsAny(stem, c.cfg.Exclusion) {
			return Decision{Action: Suppress, Level: LevelExclusion}, nil
		}
		if len(c.cfg.Inclusion) == 0 {
			return c.emit(row, line, LevelExclusion), nil
		}
	}

	// Level 3
	if len(c.cfg.Inclusion) > 0 {
		if containsAny(stem, c.cfg.Inclusion) {
			return c.emit(row, line, LevelInclusion), nil
		}
		return Decision{Action: Suppress, Level: LevelInclusion}, nil
	}

	return c.emit(row, line, LevelNone), nil
}

func (c *Cascade) emit(row parser.Row, line string, lvl Level) Decision {
	if c.cfg.Compact {
		return Decision{Action: EmitCompact, Level: lvl, Fields: row.Values}
	}
	return Decision{Action: EmitFull, Level: lvl, Line: line}
}

// timeTaken reads the time-taken slot as a 32-bit integer. A row with too
// few recognized columns to reach the slot counts as 0; a present value,
// even an empty one, must parse.
func timeTaken(row parser.Row) (int, error) {
	if !row.Has(model.TimeTaken) {
		return 0, nil
	}
	v := row.Get(model.TimeTaken)
	n, err := strconv.ParseInt(v, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrTimeTaken, v)
	}
	return int(n), nil
}

// containsAny reports whether s contains at least one of terms.
func containsAny(s string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}
