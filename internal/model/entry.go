package model

// RawLine is a single line read from an input source.
type RawLine struct {
	Text   string
	Source string // originating file path, "-" for stdin
}

// Kind identifies what an Output value carries.
type Kind int

const (
	// KindComment is a '#' line passed through verbatim.
	KindComment Kind = iota
	// KindHeader is a '#Fields:' line emitted as received.
	KindHeader
	// KindCompactHeader is a '#Fields:' line reduced to the recognized names.
	KindCompactHeader
	// KindLine is a data line emitted in full.
	KindLine
	// KindFields is a data line reduced to its recognized column values.
	KindFields
)

// Output is a single unit handed to the output sink.
type Output struct {
	Kind   Kind
	Source string
	Number int      // 1-based line number within the stream
	Text   string   // lowercased line text
	Names  []string // canonical names, one per recognized column
	Values []string // recognized column values, in header order
}
