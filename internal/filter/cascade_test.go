package filter

import (
	"errors"
	"reflect"
	"testing"

	"github.com/atikulmunna/iisfilter/internal/parser"
)

const (
	header = "#fields: date time cs-method cs-uri-stem cs-uri-query cs-username c-ip sc-status sc-substatus sc-win32-status time-taken"
	line   = "2013-12-31 00:00:01 get /console.asmx - - 10.0.0.1 200 0 0 1500"
)

func project(t *testing.T, text string) parser.Row {
	t.Helper()
	s := parser.NewSchema()
	s.Parse(header)
	row, err := s.Project(parser.Tokenize(text))
	if err != nil {
		t.Fatal(err)
	}
	return row
}

func TestCascadeScenarios(t *testing.T) {
	tests := []struct {
		name   string
		cfg    Config
		action Action
		level  Level
	}{
		{"threshold below value", NewConfig(1000, nil, nil, false), EmitFull, LevelNone},
		{"threshold above value", NewConfig(2000, nil, nil, false), Suppress, LevelTimeTaken},
		{"exclusion match", NewConfig(0, []string{"console.asmx"}, nil, false), Suppress, LevelExclusion},
		{"exclusion miss", NewConfig(0, []string{"itemservices"}, nil, false), EmitFull, LevelExclusion},
		{"inclusion match", NewConfig(0, nil, []string{"console"}, false), EmitFull, LevelInclusion},
		{"inclusion miss", NewConfig(0, nil, []string{"foo"}, false), Suppress, LevelInclusion},
		{"exclusion beats inclusion", NewConfig(0, []string{"asmx"}, []string{"console"}, false), Suppress, LevelExclusion},
		{"exclusion miss then inclusion", NewConfig(0, []string{"aspx"}, []string{"console"}, false), EmitFull, LevelInclusion},
		{"exclusion miss then inclusion miss", NewConfig(0, []string{"aspx"}, []string{"foo"}, false), Suppress, LevelInclusion},
		{"threshold beats inclusion", NewConfig(5000, nil, []string{"console"}, false), Suppress, LevelTimeTaken},
	}

	row := project(t, line)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := New(tt.cfg).Classify(row, line)
			if err != nil {
				t.Fatal(err)
			}
			if d.Action != tt.action {
				t.Errorf("expected %s, got %s", tt.action, d.Action)
			}
			if d.Level != tt.level {
				t.Errorf("expected level %d, got %d", tt.level, d.Level)
			}
			if d.Action == EmitFull && d.Line != line {
				t.Errorf("expected full line %q, got %q", line, d.Line)
			}
		})
	}
}

func TestThresholdMonotonic(t *testing.T) {
	row := project(t, line)

	for _, threshold := range []int{-1, 0, 1, 1499, 1500} {
		d, err := New(NewConfig(threshold, nil, nil, false)).Classify(row, line)
		if err != nil {
			t.Fatal(err)
		}
		if !d.Emitted() {
			t.Errorf("threshold %d: expected line to be emitted", threshold)
		}
	}
	for _, threshold := range []int{1501, 2000, 1 << 30} {
		d, err := New(NewConfig(threshold, nil, nil, false)).Classify(row, line)
		if err != nil {
			t.Fatal(err)
		}
		if d.Emitted() {
			t.Errorf("threshold %d: expected line to be suppressed", threshold)
		}
	}
}

func TestInclusionEmitsOnce(t *testing.T) {
	row := project(t, line)
	d, err := New(NewConfig(0, nil, []string{"console", "asmx"}, false)).Classify(row, line)
	if err != nil {
		t.Fatal(err)
	}
	if d.Action != EmitFull {
		t.Errorf("expected a single EmitFull decision, got %s", d.Action)
	}
}

func TestCompactDecision(t *testing.T) {
	row := project(t, line)
	d, err := New(NewConfig(1000, nil, nil, true)).Classify(row, line)
	if err != nil {
		t.Fatal(err)
	}
	if d.Action != EmitCompact {
		t.Fatalf("expected EmitCompact, got %s", d.Action)
	}
	want := []string{"2013-12-31", "00:00:01", "get", "/console.asmx", "-", "-", "10.0.0.1", "200", "0", "0", "1500"}
	if !reflect.DeepEqual(d.Fields, want) {
		t.Errorf("expected fields %v, got %v", want, d.Fields)
	}
}

func TestTermsAreLowercased(t *testing.T) {
	row := project(t, line)
	d, err := New(NewConfig(0, nil, []string{"CONSOLE.ASMX"}, false)).Classify(row, line)
	if err != nil {
		t.Fatal(err)
	}
	if !d.Emitted() {
		t.Error("expected an upper-case inclusion term to match the lowercased uri-stem")
	}
}

func TestMatchIsUriStemOnly(t *testing.T) {
	row := project(t, line)
	d, err := New(NewConfig(0, nil, []string{"10.0.0.1"}, false)).Classify(row, line)
	if err != nil {
		t.Fatal(err)
	}
	if d.Emitted() {
		t.Error("expected terms matching other fields to be ignored")
	}
}

func TestInvalidTimeTaken(t *testing.T) {
	tests := []struct {
		name  string
		taken string
	}{
		{"word", "slow"},
		{"empty token", ""},
		{"above int32", "2147483648"},
		{"below int32", "-2147483649"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bad := "2013-12-31 00:00:01 get /console.asmx - - 10.0.0.1 200 0 0 " + tt.taken
			_, err := New(NewConfig(0, nil, nil, false)).Classify(project(t, bad), bad)
			if !errors.Is(err, ErrTimeTaken) {
				t.Errorf("expected ErrTimeTaken, got %v", err)
			}
		})
	}
}

func TestTimeTakenInt32Bounds(t *testing.T) {
	max := "2013-12-31 00:00:01 get /console.asmx - - 10.0.0.1 200 0 0 2147483647"
	d, err := New(NewConfig(2147483647, nil, nil, false)).Classify(project(t, max), max)
	if err != nil {
		t.Fatal(err)
	}
	if !d.Emitted() {
		t.Error("expected the largest int32 to pass an equal threshold")
	}
}

func TestMissingTimeTakenCountsAsZero(t *testing.T) {
	s := parser.NewSchema()
	s.Parse("#fields: date time cs-method cs-uri-stem")
	text := "2013-12-31 00:00:01 get /console.asmx"
	row, err := s.Project(parser.Tokenize(text))
	if err != nil {
		t.Fatal(err)
	}

	d, err := New(NewConfig(0, nil, nil, false)).Classify(row, text)
	if err != nil {
		t.Fatal(err)
	}
	if !d.Emitted() {
		t.Error("expected line to pass a zero threshold")
	}

	d, err = New(NewConfig(1, nil, nil, false)).Classify(row, text)
	if err != nil {
		t.Fatal(err)
	}
	if d.Emitted() {
		t.Error("expected line to fail a positive threshold")
	}
}

func TestNewConfigSplitsTerms(t *testing.T) {
	cfg := NewConfig(0, []string{"ItemServices.aspx  console.asmx", "agent"}, []string{""}, false)

	want := []string{"itemservices.aspx", "console.asmx", "agent"}
	if !reflect.DeepEqual(cfg.Exclusion, want) {
		t.Errorf("expected exclusion %v, got %v", want, cfg.Exclusion)
	}
	if len(cfg.Inclusion) != 0 {
		t.Errorf("expected blank inclusion to leave the filter unset, got %v", cfg.Inclusion)
	}
}
