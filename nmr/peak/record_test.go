package peak

import (
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/algo-nmr/nmr/units"
)

func TestSplitRecord(t *testing.T) {
	tests := []struct {
		name string
		line string
		want []string
	}{
		{name: "plain", line: "1 2.5  HN", want: []string{"1", "2.5", "HN"}},
		{name: "braced spaces", line: "1 {12.HN 14.HN} x", want: []string{"1", "12.HN 14.HN", "x"}},
		{name: "braced quotes", line: `{say "hi"} 2`, want: []string{`say "hi"`, "2"}},
		{name: "nested braces", line: "{a {b} c}", want: []string{"a {b} c"}},
		{name: "escaped brace", line: `{a \} b}`, want: []string{"a } b"}},
		{name: "empty braces", line: "{} 3", want: []string{"", "3"}},
		{name: "double quoted", line: `"a b" "c \" d"`, want: []string{"a b", `c " d`}},
		{name: "blank", line: "   ", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SplitRecord(tt.line)
			if err != nil {
				t.Fatalf("SplitRecord(%q): %v", tt.line, err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("SplitRecord(%q) = %q, want %q", tt.line, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("field %d = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestSplitRecordErrors(t *testing.T) {
	for _, line := range []string{"{open", `"open`, "{a}b", `{a\`, `"a"b`} {
		t.Run(line, func(t *testing.T) {
			if _, err := SplitRecord(line); !errors.Is(err, units.ErrParse) {
				t.Fatalf("SplitRecord(%q) err = %v, want parse error", line, err)
			}
		})
	}
}

func TestQuoteFieldRoundTrip(t *testing.T) {
	for _, s := range []string{"", "HN", "a b", `x "y" z`, "{", "}", `a\b`, "{a} {b", "tab\there"} {
		fields, err := SplitRecord("pre " + QuoteField(s) + " post")
		if err != nil {
			t.Fatalf("QuoteField(%q) = %q: %v", s, QuoteField(s), err)
		}
		if len(fields) != 3 || fields[1] != s {
			t.Fatalf("QuoteField(%q) round trip = %q", s, fields)
		}
	}
}

func TestPeakRecordRoundTrip(t *testing.T) {
	reg := NewRegistry()
	src, _ := reg.Create("src", 2)
	dst, _ := reg.Create("dst", 2)

	src.AddPeak()
	p, _ := src.AddPeakAt(8.25, 119.5)
	p.SetIntensity(1.5e6)
	p.SetVolume(-3)
	p.SetStatus(2)
	p.Dim(0).SetLineWidth(0.02)
	p.Dim(0).SetBounds(0.05)
	p.Dim(0).SetLabel(`12.HN {alt "b"}`)
	p.Dim(1).ClearChemShift()

	got, err := dst.AddRecord(p.Record())
	if err != nil {
		t.Fatalf("AddRecord(%q): %v", p.Record(), err)
	}
	if got.ID() != 1 || got.Status() != 2 || got.Intensity() != 1.5e6 || got.Volume() != -3 {
		t.Fatalf("peak fields lost: %s", got.Record())
	}
	if shift, ok := got.Dim(0).ChemShift(); !ok || shift != 8.25 {
		t.Fatalf("shift = %v", shift)
	}
	if _, ok := got.Dim(1).ChemShift(); ok {
		t.Fatal("unset shift should stay unset")
	}
	if got.Dim(0).Label() != `12.HN {alt "b"}` || got.Dim(0).LineWidth() != 0.02 || got.Dim(0).Bounds() != 0.05 {
		t.Fatalf("dimension fields lost: %s", got.Record())
	}
	if got.Record() != p.Record() {
		t.Fatalf("record mismatch:\n got %s\nwant %s", got.Record(), p.Record())
	}

	// Ids continue after the recorded one.
	if next := dst.AddPeak(); next.ID() != 2 {
		t.Fatalf("next id = %d, want 2", next.ID())
	}
	if _, err := dst.AddRecord(p.Record()); !errors.Is(err, ErrPeakIDInUse) {
		t.Fatalf("reused id err = %v", err)
	}
}

func TestAddRecordErrors(t *testing.T) {
	l := newTestList(t, 1)

	tests := map[string]struct {
		line string
		want error
	}{
		"too few fields": {line: "1 0 0", want: units.ErrParse},
		"wrong nDim":     {line: "1 0 0 0 1 0 0 a 2 0 0 b", want: ErrInvalidDimension},
		"bad id":         {line: "x 0 0 0 1 0 0 a", want: units.ErrParse},
		"bad shift":      {line: "1 0 0 0 y 0 0 a", want: units.ErrParse},
		"bad width":      {line: "1 0 0 0 1 w 0 a", want: units.ErrParse},
		"bad brace":      {line: "1 0 0 0 1 0 0 {a", want: units.ErrParse},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := l.AddRecord(tt.line); !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
	if l.Size() != 0 {
		t.Fatal("failed records must not add peaks")
	}

	p, err := l.AddRecord("7 0 0 0 ? 0 0 {}")
	if err != nil {
		t.Fatalf("AddRecord: %v", err)
	}
	if _, ok := p.Dim(0).ChemShift(); ok || p.ID() != 7 || !math.IsNaN(p.Dim(0).chemShift) {
		t.Fatal("unset shift record decoded incorrectly")
	}
}
