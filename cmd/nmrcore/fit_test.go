package main

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

// xexpCSV renders noiseless samples of 2.5*x*exp(-0.8*x).
func xexpCSV(withErr bool) string {
	var sb strings.Builder
	sb.WriteString("# x,y\n")
	for i := 1; i <= 32; i++ {
		x := 0.25 * float64(i)
		y := 2.5 * x * math.Exp(-0.8*x)
		if withErr {
			fmt.Fprintf(&sb, "%.17g,%.17g,0.01\n", x, y)
		} else {
			fmt.Fprintf(&sb, "%.17g,%.17g\n", x, y)
		}
	}
	return sb.String()
}

// paramValue finds the value column of a parameter row in text output.
func paramValue(t *testing.T, out, name string) float64 {
	t.Helper()
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) >= 2 && fields[0] == name {
			v, err := strconv.ParseFloat(fields[1], 64)
			if err != nil {
				t.Fatalf("parse %q: %v", line, err)
			}
			return v
		}
	}
	t.Fatalf("no row for %s in:\n%s", name, out)
	return 0
}

func TestFitCmdText(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "noe.csv")
	if err := os.WriteFile(path, []byte(xexpCSV(false)), 0o600); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "", "fit", "--equation", "xexp", path)
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	if !strings.Contains(out, "equation:   xexp") {
		t.Errorf("missing equation line:\n%s", out)
	}
	if !strings.Contains(out, "bootstrap:  16") {
		t.Errorf("bootstrap count should come from config:\n%s", out)
	}
	if a := paramValue(t, out, "a"); math.Abs(a-2.5) > 1e-4 {
		t.Errorf("a = %v, want 2.5", a)
	}
	if b := paramValue(t, out, "b"); math.Abs(b-0.8) > 1e-4 {
		t.Errorf("b = %v, want 0.8", b)
	}
}

func TestFitCmdStdinMarkdown(t *testing.T) {
	t.Parallel()

	out, err := execute(t, xexpCSV(true), "fit", "-e", "xexp", "--bootstrap", "8", "--markdown")
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	for _, want := range []string{"# Fit: xexp", "## Parameters", "Bootstrap resamples", "Parameter", "|"} {
		if !strings.Contains(out, want) {
			t.Errorf("markdown output missing %q:\n%s", want, out)
		}
	}
}

func TestFitCmdErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		stdin string
		args  []string
	}{
		{name: "unknown equation", stdin: xexpCSV(false), args: []string{"fit", "-e", "spline"}},
		{name: "bad number", stdin: "1,2\nx,3\n", args: []string{"fit", "-e", "linear"}},
		{name: "wrong column count", stdin: "1,2,3,4\n", args: []string{"fit", "-e", "linear"}},
		{name: "mixed error column", stdin: "1,2,0.1\n2,3\n3,4\n", args: []string{"fit", "-e", "linear"}},
		{name: "too few samples", stdin: "1,2\n", args: []string{"fit", "-e", "linear"}},
		{name: "missing file", args: []string{"fit", filepath.Join(t.TempDir(), "none.csv")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := execute(t, tt.stdin, tt.args...); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestReadSamples(t *testing.T) {
	t.Parallel()

	data, err := readSamples(strings.NewReader("# t,I,err\n0, 1, 0.1\n1, 0.5, 0.1\n"))
	if err != nil {
		t.Fatalf("readSamples: %v", err)
	}
	if len(data.X) != 2 || len(data.Y) != 2 || len(data.Err) != 2 {
		t.Fatalf("unexpected shape: %+v", data)
	}
	if data.X[1][0] != 1 || data.Y[1] != 0.5 || data.Err[0] != 0.1 {
		t.Errorf("unexpected values: %+v", data)
	}
}
