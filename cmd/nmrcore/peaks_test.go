package main

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cwbudde/algo-nmr/nmr/peak"
)

const testPeaks = `# id status intensity volume shift width bounds label
0 0 100 0 4.7 1 2 H1
1 0 50 0 1.2 1 2 ?
2 0 30 0 8 1 2 H2,H3
`

func TestPeaksCmd(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "list.peaks")
	if err := os.WriteFile(path, []byte(testPeaks), 0o600); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "", "peaks", "--remove", "1:2", path)
	if err != nil {
		t.Fatalf("peaks: %v", err)
	}

	want := strings.Join([]string{
		"0 0 100 0 4.7 1 2 H1",
		"2 0 30 0 8 1 2 H2,H3",
		"# removed 1 (regions: 1 ok, 0 failed)",
		"# unassigned=0 assigned=1 ambiguous=1",
	}, "\n") + "\n"
	if out != want {
		t.Errorf("output =\n%s\nwant\n%s", out, want)
	}
}

func TestPeaksCmdNoRegions(t *testing.T) {
	t.Parallel()

	out, err := execute(t, testPeaks, "peaks")
	if err != nil {
		t.Fatalf("peaks: %v", err)
	}
	if !strings.Contains(out, "# removed 0 (regions: 0 ok, 0 failed)") {
		t.Errorf("unexpected summary:\n%s", out)
	}
	if !strings.Contains(out, "# unassigned=1 assigned=1 ambiguous=1") {
		t.Errorf("unexpected assignment counts:\n%s", out)
	}
}

func TestPeaksCmdErrors(t *testing.T) {
	t.Parallel()

	if _, err := execute(t, testPeaks, "peaks", "--remove", "3"); !errors.Is(err, peak.ErrInvalidRegion) {
		t.Errorf("malformed interval: got %v, want ErrInvalidRegion", err)
	}
	if _, err := execute(t, testPeaks, "peaks", "--ndim", "2"); !errors.Is(err, peak.ErrInvalidDimension) {
		t.Errorf("dimension mismatch: got %v, want ErrInvalidDimension", err)
	}
	if _, err := execute(t, "0 0 x 0 1 1 1 H\n", "peaks"); err == nil || !strings.Contains(err.Error(), "line 1") {
		t.Errorf("bad record: got %v, want line 1 error", err)
	}
}

func TestParseInterval(t *testing.T) {
	t.Parallel()

	r, err := parseInterval(" 5 : 3 ")
	if err != nil {
		t.Fatalf("parseInterval: %v", err)
	}
	if r.Start(0) != 3 || r.End(0) != 5 {
		t.Errorf("region = [%v, %v], want [3, 5]", r.Start(0), r.End(0))
	}
	if _, err := parseInterval("a:b"); !errors.Is(err, peak.ErrInvalidRegion) {
		t.Errorf("got %v, want ErrInvalidRegion", err)
	}
}
