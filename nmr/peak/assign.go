package peak

import (
	"fmt"
	"strings"
)

// AssignmentLevel classifies the assignment state of a peak dimension.
type AssignmentLevel int

const (
	// Unassigned dimensions carry no label, or only "?".
	Unassigned AssignmentLevel = iota
	// Assigned dimensions carry exactly one atom label.
	Assigned
	// Ambiguous dimensions carry several candidate labels.
	Ambiguous
)

// AssignmentLevels lists every level in display order.
var AssignmentLevels = []AssignmentLevel{Unassigned, Assigned, Ambiguous}

func (a AssignmentLevel) String() string {
	switch a {
	case Unassigned:
		return "unassigned"
	case Assigned:
		return "assigned"
	case Ambiguous:
		return "ambiguous"
	default:
		return fmt.Sprintf("AssignmentLevel(%d)", int(a))
	}
}

// ClassifyLabel returns the assignment level of a dimension label.
// Candidate labels are separated by commas or whitespace.
func ClassifyLabel(label string) AssignmentLevel {
	fields := strings.FieldsFunc(label, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})

	n := 0
	for _, f := range fields {
		if f != "?" {
			n++
		}
	}

	switch n {
	case 0:
		return Unassigned
	case 1:
		return Assigned
	default:
		return Ambiguous
	}
}

// Level returns the assignment level of the dimension.
func (d *Dim) Level() AssignmentLevel {
	return ClassifyLabel(d.Label())
}

// AssignmentStatus counts peak dimensions per assignment level. Every
// dimension of every live peak is counted exactly once, so the counts sum
// to Size()*NDim().
func (l *List) AssignmentStatus() map[AssignmentLevel]int {
	counts := make(map[AssignmentLevel]int, len(AssignmentLevels))
	for _, level := range AssignmentLevels {
		counts[level] = 0
	}
	for _, p := range l.Peaks() {
		for _, d := range p.dims {
			counts[d.Level()]++
		}
	}
	return counts
}
