package peak

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/cwbudde/algo-nmr/nmr/units"
)

// unsetShift is the record token for a dimension without a chemical shift.
const unsetShift = "?"

// SplitRecord splits a whitespace-delimited record into fields. A field may
// be wrapped in braces, in which case it can contain whitespace, quotes
// and balanced braces; a backslash inside braces escapes the next
// character. A field may also be wrapped in double quotes with backslash
// escapes. Malformed input returns a *units.ParseError.
func SplitRecord(line string) ([]string, error) {
	var (
		fields []string
		i      int
	)
	for {
		for i < len(line) && isSpace(line[i]) {
			i++
		}
		if i >= len(line) {
			return fields, nil
		}

		var (
			field string
			err   error
		)
		switch line[i] {
		case '{':
			field, i, err = readBraced(line, i)
		case '"':
			field, i, err = readQuoted(line, i)
		default:
			start := i
			for i < len(line) && !isSpace(line[i]) {
				i++
			}
			field = line[start:i]
		}
		if err != nil {
			return nil, err
		}
		if i < len(line) && !isSpace(line[i]) {
			return nil, &units.ParseError{Token: line, Reason: fmt.Sprintf("unexpected %q after field at offset %d", line[i], i)}
		}
		fields = append(fields, field)
	}
}

func readBraced(line string, i int) (string, int, error) {
	var sb strings.Builder
	depth := 1
	for i++; i < len(line); i++ {
		c := line[i]
		switch c {
		case '\\':
			if i+1 >= len(line) {
				return "", i, &units.ParseError{Token: line, Reason: "dangling escape"}
			}
			i++
			sb.WriteByte(line[i])
			continue
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return sb.String(), i + 1, nil
			}
		}
		sb.WriteByte(c)
	}
	return "", i, &units.ParseError{Token: line, Reason: "unterminated brace"}
}

func readQuoted(line string, i int) (string, int, error) {
	var sb strings.Builder
	for i++; i < len(line); i++ {
		c := line[i]
		switch c {
		case '\\':
			if i+1 >= len(line) {
				return "", i, &units.ParseError{Token: line, Reason: "dangling escape"}
			}
			i++
			sb.WriteByte(line[i])
			continue
		case '"':
			return sb.String(), i + 1, nil
		}
		sb.WriteByte(c)
	}
	return "", i, &units.ParseError{Token: line, Reason: "unterminated quote"}
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// QuoteField returns s encoded so that SplitRecord yields it back as a
// single field.
func QuoteField(s string) string {
	if s != "" && !strings.ContainsAny(s, " \t\r\n{}\"\\") {
		return s
	}

	var sb strings.Builder
	sb.Grow(len(s) + 2)
	sb.WriteByte('{')
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\', '{', '}':
			sb.WriteByte('\\')
		}
		sb.WriteByte(s[i])
	}
	sb.WriteByte('}')
	return sb.String()
}

// Record encodes the peak as a single line:
//
//	id status intensity volume {shift width bounds label}...
//
// with one shift/width/bounds/label group per dimension. An unset shift is
// written as "?".
func (p *Peak) Record() string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	fields := []string{
		strconv.Itoa(p.id),
		strconv.Itoa(p.status),
		formatFloat(p.intensity),
		formatFloat(p.volume),
	}
	for _, d := range p.dims {
		shift := unsetShift
		if !math.IsNaN(d.chemShift) {
			shift = formatFloat(d.chemShift)
		}
		fields = append(fields, shift, formatFloat(d.lineWidth), formatFloat(d.bounds), QuoteField(d.label))
	}
	return strings.Join(fields, " ")
}

// AddRecord decodes a line produced by Peak.Record and appends the peak,
// keeping its recorded id. The id must not be below any id this list has
// already assigned.
func (l *List) AddRecord(line string) (*Peak, error) {
	fields, err := SplitRecord(line)
	if err != nil {
		return nil, err
	}
	if len(fields) < 4 || (len(fields)-4)%4 != 0 {
		return nil, &units.ParseError{Token: line, Reason: fmt.Sprintf("%d fields is not 4 + 4 per dimension", len(fields))}
	}
	if nDim := (len(fields) - 4) / 4; nDim != l.NDim() {
		return nil, fmt.Errorf("%w: record has %d dimensions, list %q has %d", ErrInvalidDimension, nDim, l.Name(), l.NDim())
	}

	id, err := strconv.Atoi(fields[0])
	if err != nil || id < 0 {
		return nil, &units.ParseError{Token: fields[0], Reason: "invalid peak id"}
	}
	status, err := strconv.Atoi(fields[1])
	if err != nil {
		return nil, &units.ParseError{Token: fields[1], Reason: "invalid status"}
	}
	nums, err := parseFloats(fields[2], fields[3])
	if err != nil {
		return nil, err
	}

	type dimFields struct {
		shift, width, bounds float64
		label                string
	}
	dims := make([]dimFields, 0, (len(fields)-4)/4)
	for i := 4; i < len(fields); i += 4 {
		shift := math.NaN()
		if fields[i] != unsetShift {
			v, err := parseFloats(fields[i])
			if err != nil {
				return nil, err
			}
			shift = v[0]
		}
		wb, err := parseFloats(fields[i+1], fields[i+2])
		if err != nil {
			return nil, err
		}
		dims = append(dims, dimFields{shift: shift, width: wb[0], bounds: wb[1], label: fields[i+3]})
	}

	l.mu.Lock()
	if id < l.nextID {
		next := l.nextID
		l.mu.Unlock()
		return nil, fmt.Errorf("%w: %d (next free id %d)", ErrPeakIDInUse, id, next)
	}
	p := l.insertLocked(id)
	p.status = status
	p.intensity, p.volume = nums[0], nums[1]
	for i, d := range dims {
		p.dims[i].chemShift = d.shift
		p.dims[i].lineWidth = d.width
		p.dims[i].bounds = d.bounds
		p.dims[i].label = d.label
	}
	l.mu.Unlock()

	l.touch(CountChanged)
	return p, nil
}

func parseFloats(tokens ...string) ([]float64, error) {
	out := make([]float64, len(tokens))
	for i, tok := range tokens {
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return nil, &units.ParseError{Token: tok, Reason: "invalid number"}
		}
		out[i] = v
	}
	return out, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
