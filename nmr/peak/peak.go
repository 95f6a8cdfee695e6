package peak

import (
	"math"
	"sync"

	"github.com/cwbudde/algo-nmr/nmr/dim"
	"github.com/cwbudde/algo-nmr/nmr/units"
)

// StatusDeleted marks a peak that has been removed from its list.
const StatusDeleted = -1

// Peak is a single peak in a List. All accessors are safe for concurrent
// use; setters raise the owning list's peak-changed flag.
type Peak struct {
	list *List
	id   int

	mu        sync.RWMutex
	status    int
	intensity float64
	volume    float64
	dims      []*Dim
}

func newPeak(l *List, id, nDim int) *Peak {
	p := &Peak{list: l, id: id, dims: make([]*Dim, nDim)}
	for i := range p.dims {
		p.dims[i] = &Dim{peak: p, index: i, chemShift: math.NaN()}
	}
	return p
}

// ID returns the peak id, unique within its list.
func (p *Peak) ID() int { return p.id }

// List returns the owning peak list.
func (p *Peak) List() *List { return p.list }

// NDim returns the number of peak dimensions.
func (p *Peak) NDim() int { return len(p.dims) }

// Dim returns the i-th peak dimension.
func (p *Peak) Dim(i int) *Dim { return p.dims[i] }

// Status returns the status flag. Negative values mark deleted peaks.
func (p *Peak) Status() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.status
}

// IsDeleted reports whether the peak has been removed from its list.
func (p *Peak) IsDeleted() bool {
	return p.Status() < 0
}

// SetStatus sets the status flag.
func (p *Peak) SetStatus(status int) {
	p.mu.Lock()
	p.status = status
	p.mu.Unlock()
	p.list.touch(PeakChanged)
}

// Intensity returns the peak height.
func (p *Peak) Intensity() float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.intensity
}

// SetIntensity sets the peak height.
func (p *Peak) SetIntensity(v float64) {
	p.mu.Lock()
	p.intensity = v
	p.mu.Unlock()
	p.list.touch(PeakChanged)
}

// Volume returns the integrated peak volume.
func (p *Peak) Volume() float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.volume
}

// SetVolume sets the integrated peak volume.
func (p *Peak) SetVolume(v float64) {
	p.mu.Lock()
	p.volume = v
	p.mu.Unlock()
	p.list.touch(PeakChanged)
}

// markDeleted flags the peak as removed without notifying; the removing
// list raises its own flags.
func (p *Peak) markDeleted() {
	p.mu.Lock()
	p.status = StatusDeleted
	p.mu.Unlock()
}

// Dim is one dimension of a peak.
type Dim struct {
	peak  *Peak
	index int

	// guarded by peak.mu
	chemShift float64 // NaN when unset
	lineWidth float64
	bounds    float64
	label     string
}

// Index returns the dimension index within the peak.
func (d *Dim) Index() int { return d.index }

// Peak returns the owning peak.
func (d *Dim) Peak() *Peak { return d.peak }

// ChemShift returns the chemical shift in PPM and whether it is set.
func (d *Dim) ChemShift() (float64, bool) {
	d.peak.mu.RLock()
	defer d.peak.mu.RUnlock()
	return d.chemShift, !math.IsNaN(d.chemShift)
}

// SetChemShift sets the chemical shift in PPM. NaN clears it.
func (d *Dim) SetChemShift(ppm float64) {
	d.peak.mu.Lock()
	d.chemShift = ppm
	d.peak.mu.Unlock()
	d.peak.list.touch(PeakChanged)
}

// ClearChemShift unsets the chemical shift.
func (d *Dim) ClearChemShift() {
	d.SetChemShift(math.NaN())
}

// LineWidth returns the line width in PPM.
func (d *Dim) LineWidth() float64 {
	d.peak.mu.RLock()
	defer d.peak.mu.RUnlock()
	return d.lineWidth
}

// SetLineWidth sets the line width in PPM.
func (d *Dim) SetLineWidth(w float64) {
	d.peak.mu.Lock()
	d.lineWidth = w
	d.peak.mu.Unlock()
	d.peak.list.touch(PeakChanged)
}

// Bounds returns the box width in PPM.
func (d *Dim) Bounds() float64 {
	d.peak.mu.RLock()
	defer d.peak.mu.RUnlock()
	return d.bounds
}

// SetBounds sets the box width in PPM.
func (d *Dim) SetBounds(w float64) {
	d.peak.mu.Lock()
	d.bounds = w
	d.peak.mu.Unlock()
	d.peak.list.touch(PeakChanged)
}

// Label returns the assignment label.
func (d *Dim) Label() string {
	d.peak.mu.RLock()
	defer d.peak.mu.RUnlock()
	return d.label
}

// SetLabel sets the assignment label.
func (d *Dim) SetLabel(label string) {
	d.peak.mu.Lock()
	d.label = label
	d.peak.mu.Unlock()
	d.peak.list.touch(PeakChanged)
}

// Point returns the chemical shift as a fractional point on the list's
// dimension. It returns false when the shift is unset.
func (d *Dim) Point() (float64, bool) {
	ppm, ok := d.ChemShift()
	if !ok {
		return 0, false
	}
	return d.spectralDim().PPMToPoint(ppm), true
}

// Position returns the chemical shift expressed in the given unit.
func (d *Dim) Position(kind units.Kind) (units.Value, bool) {
	pt, ok := d.Point()
	if !ok {
		return units.Value{}, false
	}
	return units.FromPoint(kind, pt, d.spectralDim()), true
}

// SetPosition sets the chemical shift from a value in any unit.
func (d *Dim) SetPosition(v units.Value) {
	sd := d.spectralDim()
	d.SetChemShift(sd.PointToPPM(units.ToPoint(v, sd)))
}

func (d *Dim) spectralDim() dim.Dimension {
	return d.peak.list.Dim(d.index)
}
