// Package dim holds per-dimension spectrometer metadata and the linear
// mappings between point positions and physical scales.
//
// A Dimension is parameterized by the spectrometer frequency SF (MHz), the
// sweep width SW (Hz), the reference value Ref (PPM at the center point
// Size/2) and the point count Size:
//
//	ppm   = Ref + (SW/SF)/2 - point*(SW/SF)/Size
//	point = (Ref + (SW/SF)/2 - ppm) * Size / (SW/SF)
//
// Point 0 is the downfield (high PPM) edge of the sweep width. Dimension is a
// value type: conversions operate on a copy, so changing a list's dimension
// never affects a conversion in flight. Callers re-run conversions after
// replacing a dimension.
package dim
