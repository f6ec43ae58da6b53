// Package rope provides a logical concatenation of independently-owned,
// possibly non-contiguous float64 slices, addressed as one flat index space.
//
// Lattice state lives in disjoint position/velocity/acceleration arrays while
// policy code wants a single flat vector. A Rope lets both views coexist
// without copying; the one unavoidable copy happens at the policy boundary
// via Flatten or CopyToSlice.
package rope

import (
	"fmt"
	"iter"
	"sort"
)

// Rope is a flat view over an ordered list of borrowed slices. It never owns
// the underlying data: writes through the rope mutate the caller's slices,
// and the rope must not be used after any backing slice is invalidated.
type Rope struct {
	offsets []int
	data    [][]float64
}

// New builds a Rope over the given slices, in order. Empty slices are legal
// and contribute nothing to the index space.
func New(slices ...[]float64) *Rope {
	r := &Rope{
		offsets: make([]int, len(slices)),
		data:    make([][]float64, len(slices)),
	}
	total := 0
	for i, s := range slices {
		r.offsets[i] = total
		r.data[i] = s
		total += len(s)
	}
	return r
}

// Len returns the total logical length across all slices.
func (r *Rope) Len() int {
	if len(r.data) == 0 {
		return 0
	}
	last := len(r.data) - 1
	return r.offsets[last] + len(r.data[last])
}

// IsEmpty reports whether the rope addresses no elements.
func (r *Rope) IsEmpty() bool { return r.Len() == 0 }

// Merge concatenates two ropes into a new one, shifting the second rope's
// offsets by the first's length. No element is copied; the result shares the
// backing slices of both inputs.
func (r *Rope) Merge(other *Rope) *Rope {
	shift := r.Len()
	merged := &Rope{
		offsets: make([]int, 0, len(r.offsets)+len(other.offsets)),
		data:    make([][]float64, 0, len(r.data)+len(other.data)),
	}
	merged.offsets = append(merged.offsets, r.offsets...)
	merged.data = append(merged.data, r.data...)
	for _, off := range other.offsets {
		merged.offsets = append(merged.offsets, off+shift)
	}
	merged.data = append(merged.data, other.data...)
	return merged
}

// locate resolves logical index k to the owning slice: the slice with the
// largest offset <= k. Panics if k is out of range; an out-of-range index is
// a programming error, not a runtime condition.
func (r *Rope) locate(k int) (slice int, local int) {
	if k < 0 || k >= r.Len() {
		panic(fmt.Sprintf("rope: index %d out of range [0, %d)", k, r.Len()))
	}
	// Largest i with offsets[i] <= k.
	i := sort.SearchInts(r.offsets, k+1) - 1
	// Skip empty slices sharing the same offset.
	for len(r.data[i]) == 0 {
		i--
	}
	return i, k - r.offsets[i]
}

// At returns the element at logical index k.
func (r *Rope) At(k int) float64 {
	i, j := r.locate(k)
	return r.data[i][j]
}

// Set writes the element at logical index k through to the owning slice.
func (r *Rope) Set(k int, v float64) {
	i, j := r.locate(k)
	r.data[i][j] = v
}

// CopyFromSlice scatters a contiguous buffer into the rope's slices in
// order. Panics if the lengths differ.
func (r *Rope) CopyFromSlice(flat []float64) {
	if len(flat) != r.Len() {
		panic(fmt.Sprintf("rope: scatter length mismatch: rope has %d elements, buffer has %d", r.Len(), len(flat)))
	}
	for i, s := range r.data {
		copy(s, flat[r.offsets[i]:r.offsets[i]+len(s)])
	}
}

// CopyToSlice gathers every element into a contiguous buffer in logical
// order. Panics if the lengths differ.
func (r *Rope) CopyToSlice(flat []float64) {
	if len(flat) != r.Len() {
		panic(fmt.Sprintf("rope: gather length mismatch: rope has %d elements, buffer has %d", r.Len(), len(flat)))
	}
	for i, s := range r.data {
		copy(flat[r.offsets[i]:r.offsets[i]+len(s)], s)
	}
}

// Flatten allocates a contiguous copy of the rope's contents. This is the
// single copy point when crossing into the external policy boundary.
func (r *Rope) Flatten() []float64 {
	flat := make([]float64, r.Len())
	r.CopyToSlice(flat)
	return flat
}

// Values yields every element across all slices in logical order, each slice
// fully drained before the next.
func (r *Rope) Values() iter.Seq[float64] {
	return func(yield func(float64) bool) {
		for _, s := range r.data {
			for _, v := range s {
				if !yield(v) {
					return
				}
			}
		}
	}
}
