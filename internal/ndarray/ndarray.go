// Package ndarray provides a small dense, row-major float64 N-dimensional
// array with the handful of reshaping operations the importer needs:
// axis reversal, numpy basic slicing and singleton axis insertion.
package ndarray

import (
	"fmt"

	"github.com/JulieCB/tvb-root/internal/slicing"
)

// Array is a dense row-major float64 array. The zero value is not usable;
// construct with New.
type Array struct {
	shape []int
	data  []float64
}

// New wraps data with the given shape. data is not copied.
func New(shape []int, data []float64) (*Array, error) {
	n := 1
	for i, d := range shape {
		if d < 0 {
			return nil, fmt.Errorf("negative dimension %d at axis %d", d, i)
		}
		n *= d
	}
	if n != len(data) {
		return nil, fmt.Errorf("shape %v needs %d elements, got %d", shape, n, len(data))
	}
	return &Array{shape: append([]int(nil), shape...), data: data}, nil
}

// Shape returns a copy of the array's dimensions.
func (a *Array) Shape() []int {
	return append([]int(nil), a.shape...)
}

// NDim returns the number of dimensions.
func (a *Array) NDim() int {
	return len(a.shape)
}

// Len returns the total number of elements.
func (a *Array) Len() int {
	return len(a.data)
}

// Data returns the backing row-major slice. Callers must not modify it.
func (a *Array) Data() []float64 {
	return a.data
}

// At returns the element at the given coordinates.
func (a *Array) At(coords ...int) float64 {
	return a.data[a.offset(coords)]
}

func (a *Array) offset(coords []int) int {
	if len(coords) != len(a.shape) {
		panic(fmt.Sprintf("ndarray: %d coordinates for %d-dimensional array", len(coords), len(a.shape)))
	}
	off := 0
	for i, c := range coords {
		if c < 0 || c >= a.shape[i] {
			panic(fmt.Sprintf("ndarray: index %d out of range for axis %d with size %d", c, i, a.shape[i]))
		}
		off = off*a.shape[i] + c
	}
	return off
}

// strides returns row-major element strides.
func strides(shape []int) []int {
	s := make([]int, len(shape))
	acc := 1
	for i := len(shape) - 1; i >= 0; i-- {
		s[i] = acc
		acc *= shape[i]
	}
	return s
}

// Transpose reverses the order of the axes, like numpy's a.T.
// For a 2D array this swaps rows and columns.
func (a *Array) Transpose() *Array {
	nd := len(a.shape)
	outShape := make([]int, nd)
	for i := range a.shape {
		outShape[i] = a.shape[nd-1-i]
	}
	inStrides := strides(a.shape)
	out := make([]float64, len(a.data))

	coords := make([]int, nd)
	for k := range out {
		// coords enumerate the output in row-major order; input axis i is output axis nd-1-i.
		src := 0
		for i := 0; i < nd; i++ {
			src += coords[nd-1-i] * inStrides[i]
		}
		out[k] = a.data[src]
		increment(coords, outShape)
	}
	return &Array{shape: outShape, data: out}
}

// Slice applies a parsed numpy-style index and returns a new array.
// Integer items remove their axis.
func (a *Array) Slice(idx slicing.Index) (*Array, error) {
	if len(idx) == 0 {
		return a, nil
	}
	sel, err := idx.Resolve(a.shape)
	if err != nil {
		return nil, err
	}

	counts := sel.Count
	total := 1
	for _, c := range counts {
		total *= c
	}
	inStrides := strides(a.shape)
	out := make([]float64, total)

	coords := make([]int, len(counts))
	for k := range out {
		src := 0
		for i, c := range coords {
			src += (sel.Start[i] + c*sel.Step[i]) * inStrides[i]
		}
		out[k] = a.data[src]
		increment(coords, counts)
	}
	return &Array{shape: sel.Shape(), data: out}, nil
}

// ExpandDims inserts a singleton axis at position axis (0 <= axis <= NDim).
// The data is shared with the receiver.
func (a *Array) ExpandDims(axis int) (*Array, error) {
	if axis < 0 || axis > len(a.shape) {
		return nil, fmt.Errorf("axis %d out of range for %d-dimensional array", axis, len(a.shape))
	}
	shape := make([]int, 0, len(a.shape)+1)
	shape = append(shape, a.shape[:axis]...)
	shape = append(shape, 1)
	shape = append(shape, a.shape[axis:]...)
	return &Array{shape: shape, data: a.data}, nil
}

// Equal reports whether two arrays have the same shape and elements.
func (a *Array) Equal(b *Array) bool {
	if len(a.shape) != len(b.shape) || len(a.data) != len(b.data) {
		return false
	}
	for i := range a.shape {
		if a.shape[i] != b.shape[i] {
			return false
		}
	}
	for i := range a.data {
		if a.data[i] != b.data[i] {
			return false
		}
	}
	return true
}

// increment advances coords by one position in row-major order over shape.
func increment(coords, shape []int) {
	for i := len(coords) - 1; i >= 0; i-- {
		coords[i]++
		if coords[i] < shape[i] {
			return
		}
		coords[i] = 0
	}
}
