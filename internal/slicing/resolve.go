package slicing

import "fmt"

// Selection is the concrete per-axis selection of an Index against a shape.
// Keep[i] is false for axes removed by an integer item.
type Selection struct {
	Start []int
	Step  []int
	Count []int
	Keep  []bool
}

// Resolve binds idx to shape using numpy basic-indexing rules: negative
// positions count from the end, range bounds are clamped, integers out of
// range are an error and the ellipsis fills the unspecified axes.
func (idx Index) Resolve(shape []int) (*Selection, error) {
	items, err := idx.expand(len(shape))
	if err != nil {
		return nil, err
	}

	sel := &Selection{
		Start: make([]int, len(shape)),
		Step:  make([]int, len(shape)),
		Count: make([]int, len(shape)),
		Keep:  make([]bool, len(shape)),
	}
	for axis, it := range items {
		n := shape[axis]
		if it.Kind == KindInt {
			pos := it.Value
			if pos < 0 {
				pos += n
			}
			if pos < 0 || pos >= n {
				return nil, fmt.Errorf("index %d is out of bounds for axis %d with size %d", it.Value, axis, n)
			}
			sel.Start[axis], sel.Step[axis], sel.Count[axis] = pos, 1, 1
			continue
		}
		start, step, count := rangeIndices(it, n)
		sel.Start[axis], sel.Step[axis], sel.Count[axis] = start, step, count
		sel.Keep[axis] = true
	}
	return sel, nil
}

// Shape returns the shape of the selected array (removed axes dropped).
func (s *Selection) Shape() []int {
	out := make([]int, 0, len(s.Count))
	for i, c := range s.Count {
		if s.Keep[i] {
			out = append(out, c)
		}
	}
	return out
}

// expand replaces the ellipsis (or the missing tail) with full ranges so
// the result has exactly ndim items.
func (idx Index) expand(ndim int) ([]Item, error) {
	explicit := 0
	for _, it := range idx {
		if it.Kind != KindEllipsis {
			explicit++
		}
	}
	if explicit > ndim {
		return nil, fmt.Errorf("too many indices: array is %d-dimensional, but %d were indexed", ndim, explicit)
	}

	out := make([]Item, 0, ndim)
	filled := false
	for _, it := range idx {
		if it.Kind == KindEllipsis {
			for i := 0; i < ndim-explicit; i++ {
				out = append(out, Item{Kind: KindRange})
			}
			filled = true
			continue
		}
		out = append(out, it)
	}
	if !filled {
		for len(out) < ndim {
			out = append(out, Item{Kind: KindRange})
		}
	}
	return out, nil
}

// rangeIndices mirrors Python's slice.indices(n) followed by len(range(...)).
func rangeIndices(it Item, n int) (start, step, count int) {
	step = 1
	if it.Step != nil {
		step = *it.Step
	}

	var lower, upper int
	if step < 0 {
		lower, upper = -1, n-1
	} else {
		lower, upper = 0, n
	}

	clamp := func(p *int, def int) int {
		if p == nil {
			return def
		}
		v := *p
		if v < 0 {
			v += n
			if v < lower {
				v = lower
			}
		} else if v > upper {
			v = upper
		}
		return v
	}

	if step < 0 {
		start = clamp(it.Start, upper)
		stop := clamp(it.Stop, lower)
		if start > stop {
			count = (start-stop-1)/(-step) + 1
		}
	} else {
		start = clamp(it.Start, lower)
		stop := clamp(it.Stop, upper)
		if stop > start {
			count = (stop-start-1)/step + 1
		}
	}
	return start, step, count
}
