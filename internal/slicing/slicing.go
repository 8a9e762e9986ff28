// Package slicing parses numpy-style slice expressions such as "10:20, :"
// into a structured multi-axis index.
//
// Grammar (whitespace is ignored):
//
//	expr  := ["["] item {"," item} ["]"]
//	item  := "" | "..." | int | [int] ":" [int] [":" [int]]
//
// An empty item selects a whole axis, so ":" and "" are equivalent.
package slicing

import (
	"fmt"
	"strconv"
	"strings"
)

// ItemKind identifies what a single index item selects.
type ItemKind int

const (
	// KindRange selects start:stop:step along one axis.
	KindRange ItemKind = iota
	// KindInt selects a single position and removes the axis.
	KindInt
	// KindEllipsis expands to as many full ranges as needed.
	KindEllipsis
)

// Item is one comma-separated element of a slice expression.
// Nil bounds mean "use the default for the step direction".
type Item struct {
	Kind  ItemKind
	Value int // KindInt only

	Start *int
	Stop  *int
	Step  *int
}

// Index is a parsed multi-axis selection. A nil or empty Index selects everything.
type Index []Item

// ParseError reports a malformed slice expression.
type ParseError struct {
	Expr   string
	Item   string
	Reason string
}

func (e *ParseError) Error() string {
	if e.Item == "" {
		return fmt.Sprintf("invalid slice %q: %s", e.Expr, e.Reason)
	}
	return fmt.Sprintf("invalid slice %q at %q: %s", e.Expr, e.Item, e.Reason)
}

// Parse parses expr. Empty or whitespace-only input returns an empty Index.
func Parse(expr string) (Index, error) {
	compact := strings.Join(strings.Fields(expr), "")
	if compact == "" {
		return nil, nil
	}

	if strings.HasPrefix(compact, "[") || strings.HasSuffix(compact, "]") {
		if !strings.HasPrefix(compact, "[") || !strings.HasSuffix(compact, "]") {
			return nil, &ParseError{Expr: expr, Reason: "unbalanced brackets"}
		}
		compact = compact[1 : len(compact)-1]
	}

	parts := strings.Split(compact, ",")
	idx := make(Index, 0, len(parts))
	ellipses := 0
	for _, part := range parts {
		item, err := parseItem(part)
		if err != nil {
			return nil, &ParseError{Expr: expr, Item: part, Reason: err.Error()}
		}
		if item.Kind == KindEllipsis {
			ellipses++
			if ellipses > 1 {
				return nil, &ParseError{Expr: expr, Item: part, Reason: "an index can only have a single ellipsis"}
			}
		}
		idx = append(idx, item)
	}
	return idx, nil
}

func parseItem(s string) (Item, error) {
	if s == "..." {
		return Item{Kind: KindEllipsis}, nil
	}

	frags := strings.Split(s, ":")
	switch {
	case len(frags) == 1 && frags[0] == "":
		return Item{Kind: KindRange}, nil
	case len(frags) == 1:
		v, err := parseInt(frags[0])
		if err != nil {
			return Item{}, err
		}
		return Item{Kind: KindInt, Value: v}, nil
	case len(frags) > 3:
		return Item{}, fmt.Errorf("too many ':' separators")
	}

	item := Item{Kind: KindRange}
	bounds := []**int{&item.Start, &item.Stop, &item.Step}
	for i, f := range frags {
		if f == "" {
			continue
		}
		v, err := parseInt(f)
		if err != nil {
			return Item{}, err
		}
		*bounds[i] = &v
	}
	if item.Step != nil && *item.Step == 0 {
		return Item{}, fmt.Errorf("slice step cannot be zero")
	}
	return item, nil
}

func parseInt(s string) (int, error) {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%q is not an integer", s)
	}
	return v, nil
}

// IsIdentity reports whether the index selects the whole array unchanged.
func (idx Index) IsIdentity() bool {
	for _, it := range idx {
		switch it.Kind {
		case KindEllipsis:
		case KindRange:
			if it.Start != nil || it.Stop != nil || (it.Step != nil && *it.Step != 1) {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// String renders the index in canonical numpy form.
func (idx Index) String() string {
	parts := make([]string, len(idx))
	for i, it := range idx {
		parts[i] = it.String()
	}
	return strings.Join(parts, ", ")
}

func (it Item) String() string {
	switch it.Kind {
	case KindInt:
		return strconv.Itoa(it.Value)
	case KindEllipsis:
		return "..."
	}
	s := optInt(it.Start) + ":" + optInt(it.Stop)
	if it.Step != nil {
		s += ":" + strconv.Itoa(*it.Step)
	}
	return s
}

func optInt(p *int) string {
	if p == nil {
		return ""
	}
	return strconv.Itoa(*p)
}
