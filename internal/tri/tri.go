// Package tri implements the n<m<y tri-value lattice used throughout Kconfig
// expression evaluation.
package tri

import "strings"

// Value is a point in the ordered lattice {N<M<Y}.
type Value int

const (
	N Value = iota
	M
	Y
)

// String renders a Value the way Kconfig text does.
func (v Value) String() string {
	switch v {
	case N:
		return "n"
	case M:
		return "m"
	case Y:
		return "y"
	default:
		return "?"
	}
}

// Parse reads a case-insensitive "n"/"m"/"y" literal into a Value.
func Parse(s string) (Value, bool) {
	switch strings.ToLower(s) {
	case "n":
		return N, true
	case "m":
		return M, true
	case "y":
		return Y, true
	default:
		return 0, false
	}
}

// And is the lattice meet: the tri-value AND operator.
func And(a, b Value) Value {
	if a < b {
		return a
	}
	return b
}

// Or is the lattice join: the tri-value OR operator.
func Or(a, b Value) Value {
	if a > b {
		return a
	}
	return b
}

// Not negates a tri-value: n<->y, m stays m.
func Not(v Value) Value {
	return 2 - v
}
