package engine

import (
	"math"

	"golang.org/x/exp/constraints"
)

// addChecked returns a+b and false when the sum does not fit in T
func addChecked[T constraints.Signed](a, b T) (T, bool) {
	s := a + b
	if (b > 0 && s < a) || (b < 0 && s > a) {
		return 0, false
	}
	return s, true
}

// subChecked returns a-b and false when the difference does not fit in T
func subChecked[T constraints.Signed](a, b T) (T, bool) {
	d := a - b
	if (b > 0 && d > a) || (b < 0 && d < a) {
		return 0, false
	}
	return d, true
}

// mulChecked returns a*b for non-negative operands
func mulChecked(a, b int) (int, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	if a > math.MaxInt/b {
		return 0, false
	}
	return a * b, true
}

// roundUpTo returns the smallest multiple of step that is >= n.
// n must be >= 0 and step > 0.
func roundUpTo(n, step int) (int, bool) {
	q := n / step
	if n%step != 0 {
		q++
	}
	return mulChecked(q, step)
}

// rangeLen returns max-min+1 without overflowing
func rangeLen(min, max int) (int, bool) {
	d, ok := subChecked(max, min)
	if !ok {
		return 0, false
	}
	return addChecked(d, 1)
}
