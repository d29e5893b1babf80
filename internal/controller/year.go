package controller

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrInvalidYear is returned for slider input that is not an integer.
var ErrInvalidYear = errors.New("invalid year")

// ParseYear converts raw slider input into a year within [min, max].
// Integral floats such as "2005.0" are accepted; anything else that is not
// an integer is rejected. Out-of-range years are clamped.
func ParseYear(raw string, min, max int) (int, error) {
	s := strings.TrimSpace(raw)
	n, err := strconv.Atoi(s)
	if err != nil {
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
			return 0, fmt.Errorf("%w: %q", ErrInvalidYear, raw)
		}
		// clamp before converting so huge values cannot overflow
		n = int(math.Max(float64(min), math.Min(float64(max), f)))
	}
	return clamp(n, min, max), nil
}

func clamp(n, min, max int) int {
	if n < min {
		return min
	}
	if n > max {
		return max
	}
	return n
}
