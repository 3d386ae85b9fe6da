// Package utils holds small helpers shared by the HTTP layer.
package utils

import "strconv"

// AtoiDefault parses s as an int, returning def when s is empty or invalid.
func AtoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

// ClampLimitOffset parses limit and offset query values. limit falls back to
// def and is bounded to [1, max]; a negative or invalid offset becomes 0.
func ClampLimitOffset(limitStr, offsetStr string, def, max int) (limit, offset int) {
	limit = AtoiDefault(limitStr, def)
	if limit < 1 {
		limit = 1
	}
	if limit > max {
		limit = max
	}
	offset = AtoiDefault(offsetStr, 0)
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// PageBounds returns the [lo, hi) slice bounds of a page over total items.
func PageBounds(total, offset, limit int) (lo, hi int) {
	lo = min(offset, total)
	hi = min(lo+limit, total)
	return lo, hi
}
