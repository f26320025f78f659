// Package utils provides small, generic helpers shared across layers.
// Nothing here depends on the domain or on Gin.
package utils

import "strconv"

// AtoiDefault parses s as an integer, returning def when s is empty or not
// a number. Query parameters like page and page_size go through this so a
// garbled value degrades to the default instead of a 400.
func AtoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}
