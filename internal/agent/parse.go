package agent

import (
	"regexp"
	"strconv"
	"strings"
)

// ItemRequest is one parsed line of a free-text item list.
type ItemRequest struct {
	Name     string
	Quantity int
}

// itemRE captures a leading quantity with an optional "x" separator, then the
// product name guess: "2x Headphones", "2 Headphones", "2 x Headphones".
var itemRE = regexp.MustCompile(`(\d+)\s*[xX]?\s*(.*)`)

// ParseItems splits a comma-separated item list and extracts quantities.
// Entries without a leading number default to quantity 1; blank entries are
// dropped. Name resolution against the catalog happens later, so this never
// fails.
func ParseItems(items string) []ItemRequest {
	var out []ItemRequest
	for _, part := range strings.Split(items, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		req := ItemRequest{Name: part, Quantity: 1}
		if m := itemRE.FindStringSubmatch(part); m != nil {
			if qty, err := strconv.Atoi(m[1]); err == nil && qty > 0 {
				req.Quantity = qty
				req.Name = strings.TrimSpace(m[2])
			}
		}
		if req.Name == "" {
			continue
		}
		out = append(out, req)
	}
	return out
}
