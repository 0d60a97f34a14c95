package http

import "strings"

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

func sanitizePtr(p *string) *string {
	if p == nil {
		return nil
	}
	v := sanitizeInput(*p)
	return &v
}

// firstNonEmpty picks the label for a movement: income posts "source",
// expenses post "category"; either is accepted for both.
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = sanitizeInput(v); v != "" {
			return v
		}
	}
	return ""
}
