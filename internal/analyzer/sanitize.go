package analyzer

import "strings"

// sanitize strips control characters (except newline) to prevent terminal injection
func sanitize(s string) string {
	var builder strings.Builder
	for _, r := range s {
		if r >= 32 || r == '\n' || r == '\t' {
			builder.WriteRune(r)
		}
	}
	return builder.String()
}
