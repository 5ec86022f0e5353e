package rating

import (
	"strings"
	"unicode"
)

// PinningScore is the fraction of declared dependencies pinned to at
// least major+minor precision. Zero dependencies score 1.0.
func PinningScore(deps map[string]string) float64 {
	if len(deps) == 0 {
		return 1.0
	}
	pinned := 0
	for _, req := range deps {
		if pinnedRequirement(req) {
			pinned++
		}
	}
	return float64(pinned) / float64(len(deps))
}

// pinnedRequirement accepts exact versions, tilde ranges (patch-only
// drift), and x-ranges with a fixed minor like 2.3.x. Caret ranges, bare
// majors, wildcards, tags, and compound ranges float the minor and are
// not pinned.
func pinnedRequirement(req string) bool {
	req = strings.TrimSpace(req)
	if req == "" {
		return false
	}
	if strings.ContainsAny(req, " |&,^<>") {
		return false
	}
	req = strings.TrimPrefix(req, "~")
	req = strings.TrimPrefix(req, "=")
	req = strings.TrimPrefix(req, "v")

	parts := strings.Split(req, ".")
	if len(parts) < 2 {
		return false
	}
	return numeric(parts[0]) && numeric(parts[1])
}

func numeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
