package ifc

import (
	"regexp"
	"strings"
)

// Profile naming families and the material standard each implies. Matched
// against the profile or object type designation when the model carries no
// explicit standard.
var standardPatterns = []struct {
	re       *regexp.Regexp
	standard string
}{
	{regexp.MustCompile(`(^|[^A-Z])(PFC|UB|UC|EA|UA|TFB)([^A-Z]|\d|$)`), "AS/NZS 3679.1"},
	{regexp.MustCompile(`(^|[^A-Z])(RHS|SHS|CHS)([^A-Z]|\d|$)`), "AS/NZS 1163"},
	{regexp.MustCompile(`(^|[^A-Z])W\d+X\d+([^A-Z]|$)`), "ASTM A992"},
	{regexp.MustCompile(`(^|[^A-Z])(HEA|HEB|IPE|UPN)([^A-Z]|\d|$)`), "EN 10025"},
}

// InferStandard guesses the material standard from a profile designation like
// "250UB31" or "PFC 150". Returns "" when no known family matches.
func InferStandard(designation string) string {
	upper := strings.ToUpper(strings.TrimSpace(designation))
	if upper == "" {
		return ""
	}
	for _, p := range standardPatterns {
		if p.re.MatchString(upper) {
			return p.standard
		}
	}
	return ""
}
