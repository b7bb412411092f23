package pipeline

import "strings"

// requiredSections are the four mandated plan headings, in order. The
// synthesis prompt requests them; this check enforces them.
var requiredSections = []string{
	"1. NEIGHBOURHOOD-SPECIFIC ASSESSMENT",
	"2. TARGETED SAFETY RECOMMENDATIONS",
	"3. PERSONAL SAFETY PROTOCOL",
	"4. PREVENTIVE MEASURES",
}

// missingSections returns the required headings absent from body.
// Matching is case-insensitive; models sometimes bold or re-case headings.
func missingSections(body string) []string {
	upper := strings.ToUpper(body)
	var missing []string
	for _, section := range requiredSections {
		if !strings.Contains(upper, section) {
			missing = append(missing, section)
		}
	}
	return missing
}
