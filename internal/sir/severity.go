package sir

import (
	"strings"

	"satdmap/internal/satd"
)

// typeSeverity is the base severity for each debt type on the 1-10 scale.
var typeSeverity = map[satd.DebtType]float64{
	satd.DebtArchitecture:   9,
	satd.DebtDesign:         8,
	satd.DebtDefect:         7,
	satd.DebtRequirement:    7,
	satd.DebtTest:           6,
	satd.DebtImplementation: 5,
	satd.DebtOther:          5,
	satd.DebtDocumentation:  4,
}

// Keyword groups that adjust the base severity. Matched case-insensitively
// against the comment content; the strongest matching group wins.
var (
	criticalKeywords = []string{"critical", "blocker", "urgent", "security"}
	majorKeywords    = []string{"major", "important"}
	minorKeywords    = []string{"minor", "cosmetic", "trivial"}
)

// Severity computes the intrinsic severity of an instance from its debt
// type and content, clamped to [1, 10]. Unknown debt types score as Other.
func Severity(in *satd.Instance) float64 {
	severity, ok := typeSeverity[in.DebtType.Normalize()]
	if !ok {
		severity = 5
	}

	content := strings.ToLower(in.Content)
	switch {
	case containsAny(content, criticalKeywords):
		severity += 2
	case containsAny(content, majorKeywords):
		severity += 1
	case containsAny(content, minorKeywords):
		severity -= 2
	}

	if severity < 1 {
		return 1
	}
	if severity > 10 {
		return 10
	}
	return severity
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
