package blueprint

import (
	"fmt"
	"regexp"
)

// Assessment is the verdict of the generation quality check. Retry is set
// when the spec shows signs of an incomplete generation; Reasons explains
// each finding and is fed back into the retry prompt.
type Assessment struct {
	Retry   bool
	Reasons []string
}

var placeholderChecks = []struct {
	label string
	re    *regexp.Regexp
}{
	{"bracketed placeholder", regexp.MustCompile(`\[[^\[\]]*\]`)},
	{"template marker", regexp.MustCompile(`\{\{[^{}]*\}\}|<<[^<>]*>>`)},
	{"todo marker", regexp.MustCompile(`(?i)\b(?:TODO|FIXME|TBD)\b`)},
	{"filler text", regexp.MustCompile(`(?i)lorem\s+ipsum`)},
}

var genericTermRe = regexp.MustCompile(`(?i)\b(worker|helper|bot|agent|assistant)\b`)

// Assess runs the quality check on a freshly generated agent spec. It is a
// pure function of the spec: the same input always yields the same verdict,
// and a failed verdict is reported, never raised.
func Assess(s AgentSpec) Assessment {
	var reasons []string
	for _, f := range textFields(s) {
		for _, check := range placeholderChecks {
			if m := check.re.FindString(f.value); m != "" {
				reasons = append(reasons, fmt.Sprintf("%s contains %s %q", f.name, check.label, m))
			}
		}
	}
	if term, found := genericRoleTerm(s.RoleDescription); found {
		reasons = append(reasons, fmt.Sprintf("role_description uses generic term %q", term))
	}
	reasons = append(reasons, lengthViolations(s)...)
	return Assessment{Retry: len(reasons) > 0, Reasons: reasons}
}

// genericRoleTerm reports the first generic role term found as a whole
// word, case-insensitively.
func genericRoleTerm(s string) (string, bool) {
	m := genericTermRe.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	return m[1], true
}

type namedField struct {
	name  string
	value string
}

func textFields(s AgentSpec) []namedField {
	return []namedField{
		{"name", s.Name},
		{"description", s.Description},
		{"role_description", s.RoleDescription},
		{"goal", s.Goal},
		{"instructions", s.Instructions},
		{"usage_description", s.UsageDescription},
	}
}
