package health

import "strings"

// GenericDiagnosis is used when no known failure pattern matches
const GenericDiagnosis = "Service check failed; see the raw error for details"

var diagnoses = []struct {
	patterns  []string
	diagnosis string
}{
	{[]string{"timeout", "deadline exceeded", "timed out"}, "Request timed out; the service is slow or unreachable"},
	{[]string{"401", "403", "unauthorized", "forbidden"}, "Authentication failed; check API keys and credentials"},
	{[]string{"429", "rate limit", "too many requests"}, "Rate limited by the upstream service"},
	{[]string{"502", "503", "bad gateway", "service unavailable"}, "Upstream service unavailable or restarting"},
	{[]string{"no such host", "dns", "lookup "}, "DNS resolution failed; check the configured URL"},
	{[]string{"connection refused", "econnrefused"}, "Connection refused; the service is not listening"},
	{[]string{"no rows in"}, "No data recorded yet for this table"},
}

// Diagnose maps raw error text to a readable cause
func Diagnose(raw string) string {
	msg := strings.ToLower(raw)
	if msg == "" {
		return GenericDiagnosis
	}
	for _, d := range diagnoses {
		for _, p := range d.patterns {
			if strings.Contains(msg, p) {
				return d.diagnosis
			}
		}
	}
	return GenericDiagnosis
}
