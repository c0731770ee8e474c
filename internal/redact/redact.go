// Package redact strips credentials, tokens, file paths and SQL from strings
// before they reach logs.
package redact

import (
	"regexp"
)

// Placeholders
const (
	Placeholder           = "[REDACTED]"
	CredentialPlaceholder = "[REDACTED_CREDENTIAL]"
	TokenPlaceholder      = "[REDACTED_TOKEN]"
	JWTPlaceholder        = "[REDACTED_JWT]"
	PathPlaceholder       = "[REDACTED_PATH]"
	SQLPlaceholder        = "[REDACTED_SQL]"
)

type rule struct {
	re   *regexp.Regexp
	repl string
}

// Applied in order; earlier rules may rewrite text later rules would match.
var rules = []rule{
	{
		re:   regexp.MustCompile(`(?i)\b(?:postgres(?:ql)?|rediss?)://[^@\s]+@`),
		repl: CredentialPlaceholder,
	},
	{
		re:   regexp.MustCompile(`eyJ[\w-]+\.eyJ[\w-]+\.[\w-]+`),
		repl: JWTPlaceholder,
	},
	{
		re:   regexp.MustCompile(`(?i)\bbearer\s+[A-Za-z0-9._~+/-]+=*`),
		repl: "Bearer " + TokenPlaceholder,
	},
	{
		re:   regexp.MustCompile(`(?i)\b(password|passwd|secret|api[_-]?key|token)(\s*[=:]\s*)['"]?[^'"&\s]{3,}['"]?`),
		repl: "${1}${2}" + Placeholder,
	},
	{
		re: regexp.MustCompile(
			`(?i)\b(?:SELECT|INSERT\s+INTO|UPDATE|DELETE\s+FROM)\b[^"]*?\b(?:FROM|SET|VALUES|WHERE)\b\s*\(?\w*`,
		),
		repl: SQLPlaceholder,
	},
	{
		re:   regexp.MustCompile(`(?:/[\w.-]+){2,}`),
		repl: PathPlaceholder,
	},
}

// String redacts sensitive information from s.
func String(s string) string {
	if s == "" {
		return s
	}
	for _, r := range rules {
		s = r.re.ReplaceAllString(s, r.repl)
	}
	return s
}

// Error redacts sensitive information from err.Error(). A nil error yields "".
func Error(err error) string {
	if err == nil {
		return ""
	}
	return String(err.Error())
}
