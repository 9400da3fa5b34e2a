package rewrite

import (
	"regexp"
	"strings"
	"sync"

	"github.com/LuyGGG/MonoMind/pkg/llm/parser"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
)

var (
	// Lead-in lines such as "Sure! Here is the rewritten text:".
	leadIn = regexp.MustCompile(`(?i)^\s*(sure|certainly|of course|okay|ok|here('s| is| are)|rewritten( text| version)?|calmer version|revised( text)?)\b[^\n]*:\s*$`)
	// Sign-off lines such as "Let me know if you need anything else."
	signOff = regexp.MustCompile(`(?i)^\s*(let me know|i hope this helps|hope this helps|feel free to|note:)`)

	policyOnce sync.Once
	policy     *bluemonday.Policy
)

func strictPolicy() *bluemonday.Policy {
	policyOnce.Do(func() {
		policy = bluemonday.StrictPolicy()
	})
	return policy
}

// Sanitize turns a raw service answer into plain replacement text: reasoning
// blocks and markup are removed, boilerplate lead-in and sign-off lines are
// dropped, wrapping quotes are stripped and whitespace runs collapse to one
// space.
func Sanitize(raw string) string {
	return SanitizeFor(raw, "")
}

// SanitizeFor is Sanitize for an answer to input. Markup, boilerplate lines
// and wrapping quotes that input itself contains are kept, so an answer that
// echoes input normalizes to Normalize(input).
func SanitizeFor(raw, input string) string {
	text := parser.StripReasoning(raw)
	if !strings.Contains(input, "<") {
		text = html.UnescapeString(strictPolicy().Sanitize(text))
	}

	lines := strings.Split(text, "\n")
	for len(lines) > 1 && (strings.TrimSpace(lines[0]) == "" || boilerplate(leadIn, lines[0], input)) {
		lines = lines[1:]
	}
	for len(lines) > 1 && (strings.TrimSpace(lines[len(lines)-1]) == "" || boilerplate(signOff, lines[len(lines)-1], input)) {
		lines = lines[:len(lines)-1]
	}

	text = Normalize(strings.Join(lines, "\n"))
	if quoted(Normalize(input)) {
		return text
	}
	return unquote(text)
}

// Normalize collapses every whitespace run to a single space and trims the
// ends. Text nodes that differ only here render identically.
func Normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func boilerplate(re *regexp.Regexp, line, input string) bool {
	if !re.MatchString(line) {
		return false
	}
	return !strings.Contains(Normalize(input), Normalize(line))
}

func quoted(s string) bool {
	return s != "" && unquote(s) != s
}

var quotePairs = [][2]string{{`"`, `"`}, {"“", "”"}, {"'", "'"}, {"«", "»"}}

func unquote(s string) string {
	for _, q := range quotePairs {
		if len(s) > len(q[0])+len(q[1]) && strings.HasPrefix(s, q[0]) && strings.HasSuffix(s, q[1]) {
			inner := s[len(q[0]) : len(s)-len(q[1])]
			if !strings.Contains(inner, q[0]) && !strings.Contains(inner, q[1]) {
				return strings.TrimSpace(inner)
			}
		}
	}
	return s
}
