// Package dictionary implements an offline Rewrite Service that softens text
// with word lists and punctuation rules. It needs no network and is always
// available.
package dictionary

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/LuyGGG/MonoMind/pkg/rewrite"
	"github.com/dlclark/regexp2"
)

// Level selects how aggressively text is softened.
type Level string

const (
	Soft   Level = "soft"
	Medium Level = "medium"
	Max    Level = "max"
)

// ParseLevel converts a configured level name; empty selects Medium.
func ParseLevel(s string) (Level, error) {
	switch Level(strings.ToLower(strings.TrimSpace(s))) {
	case "", Medium:
		return Medium, nil
	case Soft:
		return Soft, nil
	case Max:
		return Max, nil
	default:
		return "", fmt.Errorf("unknown softening level %q (want soft, medium or max)", s)
	}
}

// matchTimeout bounds a single rule evaluation.
const matchTimeout = time.Second

type rule struct {
	re          *regexp2.Regexp
	replacement string
}

func word(pattern, replacement string) rule {
	re := regexp2.MustCompile(`\b(`+pattern+`)\b`, regexp2.IgnoreCase)
	re.MatchTimeout = matchTimeout
	return rule{re: re, replacement: replacement}
}

var baseRules = []rule{
	word(`hate|detest`, "dislike"),
	word(`terrible|awful|horrible|dreadful`, "not ideal"),
	word(`disgusting|gross`, "unappealing"),
	word(`stupid|dumb|idiotic`, "not helpful"),
	word(`useless`, "not very useful"),
	word(`worst`, "not great"),
	word(`horrendous`, "very poor"),
	word(`garbage|trash`, "low quality"),
	word(`insane|crazy`, "overly intense"),

	word(`idiot|moron|loser`, "person"),
	word(`shut up`, "please stop"),
	word(`kill`, "stop"),

	word(`always`, "often"),
	word(`never`, "rarely"),
	word(`must`, "might need to"),
	word(`perfect`, "very good"),
	word(`disaster|catastrophe`, "serious issue"),

	word(`amazing|awesome|incredible`, "quite good"),
	word(`love`, "really like"),
}

// strongRules apply at Max only, after baseRules.
var strongRules = []rule{
	word(`bad`, "not good"),
	word(`good`, "fine"),
	word(`sucks`, "is not great"),
	word(`angry|furious|outraged`, "upset"),
	word(`excellent|fantastic`, "very good"),
}

var hedges = []string{"It seems", "It appears", "Perhaps", "Maybe"}

var (
	repeatedBang     = mustCompile(`!{2,}`, regexp2.None)
	repeatedQuestion = mustCompile(`\?{2,}`, regexp2.None)
	mixedMarks       = mustCompile(`[!?]{3,}`, regexp2.None)
	shoutedWord      = mustCompile(`\b([A-Z]{3,})\b`, regexp2.None)
	shoutedStart     = mustCompile(`(^|[.!?]\s+)([A-Z]{2,})(?=[^a-zA-Z]|$)`, regexp2.None)
	forcefulStart    = mustCompile(`(^|[.!?]\s+)(I (hate|love)|This (is|was)|Never|Always)\b`, regexp2.IgnoreCase)
)

// acronyms keep their capitals when shouted words are normalised.
var acronyms = map[string]bool{
	"HTTP": true, "HTTPS": true, "CPU": true, "GPU": true, "API": true, "UI": true,
	"UX": true, "URL": true, "CSS": true, "HTML": true, "JSON": true, "PDF": true,
	"AI": true, "NLP": true, "OCR": true, "SQL": true, "DNS": true, "IPV6": true,
	"OK": true,
}

func mustCompile(pattern string, opts regexp2.RegexOptions) *regexp2.Regexp {
	re := regexp2.MustCompile(pattern, opts)
	re.MatchTimeout = matchTimeout
	return re
}

// Softener is a rewrite.Service backed by fixed word lists.
type Softener struct {
	level Level
}

// New creates a softener at the given level.
func New(level Level) *Softener {
	if level == "" {
		level = Medium
	}
	return &Softener{level: level}
}

// Level returns the configured level.
func (s *Softener) Level() Level { return s.level }

// IsAvailable always reports ready.
func (s *Softener) IsAvailable(context.Context) rewrite.Availability {
	return rewrite.Ready()
}

// Rewrite softens text. A directive that names a level ("soft", "medium" or
// "max") overrides the configured level for this call; any other directive is
// ignored.
func (s *Softener) Rewrite(ctx context.Context, text, directive string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	level := s.level
	if l, err := ParseLevel(directive); err == nil && strings.TrimSpace(directive) != "" {
		level = l
	}
	out, err := Soften(text, level)
	if err != nil {
		return "", fmt.Errorf("%w: %v", rewrite.ErrFailed, err)
	}
	return out, nil
}

// Soften applies the rules for level to text.
func Soften(text string, level Level) (string, error) {
	if text == "" {
		return text, nil
	}
	steps := []func(string, Level) (string, error){
		normalizePunctuation,
		normalizeShouting,
		applyWordRules,
		softenSentenceStarts,
	}
	var err error
	for _, step := range steps {
		if text, err = step(text, level); err != nil {
			return "", err
		}
	}
	return text, nil
}

func normalizePunctuation(text string, level Level) (string, error) {
	bang, mixed := "!", "?"
	if level == Max {
		bang, mixed = ".", "."
	}
	text, err := repeatedBang.Replace(text, bang, -1, -1)
	if err != nil {
		return "", err
	}
	if text, err = repeatedQuestion.Replace(text, "?", -1, -1); err != nil {
		return "", err
	}
	return mixedMarks.Replace(text, mixed, -1, -1)
}

func normalizeShouting(text string, _ Level) (string, error) {
	return shoutedWord.ReplaceFunc(text, func(m regexp2.Match) string {
		w := m.String()
		if acronyms[w] {
			return w
		}
		return capitalize(strings.ToLower(w))
	}, -1, -1)
}

func applyWordRules(text string, level Level) (string, error) {
	rules := baseRules
	if level == Max {
		rules = append(append([]rule(nil), baseRules...), strongRules...)
	}
	var err error
	for _, r := range rules {
		text, err = r.re.ReplaceFunc(text, func(m regexp2.Match) string {
			return keepCase(m.String(), r.replacement)
		}, -1, -1)
		if err != nil {
			return "", err
		}
	}
	return text, nil
}

func softenSentenceStarts(text string, level Level) (string, error) {
	if level == Soft {
		return text, nil
	}
	text, err := shoutedStart.ReplaceFunc(text, func(m regexp2.Match) string {
		w := m.GroupByNumber(2).String()
		if acronyms[w] {
			return m.String()
		}
		return m.GroupByNumber(1).String() + capitalize(strings.ToLower(w))
	}, -1, -1)
	if err != nil {
		return "", err
	}
	return forcefulStart.ReplaceFunc(text, func(m regexp2.Match) string {
		phrase := m.GroupByNumber(2).String()
		return m.GroupByNumber(1).String() + hedgeFor(phrase) + " " + decapitalize(phrase)
	}, -1, -1)
}

// hedgeFor picks a hedge from the phrase so the same input always softens to
// the same output.
func hedgeFor(phrase string) string {
	h := fnv.New32a()
	h.Write([]byte(strings.ToLower(phrase)))
	return hedges[h.Sum32()%uint32(len(hedges))]
}

// keepCase shapes replacement after the case pattern of sample: all upper,
// title case or all lower. Mixed samples leave replacement unchanged.
func keepCase(sample, replacement string) string {
	if sample == "" {
		return replacement
	}
	switch {
	case sample == strings.ToUpper(sample):
		return strings.ToUpper(replacement)
	case isTitle(sample):
		return capitalize(replacement)
	case sample == strings.ToLower(sample):
		return strings.ToLower(replacement)
	default:
		return replacement
	}
}

func isTitle(s string) bool {
	r, size := utf8.DecodeRuneInString(s)
	return unicode.IsUpper(r) && s[size:] == strings.ToLower(s[size:])
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// decapitalize lowers the first letter unless the phrase starts with the
// pronoun "I".
func decapitalize(s string) string {
	if s == "I" || strings.HasPrefix(s, "I ") {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToLower(r)) + s[size:]
}

var _ rewrite.Service = (*Softener)(nil)
