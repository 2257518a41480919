package dictation

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// rule is one stage of the correction pipeline.
type rule struct {
	name  string
	apply func(string) string
}

// pipeline runs in order; later rules assume the output of earlier ones.
var pipeline = []rule{
	{name: "whitespace", apply: collapseWhitespace},
	{name: "fillers", apply: dropFillers},
	{name: "spoken_punctuation", apply: spokenPunctuation},
	{name: "punctuation_spacing", apply: punctuationSpacing},
	{name: "repeated_words", apply: collapseRepeats},
	{name: "pronoun_i", apply: capitalizeI},
	{name: "sentence_case", apply: sentenceCase},
	{name: "terminal_period", apply: terminalPeriod},
}

// ApplyRules runs the full rule pipeline over text.
func ApplyRules(text string) string {
	for _, r := range pipeline {
		text = r.apply(text)
	}
	return text
}

var fillers = map[string]bool{"um": true, "uh": true, "erm": true, "hmm": true}

type spoken struct {
	re   *regexp.Regexp
	repl string
}

// spokenMarks is ordered so multi-word phrases win over their parts.
var spokenMarks = []spoken{
	{regexp.MustCompile(`(?i)\bnew paragraph\b`), "\n\n"},
	{regexp.MustCompile(`(?i)\bnew line\b`), "\n"},
	{regexp.MustCompile(`(?i)\b(full stop|period)\b`), "."},
	{regexp.MustCompile(`(?i)\bcomma\b`), ","},
	{regexp.MustCompile(`(?i)\bquestion mark\b`), "?"},
	{regexp.MustCompile(`(?i)\bexclamation (mark|point)\b`), "!"},
	{regexp.MustCompile(`(?i)\bcolon\b`), ":"},
}

var (
	spaceAroundNewline = regexp.MustCompile(`[ \t]*\n[ \t]*`)
	spaceBeforePunct   = regexp.MustCompile(`[ \t]+([.,?!:])`)
	missingSpaceAfter  = regexp.MustCompile(`([.,?!:])([^\s\d.,?!:])`)
)

const punctuation = ".,?!:"

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func dropFillers(s string) string {
	words := strings.Fields(s)
	kept := words[:0]
	for _, w := range words {
		if fillers[strings.ToLower(strings.Trim(w, punctuation))] {
			continue
		}
		kept = append(kept, w)
	}
	return strings.Join(kept, " ")
}

func spokenPunctuation(s string) string {
	for _, m := range spokenMarks {
		s = m.re.ReplaceAllString(s, m.repl)
	}
	s = spaceAroundNewline.ReplaceAllString(s, "\n")
	return strings.TrimSpace(s)
}

// punctuationSpacing removes space before marks and adds it after them. A dot
// between two letters or digits is part of a token (example.com, e.g.) and is
// left alone.
func punctuationSpacing(s string) string {
	s = spaceBeforePunct.ReplaceAllString(s, "$1")
	var b strings.Builder
	last := 0
	for _, m := range missingSpaceAfter.FindAllStringSubmatchIndex(s, -1) {
		mark, next := m[2], m[4]
		if s[mark] == '.' && inToken(s, mark) {
			continue
		}
		b.WriteString(s[last:next])
		b.WriteByte(' ')
		last = next
	}
	b.WriteString(s[last:])
	return b.String()
}

func inToken(s string, dot int) bool {
	if dot == 0 || dot+1 >= len(s) {
		return false
	}
	prev, _ := utf8.DecodeLastRuneInString(s[:dot])
	next, _ := utf8.DecodeRuneInString(s[dot+1:])
	return (unicode.IsLetter(prev) || unicode.IsDigit(prev)) && unicode.IsLetter(next)
}

// eachLine applies fn to the space-separated words of every line.
func eachLine(s string, fn func([]string) []string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if line == "" {
			continue
		}
		lines[i] = strings.Join(fn(strings.Split(line, " ")), " ")
	}
	return strings.Join(lines, "\n")
}

func collapseRepeats(s string) string {
	return eachLine(s, func(words []string) []string {
		out := make([]string, 0, len(words))
		for _, w := range words {
			if n := len(out); n > 0 {
				prev := out[n-1]
				if !strings.ContainsAny(prev, punctuation) && strings.EqualFold(prev, strings.TrimRight(w, punctuation)) {
					out[n-1] = w
					continue
				}
			}
			out = append(out, w)
		}
		return out
	})
}

var firstPerson = map[string]bool{"i": true, "i'm": true, "i've": true, "i'll": true, "i'd": true}

func capitalizeI(s string) string {
	return eachLine(s, func(words []string) []string {
		for i, w := range words {
			if firstPerson[strings.ToLower(strings.TrimRight(w, punctuation))] {
				words[i] = "I" + w[1:]
			}
		}
		return words
	})
}

func sentenceCase(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	capNext := true
	joined := false
	for _, r := range s {
		switch {
		case joined && unicode.IsLetter(r):
			// Letter glued to a dot, as in example.com.
			b.WriteRune(r)
			capNext = false
		case capNext && unicode.IsLetter(r):
			b.WriteRune(unicode.ToUpper(r))
			capNext = false
		case r == '.' || r == '?' || r == '!' || r == '\n':
			b.WriteRune(r)
			capNext = true
		default:
			if !unicode.IsSpace(r) && capNext && !unicode.IsPunct(r) {
				capNext = false
			}
			b.WriteRune(r)
		}
		joined = r == '.'
	}
	return b.String()
}

func terminalPeriod(s string) string {
	if s == "" {
		return s
	}
	last, _ := utf8.DecodeLastRuneInString(s)
	if last == '.' || last == '?' || last == '!' {
		return s
	}
	return s + "."
}
