package simulated

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"

	"capctl/internal/capability"
)

var errHandleClosed = errors.New("simulated: handle is closed")

func respondPrompt(_ capability.PromptOptions, input string) string {
	input = strings.TrimSpace(input)
	if input == "" {
		return "Could you tell me a bit more about what you need?"
	}
	return fmt.Sprintf("You asked: %q. This is a simulated answer, so I can only repeat the question back to you.", input)
}

// translate tags the text with the target language; the simulated runtime
// knows no vocabulary.
func translate(opts capability.TranslatorOptions, input string) string {
	opts = opts.Normalize()
	return fmt.Sprintf("[%s] %s", opts.TargetLanguage, strings.TrimSpace(input))
}

func summarize(opts capability.SummarizerOptions, input string) string {
	opts = opts.Normalize()
	sentences := splitSentences(input)
	if len(sentences) == 0 {
		return ""
	}

	switch opts.Type {
	case capability.SummarizerHeadline:
		words := strings.Fields(sentences[0])
		if len(words) > 12 {
			words = words[:12]
		}
		return strings.TrimRight(strings.Join(words, " "), ".,;:")
	case capability.SummarizerTLDR:
		return strings.Join(sentences[:min(len(sentences), sentenceBudget(opts.Length))], " ")
	case capability.SummarizerTeaser:
		return strings.TrimRight(sentences[0], ".!?") + "..."
	}

	points := sentences[:min(len(sentences), bulletBudget(opts.Length))]
	bullet := "- "
	if opts.Format == capability.SummarizerPlainText {
		bullet = ""
	}
	lines := make([]string, 0, len(points))
	for _, p := range points {
		lines = append(lines, bullet+p)
	}
	return strings.Join(lines, "\n")
}

func sentenceBudget(l capability.SummarizerLength) int {
	switch l {
	case capability.SummarizerShort:
		return 1
	case capability.SummarizerLong:
		return 4
	}
	return 2
}

func bulletBudget(l capability.SummarizerLength) int {
	switch l {
	case capability.SummarizerShort:
		return 3
	case capability.SummarizerLong:
		return 7
	}
	return 5
}

func splitSentences(s string) []string {
	var out []string
	var cur strings.Builder
	for _, r := range s {
		cur.WriteRune(r)
		if r == '.' || r == '!' || r == '?' {
			if t := strings.TrimSpace(cur.String()); t != "" {
				out = append(out, t)
			}
			cur.Reset()
		}
	}
	if t := strings.TrimSpace(cur.String()); t != "" {
		out = append(out, t)
	}
	return out
}

// misspellings are corrected outright; other words within edit distance one of
// a dictionary word are replaced by it.
var misspellings = map[string]string{
	"teh":        "the",
	"recieve":    "receive",
	"alot":       "a lot",
	"definately": "definitely",
	"seperate":   "separate",
	"occured":    "occurred",
	"untill":     "until",
	"wich":       "which",
	"becuase":    "because",
	"thier":      "their",
}

var dictionary = []string{
	"about", "after", "again", "because", "before", "could", "every", "friend",
	"going", "grammar", "great", "hello", "information", "language", "meeting",
	"message", "people", "please", "question", "really", "receive", "should",
	"something", "spelling", "thank", "there", "these", "think", "tomorrow",
	"today", "tried", "weather", "which", "would", "write", "yesterday",
}

func proofread(_ capability.ProofreaderOptions, input string) string {
	fields := strings.Fields(input)
	for i, w := range fields {
		fields[i] = correctWord(w)
	}
	out := strings.Join(fields, " ")
	if out == "" {
		return out
	}

	runes := []rune(out)
	runes[0] = unicode.ToUpper(runes[0])
	out = string(runes)
	if last := runes[len(runes)-1]; !strings.ContainsRune(".!?", last) {
		out += "."
	}
	return out
}

// correctWord fixes one whitespace-delimited token, keeping surrounding
// punctuation and a leading capital.
func correctWord(token string) string {
	start := strings.IndexFunc(token, unicode.IsLetter)
	end := strings.LastIndexFunc(token, unicode.IsLetter)
	if start < 0 {
		return token
	}
	_, size := utf8.DecodeRuneInString(token[end:])
	prefix, word, suffix := token[:start], token[start:end+size], token[end+size:]
	lower := strings.ToLower(word)

	fixed := lower
	if lower == "i" {
		fixed = "I"
	} else if m, ok := misspellings[lower]; ok {
		fixed = m
	} else if len(lower) >= 6 && !slices.Contains(dictionary, lower) {
		for _, d := range dictionary {
			if levenshtein.ComputeDistance(lower, d) == 1 {
				fixed = d
				break
			}
		}
	}
	if fixed == lower {
		return token
	}
	if unicode.IsUpper([]rune(word)[0]) {
		r := []rune(fixed)
		r[0] = unicode.ToUpper(r[0])
		fixed = string(r)
	}
	return prefix + fixed + suffix
}
