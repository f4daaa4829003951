package core

import (
	"strings"
	"unicode/utf8"
)

// DelimiterSampleSize is how many characters DetectDelimiter inspects.
var DelimiterSampleSize = 2000

// delimiterCandidates is ordered; on equal scores the earlier one wins.
var delimiterCandidates = []rune{',', ';', '\t', '|'}

// DetectDelimiter guesses the field separator of text.
//
// Each candidate is scored by its average count per non-blank line in the
// first DelimiterSampleSize characters. Text without non-blank lines yields a
// comma.
func DetectDelimiter(text string) rune {
	sample := text
	if utf8.RuneCountInString(sample) > DelimiterSampleSize {
		sample = string([]rune(sample)[:DelimiterSampleSize])
	}

	var lines []string
	for _, line := range strings.Split(sample, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 {
		return ','
	}

	best := ','
	bestScore := -1.0
	for _, d := range delimiterCandidates {
		total := 0
		for _, line := range lines {
			total += strings.Count(line, string(d))
		}
		score := float64(total) / float64(len(lines))
		if score > bestScore {
			best = d
			bestScore = score
		}
	}
	return best
}

// DelimiterName returns a printable name for a delimiter.
func DelimiterName(d rune) string {
	switch d {
	case '\t':
		return "tab"
	case ',':
		return "comma"
	case ';':
		return "semicolon"
	case '|':
		return "pipe"
	default:
		return string(d)
	}
}
