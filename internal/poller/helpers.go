package poller

import (
	"strings"
	"time"

	"github.com/freightsignal/sentinel/internal/model"
)

// DetectChapter looks for any of the three bankruptcy chapter spellings,
// full or abbreviated, as an uppercase substring match. It returns
// ChapterNone if none are present.
func DetectChapter(text string) model.Chapter {
	upper := strings.ToUpper(text)
	switch {
	case strings.Contains(upper, "CHAPTER 7") || strings.Contains(upper, "CHAPTER SEVEN") || strings.Contains(upper, "CH. 7") || strings.Contains(upper, "CH 7"):
		return model.Chapter7
	case strings.Contains(upper, "CHAPTER 11") || strings.Contains(upper, "CHAPTER ELEVEN") || strings.Contains(upper, "CH. 11") || strings.Contains(upper, "CH 11"):
		return model.Chapter11
	case strings.Contains(upper, "CHAPTER 13") || strings.Contains(upper, "CHAPTER THIRTEEN") || strings.Contains(upper, "CH. 13") || strings.Contains(upper, "CH 13"):
		return model.Chapter13
	default:
		return model.ChapterNone
	}
}

var dotPrefixes = []string{"USDOT# ", "USDOT #", "USDOT ", "DOT# ", "DOT #", "DOT "}
var mcPrefixes = []string{"MC# ", "MC #", "MC "}

// ExtractDOTNumber finds the first occurrence of any recognized DOT-number
// prefix and collects the digits immediately following it, accepting
// between 1 and 8 digits. It returns nil if no prefix is found or the
// digit run is out of range.
func ExtractDOTNumber(text string) *string {
	return extractNumberAfterPrefix(text, dotPrefixes, 1, 8)
}

// ExtractMCNumber is ExtractDOTNumber's counterpart for MC numbers, which
// accept at most 7 digits.
func ExtractMCNumber(text string) *string {
	return extractNumberAfterPrefix(text, mcPrefixes, 1, 7)
}

func extractNumberAfterPrefix(text string, prefixes []string, minDigits, maxDigits int) *string {
	upper := strings.ToUpper(text)
	for _, prefix := range prefixes {
		idx := strings.Index(upper, prefix)
		if idx == -1 {
			continue
		}
		rest := text[idx+len(prefix):]
		digits := leadingDigits(rest)
		if len(digits) >= minDigits && len(digits) <= maxDigits {
			return &digits
		}
	}
	return nil
}

func leadingDigits(s string) string {
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	return s[:i]
}

var looseDateLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	"1/2/2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"2-Jan-2006",
}

// ParseDateLoose sweeps windows of up to three whitespace-delimited words
// against a fixed set of date layouts and returns the first successful
// parse as a UTC instant. It is a heuristic for free-text filing
// descriptions and may misfire; callers treat the result as best-effort.
func ParseDateLoose(text string) *time.Time {
	words := strings.Fields(text)
	for i := range words {
		for span := 1; span <= 3 && i+span <= len(words); span++ {
			candidate := strings.Trim(strings.Join(words[i:i+span], " "), ".,;:()")
			for _, layout := range looseDateLayouts {
				if ts, err := time.Parse(layout, candidate); err == nil {
					ts = ts.UTC()
					return &ts
				}
			}
		}
	}
	return nil
}
