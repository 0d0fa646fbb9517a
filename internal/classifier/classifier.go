// Package classifier scores free text against freight/bankruptcy lexicons
// and assigns a business classification. It is stateless after construction:
// every matcher is an immutable automaton built once and shared by every
// poller.
package classifier

import (
	"sort"
	"strings"

	"github.com/freightsignal/sentinel/internal/model"
)

// ScanResult is the transient output of a single Scan call.
type ScanResult struct {
	Confidence      float64
	MatchedKeywords []string // unique, sorted
	FreightHits     int
	BankruptcyHits  int
	TotalMatches    int
	Classification  model.Classification
}

// Classifier holds the five immutable automata built at construction time.
// The zero value is not usable; build one with New.
type Classifier struct {
	combined  automaton
	carrier   automaton
	broker    automaton
	tpl       automaton
	forwarder automaton

	combinedLen int
}

// New builds the classifier's five matchers. It panics on construction
// failure: a broken lexicon is an unrecoverable configuration bug, not a
// runtime condition callers should have to handle.
func New() *Classifier {
	return &Classifier{
		combined:    *newAutomaton(lowerAll(combinedTerms)),
		carrier:     *newAutomaton(lowerAll(carrierTerms)),
		broker:      *newAutomaton(lowerAll(brokerTerms)),
		tpl:         *newAutomaton(lowerAll(thirdPartyLogisticsTerms)),
		forwarder:   *newAutomaton(lowerAll(forwarderTerms)),
		combinedLen: len(combinedTerms),
	}
}

func lowerAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = asciiLower(s)
	}
	return out
}

// asciiLower lowercases only ASCII letters, leaving every other byte
// untouched. Matching is ASCII case-insensitive only.
func asciiLower(s string) string {
	b := []byte(s)
	changed := false
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
			changed = true
		}
	}
	if !changed {
		return s
	}
	return string(b)
}

// QuickCheck is a cheap byte-level gate: true iff the text contains any of
// the fixed marker substrings, in either lowercase or capitalized form.
func QuickCheck(text string) bool {
	for _, m := range quickCheckMarkers {
		if strings.Contains(text, m) {
			return true
		}
	}
	return false
}

// Scan runs the full classification pass: quick-check gate, combined
// multi-pattern match, confidence scoring, and classification pick.
func (c *Classifier) Scan(text string) ScanResult {
	if text == "" {
		return ScanResult{Classification: model.ClassificationUnclassified}
	}
	if !QuickCheck(text) {
		return ScanResult{Classification: model.ClassificationUnclassified}
	}

	lower := asciiLower(text)
	matches := c.combined.Match(lower)

	uniqueSet := make(map[string]struct{}, len(matches))
	for _, m := range matches {
		uniqueSet[lower[m.Start:m.End]] = struct{}{}
	}
	if len(uniqueSet) == 0 {
		return ScanResult{Classification: model.ClassificationUnclassified}
	}

	unique := make([]string, 0, len(uniqueSet))
	for k := range uniqueSet {
		unique = append(unique, k)
	}
	sort.Strings(unique)

	bankruptcyHits := 0
	for _, kw := range unique {
		if containsBankruptcyTerm(kw) {
			bankruptcyHits++
		}
	}
	totalMatches := len(matches)
	freightHits := totalMatches - bankruptcyHits

	wordCount := len(strings.Fields(text))
	if wordCount < 1 {
		wordCount = 1
	}

	variety := clampMax(float64(len(unique))/float64(c.combinedLen)*4.0, 0.4)
	density := clampMax(float64(totalMatches)/float64(wordCount)*30.0, 0.3)
	crossDomain := 0.0
	if freightHits > 0 && bankruptcyHits > 0 {
		crossDomain = 0.2
	}
	highSignalCount := 0
	for _, kw := range unique {
		if isHighSignal(kw) {
			highSignalCount++
		}
	}
	highSignal := clampMax(0.05*float64(highSignalCount), 0.1)

	confidence := variety + density + crossDomain + highSignal
	if confidence > 1.0 {
		confidence = 1.0
	}

	classification := c.classify(lower)

	return ScanResult{
		Confidence:      confidence,
		MatchedKeywords: unique,
		FreightHits:     freightHits,
		BankruptcyHits:  bankruptcyHits,
		TotalMatches:    totalMatches,
		Classification:  classification,
	}
}

func (c *Classifier) classify(lower string) model.Classification {
	carrierCount := len(c.carrier.Match(lower))
	brokerCount := len(c.broker.Match(lower))
	tplCount := len(c.tpl.Match(lower))
	forwarderCount := len(c.forwarder.Match(lower))

	max := carrierCount
	if brokerCount > max {
		max = brokerCount
	}
	if tplCount > max {
		max = tplCount
	}
	if forwarderCount > max {
		max = forwarderCount
	}
	if max == 0 {
		return model.ClassificationUnclassified
	}
	switch {
	case carrierCount == max:
		return model.ClassificationCarrier
	case brokerCount == max:
		return model.ClassificationBroker
	case tplCount == max:
		return model.ClassificationThirdPartyLogistics
	default:
		return model.ClassificationFreightForwarder
	}
}

func clampMax(v, max float64) float64 {
	if v > max {
		return max
	}
	if v < 0 {
		return 0
	}
	return v
}

func containsBankruptcyTerm(keyword string) bool {
	for _, t := range bankruptcyTerms {
		if strings.Contains(keyword, asciiLower(t)) {
			return true
		}
	}
	return false
}

func isHighSignal(keyword string) bool {
	for _, p := range highSignalPhrases {
		if strings.Contains(keyword, asciiLower(p)) {
			return true
		}
	}
	return false
}
