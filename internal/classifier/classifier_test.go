package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freightsignal/sentinel/internal/model"
)

func TestScanEmptyInput(t *testing.T) {
	c := New()
	res := c.Scan("")
	assert.Equal(t, 0.0, res.Confidence)
	assert.Equal(t, model.ClassificationUnclassified, res.Classification)
	assert.Empty(t, res.MatchedKeywords)
}

func TestScanIrrelevantInput(t *testing.T) {
	c := New()
	res := c.Scan("The cat sat on the mat")
	assert.Equal(t, 0.0, res.Confidence)
	assert.Equal(t, model.ClassificationUnclassified, res.Classification)
	assert.False(t, QuickCheck("The cat sat on the mat"))
}

func TestScanMonotonicityUnderConcatenation(t *testing.T) {
	c := New()
	a := "XYZ Trucking Company is a motor carrier."
	b := "Completely unrelated filler text about gardening."
	resA := c.Scan(a)
	resAB := c.Scan(a + " " + b)
	assert.GreaterOrEqual(t, len(resAB.MatchedKeywords), len(resA.MatchedKeywords))
}

func TestScanCrossDomainBonus(t *testing.T) {
	c := New()
	freightOnly := "XYZ Trucking Company operates a fleet of trucks as a motor carrier."
	freightAndBankruptcy := freightOnly + " The company has filed for chapter 11 bankruptcy."

	resFreight := c.Scan(freightOnly)
	resBoth := c.Scan(freightAndBankruptcy)

	require.Greater(t, resBoth.Confidence, resFreight.Confidence)
	assert.GreaterOrEqual(t, resBoth.Confidence-resFreight.Confidence, 0.2-1e-9)
}

func TestScanScoresDistressedCarrierNarrative(t *testing.T) {
	c := New()
	text := "XYZ Trucking Company, a motor carrier with USDOT number 12345, has filed for Chapter 11 bankruptcy protection. The freight carrier operated a fleet of 200 trucks and employed 500 CDL drivers."
	res := c.Scan(text)

	assert.Greater(t, res.Confidence, 0.5)
	assert.Greater(t, res.FreightHits, 0)
	assert.Greater(t, res.BankruptcyHits, 0)
	assert.Equal(t, model.ClassificationCarrier, res.Classification)
}

func TestScanQuickCheckHitWithNoLexiconMatches(t *testing.T) {
	c := New()
	// "Chapter" passes the quick-check gate but the combined lexicon only
	// carries the numbered chapter phrases, so the full scan nets nothing.
	text := "Chapter officers met Tuesday to plan the fundraiser"
	require.True(t, QuickCheck(text))

	res := c.Scan(text)
	assert.Equal(t, 0.0, res.Confidence)
	assert.Equal(t, model.ClassificationUnclassified, res.Classification)
	assert.Empty(t, res.MatchedKeywords)
}

func TestQuickCheckMarkers(t *testing.T) {
	assert.True(t, QuickCheck("this mentions Bankrupt explicitly"))
	assert.True(t, QuickCheck("a 3PL provider"))
	assert.False(t, QuickCheck("nothing relevant here at all"))
}

func TestClassificationPicksBrokerForBrokerOnlyText(t *testing.T) {
	c := New()
	// "broker" appears once, no carrier/3pl/forwarder terms: should classify Broker.
	res := c.Scan("This broker filed for bankruptcy protection.")
	assert.Equal(t, model.ClassificationBroker, res.Classification)
}

func TestMatchedKeywordsAreSortedAndUnique(t *testing.T) {
	c := New()
	res := c.Scan("freight freight FREIGHT trucking bankrupt")
	seen := map[string]bool{}
	for _, kw := range res.MatchedKeywords {
		assert.False(t, seen[kw], "duplicate keyword %q", kw)
		seen[kw] = true
	}
	for i := 1; i < len(res.MatchedKeywords); i++ {
		assert.LessOrEqual(t, res.MatchedKeywords[i-1], res.MatchedKeywords[i])
	}
}
