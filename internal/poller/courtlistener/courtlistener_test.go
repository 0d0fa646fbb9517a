package courtlistener

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freightsignal/sentinel/internal/classifier"
	"github.com/freightsignal/sentinel/internal/model"
)

func TestCompanyNameExtraction(t *testing.T) {
	assert.Equal(t, "Acme Freight LLC", companyName("In re: Acme Freight LLC"))
	assert.Equal(t, "Acme Freight LLC", companyName("In re Acme Freight LLC, debtor"))
	assert.Equal(t, "Acme Freight LLC", companyName("Acme Freight LLC v. Zenith Logistics"))
	assert.Equal(t, "Standalone Case Name", companyName("Standalone Case Name"))
}

func TestEvaluateBuildsEventAndDedupKey(t *testing.T) {
	s := New("https://example.invalid", "test-suite contact@example.invalid", classifier.New(), 0.3)
	r := Result{
		ID:          4471,
		CaseName:    "In re: Acme Freight LLC",
		Snippet:     "Motor carrier files for chapter 11 bankruptcy protection.",
		Court:       "cacb",
		DateFiled:   "2024-02-01",
		AbsoluteURL: "https://example.invalid/opinion/4471",
	}

	event, key, ok := s.Evaluate(r)
	require.True(t, ok)
	assert.Equal(t, "cl:4471:In re: Acme Freight LLC", key)
	assert.Equal(t, "Acme Freight LLC", event.CompanyName)
	assert.Equal(t, model.SourceCourtListener, event.Source)
	assert.Equal(t, model.Chapter11, event.Chapter)
	require.NotNil(t, event.Court)
	assert.Equal(t, "cacb", *event.Court)
}

func TestEvaluateRejectsIrrelevantResult(t *testing.T) {
	s := New("https://example.invalid", "test-suite contact@example.invalid", classifier.New(), 0.3)
	r := Result{ID: 1, CaseName: "Smith v. Jones", Snippet: "A contract dispute over a fence line."}
	_, _, ok := s.Evaluate(r)
	assert.False(t, ok)
}
