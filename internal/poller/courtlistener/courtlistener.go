// Package courtlistener polls CourtListener's opinion search for
// freight-related bankruptcy case filings.
package courtlistener

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/freightsignal/sentinel/internal/classifier"
	"github.com/freightsignal/sentinel/internal/model"
	"github.com/freightsignal/sentinel/internal/poller"
)

// Queries is the fixed list of search terms rotated one per cycle.
var Queries = []string{
	"bankruptcy",
	"chapter 11 trucking",
	"motor carrier bankruptcy",
	"freight broker bankruptcy",
	"trucking company liquidation",
	"chapter 7 freight",
	"logistics company insolvency",
	"carrier authority revoked",
	"trucking firm receivership",
	"3pl bankruptcy",
}

// Result is one CourtListener search result.
type Result struct {
	ID          int
	CaseName    string
	Snippet     string
	Court       string
	DateFiled   string
	AbsoluteURL string
}

type searchResponse struct {
	Results []struct {
		ID          int    `json:"id"`
		CaseName    string `json:"case_name"`
		Snippet     string `json:"snippet"`
		Court       string `json:"court"`
		DateFiled   string `json:"date_filed"`
		AbsoluteURL string `json:"absolute_url"`
	} `json:"results"`
}

var casePrefixes = []string{"In re:", "In re ", "In the Matter of"}

// Source polls CourtListener's opinion search endpoint.
type Source struct {
	BaseURL       string
	UserAgent     string
	HTTPClient    *http.Client
	Classifier    *classifier.Classifier
	MinConfidence float64

	queryIndex atomic.Uint64
}

// New constructs a Source with a 15s HTTP timeout.
func New(baseURL, userAgent string, c *classifier.Classifier, minConfidence float64) *Source {
	return &Source{
		BaseURL:       baseURL,
		UserAgent:     userAgent,
		HTTPClient:    &http.Client{Timeout: 15 * time.Second},
		Classifier:    c,
		MinConfidence: minConfidence,
	}
}

func (s *Source) Name() string { return string(model.SourceCourtListener) }

// Fetch issues one query per cycle, rotating through Queries, with
// today's date as the lower filing-date bound.
func (s *Source) Fetch(ctx context.Context) ([]Result, error) {
	idx := s.queryIndex.Add(1) - 1
	query := Queries[idx%uint64(len(Queries))]

	today := time.Now().UTC().Format("2006-01-02")
	u := fmt.Sprintf("%s/api/rest/v3/search/?q=%s&filed_after=%s", s.BaseURL, url.QueryEscape(query), today)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", s.UserAgent)

	resp, err := s.HTTPClient.Do(req)
	if err != nil {
		return nil, &poller.FetchError{Kind: poller.FetchErrorTransport, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, &poller.FetchError{Kind: poller.FetchErrorRateLimited, Err: fmt.Errorf("courtlistener: 429")}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &poller.FetchError{Kind: poller.FetchErrorOtherStatus, Err: fmt.Errorf("courtlistener: status %d", resp.StatusCode)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &poller.FetchError{Kind: poller.FetchErrorTransport, Err: err}
	}

	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, &poller.FetchError{Kind: poller.FetchErrorParse, Err: err}
	}

	results := make([]Result, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		results = append(results, Result{
			ID:          r.ID,
			CaseName:    r.CaseName,
			Snippet:     r.Snippet,
			Court:       r.Court,
			DateFiled:   r.DateFiled,
			AbsoluteURL: r.AbsoluteURL,
		})
	}
	return results, nil
}

// companyName derives a bare company name from a case caption: strip a
// leading "In re" style prefix, a trailing ", debtor" suffix, and
// truncate before " v. " if present.
func companyName(caseName string) string {
	name := caseName
	for _, p := range casePrefixes {
		if strings.HasPrefix(name, p) {
			name = strings.TrimSpace(name[len(p):])
			break
		}
	}
	name = strings.TrimSuffix(name, ", debtor")
	name = strings.TrimSuffix(name, ", Debtor")
	if idx := strings.Index(name, " v. "); idx != -1 {
		name = name[:idx]
	} else if idx := strings.Index(name, " v "); idx != -1 {
		name = name[:idx]
	}
	return strings.TrimSpace(name)
}

// Evaluate implements poller.Source[Result].
func (s *Source) Evaluate(r Result) (model.Event, string, bool) {
	text := r.CaseName + " " + r.Snippet
	if !classifier.QuickCheck(text) {
		return model.Event{}, "", false
	}
	scan := s.Classifier.Scan(text)
	if scan.Confidence < s.MinConfidence {
		return model.Event{}, "", false
	}

	event := model.NewEvent(companyName(r.CaseName), model.SourceCourtListener, poller.DetectChapter(text), scan.Confidence, scan.Classification)
	if filed, err := time.Parse("2006-01-02", r.DateFiled); err == nil {
		event.FilingDate = &filed
	}
	if r.Court != "" {
		court := r.Court
		event.Court = &court
	}
	if r.AbsoluteURL != "" {
		link := r.AbsoluteURL
		event.SourceURL = &link
	}

	key := "cl:" + strconv.Itoa(r.ID) + ":" + r.CaseName
	return event, key, true
}
