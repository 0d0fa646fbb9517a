// Package edgar polls SEC EDGAR's full-text search for freight-related
// distress filings.
package edgar

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/freightsignal/sentinel/internal/classifier"
	"github.com/freightsignal/sentinel/internal/model"
	"github.com/freightsignal/sentinel/internal/poller"
)

// Queries is the fixed list of full-text search terms rotated one per
// cycle.
var Queries = []string{
	"bankruptcy",
	"chapter 11",
	"chapter 7",
	"going concern",
	"ceased operations",
	"insolvency",
	"trustee appointed",
	"debtor in possession",
	"liquidation",
	"reorganization plan",
}

// FormType is the fixed filing-type filter applied to every query.
const FormType = "8-K"

// Hit is one EDGAR full-text search result.
type Hit struct {
	EntityName      string
	FileDate        string
	FileDescription string
	FileType        string
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			Source struct {
				EntityName      string `json:"entity_name"`
				FileDate        string `json:"file_date"`
				FileDescription string `json:"file_description"`
				FileType        string `json:"file_type"`
			} `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// Source polls EDGAR's full-text search endpoint.
type Source struct {
	BaseURL       string
	UserAgent     string
	HTTPClient    *http.Client
	Classifier    *classifier.Classifier
	MinConfidence float64

	queryIndex atomic.Uint64
}

// New constructs a Source. userAgent must identify the operator per SEC's
// fair-access policy, e.g. "Acme Ops contact@acme.example".
func New(baseURL, userAgent string, c *classifier.Classifier, minConfidence float64) *Source {
	return &Source{
		BaseURL:       baseURL,
		UserAgent:     userAgent,
		HTTPClient:    &http.Client{Timeout: 15 * time.Second},
		Classifier:    c,
		MinConfidence: minConfidence,
	}
}

func (s *Source) Name() string { return string(model.SourceEdgar) }

// Fetch issues one query per cycle, rotating through Queries.
func (s *Source) Fetch(ctx context.Context) ([]Hit, error) {
	idx := s.queryIndex.Add(1) - 1
	query := Queries[idx%uint64(len(Queries))]

	today := time.Now().UTC().Format("2006-01-02")
	u := fmt.Sprintf("%s/LATEST/search-index?q=%s&forms=%s&startdt=%s&enddt=%s",
		s.BaseURL, url.QueryEscape(query), FormType, today, today)

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
		return nil, &poller.FetchError{Kind: poller.FetchErrorRateLimited, Err: fmt.Errorf("edgar: 429")}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &poller.FetchError{Kind: poller.FetchErrorOtherStatus, Err: fmt.Errorf("edgar: status %d", resp.StatusCode)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &poller.FetchError{Kind: poller.FetchErrorTransport, Err: err}
	}

	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, &poller.FetchError{Kind: poller.FetchErrorParse, Err: err}
	}

	hits := make([]Hit, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		hits = append(hits, Hit{
			EntityName:      h.Source.EntityName,
			FileDate:        h.Source.FileDate,
			FileDescription: h.Source.FileDescription,
			FileType:        h.Source.FileType,
		})
	}
	return hits, nil
}

// Evaluate implements poller.Source[Hit].
func (s *Source) Evaluate(hit Hit) (model.Event, string, bool) {
	text := hit.EntityName + " " + hit.FileDescription
	if !classifier.QuickCheck(text) {
		return model.Event{}, "", false
	}
	scan := s.Classifier.Scan(text)
	if scan.Confidence < s.MinConfidence {
		return model.Event{}, "", false
	}

	event := model.NewEvent(hit.EntityName, model.SourceEdgar, poller.DetectChapter(text), scan.Confidence, scan.Classification)
	if filed, err := time.Parse("2006-01-02", hit.FileDate); err == nil {
		event.FilingDate = &filed
	}

	key := "edgar:" + hit.EntityName + ":" + hit.FileType
	return event, key, true
}
