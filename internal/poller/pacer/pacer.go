// Package pacer polls per-court bankruptcy-filing RSS feeds.
package pacer

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/freightsignal/sentinel/internal/classifier"
	"github.com/freightsignal/sentinel/internal/model"
	"github.com/freightsignal/sentinel/internal/poller"
)

// Courts is the fixed list of bankruptcy court codes swept every cycle.
var Courts = []string{
	"cacb", "nysb", "txnb", "ilnb", "flsb",
	"gand", "mieb", "ohsb", "pamb", "njnb",
	"wawb", "azb",
}

// Item is one PACER filing entry.
type Item struct {
	Court       string
	Title       string
	Description string
	Link        string
}

type rssFeed struct {
	Channel struct {
		Items []rssItem `xml:"item"`
	} `xml:"channel"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Description string `xml:"description"`
	Link        string `xml:"link"`
}

var caseNumberPrefix = regexp.MustCompile(`^[0-9][0-9A-Za-z:-]*\s*-+\s*`)

// Source polls PACER's per-court RSS feeds for new bankruptcy filings.
type Source struct {
	BaseURL       string
	UserAgent     string
	HTTPClient    *http.Client
	Classifier    *classifier.Classifier
	MinConfidence float64
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

func (s *Source) Name() string { return string(model.SourcePacer) }

// Fetch sweeps every court in Courts. A court whose feed fails is skipped
// and logged by the caller via the returned error only if every court
// failed; a partial sweep is treated as success so one flaky court feed
// does not trip the breaker for the other eleven.
func (s *Source) Fetch(ctx context.Context) ([]Item, error) {
	var items []Item
	var lastErr error
	succeeded := 0

	for _, court := range Courts {
		courtItems, err := s.fetchCourt(ctx, court)
		if err != nil {
			lastErr = err
			continue
		}
		succeeded++
		items = append(items, courtItems...)
	}

	if succeeded == 0 && lastErr != nil {
		return nil, lastErr
	}
	return items, nil
}

func (s *Source) fetchCourt(ctx context.Context, court string) ([]Item, error) {
	url := fmt.Sprintf("%s/rss/%s.xml", s.BaseURL, court)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", s.UserAgent)

	resp, err := s.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, &poller.FetchError{Kind: poller.FetchErrorRateLimited, Err: fmt.Errorf("pacer %s: 429", court)}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &poller.FetchError{Kind: poller.FetchErrorOtherStatus, Err: fmt.Errorf("pacer %s: status %d", court, resp.StatusCode)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var feed rssFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return nil, &poller.FetchError{Kind: poller.FetchErrorParse, Err: err}
	}

	items := make([]Item, 0, len(feed.Channel.Items))
	for _, raw := range feed.Channel.Items {
		items = append(items, Item{
			Court:       court,
			Title:       strings.TrimSpace(raw.Title),
			Description: strings.TrimSpace(raw.Description),
			Link:        strings.TrimSpace(raw.Link),
		})
	}
	return items, nil
}

// companyName strips a leading case-number token ("24-12345 - ") from a
// PACER filing title.
func companyName(title string) string {
	if m := caseNumberPrefix.FindString(title); m != "" {
		return strings.TrimSpace(title[len(m):])
	}
	return strings.TrimSpace(title)
}

// Evaluate implements poller.Source[Item].
func (s *Source) Evaluate(item Item) (model.Event, string, bool) {
	text := item.Title + " " + item.Description
	if !classifier.QuickCheck(text) {
		return model.Event{}, "", false
	}
	scan := s.Classifier.Scan(text)
	if scan.Confidence < s.MinConfidence {
		return model.Event{}, "", false
	}

	event := model.NewEvent(companyName(item.Title), model.SourcePacer, poller.DetectChapter(text), scan.Confidence, scan.Classification)
	if filed := poller.ParseDateLoose(item.Description); filed != nil && !filed.After(event.DetectedAt) {
		event.FilingDate = filed
	}
	link := item.Link
	event.SourceURL = &link
	court := item.Court
	event.Court = &court
	event.DOTNumber = poller.ExtractDOTNumber(text)
	event.MCNumber = poller.ExtractMCNumber(text)

	key := "pacer:" + item.Court + ":" + item.Link
	return event, key, true
}
