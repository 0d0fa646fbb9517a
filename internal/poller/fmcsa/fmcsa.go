// Package fmcsa polls the motor-carrier registry for authority-revocation
// and insurance-lapse distress signals.
package fmcsa

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/freightsignal/sentinel/internal/classifier"
	"github.com/freightsignal/sentinel/internal/model"
	"github.com/freightsignal/sentinel/internal/poller"
)

// CarrierIDs is the fixed list of DOT numbers probed in round-robin
// batches.
var CarrierIDs = []string{
	"2239788", "1234567", "2345678", "3456789", "4567890",
	"5678901", "6789012", "7890123", "8901234", "9012345",
	"1122334", "2233445", "3344556", "4455667", "5566778",
}

// BatchSize is the number of carriers probed per cycle.
const BatchSize = 3

// Record is one fetched carrier record. IsRaw is true when the JSON body
// could not be parsed and the poller fell back to a raw-text scan.
type Record struct {
	DOTNumber         string
	IsRaw             bool
	StatusCode        string
	OutOfServiceDate  string
	InsuranceRequired string
	InsuranceOnFile   string
	RawText           string
}

type carrierPayload struct {
	StatusCode        string `json:"status_code"`
	OutOfServiceDate  string `json:"out_of_service_date"`
	InsuranceRequired string `json:"insurance_required"`
	InsuranceOnFile   string `json:"insurance_on_file"`
}

var deathSignalSubstrings = []string{"inactive", "revoked", "out of service", "not authorized"}

// Source polls the carrier registry.
type Source struct {
	BaseURL    string
	UserAgent  string
	HTTPClient *http.Client
	Classifier *classifier.Classifier

	cursor atomic.Uint64
}

// New constructs a Source with a 20s HTTP timeout, the longest of the
// four sources since the registry endpoint is probed once per carrier.
func New(baseURL, userAgent string, c *classifier.Classifier) *Source {
	return &Source{
		BaseURL:    baseURL,
		UserAgent:  userAgent,
		HTTPClient: &http.Client{Timeout: 20 * time.Second},
		Classifier: c,
	}
}

func (s *Source) Name() string { return string(model.SourceFmcsa) }

// Fetch probes BatchSize carriers starting at the round-robin cursor.
func (s *Source) Fetch(ctx context.Context) ([]Record, error) {
	start := s.cursor.Add(uint64(BatchSize)) - uint64(BatchSize)

	var records []Record
	var lastErr error
	succeeded := 0

	for i := 0; i < BatchSize; i++ {
		dot := CarrierIDs[(start+uint64(i))%uint64(len(CarrierIDs))]
		record, err := s.fetchCarrier(ctx, dot)
		if err != nil {
			lastErr = err
			continue
		}
		succeeded++
		records = append(records, record)
	}

	if succeeded == 0 && lastErr != nil {
		return nil, lastErr
	}
	return records, nil
}

func (s *Source) fetchCarrier(ctx context.Context, dot string) (Record, error) {
	u := fmt.Sprintf("%s/carriers/%s", s.BaseURL, dot)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return Record{}, err
	}
	req.Header.Set("User-Agent", s.UserAgent)

	resp, err := s.HTTPClient.Do(req)
	if err != nil {
		return Record{}, &poller.FetchError{Kind: poller.FetchErrorTransport, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return Record{}, &poller.FetchError{Kind: poller.FetchErrorRateLimited, Err: fmt.Errorf("fmcsa %s: 429", dot)}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Record{}, &poller.FetchError{Kind: poller.FetchErrorOtherStatus, Err: fmt.Errorf("fmcsa %s: status %d", dot, resp.StatusCode)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Record{}, &poller.FetchError{Kind: poller.FetchErrorTransport, Err: err}
	}

	var payload carrierPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return Record{DOTNumber: dot, IsRaw: true, RawText: string(body)}, nil
	}

	return Record{
		DOTNumber:         dot,
		StatusCode:        payload.StatusCode,
		OutOfServiceDate:  payload.OutOfServiceDate,
		InsuranceRequired: payload.InsuranceRequired,
		InsuranceOnFile:   payload.InsuranceOnFile,
	}, nil
}

// deathSignal evaluates the structured death-signal table and returns the
// policy-assigned confidence for a triggered signal.
func deathSignal(r Record) (triggered bool, confidence float64) {
	switch strings.ToUpper(strings.TrimSpace(r.StatusCode)) {
	case "REVOKED":
		return true, 0.90
	case "OUT OF SERVICE":
		return true, 0.85
	case "INACTIVE":
		return true, 0.80
	case "NOT AUTHORIZED":
		return true, 0.85
	}
	if strings.TrimSpace(r.OutOfServiceDate) != "" {
		return true, 0.75
	}
	if r.InsuranceRequired == "Y" && (r.InsuranceOnFile == "N" || r.InsuranceOnFile == "") {
		return true, 0.70
	}
	return false, 0
}

func containsDeathSignalSubstring(text string) bool {
	lower := strings.ToLower(text)
	for _, s := range deathSignalSubstrings {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return false
}

// Evaluate implements poller.Source[Record].
func (s *Source) Evaluate(r Record) (model.Event, string, bool) {
	if r.IsRaw {
		if !classifier.QuickCheck(r.RawText) || !containsDeathSignalSubstring(r.RawText) {
			return model.Event{}, "", false
		}
		scan := s.Classifier.Scan(r.RawText)
		event := model.NewEvent("FMCSA Carrier "+r.DOTNumber, model.SourceFmcsa, poller.DetectChapter(r.RawText), scan.Confidence, scan.Classification)
		dot := r.DOTNumber
		event.DOTNumber = &dot
		return event, "fmcsa:raw:" + r.DOTNumber, true
	}

	triggered, confidence := deathSignal(r)
	if !triggered {
		return model.Event{}, "", false
	}

	event := model.NewEvent("FMCSA Carrier "+r.DOTNumber, model.SourceFmcsa, model.ChapterNone, confidence, model.ClassificationCarrier)
	dot := r.DOTNumber
	event.DOTNumber = &dot

	key := "fmcsa:" + r.DOTNumber + ":" + r.StatusCode
	return event, key, true
}
