// Package model holds the wire and domain types shared by every component
// of the ingestion pipeline: pollers produce Events, the bus carries them,
// the publisher serializes them.
package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Chapter identifies the type of bankruptcy proceeding referenced by an Event.
type Chapter string

const (
	Chapter7    Chapter = "chapter_7"
	Chapter11   Chapter = "chapter_11"
	Chapter13   Chapter = "chapter_13"
	ChapterNone Chapter = "unknown"
)

// Source identifies which poller produced an Event.
type Source string

const (
	SourcePacer         Source = "pacer"
	SourceEdgar         Source = "edgar"
	SourceFmcsa         Source = "fmcsa"
	SourceCourtListener Source = "court_listener"
)

// Classification is the business type of the company an Event concerns.
type Classification string

const (
	ClassificationCarrier             Classification = "carrier"
	ClassificationBroker              Classification = "broker"
	ClassificationThirdPartyLogistics Classification = "third_party_logistics"
	ClassificationFreightForwarder    Classification = "freight_forwarder"
	ClassificationUnclassified        Classification = "unclassified"
)

// Event is a single detected financial-distress signal.
type Event struct {
	ID             uuid.UUID      `json:"id"`
	CompanyName    string         `json:"company_name"`
	DOTNumber      *string        `json:"dot_number"`
	MCNumber       *string        `json:"mc_number"`
	FilingDate     *time.Time     `json:"filing_date"`
	Court          *string        `json:"court"`
	Chapter        Chapter        `json:"chapter"`
	Source         Source         `json:"source"`
	DetectedAt     time.Time      `json:"detected_at"`
	Confidence     float64        `json:"confidence"`
	Classification Classification `json:"classification"`
	SourceURL      *string        `json:"source_url"`
}

// NewEvent builds an Event with a fresh ID and DetectedAt stamped to now,
// trimming and validating the fields the data model treats as invariants.
func NewEvent(companyName string, source Source, chapter Chapter, confidence float64, classification Classification) Event {
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}
	return Event{
		ID:             uuid.New(),
		CompanyName:    strings.TrimSpace(companyName),
		Chapter:        chapter,
		Source:         source,
		DetectedAt:     time.Now().UTC(),
		Confidence:     confidence,
		Classification: classification,
	}
}

// DedupKey derives the default suppression key for an Event: pollers may
// override this with a more specific key that matches the grain at which
// repeats actually occur for their source.
func (e Event) DedupKey() string {
	return strings.ToLower(strings.TrimSpace(e.CompanyName)) + ":" + string(e.Source) + ":" + string(e.Chapter)
}

// ScoreSeconds returns the epoch-seconds score used to order this Event in
// the downstream durable log.
func (e Event) ScoreSeconds() float64 {
	return float64(e.DetectedAt.Unix())
}
