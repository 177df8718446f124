// Package events publishes validation lifecycle events to NATS. Publishing
// is optional: a nil publisher or nil connection skips silently, so the
// pipeline runs unchanged without a NATS server.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/c360studio/tendercheck/tender"
)

// SubjectValidationCompleted is the subject for completed validation runs.
const SubjectValidationCompleted = "tendercheck.validation.completed"

// ValidationCompleted is the payload published after a validation run.
// Ambiguous counts AMBIGUOUS results (contained rule failures and judge
// escape hatches), the findings that need manual review first.
type ValidationCompleted struct {
	TenderID    string    `json:"tender_id"`
	Results     int       `json:"results"`
	Ambiguous   int       `json:"ambiguous"`
	CompletedAt time.Time `json:"completed_at"`
}

func newValidationCompleted(tenderID string, results []tender.ValidationResult) ValidationCompleted {
	ambiguous := 0
	for _, r := range results {
		if r.Status == tender.StatusAmbiguous {
			ambiguous++
		}
	}
	return ValidationCompleted{
		TenderID:    tenderID,
		Results:     len(results),
		Ambiguous:   ambiguous,
		CompletedAt: time.Now(),
	}
}

// Publisher publishes pipeline events over a NATS connection.
type Publisher struct {
	nc *nats.Conn
}

// NewPublisher creates a publisher. A nil connection disables publishing.
func NewPublisher(nc *nats.Conn) *Publisher {
	return &Publisher{nc: nc}
}

// PublishValidationCompleted announces a finished validation run. Skips
// silently when no NATS connection is configured.
func (p *Publisher) PublishValidationCompleted(_ context.Context, tenderID string, results []tender.ValidationResult) error {
	if p == nil || p.nc == nil {
		return nil
	}

	data, err := json.Marshal(newValidationCompleted(tenderID, results))
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := p.nc.Publish(SubjectValidationCompleted, data); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}
