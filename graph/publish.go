// Package graph publishes converted road network entities to the knowledge
// graph ingest subject over NATS.
package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/c360studio/semstreams/message"
	"github.com/knakk/rdf"
	"github.com/nats-io/nats.go"

	"github.com/c360studio/roadgraph/export"
	"github.com/c360studio/roadgraph/vocabulary/road"
)

// GraphIngestSubject is the default subject for graph ingestion.
const GraphIngestSubject = "graph.ingest.entity"

// Source marks statements published by the converter.
const Source = "roadgraph.convert"

// Publisher sends one message. *nats.Conn satisfies it.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// Connect opens a NATS connection for publishing.
func Connect(url string) (*nats.Conn, error) {
	conn, err := nats.Connect(url, nats.Name("roadgraph"))
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return conn, nil
}

// EntityPayloads groups the store's statements by subject, one payload per
// subject in first-seen order.
func EntityPayloads(store *export.Store, now time.Time) []*EntityPayload {
	groups := store.BySubject()
	payloads := make([]*EntityPayload, 0, len(groups))
	for _, g := range groups {
		p := &EntityPayload{
			ID:         g.Subject,
			TripleData: make([]message.Triple, 0, len(g.Triples)),
			UpdatedAt:  now,
		}
		for _, t := range g.Triples {
			p.TripleData = append(p.TripleData, toMessageTriple(t, now))
		}
		payloads = append(payloads, p)
	}
	return payloads
}

func toMessageTriple(t rdf.Triple, now time.Time) message.Triple {
	predicate := t.Pred.String()
	if name, ok := road.PredicateForIRI(predicate); ok {
		predicate = name
	}
	return message.Triple{
		Subject:    t.Subj.String(),
		Predicate:  predicate,
		Object:     t.Obj.String(),
		Source:     Source,
		Timestamp:  now,
		Confidence: 1.0,
	}
}

// PublishStore publishes every entity in store on subject and returns how
// many messages were sent. A nil publisher publishes nothing.
func PublishStore(ctx context.Context, pub Publisher, subject string, store *export.Store) (int, error) {
	if pub == nil {
		return 0, nil // Skip publishing if no NATS client (graceful degradation)
	}
	if subject == "" {
		subject = GraphIngestSubject
	}

	sent := 0
	for _, p := range EntityPayloads(store, time.Now()) {
		if err := ctx.Err(); err != nil {
			return sent, err
		}

		data, err := json.Marshal(p)
		if err != nil {
			return sent, fmt.Errorf("marshal entity %s: %w", p.ID, err)
		}
		if err := pub.Publish(subject, data); err != nil {
			return sent, fmt.Errorf("publish entity %s: %w", p.ID, err)
		}
		sent++
	}
	return sent, nil
}
