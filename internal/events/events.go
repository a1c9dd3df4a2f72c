// Package events publishes match lifecycle events to the delivery system's
// intake topic. Message composition and sending live outside this service;
// it only announces that something happened to a match.
package events

import (
	"context"
	"time"
)

// Event types published on the match lifecycle topic.
const (
	TypeMatchCreated     = "match.created"
	TypeMatchPublished   = "match.published"
	TypeMatchDeactivated = "match.deactivated"
	TypeMatchReassigned  = "match.reassigned"
)

// Event describes one lifecycle change. Consumers use MatchID as the
// partition key so per-match ordering is preserved.
type Event struct {
	Type     string    `json:"type"`
	MatchID  string    `json:"match_id"`
	SantaID  string    `json:"santa_id,omitempty"`
	GifteeID string    `json:"giftee_id,omitempty"`
	At       time.Time `json:"at"`
}

// Publisher is the interface any event backend must implement.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

// Nop discards events. Used when no broker is configured and in tests.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error                         { return nil }
