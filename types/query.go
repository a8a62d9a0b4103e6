package types

import (
	"errors"
	"strings"
	"time"
)

// ErrEmptyTopic is returned when a query topic is empty or whitespace-only.
var ErrEmptyTopic = errors.New("types: topic must contain non-whitespace text")

// Depth controls how thorough the simulated research run is.
type Depth string

const (
	// DepthShallow performs a quick pass with few sources.
	DepthShallow Depth = "shallow"

	// DepthMedium is the default balance of speed and coverage.
	DepthMedium Depth = "medium"

	// DepthDeep performs the most thorough simulated pass.
	DepthDeep Depth = "deep"
)

// String returns the string representation of the depth level.
func (d Depth) String() string {
	return string(d)
}

// IsValid checks if the depth level is a recognized value.
func (d Depth) IsValid() bool {
	switch d {
	case DepthShallow, DepthMedium, DepthDeep:
		return true
	default:
		return false
	}
}

// Query is an immutable research query. It is created once per session and
// never mutated; a new submission always produces a new Query.
type Query struct {
	// Topic is the research subject. Always non-empty after validation.
	Topic string `json:"topic"`

	// Depth is the requested research depth level.
	Depth Depth `json:"depth"`

	// CreatedAt is the timestamp when the query was submitted.
	CreatedAt time.Time `json:"created_at"`
}

// NewQuery validates and builds a research query. The topic must contain
// non-whitespace text and the depth must be a recognized level; an invalid
// depth falls back to DepthMedium rather than failing, since depth only
// shapes the simulation.
func NewQuery(topic string, depth Depth, createdAt time.Time) (Query, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return Query{}, ErrEmptyTopic
	}
	if !depth.IsValid() {
		depth = DepthMedium
	}
	return Query{
		Topic:     topic,
		Depth:     depth,
		CreatedAt: createdAt,
	}, nil
}
