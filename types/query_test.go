package types

import (
	"errors"
	"testing"
	"time"
)

func TestNewQuery(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		topic     string
		depth     Depth
		wantErr   error
		wantTopic string
		wantDepth Depth
	}{
		{"valid", "quantum computing", DepthMedium, nil, "quantum computing", DepthMedium},
		{"trims whitespace", "  climate policy  ", DepthDeep, nil, "climate policy", DepthDeep},
		{"empty topic", "", DepthShallow, ErrEmptyTopic, "", ""},
		{"whitespace only", "   \t\n ", DepthMedium, ErrEmptyTopic, "", ""},
		{"invalid depth falls back to medium", "history of rome", Depth("extreme"), nil, "history of rome", DepthMedium},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := NewQuery(tt.topic, tt.depth, now)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("NewQuery() error = %v, want %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if q.Topic != tt.wantTopic {
				t.Errorf("Topic = %q, want %q", q.Topic, tt.wantTopic)
			}
			if q.Depth != tt.wantDepth {
				t.Errorf("Depth = %v, want %v", q.Depth, tt.wantDepth)
			}
			if !q.CreatedAt.Equal(now) {
				t.Errorf("CreatedAt = %v, want %v", q.CreatedAt, now)
			}
		})
	}
}

func TestDepth(t *testing.T) {
	tests := []struct {
		depth     Depth
		wantValid bool
	}{
		{DepthShallow, true},
		{DepthMedium, true},
		{DepthDeep, true},
		{Depth("exhaustive"), false},
		{Depth(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.depth.String(), func(t *testing.T) {
			if got := tt.depth.IsValid(); got != tt.wantValid {
				t.Errorf("IsValid() = %v, want %v", got, tt.wantValid)
			}
		})
	}
}

func TestSessionState(t *testing.T) {
	tests := []struct {
		state        SessionState
		wantValid    bool
		wantTerminal bool
	}{
		{SessionPending, true, false},
		{SessionInProgress, true, false},
		{SessionCompleted, true, true},
		{SessionTimedOut, true, true},
		{SessionFailed, true, true},
		{SessionState("paused"), false, false},
	}

	for _, tt := range tests {
		t.Run(tt.state.String(), func(t *testing.T) {
			if got := tt.state.IsValid(); got != tt.wantValid {
				t.Errorf("IsValid() = %v, want %v", got, tt.wantValid)
			}
			if got := tt.state.IsTerminal(); got != tt.wantTerminal {
				t.Errorf("IsTerminal() = %v, want %v", got, tt.wantTerminal)
			}
		})
	}
}
