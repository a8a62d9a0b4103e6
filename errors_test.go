package researchkit

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want []string
	}{
		{
			name: "with underlying error",
			err: &Error{
				Op:   "Coordinator.SubmitQuery",
				Kind: KindInvalidQuery,
				Err:  ErrInvalidQuery,
			},
			want: []string{"researchkit:", "Coordinator.SubmitQuery", "invalid_query", "invalid query"},
		},
		{
			name: "without underlying error",
			err: &Error{
				Op:   "Coordinator.GetArtifact",
				Kind: KindInternal,
			},
			want: []string{"researchkit:", "Coordinator.GetArtifact", "internal"},
		},
		{
			name: "with context",
			err: &Error{
				Op:      "Coordinator.SessionInfo",
				Kind:    KindNotFound,
				Err:     ErrSessionNotFound,
				Context: map[string]any{"session_id": "abc"},
			},
			want: []string{"session not found", "context", "abc"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, want := range tt.want {
				if !strings.Contains(msg, want) {
					t.Errorf("Error() = %q, missing %q", msg, want)
				}
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	err := NewInvalidQueryError("Coordinator.SubmitQuery", ErrInvalidQuery)
	if !errors.Is(err, ErrInvalidQuery) {
		t.Error("expected errors.Is to match the wrapped sentinel")
	}

	wrapped := NewInternalError("op", fmt.Errorf("outer: %w", ErrCoordinatorClosed))
	if !errors.Is(wrapped, ErrCoordinatorClosed) {
		t.Error("expected errors.Is to match through nested wrapping")
	}
}

func TestError_Is_KindMatching(t *testing.T) {
	err := &Error{Op: "session", Kind: KindStallTimeout, Err: errors.New("no progress")}

	if !errors.Is(err, &Error{Kind: KindStallTimeout}) {
		t.Error("expected kind-only target to match")
	}
	if errors.Is(err, &Error{Kind: KindAgentFailure}) {
		t.Error("expected mismatched kind not to match")
	}
	if errors.Is(err, &Error{Kind: KindStallTimeout, Op: "other"}) {
		t.Error("expected mismatched op not to match")
	}
}

type failingCloser struct{ closed bool }

func (c *failingCloser) Close() error {
	c.closed = true
	return errors.New("close failed")
}

func TestCloseWithLog(t *testing.T) {
	// Nil closer is a no-op.
	CloseWithLog(nil, nil, "nothing")

	c := &failingCloser{}
	CloseWithLog(c, nil, "flaky resource")
	if !c.closed {
		t.Error("expected Close to be called")
	}
}

func TestError_WithContext(t *testing.T) {
	base := NewNotFoundError("Coordinator.Subscribe", ErrSessionNotFound)
	enriched := base.WithContext(map[string]any{"session_id": "xyz"})

	if base.Context != nil {
		t.Error("WithContext should not mutate the original error")
	}
	if enriched.Context["session_id"] != "xyz" {
		t.Error("expected context to carry the session id")
	}
}
