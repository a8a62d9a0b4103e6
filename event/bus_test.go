package event

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lantern-ai/researchkit/types"
)

func makeEvent(i int) Event {
	return Event{
		ID:        fmt.Sprintf("ev-%d", i),
		SessionID: "session-1",
		Type:      TypeAgentProgress,
		Agent:     types.AgentSearch,
		Progress:  float64(i) / 10,
		Timestamp: time.Date(2026, 1, 1, 0, 0, i, 0, time.UTC),
	}
}

func TestBus_DeliversInPublishOrder(t *testing.T) {
	bus := NewBus()
	ch, unsubscribe := bus.Subscribe(16)
	defer unsubscribe()

	for i := 0; i < 10; i++ {
		bus.Publish(makeEvent(i))
	}

	for i := 0; i < 10; i++ {
		ev := <-ch
		assert.Equal(t, fmt.Sprintf("ev-%d", i), ev.ID)
	}
}

func TestBus_MultipleSubscribersSeeSameOrder(t *testing.T) {
	bus := NewBus()
	chA, unsubA := bus.Subscribe(8)
	chB, unsubB := bus.Subscribe(8)
	defer unsubA()
	defer unsubB()

	for i := 0; i < 5; i++ {
		bus.Publish(makeEvent(i))
	}

	for i := 0; i < 5; i++ {
		evA := <-chA
		evB := <-chB
		assert.Equal(t, evA.ID, evB.ID)
	}
}

func TestBus_NoReplayForLateSubscriber(t *testing.T) {
	bus := NewBus()

	bus.Publish(makeEvent(0))
	bus.Publish(makeEvent(1))

	ch, unsubscribe := bus.Subscribe(8)
	defer unsubscribe()

	select {
	case ev := <-ch:
		t.Fatalf("late subscriber received replayed event %s", ev.ID)
	default:
	}

	bus.Publish(makeEvent(2))
	ev := <-ch
	assert.Equal(t, "ev-2", ev.ID)
}

func TestBus_FullSubscriberMissesNotStalls(t *testing.T) {
	bus := NewBus()
	ch, unsubscribe := bus.Subscribe(1)
	defer unsubscribe()

	done := make(chan struct{})
	go func() {
		defer close(done)
		bus.Publish(makeEvent(0))
		bus.Publish(makeEvent(1)) // dropped for this subscriber
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a full subscriber")
	}

	ev := <-ch
	assert.Equal(t, "ev-0", ev.ID)
	select {
	case ev := <-ch:
		t.Fatalf("unexpected second event %s", ev.ID)
	default:
	}
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := NewBus()
	ch, unsubscribe := bus.Subscribe(4)

	require.Equal(t, 1, bus.SubscriberCount())
	unsubscribe()
	require.Equal(t, 0, bus.SubscriberCount())

	// Channel closed after unsubscribe.
	_, open := <-ch
	assert.False(t, open)

	// Idempotent.
	unsubscribe()
}

func TestBus_Close(t *testing.T) {
	bus := NewBus()
	ch, unsubscribe := bus.Subscribe(4)
	defer unsubscribe()

	bus.Close()
	_, open := <-ch
	assert.False(t, open)

	// Publish after close is a no-op, subscribe returns a closed channel.
	bus.Publish(makeEvent(0))
	late, _ := bus.Subscribe(4)
	_, open = <-late
	assert.False(t, open)
}

func TestType_Classification(t *testing.T) {
	tests := []struct {
		typ         Type
		valid       bool
		terminal    bool
		agentScoped bool
	}{
		{TypeAgentStarted, true, false, true},
		{TypeAgentProgress, true, false, true},
		{TypeAgentCompleted, true, false, true},
		{TypeAgentFailed, true, false, true},
		{TypeAgentCancelled, true, false, true},
		{TypeSessionTimedOut, true, true, false},
		{TypeSessionCompleted, true, true, false},
		{TypeSessionFailed, true, true, false},
		{Type("session.paused"), false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.typ.String(), func(t *testing.T) {
			assert.Equal(t, tt.valid, tt.typ.IsValid())
			assert.Equal(t, tt.terminal, tt.typ.IsSessionTerminal())
			assert.Equal(t, tt.agentScoped, tt.typ.IsAgentEvent())
		})
	}
}
