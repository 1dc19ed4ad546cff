package pubsub

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestGraphStateBuffer(t *testing.T) {
	pub := NewSSEPublisher()
	defer pub.Close()

	// Configure topic with buffer size 3, replay all
	pub.ConfigureTopic(TopicGraphState, TopicConfig{
		BufferSize: 3,
		ReplayAll:  true,
	})

	// Publish 5 events
	for i := 1; i <= 5; i++ {
		err := pub.Publish(TopicGraphState, "add_location", GraphState{Revision: i})
		if err != nil {
			t.Fatalf("Failed to publish event %d: %v", i, err)
		}
	}

	// Subscribe and verify we get last 3 events
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	sub, err := pub.Subscribe(ctx, TopicGraphState)
	if err != nil {
		t.Fatalf("Failed to subscribe: %v", err)
	}
	defer sub.Close()

	// Should receive last 3 events (3, 4, 5)
	receivedCount := 0
	for receivedCount < 3 {
		select {
		case event := <-sub.Events():
			receivedCount++
			t.Logf("Received replayed event version %d", event.Version)
			// Events should be 3, 4, 5 (last 3 of 5)
			expectedVersion := receivedCount + 2
			if event.Version != expectedVersion {
				t.Errorf("Expected version %d, got %d", expectedVersion, event.Version)
			}
		case <-time.After(100 * time.Millisecond):
			t.Fatalf("Timeout waiting for event %d", receivedCount+1)
		}
	}

	if receivedCount != 3 {
		t.Errorf("Expected 3 replayed events, got %d", receivedCount)
	}
}

func TestReplayLastOnly(t *testing.T) {
	pub := NewSSEPublisher()
	defer pub.Close()

	// Configure topic with buffer size 5, replay only last
	pub.ConfigureTopic(TopicGraphState, TopicConfig{
		BufferSize: 5,
		ReplayAll:  false,
	})

	// Publish 3 events
	for i := 1; i <= 3; i++ {
		err := pub.Publish(TopicGraphState, "add_location", GraphState{Revision: i})
		if err != nil {
			t.Fatalf("Failed to publish event %d: %v", i, err)
		}
	}

	// Subscribe and verify we get only last event
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	sub, err := pub.Subscribe(ctx, TopicGraphState)
	if err != nil {
		t.Fatalf("Failed to subscribe: %v", err)
	}
	defer sub.Close()

	// Should receive only last event (version 3)
	select {
	case event := <-sub.Events():
		if event.Version != 3 {
			t.Errorf("Expected version 3, got %d", event.Version)
		}
		t.Logf("Received last event version %d", event.Version)
	case <-time.After(100 * time.Millisecond):
		t.Fatal("Timeout waiting for event")
	}

	// Verify no more events are sent
	select {
	case event := <-sub.Events():
		t.Errorf("Received unexpected extra event version %d", event.Version)
	case <-time.After(50 * time.Millisecond):
		// Good, no extra events
	}
}

func TestNoBuffer(t *testing.T) {
	pub := NewSSEPublisher()
	defer pub.Close()

	// Configure topic with no buffer
	pub.ConfigureTopic(TopicGraphState, TopicConfig{
		BufferSize: 0,
		ReplayAll:  false,
	})

	// Publish events before subscribing
	for i := 1; i <= 3; i++ {
		err := pub.Publish(TopicGraphState, "add_location", GraphState{Revision: i})
		if err != nil {
			t.Fatalf("Failed to publish event %d: %v", i, err)
		}
	}

	// Subscribe - should not receive any replayed events
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	sub, err := pub.Subscribe(ctx, TopicGraphState)
	if err != nil {
		t.Fatalf("Failed to subscribe: %v", err)
	}
	defer sub.Close()

	// Verify no events are received (because none were buffered)
	select {
	case event := <-sub.Events():
		t.Errorf("Received unexpected replayed event version %d", event.Version)
	case <-time.After(50 * time.Millisecond):
		// Good, no events replayed
		t.Log("Correctly received no events (buffer disabled)")
	}

	// Now publish a new event - subscriber should receive it
	err = pub.Publish(TopicGraphState, "undo", GraphState{Revision: 4})
	if err != nil {
		t.Fatalf("Failed to publish new event: %v", err)
	}

	select {
	case event := <-sub.Events():
		if event.Version != 4 {
			t.Errorf("Expected version 4, got %d", event.Version)
		}
		t.Logf("Received new event version %d", event.Version)
	case <-time.After(100 * time.Millisecond):
		t.Fatal("Timeout waiting for new event")
	}
}

func TestSubscribersAndClose(t *testing.T) {
	pub := NewSSEPublisher()

	ctx, cancel := context.WithCancel(context.Background())
	sub, err := pub.Subscribe(ctx, TopicNotices)
	if err != nil {
		t.Fatalf("Failed to subscribe: %v", err)
	}
	if n := pub.Subscribers(TopicNotices); n != 1 {
		t.Fatalf("Expected 1 subscriber, got %d", n)
	}

	if err := pub.Publish(TopicNotices, "undo", Notice{Message: "nothing to undo"}); err != nil {
		t.Fatalf("Failed to publish: %v", err)
	}
	select {
	case event := <-sub.Events():
		var notice Notice
		if err := json.Unmarshal(event.Data, &notice); err != nil {
			t.Fatalf("Bad payload: %v", err)
		}
		if notice.Message != "nothing to undo" || event.Type != "undo" {
			t.Errorf("Unexpected event %+v", event)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("Timeout waiting for notice")
	}

	// Cancelling the context unsubscribes
	cancel()
	deadline := time.Now().Add(time.Second)
	for pub.Subscribers(TopicNotices) != 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if n := pub.Subscribers(TopicNotices); n != 0 {
		t.Errorf("Expected 0 subscribers after cancel, got %d", n)
	}

	pub.Close()
	if err := pub.Publish(TopicNotices, "undo", Notice{}); err == nil {
		t.Error("Expected publish on closed publisher to fail")
	}
	if _, err := pub.Subscribe(context.Background(), TopicNotices); err == nil {
		t.Error("Expected subscribe on closed publisher to fail")
	}
}

func TestSubscribeRacingClose(t *testing.T) {
	for round := 0; round < 50; round++ {
		pub := NewSSEPublisher()
		pub.ConfigureTopic(TopicGraphState, TopicConfig{BufferSize: 5, ReplayAll: true})
		for i := 0; i < 5; i++ {
			if err := pub.Publish(TopicGraphState, "edit", GraphState{Revision: i}); err != nil {
				t.Fatalf("Failed to publish: %v", err)
			}
		}

		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				sub, err := pub.Subscribe(context.Background(), TopicGraphState)
				if err != nil {
					if !errors.Is(err, ErrClosed) {
						t.Errorf("Unexpected subscribe error: %v", err)
					}
					return
				}
				// Drain until Close ends the stream
				for range sub.Events() {
				}
			}()
		}
		pub.Close()
		wg.Wait()
	}
}

func TestWriteSSE(t *testing.T) {
	var buf bytes.Buffer
	event := Event{Topic: TopicGraphState, Type: "import", Data: json.RawMessage(`{"revision":2}`), Version: 7}

	if err := WriteSSE(&buf, event); err != nil {
		t.Fatalf("WriteSSE failed: %v", err)
	}

	out := buf.String()
	if !strings.HasPrefix(out, "data: {") || !strings.HasSuffix(out, "}\n\n") {
		t.Errorf("Unexpected SSE framing: %q", out)
	}
	if !strings.Contains(out, `"revision":2`) || !strings.Contains(out, `"version":7`) {
		t.Errorf("Missing fields in %q", out)
	}
}
