package events

import (
	"testing"
	"time"

	"github.com/holiman/uint256"
)

func TestEventBusPublishAndUnsubscribe(t *testing.T) {
	eventBus := NewEventBus()

	id, ch := eventBus.Subscribe()

	if count := eventBus.GetTotalSubscriptions(); count != 1 {
		t.Errorf("Expected 1 subscription, got %d", count)
	}

	event := NewCreditsMinted("minter-1", "holder-r", uint256.NewInt(1000), 0)

	go func() {
		eventBus.Publish(event)
	}()

	select {
	case received := <-ch:
		if received.Type() != EventCreditsMinted {
			t.Errorf("Expected CreditsMinted, got %s", received.Type())
		}
		if received.Actor() != "minter-1" {
			t.Errorf("Expected actor minter-1, got %s", received.Actor())
		}
		minted, ok := received.(*CreditsMinted)
		if !ok {
			t.Fatalf("Expected *CreditsMinted, got %T", received)
		}
		if minted.Recipient() != "holder-r" {
			t.Errorf("Expected recipient holder-r, got %s", minted.Recipient())
		}
		if minted.RecordIndex() != 0 {
			t.Errorf("Expected record index 0, got %d", minted.RecordIndex())
		}
	case <-time.After(1 * time.Second):
		t.Error("Timeout waiting for event")
	}

	if !eventBus.Unsubscribe(id) {
		t.Error("Expected unsubscribe to succeed")
	}
	if eventBus.Unsubscribe(id) {
		t.Error("Expected second unsubscribe to fail")
	}
	if count := eventBus.GetTotalSubscriptions(); count != 0 {
		t.Errorf("Expected 0 subscriptions after unsubscribe, got %d", count)
	}
}

func TestEventBusFullChannelDoesNotBlock(t *testing.T) {
	eventBus := NewEventBus()
	_, _ = eventBus.Subscribe()

	done := make(chan struct{})
	go func() {
		// overflow the subscriber buffer; Publish must never block
		for i := 0; i < 100; i++ {
			eventBus.Publish(NewCreditsBurned("holder-r", uint256.NewInt(1)))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked on a full subscriber channel")
	}
}

func TestLedgerEventTypes(t *testing.T) {
	cases := []struct {
		event    LedgerEvent
		expected EventType
	}{
		{NewCreditsMinted("m", "r", uint256.NewInt(1), 0), EventCreditsMinted},
		{NewCreditsTransferred("s", "r", uint256.NewInt(1), "memo"), EventCreditsTransferred},
		{NewCreditsBurned("h", uint256.NewInt(1)), EventCreditsBurned},
		{NewMinterAdded("a", "m"), EventMinterAdded},
		{NewMinterRemoved("a", "m"), EventMinterRemoved},
		{NewAdminChanged("a", "b"), EventAdminChanged},
		{NewLedgerPaused("a"), EventLedgerPaused},
		{NewLedgerUnpaused("a"), EventLedgerUnpaused},
		{NewRecordMetadataUpdated("m", 7), EventRecordMetadataUpdated},
		{NewTokenURIUpdated("a", "ipfs://x"), EventTokenURIUpdated},
	}

	for _, tc := range cases {
		if tc.event.Type() != tc.expected {
			t.Errorf("Expected %s, got %s", tc.expected, tc.event.Type())
		}
		if tc.event.Timestamp().IsZero() {
			t.Errorf("Expected non-zero timestamp for %s", tc.expected)
		}
	}
}
