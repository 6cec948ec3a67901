package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBrokerDeliversInOrder(t *testing.T) {
	b := NewBroker()
	defer b.Close()

	ch, unsubscribe := b.Subscribe()
	defer unsubscribe()

	events := []Event{
		{Type: EventSignedIn, Session: &Session{UserID: "u1"}},
		{Type: EventTokenRefreshed, Session: &Session{UserID: "u1"}},
		{Type: EventSignedOut},
	}
	for _, e := range events {
		b.Publish(e)
	}

	for _, want := range events {
		select {
		case got := <-ch:
			assert.Equal(t, want.Type, got.Type)
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for %s", want.Type)
		}
	}
}

func TestBrokerFanOut(t *testing.T) {
	b := NewBroker()
	defer b.Close()

	ch1, u1 := b.Subscribe()
	ch2, u2 := b.Subscribe()
	defer u1()
	defer u2()

	b.Publish(Event{Type: EventSignedOut})

	for _, ch := range []<-chan Event{ch1, ch2} {
		select {
		case got := <-ch:
			assert.Equal(t, EventSignedOut, got.Type)
		case <-time.After(time.Second):
			t.Fatal("subscriber did not receive event")
		}
	}
}

func TestBrokerSlowSubscriberReceivesEverything(t *testing.T) {
	b := NewBroker()
	defer b.Close()

	ch, unsubscribe := b.Subscribe()
	defer unsubscribe()

	// Publish far more events than any fixed buffer would hold before
	// the consumer reads a single one.
	const total = 500
	for i := 0; i < total; i++ {
		b.Publish(Event{Type: EventTokenRefreshed, Session: &Session{UserID: string(rune('a' + i%26))}})
	}
	b.Publish(Event{Type: EventSignedOut})

	for i := 0; i < total; i++ {
		select {
		case got := <-ch:
			require.Equal(t, EventTokenRefreshed, got.Type, "event %d", i)
			require.Equal(t, string(rune('a'+i%26)), got.Session.UserID, "event %d out of order", i)
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for event %d", i)
		}
	}

	select {
	case got := <-ch:
		assert.Equal(t, EventSignedOut, got.Type)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for the sign-out event")
	}
}

func TestBrokerUnsubscribeClosesChannel(t *testing.T) {
	b := NewBroker()
	defer b.Close()

	ch, unsubscribe := b.Subscribe()
	unsubscribe()
	unsubscribe() // safe to repeat

	_, ok := <-ch
	assert.False(t, ok, "channel should be closed")

	// Publishing after unsubscribe must not panic.
	b.Publish(Event{Type: EventSignedOut})
}

func TestBrokerClose(t *testing.T) {
	b := NewBroker()
	ch, _ := b.Subscribe()
	b.Close()
	b.Close() // idempotent

	_, ok := <-ch
	require.False(t, ok)

	// Subscribing after close yields a closed channel.
	ch2, _ := b.Subscribe()
	_, ok = <-ch2
	assert.False(t, ok)
}
