package notify

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, sub Subscription) Event {
	t.Helper()
	select {
	case ev, ok := <-sub.Events():
		require.True(t, ok, "subscription closed")
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
	return Event{}
}

func TestChannelName(t *testing.T) {
	assert.Equal(t, "notifications_user_42", Channel("42"))
}

func TestHubDeliversOnlyToRecipientChannel(t *testing.T) {
	hub := NewHub(4, nil)
	ctx := context.Background()

	alice, err := hub.Subscribe(ctx, "alice")
	require.NoError(t, err)
	bob, err := hub.Subscribe(ctx, "bob")
	require.NoError(t, err)

	require.NoError(t, hub.Publish(ctx, "alice", Event{Type: EventNewSolution, SolutionID: "s1"}))

	ev := receive(t, alice)
	assert.Equal(t, "s1", ev.SolutionID)
	select {
	case <-bob.Events():
		t.Fatal("bob must not receive alice's event")
	default:
	}
}

func TestHubDropsWhenSubscriberIsSlow(t *testing.T) {
	hub := NewHub(1, nil)
	ctx := context.Background()
	sub, err := hub.Subscribe(ctx, "u1")
	require.NoError(t, err)

	require.NoError(t, hub.Publish(ctx, "u1", Event{SolutionID: "first"}))
	require.NoError(t, hub.Publish(ctx, "u1", Event{SolutionID: "second"}))

	assert.Equal(t, "first", receive(t, sub).SolutionID)
	select {
	case ev := <-sub.Events():
		t.Fatalf("unexpected event %s", ev.SolutionID)
	default:
	}
}

func TestHubSubscriptionEndsWithContext(t *testing.T) {
	hub := NewHub(1, nil)
	ctx, cancel := context.WithCancel(context.Background())
	sub, err := hub.Subscribe(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, hub.Subscribers("u1"))

	cancel()
	select {
	case _, ok := <-sub.Events():
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("subscription not closed")
	}
	assert.Equal(t, 0, hub.Subscribers("u1"))
}

func TestHubClose(t *testing.T) {
	hub := NewHub(1, nil)
	sub, err := hub.Subscribe(context.Background(), "u1")
	require.NoError(t, err)

	require.NoError(t, hub.Close())
	_, ok := <-sub.Events()
	assert.False(t, ok)
	assert.NoError(t, sub.Close())

	_, err = hub.Subscribe(context.Background(), "u1")
	assert.ErrorIs(t, err, ErrBrokerClosed)
	assert.ErrorIs(t, hub.Publish(context.Background(), "u1", Event{}), ErrBrokerClosed)
}
