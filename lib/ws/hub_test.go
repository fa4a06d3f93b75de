package ws

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestHub() *Hub {
	hub := NewHub(zap.NewNop().Sugar())
	go hub.Run()
	return hub
}

func receiveOrFail(t *testing.T, client *Client) []byte {
	t.Helper()
	select {
	case message := <-client.Send:
		return message
	case <-time.After(time.Second):
		t.Fatal("no message received")
		return nil
	}
}

func waitForSubscribers(t *testing.T, hub *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for hub.SubscriberCount() != want {
		if time.Now().After(deadline) {
			t.Fatalf("SubscriberCount() = %d, want %d", hub.SubscriberCount(), want)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestHubBroadcastsToEverySubscriber(t *testing.T) {
	hub := newTestHub()

	first := &Client{Hub: hub, Send: make(chan []byte, 1)}
	second := &Client{Hub: hub, Send: make(chan []byte, 1)}
	hub.Register <- first
	hub.Register <- second

	hub.Broadcast <- []byte("ping")

	assert.Equal(t, []byte("ping"), receiveOrFail(t, first))
	assert.Equal(t, []byte("ping"), receiveOrFail(t, second))
}

func TestHubUnregisterClosesSendQueue(t *testing.T) {
	hub := newTestHub()

	client := &Client{Hub: hub, Send: make(chan []byte, 1)}
	hub.Register <- client
	waitForSubscribers(t, hub, 1)

	hub.Unregister <- client

	select {
	case _, open := <-client.Send:
		assert.False(t, open)
	case <-time.After(time.Second):
		t.Fatal("send queue was not closed")
	}
	waitForSubscribers(t, hub, 0)
}

func TestHubDropsSlowSubscriber(t *testing.T) {
	hub := newTestHub()

	slow := &Client{Hub: hub, Send: make(chan []byte)}
	fast := &Client{Hub: hub, Send: make(chan []byte, 1)}
	hub.Register <- slow
	hub.Register <- fast

	// nobody drains the slow queue, so the broadcast evicts it
	hub.Broadcast <- []byte("ping")

	assert.Equal(t, []byte("ping"), receiveOrFail(t, fast))
	waitForSubscribers(t, hub, 1)
}

func TestNotifierBroadcastsAffectedBlocks(t *testing.T) {
	hub := newTestHub()
	notifier := NewNotifier(hub)

	client := &Client{Hub: hub, Send: make(chan []byte, 1)}
	hub.Register <- client
	waitForSubscribers(t, hub, 1)

	notifier.BlocksChanged([]string{"f1/root", "f1/root/1"})

	var message BlocksChangedMessage
	require.NoError(t, json.Unmarshal(receiveOrFail(t, client), &message))
	assert.Equal(t, "blocksChanged", message.Type)
	assert.Equal(t, []string{"f1/root", "f1/root/1"}, message.BlockIds)
}

func TestNotifierDropsEmptyReports(t *testing.T) {
	hub := newTestHub()
	notifier := NewNotifier(hub)

	client := &Client{Hub: hub, Send: make(chan []byte, 1)}
	hub.Register <- client
	waitForSubscribers(t, hub, 1)

	notifier.BlocksChanged(nil)

	select {
	case message := <-client.Send:
		t.Fatalf("unexpected message %q", message)
	case <-time.After(50 * time.Millisecond):
	}
}
