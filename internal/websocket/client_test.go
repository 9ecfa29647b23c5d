package websocket

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient_CreatesClientWithConnection(t *testing.T) {
	hub := NewHub(nil)

	client := NewClient(hub, nil, nil)

	assert.NotNil(t, client)
	assert.Equal(t, hub, client.hub)
	assert.NotNil(t, client.send)
	assert.Equal(t, 256, cap(client.send))
	assert.NotEmpty(t, client.ID())
}

func TestNewClient_AssignsUniqueIDs(t *testing.T) {
	hub := NewHub(nil)

	a := NewClient(hub, nil, nil)
	b := NewClient(hub, nil, nil)

	assert.NotEqual(t, a.ID(), b.ID())
}

func TestClient_HandleMessage_RefreshInvokesCallback(t *testing.T) {
	hub := NewHub(nil)
	called := 0
	hub.OnRefresh(func() { called++ })

	client := NewClient(hub, nil, nil)
	client.handleMessage([]byte(`{"type":"refresh"}`))

	assert.Equal(t, 1, called)
}

func TestClient_HandleMessage_RefreshWithoutCallbackIsHarmless(t *testing.T) {
	hub := NewHub(nil)
	client := NewClient(hub, nil, nil)

	client.handleMessage([]byte(`{"type":"refresh"}`))

	// No error reply either; refresh is simply dropped
	select {
	case data := <-client.send:
		t.Fatalf("unexpected reply: %s", data)
	default:
	}
}

func TestClient_HandleMessage_UnknownTypeRepliesWithError(t *testing.T) {
	hub := NewHub(nil)
	client := NewClient(hub, nil, nil)

	client.handleMessage([]byte(`{"type":"teleport"}`))

	select {
	case data := <-client.send:
		var msg WSMessage
		require.NoError(t, json.Unmarshal(data, &msg))
		assert.Equal(t, MessageTypeError, msg.Type)
		assert.Equal(t, "unknown message type", msg.Error)
	case <-time.After(time.Second):
		t.Fatal("expected an error reply")
	}
}

func TestClient_HandleMessage_InvalidJSONRepliesWithError(t *testing.T) {
	hub := NewHub(nil)
	client := NewClient(hub, nil, nil)

	client.handleMessage([]byte(`{not json`))

	select {
	case data := <-client.send:
		var msg WSMessage
		require.NoError(t, json.Unmarshal(data, &msg))
		assert.Equal(t, MessageTypeError, msg.Type)
		assert.Equal(t, "invalid message format", msg.Error)
	case <-time.After(time.Second):
		t.Fatal("expected an error reply")
	}
}

func TestClient_SendError_DropsWhenBufferFull(t *testing.T) {
	hub := NewHub(nil)
	client := NewClient(hub, nil, nil)

	for i := 0; i < cap(client.send); i++ {
		client.send <- []byte("{}")
	}

	// Must not block
	client.sendError("overflow")

	assert.Equal(t, cap(client.send), len(client.send))
}
