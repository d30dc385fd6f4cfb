package wschannel

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoHandler(t *testing.T, upgrader websocket.Upgrader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()
		for {
			mt, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if err := conn.WriteMessage(mt, data); err != nil {
				return
			}
		}
	}
}

func TestChannel_FullRoundTrip(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(echoHandler(t, upgrader))
	defer srv.Close()

	endpoint := strings.TrimPrefix(srv.URL, "http://")
	ch := New(endpoint)

	opened := make(chan struct{}, 1)
	messages := make(chan string, 4)
	closed := make(chan error, 1)

	ch.OnOpen(func() { opened <- struct{}{} })
	ch.OnMessage(func(text string) { messages <- text })
	ch.OnClose(func(err error) { closed <- err })

	require.NoError(t, ch.Open(context.Background()))

	select {
	case <-opened:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for open")
	}

	ch.Send(`{"type":"ping"}`)

	select {
	case msg := <-messages:
		assert.Contains(t, msg, "ping")
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for echo")
	}

	require.NoError(t, ch.Close())

	select {
	case <-closed:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for close notification")
	}
}

func TestChannel_SendWhileClosedIsNoop(t *testing.T) {
	ch := New("127.0.0.1:1")
	assert.NotPanics(t, func() { ch.Send("hello") })
	assert.False(t, ch.IsOpen())
}

func TestChannel_OpenTwiceErrors(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(echoHandler(t, upgrader))
	defer srv.Close()

	ch := New(strings.TrimPrefix(srv.URL, "http://"))
	require.NoError(t, ch.Open(context.Background()))
	defer ch.Close()

	err := ch.Open(context.Background())
	assert.Error(t, err)
}
