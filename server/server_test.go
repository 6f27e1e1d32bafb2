package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/brieflex/brieflex/notify"
)

// startTestServer wires a server onto an httptest listener without the
// blocking Start loop.
func startTestServer(t *testing.T) (*Server, string) {
	t.Helper()
	log := zaptest.NewLogger(t).Sugar()
	bus := notify.NewBus(log)
	s := New("unused", bus, log)

	s.busCh = bus.Subscribe()
	go s.relayLoop()

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/healthz", s.handleHealth)
	ts := httptest.NewServer(mux)

	t.Cleanup(func() {
		close(s.done)
		bus.Unsubscribe(s.busCh)
		s.hub.closeAll()
		ts.Close()
	})
	return s, ts.URL
}

func dialWS(t *testing.T, baseURL string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(baseURL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestBusEventsReachWebsocketClients(t *testing.T) {
	s, url := startTestServer(t)
	conn := dialWS(t, url)

	// Wait for registration before publishing.
	require.Eventually(t, func() bool {
		return s.hub.ClientCount() == 1
	}, time.Second, 10*time.Millisecond)

	s.bus.Publish(notify.Event{
		Kind:    notify.KindProgress,
		Source:  "prompt.legacy+forced",
		Percent: 40,
	})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev notify.Event
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, notify.KindProgress, ev.Kind)
	assert.Equal(t, "prompt.legacy+forced", ev.Source)
	assert.Equal(t, 40, ev.Percent)
}

func TestMultipleClientsEachReceiveEvents(t *testing.T) {
	s, url := startTestServer(t)
	first := dialWS(t, url)
	second := dialWS(t, url)

	require.Eventually(t, func() bool {
		return s.hub.ClientCount() == 2
	}, time.Second, 10*time.Millisecond)

	s.bus.Publish(notify.Event{Kind: notify.KindComplete, Source: "prompt.legacy", Percent: 100})

	for _, conn := range []*websocket.Conn{first, second} {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var ev notify.Event
		require.NoError(t, conn.ReadJSON(&ev))
		assert.Equal(t, notify.KindComplete, ev.Kind)
	}
}

func TestDisconnectedClientIsUnregistered(t *testing.T) {
	s, url := startTestServer(t)
	conn := dialWS(t, url)

	require.Eventually(t, func() bool {
		return s.hub.ClientCount() == 1
	}, time.Second, 10*time.Millisecond)

	conn.Close()

	require.Eventually(t, func() bool {
		return s.hub.ClientCount() == 0
	}, time.Second, 10*time.Millisecond)
}

func TestHealthEndpoint(t *testing.T) {
	_, url := startTestServer(t)

	resp, err := http.Get(url + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "application/json")
}
