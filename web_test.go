/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Seednode/partydeck/games/session"
)

type testServer struct {
	cfg *Config
	hub *Hub
	reg *session.Registry
	srv *httptest.Server
}

func newTestServer(t *testing.T, modify ...func(*Config)) *testServer {
	t.Helper()

	cfg := validConfig()
	cfg.log = zerolog.Nop()
	for _, m := range modify {
		m(cfg)
	}

	hub := newHub(zerolog.Nop())
	reg := session.New(cfg.registryOptions(hub))

	errs := make(chan error, 64)
	srv := httptest.NewServer(newRouter(cfg, reg, hub, errs))

	t.Cleanup(func() {
		hub.closeAll()
		srv.Close()
		reg.CloseAll("test over")
	})

	return &testServer{cfg: cfg, hub: hub, reg: reg, srv: srv}
}

func (ts *testServer) get(t *testing.T, path string) (*http.Response, string) {
	t.Helper()

	resp, err := http.Get(ts.srv.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp, string(body)
}

func (ts *testServer) dial(t *testing.T) (*websocket.Conn, *http.Response) {
	t.Helper()

	url := "ws" + strings.TrimPrefix(ts.srv.URL, "http") + "/ws"

	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return conn, resp
}

func readEvent(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	var ev map[string]any
	require.NoError(t, conn.ReadJSON(&ev))

	return ev
}

func TestPlainRoutes(t *testing.T) {
	ts := newTestServer(t)

	resp, body := ts.get(t, "/healthz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Ok\n", body)

	resp, body = ts.get(t, "/version")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "partydeck v"+releaseVersion+"\n", body)
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))

	resp, body = ts.get(t, "/robots.txt")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Disallow: /rooms/")
}

func TestStatusPageCountsRooms(t *testing.T) {
	ts := newTestServer(t)

	_, body := ts.get(t, "/")
	assert.Contains(t, body, "0 open rooms")

	_, err := ts.reg.CreateRoom("display")
	require.NoError(t, err)

	resp, body := ts.get(t, "/")
	assert.Contains(t, body, "1 open rooms")
	assert.NotEmpty(t, resp.Cookies())
}

func TestRoomQR(t *testing.T) {
	ts := newTestServer(t)

	resp, _ := ts.get(t, "/rooms/ZZZZ/qr")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	code, err := ts.reg.CreateRoom("display")
	require.NoError(t, err)

	resp, body := ts.get(t, "/rooms/"+strings.ToLower(code)+"/qr")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	assert.True(t, strings.HasPrefix(body, "\x89PNG"))

	resp, body = ts.get(t, "/rooms/"+code)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Room "+code)
}

func TestWebsocketCreateAndClose(t *testing.T) {
	ts := newTestServer(t)

	conn, resp := ts.dial(t)

	var cookie bool
	for _, c := range resp.Cookies() {
		if c.Name == clientCookieName {
			cookie = true
		}
	}
	assert.True(t, cookie, "websocket handshake should assign a client cookie")

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "create_room"}))

	ev := readEvent(t, conn)
	require.Equal(t, "roomCreated", ev["type"])

	code, _ := ev["code"].(string)
	require.Len(t, code, session.CodeLength)
	assert.True(t, ts.reg.Exists(code))

	require.NoError(t, conn.Close())

	assert.Eventually(t, func() bool {
		return !ts.reg.Exists(code)
	}, 2*time.Second, 10*time.Millisecond)
}

func TestWebsocketRejectsMalformedActions(t *testing.T) {
	ts := newTestServer(t)

	conn, _ := ts.dial(t)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"flip_table"}`)))

	ev := readEvent(t, conn)
	assert.Equal(t, "roomError", ev["type"])
	assert.Equal(t, "flip_table", ev["action"])

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "draw_card", "code": "ZZZZ"}))

	ev = readEvent(t, conn)
	assert.Equal(t, "roomError", ev["type"])
	assert.Equal(t, session.ErrRoomNotFound.Error(), ev["message"])
}

func TestWebsocketRateLimit(t *testing.T) {
	ts := newTestServer(t, func(c *Config) {
		c.rateLimit = 0.001
		c.rateBurst = 1
	})

	conn, _ := ts.dial(t)

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "create_room"}))
	require.NoError(t, conn.WriteJSON(map[string]string{"type": "create_room"}))

	ev := readEvent(t, conn)
	assert.Equal(t, "roomCreated", ev["type"])

	ev = readEvent(t, conn)
	assert.Equal(t, "roomError", ev["type"])
	assert.Equal(t, errSlowDown.Error(), ev["message"])
}

func TestProfileRoutesOnlyWhenEnabled(t *testing.T) {
	ts := newTestServer(t)

	resp, _ := ts.get(t, "/pprof/heap")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	ts = newTestServer(t, func(c *Config) { c.profile = true })

	resp, _ = ts.get(t, "/pprof/heap")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
