/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"

	"github.com/Seednode/partydeck/games/session"
)

const (
	clientCookieName = "partydeck_id"

	sendBuffer     = 32
	maxMessageSize = 4096
	pongWait       = time.Minute
	pingPeriod     = pongWait * 9 / 10
	writeWait      = 10 * time.Second
)

var errSlowDown = errors.New("slow down")

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type Client struct {
	conn *websocket.Conn
	send chan session.Event
	id   string

	done chan struct{}
	once sync.Once
}

func newClient(conn *websocket.Conn, id string) *Client {
	return &Client{
		conn: conn,
		send: make(chan session.Event, sendBuffer),
		id:   id,
		done: make(chan struct{}),
	}
}

func (c *Client) close() {
	c.once.Do(func() {
		close(c.done)
		if c.conn != nil {
			_ = c.conn.Close()
		}
	})
}

// clientID returns the id from the request's cookie, or a fresh one along
// with the cookie that should be set for it.
func clientID(r *http.Request) (string, *http.Cookie) {
	if c, err := r.Cookie(clientCookieName); err == nil {
		if id, err := uuid.Parse(c.Value); err == nil {
			return id.String(), nil
		}
	}

	id := uuid.NewString()

	return id, &http.Cookie{
		Name:     clientCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int((24 * time.Hour).Seconds()),
	}
}

func serveWS(cfg *Config, reg *session.Registry, hub *Hub) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		id, cookie := clientID(r)

		header := http.Header{}
		if cookie != nil {
			header.Add("Set-Cookie", cookie.String())
		}

		conn, err := upgrader.Upgrade(w, r, header)
		if err != nil {
			cfg.log.Debug().Err(err).Str("remote", realIP(r)).Msg("websocket upgrade failed")

			return
		}

		c := newClient(conn, id)
		hub.add(c)

		logf(cfg, "CONNECT: %s from %s", id, realIP(r))

		go c.writePump()
		c.readPump(cfg, reg, hub)
	}
}

func (c *Client) readPump(cfg *Config, reg *session.Registry, hub *Hub) {
	defer func() {
		if !hub.remove(c) {
			return
		}

		res := reg.HandleDisconnect(c.id)
		switch {
		case res.Closed != "":
			logf(cfg, "DISCONNECT: %s (display of room %s)", c.id, res.Closed)
		case res.Room != "":
			logf(cfg, "DISCONNECT: %s (%s in room %s)", c.id, res.Player, res.Room)
		default:
			logf(cfg, "DISCONNECT: %s", c.id)
		}
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	limiter := cfg.limiter()

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		if !limiter.Allow() {
			reg.Reject(c.id, "", errSlowDown)

			continue
		}

		a, err := session.ParseAction(data)
		if err != nil {
			var ae *session.ActionError
			if errors.As(err, &ae) {
				reg.Reject(c.id, ae.Kind, err)
			} else {
				reg.Reject(c.id, "", err)
			}

			continue
		}

		_ = reg.Dispatch(c.id, a)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case ev := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(ev); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}
