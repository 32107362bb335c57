// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/relabs-tech/ubx_gateway/internal/observability"
)

const (
	streamSendBuffer = 32
	streamWriteWait  = 5 * time.Second
	streamPongWait   = 60 * time.Second
)

// streamHub fans Signal K deltas out to websocket clients. A client that
// falls streamSendBuffer messages behind is disconnected.
type streamHub struct {
	mu       sync.Mutex
	clients  map[*streamClient]struct{}
	upgrader websocket.Upgrader
	log      zerolog.Logger
}

type streamClient struct {
	conn *websocket.Conn
	send chan []byte
}

// newStreamHub accepts browser connections from origins; an empty list
// allows any origin.
func newStreamHub(origins []string, log zerolog.Logger) *streamHub {
	return &streamHub{
		clients: map[*streamClient]struct{}{},
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" || len(origins) == 0 {
					return true
				}
				return slices.Contains(origins, origin)
			},
		},
		log: log,
	}
}

func (h *streamHub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Broadcast queues msg for every client without blocking.
func (h *streamHub) Broadcast(msg []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			h.log.Warn().Str("remote", c.conn.RemoteAddr().String()).Msg("stream client too slow, dropping")
			h.removeLocked(c)
		}
	}
}

// Serve upgrades the request and streams until the client goes away. The
// first messages are hello and, when known, the last delta.
func (h *streamHub) Serve(w http.ResponseWriter, r *http.Request, hello []byte, last []byte) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("websocket upgrade error")
		return
	}
	c := &streamClient{conn: conn, send: make(chan []byte, streamSendBuffer)}
	c.send <- hello
	if last != nil {
		c.send <- last
	}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	observability.SetStreamClients(n)
	h.log.Info().Str("remote", conn.RemoteAddr().String()).Int("clients", n).Msg("stream client connected")

	go h.writePump(c)
	h.readPump(c)
}

func (h *streamHub) remove(c *streamClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(c)
}

func (h *streamHub) removeLocked(c *streamClient) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
	observability.SetStreamClients(len(h.clients))
}

// readPump discards client messages; it exists to notice disconnects.
func (h *streamHub) readPump(c *streamClient) {
	defer func() {
		h.remove(c)
		c.conn.Close()
	}()
	c.conn.SetReadDeadline(time.Now().Add(streamPongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(streamPongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *streamHub) writePump(c *streamClient) {
	ping := time.NewTicker(streamPongWait * 9 / 10)
	defer func() {
		ping.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ping.C:
			c.conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
