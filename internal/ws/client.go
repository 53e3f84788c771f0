package ws

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait        = 10 * time.Second
	pongWait         = 60 * time.Second
	pingPeriod       = (pongWait * 9) / 10
	maxRequestSize   = 16 * 1024
	clientSendBuffer = 256
)

// Client is one observer connection. Two goroutines serve it: readPump
// handles requests, writePump drains the send buffer.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// enqueue queues a message for the client, dropping it when the buffer is
// full. Recovers the send-on-closed-channel race with an unregistering
// client by treating it as a drop.
func (c *Client) enqueue(raw []byte) {
	defer func() {
		if recover() != nil && c.hub.metrics != nil {
			c.hub.metrics.MessagesDropped.Inc()
		}
	}()

	select {
	case c.send <- raw:
	default:
		if c.hub.metrics != nil {
			c.hub.metrics.MessagesDropped.Inc()
		}
	}
}

// readPump consumes client requests until the connection drops.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxRequestSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Printf("[ws] read error: %v", err)
			}
			return
		}
		c.handleRequest(raw)
	}
}

// handleRequest answers one client request on the client's own channel.
func (c *Client) handleRequest(raw []byte) {
	var req clientRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		c.enqueue(encode(MsgError, "malformed request"))
		return
	}

	switch req.Type {
	case ReqHistoryFilter:
		filter := filterRequest{}
		if req.Filter != nil {
			filter = *req.Filter
		}
		sessions := c.hub.history.Query(filter.toDomain())
		c.enqueue(encode(MsgHistorySnapshot, sessions))

	case ReqHistoryAnalytics:
		c.enqueue(encode(MsgAnalyticsSnapshot, c.hub.history.Analytics()))

	case ReqSessionDetail:
		session, ok := c.hub.history.Get(req.SessionID)
		if !ok {
			c.enqueue(encode(MsgError, "session not found"))
			return
		}
		c.enqueue(encode(MsgSessionDetail, session))

	default:
		c.enqueue(encode(MsgError, "unknown request type"))
	}
}

// writePump drains the send buffer to the connection, coalescing queued
// messages and keeping the connection alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case raw, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, raw); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
