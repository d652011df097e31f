package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	pongWait     = 60 * time.Second
	pingInterval = 30 * time.Second
	sendBuffer   = 32
	readLimit    = 4096
)

// Client is one websocket subscriber, optionally filtered to a sensor.
type Client struct {
	id           string
	sensorID     string
	ws           *websocket.Conn
	send         chan []byte
	logger       *zap.Logger
	writeTimeout time.Duration
	onClose      func(id string)
	closeOnce    sync.Once
}

// NewClient wraps an upgraded connection.
func NewClient(id, sensorID string, conn *websocket.Conn, writeTimeout time.Duration, logger *zap.Logger, onClose func(string)) *Client {
	return &Client{
		id:           id,
		sensorID:     sensorID,
		ws:           conn,
		send:         make(chan []byte, sendBuffer),
		logger:       logger,
		writeTimeout: writeTimeout,
		onClose:      onClose,
	}
}

// ID returns identifier.
func (c *Client) ID() string {
	return c.id
}

// Wants reports whether the client subscribed to sensorID.
func (c *Client) Wants(sensorID string) bool {
	return c.sensorID == "" || c.sensorID == sensorID
}

// Start runs the pumps until the peer goes away.
func (c *Client) Start() {
	go c.writePump()
	c.readPump()
}

// Subscribers only listen; inbound frames are read to service control
// messages and detect disconnects.
func (c *Client) readPump() {
	defer c.Close()
	c.ws.SetReadLimit(readLimit)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.ws.ReadMessage(); err != nil {
			c.logger.Debug("subscriber read closed", zap.String("client_id", c.id), zap.Error(err))
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				_ = c.write(websocket.CloseMessage, []byte{})
				_ = c.ws.Close()
				return
			}
			if err := c.write(websocket.TextMessage, msg); err != nil {
				_ = c.ws.Close()
				return
			}
		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				_ = c.ws.Close()
				return
			}
		}
	}
}

// Send enqueues a message, dropping it when the client is too slow.
func (c *Client) Send(msg []byte) {
	select {
	case c.send <- msg:
	default:
		c.logger.Warn("dropping live reading, buffer full", zap.String("client_id", c.id))
	}
}

// Close unregisters the client and stops its writer.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		if c.onClose != nil {
			c.onClose(c.id)
		}
		close(c.send)
	})
}

func (c *Client) write(messageType int, data []byte) error {
	_ = c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	return c.ws.WriteMessage(messageType, data)
}
