package websocket

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"runtime/debug"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/yourusername/quizbattle/internal/service/roomengine"
)

const (
	// Время, которое разрешено писать сообщение клиенту.
	writeWait = 10 * time.Second

	// Время, которое разрешено клиенту читать следующее сообщение.
	pongWait = 30 * time.Second

	// Периодичность отправки ping-сообщений клиенту.
	pingPeriod = (pongWait * 9) / 10

	// Максимальный размер входящего сообщения.
	maxMessageSize = 512

	// Размер буфера канала отправки сообщений клиенту.
	sendBufferSize = 32
)

var (
	newline = []byte{'\n'}
	space   = []byte{' '}
)

// Client is a single accepted socket connection bound to (pin, playerID),
// per spec.md §6 ("/ws/{pin}/{player_id}"). Grounded on this repo's own
// Client transport pattern (readPump/writePump/ping-pong/atomic-close-once),
// trimmed of the sharded-hub registration, role/subscription, and
// quiz-ID-binding machinery that belongs to the teacher's quiz feature,
// not QuizBattle's.
type Client struct {
	ConnectionID string
	Pin          string
	PlayerID     uint

	hub  *Hub
	conn *websocket.Conn

	send       chan []byte
	sendClosed atomic.Bool

	// onClose runs exactly once when the read pump exits, regardless of
	// cause (client-initiated close, protocol violation, read error).
	onClose func()
}

// NewClient builds a Client bound to hub/pin/playerID over an already
// upgraded connection.
func NewClient(hub *Hub, conn *websocket.Conn, pin string, playerID uint, onClose func()) *Client {
	return &Client{
		ConnectionID: uuid.New().String(),
		Pin:          pin,
		PlayerID:     playerID,
		hub:          hub,
		conn:         conn,
		send:         make(chan []byte, sendBufferSize),
		onClose:      onClose,
	}
}

// enqueue attempts a non-blocking send to the client's outbound buffer. A
// full buffer or an already-closed channel counts as a send failure, which
// the Hub treats as a dropped peer (spec.md §4.4).
func (c *Client) enqueue(payload []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("send on closed channel: %v", r)
		}
	}()
	if c.sendClosed.Load() {
		return fmt.Errorf("connection %s already closing", c.ConnectionID)
	}
	select {
	case c.send <- payload:
		return nil
	default:
		return fmt.Errorf("connection %s send buffer full", c.ConnectionID)
	}
}

// SendPong replies to a client-initiated "ping" action directly on this
// connection, bypassing the Hub since a pong is never room-wide.
func (c *Client) SendPong() error {
	payload, err := json.Marshal(roomengine.Envelope{Type: "pong"})
	if err != nil {
		return err
	}
	return c.enqueue(payload)
}

// Close1008 closes the connection with the socket-protocol-violation close
// code from spec.md §6, for a domain error raised by a socket-originated
// command.
func (c *Client) Close1008(reason string) {
	c.closeSend()
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(1008, reason),
		time.Now().Add(writeWait))
	c.conn.Close()
}

func (c *Client) closeSend() bool {
	if c.sendClosed.CompareAndSwap(false, true) {
		close(c.send)
		return true
	}
	return false
}

// StartPumps registers the client with the hub and starts its read/write
// goroutines. messageHandler is invoked for every inbound text frame; a
// panic inside it is recovered and logged and never closes the connection
// on its own -- callers that need a protocol violation to close the socket
// call Close1008 from inside messageHandler.
func (c *Client) StartPumps(messageHandler func(message []byte, client *Client)) {
	c.hub.Register(c.Pin, c)
	go c.writePump()
	go c.readPump(messageHandler)
}

func (c *Client) readPump(messageHandler func(message []byte, client *Client)) {
	defer func() {
		c.hub.Unregister(c.Pin, c)
		if c.onClose != nil {
			c.onClose()
		}
		c.closeSend()
		c.conn.Close()
		log.Printf("[Client] read pump stopped pin=%s conn=%s", c.Pin, c.ConnectionID)
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	log.Printf("[Client] read pump started pin=%s conn=%s", c.Pin, c.ConnectionID)

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				log.Printf("[Client] read error pin=%s conn=%s: %v", c.Pin, c.ConnectionID, err)
			}
			break
		}
		message = bytes.TrimSpace(bytes.Replace(message, newline, space, -1))
		safeHandleMessage(message, c, messageHandler)
	}
}

func safeHandleMessage(message []byte, client *Client, messageHandler func(message []byte, client *Client)) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[Client] panic recovered pin=%s conn=%s: %v\n%s", client.Pin, client.ConnectionID, r, string(debug.Stack()))
		}
	}()
	if messageHandler != nil {
		messageHandler(message, client)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
		log.Printf("[Client] write pump stopped pin=%s conn=%s", c.Pin, c.ConnectionID)
	}()

	for {
		select {
		case message, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			if _, err := w.Write(message); err != nil {
				log.Printf("[Client] write error pin=%s conn=%s: %v", c.Pin, c.ConnectionID, err)
			}
			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
