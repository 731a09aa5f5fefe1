package ws

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"mdla-platform/internal/dto"
	"mdla-platform/internal/model"
	"mdla-platform/internal/service"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
	sendBuffer     = 32
)

// Client is one authenticated websocket connection.
type Client struct {
	hub    *Hub
	chat   service.ChatService
	conn   *websocket.Conn
	userID uint

	send      chan []byte
	closeOnce sync.Once
	done      chan struct{}

	// rooms this client joined; owned by the hub under its lock.
	rooms map[string]struct{}

	logger zerolog.Logger
}

func newClient(hub *Hub, chat service.ChatService, conn *websocket.Conn, userID uint, logger zerolog.Logger) *Client {
	return &Client{
		hub:    hub,
		chat:   chat,
		conn:   conn,
		userID: userID,
		send:   make(chan []byte, sendBuffer),
		done:   make(chan struct{}),
		rooms:  make(map[string]struct{}),
		logger: logger.With().Str("component", "ws_client").Uint("user_id", userID).Logger(),
	}
}

func (c *Client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}

// readPump handles inbound events sequentially, which preserves the
// persist-then-broadcast order for this connection's sends.
func (c *Client) readPump() {
	defer func() {
		c.hub.Remove(c)
		c.close()
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Debug().Err(err).Msg("websocket closed unexpectedly")
			}
			return
		}

		var envelope Envelope
		if err := json.Unmarshal(raw, &envelope); err != nil {
			c.sendError("malformed event")
			continue
		}

		switch envelope.Event {
		case EventJoinRoom:
			c.handleJoinRoom(envelope.Data)
		case EventSendMessage:
			c.handleSendMessage(envelope.Data)
		default:
			c.sendError("unknown event")
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}

func (c *Client) handleJoinRoom(data json.RawMessage) {
	var req struct {
		Room string `json:"room"`
	}
	if err := json.Unmarshal(data, &req); err != nil || req.Room == "" {
		c.sendError("join_room needs a room name")
		return
	}
	c.hub.Join(req.Room, c)
	c.logger.Debug().Str("room", req.Room).Msg("joined room")
}

// handleSendMessage persists through the messaging engine, then fans the
// enriched message out: room delivery when a room is named, otherwise the
// receiver's and the sender's private groups. Failures go back to this
// connection only; nothing partial is broadcast.
func (c *Client) handleSendMessage(data json.RawMessage) {
	var req dto.SendMessageRequest
	if err := json.Unmarshal(data, &req); err != nil {
		c.sendError("malformed message")
		return
	}

	message, err := c.chat.Send(context.Background(), c.userID, &req)
	if err != nil {
		c.sendError(userFacingError(err))
		return
	}

	switch {
	case message.RoomID != nil:
		c.hub.Broadcast(*message.RoomID, EventReceiveMessage, message)
	case message.ReceiverID != nil:
		c.hub.Broadcast(UserRoom(*message.ReceiverID), EventReceiveMessage, message)
		c.hub.Broadcast(UserRoom(c.userID), EventReceiveMessage, message)
	}
}

func (c *Client) sendError(message string) {
	data, err := json.Marshal(map[string]string{"message": message})
	if err != nil {
		return
	}
	frame, err := json.Marshal(Envelope{Event: EventError, Data: data})
	if err != nil {
		return
	}
	select {
	case c.send <- frame:
	default:
	}
}

func userFacingError(err error) string {
	var domainErr *model.DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Message
	}
	return "failed to send message"
}
