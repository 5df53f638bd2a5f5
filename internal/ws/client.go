package ws

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"boostd/internal/game"
	"boostd/internal/logger"
	"boostd/internal/service"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 30 * time.Second
	pingPeriod = 25 * time.Second

	sendBuffer = 256
)

type Client struct {
	User    service.User
	BoostID string
	Conn    *websocket.Conn
	Send    chan []byte
	Hub     *Hub
	Done    chan struct{}

	log *zap.SugaredLogger

	mu      sync.Mutex
	session Session
	closed  bool
}

func NewClient(user service.User, boostID string, conn *websocket.Conn, hub *Hub) *Client {
	return &Client{
		User:    user,
		BoostID: boostID,
		Conn:    conn,
		Send:    make(chan []byte, sendBuffer),
		Hub:     hub,
		Done:    make(chan struct{}),
		log:     logger.With("user_id", user.ID, "boost_id", boostID),
	}
}

// Run opens the session, sends the ready handshake and serves the connection
// until it drops.
func (c *Client) Run(ctx context.Context) {
	go c.writePump()

	sess, err := c.Hub.Attach(ctx, c)
	if err != nil {
		c.log.Warnw("open boost session failed", "error", err)
		c.sendMessage(MsgError, ErrorPayload{Message: openErrorMessage(err)})
		c.closeSend()
		close(c.Done)
		return
	}
	c.setSession(sess)
	c.sendMessage(MsgReady, ReadyPayload{
		SessionID: sess.ID(),
		Params:    sess.Params(),
		Snapshot:  sess.Snapshot(),
	})

	c.readPump()
}

func openErrorMessage(err error) string {
	switch {
	case errors.Is(err, service.ErrBoostNotFound):
		return "boost not found"
	case errors.Is(err, service.ErrBoostHasNoGame):
		return "boost has no game"
	default:
		return err.Error()
	}
}

func (c *Client) setSession(s Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = s
}

func (c *Client) currentSession() Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

//read
func (c *Client) readPump() {
	defer func() {
		c.Hub.Detach(c)
		c.closeSend()
		close(c.Done)
	}()

	c.Conn.SetReadLimit(4096)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, msg, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Debugw("ws read error", "error", err)
			}
			return
		}
		c.handleMessage(msg)
	}
}

// handleMessage dispatches one client message to the session. Inputs the
// session rejects are dropped silently.
func (c *Client) handleMessage(raw []byte) {
	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.sendMessage(MsgError, ErrorPayload{Message: "malformed message"})
		return
	}
	sess := c.currentSession()
	if sess == nil {
		c.sendMessage(MsgError, ErrorPayload{Message: "no session"})
		return
	}

	switch msg.Type {
	case MsgStart:
		if err := sess.Start(); err != nil {
			c.sendMessage(MsgError, ErrorPayload{Message: err.Error()})
		}
	case MsgTap:
		sess.Tap()
	case MsgTapCell:
		var cell int
		if err := json.Unmarshal(msg.Value, &cell); err != nil {
			c.sendMessage(MsgError, ErrorPayload{Message: "tap_cell expects a cell index"})
			return
		}
		sess.TapCell(cell)
	case MsgFlip:
		var card int
		if err := json.Unmarshal(msg.Value, &card); err != nil {
			c.sendMessage(MsgError, ErrorPayload{Message: "flip expects a card index"})
			return
		}
		sess.Flip(card)
	case MsgAnswer:
		var p AnswerPayload
		if err := json.Unmarshal(msg.Value, &p); err != nil || p.SnippetID == "" {
			c.sendMessage(MsgError, ErrorPayload{Message: "answer expects snippetId and answer"})
			return
		}
		sess.Answer(p.SnippetID, p.Answer)
	case MsgEnd:
		// End submits; keep the read pump free so pongs and disconnects are seen
		go sess.End()
	case MsgPing:
		c.sendMessage(MsgPong, nil)
	default:
		c.sendMessage(MsgError, ErrorPayload{Message: "unknown message type: " + msg.Type})
	}
}

// OnSessionEvent forwards session events to the socket.
func (c *Client) OnSessionEvent(ev game.Event) {
	c.sendMessage(string(ev.Type), ev)
}

func (c *Client) sendMessage(msgType string, payload any) {
	data, err := json.Marshal(Message{Type: msgType, Payload: payload})
	if err != nil {
		c.log.Errorw("ws marshal error", "type", msgType, "error", err)
		return
	}
	c.enqueue(data, msgType)
}

func (c *Client) enqueue(data []byte, msgType string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.Send <- data:
	default:
		c.log.Warnw("ws send buffer full, dropping message", "type", msgType)
	}
}

func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.Send)
	}
}

// kick drops the connection; used when the same user reconnects to the
// same boost.
func (c *Client) kick() {
	if s := c.currentSession(); s != nil {
		s.Close()
	}
	if c.Conn != nil {
		_ = c.Conn.Close()
	}
}

//write
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.Send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.log.Debugw("ws write error", "error", err)
				return
			}
		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
