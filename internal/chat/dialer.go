package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"
	"time"

	"sniperok/internal/domain"
	"sniperok/internal/logger"

	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

// TokenFunc returns the session token to connect with, "" for a guest.
type TokenFunc func(identity *domain.Identity) string

// WSDialer connects a Session to the server's /ws endpoint.
type WSDialer struct {
	URL    string // ws://host:port/ws
	Token  TokenFunc
	Dialer *websocket.Dialer
}

func (d *WSDialer) Dial(ctx context.Context, identity *domain.Identity, deliver func(domain.Envelope)) (Conn, error) {
	u, err := url.Parse(d.URL)
	if err != nil {
		return nil, fmt.Errorf("parse ws url: %w", err)
	}
	if d.Token != nil {
		if token := d.Token(identity); token != "" {
			q := u.Query()
			q.Set("token", token)
			u.RawQuery = q.Encode()
		}
	}

	dialer := d.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	conn, _, err := dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", d.URL, err)
	}

	wc := &wsConn{conn: conn, done: make(chan struct{})}
	go wc.readLoop(deliver)
	return wc, nil
}

type wsConn struct {
	conn *websocket.Conn
	done chan struct{}

	writeMu   sync.Mutex
	closeOnce sync.Once
}

func (c *wsConn) readLoop(deliver func(domain.Envelope)) {
	defer close(c.done)
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var env domain.Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			logger.Debug("malformed frame from server", "error", err)
			continue
		}
		deliver(env)
	}
}

func (c *wsConn) Send(event domain.MessageType, msg domain.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	frame, err := json.Marshal(domain.Envelope{Event: event, Data: data})
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, frame)
}

func (c *wsConn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.writeMu.Lock()
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		c.writeMu.Unlock()
		err = c.conn.Close()
	})
	return err
}
