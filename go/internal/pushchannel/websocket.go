package pushchannel

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// ConnectionConfig holds configuration for the WebSocket connection
type ConnectionConfig struct {
	WriteTimeout     time.Duration
	ReadTimeout      time.Duration
	PingInterval     time.Duration
	HandshakeTimeout time.Duration
	MaxMessageSize   int64
	SendBuffer       int
}

// DefaultConnectionConfig returns default WebSocket configuration
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		WriteTimeout:     10 * time.Second,
		ReadTimeout:      60 * time.Second,
		PingInterval:     30 * time.Second,
		HandshakeTimeout: 10 * time.Second,
		MaxMessageSize:   16 * 1024,
		SendBuffer:       64,
	}
}

// WebSocketChannel is a Channel over a single client WebSocket
type WebSocketChannel struct {
	Dispatcher

	conn   *websocket.Conn
	config ConnectionConfig
	send   chan []byte

	done     chan struct{}
	stopOnce sync.Once
	closed   chan struct{}
}

// DialWebSocket connects to url. header carries the session cookie.
func DialWebSocket(ctx context.Context, url string, header http.Header, config ConnectionConfig) (*WebSocketChannel, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: config.HandshakeTimeout,
	}

	conn, resp, err := dialer.DialContext(ctx, url, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: %w (status %d)", url, err, resp.StatusCode)
		}
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}

	if config.SendBuffer <= 0 {
		config.SendBuffer = 64
	}
	c := &WebSocketChannel{
		conn:   conn,
		config: config,
		send:   make(chan []byte, config.SendBuffer),
		done:   make(chan struct{}),
		closed: make(chan struct{}),
	}

	go c.writePump()
	go c.readPump()

	log.Info().Str("url", url).Msg("push channel connected")
	return c, nil
}

// Emit queues an outbound event
func (c *WebSocketChannel) Emit(event string, payload any) error {
	frame, err := Encode(event, payload)
	if err != nil {
		return err
	}

	select {
	case <-c.done:
		return ErrClosed
	default:
	}

	select {
	case c.send <- frame:
		return nil
	case <-c.done:
		return ErrClosed
	default:
		log.Warn().Str("event", event).Msg("send buffer full, dropping event")
		return ErrSendBufferFull
	}
}

// Close shuts the connection down and waits for the pumps to exit
func (c *WebSocketChannel) Close() error {
	c.stop()
	<-c.closed
	return nil
}

// Done is closed once the connection is gone
func (c *WebSocketChannel) Done() <-chan struct{} {
	return c.closed
}

func (c *WebSocketChannel) stop() {
	c.stopOnce.Do(func() { close(c.done) })
}

// writePump handles sending frames and keepalive pings
func (c *WebSocketChannel) writePump() {
	ticker := time.NewTicker(c.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
		close(c.closed)
	}()

	for {
		select {
		case frame := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				log.Error().Err(err).Msg("failed to write push frame")
				c.stop()
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Error().Err(err).Msg("failed to send ping")
				c.stop()
				return
			}

		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
			msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
			if err := c.conn.WriteMessage(websocket.CloseMessage, msg); err != nil && !errors.Is(err, websocket.ErrCloseSent) {
				log.Debug().Err(err).Msg("failed to send close frame")
			}
			return
		}
	}
}

// readPump dispatches inbound frames in arrival order
func (c *WebSocketChannel) readPump() {
	defer c.stop()

	c.conn.SetReadLimit(c.config.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))
		return nil
	})

	for {
		_, frame, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Error().Err(err).Msg("unexpected WebSocket close error")
			}
			return
		}
		c.conn.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))

		env, err := Decode(frame)
		if err != nil {
			log.Warn().Err(err).Msg("dropping malformed push frame")
			continue
		}
		c.Dispatch(env)
	}
}
