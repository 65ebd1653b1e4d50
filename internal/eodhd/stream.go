package eodhd

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/ternarybob/arbor"
)

// DefaultStreamURL is the base URL for the EODHD WebSocket API.
const DefaultStreamURL = "wss://ws.eodhistoricaldata.com/ws"

// Trade is a single tick from the live US trade stream.
type Trade struct {
	Symbol    string  `json:"s"`
	Price     float64 `json:"p"`
	Volume    int64   `json:"v"`
	Timestamp int64   `json:"t"` // milliseconds since epoch
}

// Stream is a WebSocket client for live trade data.
type Stream struct {
	baseURL string
	apiKey  string
	logger  arbor.ILogger
	conn    *websocket.Conn
}

// StreamOption configures the Stream.
type StreamOption func(*Stream)

// WithStreamURL sets a custom WebSocket base URL.
func WithStreamURL(baseURL string) StreamOption {
	return func(s *Stream) {
		s.baseURL = baseURL
	}
}

// WithStreamLogger sets a logger.
func WithStreamLogger(logger arbor.ILogger) StreamOption {
	return func(s *Stream) {
		s.logger = logger
	}
}

// NewStream creates a live trade stream client.
func NewStream(apiKey string, opts ...StreamOption) *Stream {
	s := &Stream{
		baseURL: DefaultStreamURL,
		apiKey:  apiKey,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Connect opens the WebSocket connection to the US trade endpoint.
func (s *Stream) Connect(ctx context.Context) error {
	url := fmt.Sprintf("%s/us?api_token=%s", s.baseURL, s.apiKey)

	dialer := websocket.Dialer{HandshakeTimeout: 30 * time.Second}
	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("failed to connect stream: %w", err)
	}
	s.conn = conn
	return nil
}

// Subscribe registers the given symbols for live trade updates.
func (s *Stream) Subscribe(symbols []string) error {
	if s.conn == nil {
		return fmt.Errorf("stream not connected")
	}
	msg := map[string]string{
		"action":  "subscribe",
		"symbols": strings.Join(symbols, ","),
	}
	return s.conn.WriteJSON(msg)
}

// Listen reads trades until ctx is cancelled or the connection drops,
// invoking handler for every tick. Non-trade frames are ignored.
func (s *Stream) Listen(ctx context.Context, handler func(Trade)) error {
	if s.conn == nil {
		return fmt.Errorf("stream not connected")
	}

	go func() {
		<-ctx.Done()
		s.conn.Close()
	}()

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("stream read failed: %w", err)
		}

		var trade Trade
		if err := json.Unmarshal(data, &trade); err != nil || trade.Symbol == "" {
			// status/heartbeat frame
			continue
		}
		handler(trade)
	}
}

// Close terminates the WebSocket connection.
func (s *Stream) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}
