package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"news-trade-lab/internal/domain"
	"news-trade-lab/internal/observability"
)

// DefaultStreamURL is the exchange's combined-stream endpoint.
const DefaultStreamURL = "wss://stream.binance.com:443/stream"

// StreamConfig configures websocket stream behavior.
type StreamConfig struct {
	// ReconnectDelay is initial delay before a reconnect attempt.
	ReconnectDelay time.Duration
	// MaxReconnectDelay caps the exponential backoff.
	MaxReconnectDelay time.Duration
	// ReadTimeout is the deadline for reading a message. The exchange
	// pings every few minutes, so a healthy connection never idles this
	// long.
	ReadTimeout time.Duration
	// HandshakeTimeout bounds the dial.
	HandshakeTimeout time.Duration
	// Buffer is the trade channel capacity absorbing bursts.
	Buffer int
}

// DefaultStreamConfig returns default stream configuration.
func DefaultStreamConfig() StreamConfig {
	return StreamConfig{
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		ReadTimeout:       5 * time.Minute,
		HandshakeTimeout:  10 * time.Second,
		Buffer:            10000,
	}
}

// StreamTrade is one live print together with the symbol it belongs to;
// one stream multiplexes many symbols.
type StreamTrade struct {
	Symbol string
	Trade  domain.AggTrade
}

// Stream consumes the combined aggTrade websocket feed and republishes
// decoded trades on a channel. It reconnects with exponential backoff and
// keeps the same subscription set across reconnects (the subscription is
// encoded in the URL).
type Stream struct {
	url    string
	config StreamConfig

	conn   *websocket.Conn
	connMu sync.Mutex
	closed atomic.Bool

	trades chan StreamTrade
	done   chan struct{}
	wg     sync.WaitGroup

	reconnecting atomic.Bool
}

// StreamURL builds the combined-stream URL subscribing every symbol's
// aggTrade channel.
func StreamURL(base string, symbols []string) string {
	streams := make([]string, 0, len(symbols))
	for _, s := range symbols {
		streams = append(streams, strings.ToLower(s)+"@aggTrade")
	}
	return base + "?streams=" + strings.Join(streams, "/")
}

// NewStream connects and starts reading. symbols must be non-empty.
func NewStream(ctx context.Context, base string, symbols []string, config *StreamConfig) (*Stream, error) {
	if len(symbols) == 0 {
		return nil, fmt.Errorf("no symbols to subscribe")
	}

	cfg := DefaultStreamConfig()
	if config != nil {
		cfg = *config
	}

	s := &Stream{
		url:    StreamURL(base, symbols),
		config: cfg,
		trades: make(chan StreamTrade, cfg.Buffer),
		done:   make(chan struct{}),
	}

	if err := s.connect(ctx); err != nil {
		return nil, err
	}

	s.wg.Add(1)
	go s.readLoop()

	return s, nil
}

// Trades returns the decoded trade channel. It is closed by Close.
func (s *Stream) Trades() <-chan StreamTrade {
	return s.trades
}

func (s *Stream) connect(ctx context.Context) error {
	s.connMu.Lock()
	defer s.connMu.Unlock()

	dialer := websocket.Dialer{
		HandshakeTimeout: s.config.HandshakeTimeout,
	}

	conn, _, err := dialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}

	s.conn = conn
	return nil
}

// Close closes the connection and the trade channel.
func (s *Stream) Close() error {
	if s.closed.Swap(true) {
		return nil
	}

	close(s.done)

	s.connMu.Lock()
	if s.conn != nil {
		s.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		s.conn.Close()
	}
	s.connMu.Unlock()

	s.wg.Wait()
	close(s.trades)
	return nil
}

func (s *Stream) readLoop() {
	defer s.wg.Done()

	reconnectDelay := s.config.ReconnectDelay

	for !s.closed.Load() {
		s.connMu.Lock()
		conn := s.conn
		s.connMu.Unlock()

		if conn == nil {
			select {
			case <-s.done:
				return
			case <-time.After(100 * time.Millisecond):
				continue
			}
		}

		conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout))

		_, message, err := conn.ReadMessage()
		if err != nil {
			if s.closed.Load() {
				return
			}

			observability.RecordStreamError("read")
			if !s.reconnecting.Swap(true) {
				go s.reconnect(reconnectDelay)
			}

			reconnectDelay = reconnectDelay * 2
			if reconnectDelay > s.config.MaxReconnectDelay {
				reconnectDelay = s.config.MaxReconnectDelay
			}

			select {
			case <-s.done:
				return
			case <-time.After(100 * time.Millisecond):
				continue
			}
		}

		reconnectDelay = s.config.ReconnectDelay

		s.handleMessage(message)
	}
}

func (s *Stream) reconnect(delay time.Duration) {
	defer s.reconnecting.Store(false)

	if s.closed.Load() {
		return
	}

	select {
	case <-s.done:
		return
	case <-time.After(delay):
	}

	s.connMu.Lock()
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
	s.connMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.connect(ctx); err != nil {
		// Retried on the next read error.
		return
	}
	observability.DefaultMetrics.StreamReconnects.Inc()
}

// combinedMessage is the envelope of the combined-stream feed. Price and
// quantity arrive as strings.
type combinedMessage struct {
	Stream string `json:"stream"`
	Data   struct {
		EventType    string `json:"e"`
		Symbol       string `json:"s"`
		Price        string `json:"p"`
		Quantity     string `json:"q"`
		FirstTradeID int64  `json:"f"`
		LastTradeID  int64  `json:"l"`
		TradeTime    int64  `json:"T"`
		IsBuyerMaker bool   `json:"m"`
	} `json:"data"`
}

func (s *Stream) handleMessage(message []byte) {
	var msg combinedMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		observability.RecordStreamError("decode")
		return
	}
	if msg.Data.EventType != "aggTrade" {
		return
	}

	price, err := strconv.ParseFloat(msg.Data.Price, 64)
	if err != nil {
		observability.RecordStreamError("decode")
		return
	}
	quantity, err := strconv.ParseFloat(msg.Data.Quantity, 64)
	if err != nil {
		observability.RecordStreamError("decode")
		return
	}

	trade := StreamTrade{
		Symbol: msg.Data.Symbol,
		Trade: domain.AggTrade{
			TransactTime: msg.Data.TradeTime,
			Price:        price,
			Quantity:     quantity,
			FirstTradeID: msg.Data.FirstTradeID,
			LastTradeID:  msg.Data.LastTradeID,
			IsBuyerMaker: msg.Data.IsBuyerMaker,
		},
	}

	select {
	case s.trades <- trade:
		observability.RecordTradeProcessed()
		observability.DefaultMetrics.LastTradeTime.Set(float64(msg.Data.TradeTime))
	case <-s.done:
	}
}
