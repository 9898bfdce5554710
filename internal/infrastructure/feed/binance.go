package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/Lewsiafat/TradeGuard/internal/domain"
)

// DefaultStreamURL is the Binance combined trade stream endpoint.
const DefaultStreamURL = "wss://stream.binance.com:9443/ws"

// Binance rejects connections that send more than 5 control messages per
// second, so outbound SUBSCRIBE requests go through a limiter.
const controlMessagesPerSecond = 4

// Listener receives price ticks for a subscribed symbol.
type Listener func(domain.PriceUpdate)

// Subscription identifies one registered listener so it can be removed
// individually later.
type Subscription struct {
	symbol string
	id     int64
}

// Symbol returns the normalized (upper-cased) symbol the subscription is
// registered under.
func (s *Subscription) Symbol() string { return s.symbol }

// Multiplexer owns a single upstream market-data connection and fans parsed
// ticks out to any number of per-symbol listeners.
//
// Known limitations, kept deliberately: removing listeners never sends an
// upstream UNSUBSCRIBE, there is no automatic reconnect, and a reconnect
// after Disconnect does not replay earlier subscriptions even though the
// listener registry survives the transport.
type Multiplexer struct {
	url     string
	log     *zap.Logger
	limiter *rate.Limiter

	mu        sync.Mutex
	conn      *websocket.Conn
	listeners map[string]map[int64]Listener // upper-cased symbol -> listener set
	pending   map[string]struct{}           // stream names queued before connect
	nextSub   int64
	nextReq   int64
}

// NewMultiplexer creates a disconnected multiplexer for the given stream URL.
func NewMultiplexer(url string, log *zap.Logger) *Multiplexer {
	if url == "" {
		url = DefaultStreamURL
	}
	return &Multiplexer{
		url:       url,
		log:       log,
		limiter:   rate.NewLimiter(rate.Limit(controlMessagesPerSecond), 1),
		listeners: make(map[string]map[int64]Listener),
		pending:   make(map[string]struct{}),
	}
}

// Connect dials the upstream stream if no connection exists. Calling it again
// while connected is a no-op. Once the connection is up, every stream queued
// before the dial is flushed as a single batched SUBSCRIBE request.
func (m *Multiplexer) Connect(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.conn != nil {
		return nil
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, m.url, nil)
	if err != nil {
		return fmt.Errorf("dial market stream: %w", err)
	}
	m.conn = conn
	m.log.Info("connected to market stream", zap.String("url", m.url))

	go m.readLoop(conn)

	if len(m.pending) > 0 {
		streams := make([]string, 0, len(m.pending))
		for s := range m.pending {
			streams = append(streams, s)
		}
		m.pending = make(map[string]struct{})
		m.sendSubscribe(ctx, streams)
	}
	return nil
}

// Disconnect tears down the transport. Listener registrations are kept.
func (m *Multiplexer) Disconnect() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.conn == nil {
		return
	}
	m.conn.Close()
	m.conn = nil
}

// Connected reports whether the upstream connection is currently up.
func (m *Multiplexer) Connected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.conn != nil
}

// Subscribe registers fn under the upper-cased form of symbol. The first
// listener for a symbol triggers an upstream subscription request, sent
// immediately when connected or queued until Connect otherwise. The queue is
// deduplicated by stream name, so racing subscriptions during the handshake
// window cost a single request.
func (m *Multiplexer) Subscribe(symbol string, fn Listener) *Subscription {
	upper := strings.ToUpper(symbol)

	m.mu.Lock()
	defer m.mu.Unlock()

	first := len(m.listeners[upper]) == 0
	if m.listeners[upper] == nil {
		m.listeners[upper] = make(map[int64]Listener)
	}
	m.nextSub++
	m.listeners[upper][m.nextSub] = fn

	if first {
		stream := strings.ToLower(symbol) + "@trade"
		if m.conn == nil {
			m.pending[stream] = struct{}{}
		} else {
			m.sendSubscribe(context.Background(), []string{stream})
		}
	}
	return &Subscription{symbol: upper, id: m.nextSub}
}

// Unsubscribe removes a single listener. Unknown or already removed
// subscriptions are ignored.
func (m *Multiplexer) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	set := m.listeners[sub.symbol]
	if set == nil {
		return
	}
	delete(set, sub.id)
	if len(set) == 0 {
		delete(m.listeners, sub.symbol)
	}
}

// UnsubscribeAll removes every listener registered for symbol.
func (m *Multiplexer) UnsubscribeAll(symbol string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.listeners, strings.ToUpper(symbol))
}

type subscribeRequest struct {
	Method string   `json:"method"`
	Params []string `json:"params"`
	ID     int64    `json:"id"`
}

// sendSubscribe writes a batched SUBSCRIBE control message. Callers must hold
// m.mu with an open connection.
func (m *Multiplexer) sendSubscribe(ctx context.Context, streams []string) {
	if m.conn == nil || len(streams) == 0 {
		return
	}
	if err := m.limiter.Wait(ctx); err != nil {
		m.log.Warn("subscribe request aborted", zap.Error(err))
		return
	}
	m.nextReq++
	req := subscribeRequest{Method: "SUBSCRIBE", Params: streams, ID: m.nextReq}
	if err := m.conn.WriteJSON(req); err != nil {
		m.log.Error("subscribe request failed",
			zap.Strings("streams", streams), zap.Error(err))
	}
}

// tradeEvent is the Binance trade stream payload. Price arrives as a numeric
// string.
type tradeEvent struct {
	EventType string `json:"e"`
	Symbol    string `json:"s"`
	Price     string `json:"p"`
}

// parseTick decides whether a raw stream message is a usable price tick.
func parseTick(raw []byte) (domain.PriceUpdate, bool) {
	var ev tradeEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		return domain.PriceUpdate{}, false
	}
	if ev.EventType != "trade" || ev.Symbol == "" || ev.Price == "" {
		return domain.PriceUpdate{}, false
	}
	price, err := strconv.ParseFloat(ev.Price, 64)
	if err != nil {
		return domain.PriceUpdate{}, false
	}
	return domain.PriceUpdate{Symbol: ev.Symbol, Price: price}, true
}

// readLoop drains the connection until it fails or is closed. Malformed
// messages are discarded, never surfaced to listeners.
func (m *Multiplexer) readLoop(conn *websocket.Conn) {
	defer func() {
		conn.Close()
		m.mu.Lock()
		if m.conn == conn {
			m.conn = nil
		}
		m.mu.Unlock()
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			m.log.Warn("market stream closed", zap.Error(err))
			return
		}

		update, ok := parseTick(raw)
		if !ok {
			m.log.Debug("discarding unrecognized stream message",
				zap.ByteString("payload", raw))
			continue
		}

		m.mu.Lock()
		targets := make([]Listener, 0, len(m.listeners[update.Symbol]))
		for _, fn := range m.listeners[update.Symbol] {
			targets = append(targets, fn)
		}
		m.mu.Unlock()

		for _, fn := range targets {
			fn(update)
		}
	}
}
