package feed

import (
	"encoding/json"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const DefaultWSURL = "wss://stream.binance.com:9443/ws"

const reconnectDelay = 3 * time.Second

// BinanceFeed streams miniTicker updates over a single websocket and fans
// them out to registered callbacks. Symbols are reported without their USDT
// suffix ("BTCUSDT" comes out as "BTC").
type BinanceFeed struct {
	wsURL  string
	logger *zap.Logger

	mu        sync.Mutex
	conn      *websocket.Conn
	streams   []string
	callbacks []func(symbol string, price float64)
	closed    bool
	nextSubID int
}

func NewBinanceFeed(wsURL string, logger *zap.Logger) *BinanceFeed {
	if wsURL == "" {
		wsURL = DefaultWSURL
	}
	return &BinanceFeed{wsURL: wsURL, logger: logger, nextSubID: 1}
}

func (f *BinanceFeed) OnPriceUpdate(callback func(symbol string, price float64)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.callbacks = append(f.callbacks, callback)
}

// Subscribe registers miniTicker streams for the symbols. If the socket is
// already up the subscription is sent immediately; otherwise it is replayed
// on connect.
func (f *BinanceFeed) Subscribe(symbols []string) error {
	if len(symbols) == 0 {
		return nil
	}

	streams := make([]string, 0, len(symbols))
	for _, s := range symbols {
		sym := strings.ToLower(s)
		if !strings.HasSuffix(sym, "usdt") {
			sym += "usdt"
		}
		streams = append(streams, sym+"@miniTicker")
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.streams = append(f.streams, streams...)
	if f.conn == nil {
		return nil
	}
	return f.sendSubscribe(streams)
}

func (f *BinanceFeed) sendSubscribe(streams []string) error {
	msg := map[string]interface{}{
		"method": "SUBSCRIBE",
		"params": streams,
		"id":     f.nextSubID,
	}
	f.nextSubID++
	return f.conn.WriteJSON(msg)
}

// Connect dials the stream endpoint, replays pending subscriptions and
// starts the read loop. Dropped connections are redialed until Close.
func (f *BinanceFeed) Connect() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.conn != nil {
		return nil
	}
	return f.dial()
}

// dial is called with f.mu held.
func (f *BinanceFeed) dial() error {
	c, _, err := websocket.DefaultDialer.Dial(f.wsURL, nil)
	if err != nil {
		return err
	}
	f.conn = c

	if len(f.streams) > 0 {
		if err := f.sendSubscribe(f.streams); err != nil {
			c.Close()
			f.conn = nil
			return err
		}
	}

	go f.readLoop(c)
	return nil
}

func (f *BinanceFeed) readLoop(c *websocket.Conn) {
	for {
		_, message, err := c.ReadMessage()
		if err != nil {
			c.Close()
			f.mu.Lock()
			if f.conn == c {
				f.conn = nil
			}
			closed := f.closed
			f.mu.Unlock()

			if closed {
				return
			}
			f.logger.Warn("price feed read failed, reconnecting", zap.Error(err))
			f.reconnect()
			return
		}

		symbol, price, ok := parseMiniTicker(message)
		if !ok {
			continue
		}

		f.mu.Lock()
		callbacks := make([]func(string, float64), len(f.callbacks))
		copy(callbacks, f.callbacks)
		f.mu.Unlock()

		for _, cb := range callbacks {
			cb(symbol, price)
		}
	}
}

func (f *BinanceFeed) reconnect() {
	for {
		time.Sleep(reconnectDelay)

		f.mu.Lock()
		if f.closed || f.conn != nil {
			f.mu.Unlock()
			return
		}
		err := f.dial()
		f.mu.Unlock()

		if err == nil {
			f.logger.Info("price feed reconnected")
			return
		}
		f.logger.Warn("price feed reconnect failed", zap.Error(err))
	}
}

func (f *BinanceFeed) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	if f.conn != nil {
		err := f.conn.Close()
		f.conn = nil
		return err
	}
	return nil
}

// parseMiniTicker extracts (symbol, lastPrice) from a miniTicker event.
// Control frames and subscription acks report ok=false.
func parseMiniTicker(message []byte) (string, float64, bool) {
	var event struct {
		EventType string `json:"e"`
		Symbol    string `json:"s"`
		Close     string `json:"c"`
	}
	if err := json.Unmarshal(message, &event); err != nil {
		return "", 0, false
	}
	if event.EventType != "24hrMiniTicker" || event.Symbol == "" {
		return "", 0, false
	}

	price, err := strconv.ParseFloat(event.Close, 64)
	if err != nil || price <= 0 {
		return "", 0, false
	}

	return strings.TrimSuffix(event.Symbol, "USDT"), price, true
}
