package okx

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// TickerFeed subscribes to the public ticker channel for one instrument and
// keeps the most recent traded price. The REST accessor consults it before
// falling back to the ticker endpoint.
type TickerFeed struct {
	wsURL  string
	instID string

	mu      sync.RWMutex
	last    float64
	updated time.Time
}

// NewTickerFeed creates a feed for the given public websocket URL and
// instrument.
func NewTickerFeed(wsURL, instID string) *TickerFeed {
	return &TickerFeed{wsURL: wsURL, instID: instID}
}

type wsSubReq struct {
	Op   string     `json:"op"`
	Args []wsSubArg `json:"args"`
}

type wsSubArg struct {
	Channel string `json:"channel"`
	InstID  string `json:"instId"`
}

type wsTickerMsg struct {
	Data []struct {
		InstID string `json:"instId"`
		Last   string `json:"last"`
	} `json:"data"`
}

// LastPrice returns the cached price when it is younger than maxAge.
func (f *TickerFeed) LastPrice(maxAge time.Duration) (float64, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.last <= 0 || time.Since(f.updated) > maxAge {
		return 0, false
	}
	return f.last, true
}

// Run connects, subscribes and pumps ticks until ctx is cancelled,
// reconnecting with exponential backoff on failure.
func (f *TickerFeed) Run(ctx context.Context) {
	wait := 500 * time.Millisecond
	maxWait := 10 * time.Second

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		cctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		conn, _, err := websocket.DefaultDialer.DialContext(cctx, f.wsURL, nil)
		cancel()
		if err != nil {
			log.Error().Err(err).Str("url", f.wsURL).Msg("ticker ws dial failed")
			select {
			case <-ctx.Done():
				return
			case <-time.After(wait):
			}
			if wait *= 2; wait > maxWait {
				wait = maxWait
			}
			continue
		}

		wait = 500 * time.Millisecond
		log.Info().Str("inst", f.instID).Msg("ticker ws connected")

		sub := wsSubReq{Op: "subscribe", Args: []wsSubArg{{Channel: "tickers", InstID: f.instID}}}
		if b, err := json.Marshal(sub); err == nil {
			_ = conn.WriteMessage(websocket.TextMessage, b)
		}

		f.readLoop(ctx, conn)
		_ = conn.Close()
	}
}

func (f *TickerFeed) readLoop(ctx context.Context, conn *websocket.Conn) {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				log.Warn().Err(err).Msg("ticker ws read failed, reconnecting")
			}
			return
		}

		var msg wsTickerMsg
		if err := json.Unmarshal(raw, &msg); err != nil || len(msg.Data) == 0 {
			continue
		}
		px, err := strconv.ParseFloat(msg.Data[0].Last, 64)
		if err != nil || px <= 0 {
			continue
		}

		f.mu.Lock()
		f.last = px
		f.updated = time.Now()
		f.mu.Unlock()
	}
}
