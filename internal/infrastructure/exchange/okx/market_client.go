package okx

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"sigtrader/internal/domain/model"
)

// tickerFreshness is how old a websocket tick may be before GetPrice falls
// back to the REST ticker.
const tickerFreshness = 5 * time.Second

// MarketClient reads public market data for one instrument.
type MarketClient struct {
	api    *APIClient
	instID string
	feed   *TickerFeed // optional live price cache
}

// NewMarketClient creates a market data client bound to one instrument.
// feed may be nil; when set, GetPrice prefers a fresh websocket tick.
func NewMarketClient(api *APIClient, instID string, feed *TickerFeed) *MarketClient {
	return &MarketClient{api: api, instID: instID, feed: feed}
}

type tickerRow struct {
	Last string `json:"last"`
}

// GetPrice returns the last traded price, or 0 on failure. Failures are
// logged and never surfaced: a missing price must not abort a cycle.
func (c *MarketClient) GetPrice(ctx context.Context) float64 {
	if c.feed != nil {
		if px, ok := c.feed.LastPrice(tickerFreshness); ok {
			return px
		}
	}

	query := url.Values{"instId": {c.instID}}
	data, err := c.api.executeWithRetry(ctx, http.MethodGet, "/api/v5/market/ticker", query, nil)
	if err != nil {
		log.Warn().Err(err).Str("inst", c.instID).Msg("get price failed")
		return 0
	}

	var row tickerRow
	ok, err := firstElement(data, &row)
	if err != nil || !ok {
		log.Warn().Err(err).Str("inst", c.instID).Msg("ticker response empty")
		return 0
	}
	px, _ := strconv.ParseFloat(row.Last, 64)
	return px
}

// GetCandles returns up to limit bars for the timeframe, oldest first, or an
// empty slice on failure. Rows missing any of ts/o/h/l/c/vol are dropped
// silently rather than failing the whole fetch.
func (c *MarketClient) GetCandles(ctx context.Context, timeframe string, limit int) []model.Candle {
	query := url.Values{
		"instId": {c.instID},
		"bar":    {barFromTimeframe(timeframe)},
		"limit":  {strconv.Itoa(limit)},
	}
	data, err := c.api.executeWithRetry(ctx, http.MethodGet, "/api/v5/market/candles", query, nil)
	if err != nil {
		log.Warn().Err(err).Str("inst", c.instID).Msg("get candles failed")
		return nil
	}

	var rows [][]string
	if err := json.Unmarshal(data, &rows); err != nil {
		log.Warn().Err(err).Msg("decode candles failed")
		return nil
	}

	candles := make([]model.Candle, 0, len(rows))
	for _, row := range rows {
		candle, ok := parseCandle(row)
		if !ok {
			continue
		}
		candles = append(candles, candle)
	}

	// OKX returns newest first; flip to chronological order.
	for i, j := 0, len(candles)-1; i < j; i, j = i+1, j-1 {
		candles[i], candles[j] = candles[j], candles[i]
	}
	return candles
}

func parseCandle(row []string) (model.Candle, bool) {
	if len(row) < 6 {
		return model.Candle{}, false
	}
	ts, err := strconv.ParseInt(row[0], 10, 64)
	if err != nil {
		return model.Candle{}, false
	}
	vals := make([]float64, 5)
	for i := 0; i < 5; i++ {
		v, err := strconv.ParseFloat(row[i+1], 64)
		if err != nil {
			return model.Candle{}, false
		}
		vals[i] = v
	}
	return model.Candle{
		Timestamp: ts,
		Open:      vals[0],
		High:      vals[1],
		Low:       vals[2],
		Close:     vals[3],
		Volume:    vals[4],
	}, true
}

// barFromTimeframe maps unit-suffixed timeframes (15m, 4h, 1d) onto OKX's
// bar vocabulary: minutes stay lowercase, hours and days are uppercase.
func barFromTimeframe(timeframe string) string {
	switch {
	case strings.HasSuffix(timeframe, "h"):
		return strings.TrimSuffix(timeframe, "h") + "H"
	case strings.HasSuffix(timeframe, "d"):
		return strings.TrimSuffix(timeframe, "d") + "D"
	default:
		return timeframe
	}
}
