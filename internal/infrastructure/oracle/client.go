// Package oracle adapts an external advisory endpoint to the SignalProvider
// port. The endpoint receives the cycle's market context as JSON and answers
// with a signal; how it derives the signal is its own business.
package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"sigtrader/internal/application/port"
	"sigtrader/internal/domain/model"
)

// historyTail is how many recent signals are sent along as context.
const historyTail = 10

// Client posts analysis requests to an HTTP advisory endpoint.
type Client struct {
	url        string
	httpClient *http.Client
}

var _ port.SignalProvider = (*Client)(nil)

// NewClient creates an oracle client for the given endpoint URL.
func NewClient(url string, timeout time.Duration) *Client {
	return &Client{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type analyzeRequest struct {
	Market    model.MarketData    `json:"market"`
	History   []model.Signal      `json:"signal_history"`
	Sentiment model.Sentiment     `json:"sentiment"`
	Position  *model.Position     `json:"position,omitempty"`
	Config    model.TradingConfig `json:"config"`
}

// Analyze requests a signal for the current cycle.
func (c *Client) Analyze(ctx context.Context, market model.MarketData, history []model.Signal,
	sentiment model.Sentiment, position *model.Position, cfg model.TradingConfig) (model.Signal, error) {

	if len(history) > historyTail {
		history = history[len(history)-historyTail:]
	}

	body, err := json.Marshal(analyzeRequest{
		Market:    market,
		History:   history,
		Sentiment: sentiment,
		Position:  position,
		Config:    cfg,
	})
	if err != nil {
		return model.Signal{}, fmt.Errorf("oracle: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return model.Signal{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return model.Signal{}, fmt.Errorf("oracle: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return model.Signal{}, fmt.Errorf("oracle: unexpected status %d", resp.StatusCode)
	}

	var signal model.Signal
	if err := json.NewDecoder(resp.Body).Decode(&signal); err != nil {
		return model.Signal{}, fmt.Errorf("oracle: decode signal: %w", err)
	}
	if !signal.Valid() {
		return model.Signal{}, fmt.Errorf("oracle: invalid signal %q/%q", signal.Action, signal.Confidence)
	}
	if signal.Timestamp.IsZero() {
		signal.Timestamp = time.Now()
	}
	return signal, nil
}
