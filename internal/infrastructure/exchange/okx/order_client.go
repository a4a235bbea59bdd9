package okx

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	"sigtrader/internal/domain/model"
)

// ErrInvalidOrderSize rejects order requests with a non-positive size before
// they reach the wire.
var ErrInvalidOrderSize = errors.New("okx: order size must be positive")

// OrderClient places and cancels orders for one instrument.
type OrderClient struct {
	api        *APIClient
	instID     string
	marginMode string
}

// NewOrderClient creates an order client bound to one instrument.
func NewOrderClient(api *APIClient, instID, marginMode string) *OrderClient {
	return &OrderClient{api: api, instID: instID, marginMode: marginMode}
}

type orderAck struct {
	OrdID string `json:"ordId"`
	SCode string `json:"sCode"`
	SMsg  string `json:"sMsg"`
}

// PlaceOrder submits one order and returns the exchange order ID. Placement
// is deliberately not retried: a timed-out submit may still have filled, and
// re-sending would double the exposure. The client order ID makes an
// ambiguous submit diagnosable.
func (c *OrderClient) PlaceOrder(ctx context.Context, req model.OrderRequest) (string, error) {
	if req.Size <= 0 {
		return "", ErrInvalidOrderSize
	}

	payload := map[string]string{
		"instId":  c.instID,
		"tdMode":  c.marginMode,
		"side":    string(req.Side),
		"ordType": string(req.Type),
		"sz":      strconv.FormatFloat(req.Size, 'f', -1, 64),
		"posSide": "net",
	}
	if req.Type == model.OrderLimit && req.Price > 0 {
		payload["px"] = strconv.FormatFloat(req.Price, 'f', -1, 64)
	}
	if req.ClientOrderID != "" {
		payload["clOrdId"] = req.ClientOrderID
	}

	data, err := c.api.execute(ctx, http.MethodPost, "/api/v5/trade/order", nil, payload)
	if err != nil {
		return "", fmt.Errorf("place order: %w", err)
	}

	var ack orderAck
	ok, err := firstElement(data, &ack)
	if err != nil {
		return "", err
	}
	if !ok || ack.OrdID == "" {
		if ack.SMsg != "" {
			return "", &ExchangeError{Code: ack.SCode, Msg: ack.SMsg}
		}
		return "", errors.New("place order: no order id returned")
	}

	log.Info().
		Str("side", string(req.Side)).
		Float64("size", req.Size).
		Str("type", string(req.Type)).
		Str("order_id", ack.OrdID).
		Msg("order placed")
	return ack.OrdID, nil
}

// CancelOrder cancels an open order. Cancellation is idempotent and goes
// through the retry wrapper.
func (c *OrderClient) CancelOrder(ctx context.Context, orderID string) error {
	payload := map[string]string{
		"instId": c.instID,
		"ordId":  orderID,
	}
	_, err := c.api.executeWithRetry(ctx, http.MethodPost, "/api/v5/trade/cancel-order", nil, payload)
	if err != nil {
		return fmt.Errorf("cancel order %s: %w", orderID, err)
	}
	log.Info().Str("order_id", orderID).Msg("order cancelled")
	return nil
}
