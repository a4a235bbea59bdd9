package okx

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"sigtrader/internal/application/port"
	"sigtrader/internal/domain/model"
)

// Client is the composed OKX exchange adapter implementing port.Exchange for
// a single instrument.
type Client struct {
	account *AccountClient
	market  *MarketClient
	orders  *OrderClient
}

var _ port.Exchange = (*Client)(nil)

// NewClient wires the account, market and order clients over one shared
// signed API client. feed may be nil.
func NewClient(baseURL string, creds *Credentials, instID, marginMode string, feed *TickerFeed) *Client {
	api := NewAPIClient(baseURL, creds)
	return &Client{
		account: NewAccountClient(api, instID, marginMode),
		market:  NewMarketClient(api, instID, feed),
		orders:  NewOrderClient(api, instID, marginMode),
	}
}

func (c *Client) GetPosition(ctx context.Context) (*model.Position, error) {
	return c.account.GetPosition(ctx)
}

func (c *Client) GetBalance(ctx context.Context) (*model.Balance, error) {
	return c.account.GetBalance(ctx)
}

func (c *Client) GetPrice(ctx context.Context) float64 {
	return c.market.GetPrice(ctx)
}

func (c *Client) GetCandles(ctx context.Context, timeframe string, limit int) []model.Candle {
	return c.market.GetCandles(ctx, timeframe, limit)
}

func (c *Client) PlaceOrder(ctx context.Context, req model.OrderRequest) (string, error) {
	return c.orders.PlaceOrder(ctx, req)
}

func (c *Client) CancelOrder(ctx context.Context, orderID string) error {
	return c.orders.CancelOrder(ctx, orderID)
}

func (c *Client) SetLeverage(ctx context.Context, leverage int) error {
	return c.account.SetLeverage(ctx, leverage)
}

// ClosePosition flattens the current position with a market order in the
// opposite direction. Returns "" with no error when already flat.
func (c *Client) ClosePosition(ctx context.Context) (string, error) {
	pos, err := c.account.GetPosition(ctx)
	if err != nil {
		return "", err
	}
	if !pos.Open() {
		log.Info().Msg("no position to close")
		return "", nil
	}

	side := model.OrderSell
	if pos.Side == model.SideShort {
		side = model.OrderBuy
	}

	log.Info().
		Str("side", string(side)).
		Float64("size", pos.Size).
		Msg("closing position")

	return c.orders.PlaceOrder(ctx, model.OrderRequest{
		Side:          side,
		Size:          pos.Size,
		Type:          model.OrderMarket,
		ClientOrderID: NewClientOrderID(),
	})
}

// NewClientOrderID returns a fresh 32-char alphanumeric client order ID.
func NewClientOrderID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
