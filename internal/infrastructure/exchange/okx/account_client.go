package okx

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"

	"github.com/rs/zerolog/log"

	"sigtrader/internal/domain/model"
)

// AccountClient reads account state (balance, position) and sets leverage.
type AccountClient struct {
	api        *APIClient
	instID     string
	marginMode string
}

// NewAccountClient creates an account client bound to one instrument.
func NewAccountClient(api *APIClient, instID, marginMode string) *AccountClient {
	return &AccountClient{api: api, instID: instID, marginMode: marginMode}
}

type balanceRow struct {
	TotalEq  string `json:"totalEq"`
	Imr      string `json:"imr"`
	OrdFroz  string `json:"ordFroz"`
	Details  []struct {
		Ccy string `json:"ccy"`
	} `json:"details"`
}

// GetBalance fetches the account equity snapshot. Returns nil when the
// exchange reports no balance data.
func (c *AccountClient) GetBalance(ctx context.Context) (*model.Balance, error) {
	data, err := c.api.executeWithRetry(ctx, http.MethodGet, "/api/v5/account/balance", nil, nil)
	if err != nil {
		return nil, fmt.Errorf("get balance: %w", err)
	}

	var row balanceRow
	ok, err := firstElement(data, &row)
	if err != nil {
		return nil, err
	}
	if !ok {
		log.Warn().Msg("balance response empty")
		return nil, nil
	}

	totalEq, _ := strconv.ParseFloat(row.TotalEq, 64)
	imr, _ := strconv.ParseFloat(row.Imr, 64)
	ordFroz, _ := strconv.ParseFloat(row.OrdFroz, 64)

	avail := totalEq - imr - ordFroz
	if avail < 0 {
		avail = 0
	}

	ccy := "USDT"
	if len(row.Details) > 0 && row.Details[0].Ccy != "" {
		ccy = row.Details[0].Ccy
	}

	return &model.Balance{
		TotalEquity:     totalEq,
		AvailableMargin: avail,
		Currency:        ccy,
	}, nil
}

type positionRow struct {
	Pos     string `json:"pos"`
	AvgPx   string `json:"avgPx"`
	Upl     string `json:"upl"`
	PosSide string `json:"posSide"`
}

// GetPosition fetches the current net position for the instrument. Returns
// nil when the account is flat.
func (c *AccountClient) GetPosition(ctx context.Context) (*model.Position, error) {
	query := url.Values{"instId": {c.instID}}
	data, err := c.api.executeWithRetry(ctx, http.MethodGet, "/api/v5/account/positions", query, nil)
	if err != nil {
		return nil, fmt.Errorf("get position: %w", err)
	}

	var row positionRow
	ok, err := firstElement(data, &row)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	// Net mode: pos is signed, positive long / negative short.
	pos, _ := strconv.ParseFloat(row.Pos, 64)
	if pos == 0 {
		return nil, nil
	}
	entry, _ := strconv.ParseFloat(row.AvgPx, 64)
	upl, _ := strconv.ParseFloat(row.Upl, 64)

	side := model.SideLong
	if pos < 0 {
		side = model.SideShort
	}

	return &model.Position{
		Side:          side,
		Size:          math.Abs(pos),
		EntryPrice:    entry,
		UnrealizedPnL: upl,
	}, nil
}

// SetLeverage sets the leverage for the instrument. Idempotent, so it goes
// through the retry wrapper.
func (c *AccountClient) SetLeverage(ctx context.Context, leverage int) error {
	payload := map[string]string{
		"instId":  c.instID,
		"lever":   strconv.Itoa(leverage),
		"mgnMode": c.marginMode,
	}
	_, err := c.api.executeWithRetry(ctx, http.MethodPost, "/api/v5/account/set-leverage", nil, payload)
	if err != nil {
		return fmt.Errorf("set leverage: %w", err)
	}
	log.Info().Int("leverage", leverage).Str("inst", c.instID).Msg("leverage set")
	return nil
}
