package okx

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"sigtrader/internal/domain/model"
)

func newTestAPIClient(baseURL string) *APIClient {
	api := NewAPIClient(baseURL, NewCredentials("test-key", "test-secret", "test-pass"))
	api.retryWait = time.Millisecond
	return api
}

func okEnvelope(data string) string {
	return `{"code":"0","msg":"","data":` + data + `}`
}

func TestExecuteSignsRequests(t *testing.T) {
	var authErr error
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		timestamp := r.Header.Get("OK-ACCESS-TIMESTAMP")

		if r.Header.Get("OK-ACCESS-KEY") != "test-key" {
			authErr = errors.New("wrong api key header")
		}
		if r.Header.Get("OK-ACCESS-PASSPHRASE") != "test-pass" {
			authErr = errors.New("wrong passphrase header")
		}
		if ms, err := strconv.ParseInt(timestamp, 10, 64); err != nil || ms < 1e12 {
			authErr = errors.New("timestamp is not epoch milliseconds")
		}

		mac := hmac.New(sha256.New, []byte("test-secret"))
		mac.Write([]byte(timestamp + r.Method + r.URL.Path + string(body)))
		want := hex.EncodeToString(mac.Sum(nil))
		if r.Header.Get("OK-ACCESS-SIGN") != want {
			authErr = errors.New("signature mismatch")
		}

		io.WriteString(w, okEnvelope(`[{}]`))
	}))
	defer server.Close()

	api := newTestAPIClient(server.URL)
	payload := map[string]string{"instId": "BTC-USDT-SWAP"}
	if _, err := api.execute(context.Background(), http.MethodPost, "/api/v5/trade/order", nil, payload); err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	if authErr != nil {
		t.Error(authErr)
	}
}

func TestExecuteMapsEnvelopeError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, `{"code":"51000","msg":"parameter error","data":[]}`)
	}))
	defer server.Close()

	api := newTestAPIClient(server.URL)
	_, err := api.execute(context.Background(), http.MethodGet, "/api/v5/account/balance", nil, nil)

	var exchErr *ExchangeError
	if !errors.As(err, &exchErr) {
		t.Fatalf("expected *ExchangeError, got %v", err)
	}
	if exchErr.Code != "51000" {
		t.Errorf("code = %q, want 51000", exchErr.Code)
	}
}

func TestRetryOnMalformedResponse(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		io.WriteString(w, "not json")
	}))
	defer server.Close()

	api := newTestAPIClient(server.URL)
	if _, err := api.executeWithRetry(context.Background(), http.MethodGet, "/api/v5/account/balance", nil, nil); err == nil {
		t.Fatal("expected error")
	}
	if calls != retryAttempts {
		t.Errorf("expected %d attempts, got %d", retryAttempts, calls)
	}
}

func TestExchangeErrorIsNotRetried(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		io.WriteString(w, `{"code":"50011","msg":"rate limited","data":[]}`)
	}))
	defer server.Close()

	api := newTestAPIClient(server.URL)
	if _, err := api.executeWithRetry(context.Background(), http.MethodGet, "/api/v5/account/balance", nil, nil); err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("exchange error retried: %d calls", calls)
	}
}

func TestPlaceOrderRejectsNonPositiveSize(t *testing.T) {
	orders := NewOrderClient(newTestAPIClient("http://127.0.0.1:1"), "BTC-USDT-SWAP", "cross")

	_, err := orders.PlaceOrder(context.Background(), model.OrderRequest{Side: model.OrderBuy, Type: model.OrderMarket})
	if !errors.Is(err, ErrInvalidOrderSize) {
		t.Errorf("expected ErrInvalidOrderSize, got %v", err)
	}
}

func TestPlaceOrderIsNeverRetried(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		io.WriteString(w, `{"code":"1","msg":"operation failed","data":[]}`)
	}))
	defer server.Close()

	orders := NewOrderClient(newTestAPIClient(server.URL), "BTC-USDT-SWAP", "cross")
	req := model.OrderRequest{Side: model.OrderBuy, Size: 0.01, Type: model.OrderMarket}
	if _, err := orders.PlaceOrder(context.Background(), req); err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("order placement retried: %d calls", calls)
	}
}

func TestPlaceOrderReturnsAckID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, okEnvelope(`[{"ordId":"12345","sCode":"0","sMsg":""}]`))
	}))
	defer server.Close()

	orders := NewOrderClient(newTestAPIClient(server.URL), "BTC-USDT-SWAP", "cross")
	req := model.OrderRequest{Side: model.OrderSell, Size: 0.5, Type: model.OrderMarket, ClientOrderID: "abc"}

	id, err := orders.PlaceOrder(context.Background(), req)
	if err != nil {
		t.Fatalf("place order failed: %v", err)
	}
	if id != "12345" {
		t.Errorf("order id = %q, want 12345", id)
	}
}

func TestGetPriceReturnsZeroOnFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, `{"code":"50000","msg":"service unavailable","data":[]}`)
	}))
	defer server.Close()

	market := NewMarketClient(newTestAPIClient(server.URL), "BTC-USDT-SWAP", nil)
	if px := market.GetPrice(context.Background()); px != 0 {
		t.Errorf("expected 0 on failure, got %v", px)
	}
}

func TestGetPriceParsesTicker(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, okEnvelope(`[{"last":"50123.4"}]`))
	}))
	defer server.Close()

	market := NewMarketClient(newTestAPIClient(server.URL), "BTC-USDT-SWAP", nil)
	if px := market.GetPrice(context.Background()); px != 50123.4 {
		t.Errorf("price = %v, want 50123.4", px)
	}
}

func TestGetCandlesDropsMalformedRows(t *testing.T) {
	// Newest first on the wire; the malformed middle row must be dropped and
	// the rest flipped to chronological order.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, okEnvelope(`[
			["1700000120000","101","102","100","101.5","12"],
			["1700000060000","bad","102","100","101","11"],
			["1700000000000","100","101","99","100.5","10"]
		]`))
	}))
	defer server.Close()

	market := NewMarketClient(newTestAPIClient(server.URL), "BTC-USDT-SWAP", nil)
	candles := market.GetCandles(context.Background(), "1m", 100)

	if len(candles) != 2 {
		t.Fatalf("expected 2 candles, got %d", len(candles))
	}
	if candles[0].Timestamp != 1700000000000 || candles[1].Timestamp != 1700000120000 {
		t.Errorf("candles not chronological: %v, %v", candles[0].Timestamp, candles[1].Timestamp)
	}
	if candles[0].Close != 100.5 {
		t.Errorf("first close = %v, want 100.5", candles[0].Close)
	}
}

func TestGetPositionFlat(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, okEnvelope(`[{"pos":"0","avgPx":"","upl":"","posSide":"net"}]`))
	}))
	defer server.Close()

	account := NewAccountClient(newTestAPIClient(server.URL), "BTC-USDT-SWAP", "cross")
	pos, err := account.GetPosition(context.Background())
	if err != nil {
		t.Fatalf("get position failed: %v", err)
	}
	if pos != nil {
		t.Errorf("expected nil position when flat, got %+v", pos)
	}
}

func TestGetPositionShortFromSignedSize(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, okEnvelope(`[{"pos":"-0.5","avgPx":"50000","upl":"-120.5","posSide":"net"}]`))
	}))
	defer server.Close()

	account := NewAccountClient(newTestAPIClient(server.URL), "BTC-USDT-SWAP", "cross")
	pos, err := account.GetPosition(context.Background())
	if err != nil {
		t.Fatalf("get position failed: %v", err)
	}
	if pos == nil {
		t.Fatal("expected a position")
	}
	if pos.Side != model.SideShort || pos.Size != 0.5 {
		t.Errorf("position = %+v, want short 0.5", pos)
	}
	if pos.EntryPrice != 50000 || pos.UnrealizedPnL != -120.5 {
		t.Errorf("entry/pnl = %v/%v", pos.EntryPrice, pos.UnrealizedPnL)
	}
}

func TestGetBalanceParsesEquity(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, okEnvelope(`[{"totalEq":"10000","imr":"1500","ordFroz":"500","details":[{"ccy":"USDT"}]}]`))
	}))
	defer server.Close()

	account := NewAccountClient(newTestAPIClient(server.URL), "BTC-USDT-SWAP", "cross")
	balance, err := account.GetBalance(context.Background())
	if err != nil {
		t.Fatalf("get balance failed: %v", err)
	}
	if balance == nil {
		t.Fatal("expected a balance")
	}
	if balance.TotalEquity != 10000 {
		t.Errorf("equity = %v, want 10000", balance.TotalEquity)
	}
	if balance.AvailableMargin != 8000 {
		t.Errorf("available = %v, want 8000", balance.AvailableMargin)
	}
	if balance.Currency != "USDT" {
		t.Errorf("currency = %q, want USDT", balance.Currency)
	}
}

func TestBarFromTimeframe(t *testing.T) {
	tests := []struct{ in, want string }{
		{"15m", "15m"},
		{"1h", "1H"},
		{"4h", "4H"},
		{"1d", "1D"},
	}
	for _, tt := range tests {
		if got := barFromTimeframe(tt.in); got != tt.want {
			t.Errorf("barFromTimeframe(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
