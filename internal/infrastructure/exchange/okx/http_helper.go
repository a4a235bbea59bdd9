package okx

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// apiEnvelope is the OKX response envelope. code != "0" is an
// application-level error; data is always an array.
type apiEnvelope struct {
	Code string          `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

// execute sends one signed request and returns the envelope's data payload.
//
// Signature input is timestamp + method + requestPath + body, where the
// timestamp is milliseconds since epoch and the body is the compact JSON
// serialization of payload (empty string when absent).
func (c *APIClient) execute(ctx context.Context, method, path string, query url.Values, payload interface{}) (json.RawMessage, error) {
	var body string
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("okx: marshal payload: %w", err)
		}
		body = string(b)
	}

	endpoint := strings.TrimRight(c.baseURL, "/") + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, bytes.NewReader([]byte(body)))
	if err != nil {
		return nil, err
	}

	timestamp := strconv.FormatInt(time.Now().UnixMilli(), 10)
	signature := c.credentials.Sign(timestamp + method + path + body)

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("OK-ACCESS-KEY", c.credentials.APIKey())
	req.Header.Set("OK-ACCESS-SIGN", signature)
	req.Header.Set("OK-ACCESS-TIMESTAMP", timestamp)
	req.Header.Set("OK-ACCESS-PASSPHRASE", c.credentials.Passphrase())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Op: method + " " + path, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Op: method + " " + path, Err: err}
	}

	var env apiEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("okx: decode response (http %d): %w", resp.StatusCode, err)
	}
	if env.Code != "0" {
		return nil, &ExchangeError{Code: env.Code, Msg: env.Msg}
	}
	return env.Data, nil
}

// executeWithRetry wraps execute for read-only and idempotent mutating calls:
// up to 3 attempts with a fixed 2s wait, no jitter, last error surfaced.
// ExchangeErrors are terminal immediately; the exchange already answered.
func (c *APIClient) executeWithRetry(ctx context.Context, method, path string, query url.Values, payload interface{}) (json.RawMessage, error) {
	op := func() (json.RawMessage, error) {
		data, err := c.execute(ctx, method, path, query, payload)
		if err != nil {
			var exchErr *ExchangeError
			if errors.As(err, &exchErr) {
				return nil, backoff.Permanent(err)
			}
			return nil, err
		}
		return data, nil
	}

	b := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(c.retryWait), c.retryMax),
		ctx,
	)
	return backoff.RetryWithData(op, b)
}

// firstElement unmarshals the first element of an envelope data array into
// dst. Returns false when the array is empty.
func firstElement(data json.RawMessage, dst interface{}) (bool, error) {
	var rows []json.RawMessage
	if err := json.Unmarshal(data, &rows); err != nil {
		return false, fmt.Errorf("okx: decode data array: %w", err)
	}
	if len(rows) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(rows[0], dst); err != nil {
		return false, fmt.Errorf("okx: decode data element: %w", err)
	}
	return true, nil
}
