package okx

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

const (
	requestTimeout = 30 * time.Second
	retryAttempts  = 3
	retryDelay     = 2 * time.Second
)

// Credentials holds the OKX API credentials and signing method.
type Credentials struct {
	apiKey     string
	apiSecret  string
	passphrase string
}

// NewCredentials creates a credentials object.
func NewCredentials(apiKey, apiSecret, passphrase string) *Credentials {
	return &Credentials{
		apiKey:     apiKey,
		apiSecret:  apiSecret,
		passphrase: passphrase,
	}
}

// Sign computes hex(HMAC-SHA256(secret, timestamp + method + requestPath + body)).
func (c *Credentials) Sign(data string) string {
	h := hmac.New(sha256.New, []byte(c.apiSecret))
	h.Write([]byte(data))
	return hex.EncodeToString(h.Sum(nil))
}

// APIKey returns the API key.
func (c *Credentials) APIKey() string { return c.apiKey }

// Passphrase returns the API passphrase.
func (c *Credentials) Passphrase() string { return c.passphrase }

// APIClient bundles the shared dependencies for signed OKX REST access.
type APIClient struct {
	credentials *Credentials
	httpClient  *http.Client
	baseURL     string
	limiter     *rate.Limiter

	// retry knobs, overridable in tests
	retryWait time.Duration
	retryMax  uint64
}

// NewAPIClient creates a signed REST client for the given base URL.
func NewAPIClient(baseURL string, creds *Credentials) *APIClient {
	return &APIClient{
		credentials: creds,
		httpClient:  &http.Client{Timeout: requestTimeout},
		baseURL:     baseURL,
		limiter:     rate.NewLimiter(rate.Every(time.Second), 5),
		retryWait:   retryDelay,
		retryMax:    retryAttempts - 1,
	}
}
