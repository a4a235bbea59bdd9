package okx

import "fmt"

// TransportError wraps a network-level failure (connect, timeout, DNS).
// Idempotent calls retry through these; order placement does not.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("okx transport: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ExchangeError is an application-level rejection from the OKX API
// (envelope code != "0"). The gateway never retries these; the caller
// decides.
type ExchangeError struct {
	Code string
	Msg  string
}

func (e *ExchangeError) Error() string {
	return fmt.Sprintf("okx api error %s: %s", e.Code, e.Msg)
}
