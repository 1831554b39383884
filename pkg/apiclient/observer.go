package apiclient

import (
	"errors"
	"time"
)

// Outcome classifies a finished call.
type Outcome string

const (
	OutcomeOK           Outcome = "ok"
	OutcomeHTTPError    Outcome = "http_error"
	OutcomeNetworkError Outcome = "network_error"
	OutcomeError        Outcome = "error"
)

// CallInfo describes a finished call for an Observer.
type CallInfo struct {
	Operation string
	Method    string
	Endpoint  string
	// Status is zero when no response was received.
	Status   int
	Duration time.Duration
	Outcome  Outcome
}

// Observer is notified once per call, after the outcome is known.
type Observer func(CallInfo)

func outcomeOf(err error) Outcome {
	var netErr *NetworkError
	var httpErr *HTTPError
	switch {
	case err == nil:
		return OutcomeOK
	case errors.As(err, &netErr):
		return OutcomeNetworkError
	case errors.As(err, &httpErr):
		return OutcomeHTTPError
	default:
		return OutcomeError
	}
}
