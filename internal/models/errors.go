package models

import "errors"

var (
	// ErrTransport covers non-2xx responses, network failures and timeouts.
	ErrTransport = errors.New("transport failure")
	// ErrMalformedPayload means the body arrived but could not be parsed.
	ErrMalformedPayload = errors.New("could not parse response")
)
