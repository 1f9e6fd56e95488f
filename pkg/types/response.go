// Package types defines the JSON envelopes every API response uses. A
// success wraps its payload in "data"; a failure carries the error code
// from pkg/errors plus a human-readable message.
package types

// SuccessEnvelope wraps a successful response payload.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError is the wire form of a pkg/errors code and message.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorEnvelope wraps a failed response.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
