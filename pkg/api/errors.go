package api

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformedResponse marks a body that could not be decoded or broke an invariant.
var ErrMalformedResponse = errors.New("malformed response")

const (
	// DefaultTokenizeError is shown when a tokenize failure carries no usable message.
	DefaultTokenizeError = "Failed to tokenize text"
	// DefaultTrainingError is logged when starting a training run fails without a message.
	DefaultTrainingError = "Failed to start training"
)

// legacy error fields, in lookup order
var errorFields = []string{"detail", "error", "message"}

// RequestError is a non-2xx answer from the service.
type RequestError struct {
	Status  int
	Message string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("request failed (%d): %s", e.Status, e.Message)
}

// ErrorMessage pulls the human-readable message out of an error body.
// The first legacy field holding a non-empty string wins, otherwise fallback is returned.
func ErrorMessage(body []byte, fallback string) string {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return fallback
	}
	for _, name := range errorFields {
		raw, ok := fields[name]
		if !ok {
			continue
		}
		var msg string
		if err := json.Unmarshal(raw, &msg); err == nil && msg != "" {
			return msg
		}
	}
	return fallback
}

// UserMessage maps any client error to text fit for display.
// Only service-declared messages are passed through; transport and decode faults get fallback.
func UserMessage(err error, fallback string) string {
	var reqErr *RequestError
	if errors.As(err, &reqErr) && reqErr.Message != "" {
		return reqErr.Message
	}
	return fallback
}
