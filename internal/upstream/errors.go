package upstream

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// genericMessage is shown when an upstream error carries no usable message.
const genericMessage = "Something went wrong. Please try again."

// APIError is a non-2xx response from the upstream backend with its message
// already flattened.
type APIError struct {
	StatusCode int
	Message    string
	Raw        json.RawMessage
}

func (e *APIError) Error() string {
	return fmt.Sprintf("upstream: %d: %s", e.StatusCode, e.Message)
}

// NotFound reports whether the error is an HTTP 404. Payment-status polling
// treats these as transient (the status record may not exist yet).
func (e *APIError) NotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

func newAPIError(status int, body []byte) *APIError {
	return &APIError{
		StatusCode: status,
		Message:    ExtractMessage(body),
		Raw:        json.RawMessage(body),
	}
}

// ExtractMessage unwraps the backend's nested error shapes
// ({payload:{message:{message}}} and friends) to a flat string. Non-API
// payloads fall back to a generic message.
func ExtractMessage(body []byte) string {
	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return genericMessage
	}
	if msg := digMessage(doc, 0); msg != "" {
		return msg
	}
	return genericMessage
}

// digMessage walks payload/message/error keys until it hits a string.
func digMessage(v any, depth int) string {
	if depth > 6 {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case map[string]any:
		for _, key := range []string{"message", "payload", "error"} {
			if inner, ok := t[key]; ok {
				if msg := digMessage(inner, depth+1); msg != "" {
					return msg
				}
			}
		}
	}
	return ""
}
