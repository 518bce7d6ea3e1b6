package upstream

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// FetchError is a network or server failure talking to the API.
type FetchError struct {
	Op      string
	Status  int
	Message string // server-provided message, if any
	Err     error
}

func (e *FetchError) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	if e.Status != 0 {
		fmt.Fprintf(&b, ": status %d", e.Status)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *FetchError) Unwrap() error { return e.Err }

// Unauthorized reports whether the server rejected the caller's session.
func (e *FetchError) Unauthorized() bool {
	return e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden
}

// ServerMessage returns the message the server attached to err, if any.
func ServerMessage(err error) (string, bool) {
	var fe *FetchError
	if errors.As(err, &fe) && fe.Message != "" {
		return fe.Message, true
	}
	return "", false
}

// messageFromBody pulls {"message": ...} or {"error": ...} out of an
// error response.
func messageFromBody(body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   any    `json:"error"`
	}
	if json.Unmarshal(body, &payload) != nil {
		return ""
	}
	if payload.Message != "" {
		return payload.Message
	}
	if s, ok := payload.Error.(string); ok {
		return s
	}
	return ""
}
