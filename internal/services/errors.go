package services

import (
	"context"
	"errors"

	"github.com/ashleighcodess/MyNeedfullyBeta-sub001/internal/upstream"
)

var (
	// ErrAuthRequired means the caller has no session. No request was made.
	ErrAuthRequired = errors.New("sign in to add items to a needs list")
	// ErrNoTargetList means the caller has no needs list to add to.
	ErrNoTargetList = errors.New("create a needs list before adding items")
	// ErrAddInFlight is returned while another add is still pending.
	ErrAddInFlight = errors.New("another item is still being added")
	ErrEmptyQuery  = errors.New("search query is empty")
)

const (
	genericSearchFailure = "Search failed. Please try again."
	genericAddFailure    = "Failed to add item to your needs list. Please try again."
)

// UserMessage converts err into the text shown to the user. Server
// messages are passed through verbatim.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrAuthRequired),
		errors.Is(err, ErrNoTargetList),
		errors.Is(err, ErrAddInFlight),
		errors.Is(err, ErrEmptyQuery):
		return err.Error()
	case errors.Is(err, context.DeadlineExceeded):
		return "The request timed out. Please try again."
	}

	if msg, ok := upstream.ServerMessage(err); ok {
		return msg
	}

	var fe *upstream.FetchError
	if errors.As(err, &fe) {
		if fe.Unauthorized() {
			return ErrAuthRequired.Error()
		}
		if fe.Op == "add item" {
			return genericAddFailure
		}
	}
	return genericSearchFailure
}
