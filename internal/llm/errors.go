package llm

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized is returned when the endpoint answers 401.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrTransport covers network failures and unreadable responses.
	ErrTransport = errors.New("transport failure")
)

// StatusError is a non-2xx answer other than 401.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("HTTP %d", e.Code)
	}
	return fmt.Sprintf("HTTP %d - %s", e.Code, e.Body)
}

type Kind int

const (
	KindNone Kind = iota
	KindAuth
	KindStatus
	KindTransport
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindAuth:
		return "auth"
	case KindStatus:
		return "status"
	default:
		return "transport"
	}
}

// Classify maps an error returned by a Client onto the failure taxonomy.
// Anything unrecognised counts as a transport failure.
func Classify(err error) Kind {
	if err == nil {
		return KindNone
	}
	if errors.Is(err, ErrUnauthorized) {
		return KindAuth
	}
	var se *StatusError
	if errors.As(err, &se) {
		return KindStatus
	}
	return KindTransport
}
