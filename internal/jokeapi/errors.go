package jokeapi

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	// KindStatus: the server answered with a non-2xx status.
	KindStatus Kind = iota + 1
	// KindNetwork: the request went out but no response came back.
	KindNetwork
	// KindRequest: the request could not be built or sent.
	KindRequest
	// KindDecode: the response body was not a joke list.
	KindDecode
)

func (k Kind) String() string {
	switch k {
	case KindStatus:
		return "status"
	case KindNetwork:
		return "network"
	case KindRequest:
		return "request"
	case KindDecode:
		return "decode"
	default:
		return "unknown"
	}
}

var (
	ErrStatus  = errors.New("jokeapi: unexpected status")
	ErrNetwork = errors.New("jokeapi: no response")
	ErrRequest = errors.New("jokeapi: request failed")
)

const NetworkErrorMessage = "Network Error: Please check your internet connection."

// Error is the single error type FetchAll returns. Message is meant to be
// shown to the user as is.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	switch target {
	case ErrStatus:
		return e.Kind == KindStatus
	case ErrNetwork:
		return e.Kind == KindNetwork
	case ErrRequest:
		return e.Kind == KindRequest || e.Kind == KindDecode
	}
	return false
}

func StatusMessage(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "Bad Request: Please check your input."
	case http.StatusUnauthorized:
		return "Unauthorized: Please log in."
	case http.StatusForbidden:
		return "Forbidden: You do not have permission."
	case http.StatusNotFound:
		return "Not Found: The requested resource was not found."
	case http.StatusInternalServerError:
		return "Internal Server Error: Please try again later."
	default:
		return fmt.Sprintf("Unexpected Error: %d", status)
	}
}

func statusError(status int) *Error {
	return &Error{
		Kind:    KindStatus,
		Status:  status,
		Message: StatusMessage(status),
	}
}

func networkError(err error) *Error {
	return &Error{
		Kind:    KindNetwork,
		Message: NetworkErrorMessage,
		Err:     err,
	}
}

func requestError(err error) *Error {
	return &Error{
		Kind:    KindRequest,
		Message: "Error: " + err.Error(),
		Err:     err,
	}
}

func decodeError(err error) *Error {
	return &Error{
		Kind:    KindDecode,
		Message: "Error: " + err.Error(),
		Err:     err,
	}
}
