package ingest

import (
	"fmt"
	"net/http"
)

// Kind classifies why a snapshot update was refused.
type Kind string

// Result kinds reported by the update endpoint.
const (
	KindMethodNotAllowed     Kind = "MethodNotAllowed"
	KindInvalidJSON          Kind = "InvalidJson"
	KindMissingParameters    Kind = "MissingParameters"
	KindInvalidAPIKey        Kind = "InvalidApiKey"
	KindInvalidStrategyName  Kind = "InvalidStrategyName"
	KindInvalidNav           Kind = "InvalidNav"
	KindInvalidNavBtc        Kind = "InvalidNavBtc"
	KindInvalidSystemToken   Kind = "InvalidSystemToken"
	KindInvalidFeeBalance    Kind = "InvalidFeeBalance"
	KindInvalidFeeBalanceUSD Kind = "InvalidFeeBalanceUsd"
	KindInvalidLastTrade     Kind = "InvalidLastTrade"
	KindInvalidDatetime      Kind = "InvalidDatetime"
	KindInternalError        Kind = "InternalError"
	KindRateLimited          Kind = "RateLimited"
)

// Response messages
const (
	MsgSuccess             = "Data updated successfully"
	MsgMethodNotAllowed    = "Method not allowed. Use POST."
	MsgInvalidJSON         = "Invalid JSON format"
	MsgMissingParameters   = "Missing required parameters: "
	MsgInvalidAPIKey       = "Invalid API key"
	MsgStrategyNameLength  = "Strategy name must be between 1 and 100 characters"
	MsgStrategyNameCharset = "Strategy name contains invalid characters"
	MsgInvalidNav          = "NAV must be numeric"
	MsgInvalidNavBtc       = "NAV-BTC must be numeric"
	MsgInvalidSystemToken  = "System token must be max 20 alphanumeric characters"
	MsgInvalidFeeBalance   = "Fee Currency Balance must be numeric"
	MsgInvalidFeeUSD       = "Fee Currency Balance USD must be numeric"
	MsgInvalidLastTrade    = "Last trade must be a Unix timestamp"
	MsgInvalidDatetime     = "Datetime must be in format YYYY-MM-DD HH:MM:SS"
	MsgInternalError       = "Internal server error"
	MsgRateLimited         = "Too many requests"
)

// Error is a refused update. Message is safe to return to the caller.
type Error struct {
	Kind    Kind
	Message string
	Status  int
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// NewError builds an Error with the status code that belongs to kind.
func NewError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message, Status: StatusFor(kind)}
}

// StatusFor maps a kind to its HTTP status code.
func StatusFor(kind Kind) int {
	switch kind {
	case KindMethodNotAllowed:
		return http.StatusMethodNotAllowed
	case KindInvalidAPIKey:
		return http.StatusUnauthorized
	case KindRateLimited:
		return http.StatusTooManyRequests
	case KindInternalError:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}
