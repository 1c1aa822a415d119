package net

import (
	"errors"
	"fmt"
)

var (
	// ErrConnectionClosed resolves the requests pending on a closed
	// connection that could not be rerouted.
	ErrConnectionClosed = errors.New("[internal] connection closed")

	// ErrResponseTimeout resolves non-reroutable requests that were not
	// answered in time.
	ErrResponseTimeout = errors.New("[internal] response timeout")

	// ErrProtocolIncompatible is the close reason of peers running another
	// protocol version or alt.
	ErrProtocolIncompatible = errors.New("incompatible protocol")

	// ErrMalformedFrame is returned when a frame cannot be decoded.
	ErrMalformedFrame = errors.New("malformed frame")

	// ErrContractViolation is the close reason of connections that break the
	// registry's bookkeeping, like a socket answering for another URL.
	ErrContractViolation = errors.New("connection contract violation")

	// ErrInactive is the close reason of peers silent for too long.
	ErrInactive = errors.New("peer inactive")

	// ErrTooManyInbound is returned when MaxInbound is reached.
	ErrTooManyInbound = errors.New("too many inbound connections")

	// ErrNetworkShutdown is returned when operations on a network are invoked
	// after it's been closed.
	ErrNetworkShutdown = errors.New("network shutdown")
)

// RemoteError is a logical failure reported by a peer in a response body.
type RemoteError struct {
	Message string
}

// Error implements the error interface.
func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote error: %s", e.Message)
}
