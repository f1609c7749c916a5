// Package events defines what the server and the weaver publish on the
// event bus. Subscribers receive the context of the publishing request.
package events

import (
	"net/http"
	"time"
)

// RequestStart is published when the handler accepts an HTTP request.
type RequestStart struct {
	Request *http.Request
}

// RequestFinish is published after the response is written. Operations
// counts the GraphQL operations the request carried, more than one for a
// batch.
type RequestFinish struct {
	Request    *http.Request
	Status     int
	Operations int
	Duration   time.Duration
}

// OperationStart is published before one GraphQL operation executes.
// BatchIndex is its position in a batched request, 0 otherwise.
type OperationStart struct {
	Query         string
	OperationName string
	OperationType string
	BatchIndex    int
}

// OperationFinish is published after the operation has a result.
type OperationFinish struct {
	Query         string
	OperationName string
	OperationType string
	BatchIndex    int
	Errors        []error
	Duration      time.Duration
}
