// Package push provides the push dispatch gateway: Expo push message types,
// an HTTP client for the Expo send and receipt endpoints, and the push
// destination validator used at device registration.
//
// The gateway is an opaque external service. Send returns one ticket per
// message in request order; receipts for ticket ids become available some
// minutes later and report final delivery status.
package push

import (
	"context"
	"errors"

	gobreaker "github.com/sony/gobreaker/v2"
)

// Ticket and receipt status values.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Message priorities and sounds.
const (
	PriorityHigh = "high"
	SoundDefault = "default"
)

// DeviceNotRegistered is the error code Expo reports for tokens that can no
// longer receive pushes.
const DeviceNotRegistered = "DeviceNotRegistered"

// Message is a single push message accepted by the gateway.
type Message struct {
	To       string         `json:"to"`
	Title    string         `json:"title,omitempty"`
	Body     string         `json:"body,omitempty"`
	Sound    string         `json:"sound,omitempty"`
	Data     map[string]any `json:"data,omitempty"`
	Priority string         `json:"priority,omitempty"`
}

// Ticket is the gateway's immediate per-message response.
type Ticket struct {
	Status  string         `json:"status"`
	ID      string         `json:"id,omitempty"`
	Message string         `json:"message,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// OK reports whether the gateway accepted the message.
func (t Ticket) OK() bool { return t.Status == StatusOK }

// ErrorCode returns details.error, e.g. DeviceNotRegistered.
func (t Ticket) ErrorCode() string { return errorCode(t.Details) }

// Receipt is the final delivery status for a ticket id.
type Receipt struct {
	Status  string         `json:"status"`
	Message string         `json:"message,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// OK reports whether the message was handed to the platform provider.
func (r Receipt) OK() bool { return r.Status == StatusOK }

// ErrorCode returns details.error, e.g. DeviceNotRegistered.
func (r Receipt) ErrorCode() string { return errorCode(r.Details) }

// Gateway sends a batch of messages and returns one ticket per message.
type Gateway interface {
	Send(ctx context.Context, msgs []Message) ([]Ticket, error)
}

// ReceiptFetcher resolves ticket ids into delivery receipts. Ids the gateway
// does not know yet are absent from the returned map.
type ReceiptFetcher interface {
	Receipts(ctx context.Context, ids []string) (map[string]Receipt, error)
}

// IsUnavailable reports whether err came from an open circuit breaker
// rather than a real gateway round trip.
func IsUnavailable(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

func errorCode(details map[string]any) string {
	if details == nil {
		return ""
	}
	code, _ := details["error"].(string)
	return code
}
