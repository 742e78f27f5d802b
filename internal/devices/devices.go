// Package devices owns the device directory: one push destination per
// access code. Registration validates the push destination, checks the code
// against the access-code registry and upserts the device row.
package devices

import (
	"errors"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned by Find when no device is registered for a code.
	ErrNotFound = errors.New("device not found")
	// ErrUnknownCode is returned when the code registry has no such access code.
	ErrUnknownCode = errors.New("access code not found")
)

// Device is the registered push destination for an access code.
type Device struct {
	Code           string    `json:"code"`
	PushToken      string    `json:"pushDestination"`
	RegistrationID string    `json:"registrationId"`
	UpdatedAt      time.Time `json:"updatedAt"`
	LeagueCount    *int      `json:"leagueCount"` // nil when the code left the registry
}

// NormalizeCode upper-cases and trims an access code. Every lookup and write
// keys on the normalized form.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
