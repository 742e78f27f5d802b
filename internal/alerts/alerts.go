// Package alerts implements the alert fan-out and notification history
// pipeline.
//
// A broadcast writes one user_alerts row per resolved recipient and one
// notification_history row per alert id. The two tables are deliberately
// denormalized: user_alerts serves "alerts for user X", notification_history
// serves "every broadcast ever sent". Nothing in the database keeps them in
// sync, so every write to an existing alert goes through Ledger, which always
// applies the same change to both stores.
//
// Pipeline: validate → resolve color → fold recipients (lookup, persist,
// build message) → dispatch in gateway-sized chunks → persist history.
package alerts

import (
	"errors"
	"time"
)

// --------------------------------------------------------------------------
// Constants
// --------------------------------------------------------------------------

const (
	UserAlertLimit      = 50
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 500
	defaultBatchSize    = 100
	maxDetailsInBody    = 100
)

// Per-recipient outcome reasons.
const (
	ReasonEnqueued    = "enqueued"
	ReasonNoDevice    = "no_device"
	ReasonLookupError = "lookup_error"
	ReasonStoreError  = "store_error"
)

// ErrNotFound is returned by Get when no history row exists for an alert id.
var ErrNotFound = errors.New("alert not found")

// --------------------------------------------------------------------------
// Types
// --------------------------------------------------------------------------

// Recipient is one target of a broadcast.
type Recipient struct {
	UserID        string `json:"user_id"`
	TeamsAffected int    `json:"teams_affected"`
}

// Request is a broadcast request. The same shape arrives over HTTP, the CLI
// and the alert_requested LISTEN channel.
type Request struct {
	Title       string      `json:"title" validate:"nonblank"`
	Status      string      `json:"status" validate:"nonblank"`
	StatusColor string      `json:"statusColor"`
	AlertLevel  string      `json:"alertLevel" validate:"nonblank"`
	Details     string      `json:"details"`
	Users       []Recipient `json:"users" validate:"required,min=1"`
}

// Outcome is the fate of a single recipient within one broadcast.
type Outcome struct {
	UserCode  string
	Delivered bool // enqueued for dispatch, not confirmed by the gateway
	Reason    string
}

// Result summarizes a broadcast. Successful + Failed == Total always holds.
type Result struct {
	AlertID    string    `json:"alertId"`
	Successful int       `json:"successful"`
	Failed     int       `json:"failed"`
	Total      int       `json:"total"`
	Outcomes   []Outcome `json:"-"`
}

// Alert is a per-user ledger row.
type Alert struct {
	ID            int64     `json:"id"`
	AlertID       string    `json:"alertId"`
	UserCode      string    `json:"userCode"`
	Title         string    `json:"title"`
	Status        string    `json:"status"`
	StatusColor   string    `json:"statusColor"`
	AlertLevel    string    `json:"alertLevel"`
	Details       string    `json:"details"`
	TeamsAffected int       `json:"teamsAffected"`
	SentAt        time.Time `json:"sentAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
	Deleted       bool      `json:"deleted"`
}

// History is the aggregate row for one broadcast.
type History struct {
	AlertID         string    `json:"alertId"`
	Title           string    `json:"title"`
	Status          string    `json:"status"`
	StatusColor     string    `json:"statusColor"`
	AlertLevel      string    `json:"alertLevel"`
	Details         string    `json:"details"`
	TotalRecipients int       `json:"totalRecipients"`
	SentAt          time.Time `json:"sentAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
	Deleted         bool      `json:"deleted"`
}

// Fields are the mutable attributes of an alert, shared by both stores.
type Fields struct {
	Title       string `json:"title" validate:"nonblank"`
	Status      string `json:"status" validate:"nonblank"`
	StatusColor string `json:"statusColor"`
	AlertLevel  string `json:"alertLevel" validate:"nonblank"`
	Details     string `json:"details"`
}

// Affected reports rows touched in each store by a ledger mutation.
type Affected struct {
	Alerts  int64 `json:"alerts"`
	History int64 `json:"history"`
}

// Detail is one alert id's aggregate row plus every per-user row.
type Detail struct {
	History History `json:"history"`
	Alerts  []Alert `json:"alerts"`
}
