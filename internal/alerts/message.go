package alerts

import (
	"fmt"
	"strings"

	"github.com/albapepper/scoracle-alerts/internal/push"
)

// FallbackColor is used when neither the caller nor the status table
// supplies a color.
const FallbackColor = "#6B7280"

// StatusColor returns the table color for a status label and whether the
// table knew it. Lookup is case-insensitive.
func StatusColor(status string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "out":
		return "#DC2626", true
	case "injured reserve", "ir":
		return "#7F1D1D", true
	case "doubtful":
		return "#EA580C", true
	case "questionable":
		return "#F59E0B", true
	case "day-to-day", "day to day":
		return "#FBBF24", true
	case "probable":
		return "#84CC16", true
	case "active", "available":
		return "#16A34A", true
	case "suspended":
		return "#6B21A8", true
	case "traded":
		return "#2563EB", true
	case "released", "waived":
		return "#4B5563", true
	}
	return "", false
}

// ResolveColor picks the caller color, then the status table, then
// FallbackColor.
func ResolveColor(callerColor, status string) string {
	if c := strings.TrimSpace(callerColor); c != "" {
		return c
	}
	if c, ok := StatusColor(status); ok {
		return c
	}
	return FallbackColor
}

// LevelEmoji maps an alert level to its title emoji, case-insensitively.
func LevelEmoji(level string) string {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "low":
		return "ℹ️"
	case "medium":
		return "⚠️"
	case "high":
		return "🔥"
	case "monster":
		return "🚨"
	}
	return "📢"
}

func isMonster(level string) bool {
	return strings.EqualFold(strings.TrimSpace(level), "monster")
}

// FormatTitle renders "<emoji> [MONSTER ALERT - ]<title>".
func FormatTitle(level, title string) string {
	if isMonster(level) {
		return LevelEmoji(level) + " MONSTER ALERT - " + title
	}
	return LevelEmoji(level) + " " + title
}

// FormatBody renders "<status>[ [<n> teams]][ - <details>]" with details
// cut to 100 characters.
func FormatBody(status string, teamsAffected int, details string) string {
	var b strings.Builder
	b.WriteString(status)
	if teamsAffected > 0 {
		fmt.Fprintf(&b, " [%d teams]", teamsAffected)
	}
	if details != "" {
		b.WriteString(" - ")
		b.WriteString(truncateRunes(details, maxDetailsInBody))
	}
	return b.String()
}

// BuildMessage builds the push message for one recipient.
func BuildMessage(alertID string, req Request, rcpt Recipient, token string) push.Message {
	return push.Message{
		To:    token,
		Sound: push.SoundDefault,
		Title: FormatTitle(req.AlertLevel, req.Title),
		Body:  FormatBody(req.Status, rcpt.TeamsAffected, req.Details),
		Data: map[string]any{
			"alertId":       alertID,
			"status":        req.Status,
			"alertLevel":    req.AlertLevel,
			"title":         req.Title,
			"details":       req.Details,
			"teamsAffected": rcpt.TeamsAffected,
		},
		Priority: push.PriorityHigh,
	}
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
