package push

import "strings"

// Accepted push destination prefixes.
const (
	exponentTokenPrefix = "ExponentPushToken["
	expoTokenPrefix     = "ExpoPushToken["
	SimulatorPrefix     = "SIMULATOR_"
)

// ValidToken reports whether s is a push destination the gateway accepts:
// a production token (ExponentPushToken[...] or ExpoPushToken[...]) or a
// simulator token (SIMULATOR_<id>).
func ValidToken(s string) bool {
	switch {
	case strings.HasPrefix(s, exponentTokenPrefix):
		return validBracketBody(s[len(exponentTokenPrefix):])
	case strings.HasPrefix(s, expoTokenPrefix):
		return validBracketBody(s[len(expoTokenPrefix):])
	case strings.HasPrefix(s, SimulatorPrefix):
		return validSimulatorBody(s[len(SimulatorPrefix):])
	default:
		return false
	}
}

// validBracketBody accepts "<body>]" with a non-empty body free of
// whitespace and closing brackets.
func validBracketBody(rest string) bool {
	body, ok := strings.CutSuffix(rest, "]")
	if !ok || body == "" {
		return false
	}
	return !strings.ContainsAny(body, "] \t\r\n")
}

func validSimulatorBody(body string) bool {
	if body == "" {
		return false
	}
	for _, r := range body {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
		default:
			return false
		}
	}
	return true
}
