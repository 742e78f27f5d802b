package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/albapepper/scoracle-alerts/internal/alerts"
)

func TestParseRecipient(t *testing.T) {
	tests := []struct {
		in      string
		want    alerts.Recipient
		wantErr bool
	}{
		{"ABC123", alerts.Recipient{UserID: "ABC123"}, false},
		{"ABC123:2", alerts.Recipient{UserID: "ABC123", TeamsAffected: 2}, false},
		{"ABC123:x", alerts.Recipient{}, true},
		{"ABC123:-1", alerts.Recipient{}, true},
	}
	for _, tt := range tests {
		got, err := parseRecipient(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseRecipient(%q) err = %v", tt.in, err)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("parseRecipient(%q) = %+v", tt.in, got)
		}
	}
}

func TestReadRequestFileFlagsOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "alert.json")
	body := `{"title":"From File","status":"Out","alertLevel":"high","users":[{"user_id":"ABC123","teams_affected":1}]}`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	req := alerts.Request{AlertLevel: "monster"}
	if err := readRequestFile(path, &req); err != nil {
		t.Fatalf("readRequestFile: %v", err)
	}
	if req.Title != "From File" || req.AlertLevel != "monster" || len(req.Users) != 1 {
		t.Errorf("request = %+v", req)
	}
}

func TestCommandTree(t *testing.T) {
	root := rootCmd()
	for _, path := range [][]string{
		{"broadcast"},
		{"history"},
		{"alerts", "list"},
		{"alerts", "show"},
		{"alerts", "update"},
		{"alerts", "delete"},
		{"devices", "register"},
		{"devices", "list"},
		{"receipts", "reconcile"},
		{"db", "migrate"},
	} {
		cmd, _, err := root.Find(path)
		if err != nil || cmd.Name() != path[len(path)-1] {
			t.Errorf("command %v not found (%v)", path, err)
		}
	}
}
