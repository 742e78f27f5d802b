package alerts

import (
	"context"
	"errors"
	"testing"
	"time"
)

func seededLedger(t *testing.T) (*Ledger, *memRecords, *memHistory) {
	t.Helper()
	sent := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	records := &memRecords{rows: []Alert{
		{ID: 1, AlertID: "a-1", UserCode: "ABC123", Title: "Player Out", Status: "Out", AlertLevel: "high", SentAt: sent},
		{ID: 2, AlertID: "a-1", UserCode: "DEF456", Title: "Player Out", Status: "Out", AlertLevel: "high", SentAt: sent},
		{ID: 3, AlertID: "a-2", UserCode: "ABC123", Title: "Trade", Status: "Traded", AlertLevel: "low", SentAt: sent.Add(time.Hour)},
	}}
	history := &memHistory{rows: []History{
		{AlertID: "a-1", Title: "Player Out", Status: "Out", AlertLevel: "high", TotalRecipients: 2, SentAt: sent},
		{AlertID: "a-2", Title: "Trade", Status: "Traded", AlertLevel: "low", TotalRecipients: 1, SentAt: sent.Add(time.Hour)},
	}}
	l := NewLedger(records, history)
	l.now = func() time.Time { return sent.Add(24 * time.Hour) }
	return l, records, history
}

func TestLedgerUpdateAppliesToBothStores(t *testing.T) {
	l, records, _ := seededLedger(t)
	ctx := context.Background()

	aff, err := l.Update(ctx, "a-1", Fields{Title: "Player Questionable", Status: "Questionable", AlertLevel: "medium"})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if aff.Alerts != 2 || aff.History != 1 {
		t.Errorf("affected = %+v", aff)
	}

	detail, err := l.Get(ctx, "a-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if detail.History.Title != "Player Questionable" || detail.History.StatusColor != "#F59E0B" {
		t.Errorf("history = %+v", detail.History)
	}
	for _, a := range detail.Alerts {
		if a.Title != "Player Questionable" || a.StatusColor != "#F59E0B" {
			t.Errorf("user alert = %+v", a)
		}
	}
	if records.rows[2].Title != "Trade" {
		t.Error("other alert ids must be untouched")
	}
}

func TestLedgerUpdateRejectsBlankFields(t *testing.T) {
	l, records, _ := seededLedger(t)
	if _, err := l.Update(context.Background(), "a-1", Fields{Title: "", Status: "Out", AlertLevel: "high"}); err == nil {
		t.Fatal("expected validation error")
	}
	if records.rows[0].Title != "Player Out" {
		t.Error("rejected update must not write")
	}
}

func TestLedgerSoftDeleteIsIdempotent(t *testing.T) {
	l, _, _ := seededLedger(t)
	ctx := context.Background()

	aff, err := l.SoftDelete(ctx, "a-1")
	if err != nil {
		t.Fatalf("SoftDelete: %v", err)
	}
	if aff.Alerts != 2 || aff.History != 1 {
		t.Errorf("first delete affected = %+v", aff)
	}

	aff, err = l.SoftDelete(ctx, "a-1")
	if err != nil {
		t.Fatalf("second SoftDelete: %v", err)
	}
	if aff.Alerts != 0 || aff.History != 0 {
		t.Errorf("second delete affected = %+v, want zero", aff)
	}

	list, _ := l.ListForUser(ctx, "abc123")
	if len(list) != 1 || list[0].AlertID != "a-2" {
		t.Errorf("ListForUser after delete = %+v", list)
	}
	hist, _ := l.ListHistory(ctx, 0)
	if len(hist) != 1 || hist[0].AlertID != "a-2" {
		t.Errorf("ListHistory after delete = %+v", hist)
	}
}

func TestLedgerUnknownIDAffectsNothing(t *testing.T) {
	l, _, _ := seededLedger(t)
	aff, err := l.SoftDelete(context.Background(), "missing")
	if err != nil {
		t.Fatalf("SoftDelete: %v", err)
	}
	if aff != (Affected{}) {
		t.Errorf("affected = %+v", aff)
	}
	aff, err = l.Update(context.Background(), "missing", Fields{Title: "T", Status: "Out", AlertLevel: "high"})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if aff != (Affected{}) {
		t.Errorf("update affected = %+v", aff)
	}
	if _, err := l.Get(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get err = %v, want ErrNotFound", err)
	}
}

func TestLedgerAttemptsBothStoresOnFailure(t *testing.T) {
	l, records, history := seededLedger(t)
	records.mutateErr = errors.New("user_alerts unavailable")

	aff, err := l.SoftDelete(context.Background(), "a-1")
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, records.mutateErr) {
		t.Errorf("err = %v, want wrapped records error", err)
	}
	if aff.History != 1 || !history.rows[0].Deleted {
		t.Error("history store must still be attempted")
	}

	history.mutateErr = errors.New("history unavailable")
	_, err = l.Update(context.Background(), "a-2", Fields{Title: "T", Status: "S", AlertLevel: "low"})
	if !errors.Is(err, records.mutateErr) || !errors.Is(err, history.mutateErr) {
		t.Errorf("err = %v, want both failures joined", err)
	}
}

func TestLedgerListHistoryClampsLimit(t *testing.T) {
	l, _, history := seededLedger(t)
	ctx := context.Background()

	tests := []struct{ in, want int }{
		{0, DefaultHistoryLimit},
		{-3, DefaultHistoryLimit},
		{10, 10},
		{10_000, MaxHistoryLimit},
	}
	for _, tt := range tests {
		if _, err := l.ListHistory(ctx, tt.in); err != nil {
			t.Fatalf("ListHistory: %v", err)
		}
		if history.lastLimit != tt.want {
			t.Errorf("limit %d -> %d, want %d", tt.in, history.lastLimit, tt.want)
		}
	}
}
