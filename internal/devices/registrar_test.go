package devices

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/albapepper/scoracle-alerts/internal/validation"
)

// memStore is an in-memory Store keyed by normalized code.
type memStore struct {
	mu      sync.Mutex
	devices map[string]Device
}

func newMemStore() *memStore {
	return &memStore{devices: map[string]Device{}}
}

func (m *memStore) Upsert(_ context.Context, code, token string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := uuid.NewString()
	m.devices[NormalizeCode(code)] = Device{
		Code: NormalizeCode(code), PushToken: token, RegistrationID: id, UpdatedAt: time.Now(),
	}
	return id, nil
}

func (m *memStore) ListAll(context.Context) ([]Device, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Device, 0, len(m.devices))
	for _, d := range m.devices {
		out = append(out, d)
	}
	return out, nil
}

type staticRegistry map[string]int

func (s staticRegistry) LeagueCount(_ context.Context, code string) (int, error) {
	n, ok := s[code]
	if !ok {
		return 0, ErrUnknownCode
	}
	return n, nil
}

func newTestRegistrar(store *memStore) *Registrar {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewRegistrar(store, staticRegistry{"ABC123": 3}, logger)
}

func TestRegisterOverwritesExistingCode(t *testing.T) {
	store := newMemStore()
	reg := newTestRegistrar(store)
	ctx := context.Background()

	first, err := reg.Register(ctx, RegisterRequest{Code: "abc123 ", PushDestination: "ExponentPushToken[xyz]"})
	if err != nil {
		t.Fatalf("first Register: %v", err)
	}
	second, err := reg.Register(ctx, RegisterRequest{Code: "ABC123", PushDestination: "ExponentPushToken[other]"})
	if err != nil {
		t.Fatalf("second Register: %v", err)
	}

	if first == "" || second == "" || first == second {
		t.Errorf("registration ids should be fresh: %q, %q", first, second)
	}

	devices, _ := reg.List(ctx)
	if len(devices) != 1 {
		t.Fatalf("devices = %d, want 1", len(devices))
	}
	if devices[0].Code != "ABC123" || devices[0].PushToken != "ExponentPushToken[other]" {
		t.Errorf("device = %+v", devices[0])
	}
	if devices[0].RegistrationID != second {
		t.Errorf("registration id = %q, want %q", devices[0].RegistrationID, second)
	}
}

func TestRegisterRejectsUnknownCode(t *testing.T) {
	store := newMemStore()
	reg := newTestRegistrar(store)

	_, err := reg.Register(context.Background(), RegisterRequest{Code: "NOPE999", PushDestination: "ExponentPushToken[xyz]"})
	if !errors.Is(err, ErrUnknownCode) {
		t.Fatalf("err = %v, want ErrUnknownCode", err)
	}
	if len(store.devices) != 0 {
		t.Error("no device should be written")
	}
}

func TestRegisterRejectsInvalidDestination(t *testing.T) {
	store := newMemStore()
	reg := newTestRegistrar(store)

	_, err := reg.Register(context.Background(), RegisterRequest{Code: "ABC123", PushDestination: "garbage"})
	var verr *validation.RequestValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want validation error", err)
	}
	if len(store.devices) != 0 {
		t.Error("no device should be written")
	}
}

func TestRegisterAcceptsSimulatorToken(t *testing.T) {
	reg := newTestRegistrar(newMemStore())
	if _, err := reg.Register(context.Background(), RegisterRequest{Code: "ABC123", PushDestination: "SIMULATOR_pixel7"}); err != nil {
		t.Fatalf("Register: %v", err)
	}
}

func TestNormalizeCode(t *testing.T) {
	if got := NormalizeCode("  abC12 "); got != "ABC12" {
		t.Errorf("NormalizeCode = %q", got)
	}
}
