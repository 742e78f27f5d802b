package devices

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/albapepper/scoracle-alerts/internal/validation"
)

// Store is the directory surface the registrar writes through.
type Store interface {
	Upsert(ctx context.Context, code, token string) (string, error)
	ListAll(ctx context.Context) ([]Device, error)
}

// CodeRegistry resolves access codes issued by the code registry.
type CodeRegistry interface {
	LeagueCount(ctx context.Context, code string) (int, error)
}

// RegisterRequest is the device registration body.
type RegisterRequest struct {
	Code            string `json:"code" validate:"nonblank"`
	PushDestination string `json:"pushDestination" validate:"required,pushtoken"`
}

// Registrar validates and records device registrations.
type Registrar struct {
	store    Store
	registry CodeRegistry
	logger   *slog.Logger
}

// NewRegistrar creates a registrar.
func NewRegistrar(store Store, registry CodeRegistry, logger *slog.Logger) *Registrar {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registrar{store: store, registry: registry, logger: logger}
}

// Register validates req, confirms the code exists in the registry and
// upserts the device. Returns the new registration id.
func (r *Registrar) Register(ctx context.Context, req RegisterRequest) (string, error) {
	if verr := validation.ValidateStruct(&req); verr != nil {
		return "", verr
	}

	code := NormalizeCode(req.Code)
	if _, err := r.registry.LeagueCount(ctx, code); err != nil {
		return "", err
	}

	regID, err := r.store.Upsert(ctx, code, req.PushDestination)
	if err != nil {
		return "", fmt.Errorf("register device %s: %w", code, err)
	}
	r.logger.Info("Device registered", "code", code, "registration_id", regID)
	return regID, nil
}

// List returns all registered devices.
func (r *Registrar) List(ctx context.Context) ([]Device, error) {
	return r.store.ListAll(ctx)
}
