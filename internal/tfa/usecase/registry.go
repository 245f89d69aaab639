package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/gotfa/internal/pkg/goerror"
	"github.com/shandysiswandi/gotfa/internal/tfa/entity"
)

// Authenticate asks backend whether code is valid. A non-nil device is checked
// alone; otherwise the user's devices are tried in stored order and the first
// one that accepts is returned. Nothing accepting yields (nil, nil). Storage
// errors are returned as is and never retried.
func Authenticate(ctx context.Context, backend Backend, code string, userID int64, device entity.Device) (entity.Device, error) {
	if device != nil {
		if device.Kind() != backend.Kind() {
			return nil, nil
		}

		ok, err := backend.TryVerify(ctx, device, code)
		if err != nil || !ok {
			return nil, err
		}
		return device, nil
	}

	devices, err := backend.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	for _, d := range devices {
		ok, err := backend.TryVerify(ctx, d, code)
		if err != nil {
			return nil, err
		}
		if ok {
			return d, nil
		}
	}

	return nil, nil
}

// Registry holds one backend per device kind.
type Registry struct {
	backends map[entity.DeviceKind]Backend
	order    []entity.DeviceKind
	optional bool
}

// NewRegistry builds a registry. With optional false, every logged in user
// must pass a second factor; otherwise only users with a device must.
func NewRegistry(optional bool, backends ...Backend) *Registry {
	r := &Registry{
		backends: make(map[entity.DeviceKind]Backend, len(backends)),
		optional: optional,
	}
	for _, b := range backends {
		if b == nil {
			continue
		}
		if _, dup := r.backends[b.Kind()]; !dup {
			r.order = append(r.order, b.Kind())
		}
		r.backends[b.Kind()] = b
	}
	return r
}

func (r *Registry) Backend(kind entity.DeviceKind) (Backend, bool) {
	b, ok := r.backends[kind]
	return b, ok
}

// Kinds returns the registered kinds in registration order.
func (r *Registry) Kinds() []entity.DeviceKind {
	return append([]entity.DeviceKind(nil), r.order...)
}

// UserDevices lists the user's devices of every kind, grouped by kind in
// registration order.
func (r *Registry) UserDevices(ctx context.Context, userID int64) ([]entity.Device, error) {
	var out []entity.Device
	for _, kind := range r.order {
		devices, err := r.backends[kind].ListForUser(ctx, userID)
		if err != nil {
			return nil, err
		}
		out = append(out, devices...)
	}
	return out, nil
}

// HasTFAEnabled reports whether the user owns at least one device.
func (r *Registry) HasTFAEnabled(ctx context.Context, userID int64) (bool, error) {
	for _, kind := range r.order {
		devices, err := r.backends[kind].ListForUser(ctx, userID)
		if err != nil {
			return false, err
		}
		if len(devices) > 0 {
			return true, nil
		}
	}
	return false, nil
}

// IsTFARequired reports whether the user must pass a second factor.
func (r *Registry) IsTFARequired(ctx context.Context, userID int64) (bool, error) {
	if !r.optional {
		return true, nil
	}
	return r.HasTFAEnabled(ctx, userID)
}

// Resolve loads the device named by a persistent id. Any failure, including
// a storage error, yields nil; the error is logged and never returned.
func (r *Registry) Resolve(ctx context.Context, persistentID string) entity.Device {
	ref, ok := entity.ParsePersistentID(persistentID)
	if !ok {
		slog.WarnContext(ctx, "unparseable device persistent id", "device", persistentID)
		return nil
	}

	b, ok := r.backends[ref.Kind]
	if !ok {
		slog.WarnContext(ctx, "no backend for device kind", "device", persistentID)
		return nil
	}

	d, err := b.Load(ctx, ref.ID)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.InfoContext(ctx, "device no longer exists", "device", persistentID)
		return nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to load device", "device", persistentID, "error", err)
		return nil
	}

	return d
}
