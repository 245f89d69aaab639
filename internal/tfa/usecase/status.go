package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/samber/lo"
	"github.com/shandysiswandi/gotfa/internal/pkg/goerror"
	"github.com/shandysiswandi/gotfa/internal/tfa/entity"
)

type DeviceInfo struct {
	PersistentID string
	Kind         entity.DeviceKind
	Name         string
	// Remaining is set for backup-code devices only.
	Remaining *int
	CreatedAt time.Time
}

type StatusOutput struct {
	State    entity.SessionState
	Required bool
	Enabled  bool
	Devices  []DeviceInfo
	// BoundDevice is the persistent id of the device that satisfied the
	// second factor, or "".
	BoundDevice string
}

func (s *Usecase) Status(ctx context.Context) (*StatusOutput, error) {
	ctx, span := s.startSpan(ctx, "Status")
	defer span.End()

	st, err := s.currentSession(ctx)
	if err != nil {
		return nil, err
	}
	if st.State == entity.SessionStateAnonymous {
		return nil, goerror.NewBusiness("Authentication required", goerror.CodeUnauthorized)
	}

	devices, err := s.registry.UserDevices(ctx, st.UserID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list user devices", "user_id", st.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &StatusOutput{
		State:       st.State,
		Required:    !s.registry.optional || len(devices) > 0,
		Enabled:     len(devices) > 0,
		Devices:     lo.Map(devices, func(d entity.Device, _ int) DeviceInfo { return deviceInfo(d) }),
		BoundDevice: entity.PersistentID(st.Device),
	}, nil
}

func deviceInfo(d entity.Device) DeviceInfo {
	info := DeviceInfo{
		PersistentID: entity.PersistentID(d),
		Kind:         d.Kind(),
		Name:         d.Label(),
	}

	switch v := d.(type) {
	case *entity.TOTPDevice:
		info.CreatedAt = v.CreatedAt
	case *entity.BackupCodeDevice:
		info.CreatedAt = v.CreatedAt
		info.Remaining = lo.ToPtr(v.Remaining)
	}

	return info
}
