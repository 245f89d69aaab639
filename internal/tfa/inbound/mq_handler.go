package inbound

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/shandysiswandi/gotfa/internal/pkg/instrument"
	"github.com/shandysiswandi/gotfa/internal/pkg/messaging"
	"github.com/shandysiswandi/gotfa/internal/pkg/uid"
	"github.com/shandysiswandi/gotfa/internal/shared/event"
	"github.com/shandysiswandi/gotfa/internal/tfa/usecase"
)

const keyOfCorrelationID string = "cID"

type MQHandler struct {
	uc   uc
	uuid uid.StringID
	ins  instrument.Instrumentation
}

func (h *MQHandler) ensureCorrelationID(ctx context.Context, msg messaging.Message) context.Context {
	if cid := messaging.HeaderValue(msg, keyOfCorrelationID); cid != "" {
		return instrument.SetCorrelationID(ctx, cid)
	}
	return instrument.SetCorrelationID(ctx, h.uuid.Generate())
}

// TFASuccessfulLastLogin records the login time carried by a successful
// second-factor event.
func (h *MQHandler) TFASuccessfulLastLogin(ctx context.Context, msg messaging.Message) error {
	ctx = h.ensureCorrelationID(ctx, msg)

	ctx, span := h.ins.Tracer("tfa.inbound.mq").Start(ctx, "TFASuccessfulLastLogin")
	defer span.End()

	body := msg.Body()
	slog.InfoContext(ctx, "consume: tfa successful last login", "msg_body", string(body))

	var payload event.TFASuccessfulMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		slog.ErrorContext(ctx, "failed to parse message body of tfa successful", "msg_body", string(body), "error", err)
		return nil
	}

	if err := h.uc.ConsumeTFASuccessful(ctx, usecase.ConsumeTFASuccessfulInput{
		EventID:    payload.EventID,
		UserID:     payload.UserID,
		OccurredAt: payload.OccurredAt,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to consume tfa successful", "msg_body", string(body), "error", err)
		return err
	}

	return nil
}

func (h *MQHandler) TFADisabledNotification(ctx context.Context, msg messaging.Message) error {
	ctx = h.ensureCorrelationID(ctx, msg)

	ctx, span := h.ins.Tracer("tfa.inbound.mq").Start(ctx, "TFADisabledNotification")
	defer span.End()

	body := msg.Body()
	slog.InfoContext(ctx, "consume: tfa disabled notification", "msg_body", string(body))

	var payload event.TFADisabledMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		slog.ErrorContext(ctx, "failed to parse message body of tfa disabled", "msg_body", string(body), "error", err)
		return nil
	}

	if err := h.uc.ConsumeTFADisabled(ctx, usecase.ConsumeTFADisabledInput{
		EventID:     payload.EventID,
		UserID:      payload.UserID,
		Email:       payload.Email,
		DeviceCount: payload.DeviceCount,
		OccurredAt:  payload.OccurredAt,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to consume tfa disabled", "msg_body", string(body), "error", err)
		return err
	}

	return nil
}
