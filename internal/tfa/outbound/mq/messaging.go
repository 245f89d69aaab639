package mq

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/shandysiswandi/gotfa/internal/pkg/instrument"
	"github.com/shandysiswandi/gotfa/internal/pkg/messaging"
	"github.com/shandysiswandi/gotfa/internal/shared/event"
	"github.com/shandysiswandi/gotfa/internal/tfa/usecase"
	"go.opentelemetry.io/otel/codes"
)

const keyOfCorrelationID string = "cID"

const (
	publishAttempts = 4
	publishBackoff  = 100 * time.Millisecond
	publishCap      = 2 * time.Second
)

type Messaging struct {
	client messaging.Publisher
	ins    instrument.Instrumentation
}

func NewMessaging(client messaging.Publisher, ins instrument.Instrumentation) *Messaging {
	return &Messaging{client: client, ins: ins}
}

func (m *Messaging) PublishTFASuccessful(ctx context.Context, msg usecase.TFASuccessfulEvent) error {
	ctx, span := m.ins.Tracer("tfa.outbound.mq").Start(ctx, "PublishTFASuccessful")
	defer span.End()

	body, err := json.Marshal(event.TFASuccessfulMessage{
		EventID:    msg.EventID,
		UserID:     msg.UserID,
		DeviceID:   msg.DeviceID,
		SessionID:  msg.SessionID,
		OccurredAt: msg.OccurredAt,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	if err := m.publish(ctx, event.TFASuccessfulDestination, body); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}

func (m *Messaging) PublishTFADisabled(ctx context.Context, msg usecase.TFADisabledEvent) error {
	ctx, span := m.ins.Tracer("tfa.outbound.mq").Start(ctx, "PublishTFADisabled")
	defer span.End()

	body, err := json.Marshal(event.TFADisabledMessage{
		EventID:     msg.EventID,
		UserID:      msg.UserID,
		Email:       msg.Email,
		DeviceCount: msg.DeviceCount,
		OccurredAt:  msg.OccurredAt,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	if err := m.publish(ctx, event.TFADisabledDestination, body); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}

// publish retries transient broker failures with capped exponential backoff.
// A closed client or a missing destination is not retried.
func (m *Messaging) publish(ctx context.Context, destination string, body []byte) error {
	out := messaging.OutgoingMessage{
		Body:    body,
		Headers: []messaging.Header{{Key: keyOfCorrelationID, Value: []byte(instrument.GetCorrelationID(ctx))}},
	}

	b := retry.NewExponential(publishBackoff)
	b = retry.WithCappedDuration(publishCap, b)
	b = retry.WithMaxRetries(publishAttempts-1, b)

	return retry.Do(ctx, b, func(ctx context.Context) error {
		_, err := m.client.Publish(ctx, destination, out)
		if err == nil {
			return nil
		}
		if errors.Is(err, messaging.ErrClosed) || errors.Is(err, messaging.ErrDestinationRequired) {
			return err
		}

		slog.WarnContext(ctx, "failed to publish, retrying", "destination", destination, "error", err)
		return retry.RetryableError(err)
	})
}
