package inbound

import (
	"context"
	"log/slog"
	"slices"

	"github.com/shandysiswandi/gotfa/internal/pkg/config"
	"github.com/shandysiswandi/gotfa/internal/pkg/goroutine"
	"github.com/shandysiswandi/gotfa/internal/pkg/instrument"
	"github.com/shandysiswandi/gotfa/internal/pkg/messaging"
	"github.com/shandysiswandi/gotfa/internal/pkg/uid"
	"github.com/shandysiswandi/gotfa/internal/shared/event"
)

// RegisterMQConsumer starts one job per consumer listed in
// modules.tfa.consumer_names.
func RegisterMQConsumer(
	ctx context.Context,
	cfg config.Config,
	routine *goroutine.Manager,
	messenger messaging.Consumer,
	uuid uid.StringID,
	uc uc,
	ins instrument.Instrumentation,
) {
	mqHandler := &MQHandler{uc: uc, uuid: uuid, ins: ins}

	enableConsumerNames := cfg.GetArray("modules.tfa.consumer_names")

	var consumers = []struct {
		name    string // also the consumer group
		topic   string // destination where publisher sent message
		handler messaging.Handler
	}{
		{
			name:    event.TFASuccessfulDestinationConsumerLastLogin,
			topic:   event.TFASuccessfulDestination,
			handler: mqHandler.TFASuccessfulLastLogin,
		},
		{
			name:    event.TFADisabledDestinationConsumerNotification,
			topic:   event.TFADisabledDestination,
			handler: mqHandler.TFADisabledNotification,
		},
	}

	for _, consumer := range consumers {
		if !slices.Contains(enableConsumerNames, consumer.name) {
			continue
		}
		routine.Go(ctx, func(pCtx context.Context) error {
			slog.InfoContext(ctx, "Running job for handling consumer", "consumer", consumer.name)
			return messenger.Consume(pCtx,
				consumer.topic,
				consumer.handler,
				messaging.WithGroup(consumer.name),
				messaging.WithConcurrency(10),
			)
		})
	}
}
