package cmd

import (
	"context"
	"log/slog"

	"github.com/viakashmir/admin-console/internal"
	"github.com/viakashmir/admin-console/internal/core/events"
)

// subscribeAudit logs every successful write with the operator who made it.
func subscribeAudit(bus *events.EventBus, logger *slog.Logger) {
	bus.Subscribe(events.EventTypeEntityMutated, func(ctx context.Context, event events.Event) error {
		mutated, ok := event.(*events.EntityMutatedEvent)
		if !ok {
			return nil
		}
		operator := internal.OperatorFromContext(ctx)
		if operator == "" {
			operator = "cli"
		}
		logger.Info("entity mutated",
			"event_id", mutated.EventID(),
			"entity", mutated.Entity,
			"op", mutated.Op,
			"record_id", mutated.RecordID,
			"operator", operator)
		return nil
	})
}
