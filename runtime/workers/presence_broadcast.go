package workers

import (
	"context"
	"log/slog"

	"mentorlink/contract"
	"mentorlink/domain/event"
)

// PresenceBroadcastWorker fans each presence snapshot out to every
// connected session, so clients can render online indicators. Delivery is
// best-effort like any other push: a full session buffer drops the frame.
type PresenceBroadcastWorker struct {
	registry contract.IRegistry
	changes  <-chan event.PresenceChanged
	log      *slog.Logger
}

func NewPresenceBroadcastWorker(registry contract.IRegistry,
	changes <-chan event.PresenceChanged, log *slog.Logger) *PresenceBroadcastWorker {
	return &PresenceBroadcastWorker{registry: registry, changes: changes, log: log}
}

func (w *PresenceBroadcastWorker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case snapshot, ok := <-w.changes:
			if !ok {
				return nil
			}
			for _, userID := range snapshot.OnlineUserIDs {
				sink, exists := w.registry.Sink(userID)
				if !exists {
					// Disconnected between snapshot and fanout; skip.
					continue
				}
				if err := sink.Consume(ctx, snapshot); err != nil {
					w.log.Warn("presence push failed", "user_id", userID, "error", err)
				}
			}
		}
	}
}
