package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nurpe/engagements/internal/model"
)

// Event is published once per accepted mutation. Delivery channel and retry
// policy belong to the dispatcher, not the core.
type Event struct {
	WorkOrderID uuid.UUID
	BidID       uuid.UUID
	ThreadID    uuid.UUID
	Activity    model.ActivityRecord
}

type Notifier interface {
	Publish(ctx context.Context, event Event)
}

// LogNotifier writes events to the log. It stands in wherever no real
// dispatcher is wired.
type LogNotifier struct {
	log zerolog.Logger
}

func NewLogNotifier(log zerolog.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Publish(_ context.Context, event Event) {
	n.log.Info().
		Str("activity", string(event.Activity.Type)).
		Str("work_order_id", event.WorkOrderID.String()).
		Str("bid_id", event.BidID.String()).
		Str("thread_id", event.ThreadID.String()).
		Str("performed_by", event.Activity.PerformedBy.String()).
		Msg("activity recorded")
}
