package orders

import (
	"time"

	"github.com/ardakurt/kapinda-backend/pkg/db/models"
	"github.com/ardakurt/kapinda-backend/pkg/enums"
)

// allowedTransitions is the full lifecycle graph. cancelled is reachable
// only from pending and confirmed; delivered and cancelled are terminal.
var allowedTransitions = map[enums.OrderStatus][]enums.OrderStatus{
	enums.OrderStatusPending:   {enums.OrderStatusConfirmed, enums.OrderStatusCancelled},
	enums.OrderStatusConfirmed: {enums.OrderStatusPreparing, enums.OrderStatusCancelled},
	enums.OrderStatusPreparing: {enums.OrderStatusShipped},
	enums.OrderStatusShipped:   {enums.OrderStatusDelivered},
}

// synthesisPredecessor is the display-only reconstruction chain used when a
// stored order has no event rows.
var synthesisPredecessor = map[enums.OrderStatus]enums.OrderStatus{
	enums.OrderStatusDelivered: enums.OrderStatusShipped,
	enums.OrderStatusShipped:   enums.OrderStatusPreparing,
	enums.OrderStatusPreparing: enums.OrderStatusPending,
	enums.OrderStatusConfirmed: enums.OrderStatusPending,
	enums.OrderStatusCancelled: enums.OrderStatusPending,
}

// CanTransition reports whether from → to is a legal lifecycle step.
func CanTransition(from, to enums.OrderStatus) bool {
	for _, candidate := range allowedTransitions[from] {
		if candidate == to {
			return true
		}
	}
	return false
}

// CanCancel reports whether a buyer may still cancel from the given status.
func CanCancel(from enums.OrderStatus) bool {
	return from == enums.OrderStatusPending || from == enums.OrderStatusConfirmed
}

// SynthesizeHistory rebuilds a plausible monotonic history ending at the
// current status, for orders whose backing rows carry none. Timestamps
// decrease walking backward; the result is ascending. Never persisted.
func SynthesizeHistory(current enums.OrderStatus, endedAt time.Time, step time.Duration) []models.OrderStatusEvent {
	if !current.IsValid() {
		return nil
	}
	if step <= 0 {
		step = 10 * time.Minute
	}

	statuses := []enums.OrderStatus{current}
	for {
		predecessor, ok := synthesisPredecessor[statuses[len(statuses)-1]]
		if !ok {
			break
		}
		statuses = append(statuses, predecessor)
	}

	events := make([]models.OrderStatusEvent, len(statuses))
	for i, status := range statuses {
		// statuses[0] is current; older entries get earlier timestamps.
		events[len(statuses)-1-i] = models.OrderStatusEvent{
			Status:    status,
			CreatedAt: endedAt.Add(-time.Duration(i) * step),
		}
	}
	return events
}
