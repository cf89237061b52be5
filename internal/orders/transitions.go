package orders

import "github.com/biztrackhq/biztrack-backend/pkg/enums"

// transitionTable is the only source of truth for the order state machine.
// Anything not listed here is rejected, including transitions out of the
// terminal states.
var transitionTable = map[enums.OrderStatus][]enums.OrderStatus{
	enums.OrderStatusPending:    {enums.OrderStatusConfirmed, enums.OrderStatusCancelled},
	enums.OrderStatusConfirmed:  {enums.OrderStatusProcessing, enums.OrderStatusCancelled},
	enums.OrderStatusProcessing: {enums.OrderStatusShipped, enums.OrderStatusCancelled},
	enums.OrderStatusShipped:    {enums.OrderStatusDelivered, enums.OrderStatusCancelled},
	enums.OrderStatusDelivered:  {},
	enums.OrderStatusCancelled:  {},
}

// CanTransition reports whether from may move to to.
func CanTransition(from, to enums.OrderStatus) bool {
	for _, candidate := range transitionTable[from] {
		if candidate == to {
			return true
		}
	}
	return false
}

// AllowedTargets returns the statuses reachable from the given status.
func AllowedTargets(from enums.OrderStatus) []enums.OrderStatus {
	targets := transitionTable[from]
	out := make([]enums.OrderStatus, len(targets))
	copy(out, targets)
	return out
}
