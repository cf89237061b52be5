package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type column on outbox_events.
type OutboxAggregateType string

const (
	AggregateOrder     OutboxAggregateType = "order"
	AggregateInventory OutboxAggregateType = "inventory"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateOrder,
	AggregateInventory,
}

// IsValid reports whether the value matches the canonical aggregate_type enum.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// OutboxEventType maps to the event_type column on outbox_events.
type OutboxEventType string

const (
	EventOrderCreated       OutboxEventType = "order_created"
	EventOrderStatusChanged OutboxEventType = "order_status_changed"
	EventOrderDeleted       OutboxEventType = "order_deleted"
	EventLowStock           OutboxEventType = "inventory_low_stock"
)

var validOutboxEventTypes = []OutboxEventType{
	EventOrderCreated,
	EventOrderStatusChanged,
	EventOrderDeleted,
	EventLowStock,
}

// IsValid reports whether the value matches the canonical event_type enum.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid outbox event type %q", value)
}
