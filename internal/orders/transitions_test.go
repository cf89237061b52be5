package orders

import (
	"testing"

	"github.com/biztrackhq/biztrack-backend/pkg/enums"
)

func TestCanTransitionAllowsForwardPath(t *testing.T) {
	allowed := []struct {
		from enums.OrderStatus
		to   enums.OrderStatus
	}{
		{enums.OrderStatusPending, enums.OrderStatusConfirmed},
		{enums.OrderStatusConfirmed, enums.OrderStatusProcessing},
		{enums.OrderStatusProcessing, enums.OrderStatusShipped},
		{enums.OrderStatusShipped, enums.OrderStatusDelivered},
	}
	for _, tc := range allowed {
		if !CanTransition(tc.from, tc.to) {
			t.Fatalf("%s -> %s should be allowed", tc.from, tc.to)
		}
	}
}

func TestCanTransitionAllowsCancelFromActiveStates(t *testing.T) {
	active := []enums.OrderStatus{
		enums.OrderStatusPending,
		enums.OrderStatusConfirmed,
		enums.OrderStatusProcessing,
		enums.OrderStatusShipped,
	}
	for _, from := range active {
		if !CanTransition(from, enums.OrderStatusCancelled) {
			t.Fatalf("%s -> cancelled should be allowed", from)
		}
	}
}

func TestCanTransitionRejectsSkipsAndBackwardMoves(t *testing.T) {
	denied := []struct {
		from enums.OrderStatus
		to   enums.OrderStatus
	}{
		{enums.OrderStatusPending, enums.OrderStatusProcessing},
		{enums.OrderStatusPending, enums.OrderStatusShipped},
		{enums.OrderStatusPending, enums.OrderStatusDelivered},
		{enums.OrderStatusConfirmed, enums.OrderStatusPending},
		{enums.OrderStatusShipped, enums.OrderStatusProcessing},
		{enums.OrderStatusConfirmed, enums.OrderStatusDelivered},
	}
	for _, tc := range denied {
		if CanTransition(tc.from, tc.to) {
			t.Fatalf("%s -> %s must be rejected", tc.from, tc.to)
		}
	}
}

func TestTerminalStatesHaveNoTargets(t *testing.T) {
	for _, terminal := range []enums.OrderStatus{enums.OrderStatusDelivered, enums.OrderStatusCancelled} {
		if targets := AllowedTargets(terminal); len(targets) != 0 {
			t.Fatalf("%s must allow no transitions, got %v", terminal, targets)
		}
	}
}

func TestUnknownStatusFailsClosed(t *testing.T) {
	if CanTransition(enums.OrderStatus("archived"), enums.OrderStatusConfirmed) {
		t.Fatal("unknown source status must not transition anywhere")
	}
	if CanTransition(enums.OrderStatusPending, enums.OrderStatus("archived")) {
		t.Fatal("unknown target status must be rejected")
	}
}
