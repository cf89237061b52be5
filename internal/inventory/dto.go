package inventory

import (
	"time"

	"github.com/google/uuid"

	"github.com/biztrackhq/biztrack-backend/pkg/enums"
)

// AdjustmentInput captures one stock movement. Quantity is always positive;
// the direction comes from the operation being called.
type AdjustmentInput struct {
	InventoryID uuid.UUID
	BusinessID  uuid.UUID
	OrderID     *uuid.UUID
	Type        enums.InventoryTransactionType
	Quantity    int
	Note        *string
	ActorUserID uuid.UUID
}

// TransactionSummary is one ledger row as exposed by the API.
type TransactionSummary struct {
	ID                uuid.UUID                      `json:"id"`
	InventoryID       uuid.UUID                      `json:"inventory_id"`
	OrderID           *uuid.UUID                     `json:"order_id,omitempty"`
	Type              enums.InventoryTransactionType `json:"type"`
	QuantityChange    int                            `json:"quantity_change"`
	ResultingQuantity int                            `json:"resulting_quantity"`
	Note              *string                        `json:"note,omitempty"`
	CreatedAt         time.Time                      `json:"created_at"`
}

// TransactionList wraps the paginated ledger plus the next page cursor.
type TransactionList struct {
	Transactions []TransactionSummary `json:"transactions"`
	NextCursor   string               `json:"next_cursor,omitempty"`
}
