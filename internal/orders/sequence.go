package orders

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	pkgerrors "github.com/biztrackhq/biztrack-backend/pkg/errors"
)

const (
	orderNumberPrefix = "ORD"
	maxDailySequence  = 9999
)

// dayPrefix returns the allocator scan prefix for one business day, e.g.
// "ORD-20260828-".
func dayPrefix(day time.Time) string {
	return fmt.Sprintf("%s-%s-", orderNumberPrefix, day.UTC().Format("20060102"))
}

func formatOrderNumber(day time.Time, seq int) string {
	return fmt.Sprintf("%s%04d", dayPrefix(day), seq)
}

// nextOrderNumber derives the next number in the day's sequence from the
// highest existing one. The caller holds no lock; a concurrent allocation of
// the same number is caught by the unique constraint on
// (business_id, order_number) and surfaced as a retryable conflict.
func nextOrderNumber(last string, day time.Time) (string, error) {
	if last == "" {
		return formatOrderNumber(day, 1), nil
	}

	prefix := dayPrefix(day)
	raw, ok := strings.CutPrefix(last, prefix)
	if !ok {
		return "", pkgerrors.New(pkgerrors.CodeInternal,
			fmt.Sprintf("order number %q does not match allocator prefix %q", last, prefix))
	}
	seq, err := strconv.Atoi(raw)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err,
			fmt.Sprintf("order number %q has a non-numeric sequence", last))
	}
	if seq >= maxDailySequence {
		return "", pkgerrors.New(pkgerrors.CodeConflict, "daily order number sequence exhausted")
	}
	return formatOrderNumber(day, seq+1), nil
}
