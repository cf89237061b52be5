package validators

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/biztrackhq/biztrack-backend/pkg/errors"
)

func ParseQueryInt(r *http.Request, key string, defaultVal, min, max int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return defaultVal, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "query parameter must be numeric").WithDetails(map[string]any{"field": key})
	}
	if value < min || value > max {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "query parameter out of range").WithDetails(map[string]any{"field": key, "min": min, "max": max})
	}
	return value, nil
}

// ParseQueryUUID returns nil when the parameter is absent.
func ParseQueryUUID(r *http.Request, key string) (*uuid.UUID, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil, nil
	}
	value, err := uuid.Parse(raw)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "query parameter must be a uuid").WithDetails(map[string]any{"field": key})
	}
	return &value, nil
}

// ParseQueryDate accepts RFC3339 timestamps or plain YYYY-MM-DD dates and
// returns nil when the parameter is absent.
func ParseQueryDate(r *http.Request, key string) (*time.Time, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil, nil
	}
	if value, err := time.Parse(time.RFC3339, raw); err == nil {
		utc := value.UTC()
		return &utc, nil
	}
	if value, err := time.Parse("2006-01-02", raw); err == nil {
		utc := value.UTC()
		return &utc, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeValidation, "query parameter must be an RFC3339 timestamp or YYYY-MM-DD date").WithDetails(map[string]any{"field": key})
}

// ParseURLUUID parses a required path parameter already extracted by the router.
func ParseURLUUID(raw, field string) (uuid.UUID, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, field+" is required")
	}
	value, err := uuid.Parse(trimmed)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+field)
	}
	return value, nil
}
