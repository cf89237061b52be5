package responses

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	pkgerrors "github.com/biztrackhq/biztrack-backend/pkg/errors"
	"github.com/biztrackhq/biztrack-backend/pkg/types"
)

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) types.ErrorEnvelope {
	t.Helper()
	var envelope types.ErrorEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode error envelope: %v", err)
	}
	return envelope
}

func TestWriteSuccessWrapsData(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteSuccess(rec, map[string]string{"order_number": "ORD-20260828-0001"})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("unexpected content type %q", ct)
	}

	var envelope struct {
		Data map[string]string `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.Data["order_number"] != "ORD-20260828-0001" {
		t.Fatalf("unexpected payload %+v", envelope.Data)
	}
}

func TestWriteErrorMapsTypedCode(t *testing.T) {
	rec := httptest.NewRecorder()
	err := pkgerrors.New(pkgerrors.CodeStateConflict, "status transition not allowed").
		WithDetails(map[string]any{"from": "pending", "to": "shipped"})
	WriteError(context.Background(), nil, rec, err)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	envelope := decodeError(t, rec)
	if envelope.Error.Code != string(pkgerrors.CodeStateConflict) {
		t.Fatalf("unexpected code %q", envelope.Error.Code)
	}
	if envelope.Error.Message != "status transition not allowed" {
		t.Fatalf("unexpected message %q", envelope.Error.Message)
	}
	if envelope.Error.Details == nil {
		t.Fatal("details must be surfaced for state conflicts")
	}
}

func TestWriteErrorHidesInternalDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	err := pkgerrors.Wrap(pkgerrors.CodeInternal, errors.New("pq: connection refused"), "db exploded")
	WriteError(context.Background(), nil, rec, err)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	envelope := decodeError(t, rec)
	if envelope.Error.Message != "internal server error" {
		t.Fatalf("internal messages must not leak, got %q", envelope.Error.Message)
	}
	if envelope.Error.Details != nil {
		t.Fatalf("internal details must not leak, got %+v", envelope.Error.Details)
	}
}

func TestWriteErrorUntypedDefaultsToInternal(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(context.Background(), nil, rec, errors.New("boom"))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	envelope := decodeError(t, rec)
	if envelope.Error.Code != string(pkgerrors.CodeInternal) {
		t.Fatalf("unexpected code %q", envelope.Error.Code)
	}
}

func TestInsufficientStockIsConflictWithDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	err := pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock").
		WithDetails([]map[string]any{{"inventory_id": "abc", "requested": 5, "available": 2}})
	WriteError(context.Background(), nil, rec, err)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	envelope := decodeError(t, rec)
	if envelope.Error.Details == nil {
		t.Fatal("shortage details must be surfaced")
	}
}
