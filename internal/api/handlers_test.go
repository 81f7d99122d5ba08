package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/payrpc/solgate/internal/domain"
)

func TestHealthCheckHandler(t *testing.T) {
	h := NewHandler(nil, nil, nil, 0.001, "recipient")

	rec := httptest.NewRecorder()
	h.HealthCheckHandler(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("body is not JSON: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status field = %q, want ok", body["status"])
	}
}

func TestDocsHandlerPublishesPricing(t *testing.T) {
	h := NewHandler(nil, nil, nil, 0.001, "recipient-wallet")

	rec := httptest.NewRecorder()
	h.DocsHandler(rec, httptest.NewRequest(http.MethodGet, "/api/v1/docs", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body domain.APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("body is not JSON: %v", err)
	}
	if !body.Success {
		t.Error("docs response not successful")
	}
	data, ok := body.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("data = %T, want object", body.Data)
	}
	payment, ok := data["payment"].(map[string]interface{})
	if !ok {
		t.Fatal("docs missing payment section")
	}
	if payment["pricePerCall"] != 0.001 {
		t.Errorf("pricePerCall = %v, want 0.001", payment["pricePerCall"])
	}
	if payment["recipient"] != "recipient-wallet" {
		t.Errorf("recipient = %v, want recipient-wallet", payment["recipient"])
	}
	if _, ok := data["discountTiers"]; !ok {
		t.Error("docs missing discountTiers")
	}
}
