package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kmallard/riverseq/pkg/pipeline"
)

func testServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := NewServer(pipeline.NewRunner(nil, nil, nil), nil, nil)
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts
}

func TestHealthz(t *testing.T) {
	ts := testServer(t)

	resp, err := http.Get(ts.URL + "/v1/healthz")
	if err != nil {
		t.Fatalf("GET /v1/healthz: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

func TestAugment(t *testing.T) {
	ts := testServer(t)

	body := `{
		"segments": [
			{"id": 1, "length": 4, "area": 2},
			{"id": 2, "downstream": 1, "length": 3, "area": 1.5},
			{"id": 3, "downstream": 2, "length": 2, "area": 1}
		],
		"options": {"parallelism": 2}
	}`

	resp, err := http.Post(ts.URL+"/v1/augment", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST /v1/augment: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var out AugmentResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(out.Rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(out.Rows))
	}
	if out.NetworkHash == "" {
		t.Error("network hash should be set")
	}

	byID := make(map[int64]int64)
	for _, r := range out.Rows {
		byID[r.ID] = r.Hydroseq
	}
	if !(byID[1] < byID[2] && byID[2] < byID[3]) {
		t.Errorf("hydroseq not increasing upstream: %v", byID)
	}
}

func TestAugmentMalformedNetwork(t *testing.T) {
	ts := testServer(t)

	// Two-segment cycle.
	body := `{
		"segments": [
			{"id": 1, "downstream": 2, "length": 1, "area": 1},
			{"id": 2, "downstream": 1, "length": 1, "area": 1}
		]
	}`

	resp, err := http.Post(ts.URL+"/v1/augment", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST /v1/augment: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
	var out ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if out.Code != "MALFORMED_NETWORK" {
		t.Errorf("code = %q, want MALFORMED_NETWORK", out.Code)
	}
}

func TestAugmentInvalidOptions(t *testing.T) {
	ts := testServer(t)

	body := `{
		"segments": [{"id": 1, "length": 1, "area": 1}],
		"options": {"parallelism": -1}
	}`

	resp, err := http.Post(ts.URL+"/v1/augment", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST /v1/augment: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
	var out ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if out.Code != "INVALID_INPUT" {
		t.Errorf("code = %q, want INVALID_INPUT", out.Code)
	}
}

func TestAugmentBadJSON(t *testing.T) {
	ts := testServer(t)

	resp, err := http.Post(ts.URL+"/v1/augment", "application/json", bytes.NewReader([]byte("{")))
	if err != nil {
		t.Fatalf("POST /v1/augment: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestAugmentEmptySegments(t *testing.T) {
	ts := testServer(t)

	resp, err := http.Post(ts.URL+"/v1/augment", "application/json", strings.NewReader(`{"segments": []}`))
	if err != nil {
		t.Fatalf("POST /v1/augment: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestAugmentSaveWithoutStore(t *testing.T) {
	ts := testServer(t)

	body := `{"segments": [{"id": 1, "length": 1, "area": 1}], "save": "run1"}`
	resp, err := http.Post(ts.URL+"/v1/augment", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST /v1/augment: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestResultsRoutesDisabledWithoutStore(t *testing.T) {
	ts := testServer(t)

	resp, err := http.Get(ts.URL + "/v1/results")
	if err != nil {
		t.Fatalf("GET /v1/results: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404 when no store is configured", resp.StatusCode)
	}
}
