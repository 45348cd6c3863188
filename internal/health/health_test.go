package health

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHTTPHandlerNilPool(t *testing.T) {
	handler := HTTPHandler(nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	handler(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}

	var st Status
	if err := json.NewDecoder(w.Body).Decode(&st); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !st.OK {
		t.Error("OK = false, want true")
	}
	if st.Message != "ok" {
		t.Errorf("Message = %q, want %q", st.Message, "ok")
	}
}

func TestHTTPHandlerProviderStatuses(t *testing.T) {
	handler := HTTPHandler(nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	handler(w, req)

	var st Status
	if err := json.NewDecoder(w.Body).Decode(&st); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	want := []string{"careem", "deliveroo", "talabat", "jahez"}
	if len(st.Providers) != len(want) {
		t.Fatalf("providers = %d entries, want %d", len(st.Providers), len(want))
	}
	for _, name := range want {
		if status, ok := st.Providers[name]; !ok {
			t.Errorf("provider %q missing from health response", name)
		} else if status != "active" {
			t.Errorf("provider %q status = %q, want %q", name, status, "active")
		}
	}
}
