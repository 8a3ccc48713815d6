package httputil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRespondErrorWithExtrasFlattensMembers(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondErrorWithExtras(rec, http.StatusRequestEntityTooLarge, "storage quota exceeded", map[string]interface{}{
		"limit_bytes": int64(100),
		"used_bytes":  int64(90),
	})

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d, want 413", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/problem+json" {
		t.Errorf("Content-Type = %q", ct)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	if body["detail"] != "storage quota exceeded" {
		t.Errorf("detail = %v", body["detail"])
	}
	if body["limit_bytes"] != float64(100) || body["used_bytes"] != float64(90) {
		t.Errorf("extension members not flattened: %v", body)
	}
	if body["type"] != "https://www.rfc-editor.org/rfc/rfc9110#section-15.5.14" {
		t.Errorf("413 problem type = %v", body["type"])
	}
}

func TestProblemTypeFallsBackToBlank(t *testing.T) {
	if got := problemType(http.StatusTeapot); got != "about:blank" {
		t.Errorf("unmapped status type = %q", got)
	}
}

func TestOptionalStringTriState(t *testing.T) {
	var body struct {
		ParentID OptionalString `json:"parent_id"`
	}

	if err := json.Unmarshal([]byte(`{}`), &body); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if body.ParentID.Present {
		t.Error("absent field must not be Present")
	}

	body.ParentID = OptionalString{}
	if err := json.Unmarshal([]byte(`{"parent_id": null}`), &body); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if !body.ParentID.Present || body.ParentID.Value != nil {
		t.Errorf("null must be Present with nil value, got %+v", body.ParentID)
	}

	body.ParentID = OptionalString{}
	if err := json.Unmarshal([]byte(`{"parent_id": "abc"}`), &body); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if !body.ParentID.Present || body.ParentID.Value == nil || *body.ParentID.Value != "abc" {
		t.Errorf("string must be Present with value, got %+v", body.ParentID)
	}
}
