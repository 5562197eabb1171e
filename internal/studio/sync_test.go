package studio

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/atelierhq/atelier/internal/config"
)

func TestSyncBuilderAgent_CreatesWhenNoID(t *testing.T) {
	var gotMethod string
	var gotBody map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotBody)
		_, _ = w.Write([]byte(`{"agent_id": "builder-9"}`))
	}))
	t.Cleanup(srv.Close)

	client, err := NewClient(config.StudioConfig{BaseURL: srv.URL, APIKey: "k"}, config.AgentDefaults{}, srv.Client())
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	id, err := client.SyncBuilderAgent(context.Background(), "")
	if err != nil {
		t.Fatalf("SyncBuilderAgent returned error: %v", err)
	}
	if id != "builder-9" {
		t.Fatalf("id = %q, want %q", id, "builder-9")
	}
	if gotMethod != http.MethodPost {
		t.Fatalf("method = %q, want POST", gotMethod)
	}
	if gotBody["name"] != "Blueprint Builder" {
		t.Fatalf("name = %v", gotBody["name"])
	}
	rf := gotBody["response_format"].(map[string]any)
	if rf["type"] != "json_object" {
		t.Fatalf("response_format = %v", rf)
	}
	if instr, _ := gotBody["agent_instructions"].(string); instr == "" {
		t.Fatal("agent_instructions is empty")
	}
}

func TestSyncBuilderAgent_UpdatesExistingAndStripsReadonly(t *testing.T) {
	var putBody map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			_, _ = w.Write([]byte(`{
				"_id": "abc",
				"created_at": "2026-01-01",
				"updated_at": "2026-01-02",
				"api_key": "secret",
				"version": 3,
				"name": "Blueprint Builder",
				"agent_instructions": "old",
				"features": [
					{"type": "memory", "config": {}, "priority": 0},
					{"type": "HUMANIZER", "config": {}, "priority": 1}
				]
			}`))
		case http.MethodPut:
			body, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(body, &putBody)
			_, _ = w.Write([]byte(`{"updated_at": "2026-01-03"}`))
		default:
			t.Fatalf("unexpected method %s", r.Method)
		}
	}))
	t.Cleanup(srv.Close)

	client, err := NewClient(config.StudioConfig{BaseURL: srv.URL, APIKey: "k"}, config.AgentDefaults{}, srv.Client())
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	id, err := client.SyncBuilderAgent(context.Background(), "builder-1")
	if err != nil {
		t.Fatalf("SyncBuilderAgent returned error: %v", err)
	}
	if id != "builder-1" {
		t.Fatalf("id = %q, want %q", id, "builder-1")
	}

	for _, field := range []string{"_id", "created_at", "updated_at", "api_key", "version"} {
		if _, present := putBody[field]; present {
			t.Fatalf("readonly field %q was sent on update", field)
		}
	}
	if instr, _ := putBody["agent_instructions"].(string); instr == "old" || instr == "" {
		t.Fatalf("agent_instructions = %q, want refreshed instructions", instr)
	}

	features := putBody["features"].([]any)
	var types []string
	for _, f := range features {
		types = append(types, f.(map[string]any)["type"].(string))
	}
	if len(types) != 2 || types[0] != "HUMANIZER" || types[1] != "SHORT_TERM_MEMORY" {
		t.Fatalf("feature types = %v, want memory replaced and HUMANIZER kept", types)
	}
}

func TestStripReadonly(t *testing.T) {
	t.Parallel()
	in := map[string]any{"_id": "x", "name": "keep", "version": 1}
	out := StripReadonly(in)
	if _, present := out["_id"]; present {
		t.Fatal("_id survived strip")
	}
	if out["name"] != "keep" {
		t.Fatalf("name = %v, want keep", out["name"])
	}
	if _, present := in["_id"]; !present {
		t.Fatal("input map was mutated")
	}
}
