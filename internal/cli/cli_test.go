package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/studiowebux/reqflow/internal/executor"
	"github.com/studiowebux/reqflow/internal/history"
	"github.com/studiowebux/reqflow/internal/types"
	"go.uber.org/zap"
)

func strPtr(s string) *string {
	return &s
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"token":"abc123","user":{"id":7}}`))
	})
	mux.HandleFunc("/me", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer abc123" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte("unauthorized"))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"name":"ada"}`))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func newTestEnv(t *testing.T, host string) (*Env, *bytes.Buffer) {
	t.Helper()

	hist, err := history.NewManager(history.MemoryDB)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	t.Cleanup(func() { hist.Close() })

	engine, err := executor.NewEngine(nil, zap.NewNop())
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}

	collection := &types.Collection{
		Profiles: []types.Profile{
			{ID: "local", Data: map[string]string{"host": host}},
			{ID: "broken", Data: map[string]string{"host": "http://127.0.0.1:1"}},
		},
		Chains: []types.Chain{
			{ID: "token", Source: "login", Path: strPtr("$.token")},
		},
		Requests: []types.Recipe{
			{ID: "login", Method: "POST", URL: "{{host}}/login", Body: strPtr(`{"user":"ada"}`)},
			{ID: "me", Method: "GET", URL: "{{host}}/me", Headers: map[string]string{"Authorization": "Bearer {{chains.token}}"}},
		},
	}

	out := &bytes.Buffer{}
	return &Env{
		Collection: collection,
		Engine:     engine,
		History:    hist,
		Logger:     zap.NewNop(),
		Out:        out,
		Err:        &bytes.Buffer{},
	}, out
}

func TestParseOverrides(t *testing.T) {
	got, err := ParseOverrides([]string{"host=http://x", "empty=", "bare", "eq=a=b"})
	if err != nil {
		t.Fatalf("ParseOverrides failed: %v", err)
	}
	expected := map[string]string{"host": "http://x", "empty": "", "bare": "", "eq": "a=b"}
	for k, v := range expected {
		if got[k] != v {
			t.Errorf("Expected %s=%q, got %q", k, v, got[k])
		}
	}

	if _, err := ParseOverrides([]string{"=value"}); err == nil {
		t.Error("Expected error for missing key")
	}
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("REQFLOW_TEST_TOKEN=from-file\n"), 0644); err != nil {
		t.Fatalf("Failed to write env file: %v", err)
	}
	t.Cleanup(func() { os.Unsetenv("REQFLOW_TEST_TOKEN") })

	if err := LoadEnvFile(path); err != nil {
		t.Fatalf("LoadEnvFile failed: %v", err)
	}
	if got := os.Getenv("REQFLOW_TEST_TOKEN"); got != "from-file" {
		t.Errorf("Expected from-file, got %q", got)
	}

	if err := LoadEnvFile(""); err != nil {
		t.Errorf("Empty path should be a no-op, got %v", err)
	}
	if err := LoadEnvFile(filepath.Join(t.TempDir(), "missing.env")); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestRun_ChainsThroughHistory(t *testing.T) {
	server := newTestServer(t)
	env, out := newTestEnv(t, server.URL)
	ctx := context.Background()

	// No login yet: the chain has nothing to read
	err := Run(ctx, env, RunOptions{RecipeID: "me", OutputFormat: "body"})
	if err == nil || !strings.Contains(err.Error(), `chain "token"`) {
		t.Fatalf("Expected chain error, got %v", err)
	}

	if err := Run(ctx, env, RunOptions{RecipeID: "login", OutputFormat: "body"}); err != nil {
		t.Fatalf("Run login failed: %v", err)
	}
	out.Reset()

	if err := Run(ctx, env, RunOptions{RecipeID: "me", OutputFormat: "body"}); err != nil {
		t.Fatalf("Run me failed: %v", err)
	}
	if out.String() != `{"name":"ada"}` {
		t.Errorf("Unexpected output %q", out.String())
	}

	count, err := env.History.Count(ctx)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 2 {
		t.Errorf("Expected 2 stored records, got %d", count)
	}
}

func TestRun_Query(t *testing.T) {
	server := newTestServer(t)
	env, out := newTestEnv(t, server.URL)

	err := Run(context.Background(), env, RunOptions{RecipeID: "login", OutputFormat: "body", Query: "user.id"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if out.String() != "7" {
		t.Errorf("Expected 7, got %q", out.String())
	}
}

func TestRun_ErrorStatus(t *testing.T) {
	server := newTestServer(t)
	env, out := newTestEnv(t, server.URL)

	// Sent without the Authorization header the server answers 401
	env.Collection.Requests[1].Headers = nil
	err := Run(context.Background(), env, RunOptions{RecipeID: "me", OutputFormat: "body"})
	if !errors.Is(err, ErrHTTPStatus) {
		t.Fatalf("Expected ErrHTTPStatus, got %v", err)
	}
	if out.String() != "unauthorized" {
		t.Errorf("Expected body to be printed, got %q", out.String())
	}
}

func TestRun_TransportFailureIsStored(t *testing.T) {
	env, _ := newTestEnv(t, "")
	ctx := context.Background()

	err := Run(ctx, env, RunOptions{RecipeID: "login", Profile: "broken", OutputFormat: "body"})
	if err == nil || !strings.Contains(err.Error(), "error executing HTTP request") {
		t.Fatalf("Expected transport error, got %v", err)
	}

	record, err := env.History.GetLast(ctx, "login")
	if err != nil {
		t.Fatalf("GetLast failed: %v", err)
	}
	if record == nil || record.Succeeded() {
		t.Errorf("Expected a stored failed record, got %+v", record)
	}
}

func TestRun_Errors(t *testing.T) {
	env, _ := newTestEnv(t, "http://localhost")
	ctx := context.Background()

	tests := []struct {
		name    string
		opts    RunOptions
		wantErr string
	}{
		{"unknown recipe", RunOptions{RecipeID: "nope"}, `request "nope" not found`},
		{"unknown profile", RunOptions{RecipeID: "login", Profile: "prod"}, `profile "prod" not found`},
		{"bad override", RunOptions{RecipeID: "login", Overrides: []string{"=x"}}, "missing key"},
		{"bad query", RunOptions{RecipeID: "login", Query: "a.["}, `invalid query "a.["`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Run(ctx, env, tt.opts)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func testRecord(status int, body string) *types.RequestRecord {
	headers := http.Header{}
	headers.Set("Content-Type", "application/json")
	req := types.NewRequest("login", "GET", "http://localhost/login", nil, nil)
	start := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	req.Result().Fill(types.Outcome{
		Response:  &types.Response{StatusCode: status, Headers: headers, Body: body},
		StartTime: start,
		EndTime:   start.Add(250 * time.Millisecond),
	})
	record, _ := req.Record()
	return record
}

func TestFormatOutput(t *testing.T) {
	record := testRecord(201, `{"id":1}`)

	t.Run("json", func(t *testing.T) {
		got, err := formatOutput(record, record.Response.Body, "json", false)
		if err != nil {
			t.Fatalf("formatOutput failed: %v", err)
		}
		var decoded responseOutput
		if err := json.Unmarshal([]byte(got), &decoded); err != nil {
			t.Fatalf("Output is not JSON: %v", err)
		}
		if decoded.Status != 201 || decoded.Duration != "250ms" || decoded.Headers["Content-Type"] != "application/json" {
			t.Errorf("Unexpected output %+v", decoded)
		}
	})

	t.Run("yaml", func(t *testing.T) {
		got, err := formatOutput(record, record.Response.Body, "yaml", false)
		if err != nil {
			t.Fatalf("formatOutput failed: %v", err)
		}
		if !strings.Contains(got, "status: 201") {
			t.Errorf("Unexpected output %q", got)
		}
	})

	t.Run("text", func(t *testing.T) {
		got, err := formatOutput(record, record.Response.Body, "text", true)
		if err != nil {
			t.Fatalf("formatOutput failed: %v", err)
		}
		for _, want := range []string{"201 Created", "Duration: 250ms", "Content-Type: application/json", "\"id\": 1"} {
			if !strings.Contains(got, want) {
				t.Errorf("Expected %q in output %q", want, got)
			}
		}
	})

	t.Run("unknown", func(t *testing.T) {
		if _, err := formatOutput(record, "", "xml", false); err == nil {
			t.Error("Expected error for unknown format")
		}
	})
}

func TestCheckCollection(t *testing.T) {
	env, out := newTestEnv(t, "http://localhost:3000")
	env.Collection.Requests = append(env.Collection.Requests,
		types.Recipe{ID: "missing_field", Method: "GET", URL: "{{nope}}/x"})

	results, err := CheckCollection(context.Background(), env, CheckOptions{})
	if err != nil {
		t.Fatalf("CheckCollection failed: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("Expected 3 results, got %d", len(results))
	}
	if results[0].Err != nil || results[0].Request.URL != "http://localhost:3000/login" {
		t.Errorf("Unexpected login result %+v", results[0])
	}
	if results[1].Err == nil {
		t.Error("Expected chain error for me (no history)")
	}
	if results[2].Err == nil || !strings.Contains(results[2].Err.Error(), `unknown field "nope"`) {
		t.Errorf("Unexpected error %v", results[2].Err)
	}

	err = Check(context.Background(), env, CheckOptions{})
	if err == nil || !strings.Contains(err.Error(), "2 of 3") {
		t.Errorf("Expected 2 of 3 failures, got %v", err)
	}
	if !strings.Contains(out.String(), "login") || !strings.Contains(out.String(), "failed to build url") {
		t.Errorf("Unexpected check output %q", out.String())
	}
}

func TestHistory(t *testing.T) {
	server := newTestServer(t)
	env, out := newTestEnv(t, server.URL)
	ctx := context.Background()

	if err := Run(ctx, env, RunOptions{RecipeID: "login", OutputFormat: "body"}); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	out.Reset()

	if err := History(ctx, env, HistoryOptions{RecipeID: "login"}); err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if !strings.Contains(out.String(), "POST "+server.URL+"/login") {
		t.Errorf("Unexpected history output %q", out.String())
	}

	out.Reset()
	if err := History(ctx, env, HistoryOptions{RecipeID: "me"}); err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if !strings.Contains(out.String(), "No history for me") {
		t.Errorf("Unexpected output %q", out.String())
	}

	if err := History(ctx, env, HistoryOptions{RecipeID: "ghost"}); err == nil {
		t.Error("Expected error for unknown recipe")
	}

	if err := History(ctx, env, HistoryOptions{Clear: true}); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	count, _ := env.History.Count(ctx)
	if count != 0 {
		t.Errorf("Expected empty history, got %d", count)
	}
}
