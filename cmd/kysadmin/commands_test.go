package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"kyschat/internal/llm"
)

// testEnv points configuration at a temporary database and docs directory.
func testEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	docs := filepath.Join(dir, "docs")
	if err := os.MkdirAll(docs, 0755); err != nil {
		t.Fatal(err)
	}
	t.Setenv("VECTOR_SIZE", "3")
	t.Setenv("DOCS_PATH", docs)
	t.Setenv("DB_PATH", filepath.Join(dir, "questions.db"))
	t.Setenv("CHROMEM_PATH", filepath.Join(dir, "chroma"))
	t.Setenv("VECTOR_BACKEND", "chromem")
	t.Setenv("LOG_LEVEL", "error")
	return docs
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRootCmd_Subcommands(t *testing.T) {
	root := newRootCmd()
	for _, path := range [][]string{
		{"migrate"},
		{"ingest"},
		{"user", "add"},
		{"user", "list"},
		{"user", "disable"},
	} {
		cmd, _, err := root.Find(path)
		if err != nil || cmd.Name() != path[len(path)-1] {
			t.Errorf("Find(%v) = %v, %v", path, cmd, err)
		}
	}
}

func TestMigrate(t *testing.T) {
	testEnv(t)
	out, err := run(t, "migrate")
	if err != nil {
		t.Fatalf("migrate error = %v", err)
	}
	if !strings.Contains(out, "up to date") {
		t.Errorf("output = %q", out)
	}
}

func TestUserLifecycle(t *testing.T) {
	testEnv(t)

	out, err := run(t, "user", "add", "--username", "somchai", "--password", "secret123", "--role", "manager", "--full-name", "สมชาย ใจดี")
	if err != nil {
		t.Fatalf("user add error = %v", err)
	}
	if !strings.Contains(out, "created user somchai") || !strings.Contains(out, "role manager") {
		t.Errorf("user add output = %q", out)
	}

	if _, err := run(t, "user", "add", "--username", "somchai", "--password", "secret123"); err == nil {
		t.Error("duplicate username should fail")
	}
	if _, err := run(t, "user", "add", "--username", "x", "--password", "secret123", "--role", "root"); err == nil {
		t.Error("unknown role should fail")
	}

	if _, err := run(t, "user", "disable", "somchai"); err != nil {
		t.Fatalf("user disable error = %v", err)
	}
	if _, err := run(t, "user", "disable", "nobody"); err == nil {
		t.Error("disabling an unknown user should fail")
	}

	out, err = run(t, "user", "list")
	if err != nil {
		t.Fatalf("user list error = %v", err)
	}
	if !strings.Contains(out, "somchai") || !strings.Contains(out, "false") {
		t.Errorf("user list output = %q", out)
	}
}

func TestUserCommands_NeedOnlyDatabaseSettings(t *testing.T) {
	testEnv(t)
	t.Setenv("VECTOR_SIZE", "")
	t.Setenv("DOCS_PATH", "")

	if _, err := run(t, "migrate"); err != nil {
		t.Fatalf("migrate error = %v", err)
	}
	out, err := run(t, "user", "add", "--username", "malee", "--password", "secret123")
	if err != nil {
		t.Fatalf("user add error = %v", err)
	}
	if !strings.Contains(out, "created user malee") {
		t.Errorf("user add output = %q", out)
	}
	if _, err := run(t, "user", "list"); err != nil {
		t.Errorf("user list error = %v", err)
	}

	if _, err := run(t, "ingest"); err == nil || !strings.Contains(err.Error(), "VECTOR_SIZE") {
		t.Errorf("ingest error = %v, want missing VECTOR_SIZE", err)
	}
}

func TestUserAdd_RequiresFlags(t *testing.T) {
	testEnv(t)
	if _, err := run(t, "user", "add", "--username", "somchai"); err == nil {
		t.Error("missing --password should fail")
	}
}

func TestIngest(t *testing.T) {
	docs := testEnv(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req llm.EmbeddingsRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		resp := llm.EmbeddingsResponse{}
		for i := range req.Input {
			resp.Data = append(resp.Data, llm.EmbeddingData{Embedding: []float64{1, float64(i), 0.5}})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()
	t.Setenv("EMBEDDING_BASE_URL", srv.URL)

	content := "ผู้กู้ต้องมีสัญชาติไทย\n\nรายได้ครอบครัวไม่เกิน 360,000 บาทต่อปี"
	if err := os.WriteFile(filepath.Join(docs, "features.md"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	out, err := run(t, "ingest")
	if err != nil {
		t.Fatalf("ingest error = %v", err)
	}
	if !strings.Contains(out, "files: 1, indexed: 1") {
		t.Errorf("ingest output = %q", out)
	}

	out, err = run(t, "ingest")
	if err != nil {
		t.Fatalf("second ingest error = %v", err)
	}
	if !strings.Contains(out, "unchanged: 1") {
		t.Errorf("second ingest output = %q", out)
	}

	out, err = run(t, "ingest", "--force")
	if err != nil {
		t.Fatalf("forced ingest error = %v", err)
	}
	if !strings.Contains(out, "indexed: 1") {
		t.Errorf("forced ingest output = %q", out)
	}
}
