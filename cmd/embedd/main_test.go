package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/hyperjump/embedd/internal/config"
	"github.com/hyperjump/embedd/internal/models"
	"github.com/hyperjump/embedd/internal/server"
	"github.com/hyperjump/embedd/internal/service"
)

// writeMockConfig writes a config using the mock backend with its run log in dir.
func writeMockConfig(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	content := fmt.Sprintf(`
storage:
  runs_database_path: %q
embedding:
  backend: mock
  embedding_dim: 8
  use_accelerated: false
  num_threads: 1
  max_batch_size: 4
ingest:
  passage_words: 5
  passage_overlap: 1
`, filepath.Join(dir, "runs.db"))
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

// execute runs the root command with flag globals reset, returning stdout.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	configPath, debugFlag, outputFlag = defaultConfigPath, false, "text"
	embedServer, embedFile, embedDir, embedExts = defaultServerURL, "", "", nil
	statusServer = defaultServerURL
	runsServer, runsLimit = defaultServerURL, 20

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func decodeLines(t *testing.T, out string) [][]float32 {
	t.Helper()
	var vectors [][]float32
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		var v []float32
		if err := json.Unmarshal([]byte(line), &v); err != nil {
			t.Fatalf("line %q: %v", line, err)
		}
		vectors = append(vectors, v)
	}
	return vectors
}

func assertUnit(t *testing.T, v []float32) {
	t.Helper()
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if math.Abs(math.Sqrt(sum)-1) > 1e-4 {
		t.Errorf("norm = %f, want 1", math.Sqrt(sum))
	}
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "", "version")
	if err != nil {
		t.Fatal(err)
	}
	if out != "embedd version dev\n" {
		t.Errorf("version output = %q", out)
	}
}

func TestEmbed_InProcessArgs(t *testing.T) {
	cfgPath := writeMockConfig(t, t.TempDir())
	out, err := execute(t, "", "embed", "--config", cfgPath, "--server=", "-o", "compact", "hello", "world")
	if err != nil {
		t.Fatal(err)
	}
	vectors := decodeLines(t, out)
	if len(vectors) != 2 {
		t.Fatalf("got %d vectors, want 2", len(vectors))
	}
	for _, v := range vectors {
		if len(v) != 8 {
			t.Errorf("dimension = %d, want 8", len(v))
		}
		assertUnit(t, v)
	}
}

func TestEmbed_Stdin(t *testing.T) {
	cfgPath := writeMockConfig(t, t.TempDir())
	out, err := execute(t, "first line\n\n  \nsecond line\n", "embed", "--config", cfgPath, "--server=", "-o", "compact")
	if err != nil {
		t.Fatal(err)
	}
	if n := len(decodeLines(t, out)); n != 2 {
		t.Errorf("got %d vectors, want 2", n)
	}
}

func TestEmbed_EmptyStdin(t *testing.T) {
	cfgPath := writeMockConfig(t, t.TempDir())
	_, err := execute(t, "", "embed", "--config", cfgPath, "--server=")
	if err == nil || !strings.Contains(err.Error(), "empty input") {
		t.Errorf("expected empty input error, got %v", err)
	}
}

func TestEmbed_File(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeMockConfig(t, dir)
	doc := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(doc, []byte("one two three four five six seven eight nine"), 0600); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "", "embed", "--config", cfgPath, "--server=", "--file", doc, "-o", "json")
	if err != nil {
		t.Fatal(err)
	}
	var passages []models.Passage
	if err := json.Unmarshal([]byte(out), &passages); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if len(passages) != 2 {
		t.Fatalf("got %d passages, want 2", len(passages))
	}
	for i, p := range passages {
		if p.Index != i || !strings.HasPrefix(p.ID, "file:") || len(p.Vector) != 8 {
			t.Errorf("passage %d = %+v", i, p)
		}
	}
}

func TestEmbed_FileAndDirExclusive(t *testing.T) {
	_, err := execute(t, "", "embed", "--file", "a.txt", "--dir", ".")
	if err == nil || !strings.Contains(err.Error(), "mutually exclusive") {
		t.Errorf("expected mutually exclusive error, got %v", err)
	}
}

func TestEmbed_BadOutputFormat(t *testing.T) {
	if _, err := execute(t, "", "embed", "-o", "xml", "hi"); err == nil {
		t.Error("expected error for unknown output format")
	}
}

func TestEmbed_ViaServer(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeMockConfig(t, dir)

	emb := config.CPUOnlyConfig(1)
	emb.Backend = config.BackendMock
	emb.EmbeddingDim = 8
	svc, err := service.New(emb)
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.Init(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer svc.Close()
	ts := httptest.NewServer(server.NewServer(svc, &config.ServerConfig{}, nil).Routes())
	defer ts.Close()

	out, err := execute(t, "", "embed", "--config", cfgPath, "--server", ts.URL, "-o", "json", "a", "b", "c")
	if err != nil {
		t.Fatal(err)
	}
	var resp models.EmbeddingResponse
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Count != 3 || len(resp.Embeddings) != 3 || !resp.Success {
		t.Errorf("resp = %+v", resp)
	}

	// The server keeps no run log of its own here; the local one stays empty.
	if _, err := os.Stat(filepath.Join(dir, "runs.db")); !os.IsNotExist(err) {
		t.Errorf("local run log should not be created, stat err = %v", err)
	}
}

func TestStatus_InProcess(t *testing.T) {
	cfgPath := writeMockConfig(t, t.TempDir())
	out, err := execute(t, "", "status", "--config", cfgPath, "--server=", "-o", "json")
	if err != nil {
		t.Fatal(err)
	}
	var st models.EngineStatus
	if err := json.Unmarshal([]byte(out), &st); err != nil {
		t.Fatal(err)
	}
	if st.State != "running" || !st.Initialized || st.Dimension != 8 || st.MaxBatchSize != 4 {
		t.Errorf("status = %+v", st)
	}
	if st.Provider != "MockExecutionProvider" {
		t.Errorf("provider = %s", st.Provider)
	}
}

func TestRuns_RecordedByEmbed(t *testing.T) {
	cfgPath := writeMockConfig(t, t.TempDir())
	if _, err := execute(t, "", "embed", "--config", cfgPath, "--server=", "-o", "compact", "x", "y", "z", "w", "v"); err != nil {
		t.Fatal(err)
	}
	out, err := execute(t, "", "runs", "--config", cfgPath, "--server=", "-o", "json")
	if err != nil {
		t.Fatal(err)
	}
	var decoded struct {
		Runs  []models.Run    `json:"runs"`
		Stats models.RunStats `json:"stats"`
	}
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatal(err)
	}
	if len(decoded.Runs) != 1 || decoded.Runs[0].Count != 5 || decoded.Runs[0].Status != models.RunStatusOK {
		t.Errorf("runs = %+v", decoded.Runs)
	}
	if decoded.Stats.Runs != 1 || decoded.Stats.Texts != 5 {
		t.Errorf("stats = %+v", decoded.Stats)
	}
}

func TestReadLines(t *testing.T) {
	got, err := readLines(strings.NewReader("  a \n\nb\r\n\t\nc"))
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"a", "b", "c"}; !reflect.DeepEqual(got, want) {
		t.Errorf("readLines = %v, want %v", got, want)
	}
}

func TestLoadConfig_prefersCwdConfigWhenDefaultPath(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	content := `
debug: true
server:
  host: "localhost"
  port: 8080
`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	origWd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.Chdir(origWd) }()
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}

	cfg, resolved, err := loadConfig(defaultConfigPath)
	if err != nil {
		t.Fatal(err)
	}
	// On macOS, cwd can be /private/var/... while t.TempDir() is /var/...; compare canonical paths.
	resolvedCanon, _ := filepath.EvalSymlinks(resolved)
	configPathCanon, _ := filepath.EvalSymlinks(configPath)
	if resolvedCanon != configPathCanon {
		t.Errorf("resolved path = %s, want %s", resolvedCanon, configPathCanon)
	}
	if !cfg.Debug {
		t.Error("debug should be true from cwd config.yaml")
	}
}

func TestLoadConfig_usesExplicitPath(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	content := `
server:
  host: "127.0.0.1"
  port: 9000
`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, resolved, err := loadConfig(configPath)
	if err != nil {
		t.Fatal(err)
	}
	if resolved != configPath {
		t.Errorf("resolved path = %s, want %s", resolved, configPath)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
}
