package cli

import (
	"context"
	"errors"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hyperjump/embedd/internal/config"
	"github.com/hyperjump/embedd/internal/embedding"
	"github.com/hyperjump/embedd/internal/server"
	"github.com/hyperjump/embedd/internal/service"
	"github.com/hyperjump/embedd/internal/storage"
)

func startServer(t *testing.T) *Client {
	t.Helper()
	cfg := config.CPUOnlyConfig(1)
	cfg.Backend = config.BackendMock
	cfg.EmbeddingDim = 16

	store, err := storage.NewSQLiteRunStore(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })
	svc, err := service.New(cfg, service.WithRunStore(store))
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.Init(context.Background()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = svc.Close() })

	srv := server.NewServer(svc, &config.ServerConfig{MaxTexts: 3}, nil)
	ts := httptest.NewServer(srv.Routes())
	t.Cleanup(ts.Close)
	return NewClient(ts.URL + "/")
}

func TestClient_RoundTrip(t *testing.T) {
	c := startServer(t)
	ctx := context.Background()

	resp, err := c.Embed(ctx, []string{"a", "b"})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Count != 2 || len(resp.Embeddings[0]) != 16 {
		t.Errorf("resp = %+v", resp)
	}

	st, err := c.Status(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if st.State != "running" || st.Dimension != 16 {
		t.Errorf("status = %+v", st)
	}

	runs, err := c.Runs(ctx, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 || runs[0].Count != 2 {
		t.Errorf("runs = %+v", runs)
	}

	stats, err := c.RunStats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Runs != 1 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestClient_ServerError(t *testing.T) {
	c := startServer(t)
	_, err := c.Embed(context.Background(), []string{"1", "2", "3", "4"})
	if err == nil || !strings.Contains(err.Error(), "400") || !strings.Contains(err.Error(), "batch size exceeded") {
		t.Fatalf("expected batch size error, got %v", err)
	}
	if !errors.Is(err, embedding.ErrBatchSizeExceeded) {
		t.Errorf("errors.Is(%v, ErrBatchSizeExceeded) = false", err)
	}
	if errors.Is(err, embedding.ErrEmptyInput) {
		t.Error("batch size error should not match ErrEmptyInput")
	}
	if k := embedding.KindOf(err); k != embedding.KindBatchSizeExceeded {
		t.Errorf("KindOf = %v", k)
	}
	var remote *RemoteError
	if !errors.As(err, &remote) || remote.Status != 400 || remote.Kind != "batch_size_exceeded" {
		t.Errorf("remote error = %+v", remote)
	}

	_, err = c.Embed(context.Background(), []string{})
	if !errors.Is(err, embedding.ErrEmptyInput) {
		t.Errorf("expected empty input kind, got %v", err)
	}
}

func TestRemoteError_WithoutKind(t *testing.T) {
	err := &RemoteError{Status: 503, Message: "embedding engine not initialized"}
	if err.Error() != "server returned 503: embedding engine not initialized" {
		t.Errorf("Error() = %q", err.Error())
	}
	if errors.Unwrap(err) != nil {
		t.Error("no kind should unwrap to nil")
	}
	if embedding.KindOf(err) != embedding.KindInternal {
		t.Errorf("KindOf = %v", embedding.KindOf(err))
	}
}

func TestClient_Unreachable(t *testing.T) {
	c := NewClient("http://127.0.0.1:1")
	if _, err := c.Status(context.Background()); err == nil {
		t.Error("expected error")
	}
}
