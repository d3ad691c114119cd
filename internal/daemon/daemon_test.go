package daemon_test

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"tagtrack/internal/api"
	"tagtrack/internal/config"
	"tagtrack/internal/counters"
	"tagtrack/internal/daemon"
	"tagtrack/internal/ingest"
	"tagtrack/internal/logging"
	"tagtrack/internal/processor"
	"tagtrack/internal/store"
	"tagtrack/internal/testsupport"
	"tagtrack/internal/workflow"
)

func newDaemon(t *testing.T, cfg *config.Config) *daemon.Daemon {
	t.Helper()
	gin.SetMode(gin.TestMode)
	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	logger := logging.NewNop()
	mgr := workflow.NewManager(cfg, st, processor.New(st, nil, logger), counters.NewStoreCounter(st), nil, logger)
	router := api.NewRouter(api.Options{
		Submitter:    ingest.NewGatekeeper(st, mgr, cfg.Ingest.DefaultSource, logger),
		Store:        st,
		Status:       mgr,
		MaxBodyBytes: cfg.MaxBodyBytes(),
		Logger:       logger,
	})
	d, err := daemon.New(cfg, st, mgr, router, logger)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() {
		d.Close()
	})
	return d
}

func TestDaemonStartStop(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	d := newDaemon(t, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	status := d.Status(ctx)
	if !status.Running || !status.Workflow.Running {
		t.Fatal("expected daemon to report running")
	}
	if status.APIAddress == "" {
		t.Fatal("expected api address")
	}

	// Second start should fail
	if err := d.Start(ctx); err == nil {
		t.Fatal("expected second start to fail")
	}

	d.Stop()
	status = d.Status(ctx)
	if status.Running {
		t.Fatal("expected daemon to be stopped")
	}
}

func TestDaemonLockPreventsSecondInstance(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	first := newDaemon(t, cfg)
	second := newDaemon(t, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := first.Start(ctx); err != nil {
		t.Fatalf("first Start: %v", err)
	}
	defer first.Stop()
	if err := second.Start(ctx); err == nil || !strings.Contains(err.Error(), "already running") {
		t.Fatalf("expected lock error, got %v", err)
	}
}

func TestDaemonServesAndProcesses(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	d := newDaemon(t, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer d.Stop()

	body := `{"content":[{"name":"Tag 5","location":{"latitude":1,"longitude":2,"horizontalAccuracy":3,"timeStamp":1700000000000}}]}`
	resp, err := http.Post("http://"+d.Status(ctx).APIAddress+"/recv", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST /recv: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var recv api.RecvResponse
	if err := json.NewDecoder(resp.Body).Decode(&recv); err != nil {
		t.Fatalf("decode: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		summary := d.Status(ctx).Workflow
		if summary.LastOutcome != nil && summary.LastOutcome.ImportID == recv.ImportID {
			if summary.LastOutcome.Status != store.StatusFull {
				t.Fatalf("expected full, got %s", summary.LastOutcome.Status)
			}
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("triggered import was not processed")
}
