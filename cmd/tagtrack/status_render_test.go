package main

import (
	"bytes"
	"strings"
	"testing"

	"tagtrack/internal/preflight"
	"tagtrack/internal/store"
)

func TestStatusKindForImport(t *testing.T) {
	tests := []struct {
		status store.Status
		count  int
		want   statusKind
	}{
		{store.StatusFull, 3, statusOK},
		{store.StatusPartial, 1, statusWarn},
		{store.StatusPending, 2, statusWarn},
		{store.StatusError, 1, statusError},
		{store.StatusDuplicate, 4, statusInfo},
		{store.StatusError, 0, statusInfo},
	}
	for _, tt := range tests {
		if got := statusKindForImport(tt.status, tt.count); got != tt.want {
			t.Fatalf("statusKindForImport(%s, %d) = %d, want %d", tt.status, tt.count, got, tt.want)
		}
	}
}

func TestRenderStatusReportPlain(t *testing.T) {
	report := statusReport{
		DatabasePath: "/data/tagtrack.db",
		Checks: []preflight.Result{
			{Name: "Data directory", Passed: true, Detail: "/data"},
			{Name: "Redis", Passed: false, Detail: "connection refused"},
		},
		Imports:   map[string]int{"full": 1200, "error": 2},
		Locations: 5,
		Counters:  map[string]int64{"processor_runs": 7},
	}
	var buf bytes.Buffer
	renderStatusReport(&buf, report, false)
	out := buf.String()

	for _, want := range []string{
		"== Environment ==",
		"  Data directory:      [OK] /data",
		"  Redis:               [ERROR] connection refused",
		"  Full:                [OK] 1,200",
		"  Pending:             [INFO] 0",
		"  Error:               [ERROR] 2",
		"  Total:               [INFO] 1,202",
		"  processor_runs:      [INFO] 7",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\x1b[") {
		t.Fatalf("plain output must not contain escape codes:\n%s", out)
	}
}
