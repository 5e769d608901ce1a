package preflight

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"framereel/internal/config"
	"framereel/internal/deps"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckDiskSpace(t *testing.T) {
	dir := t.TempDir()
	if result := CheckDiskSpace("vol", dir, 1); !result.Passed {
		t.Fatalf("expected pass with 1 byte minimum, got: %s", result.Detail)
	}
	if result := CheckDiskSpace("vol", dir, ^uint64(0)); result.Passed {
		t.Fatal("expected failure with impossible minimum")
	}
	if result := CheckDiskSpace("vol", filepath.Join(dir, "missing"), 1); result.Passed {
		t.Fatal("expected failure for missing path")
	}
}

func TestCheckNtfy_OK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/health" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"healthy":true}`))
	}))
	defer srv.Close()

	result := CheckNtfy(context.Background(), srv.URL+"/framereel")
	if !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
}

func TestCheckNtfy_Unhealthy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"healthy":false}`))
	}))
	defer srv.Close()

	if result := CheckNtfy(context.Background(), srv.URL+"/topic"); result.Passed {
		t.Fatal("expected failure for unhealthy server")
	}
	if result := CheckNtfy(context.Background(), "not a url"); result.Passed {
		t.Fatal("expected failure for invalid url")
	}
}

func TestCheckMQTTBroker(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			_ = conn.Close()
		}
	}()

	if result := CheckMQTTBroker(context.Background(), "tcp://"+ln.Addr().String()); !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
	if result := CheckMQTTBroker(context.Background(), "::bad"); result.Passed {
		t.Fatal("expected failure for invalid url")
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	results := RunAll(context.Background(), nil)
	if results != nil {
		t.Fatal("expected nil results for nil config")
	}
}

func TestRunAll_MinimalConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.ResultsDir = t.TempDir()
	cfg.Paths.LogDir = t.TempDir()
	cfg.Notifications.NtfyTopic = ""
	cfg.MQTT.Enabled = false

	results := RunAll(context.Background(), &cfg)

	// results dir, results volume, log dir
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if failed := Failed(results); len(failed) != 0 {
		t.Fatalf("unexpected failures: %+v", failed)
	}
}

func TestRunAll_IncludesNtfyWhenConfigured(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"healthy":true}`))
	}))
	defer srv.Close()

	cfg := config.Default()
	cfg.Paths.ResultsDir = t.TempDir()
	cfg.Paths.LogDir = t.TempDir()
	cfg.Notifications.NtfyTopic = srv.URL + "/reel"

	results := RunAll(context.Background(), &cfg)
	if len(results) != 4 || results[3].Name != "ntfy" || !results[3].Passed {
		t.Fatalf("expected passing ntfy check, got %+v", results)
	}
}

func TestCheckAnalysisFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Analysis.Enabled = false
	if result := CheckAnalysisFromConfig(&cfg); !result.Passed || result.Detail != "Disabled" {
		t.Fatalf("expected disabled pass, got %+v", result)
	}

	dir := t.TempDir()
	script := filepath.Join(dir, "tcp.R")
	if err := os.WriteFile(script, []byte("main <- function(dataset) 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	binary := filepath.Join(dir, "Rscript")
	if err := os.WriteFile(binary, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	cfg.Analysis.Enabled = true
	cfg.Analysis.RscriptBinary = binary
	cfg.Analysis.ScriptPath = script
	if result := CheckAnalysisFromConfig(&cfg); !result.Passed {
		t.Fatalf("expected pass, got %+v", result)
	}

	cfg.Analysis.ScriptPath = filepath.Join(dir, "missing.R")
	result := CheckAnalysisFromConfig(&cfg)
	if result.Passed || !strings.Contains(result.Detail, "not found") {
		t.Fatalf("expected missing script failure, got %+v", result)
	}
}

func TestCheckSystemDepsReportsKinds(t *testing.T) {
	cfg := config.Default()
	cfg.Analysis.Enabled = false
	cfg.Analysis.RscriptBinary = "clearly-not-present-rscript"
	cfg.Analysis.ScriptPath = filepath.Join(t.TempDir(), "tcp.R")

	statuses := CheckSystemDeps(&cfg)
	if len(statuses) != 2 {
		t.Fatalf("expected Rscript and script statuses, got %+v", statuses)
	}
	if statuses[0].Kind != deps.KindBinary || statuses[1].Kind != deps.KindScript {
		t.Fatalf("unexpected kinds %q, %q", statuses[0].Kind, statuses[1].Kind)
	}
	for _, status := range statuses {
		if status.Available || !status.Optional {
			t.Fatalf("expected optional unavailable dependency while disabled, got %+v", status)
		}
	}
}
