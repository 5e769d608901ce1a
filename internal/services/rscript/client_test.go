package rscript_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"framereel/internal/services"
	"framereel/internal/services/rscript"
	"framereel/internal/testsupport"
)

type stubExecutor struct {
	stdout string
	stderr string
	err    error
	calls  int
	dir    string
	binary string
	args   []string
}

func (s *stubExecutor) Run(_ context.Context, dir, binary string, args []string) ([]byte, []byte, error) {
	s.calls++
	s.dir = dir
	s.binary = binary
	s.args = append([]string(nil), args...)
	return []byte(s.stdout), []byte(s.stderr), s.err
}

func writeScript(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tcp.R")
	if err := os.WriteFile(path, []byte("main <- function(dataset) dataset\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestAnalyzeBuildsExpressionAndSplitsOutput(t *testing.T) {
	script := writeScript(t)
	exec := &stubExecutor{stdout: "[1] \"accuracy: 0.9\"\r\n[1] \"frames: 3\"\n\n"}
	client, err := rscript.New("Rscript", script, "main", time.Minute, rscript.WithExecutor(exec), rscript.WithWorkDir("/srv"))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	lines, err := client.Analyze(context.Background(), "demo")
	if err != nil {
		t.Fatalf("Analyze returned error: %v", err)
	}
	if !slices.Equal(lines, []string{`[1] "accuracy: 0.9"`, `[1] "frames: 3"`}) {
		t.Fatalf("unexpected lines %q", lines)
	}
	wantExpr := `source("` + script + `"); print(main(dataset = "demo"))`
	if !slices.Equal(exec.args, []string{"--vanilla", "-e", wantExpr}) {
		t.Fatalf("unexpected args %q", exec.args)
	}
	if exec.dir != "/srv" || exec.binary != "Rscript" {
		t.Fatalf("unexpected invocation dir=%q binary=%q", exec.dir, exec.binary)
	}
}

func TestExpressionEscapesScriptPath(t *testing.T) {
	client, err := rscript.New("Rscript", `/odd "dir"\tcp.R`, "main", 0)
	if err != nil {
		t.Fatal(err)
	}
	got := client.Expression("demo")
	want := `source("/odd \"dir\"\\tcp.R"); print(main(dataset = "demo"))`
	if got != want {
		t.Fatalf("Expression = %s, want %s", got, want)
	}
}

func TestAnalyzeRejectsInvalidDataset(t *testing.T) {
	exec := &stubExecutor{}
	client, err := rscript.New("Rscript", writeScript(t), "main", 0, rscript.WithExecutor(exec))
	if err != nil {
		t.Fatal(err)
	}
	_, err = client.Analyze(context.Background(), `x"); system("rm`)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if exec.calls != 0 {
		t.Fatal("executor must not run for invalid ids")
	}
}

func TestAnalyzeMissingScript(t *testing.T) {
	client, err := rscript.New("Rscript", filepath.Join(t.TempDir(), "absent.R"), "main", 0, rscript.WithExecutor(&stubExecutor{}))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := client.Analyze(context.Background(), "demo"); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestAnalyzeReportsScriptFailure(t *testing.T) {
	exec := &stubExecutor{stderr: "line1\nline2\nline3\nError in main(): boom\n", err: errors.New("exit status 1")}
	client, err := rscript.New("Rscript", writeScript(t), "main", 0, rscript.WithExecutor(exec))
	if err != nil {
		t.Fatal(err)
	}
	_, err = client.Analyze(context.Background(), "demo")
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
	if !strings.Contains(err.Error(), "Error in main(): boom") || strings.Contains(err.Error(), "line1") {
		t.Fatalf("expected stderr tail in error, got %v", err)
	}
	if services.Kind(err) != "external_tool" {
		t.Fatalf("unexpected kind %q", services.Kind(err))
	}
}

func TestAnalyzeRunsRealProcess(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithRscriptStub(`[1] "score: 42"`, 0))
	if err := os.WriteFile(cfg.Analysis.ScriptPath, []byte("main <- function(dataset) 42\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	client, err := rscript.NewFromConfig(cfg)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	lines, err := client.Analyze(context.Background(), "demo")
	if err != nil {
		t.Fatalf("Analyze returned error: %v", err)
	}
	if !slices.Equal(lines, []string{`[1] "score: 42"`}) {
		t.Fatalf("unexpected output %q", lines)
	}
}

func TestAnalyzeTimeout(t *testing.T) {
	dir := t.TempDir()
	slow := filepath.Join(dir, "slow-rscript")
	testsupport.WriteExecutable(t, slow, "#!/bin/sh\nexec sleep 5\n")
	client, err := rscript.New(slow, writeScript(t), "main", 50*time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := client.Analyze(context.Background(), "demo"); !errors.Is(err, services.ErrTimeout) {
		t.Fatalf("expected timeout error, got %v", err)
	}
}

func TestNewFromConfigDisabled(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithAnalysisDisabled())
	if _, err := rscript.NewFromConfig(cfg); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}
