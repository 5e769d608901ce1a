package daemonctl

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"framereel/internal/api"
	"framereel/internal/apiclient"
	"framereel/internal/jobs"
	"framereel/internal/testsupport"
)

type fakeStatus struct {
	calls   int
	readyAt int
	status  api.DaemonStatus
	err     error
}

func (f *fakeStatus) Status(context.Context) (api.DaemonStatus, error) {
	f.calls++
	if f.calls < f.readyAt {
		return api.DaemonStatus{}, apiclient.ErrAPIUnavailable
	}
	return f.status, f.err
}

func TestWaitReadyPollsUntilRunning(t *testing.T) {
	client := &fakeStatus{readyAt: 3, status: api.DaemonStatus{Running: true, PID: 42}}
	status, err := WaitReady(context.Background(), client, 5*time.Second)
	if err != nil {
		t.Fatalf("WaitReady: %v", err)
	}
	if status.PID != 42 || client.calls != 3 {
		t.Fatalf("unexpected status %+v after %d calls", status, client.calls)
	}
}

func TestWaitReadyTimesOut(t *testing.T) {
	client := &fakeStatus{readyAt: 1 << 30}
	_, err := WaitReady(context.Background(), client, 300*time.Millisecond)
	if err == nil || !errors.Is(err, apiclient.ErrAPIUnavailable) {
		t.Fatalf("expected wrapped unavailable error, got %v", err)
	}
}

func TestEnsureStartedReportsRunningDaemon(t *testing.T) {
	client := &fakeStatus{status: api.DaemonStatus{Running: true, PID: 7}}
	res, err := EnsureStarted(context.Background(), client, "", LaunchOptions{}, time.Second)
	if err != nil {
		t.Fatalf("EnsureStarted: %v", err)
	}
	if res.State != StartStateAlreadyRunning || res.PID != 7 {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestLaunchRequiresExecutable(t *testing.T) {
	if err := Launch("  ", LaunchOptions{}); err == nil {
		t.Fatal("expected error for empty executable")
	}
}

func TestReadPID(t *testing.T) {
	dir := t.TempDir()
	if pid, err := ReadPID(filepath.Join(dir, "missing.pid")); err != nil || pid != 0 {
		t.Fatalf("missing pid file: pid=%d err=%v", pid, err)
	}
	bad := filepath.Join(dir, "bad.pid")
	if err := os.WriteFile(bad, []byte("nope"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadPID(bad); err == nil {
		t.Fatal("expected parse error")
	}
	good := filepath.Join(dir, "good.pid")
	if err := os.WriteFile(good, []byte("1234\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if pid, err := ReadPID(good); err != nil || pid != 1234 {
		t.Fatalf("pid=%d err=%v", pid, err)
	}
}

func TestStopWithoutDaemon(t *testing.T) {
	client := &fakeStatus{readyAt: 1 << 30}
	_, err := Stop(context.Background(), client, filepath.Join(t.TempDir(), "framereeld.pid"), time.Second)
	if !errors.Is(err, ErrDaemonNotRunning) {
		t.Fatalf("expected ErrDaemonNotRunning, got %v", err)
	}
}

func TestStopRefusesCurrentProcess(t *testing.T) {
	pidPath := filepath.Join(t.TempDir(), "framereeld.pid")
	if err := os.WriteFile(pidPath, []byte(strconv.Itoa(os.Getpid())), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Stop(context.Background(), &fakeStatus{}, pidPath, time.Second); err == nil {
		t.Fatal("expected refusal to signal the current process")
	}
}

func TestStopTerminatesProcess(t *testing.T) {
	sleep, err := exec.LookPath("sleep")
	if err != nil {
		t.Skip("sleep not available")
	}
	cmd := exec.Command(sleep, "30")
	if err := cmd.Start(); err != nil {
		t.Fatalf("start sleep: %v", err)
	}
	exited := make(chan struct{})
	go func() {
		_ = cmd.Wait()
		close(exited)
	}()

	pidPath := filepath.Join(t.TempDir(), "framereeld.pid")
	if err := os.WriteFile(pidPath, []byte(strconv.Itoa(cmd.Process.Pid)), 0o644); err != nil {
		t.Fatal(err)
	}
	res, err := Stop(context.Background(), &fakeStatus{}, pidPath, 5*time.Second)
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if res.PID != cmd.Process.Pid || res.ForcedKill {
		t.Fatalf("unexpected result %+v", res)
	}
	select {
	case <-exited:
	case <-time.After(5 * time.Second):
		t.Fatal("process still running")
	}
}

func TestBuildStatusSnapshotFallsBackOffline(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	testsupport.NewJob(t, store, "demo", jobs.KindGIF)

	status, err := BuildStatusSnapshot(context.Background(), &fakeStatus{readyAt: 1 << 30}, cfg)
	if err != nil {
		t.Fatalf("BuildStatusSnapshot: %v", err)
	}
	if status.Running {
		t.Fatal("offline snapshot must not report running")
	}
	if status.Jobs.Total != 1 || status.Jobs.Running != 1 {
		t.Fatalf("unexpected job summary %+v", status.Jobs)
	}
	if len(status.Checks) == 0 || len(status.Dependencies) == 0 {
		t.Fatalf("expected local checks, got %+v", status)
	}
}

func TestBuildStatusSnapshotPrefersDaemon(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	client := &fakeStatus{status: api.DaemonStatus{Running: true, PID: 99}}
	status, err := BuildStatusSnapshot(context.Background(), client, cfg)
	if err != nil {
		t.Fatalf("BuildStatusSnapshot: %v", err)
	}
	if !status.Running || status.PID != 99 {
		t.Fatalf("unexpected status %+v", status)
	}
}

func TestBuildStatusSnapshotSurfacesAPIErrors(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	client := &fakeStatus{err: &apiclient.Error{Status: 401, Message: "unauthorized"}}
	if _, err := BuildStatusSnapshot(context.Background(), client, cfg); apiclient.StatusCode(err) != 401 {
		t.Fatalf("expected 401 error, got %v", err)
	}
}
