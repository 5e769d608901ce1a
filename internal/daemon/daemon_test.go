package daemon

import (
	"context"
	"errors"
	"testing"

	"framereel/internal/jobs"
	"framereel/internal/notifications"
	"framereel/internal/pipeline"
	"framereel/internal/services"
	"framereel/internal/testsupport"
)

func TestDaemonStartStop(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	d, _ := newTestDaemon(t, cfg, WithGenerator(&stubGenerator{}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if d.Addr() == "" {
		t.Fatal("expected API listener address")
	}
	status := d.Status(ctx)
	if !status.Running {
		t.Fatal("expected daemon to report running")
	}

	if err := d.Start(ctx); err == nil {
		t.Fatal("expected second start to fail")
	}

	// A second daemon over the same log directory must not start.
	other, _ := newTestDaemon(t, cfg, WithGenerator(&stubGenerator{}))
	if err := other.Start(ctx); err == nil {
		t.Fatal("expected lock contention to prevent a second instance")
	}

	d.Stop()
	if d.Status(ctx).Running {
		t.Fatal("expected daemon to be stopped")
	}
	if d.Addr() != "" {
		t.Fatal("expected listener to be closed")
	}
}

func TestStartMarksInterruptedJobs(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	d, _ := newTestDaemon(t, cfg, WithGenerator(&stubGenerator{}))
	orphan := testsupport.NewJob(t, d.store, "demo", jobs.KindGIF)

	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer d.Stop()

	job, err := d.store.Get(context.Background(), orphan.ID)
	if err != nil || job == nil {
		t.Fatalf("Get: %v", err)
	}
	if job.Status != jobs.StatusFailed || job.ErrorKind != "interrupted" {
		t.Fatalf("expected interrupted failure, got %#v", job)
	}
}

func TestGenerateRecordsSuccess(t *testing.T) {
	gen := &stubGenerator{result: okResult()}
	d, notifier := newTestDaemon(t, nil, WithGenerator(gen))

	job, result, err := d.Generate(context.Background(), "demo")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if result.Frames != 3 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if job.Status != jobs.StatusSucceeded || job.Frames != 3 || job.Width != 100 || job.Bytes != 1234 {
		t.Fatalf("unexpected job: %#v", job)
	}
	if got := notifier.kinds(); len(got) != 1 || got[0] != notifications.EventArtifactReady {
		t.Fatalf("unexpected notifications: %v", got)
	}
}

func TestGenerateRecordsFailureKind(t *testing.T) {
	runErr := &pipeline.Error{Kind: pipeline.KindDecode, Dataset: "demo", Path: "frame_3.png", Err: errors.New("bad crc")}
	d, notifier := newTestDaemon(t, nil, WithGenerator(&stubGenerator{err: runErr}))

	job, _, err := d.Generate(context.Background(), "demo")
	if !errors.Is(err, pipeline.ErrDecode) {
		t.Fatalf("expected decode error, got %v", err)
	}
	if job == nil || job.Status != jobs.StatusFailed || job.ErrorKind != "decode" {
		t.Fatalf("unexpected job: %#v", job)
	}
	if got := notifier.kinds(); len(got) != 1 || got[0] != notifications.EventError {
		t.Fatalf("expected error notification, got %v", got)
	}
}

func TestGenerateSkipsNotificationForRejections(t *testing.T) {
	runErr := &pipeline.Error{Kind: pipeline.KindInProgress, Dataset: "demo", Err: errors.New("busy")}
	d, notifier := newTestDaemon(t, nil, WithGenerator(&stubGenerator{err: runErr}))

	if _, _, err := d.Generate(context.Background(), "demo"); !errors.Is(err, pipeline.ErrInProgress) {
		t.Fatalf("expected in-progress error, got %v", err)
	}
	if got := notifier.kinds(); len(got) != 0 {
		t.Fatalf("expected no notifications, got %v", got)
	}
}

func TestGenerateRejectsInvalidIDWithoutJob(t *testing.T) {
	gen := &stubGenerator{}
	d, _ := newTestDaemon(t, nil, WithGenerator(gen))

	job, _, err := d.Generate(context.Background(), "../etc")
	if !errors.Is(err, pipeline.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if job != nil || len(gen.calls) != 0 {
		t.Fatalf("invalid id must not create a job or run the pipeline")
	}
	summary, _ := d.store.Summary(context.Background())
	if summary.Total != 0 {
		t.Fatalf("expected no jobs, got %+v", summary)
	}
}

func TestAnalyzeDisabled(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithAnalysisDisabled())
	d, _ := newTestDaemon(t, cfg, WithGenerator(&stubGenerator{}))
	if _, _, err := d.Analyze(context.Background(), "demo"); !errors.Is(err, ErrAnalysisDisabled) {
		t.Fatalf("expected ErrAnalysisDisabled, got %v", err)
	}
}

func TestAnalyzeRecordsJobs(t *testing.T) {
	analyzer := &stubAnalyzer{lines: []string{`[1] "p: 0.01"`}}
	d, notifier := newTestDaemon(t, nil, WithGenerator(&stubGenerator{}), WithAnalyzer(analyzer))

	job, lines, err := d.Analyze(context.Background(), "demo")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(lines) != 1 || job.Kind != jobs.KindAnalysis || job.Status != jobs.StatusSucceeded {
		t.Fatalf("unexpected analysis outcome: %v %#v", lines, job)
	}

	analyzer.err = services.Wrap(services.ErrExternalTool, "analysis", "run", "object not found", errors.New("exit status 1"))
	job, _, err = d.Analyze(context.Background(), "demo")
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
	if job.Status != jobs.StatusFailed || job.ErrorKind != "external_tool" {
		t.Fatalf("unexpected failed job: %#v", job)
	}
	got := notifier.kinds()
	if len(got) != 2 || got[0] != notifications.EventAnalysisCompleted || got[1] != notifications.EventError {
		t.Fatalf("unexpected notifications: %v", got)
	}
}
