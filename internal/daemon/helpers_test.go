package daemon

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"framereel/internal/config"
	"framereel/internal/notifications"
	"framereel/internal/pipeline"
	"framereel/internal/raster"
	"framereel/internal/testsupport"
)

type stubGenerator struct {
	mu     sync.Mutex
	calls  []string
	result pipeline.Result
	err    error
}

func (g *stubGenerator) Run(_ context.Context, id string) (pipeline.Result, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, id)
	if g.err != nil {
		return pipeline.Result{}, g.err
	}
	res := g.result
	res.Dataset = id
	return res, nil
}

func (g *stubGenerator) Busy() []string { return nil }

type stubAnalyzer struct {
	lines []string
	err   error
}

func (a *stubAnalyzer) Analyze(context.Context, string) ([]string, error) {
	return a.lines, a.err
}

type publishedEvent struct {
	event   notifications.Event
	payload notifications.Payload
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (n *recordingNotifier) Publish(_ context.Context, event notifications.Event, payload notifications.Payload) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, publishedEvent{event: event, payload: payload})
	return nil
}

func (n *recordingNotifier) Close() error { return nil }

func (n *recordingNotifier) kinds() []notifications.Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]notifications.Event, 0, len(n.events))
	for _, e := range n.events {
		out = append(out, e.event)
	}
	return out
}

func okResult() pipeline.Result {
	return pipeline.Result{
		OutputPath: "/results/demo/result.gif",
		Frames:     3,
		Geometry:   raster.Geometry{Width: 100, Height: 80},
		Bytes:      1234,
	}
}

// newTestDaemon builds a daemon over temp directories with a recording notifier.
func newTestDaemon(t *testing.T, cfg *config.Config, opts ...Option) (*Daemon, *recordingNotifier) {
	t.Helper()
	if cfg == nil {
		cfg = testsupport.NewConfig(t)
	}
	store := testsupport.MustOpenStore(t, cfg)
	notifier := &recordingNotifier{}
	d, err := New(cfg, store, nil, append([]Option{WithNotifier(notifier)}, opts...)...)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	return d, notifier
}

func serve(d *Daemon, method, target string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	for k, v := range header {
		for _, s := range v {
			req.Header.Add(k, s)
		}
	}
	w := httptest.NewRecorder()
	d.api.handler.ServeHTTP(w, req)
	return w
}
