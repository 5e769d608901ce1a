package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"image/gif"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"framereel/internal/api"
	"framereel/internal/pipeline"
	"framereel/internal/services"
	"framereel/internal/testsupport"
)

func decode[T any](t *testing.T, body []byte) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatalf("decode %s: %v", body, err)
	}
	return out
}

func TestGenerateEndToEnd(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	dir := filepath.Join(cfg.Paths.ResultsDir, "demo")
	testsupport.WritePNGFrames(t, dir, 100, 80, "frame_1.png", "frame_2.png", "frame_10.png")
	d, notifier := newTestDaemon(t, cfg)

	w := serve(d, http.MethodGet, "/gif/demo", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := decode[api.GenerateResponse](t, w.Body.Bytes())
	if resp.Message != "GIF Generated!" || resp.ID != "demo" || resp.Job == "" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if resp.Frames != 3 || resp.Width != 100 || resp.Height != 80 {
		t.Fatalf("unexpected run details: %+v", resp)
	}
	if w.Header().Get(requestIDHeader) == "" {
		t.Fatal("expected request id header")
	}

	static := serve(d, http.MethodGet, "/demo/result.gif", nil)
	if static.Code != http.StatusOK {
		t.Fatalf("expected artifact to be served, got %d", static.Code)
	}
	anim, err := gif.DecodeAll(static.Body)
	if err != nil {
		t.Fatalf("decode served gif: %v", err)
	}
	if len(anim.Image) != 3 || anim.Delay[0] != 20 {
		t.Fatalf("unexpected animation: %d frames, delay %v", len(anim.Image), anim.Delay)
	}

	if got := notifier.kinds(); len(got) != 1 {
		t.Fatalf("expected one notification, got %v", got)
	}

	jobResp := serve(d, http.MethodGet, "/api/jobs/"+resp.Job, nil)
	if jobResp.Code != http.StatusOK {
		t.Fatalf("expected job lookup to succeed, got %d", jobResp.Code)
	}
	job := decode[api.JobResponse](t, jobResp.Body.Bytes()).Job
	if job.Status != "succeeded" || job.Frames != 3 {
		t.Fatalf("unexpected job: %+v", job)
	}
}

func TestGenerateStatusCodes(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
		kind string
	}{
		{"not found", &pipeline.Error{Kind: pipeline.KindNotFound, Dataset: "x"}, http.StatusNotFound, "not_found"},
		{"empty", &pipeline.Error{Kind: pipeline.KindEmptyDataset, Dataset: "x"}, http.StatusUnprocessableEntity, "empty_dataset"},
		{"decode", &pipeline.Error{Kind: pipeline.KindDecode, Dataset: "x", Err: errors.New("bad")}, http.StatusUnprocessableEntity, "decode"},
		{"in progress", &pipeline.Error{Kind: pipeline.KindInProgress, Dataset: "x"}, http.StatusConflict, "in_progress"},
		{"sink", &pipeline.Error{Kind: pipeline.KindSink, Dataset: "x", Err: errors.New("disk full")}, http.StatusInternalServerError, "sink"},
		{"timeout", &pipeline.Error{Kind: pipeline.KindCanceled, Dataset: "x", Err: context.DeadlineExceeded}, http.StatusGatewayTimeout, "canceled"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d, _ := newTestDaemon(t, nil, WithGenerator(&stubGenerator{err: tc.err}))
			w := serve(d, http.MethodGet, "/gif/x", nil)
			if w.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, w.Code)
			}
			body := decode[api.ErrorResponse](t, w.Body.Bytes())
			if body.Kind != tc.kind || body.Error == "" {
				t.Fatalf("unexpected error body: %+v", body)
			}
		})
	}
}

func TestGenerateRejectsInvalidID(t *testing.T) {
	gen := &stubGenerator{}
	d, _ := newTestDaemon(t, nil, WithGenerator(gen))
	w := serve(d, http.MethodGet, "/gif/bad%20id", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	if len(gen.calls) != 0 {
		t.Fatal("pipeline must not run for an invalid id")
	}
}

func TestAnalyzeEndpoint(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		d, _ := newTestDaemon(t, nil, WithGenerator(&stubGenerator{}), WithAnalyzer(&stubAnalyzer{lines: []string{"[1] 42"}}))
		w := serve(d, http.MethodGet, "/r/demo", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
		}
		resp := decode[api.AnalysisResponse](t, w.Body.Bytes())
		if resp.ID != "demo" || len(resp.Result) != 1 || resp.Result[0] != "[1] 42" {
			t.Fatalf("unexpected response: %+v", resp)
		}
	})

	t.Run("script failure", func(t *testing.T) {
		failure := services.Wrap(services.ErrExternalTool, "analysis", "run", "boom", errors.New("exit status 1"))
		d, _ := newTestDaemon(t, nil, WithGenerator(&stubGenerator{}), WithAnalyzer(&stubAnalyzer{err: failure}))
		w := serve(d, http.MethodGet, "/r/demo", nil)
		if w.Code != http.StatusBadGateway {
			t.Fatalf("expected 502, got %d", w.Code)
		}
	})

	t.Run("disabled", func(t *testing.T) {
		cfg := testsupport.NewConfig(t, testsupport.WithAnalysisDisabled())
		d, _ := newTestDaemon(t, cfg, WithGenerator(&stubGenerator{}))
		w := serve(d, http.MethodGet, "/r/demo", nil)
		if w.Code != http.StatusServiceUnavailable {
			t.Fatalf("expected 503, got %d", w.Code)
		}
		if body := decode[api.ErrorResponse](t, w.Body.Bytes()); body.Kind != "disabled" {
			t.Fatalf("unexpected kind: %+v", body)
		}
	})

	t.Run("real script", func(t *testing.T) {
		cfg := testsupport.NewConfig(t, testsupport.WithRscriptStub(`[1] "accuracy: 0.93"`, 0))
		testsupport.WriteFile(t, cfg.Analysis.ScriptPath, []byte("main <- function(dataset) dataset\n"))
		d, _ := newTestDaemon(t, cfg, WithGenerator(&stubGenerator{}))
		w := serve(d, http.MethodGet, "/r/demo", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
		}
		resp := decode[api.AnalysisResponse](t, w.Body.Bytes())
		if len(resp.Result) != 1 || resp.Result[0] != `[1] "accuracy: 0.93"` {
			t.Fatalf("unexpected result lines: %q", resp.Result)
		}
	})
}

func TestResultViews(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	dir := filepath.Join(cfg.Paths.ResultsDir, "demo")
	testsupport.WritePNGFrames(t, dir, 10, 10, "frame_1.png")
	testsupport.WriteResultText(t, dir, "accuracy: 0.93", "p_value: 0.01")
	d, _ := newTestDaemon(t, cfg, WithGenerator(&stubGenerator{}))

	w := serve(d, http.MethodGet, "/api/results/demo", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	view := decode[api.ResultView](t, w.Body.Bytes())
	if view.GIF != "/demo/result.gif" || view.GIFExists {
		t.Fatalf("unexpected gif fields: %+v", view)
	}
	if len(view.Data) != 2 || view.Data[0].Key != "accuracy" || view.Data[0].Value != "0.93" {
		t.Fatalf("unexpected data: %+v", view.Data)
	}
	if view.Data[1].Label != "P Value" {
		t.Fatalf("unexpected label: %q", view.Data[1].Label)
	}

	page := serve(d, http.MethodGet, "/result/demo", nil)
	if page.Code != http.StatusOK {
		t.Fatalf("expected page, got %d", page.Code)
	}
	html := page.Body.String()
	for _, want := range []string{"Result demo", "P Value", "0.01", `href="/gif/demo"`} {
		if !strings.Contains(html, want) {
			t.Fatalf("page missing %q:\n%s", want, html)
		}
	}

	if w := serve(d, http.MethodGet, "/result/missing", nil); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for missing dataset, got %d", w.Code)
	}
	if w := serve(d, http.MethodGet, "/api/results/missing", nil); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for missing dataset json, got %d", w.Code)
	}
}

func TestResultPageEscapesMetadata(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	dir := filepath.Join(cfg.Paths.ResultsDir, "demo")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	testsupport.WriteResultText(t, dir, "note: <script>alert(1)</script>")
	d, _ := newTestDaemon(t, cfg, WithGenerator(&stubGenerator{}))

	page := serve(d, http.MethodGet, "/result/demo", nil)
	if strings.Contains(page.Body.String(), "<script>alert") {
		t.Fatal("metadata must be HTML escaped")
	}
}

func TestStaticServingRestrictions(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	dir := filepath.Join(cfg.Paths.ResultsDir, "demo")
	testsupport.WritePNGFrames(t, dir, 4, 4, "frame_1.png")
	testsupport.WriteFile(t, filepath.Join(dir, ".secret"), []byte("hidden"))
	testsupport.WriteFile(t, filepath.Join(dir, "nested", "x.png"), []byte("x"))
	d, _ := newTestDaemon(t, cfg, WithGenerator(&stubGenerator{}))

	if w := serve(d, http.MethodGet, "/demo/frame_1.png", nil); w.Code != http.StatusOK {
		t.Fatalf("expected frame to be served, got %d", w.Code)
	}
	for _, target := range []string{"/demo/.secret", "/demo/nested", "/demo/missing.png", "/bad%20id/result.gif"} {
		if w := serve(d, http.MethodGet, target, nil); w.Code != http.StatusNotFound {
			t.Fatalf("%s: expected 404, got %d", target, w.Code)
		}
	}
}

func TestAPIAuth(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithAPIToken("secret"))
	d, _ := newTestDaemon(t, cfg, WithGenerator(&stubGenerator{}))

	if w := serve(d, http.MethodGet, "/api/jobs", nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", w.Code)
	}
	bad := http.Header{"Authorization": {"Bearer nope"}}
	if w := serve(d, http.MethodGet, "/api/jobs", bad); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with wrong token, got %d", w.Code)
	}
	good := http.Header{"Authorization": {"Bearer secret"}}
	if w := serve(d, http.MethodGet, "/api/jobs", good); w.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d", w.Code)
	}
}

func TestJobsEndpoint(t *testing.T) {
	d, _ := newTestDaemon(t, nil, WithGenerator(&stubGenerator{result: okResult()}))
	ctx := context.Background()
	for _, id := range []string{"a", "b", "a"} {
		if _, _, err := d.Generate(ctx, id); err != nil {
			t.Fatalf("Generate(%s): %v", id, err)
		}
	}

	w := serve(d, http.MethodGet, "/api/jobs?dataset=a&status=succeeded&limit=1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	list := decode[api.JobListResponse](t, w.Body.Bytes()).Jobs
	if len(list) != 1 || list[0].Dataset != "a" {
		t.Fatalf("unexpected jobs: %+v", list)
	}

	for _, target := range []string{"/api/jobs?status=bogus", "/api/jobs?limit=-1", "/api/jobs?limit=x"} {
		if w := serve(d, http.MethodGet, target, nil); w.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", target, w.Code)
		}
	}
	if w := serve(d, http.MethodGet, "/api/jobs/unknown", nil); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown job, got %d", w.Code)
	}
}

func TestStatusEndpoint(t *testing.T) {
	d, _ := newTestDaemon(t, nil, WithGenerator(&stubGenerator{}))
	w := serve(d, http.MethodGet, "/api/status", http.Header{requestIDHeader: {"req-42"}})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if w.Header().Get(requestIDHeader) != "req-42" {
		t.Fatalf("expected request id to be echoed, got %q", w.Header().Get(requestIDHeader))
	}
	status := decode[api.DaemonStatus](t, w.Body.Bytes())
	if status.PID == 0 || status.JobsDBPath == "" || len(status.Checks) == 0 {
		t.Fatalf("unexpected status: %+v", status)
	}
	if status.InFlight == nil {
		t.Fatal("expected empty in-flight list, not null")
	}
}

func TestMethodNotAllowed(t *testing.T) {
	d, _ := newTestDaemon(t, nil, WithGenerator(&stubGenerator{}))
	if w := serve(d, http.MethodPost, "/gif/demo", nil); w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", w.Code)
	}
}

func TestRequestIDPropagation(t *testing.T) {
	d, _ := newTestDaemon(t, nil, WithGenerator(&stubGenerator{}))

	cases := []struct {
		name   string
		header http.Header
		echo   bool
	}{
		{name: "canonical key", header: http.Header{"X-Request-Id": {"req-canonical"}}, echo: true},
		{name: "constant spelling", header: http.Header{requestIDHeader: {"req-constant"}}, echo: true},
		{name: "oversized", header: http.Header{requestIDHeader: {strings.Repeat("x", 129)}}},
		{name: "missing"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := serve(d, http.MethodGet, "/api/status", tc.header)
			got := w.Header().Get(requestIDHeader)
			if got == "" {
				t.Fatal("expected a request id on every response")
			}
			var sent string
			for _, v := range tc.header {
				sent = v[0]
			}
			if tc.echo && got != sent {
				t.Fatalf("expected %q echoed, got %q", sent, got)
			}
			if !tc.echo && got == sent {
				t.Fatalf("expected a generated id, got %q", got)
			}
		})
	}
}
