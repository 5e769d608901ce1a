package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"framereel/internal/api"
	"framereel/internal/config"
	"framereel/internal/frames"
	"framereel/internal/jobs"
	"framereel/internal/logging"
	"framereel/internal/pipeline"
	"framereel/internal/services"
)

const maxJobListLimit = 500

type apiServer struct {
	bind    string
	logger  *slog.Logger
	daemon  *Daemon
	jobSvc  *api.JobService
	results fs.FS
	handler http.Handler

	mu       sync.Mutex
	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) *apiServer {
	srv := &apiServer{
		bind:    strings.TrimSpace(cfg.Paths.APIBind),
		logger:  logging.NewComponentLogger(logger, "api-server"),
		daemon:  d,
		jobSvc:  api.NewJobService(d.store),
		results: os.DirFS(cfg.Paths.ResultsDir),
	}

	token := cfg.Paths.APIToken
	mux := http.NewServeMux()
	mux.HandleFunc("GET /gif/{id}", srv.handleGenerate)
	mux.HandleFunc("GET /result/{id}", srv.handleResultPage)
	mux.HandleFunc("GET /r/{id}", srv.handleAnalyze)
	mux.HandleFunc("GET /api/results/{id}", authMiddleware(token, srv.handleResultJSON))
	mux.HandleFunc("GET /api/status", authMiddleware(token, srv.handleStatus))
	mux.HandleFunc("GET /api/jobs", authMiddleware(token, srv.handleJobs))
	mux.HandleFunc("GET /api/jobs/{id}", authMiddleware(token, srv.handleJob))
	mux.HandleFunc("GET /{id}/{file}", srv.handleStatic)
	srv.handler = requestIDMiddleware(mux)
	return srv
}

func (s *apiServer) start(ctx context.Context) error {
	if s.bind == "" {
		s.logger.Info("api server disabled; paths.api_bind is empty")
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	server := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		// No write timeout: /gif and /r hold the response until the run ends.
		IdleTimeout: 60 * time.Second,
		BaseContext: func(net.Listener) context.Context { return ctx },
	}
	s.mu.Lock()
	s.listener = listener
	s.server = server
	s.mu.Unlock()

	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	s.mu.Lock()
	server, listener := s.server, s.listener
	s.server, s.listener = nil, nil
	s.mu.Unlock()

	if server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}
	if listener != nil {
		_ = listener.Close()
	}
}

func (s *apiServer) addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *apiServer) handleGenerate(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	job, result, err := s.daemon.Generate(r.Context(), id)
	if err != nil {
		s.writeError(w, generateStatus(err), err.Error(), string(pipeline.KindOf(err)))
		return
	}
	s.writeJSON(w, http.StatusOK, api.GenerateResponse{
		Message:    api.GenerateMessage,
		ID:         id,
		Job:        job.ID,
		Frames:     result.Frames,
		Width:      result.Geometry.Width,
		Height:     result.Geometry.Height,
		Bytes:      result.Bytes,
		DurationMS: result.Duration.Milliseconds(),
	})
}

func (s *apiServer) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	job, lines, err := s.daemon.Analyze(r.Context(), id)
	if err != nil {
		kind := services.Kind(err)
		if errors.Is(err, ErrAnalysisDisabled) {
			kind = "disabled"
		}
		s.writeError(w, analysisStatus(err), err.Error(), kind)
		return
	}
	if lines == nil {
		lines = []string{}
	}
	s.writeJSON(w, http.StatusOK, api.AnalysisResponse{ID: id, Result: lines, Job: job.ID})
}

func (s *apiServer) handleResultPage(w http.ResponseWriter, r *http.Request) {
	view, err := s.daemon.Result(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, ErrDatasetNotFound) {
			http.NotFound(w, r)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if err := renderResult(w, view); err != nil {
		s.logger.Error("failed to render result page", logging.Error(err))
	}
}

func (s *apiServer) handleResultJSON(w http.ResponseWriter, r *http.Request) {
	view, err := s.daemon.Result(r.Context(), r.PathValue("id"))
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, ErrDatasetNotFound) {
			status = http.StatusNotFound
		}
		s.writeError(w, status, err.Error(), "")
		return
	}
	s.writeJSON(w, http.StatusOK, view)
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	status := s.daemon.Status(r.Context())
	inFlight := status.InFlight
	if inFlight == nil {
		inFlight = []string{}
	}
	s.writeJSON(w, http.StatusOK, api.DaemonStatus{
		Running:      status.Running,
		PID:          status.PID,
		ResultsDir:   status.ResultsDir,
		JobsDBPath:   status.JobsDBPath,
		LockFilePath: status.LockFilePath,
		InFlight:     inFlight,
		Jobs:         api.FromSummary(status.Jobs),
		Dependencies: api.FromDependencies(status.Dependencies),
		Checks:       api.FromChecks(status.Checks),
	})
}

func (s *apiServer) handleJobs(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := jobs.Filter{Dataset: strings.TrimSpace(query.Get("dataset"))}
	if value := strings.TrimSpace(query.Get("status")); value != "" {
		status, ok := jobs.ParseStatus(value)
		if !ok {
			s.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid status %q", value), "validation")
			return
		}
		filter.Status = status
	}
	if value := strings.TrimSpace(query.Get("limit")); value != "" {
		limit, err := strconv.Atoi(value)
		if err != nil || limit <= 0 {
			s.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid limit %q", value), "validation")
			return
		}
		filter.Limit = min(limit, maxJobListLimit)
	}

	list, err := s.jobSvc.List(r.Context(), filter)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error(), "")
		return
	}
	s.writeJSON(w, http.StatusOK, api.JobListResponse{Jobs: list})
}

func (s *apiServer) handleJob(w http.ResponseWriter, r *http.Request) {
	job, err := s.jobSvc.Describe(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error(), "")
		return
	}
	if job == nil {
		s.writeError(w, http.StatusNotFound, "job not found", "not_found")
		return
	}
	s.writeJSON(w, http.StatusOK, api.JobResponse{Job: *job})
}

// handleStatic serves files directly inside a dataset directory. Hidden files
// and subdirectories are not served.
func (s *apiServer) handleStatic(w http.ResponseWriter, r *http.Request) {
	id, file := r.PathValue("id"), r.PathValue("file")
	if frames.ValidateDatasetID(id) != nil || file == "" || strings.HasPrefix(file, ".") {
		http.NotFound(w, r)
		return
	}
	name := id + "/" + file
	info, err := fs.Stat(s.results, name)
	if err != nil || !info.Mode().IsRegular() {
		http.NotFound(w, r)
		return
	}
	// Artifacts are replaced in place, so clients must revalidate.
	w.Header().Set("Cache-Control", "no-cache")
	http.ServeFileFS(w, r, s.results, name)
}

func generateStatus(err error) int {
	switch pipeline.KindOf(err) {
	case pipeline.KindNotFound:
		return http.StatusNotFound
	case pipeline.KindEmptyDataset, pipeline.KindDecode:
		return http.StatusUnprocessableEntity
	case pipeline.KindInProgress:
		return http.StatusConflict
	case pipeline.KindCanceled:
		if errors.Is(err, context.DeadlineExceeded) {
			return http.StatusGatewayTimeout
		}
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func analysisStatus(err error) int {
	switch {
	case errors.Is(err, ErrAnalysisDisabled):
		return http.StatusServiceUnavailable
	case errors.Is(err, services.ErrValidation):
		return http.StatusNotFound
	case errors.Is(err, services.ErrTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, services.ErrConfiguration):
		return http.StatusServiceUnavailable
	case errors.Is(err, services.ErrExternalTool):
		return http.StatusBadGateway
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message, kind string) {
	s.writeJSON(w, status, api.ErrorResponse{Error: message, Kind: kind})
}
