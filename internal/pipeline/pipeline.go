package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"framereel/internal/config"
	"framereel/internal/frames"
	"framereel/internal/gifenc"
	"framereel/internal/logging"
	"framereel/internal/raster"
	"framereel/internal/runlock"
	"framereel/internal/services"
)

// FrameEncoder is the streaming encoder contract used by Run.
type FrameEncoder interface {
	Start() error
	PushFrame(img image.Image) error
	Finish() error
}

// EncoderFactory builds an encoder writing to w for the resolved geometry.
type EncoderFactory func(w io.Writer, g raster.Geometry, opts gifenc.Options) (FrameEncoder, error)

// GIFEncoderFactory returns the streaming GIF encoder.
func GIFEncoderFactory(w io.Writer, g raster.Geometry, opts gifenc.Options) (FrameEncoder, error) {
	return gifenc.New(w, g.Width, g.Height, opts)
}

// Options carries per-run encoding and compositing settings.
type Options struct {
	OutputName string
	Delay      time.Duration
	LoopCount  int
	Palette    color.Palette
	Dither     bool
	Fit        raster.Fit
	Clear      bool
	Timeout    time.Duration
}

// Result summarises a successful run.
type Result struct {
	Dataset    string          `json:"dataset"`
	OutputPath string          `json:"output_path"`
	Frames     int             `json:"frames"`
	Geometry   raster.Geometry `json:"geometry"`
	Delay      time.Duration   `json:"delay"`
	Bytes      int64           `json:"bytes"`
	Duration   time.Duration   `json:"duration"`
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithDecoder replaces the PNG decoder.
func WithDecoder(dec raster.Decoder) Option {
	return func(p *Pipeline) {
		if dec != nil {
			p.decoder = dec
		}
	}
}

// WithEncoderFactory replaces the GIF encoder.
func WithEncoderFactory(factory EncoderFactory) Option {
	return func(p *Pipeline) {
		if factory != nil {
			p.newEncoder = factory
		}
	}
}

// WithLocks shares a lock manager, typically one backed by a lock directory.
func WithLocks(locks *runlock.Manager) Option {
	return func(p *Pipeline) {
		if locks != nil {
			p.locks = locks
		}
	}
}

// WithLogger sets the logger used for progress output.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logging.NewComponentLogger(logger, "pipeline")
	}
}

// Pipeline generates animated artifacts for datasets beneath one results root.
type Pipeline struct {
	source     *frames.Source
	decoder    raster.Decoder
	newEncoder EncoderFactory
	locks      *runlock.Manager
	opts       Options
	logger     *slog.Logger
}

// New builds a pipeline reading frames from source.
func New(source *frames.Source, opts Options, options ...Option) *Pipeline {
	if opts.OutputName == "" {
		opts.OutputName = "result.gif"
	}
	p := &Pipeline{
		source:     source,
		decoder:    raster.PNGDecoder{},
		newEncoder: GIFEncoderFactory,
		locks:      runlock.New(""),
		opts:       opts,
		logger:     logging.NewComponentLogger(nil, "pipeline"),
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

// NewFromConfig builds a pipeline from configuration, with cross-process
// dataset locks kept under the configured lock directory.
func NewFromConfig(cfg *config.Config, logger *slog.Logger, options ...Option) (*Pipeline, error) {
	if cfg == nil {
		return nil, errors.New("pipeline requires configuration")
	}
	pal, err := gifenc.PaletteByName(cfg.Animation.Palette)
	if err != nil {
		return nil, err
	}
	fit, err := raster.ParseFit(cfg.Animation.Fit)
	if err != nil {
		return nil, err
	}
	source := frames.NewSource(cfg.Paths.ResultsDir, cfg.Animation.FrameMarker, cfg.Animation.OutputName)
	opts := Options{
		OutputName: cfg.Animation.OutputName,
		Delay:      cfg.FrameDelay(),
		LoopCount:  cfg.Animation.LoopCount,
		Palette:    pal,
		Dither:     cfg.Animation.Dither,
		Fit:        fit,
		Clear:      cfg.Animation.ClearBetweenFrames,
		Timeout:    cfg.RunTimeout(),
	}
	base := []Option{WithLogger(logger), WithLocks(runlock.New(cfg.LockDir()))}
	return New(source, opts, append(base, options...)...), nil
}

// OutputPath returns where the artifact for datasetID is written.
func (p *Pipeline) OutputPath(datasetID string) (string, error) {
	dir, err := p.source.Dir(datasetID)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, p.opts.OutputName), nil
}

// Busy reports the datasets with a run in flight in this process.
func (p *Pipeline) Busy() []string {
	return p.locks.Active()
}

// Run generates the artifact for datasetID. It returns only after the artifact
// has been renamed into place, or after every temporary byte has been removed.
func (p *Pipeline) Run(ctx context.Context, datasetID string) (Result, error) {
	started := time.Now()
	if p.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.opts.Timeout)
		defer cancel()
	}
	ctx = services.WithDataset(ctx, datasetID)
	logger := logging.WithContext(ctx, p.logger)

	dir, err := p.source.Dir(datasetID)
	if err != nil {
		return Result{}, newError(KindNotFound, datasetID, "", err)
	}

	handle, err := p.locks.Acquire(datasetID)
	if err != nil {
		if errors.Is(err, runlock.ErrBusy) {
			return Result{}, newError(KindInProgress, datasetID, "", err)
		}
		return Result{}, newError(KindSink, datasetID, "", err)
	}
	defer func() {
		if err := handle.Release(); err != nil {
			logger.Warn("release dataset lock failed", logging.Error(err))
		}
	}()

	list, err := p.source.List(ctx, datasetID)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Result{}, newError(KindCanceled, datasetID, "", ctxErr)
		}
		return Result{}, newError(KindNotFound, datasetID, dir, err)
	}
	if len(list) == 0 {
		return Result{}, newError(KindEmptyDataset, datasetID, dir, nil)
	}

	geometry, err := raster.ResolveGeometry(p.decoder, list[0].Path)
	if err != nil {
		return Result{}, newError(KindDecode, datasetID, list[0].Path, err)
	}
	logger.Info("artifact generation started",
		logging.Int("frames", len(list)),
		logging.String("geometry", geometry.String()),
	)

	outputPath := filepath.Join(dir, p.opts.OutputName)
	written, err := p.render(ctx, logger, datasetID, list, geometry, outputPath)
	if err != nil {
		return Result{}, err
	}

	result := Result{
		Dataset:    datasetID,
		OutputPath: outputPath,
		Frames:     len(list),
		Geometry:   geometry,
		Delay:      p.opts.Delay,
		Bytes:      written,
		Duration:   time.Since(started),
	}
	logger.Info("artifact written",
		logging.String("path", outputPath),
		logging.Int64("bytes", written),
		logging.Duration("duration", result.Duration),
	)
	return result, nil
}

// render streams frames into a temporary sink and renames it onto outputPath.
func (p *Pipeline) render(ctx context.Context, logger *slog.Logger, datasetID string, list []frames.Frame, geometry raster.Geometry, outputPath string) (int64, error) {
	tempPath := filepath.Join(filepath.Dir(outputPath), fmt.Sprintf(".%s.tmp-%s", p.opts.OutputName, uuid.NewString()))
	sink, err := os.OpenFile(tempPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return 0, newError(KindSink, datasetID, tempPath, fmt.Errorf("open sink: %w", err))
	}
	committed := false
	defer func() {
		if committed {
			return
		}
		_ = sink.Close()
		if err := os.Remove(tempPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			logger.Warn("remove partial artifact failed", logging.String("path", tempPath), logging.Error(err))
		}
	}()

	counter := &countingWriter{w: sink}
	enc, err := p.newEncoder(counter, geometry, gifenc.Options{
		Delay:     p.opts.Delay,
		LoopCount: p.opts.LoopCount,
		Palette:   p.opts.Palette,
		Dither:    p.opts.Dither,
	})
	if err != nil {
		return 0, newError(KindSink, datasetID, tempPath, fmt.Errorf("create encoder: %w", err))
	}
	if err := enc.Start(); err != nil {
		return 0, newError(KindSink, datasetID, tempPath, err)
	}

	comp := raster.NewCompositor(geometry, raster.CompositorOptions{Fit: p.opts.Fit, Clear: p.opts.Clear})
	for _, frame := range list {
		if err := ctx.Err(); err != nil {
			return 0, newError(KindCanceled, datasetID, frame.Path, err)
		}
		img, err := raster.DecodeFile(p.decoder, frame.Path)
		if err != nil {
			return 0, newError(KindDecode, datasetID, frame.Path, err)
		}
		surface, err := comp.Paint(img)
		if err != nil {
			return 0, newError(KindDecode, datasetID, frame.Path, err)
		}
		if err := enc.PushFrame(surface); err != nil {
			return 0, newError(KindSink, datasetID, tempPath, err)
		}
		logger.Debug("frame added",
			logging.String("frame", frame.Name),
			logging.Int("index", frame.Index),
		)
	}

	if err := enc.Finish(); err != nil {
		return 0, newError(KindSink, datasetID, tempPath, err)
	}
	if err := sink.Sync(); err != nil {
		return 0, newError(KindSink, datasetID, tempPath, fmt.Errorf("sync sink: %w", err))
	}
	if err := sink.Close(); err != nil {
		return 0, newError(KindSink, datasetID, tempPath, fmt.Errorf("close sink: %w", err))
	}
	if err := os.Rename(tempPath, outputPath); err != nil {
		return 0, newError(KindSink, datasetID, outputPath, fmt.Errorf("replace artifact: %w", err))
	}
	committed = true
	return counter.n, nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
