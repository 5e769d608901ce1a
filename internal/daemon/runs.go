package daemon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"framereel/internal/api"
	"framereel/internal/frames"
	"framereel/internal/jobs"
	"framereel/internal/logging"
	"framereel/internal/metadata"
	"framereel/internal/notifications"
	"framereel/internal/pipeline"
	"framereel/internal/services"
)

// ErrAnalysisDisabled is returned by Analyze when no analyzer is configured.
var ErrAnalysisDisabled = errors.New("analysis disabled")

// ErrDatasetNotFound reports an invalid or missing dataset directory.
var ErrDatasetNotFound = errors.New("dataset not found")

// Generate runs the pipeline for datasetID and records the run as a job.
// The returned job is nil only when the dataset id is rejected outright.
func (d *Daemon) Generate(ctx context.Context, datasetID string) (*jobs.Job, pipeline.Result, error) {
	if err := frames.ValidateDatasetID(datasetID); err != nil {
		return nil, pipeline.Result{}, &pipeline.Error{Kind: pipeline.KindNotFound, Dataset: datasetID, Err: err}
	}
	job, err := d.store.Create(ctx, datasetID, jobs.KindGIF)
	if err != nil {
		return nil, pipeline.Result{}, fmt.Errorf("record job: %w", err)
	}
	ctx = services.WithJobID(services.WithDataset(ctx, datasetID), job.ID)
	logger := logging.WithContext(ctx, d.logger)

	result, runErr := d.generator.Run(ctx, datasetID)
	if runErr != nil {
		kind := string(pipeline.KindOf(runErr))
		finished, err := d.store.Fail(context.WithoutCancel(ctx), job.ID, kind, runErr.Error())
		if err != nil {
			logger.Warn("failed to record job failure", logging.Error(err))
		} else {
			job = finished
		}
		logging.WarnWithContext(logger, "artifact generation failed", "gif_failed",
			logging.String(logging.FieldErrorKind, kind),
			logging.Error(runErr),
		)
		if notifyFailure(pipeline.KindOf(runErr)) {
			d.notify(ctx, notifications.EventError, notifications.Payload{
				"context": "gif",
				"dataset": datasetID,
				"job":     job.ID,
				"error":   runErr,
			})
		}
		return job, pipeline.Result{}, runErr
	}

	finished, err := d.store.Complete(context.WithoutCancel(ctx), job.ID, jobs.Outcome{
		Frames:     result.Frames,
		Width:      result.Geometry.Width,
		Height:     result.Geometry.Height,
		Bytes:      result.Bytes,
		OutputPath: result.OutputPath,
	})
	if err != nil {
		logger.Warn("failed to record job completion", logging.Error(err))
	} else {
		job = finished
	}
	d.notify(ctx, notifications.EventArtifactReady, notifications.Payload{
		"dataset":  datasetID,
		"job":      job.ID,
		"frames":   result.Frames,
		"geometry": result.Geometry.String(),
		"bytes":    result.Bytes,
	})
	return job, result, nil
}

// notifyFailure filters out rejections the caller caused.
func notifyFailure(kind pipeline.Kind) bool {
	switch kind {
	case pipeline.KindNotFound, pipeline.KindInProgress:
		return false
	}
	return true
}

// Analyze runs the R script for datasetID and records the run as a job.
func (d *Daemon) Analyze(ctx context.Context, datasetID string) (*jobs.Job, []string, error) {
	if d.analyzer == nil {
		return nil, nil, ErrAnalysisDisabled
	}
	if err := frames.ValidateDatasetID(datasetID); err != nil {
		return nil, nil, services.Wrap(services.ErrValidation, "analysis", "prepare", "invalid dataset id", err)
	}
	job, err := d.store.Create(ctx, datasetID, jobs.KindAnalysis)
	if err != nil {
		return nil, nil, fmt.Errorf("record job: %w", err)
	}
	ctx = services.WithJobID(services.WithDataset(ctx, datasetID), job.ID)
	logger := logging.WithContext(ctx, d.logger)

	lines, runErr := d.analyzer.Analyze(ctx, datasetID)
	if runErr != nil {
		kind := services.Kind(runErr)
		if finished, err := d.store.Fail(context.WithoutCancel(ctx), job.ID, kind, runErr.Error()); err != nil {
			logger.Warn("failed to record job failure", logging.Error(err))
		} else {
			job = finished
		}
		logging.WarnWithContext(logger, "analysis failed", "analysis_failed",
			logging.String(logging.FieldErrorKind, kind),
			logging.Error(runErr),
		)
		d.notify(ctx, notifications.EventError, notifications.Payload{
			"context": "analysis",
			"dataset": datasetID,
			"job":     job.ID,
			"error":   runErr,
		})
		return job, nil, runErr
	}

	if finished, err := d.store.Complete(context.WithoutCancel(ctx), job.ID, jobs.Outcome{}); err != nil {
		logger.Warn("failed to record job completion", logging.Error(err))
	} else {
		job = finished
	}
	logger.Info("analysis complete", logging.Int("lines", len(lines)))
	d.notify(ctx, notifications.EventAnalysisCompleted, notifications.Payload{
		"dataset": datasetID,
		"job":     job.ID,
		"lines":   lines,
	})
	return job, lines, nil
}

// Result assembles the result view for datasetID: the artifact location and
// the parsed result text. A missing or unreadable result text leaves Data
// empty and is reported in DataError.
func (d *Daemon) Result(ctx context.Context, datasetID string) (api.ResultView, error) {
	dir, err := d.source.Dir(datasetID)
	if err != nil {
		return api.ResultView{}, fmt.Errorf("%w: %w", ErrDatasetNotFound, err)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return api.ResultView{}, fmt.Errorf("%w: %s", ErrDatasetNotFound, datasetID)
	}

	view := api.ResultView{
		ID:   datasetID,
		GIF:  path.Join("/", datasetID, d.cfg.Animation.OutputName),
		Data: []api.MetadataEntry{},
	}
	if info, err := os.Stat(filepath.Join(dir, d.cfg.Animation.OutputName)); err == nil && info.Mode().IsRegular() {
		view.GIFExists = true
	}

	entries, err := metadata.Load(filepath.Join(dir, d.cfg.Metadata.FileName), metadata.Options{
		MaxLines:    d.cfg.Metadata.MaxLines,
		StripPrefix: d.cfg.Metadata.StripPrefix,
		StripSuffix: d.cfg.Metadata.StripSuffix,
	})
	switch {
	case err == nil:
		view.Data = api.FromMetadata(entries)
	case errors.Is(err, metadata.ErrNotFound):
	default:
		view.DataError = err.Error()
		d.logger.Warn("result metadata unreadable",
			logging.String(logging.FieldDataset, datasetID),
			logging.Error(err),
		)
	}

	if last, err := d.store.Latest(ctx, datasetID, jobs.KindGIF); err == nil && last != nil {
		dto := api.FromJob(last)
		view.LastJob = &dto
	}
	return view, nil
}

func (d *Daemon) notify(ctx context.Context, event notifications.Event, payload notifications.Payload) {
	if err := d.notifier.Publish(context.WithoutCancel(ctx), event, payload); err != nil {
		logging.WithContext(ctx, d.logger).Warn("notification failed",
			logging.String("event", string(event)),
			logging.Error(err),
		)
	}
}
