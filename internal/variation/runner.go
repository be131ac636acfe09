package variation

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ironsheep/color-variations/internal/imaging"
	"github.com/ironsheep/color-variations/internal/output"
)

// Status is the lifecycle state of a run.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusFailed    Status = "failed"
)

// EventKind identifies the payload of an Event.
type EventKind int

const (
	// EventLog carries a message for the caller's log (Level, Message).
	EventLog EventKind = iota
	// EventProgress carries the new fraction complete (Progress).
	EventProgress
	// EventVariation reports one written variation (Variation).
	EventVariation
	// EventDone is terminal: the run completed or was cancelled (Summary).
	EventDone
	// EventFailed is terminal: the run stopped on an error (Err).
	EventFailed
)

func (k EventKind) String() string {
	switch k {
	case EventLog:
		return "log"
	case EventProgress:
		return "progress"
	case EventVariation:
		return "variation"
	case EventDone:
		return "done"
	case EventFailed:
		return "failed"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// Event is one message from a running worker to its caller.
type Event struct {
	Kind      EventKind
	Level     zapcore.Level
	Message   string
	Progress  float64
	Variation *VariationOutput
	Summary   *Summary
	Err       *Error
}

// VariationOutput describes the files written for one variation.
type VariationOutput struct {
	Param         Param  `json:"param"`
	Path          string `json:"path"`
	ThumbnailPath string `json:"thumbnail_path,omitempty"`
}

// Summary is the outcome of a run that was not a failure.
type Summary struct {
	RunID       string        `json:"run_id"`
	Status      Status        `json:"status"`
	OutputDir   string        `json:"output_dir"`
	Total       int           `json:"total"`
	Written     int           `json:"written"`
	DryRun      bool          `json:"dry_run"`
	Files       []string      `json:"files"`
	Thumbnails  []string      `json:"thumbnails,omitempty"`
	Adjusted    string        `json:"adjusted,omitempty"`
	SidecarPath string        `json:"sidecar,omitempty"`
	Duration    time.Duration `json:"duration_ns"`
}

// Job is the input of one run.
//
// Source may be nil, in which case the worker loads SourcePath itself and a
// load failure is reported as a KindLoad error. SourcePath is always used to
// derive the output base name and the default output directory.
type Job struct {
	Source     *imaging.PixelBuffer
	SourcePath string
	Config     Config
}

// RunStatus is a snapshot of a Runner.
type RunStatus struct {
	Active   bool    `json:"active"`
	RunID    string  `json:"run_id,omitempty"`
	Progress float64 `json:"progress"`
	Status   Status  `json:"status"`
}

// Runner executes generation runs on a background goroutine, one at a time.
//
// All methods are safe for concurrent use.
type Runner struct {
	log *zap.Logger

	mu     sync.Mutex
	active bool
	runID  string
	status Status
	ctrl   *Controller
}

// NewRunner returns an idle runner. A nil logger disables internal logging.
func NewRunner(log *zap.Logger) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{log: log, status: StatusIdle}
}

// Start launches a run and returns its event channel without waiting for any
// generation work.
//
// The channel receives log, progress and variation events followed by exactly
// one terminal event (EventDone or EventFailed), then it is closed. The caller
// must drain it. Returns ErrRunActive if a run is already active.
func (r *Runner) Start(ctx context.Context, job Job) (<-chan Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.active {
		return nil, ErrRunActive
	}

	ctrl := NewController()
	runID := uuid.NewString()
	r.active = true
	r.runID = runID
	r.status = StatusRunning
	r.ctrl = ctrl

	events := make(chan Event, 64)
	r.log.Debug("Run started", zap.String("run_id", runID), zap.String("source", job.SourcePath))
	go r.run(ctx, job, ctrl, runID, events)
	return events, nil
}

// Cancel requests cooperative cancellation of the active run. Returns false if
// no run is active.
func (r *Runner) Cancel() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.active {
		return false
	}
	r.ctrl.Cancel()
	r.log.Debug("Cancellation requested", zap.String("run_id", r.runID))
	return true
}

// Active reports whether a run is in progress.
func (r *Runner) Active() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

// Status returns a snapshot of the active or most recent run.
func (r *Runner) Status() RunStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := RunStatus{Active: r.active, RunID: r.runID, Status: r.status}
	if r.ctrl != nil {
		s.Progress = r.ctrl.Progress()
	}
	return s
}

func (r *Runner) finish(status Status) {
	r.mu.Lock()
	r.active = false
	r.status = status
	r.mu.Unlock()
}

func (r *Runner) run(ctx context.Context, job Job, ctrl *Controller, runID string, events chan<- Event) {
	defer close(events)
	defer func() {
		if p := recover(); p != nil {
			r.log.Error("Worker panic", zap.String("run_id", runID), zap.Any("panic", p))
			r.finish(StatusFailed)
			events <- Event{Kind: EventFailed, Err: newError(KindInternal, nil, "worker panic: %v", p)}
		}
	}()

	start := time.Now()
	summary, err := r.execute(ctx, job, ctrl, runID, events)
	if err != nil {
		var e *Error
		if !errors.As(err, &e) {
			e = newError(KindInternal, err, "generation failed")
		}
		r.log.Debug("Run failed", zap.String("run_id", runID), zap.Error(e))
		r.finish(StatusFailed)
		events <- Event{Kind: EventFailed, Level: zapcore.ErrorLevel, Message: e.Error(), Err: e}
		return
	}

	summary.Duration = time.Since(start)
	r.log.Debug("Run finished",
		zap.String("run_id", runID),
		zap.String("status", string(summary.Status)),
		zap.Int("written", summary.Written),
		zap.Duration("duration", summary.Duration))
	r.finish(summary.Status)

	level := zapcore.InfoLevel
	if summary.Status == StatusCancelled {
		level = zapcore.WarnLevel
	}
	events <- Event{
		Kind:    EventDone,
		Level:   level,
		Message: fmt.Sprintf("%s: %d of %d variations in %s", summary.Status, summary.Written, summary.Total, summary.OutputDir),
		Summary: summary,
	}
}

// execute performs one run. It returns a *Error for every failure it detects.
func (r *Runner) execute(ctx context.Context, job Job, ctrl *Controller, runID string, events chan<- Event) (*Summary, error) {
	logf := func(level zapcore.Level, format string, args ...interface{}) {
		events <- Event{Kind: EventLog, Level: level, Message: fmt.Sprintf(format, args...)}
	}

	cfg, warnings, err := job.Config.Normalize()
	for _, w := range warnings {
		logf(zapcore.WarnLevel, "%s", w)
	}
	if err != nil {
		return nil, err
	}

	src := job.Source
	if src == nil {
		if job.SourcePath == "" {
			return nil, newError(KindLoad, nil, "no source image")
		}
		src, err = imaging.Load(job.SourcePath)
		if err != nil {
			return nil, newError(KindLoad, err, "failed to load %s", job.SourcePath)
		}
	}

	base := output.BaseName(job.SourcePath)
	if base == "" || base == "." {
		base = "image"
	}
	parent := cfg.OutputDir
	if parent == "" {
		parent = filepath.Dir(job.SourcePath)
	}
	dir := output.RunFolder(parent, base, cfg.Prefix)
	if !cfg.Overwrite {
		dir, err = output.UniqueFolder(dir)
		if err != nil {
			return nil, newError(KindOutput, err, "failed to choose output directory")
		}
	}

	summary := &Summary{
		RunID:     runID,
		Status:    StatusCompleted,
		OutputDir: dir,
		Total:     cfg.Total(),
		DryRun:    cfg.DryRun,
	}

	w := output.NewWriter(dir, base, output.Options{
		Thumbnails:          cfg.Thumbnails,
		ThumbnailSize:       cfg.ThumbnailSize,
		ThumbnailBackground: cfg.ThumbnailBackground,
		LabelFilenames:      cfg.LabelFilenames,
		DominantColors:      cfg.Sidecar,
	})

	if cfg.DryRun {
		logf(zapcore.InfoLevel, "dry run: %d variations (%d hues x %d saturations) into %s",
			summary.Total, cfg.HueCount, cfg.SatCount, dir)
		for _, p := range Plan(cfg.HueCount, cfg.SatCount) {
			logf(zapcore.InfoLevel, "would write %s (hue %s, saturation %s)",
				w.FileName(p.Index, p.HueLabel, p.SatLabel), p.HueLabel, p.SatLabel)
		}
		if ctrl.complete() {
			events <- Event{Kind: EventProgress, Progress: 1}
		}
		return summary, nil
	}

	if err := w.Prepare(); err != nil {
		return nil, newError(KindOutput, err, "failed to create %s", dir)
	}
	logf(zapcore.InfoLevel, "generating %d variations (%d hues x %d saturations) into %s",
		summary.Total, cfg.HueCount, cfg.SatCount, dir)

	if cfg.SaveAdjusted && !cfg.Adjust.IsIdentity() {
		path, err := w.WriteImage("_adjusted", cfg.Adjust.ApplyBuffer(src))
		if err != nil {
			return nil, newError(KindWrite, err, "failed to write adjusted image")
		}
		summary.Adjusted = path
		logf(zapcore.InfoLevel, "saved adjusted image %s", path)
	}

	done := 0
	n, err := Sweep(ctx, src, cfg, ctrl, func(res Result) error {
		wr, err := w.WriteVariation(output.Variation{
			Index:    res.Param.Index,
			HueLabel: res.Param.HueLabel,
			SatLabel: res.Param.SatLabel,
			Buffer:   res.Buffer,
		})
		if err != nil {
			return err
		}
		summary.Files = append(summary.Files, wr.Path)
		if wr.ThumbnailPath != "" {
			summary.Thumbnails = append(summary.Thumbnails, wr.ThumbnailPath)
		}
		events <- Event{
			Kind:    EventVariation,
			Level:   zapcore.DebugLevel,
			Message: fmt.Sprintf("wrote %s (hue %s, saturation %s)", filepath.Base(wr.Path), res.Param.HueLabel, res.Param.SatLabel),
			Variation: &VariationOutput{
				Param:         res.Param,
				Path:          wr.Path,
				ThumbnailPath: wr.ThumbnailPath,
			},
		}
		done++
		if done < summary.Total {
			events <- Event{Kind: EventProgress, Progress: float64(done) / float64(summary.Total)}
		}
		return nil
	})
	summary.Written = n

	switch {
	case errors.Is(err, ErrCancelled):
		summary.Status = StatusCancelled
		logf(zapcore.WarnLevel, "cancelled after %d of %d variations", n, summary.Total)
	case err != nil:
		var e *Error
		if errors.As(err, &e) {
			return nil, e
		}
		return nil, newError(KindWrite, err, "failed to write variation")
	}

	if cfg.Sidecar {
		adjusted := ""
		if summary.Adjusted != "" {
			adjusted = filepath.Base(summary.Adjusted)
		}
		path, err := output.WriteManifest(dir, &output.Manifest{
			RunID:           runID,
			Timestamp:       time.Now().Format(time.RFC3339),
			InputImage:      job.SourcePath,
			OutputDirectory: dir,
			Parameters:      cfg.Parameters(),
			TotalVariations: summary.Total,
			Written:         n,
			Status:          string(summary.Status),
			Adjusted:        adjusted,
			Variations:      w.Entries(),
		})
		if err != nil {
			return nil, newError(KindWrite, err, "failed to write sidecar")
		}
		summary.SidecarPath = path
	}

	if summary.Status == StatusCompleted && ctrl.complete() {
		events <- Event{Kind: EventProgress, Progress: 1}
	}
	return summary, nil
}

// Run executes job synchronously and returns its summary. Events are passed
// to onEvent when it is non-nil. It is a convenience for callers without a
// long-lived Runner.
func Run(ctx context.Context, log *zap.Logger, job Job, onEvent func(Event)) (*Summary, error) {
	events, err := NewRunner(log).Start(ctx, job)
	if err != nil {
		return nil, err
	}
	var (
		summary *Summary
		failure error
	)
	for ev := range events {
		if onEvent != nil {
			onEvent(ev)
		}
		switch ev.Kind {
		case EventDone:
			summary = ev.Summary
		case EventFailed:
			failure = ev.Err
		}
	}
	return summary, failure
}
