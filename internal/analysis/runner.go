package analysis

import (
	"context"
	"fmt"
	"image/jpeg"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"

	"framewise/internal/config"
	"framewise/internal/frames"
	"framewise/internal/logging"
	"framewise/internal/media"
	"framewise/internal/prefetch"
	"framewise/internal/services"
)

// Runner drives one analysis pass: records in frame order, annotated images
// into a staging run directory, then a reassembled video.
type Runner struct {
	cfg      *config.Config
	analyzer Analyzer
	logger   *slog.Logger
	progress io.Writer
}

// RunnerOption customizes a Runner.
type RunnerOption func(*Runner)

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithProgressWriter directs the progress bar somewhere other than stderr.
func WithProgressWriter(w io.Writer) RunnerOption {
	return func(r *Runner) {
		if w != nil {
			r.progress = w
		}
	}
}

// NewRunner builds a Runner around an analyzer.
func NewRunner(cfg *config.Config, analyzer Analyzer, opts ...RunnerOption) (*Runner, error) {
	if analyzer == nil {
		return nil, services.Wrap(services.ErrConfiguration, "analysis", "new", "analyzer is required", nil)
	}
	r := &Runner{
		cfg:      cfg,
		analyzer: analyzer,
		logger:   logging.NewNop(),
		progress: os.Stderr,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Run walks the prefetcher's frame ordering, annotates every frame, and
// encodes the annotated frames into outputPath at the given frame rate.
// Annotated frames are renumbered from zero inside a fresh staging run
// directory so the encoder sees a contiguous sequence. The run directory is
// left in place on failure for inspection.
func (r *Runner) Run(ctx context.Context, pf *prefetch.Prefetcher, fps float64, outputPath string) error {
	indices := pf.Indices()
	if len(indices) == 0 {
		return services.Wrap(services.ErrValidation, "analysis", "run", "no frames to analyze", nil)
	}

	runDir := filepath.Join(r.cfg.Paths.StagingDir, "run-"+uuid.NewString())
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return services.Wrap(services.ErrTransient, "analysis", "run", "create staging run directory", err)
	}
	r.logger.Info("analysis run started", "frames", len(indices), "staging_dir", runDir)

	bar := progressbar.NewOptions(len(indices),
		progressbar.OptionSetWriter(r.progress),
		progressbar.OptionSetDescription("analyzing frames"),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)

	for seq, index := range indices {
		record, err := pf.Get(ctx, index)
		if err != nil {
			return err
		}
		if err := r.annotate(ctx, record, filepath.Join(runDir, fmt.Sprintf("frame_%d.jpg", seq))); err != nil {
			return err
		}
		_ = bar.Add(1)
	}
	_ = bar.Finish()

	if err := media.Assemble(ctx, r.cfg, runDir, fps, outputPath); err != nil {
		return err
	}
	r.logger.Info("analysis run finished", "frames", len(indices), "output", outputPath)

	return os.RemoveAll(runDir)
}

func (r *Runner) annotate(ctx context.Context, record *frames.Record, outPath string) error {
	source, err := os.Open(record.SourcePath)
	if err != nil {
		return services.Wrap(services.ErrValidation, "analysis", "annotate",
			fmt.Sprintf("open frame %d image", record.Index), err)
	}
	img, err := jpeg.Decode(source)
	source.Close()
	if err != nil {
		return services.Wrap(services.ErrValidation, "analysis", "annotate",
			fmt.Sprintf("decode frame %d image", record.Index), err)
	}

	annotated, err := r.analyzer.Analyze(ctx, record, img)
	if err != nil {
		return services.Wrap(services.ErrTransient, "analysis", "annotate",
			fmt.Sprintf("analyze frame %d", record.Index), err)
	}

	out, err := os.Create(outPath)
	if err != nil {
		return services.Wrap(services.ErrTransient, "analysis", "annotate", "create annotated frame", err)
	}
	if err := jpeg.Encode(out, annotated, &jpeg.Options{Quality: 90}); err != nil {
		out.Close()
		return services.Wrap(services.ErrTransient, "analysis", "annotate", "encode annotated frame", err)
	}
	return out.Close()
}
