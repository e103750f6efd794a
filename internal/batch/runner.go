package batch

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Poster sends one form-encoded POST and returns the response body.
//
// *formpost.Poster satisfies this interface.
type Poster interface {
	Post(ctx context.Context, rawURL string, params map[string]string, timeout time.Duration) (string, error)
}

// Job is one POST to send.
type Job struct {
	// Name identifies the job in results and logs.
	Name string

	// URL is the target URL.
	URL string

	// Params are the form parameters.
	Params map[string]string

	// Timeout is the per-request timeout. Zero uses the poster's default.
	Timeout time.Duration
}

// Result holds the outcome of one [Job].
type Result struct {
	// Name is the job name.
	Name string

	// URL is the target URL that was posted to.
	URL string

	// Body is the response body. Empty when Err is set.
	Body string

	// Latency is the time taken by the post.
	Latency time.Duration

	// Err contains any error returned by the poster.
	Err error

	// RunID is shared by every result of one [Runner.Run] call.
	RunID string
}

// Runner executes jobs against a [Poster] with bounded concurrency.
type Runner struct {
	poster         Poster
	maxConcurrency int
	logger         *slog.Logger
}

// NewRunner creates a [Runner].
//
// maxConcurrency below 1 is treated as 1. A nil logger falls back to
// slog.Default().
func NewRunner(poster Poster, maxConcurrency int, logger *slog.Logger) *Runner {
	if maxConcurrency < 1 {
		maxConcurrency = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		poster:         poster,
		maxConcurrency: maxConcurrency,
		logger:         logger,
	}
}

// Run posts every job and returns one [Result] per job, in job order.
//
// At most maxConcurrency posts are in flight at once. Run blocks until all
// jobs have finished or ctx is cancelled; jobs not yet started when ctx is
// cancelled report ctx.Err().
func (r *Runner) Run(ctx context.Context, jobs []Job) []Result {
	runID := uuid.NewString()
	results := make([]Result, len(jobs))

	r.logger.Info("batch starting",
		"run_id", runID,
		"jobs", len(jobs),
		"max_concurrency", r.maxConcurrency,
	)

	g := new(errgroup.Group)
	g.SetLimit(r.maxConcurrency)

	for i, job := range jobs {
		if err := ctx.Err(); err != nil {
			results[i] = Result{Name: job.Name, URL: job.URL, Err: err, RunID: runID}
			continue
		}
		g.Go(func() error {
			results[i] = r.runJob(ctx, runID, job)
			return nil
		})
	}
	// jobs never return errors; failures are kept per result
	_ = g.Wait()

	failed := 0
	for _, res := range results {
		if res.Err != nil {
			failed++
		}
	}
	r.logger.Info("batch finished",
		"run_id", runID,
		"jobs", len(jobs),
		"failed", failed,
	)

	return results
}

// runJob posts a single job with panic recovery.
// If the poster panics, the stack is logged with a correlation ID and the
// job fails with an error carrying that ID.
func (r *Runner) runJob(ctx context.Context, runID string, job Job) (res Result) {
	res = Result{Name: job.Name, URL: job.URL, RunID: runID}
	start := time.Now()

	defer func() {
		if rec := recover(); rec != nil {
			correlationID := uuid.NewString()
			r.logger.Error("poster panic",
				"correlation_id", correlationID,
				"run_id", runID,
				"job", job.Name,
				"panic", fmt.Sprintf("%v", rec),
				"stack", string(debug.Stack()),
			)
			res.Body = ""
			res.Err = fmt.Errorf("poster panic (correlation_id: %s)", correlationID)
		}
		res.Latency = time.Since(start)
	}()

	res.Body, res.Err = r.poster.Post(ctx, job.URL, job.Params, job.Timeout)
	return res
}
