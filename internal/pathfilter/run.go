package pathfilter

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dshills/compdb-filter/internal/compdb"
)

// ErrDuplicateOutput is returned when two batch jobs would write the same file
var ErrDuplicateOutput = errors.New("duplicate output file in batch")

// Job names one input database and where to write its filtered copy
type Job struct {
	Infile  string
	Outfile string
}

// Result describes a finished job
type Result struct {
	Job      Job
	Root     string // Resolved root directory
	Total    int    // Entries read from Infile
	Kept     int    // Entries written to Outfile
	Duration time.Duration
	Err      error // Set only for batch results
}

// Dropped returns the number of entries that did not match
func (r *Result) Dropped() int {
	return r.Total - r.Kept
}

// Config contains configuration for batch runs
type Config struct {
	Workers int // Number of concurrent jobs (default: runtime.NumCPU())
}

// Run reads job.Infile, keeps the entries under root and writes them to
// job.Outfile. The output file is only touched once the input has been
// parsed and the result encoded.
func Run(root, cwd string, job Job) (*Result, error) {
	start := time.Now()
	filter := New(root, cwd)

	db, err := compdb.ReadFile(Resolve(job.Infile, cwd))
	if err != nil {
		return nil, err
	}

	kept := filter.Apply(db)

	if err := compdb.WriteFile(Resolve(job.Outfile, cwd), kept); err != nil {
		return nil, err
	}

	return &Result{
		Job:      job,
		Root:     filter.Root(),
		Total:    len(db),
		Kept:     len(kept),
		Duration: time.Since(start),
	}, nil
}

// RunBatch runs jobs concurrently against the same root.
//
// A failing job records its error in Result.Err and does not stop the
// others. The returned error is non-nil only when the batch is invalid or
// ctx is cancelled; results are returned in job order either way, with
// unstarted jobs carrying the context error.
func RunBatch(ctx context.Context, root, cwd string, jobs []Job, config *Config) ([]*Result, error) {
	if config == nil {
		config = &Config{}
	}
	workers := config.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	outputs := make(map[string]int, len(jobs))
	for i, job := range jobs {
		out := Resolve(job.Outfile, cwd)
		if prev, ok := outputs[out]; ok {
			return nil, fmt.Errorf("%w: jobs %d and %d both write %s", ErrDuplicateOutput, prev, i, out)
		}
		outputs[out] = i
	}

	rootPath := Resolve(root, cwd)
	results := make([]*Result, len(jobs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, job := range jobs {
		if gctx.Err() != nil {
			break
		}

		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			res, err := Run(root, cwd, job)
			if err != nil {
				res = &Result{Job: job, Root: rootPath, Err: err}
			}
			results[i] = res
			return nil
		})
	}

	waitErr := g.Wait()

	// Fill in jobs that never ran
	for i := range results {
		if results[i] == nil {
			err := ctx.Err()
			if err == nil {
				err = waitErr
			}
			results[i] = &Result{Job: jobs[i], Root: rootPath, Err: err}
		}
	}

	if err := ctx.Err(); err != nil {
		return results, err
	}
	return results, waitErr
}
