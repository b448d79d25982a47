package motionhdr

import (
	"context"
	"fmt"
	"path/filepath"

	"golang.org/x/sync/errgroup"
)

// AssembleBatch assembles jobs with at most concurrency of them in flight.
// Output paths must be distinct. Results are returned in job order, a failed job leaves
// a nil result and the first error is returned once all started jobs finished.
func AssembleBatch(ctx context.Context, jobs []Job, concurrency int, opts ...func(o *Options)) ([]*Result, error) {
	seen := make(map[string]int, len(jobs))
	for i, j := range jobs {
		out, err := resolveOutput(j.Primary, j.Output)
		if err != nil {
			return nil, fmt.Errorf("job %d: %w", i, err)
		}
		out = filepath.Clean(out)
		if prev, ok := seen[out]; ok {
			return nil, fmt.Errorf("%w: jobs %d and %d write %s", ErrDuplicateOutput, prev, i, out)
		}
		seen[out] = i
	}

	if concurrency < 1 {
		concurrency = 1
	}

	results := make([]*Result, len(jobs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i := range jobs {
		job := jobs[i]
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := Assemble(ctx, &job, opts...)
			if err != nil {
				return fmt.Errorf("job %d (%s): %w", i, job.Output, err)
			}
			results[i] = res
			return nil
		})
	}

	return results, g.Wait()
}
