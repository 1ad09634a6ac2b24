package pdm

import (
	"context"
	"runtime"
	"sync"

	"github.com/pkg/errors"
)

type fitJob struct {
	index     int
	placement Placement
}

type fitOutcome struct {
	index  int
	result *FitResult
	err    error
}

// FitAll fits every placement independently using a pool of workers (0 means runtime.NumCPU()).
// Results are returned in the same order as placements. The first error cancels remaining jobs.
// Proposer must be safe for concurrent use
func (f *Fitter) FitAll(ctx context.Context, placements []Placement, workers int) ([]*FitResult, error) {
	if len(placements) == 0 {
		return nil, nil
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(placements) {
		workers = len(placements)
	}
	workers = maxInt(1, workers)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan fitJob, len(placements))
	outcomes := make(chan fitOutcome, len(placements))

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				if ctx.Err() != nil {
					outcomes <- fitOutcome{index: job.index, err: ctx.Err()}
					continue
				}
				result, err := f.Fit(ctx, job.placement)
				if err != nil {
					cancel()
				}
				outcomes <- fitOutcome{index: job.index, result: result, err: err}
			}
		}()
	}

	for i, placement := range placements {
		jobs <- fitJob{index: i, placement: placement}
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(outcomes)
	}()

	results := make([]*FitResult, len(placements))
	var firstErr error
	firstIndex := -1
	for outcome := range outcomes {
		if outcome.err != nil {
			// Prefer the root cause over cancellations it triggered
			if firstErr == nil || (errors.Is(firstErr, context.Canceled) && !errors.Is(outcome.err, context.Canceled)) {
				firstErr = outcome.err
				firstIndex = outcome.index
			}
			continue
		}
		results[outcome.index] = outcome.result
	}
	if firstErr != nil {
		return nil, errors.Wrapf(firstErr, "placement %d", firstIndex)
	}
	return results, nil
}
