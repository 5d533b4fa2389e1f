package solver

import (
	"context"
	"math"
	"runtime"
	"sync"
	"time"
)

type startResult struct {
	start int
	sol   *Solution
	stats Stats
	err   error
}

// solveMulti fans construction start points out to a bounded worker pool.
// Workers share only the read-only problem and each owns its solution, so
// no locking is involved; results come back over a channel and the
// lowest-cost feasible one wins, ties to the lowest start index.
func solveMulti(ctx context.Context, p *Problem, opts Options, deadline time.Time, starts int) (*Solution, Stats, error) {
	workers := opts.Workers
	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > starts {
		workers = starts
	}

	jobs := make(chan int)
	results := make(chan startResult, starts)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for s := range jobs {
				sol, st, err := solveStart(ctx, p, opts, deadline, s)
				results <- startResult{start: s, sol: sol, stats: st, err: err}
			}
		}()
	}
	go func() {
		defer close(jobs)
		for s := 0; s < starts; s++ {
			select {
			case jobs <- s:
			case <-ctx.Done():
				return
			}
		}
	}()
	go func() {
		wg.Wait()
		close(results)
	}()

	var (
		agg       Stats
		best      *Solution
		bestStart = -1
		errStart  = -1
		firstErr  error
	)
	for r := range results {
		agg.Starts++
		agg.Passes += r.stats.Passes
		agg.TwoOptMoves += r.stats.TwoOptMoves
		agg.OrOptMoves += r.stats.OrOptMoves
		if r.err != nil {
			if errStart == -1 || r.start < errStart {
				errStart, firstErr = r.start, r.err
			}
			continue
		}
		if best == nil ||
			r.sol.Cost < best.Cost-epsCost ||
			(math.Abs(r.sol.Cost-best.Cost) <= epsCost && r.start < bestStart) {
			best = r.sol
			bestStart = r.start
			agg.InitialCost = r.stats.InitialCost
		}
	}
	if best == nil {
		if firstErr != nil {
			return nil, agg, firstErr
		}
		if err := ctx.Err(); err != nil {
			return nil, agg, err
		}
		return nil, agg, &NoSolutionError{Reason: "no start produced a solution"}
	}
	agg.BestStart = bestStart
	agg.FinalCost = best.Cost
	return best, agg, nil
}
