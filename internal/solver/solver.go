package solver

import (
	"context"
	"time"
)

// Strategy selects how local search accepts moves.
type Strategy int

const (
	// FirstImprovement applies every improving move as soon as it is found.
	FirstImprovement Strategy = iota
	// BestImprovement applies the single best move per pass.
	BestImprovement
)

// Budget bounds the local search. Zero fields mean no bound of that kind.
type Budget struct {
	MaxTime  time.Duration // wall-clock bound for the whole solve
	MaxMoves int           // accepted-move bound per start
}

// Progress describes one finished local-search pass. The callback runs on
// the solving goroutine; with Workers > 1 it may be called concurrently.
type Progress struct {
	Start    int
	Pass     int
	Cost     float64
	Accepted int
}

// Options configures a solve. The zero value is a deterministic
// single-start, first-improvement solve with no budget.
type Options struct {
	Budget   Budget
	Strategy Strategy
	Starts   int // construction start points to try; <= 1 means one
	Workers  int // goroutines for multi-start; <= 0 picks GOMAXPROCS
	Progress func(Progress)
}

// Solve builds an initial solution by cheapest insertion and refines it with
// 2-opt and or-opt passes until the budget is spent or no move improves it.
// With Starts > 1 it runs independent construction start points in parallel
// and keeps the lowest-cost feasible result, ties to the lowest start index,
// so the outcome is reproducible either way. A spent time budget truncates
// the search and returns the best solution found; a canceled ctx aborts the
// solve and returns ctx.Err instead.
func Solve(ctx context.Context, p *Problem, opts Options) (*Solution, Stats, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	begin := time.Now()
	var deadline time.Time
	if opts.Budget.MaxTime > 0 {
		deadline = begin.Add(opts.Budget.MaxTime)
	}

	starts := opts.Starts
	if starts < 1 {
		starts = 1
	}
	if starts > p.n {
		starts = p.n // start 0 plus one forced first insertion per non-depot location
	}

	var (
		sol *Solution
		st  Stats
		err error
	)
	if starts == 1 {
		sol, st, err = solveStart(ctx, p, opts, deadline, 0)
	} else {
		sol, st, err = solveMulti(ctx, p, opts, deadline, starts)
	}
	st.Elapsed = time.Since(begin)
	if err != nil {
		return nil, st, err
	}
	if err := ctx.Err(); err != nil {
		return nil, st, err
	}
	st.FinalCost = sol.Cost
	return sol, st, nil
}

// solveStart runs construction from one start point and a local-search
// refinement on the result.
func solveStart(ctx context.Context, p *Problem, opts Options, deadline time.Time, start int) (*Solution, Stats, error) {
	sol, err := construct(p, startLocation(p, start))
	st := Stats{Starts: 1, BestStart: start}
	if err != nil {
		return nil, st, err
	}
	st.InitialCost = sol.Cost
	optimize(ctx, p, sol, opts, deadline, start, &st)
	st.FinalCost = sol.Cost
	return sol, st, nil
}

// startLocation maps a start index to the location whose insertion is
// forced first. Start 0 leaves the choice to the insertion rule; start k
// pins the k-th non-depot location.
func startLocation(p *Problem, start int) int {
	if start <= 0 {
		return -1
	}
	loc := start - 1
	if loc >= p.depot {
		loc++
	}
	return loc
}
