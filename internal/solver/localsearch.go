package solver

import (
	"context"
	"time"
)

// epsCost guards every float comparison in the search: a move is improving
// only when it beats the current cost by more than this.
const epsCost = 1e-6

// optimize runs alternating 2-opt and or-opt passes over sol until a full
// pass accepts nothing, the budget is spent, or ctx is canceled. Budget and
// cancellation are checked between passes only, so a move is never left
// half-applied.
func optimize(ctx context.Context, p *Problem, sol *Solution, opts Options, deadline time.Time, start int, st *Stats) {
	for pass := 1; ; pass++ {
		if ctx.Err() != nil {
			return
		}
		if !deadline.IsZero() && !time.Now().Before(deadline) {
			return
		}
		accepted := twoOptPass(p, sol, opts.Strategy, st)
		accepted += orOptPass(p, sol, opts.Strategy, st)
		st.Passes++
		if opts.Progress != nil {
			opts.Progress(Progress{Start: start, Pass: pass, Cost: sol.Cost, Accepted: accepted})
		}
		if accepted == 0 {
			return
		}
		if opts.Budget.MaxMoves > 0 && st.TwoOptMoves+st.OrOptMoves >= opts.Budget.MaxMoves {
			return
		}
	}
}

// twoOptPass reverses route segments whose endpoints reconnect cheaper.
// Route membership never changes, so loads are untouched.
func twoOptPass(p *Problem, sol *Solution, strategy Strategy, st *Stats) int {
	if strategy == BestImprovement {
		mv, ok := bestTwoOpt(p, sol)
		if !ok {
			return 0
		}
		r := &sol.Routes[mv.route]
		reverse(r.Stops, mv.i, mv.k)
		r.Cost += mv.delta
		sol.Cost += mv.delta
		st.TwoOptMoves++
		return 1
	}
	accepted := 0
	for ri := range sol.Routes {
		r := &sol.Routes[ri]
		m := len(r.Stops)
		for i := 1; i <= m-3; i++ {
			for k := i + 1; k <= m-2; k++ {
				delta := twoOptDelta(p, r.Stops, i, k)
				if delta < -epsCost {
					reverse(r.Stops, i, k)
					r.Cost += delta
					sol.Cost += delta
					st.TwoOptMoves++
					accepted++
				}
			}
		}
	}
	return accepted
}

type twoOptMove struct {
	route, i, k int
	delta       float64
}

func bestTwoOpt(p *Problem, sol *Solution) (twoOptMove, bool) {
	best := twoOptMove{delta: -epsCost}
	found := false
	for ri := range sol.Routes {
		stops := sol.Routes[ri].Stops
		m := len(stops)
		for i := 1; i <= m-3; i++ {
			for k := i + 1; k <= m-2; k++ {
				if d := twoOptDelta(p, stops, i, k); d < best.delta {
					best = twoOptMove{route: ri, i: i, k: k, delta: d}
					found = true
				}
			}
		}
	}
	return best, found
}

// twoOptDelta is the cost change of reversing stops[i..k]. The two boundary
// edges always change; the interior arcs only matter when the matrix is
// asymmetric.
func twoOptDelta(p *Problem, stops []int, i, k int) float64 {
	delta := p.Cost(stops[i-1], stops[k]) + p.Cost(stops[i], stops[k+1]) -
		p.Cost(stops[i-1], stops[i]) - p.Cost(stops[k], stops[k+1])
	if !p.symmetric {
		for t := i; t < k; t++ {
			delta += p.Cost(stops[t+1], stops[t]) - p.Cost(stops[t], stops[t+1])
		}
	}
	return delta
}

func reverse(stops []int, i, k int) {
	for a, b := i, k; a < b; a, b = a+1, b-1 {
		stops[a], stops[b] = stops[b], stops[a]
	}
}

// orOptPass relocates segments of one to three stops to an improving
// feasible position in any route, its own included. First-improvement keeps
// re-scanning a source route until no relocation out of it helps.
func orOptPass(p *Problem, sol *Solution, strategy Strategy, st *Stats) int {
	if strategy == BestImprovement {
		var best orOptMove
		found := false
		for from := range sol.Routes {
			if mv, ok := scanOrOpt(p, sol, from, false); ok {
				if !found || mv.delta() < best.delta() {
					best = mv
					found = true
				}
			}
		}
		if !found {
			return 0
		}
		applyOrOpt(sol, best, st)
		return 1
	}
	accepted := 0
	for from := range sol.Routes {
		for {
			mv, ok := scanOrOpt(p, sol, from, true)
			if !ok {
				break
			}
			applyOrOpt(sol, mv, st)
			accepted++
		}
	}
	return accepted
}

type orOptMove struct {
	from, to    int // route indexes
	i, length   int // segment stops[i : i+length] of the source route
	pos         int // insertion index into the target (post-removal for same-route)
	removeDelta float64
	insertDelta float64
	segDemand   float64
}

func (m orOptMove) delta() float64 { return m.removeDelta + m.insertDelta }

// scanOrOpt enumerates relocations out of route from. With firstImprove it
// returns the first improving move; otherwise the best one.
func scanOrOpt(p *Problem, sol *Solution, from int, firstImprove bool) (orOptMove, bool) {
	src := sol.Routes[from].Stops
	interior := len(src) - 2
	var best orOptMove
	bestDelta := -epsCost
	found := false
	for length := 1; length <= 3 && length <= interior; length++ {
		for i := 1; i+length <= len(src)-1; i++ {
			segStart, segEnd := src[i], src[i+length-1]
			removeDelta := p.Cost(src[i-1], src[i+length]) -
				p.Cost(src[i-1], segStart) - p.Cost(segEnd, src[i+length])
			segDemand := 0.0
			for t := i; t < i+length; t++ {
				segDemand += p.Demand(src[t])
			}
			var rest []int
			for to := range sol.Routes {
				target := sol.Routes[to].Stops
				if to == from {
					if rest == nil {
						rest = removedCopy(src, i, length)
					}
					target = rest
				} else if !p.fits(sol.Routes[to].Load, segDemand) {
					continue
				}
				for pos := 1; pos < len(target); pos++ {
					if to == from && pos == i {
						continue // same spot, no-op
					}
					insertDelta := p.Cost(target[pos-1], segStart) +
						p.Cost(segEnd, target[pos]) - p.Cost(target[pos-1], target[pos])
					d := removeDelta + insertDelta
					if d >= bestDelta {
						continue
					}
					mv := orOptMove{
						from: from, to: to, i: i, length: length, pos: pos,
						removeDelta: removeDelta, insertDelta: insertDelta, segDemand: segDemand,
					}
					if firstImprove {
						return mv, true
					}
					best = mv
					bestDelta = d
					found = true
				}
			}
		}
	}
	return best, found
}

func applyOrOpt(sol *Solution, mv orOptMove, st *Stats) {
	src := &sol.Routes[mv.from]
	seg := append([]int(nil), src.Stops[mv.i:mv.i+mv.length]...)
	src.Stops = append(src.Stops[:mv.i], src.Stops[mv.i+mv.length:]...)
	src.Cost += mv.removeDelta
	if mv.from == mv.to {
		src.Stops = insertSegment(src.Stops, mv.pos, seg)
		src.Cost += mv.insertDelta
	} else {
		dst := &sol.Routes[mv.to]
		dst.Stops = insertSegment(dst.Stops, mv.pos, seg)
		dst.Cost += mv.insertDelta
		src.Load -= mv.segDemand
		dst.Load += mv.segDemand
	}
	sol.Cost += mv.delta()
	st.OrOptMoves++
}

func removedCopy(stops []int, i, length int) []int {
	out := make([]int, 0, len(stops)-length)
	out = append(out, stops[:i]...)
	out = append(out, stops[i+length:]...)
	return out
}

func insertSegment(stops []int, pos int, seg []int) []int {
	out := make([]int, 0, len(stops)+len(seg))
	out = append(out, stops[:pos]...)
	out = append(out, seg...)
	out = append(out, stops[pos:]...)
	return out
}
