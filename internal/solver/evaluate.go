package solver

import "github.com/yourbasic/bit"

// Evaluate computes s's total cost from scratch and checks it against p's
// invariants: every non-depot location visited exactly once, every route
// depot-to-depot, every route load within capacity. It is a pure function of
// its inputs and safe to call from any goroutine.
func Evaluate(p *Problem, s *Solution) (float64, bool) {
	if s == nil {
		return 0, false
	}
	for _, r := range s.Routes {
		for _, stop := range r.Stops {
			if stop < 0 || stop >= p.n {
				return 0, false
			}
		}
	}

	total := 0.0
	feasible := true
	visited := bit.New()
	for _, r := range s.Routes {
		if len(r.Stops) < 2 {
			feasible = false
			continue
		}
		if r.Stops[0] != p.depot || r.Stops[len(r.Stops)-1] != p.depot {
			feasible = false
		}
		load := 0.0
		for k := 0; k+1 < len(r.Stops); k++ {
			total += p.Cost(r.Stops[k], r.Stops[k+1])
		}
		for _, stop := range r.Stops[1 : len(r.Stops)-1] {
			if stop == p.depot {
				feasible = false
				continue
			}
			if visited.Contains(stop) {
				feasible = false
			}
			visited.Add(stop)
			load += p.Demand(stop)
		}
		if p.capacityBound() && load > p.capacity+epsCost {
			feasible = false
		}
	}
	if visited.Size() != p.n-1 {
		feasible = false
	}
	return total, feasible
}
