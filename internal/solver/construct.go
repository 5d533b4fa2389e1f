package solver

import (
	"fmt"

	"github.com/yourbasic/bit"
)

// construct builds the initial solution by cheapest insertion from the
// depot: grow the active route by the unrouted location whose cheapest
// insertion position raises the route cost the least, ties broken by lowest
// index. A route closes only when no unrouted location fits its remaining
// capacity; the next vehicle then opens from the depot. forceFirst >= 0
// pins the very first insertion to that location (the start-point variants
// used by multi-start); pass -1 for the plain rule.
func construct(p *Problem, forceFirst int) (*Solution, error) {
	unrouted := bit.New()
	for i := 0; i < p.n; i++ {
		if i != p.depot {
			unrouted.Add(i)
		}
	}

	sol := &Solution{Feasible: true}
	for !unrouted.Empty() {
		if len(sol.Routes) == p.vehicles {
			return nil, &NoSolutionError{Reason: fmt.Sprintf("fleet exhausted with %d locations unrouted", unrouted.Size())}
		}
		stops := []int{p.depot, p.depot}
		routeCost, load := 0.0, 0.0

		if forceFirst >= 0 && len(sol.Routes) == 0 && unrouted.Contains(forceFirst) {
			if !p.fits(load, p.Demand(forceFirst)) {
				return nil, &NoSolutionError{Reason: fmt.Sprintf("location %d does not fit an empty vehicle", forceFirst)}
			}
			stops = insertAt(stops, 1, forceFirst)
			routeCost += p.Cost(p.depot, forceFirst) + p.Cost(forceFirst, p.depot)
			load += p.Demand(forceFirst)
			unrouted.Delete(forceFirst)
		}

		for !unrouted.Empty() {
			bestLoc, bestPos := -1, -1
			bestDelta := 0.0
			unrouted.Visit(func(loc int) bool {
				if !p.fits(load, p.Demand(loc)) {
					return false
				}
				for pos := 1; pos < len(stops); pos++ {
					delta := p.Cost(stops[pos-1], loc) + p.Cost(loc, stops[pos]) - p.Cost(stops[pos-1], stops[pos])
					if bestLoc == -1 || delta < bestDelta {
						bestLoc, bestPos, bestDelta = loc, pos, delta
					}
				}
				return false
			})
			if bestLoc == -1 {
				break // nothing fits this route anymore
			}
			stops = insertAt(stops, bestPos, bestLoc)
			routeCost += bestDelta
			load += p.Demand(bestLoc)
			unrouted.Delete(bestLoc)
		}

		if len(stops) == 2 {
			return nil, &NoSolutionError{Reason: fmt.Sprintf("%d locations exceed vehicle capacity %g on their own", unrouted.Size(), p.capacity)}
		}
		sol.Routes = append(sol.Routes, Route{Stops: stops, Cost: routeCost, Load: load})
		sol.Cost += routeCost
	}

	for len(sol.Routes) < p.vehicles {
		sol.Routes = append(sol.Routes, Route{Stops: []int{p.depot, p.depot}})
	}
	return sol, nil
}

func insertAt(stops []int, pos, loc int) []int {
	stops = append(stops, 0)
	copy(stops[pos+1:], stops[pos:])
	stops[pos] = loc
	return stops
}
