package solver

// Route is one vehicle's tour: location indices beginning and ending at the
// depot. Cost and Load are maintained incrementally by the search.
type Route struct {
	Stops []int
	Cost  float64
	Load  float64
}

// Empty reports whether the route visits nothing beyond the depot.
func (r Route) Empty() bool { return len(r.Stops) <= 2 }

// Solution is the set of routes for the whole fleet plus its cached total
// cost. Once Solve returns, the solution is final output and no longer
// mutated.
type Solution struct {
	Routes   []Route
	Cost     float64
	Feasible bool
}

// Clone returns a deep copy sharing nothing with s.
func (s *Solution) Clone() *Solution {
	out := &Solution{Cost: s.Cost, Feasible: s.Feasible, Routes: make([]Route, len(s.Routes))}
	for i, r := range s.Routes {
		out.Routes[i] = Route{Stops: append([]int(nil), r.Stops...), Cost: r.Cost, Load: r.Load}
	}
	return out
}
