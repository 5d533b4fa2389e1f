package solver

import "fmt"

// ValidationError reports malformed solve input. Reason names the violated
// constraint.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return "invalid problem: " + e.Reason }

// InfeasibleError means no assignment of locations to vehicles can satisfy
// the capacity constraint no matter the ordering.
type InfeasibleError struct {
	Demand   float64 // total demand across all locations
	Capacity float64 // total fleet capacity
	Reason   string
}

func (e *InfeasibleError) Error() string {
	if e.Reason != "" {
		return "infeasible problem: " + e.Reason
	}
	return fmt.Sprintf("infeasible problem: total demand %g exceeds fleet capacity %g", e.Demand, e.Capacity)
}

// NoSolutionError means the search ended without ever reaching a feasible
// solution.
type NoSolutionError struct {
	Reason string
}

func (e *NoSolutionError) Error() string { return "no solution found: " + e.Reason }
