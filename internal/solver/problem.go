package solver

import (
	"fmt"
	"math"
)

// Unreachable is the sentinel callers may place in a cost matrix for pairs
// with no connection. NewProblem rewrites it to a large finite cost so every
// comparison downstream stays total-ordered.
const Unreachable = -1

// Problem is the immutable model a solve runs against: the cost matrix,
// per-location demands and the fleet shape. Location i is row/column i of
// the matrix; the depot is one of them. Construct with NewProblem; a Problem
// is read-only afterwards and safe to share across goroutines.
type Problem struct {
	n           int
	costs       [][]float64
	demands     []float64
	capacity    float64
	vehicles    int
	depot       int
	symmetric   bool
	totalDemand float64
}

// ProblemConfig carries the optional parts of a problem. The zero value is a
// plain single-vehicle TSP: no demands, unlimited capacity, depot 0.
type ProblemConfig struct {
	Demands  []float64 // per-location demand; nil means all zero
	Capacity float64   // per-vehicle capacity; <= 0 means unlimited
	Vehicles int       // fleet size; 0 defaults to 1
	Depot    int       // start/end location of every route
}

// NewProblem validates costs and cfg and builds the solve model. The matrix
// is copied, diagonal entries are forced to zero and Unreachable entries are
// rewritten to max(costs) * N.
func NewProblem(costs [][]float64, cfg ProblemConfig) (*Problem, error) {
	n := len(costs)
	if n == 0 {
		return nil, &InfeasibleError{Reason: "empty cost matrix"}
	}
	vehicles := cfg.Vehicles
	if vehicles == 0 {
		vehicles = 1
	}
	if vehicles < 1 {
		return nil, &ValidationError{Reason: fmt.Sprintf("vehicle count %d, must be at least 1", cfg.Vehicles)}
	}
	if cfg.Depot < 0 || cfg.Depot >= n {
		return nil, &ValidationError{Reason: fmt.Sprintf("depot index %d out of range [0,%d)", cfg.Depot, n)}
	}

	p := &Problem{
		n:        n,
		costs:    make([][]float64, n),
		capacity: cfg.Capacity,
		vehicles: vehicles,
		depot:    cfg.Depot,
	}

	maxCost := 0.0
	sentinels := false
	for i, row := range costs {
		if len(row) != n {
			return nil, &ValidationError{Reason: fmt.Sprintf("cost matrix not square: row %d has %d entries, want %d", i, len(row), n)}
		}
		p.costs[i] = make([]float64, n)
		for j, v := range row {
			if i == j {
				continue // diagonal stays zero, whatever the input carries
			}
			switch {
			case v == Unreachable:
				sentinels = true
				p.costs[i][j] = Unreachable
			case math.IsNaN(v) || math.IsInf(v, 0):
				return nil, &ValidationError{Reason: fmt.Sprintf("cost[%d][%d] is not finite", i, j)}
			case v < 0:
				return nil, &ValidationError{Reason: fmt.Sprintf("cost[%d][%d] = %g is negative and not the unreachable sentinel", i, j, v)}
			default:
				p.costs[i][j] = v
				if v > maxCost {
					maxCost = v
				}
			}
		}
	}
	if sentinels {
		sub := maxCost * float64(n)
		if sub <= 0 {
			sub = 1
		}
		for i := range p.costs {
			for j, v := range p.costs[i] {
				if i != j && v == Unreachable {
					p.costs[i][j] = sub
				}
			}
		}
	}

	if cfg.Demands != nil {
		if len(cfg.Demands) != n {
			return nil, &ValidationError{Reason: fmt.Sprintf("demand vector has %d entries, want %d", len(cfg.Demands), n)}
		}
		for i, d := range cfg.Demands {
			if d < 0 || math.IsNaN(d) || math.IsInf(d, 0) {
				return nil, &ValidationError{Reason: fmt.Sprintf("demand[%d] = %g, must be a non-negative finite number", i, d)}
			}
			p.totalDemand += d
		}
		if cfg.Demands[cfg.Depot] != 0 {
			return nil, &ValidationError{Reason: fmt.Sprintf("depot demand must be zero, got %g", cfg.Demands[cfg.Depot])}
		}
		p.demands = append([]float64(nil), cfg.Demands...)
	}

	if p.capacity > 0 && p.totalDemand > p.capacity*float64(p.vehicles) {
		return nil, &InfeasibleError{Demand: p.totalDemand, Capacity: p.capacity * float64(p.vehicles)}
	}

	p.symmetric = true
	for i := 0; i < n && p.symmetric; i++ {
		for j := i + 1; j < n; j++ {
			if p.costs[i][j] != p.costs[j][i] {
				p.symmetric = false
				break
			}
		}
	}
	return p, nil
}

// Cost returns the travel cost from location i to location j.
func (p *Problem) Cost(i, j int) float64 { return p.costs[i][j] }

// Demand returns location i's demand, zero when no demands were given.
func (p *Problem) Demand(i int) float64 {
	if p.demands == nil {
		return 0
	}
	return p.demands[i]
}

// Capacity returns the per-vehicle capacity; <= 0 means unlimited.
func (p *Problem) Capacity() float64 { return p.capacity }

// Depot returns the index every route starts and ends at.
func (p *Problem) Depot() int { return p.depot }

// Size returns the number of locations, depot included.
func (p *Problem) Size() int { return p.n }

// Vehicles returns the fleet size.
func (p *Problem) Vehicles() int { return p.vehicles }

// Symmetric reports whether cost(i,j) == cost(j,i) for all pairs.
func (p *Problem) Symmetric() bool { return p.symmetric }

func (p *Problem) capacityBound() bool { return p.capacity > 0 }

func (p *Problem) fits(load, demand float64) bool {
	return !p.capacityBound() || load+demand <= p.capacity
}
