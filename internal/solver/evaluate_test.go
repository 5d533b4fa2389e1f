package solver

import (
	"math"
	"testing"
)

func TestEvaluateCostAndFeasible(t *testing.T) {
	p := mustProblem(t, sym4(), ProblemConfig{})
	sol := &Solution{Routes: []Route{{Stops: []int{0, 1, 3, 2, 0}}}}
	cost, feasible := Evaluate(p, sol)
	if !feasible {
		t.Fatalf("tour is feasible")
	}
	if cost != 80 {
		t.Fatalf("want 80, got %g", cost)
	}
}

func TestEvaluateIdempotent(t *testing.T) {
	p := mustProblem(t, sym4(), ProblemConfig{})
	sol := &Solution{Routes: []Route{{Stops: []int{0, 2, 1, 3, 0}}}}
	c1, f1 := Evaluate(p, sol)
	c2, f2 := Evaluate(p, sol)
	if c1 != c2 || f1 != f2 {
		t.Fatalf("evaluation not idempotent: (%g,%v) vs (%g,%v)", c1, f1, c2, f2)
	}
}

func TestEvaluateSymmetricReversal(t *testing.T) {
	p := mustProblem(t, sym4(), ProblemConfig{})
	fwd := &Solution{Routes: []Route{{Stops: []int{0, 1, 3, 2, 0}}}}
	rev := &Solution{Routes: []Route{{Stops: []int{0, 2, 3, 1, 0}}}}
	cf, _ := Evaluate(p, fwd)
	cr, _ := Evaluate(p, rev)
	if math.Abs(cf-cr) > epsCost {
		t.Fatalf("reversing a route changed its cost on a symmetric matrix: %g vs %g", cf, cr)
	}
}

func TestEvaluateDetectsViolations(t *testing.T) {
	p := mustProblem(t, sym4(), ProblemConfig{
		Demands:  []float64{0, 1, 1, 1},
		Capacity: 2,
		Vehicles: 2,
	})
	cases := []struct {
		name   string
		routes []Route
	}{
		{"duplicate stop", []Route{{Stops: []int{0, 1, 1, 2, 3, 0}}}},
		{"missing stop", []Route{{Stops: []int{0, 1, 2, 0}}}},
		{"wrong endpoints", []Route{{Stops: []int{1, 2, 3, 0}}}},
		{"depot mid-route", []Route{{Stops: []int{0, 1, 0, 2, 3, 0}}}},
		{"capacity exceeded", []Route{{Stops: []int{0, 1, 2, 3, 0}}}},
		{"split duplicate", []Route{{Stops: []int{0, 1, 2, 0}}, {Stops: []int{0, 2, 3, 0}}}},
		{"empty stops", []Route{{Stops: nil}}},
	}
	for _, tc := range cases {
		if _, feasible := Evaluate(p, &Solution{Routes: tc.routes}); feasible {
			t.Fatalf("%s: want infeasible", tc.name)
		}
	}
}

func TestEvaluateRejectsOutOfRange(t *testing.T) {
	p := mustProblem(t, sym4(), ProblemConfig{})
	sol := &Solution{Routes: []Route{{Stops: []int{0, 9, 0}}}}
	if cost, feasible := Evaluate(p, sol); feasible || cost != 0 {
		t.Fatalf("out-of-range stop must evaluate to (0,false), got (%g,%v)", cost, feasible)
	}
}

func TestEvaluateMultiRoute(t *testing.T) {
	p := mustProblem(t, sym4(), ProblemConfig{
		Demands:  []float64{0, 1, 1, 1},
		Capacity: 2,
		Vehicles: 2,
	})
	sol := &Solution{Routes: []Route{
		{Stops: []int{0, 1, 3, 0}},
		{Stops: []int{0, 2, 0}},
	}}
	cost, feasible := Evaluate(p, sol)
	if !feasible {
		t.Fatalf("split tour is feasible")
	}
	want := 10.0 + 25 + 20 + 15 + 15
	if cost != want {
		t.Fatalf("want %g, got %g", want, cost)
	}
}
