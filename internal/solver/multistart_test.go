package solver

import (
	"context"
	"errors"
	"testing"
)

func TestMultiStartNeverWorseThanSingle(t *testing.T) {
	p := randomProblem(t, 13, 3)
	single, _, err := Solve(context.Background(), p, Options{})
	if err != nil {
		t.Fatalf("single: %v", err)
	}
	multi, st, err := Solve(context.Background(), p, Options{Starts: 6})
	if err != nil {
		t.Fatalf("multi: %v", err)
	}
	if multi.Cost > single.Cost+epsCost {
		t.Fatalf("multi-start worse than single: %g vs %g", multi.Cost, single.Cost)
	}
	if st.Starts != 6 {
		t.Fatalf("want 6 starts, got %d", st.Starts)
	}
	if cost, feasible := Evaluate(p, multi); !feasible || cost > multi.Cost+epsCost {
		t.Fatalf("multi-start result does not evaluate clean: %g %v", cost, feasible)
	}
}

func TestMultiStartDeterministic(t *testing.T) {
	p := randomProblem(t, 12, 3)
	opts := Options{Starts: 4, Workers: 2}
	a, sa, err := Solve(context.Background(), p, opts)
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	b, sb, err := Solve(context.Background(), p, opts)
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	if a.Cost != b.Cost || sa.BestStart != sb.BestStart {
		t.Fatalf("multi-start not deterministic: %g/start %d vs %g/start %d",
			a.Cost, sa.BestStart, b.Cost, sb.BestStart)
	}
	for i := range a.Routes {
		if !equalStops(a.Routes[i].Stops, b.Routes[i].Stops) {
			t.Fatalf("routes differ at %d: %v vs %v", i, a.Routes[i].Stops, b.Routes[i].Stops)
		}
	}
}

func TestMultiStartClampsToProblemSize(t *testing.T) {
	p := mustProblem(t, sym4(), ProblemConfig{})
	_, st, err := Solve(context.Background(), p, Options{Starts: 100, Workers: 64})
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	if st.Starts != p.Size() {
		t.Fatalf("want starts clamped to %d, got %d", p.Size(), st.Starts)
	}
}

func TestMultiStartAllStartsFail(t *testing.T) {
	// Two locations of demand 2 on a fleet of one vehicle of capacity 3:
	// total demand 4 exceeds 3, rejected by the model before any start runs.
	_, err := NewProblem(lineMatrix([]float64{0, 1, 2}), ProblemConfig{
		Demands:  []float64{0, 2, 2},
		Capacity: 3,
		Vehicles: 1,
	})
	var ie *InfeasibleError
	if !errors.As(err, &ie) {
		t.Fatalf("want InfeasibleError, got %v", err)
	}

	// A fleet that passes the aggregate check but cannot pack: three
	// locations of demand 2 each need their own vehicle, yet only two
	// vehicles exist. Every start fails in construction and the failure
	// surfaces from Solve.
	p := mustProblem(t, lineMatrix([]float64{0, 1, 2, 3}), ProblemConfig{
		Demands:  []float64{0, 2, 2, 2},
		Capacity: 3,
		Vehicles: 2,
	})
	_, _, err = Solve(context.Background(), p, Options{Starts: 3, Workers: 2})
	var nse *NoSolutionError
	if !errors.As(err, &nse) {
		t.Fatalf("want NoSolutionError from every start, got %v", err)
	}
}

func TestMultiStartCanceledContext(t *testing.T) {
	p := randomProblem(t, 12, 3)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := Solve(ctx, p, Options{Starts: 4, Workers: 2})
	if err == nil {
		t.Fatalf("want error from canceled context")
	}
}

func TestStartLocationSkipsDepot(t *testing.T) {
	p := mustProblem(t, sym4(), ProblemConfig{Depot: 1})
	if got := startLocation(p, 0); got != -1 {
		t.Fatalf("start 0 must not force an insertion, got %d", got)
	}
	want := []int{0, 2, 3}
	for k, w := range want {
		if got := startLocation(p, k+1); got != w {
			t.Fatalf("start %d: want location %d, got %d", k+1, w, got)
		}
	}
}
