package solver

import (
	"errors"
	"math"
	"testing"
)

func mustProblem(t *testing.T, costs [][]float64, cfg ProblemConfig) *Problem {
	t.Helper()
	p, err := NewProblem(costs, cfg)
	if err != nil {
		t.Fatalf("NewProblem failed: %v", err)
	}
	return p
}

func sym4() [][]float64 {
	return [][]float64{
		{0, 10, 15, 20},
		{10, 0, 35, 25},
		{15, 35, 0, 30},
		{20, 25, 30, 0},
	}
}

func TestNewProblemValidation(t *testing.T) {
	cases := []struct {
		name  string
		costs [][]float64
		cfg   ProblemConfig
	}{
		{"not square", [][]float64{{0, 1}, {1}}, ProblemConfig{}},
		{"negative cost", [][]float64{{0, -2}, {1, 0}}, ProblemConfig{}},
		{"nan cost", [][]float64{{0, math.NaN()}, {1, 0}}, ProblemConfig{}},
		{"inf cost", [][]float64{{0, math.Inf(1)}, {1, 0}}, ProblemConfig{}},
		{"demand length", sym4(), ProblemConfig{Demands: []float64{0, 1}}},
		{"negative demand", sym4(), ProblemConfig{Demands: []float64{0, -1, 1, 1}}},
		{"depot demand", sym4(), ProblemConfig{Demands: []float64{1, 1, 1, 1}}},
		{"depot range", sym4(), ProblemConfig{Depot: 4}},
		{"depot negative", sym4(), ProblemConfig{Depot: -1}},
		{"vehicle count", sym4(), ProblemConfig{Vehicles: -2}},
	}
	for _, tc := range cases {
		_, err := NewProblem(tc.costs, tc.cfg)
		var ve *ValidationError
		if !errors.As(err, &ve) {
			t.Fatalf("%s: want ValidationError, got %v", tc.name, err)
		}
	}
}

func TestNewProblemEmptyMatrixInfeasible(t *testing.T) {
	_, err := NewProblem(nil, ProblemConfig{})
	var ie *InfeasibleError
	if !errors.As(err, &ie) {
		t.Fatalf("want InfeasibleError for empty matrix, got %v", err)
	}
}

func TestNewProblemDemandExceedsFleet(t *testing.T) {
	costs := [][]float64{{0, 5}, {5, 0}}
	_, err := NewProblem(costs, ProblemConfig{Demands: []float64{0, 2}, Capacity: 1, Vehicles: 1})
	var ie *InfeasibleError
	if !errors.As(err, &ie) {
		t.Fatalf("want InfeasibleError, got %v", err)
	}
	if ie.Demand != 2 || ie.Capacity != 1 {
		t.Fatalf("unexpected error fields: %+v", ie)
	}
}

func TestSentinelRewrite(t *testing.T) {
	costs := [][]float64{
		{0, 1, Unreachable},
		{1, 0, 2},
		{Unreachable, 2, 0},
	}
	p := mustProblem(t, costs, ProblemConfig{})
	want := 2.0 * 3 // max entry times N
	if got := p.Cost(0, 2); got != want {
		t.Fatalf("sentinel not rewritten: Cost(0,2)=%g want %g", got, want)
	}
	if got := p.Cost(2, 0); got != want {
		t.Fatalf("sentinel not rewritten: Cost(2,0)=%g want %g", got, want)
	}
	for i := 0; i < p.Size(); i++ {
		for j := 0; j < p.Size(); j++ {
			if p.Cost(i, j) < 0 {
				t.Fatalf("negative cost survived at (%d,%d)", i, j)
			}
		}
	}
}

func TestSentinelRewriteAllUnreachable(t *testing.T) {
	costs := [][]float64{
		{0, Unreachable},
		{Unreachable, 0},
	}
	p := mustProblem(t, costs, ProblemConfig{})
	if got := p.Cost(0, 1); got <= 0 {
		t.Fatalf("substitute must stay positive, got %g", got)
	}
}

func TestDiagonalForcedZero(t *testing.T) {
	costs := [][]float64{
		{7, 1},
		{1, Unreachable},
	}
	p := mustProblem(t, costs, ProblemConfig{})
	if p.Cost(0, 0) != 0 || p.Cost(1, 1) != 0 {
		t.Fatalf("diagonal not zeroed: %g %g", p.Cost(0, 0), p.Cost(1, 1))
	}
}

func TestProblemCopiesInput(t *testing.T) {
	costs := sym4()
	p := mustProblem(t, costs, ProblemConfig{})
	costs[0][1] = 999
	if p.Cost(0, 1) != 10 {
		t.Fatalf("problem aliases caller matrix")
	}
}

func TestProblemDefaultsAndAccessors(t *testing.T) {
	p := mustProblem(t, sym4(), ProblemConfig{})
	if p.Vehicles() != 1 || p.Depot() != 0 || p.Size() != 4 {
		t.Fatalf("bad defaults: vehicles=%d depot=%d size=%d", p.Vehicles(), p.Depot(), p.Size())
	}
	if p.Capacity() > 0 {
		t.Fatalf("zero config must mean unlimited capacity")
	}
	if p.Demand(2) != 0 {
		t.Fatalf("nil demands must read as zero")
	}
	if !p.Symmetric() {
		t.Fatalf("matrix is symmetric")
	}

	asym := [][]float64{{0, 1}, {2, 0}}
	if mustProblem(t, asym, ProblemConfig{}).Symmetric() {
		t.Fatalf("matrix is asymmetric")
	}
}
