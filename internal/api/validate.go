package api

import (
	"fmt"
	"math"
	"strings"

	"routeplan/internal/geo"
	"routeplan/internal/model"
)

const (
	maxMatrixSize   = 2000
	maxTimeBudgetMs = 300000 // 5 minutes
	maxStarts       = 64
	maxWorkers      = 32
)

func validateCosts(costs [][]float64) error {
	n := len(costs)
	if n == 0 {
		return fmt.Errorf("costs must not be empty")
	}
	if n > maxMatrixSize {
		return fmt.Errorf("matrix size %d exceeds the limit of %d", n, maxMatrixSize)
	}
	for i, row := range costs {
		if len(row) != n {
			return fmt.Errorf("costs row %d has %d entries, want %d", i, len(row), n)
		}
		for j, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("costs[%d][%d] is not finite", i, j)
			}
			if v < 0 && v != -1 {
				return fmt.Errorf("costs[%d][%d] is negative; only the -1 unreachable marker is allowed", i, j)
			}
		}
	}
	return nil
}

func validateMatrixInput(in *model.MatrixInput) error {
	if err := validateCosts(in.Costs); err != nil {
		return err
	}
	if len(in.Labels) > 0 && len(in.Labels) != len(in.Costs) {
		return fmt.Errorf("labels length %d does not match matrix size %d", len(in.Labels), len(in.Costs))
	}
	return nil
}

func validateSolverOptions(budgetMs, maxMoves, starts, workers int, strategy string) error {
	if budgetMs < 0 {
		return fmt.Errorf("timeBudgetMs must be >= 0")
	}
	if budgetMs > maxTimeBudgetMs {
		return fmt.Errorf("timeBudgetMs must be <= %d", maxTimeBudgetMs)
	}
	if maxMoves < 0 {
		return fmt.Errorf("maxMoves must be >= 0")
	}
	if starts < 0 || starts > maxStarts {
		return fmt.Errorf("starts must be in [0,%d]", maxStarts)
	}
	if workers < 0 || workers > maxWorkers {
		return fmt.Errorf("workers must be in [0,%d]", maxWorkers)
	}
	switch strategy {
	case "", "first_improvement", "best_improvement":
	default:
		return fmt.Errorf("invalid strategy: %s (allowed: first_improvement, best_improvement)", strategy)
	}
	return nil
}

func validateSolveRequest(req *model.SolveRequest) error {
	if req.MatrixID == "" && len(req.Costs) == 0 {
		return fmt.Errorf("either matrixId or costs is required")
	}
	if req.MatrixID != "" && len(req.Costs) > 0 {
		return fmt.Errorf("matrixId and costs are mutually exclusive")
	}
	if len(req.Costs) > 0 {
		if err := validateCosts(req.Costs); err != nil {
			return err
		}
		if len(req.Demands) > 0 && len(req.Demands) != len(req.Costs) {
			return fmt.Errorf("demands length %d does not match matrix size %d", len(req.Demands), len(req.Costs))
		}
	}
	if req.Capacity < 0 {
		return fmt.Errorf("capacity must be >= 0")
	}
	if req.Vehicles < 0 {
		return fmt.Errorf("vehicles must be >= 0")
	}
	if req.Depot < 0 {
		return fmt.Errorf("depot must be >= 0")
	}
	return validateSolverOptions(req.TimeBudgetMs, req.MaxMoves, req.Starts, req.Workers, req.Strategy)
}

func validatePlanRequest(req *model.PlanRequest) error {
	if len(req.Addresses) == 0 {
		return fmt.Errorf("addresses must not be empty")
	}
	if len(req.Addresses) > geo.MaxMatrixCoordinates {
		return fmt.Errorf("%d addresses exceeds the matrix API limit of %d", len(req.Addresses), geo.MaxMatrixCoordinates)
	}
	for i, a := range req.Addresses {
		if strings.TrimSpace(a.AddressLine) == "" {
			return fmt.Errorf("addresses[%d]: addressLine is required", i)
		}
	}
	if len(req.Demands) > 0 && len(req.Demands) != len(req.Addresses) {
		return fmt.Errorf("demands length %d does not match address count %d", len(req.Demands), len(req.Addresses))
	}
	if req.Capacity < 0 {
		return fmt.Errorf("capacity must be >= 0")
	}
	if req.Vehicles < 0 {
		return fmt.Errorf("vehicles must be >= 0")
	}
	return validateSolverOptions(req.TimeBudgetMs, 0, req.Starts, req.Workers, req.Strategy)
}
