package api

import (
    "errors"
    "net/http"

    "routeplan/internal/geo"
    "routeplan/internal/model"
    "routeplan/internal/solver"
)

// PlansHandler handles POST /v1/plans: geocode the addresses, fetch a
// travel matrix, store it, solve, and answer with the itinerary. The first
// address is the depot.
func (s *Server) PlansHandler(w http.ResponseWriter, r *http.Request) {
    if r.Method != http.MethodPost { w.WriteHeader(http.StatusMethodNotAllowed); return }
    p, err := s.getPrincipal(r)
    if err != nil { writeProblem(w, http.StatusUnauthorized, "Unauthorized", err.Error(), r.URL.Path); return }
    if s.Geocoder == nil || s.Matrix == nil {
        writeProblem(w, http.StatusServiceUnavailable, "Geo not configured", "set GEO_API_KEY to enable plan endpoints", r.URL.Path)
        return
    }
    var req model.PlanRequest
    if err := decodeJSON(r, &req); err != nil {
        writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
        return
    }
    if err := validatePlanRequest(&req); err != nil {
        writeProblem(w, http.StatusBadRequest, "Invalid plan request", err.Error(), r.URL.Path)
        return
    }

    coords := make([]model.Coordinate, len(req.Addresses))
    for i, a := range req.Addresses {
        c, err := s.Geocoder.Geocode(r.Context(), a)
        if err != nil {
            writeProblem(w, http.StatusBadGateway, "Geocoding failed", err.Error(), r.URL.Path)
            return
        }
        coords[i] = c
    }
    costs, err := s.Matrix.Fetch(r.Context(), coords, req.Mode)
    if err != nil {
        writeProblem(w, http.StatusBadGateway, "Distance matrix failed", err.Error(), r.URL.Path)
        return
    }

    mode := req.Mode
    if mode == "" { mode = "driving" }
    labels := make([]string, len(req.Addresses))
    for i, a := range req.Addresses { labels[i] = a.AddressLine }
    m, err := s.Store.CreateMatrix(r.Context(), p.Tenant, model.MatrixInput{Mode: mode, Labels: labels, Costs: costs})
    if err != nil {
        writeProblem(w, http.StatusInternalServerError, "Create matrix failed", err.Error(), r.URL.Path)
        return
    }
    s.publish(p.Tenant, "matrix.created", map[string]any{"matrixId": m.ID, "size": len(m.Costs), "mode": m.Mode})

    sreq := &model.SolveRequest{
        MatrixID:     m.ID,
        Demands:      req.Demands,
        Capacity:     req.Capacity,
        Vehicles:     req.Vehicles,
        TimeBudgetMs: req.TimeBudgetMs,
        Starts:       req.Starts,
        Workers:      req.Workers,
        Strategy:     req.Strategy,
    }
    sv, err := s.runSolve(r.Context(), p.Tenant, sreq, costs, m.ID)
    if err != nil {
        var ve *solver.ValidationError
        if errors.As(err, &ve) { writeProblem(w, http.StatusBadRequest, "Invalid plan request", err.Error(), r.URL.Path); return }
        var ie *solver.InfeasibleError
        if errors.As(err, &ie) { writeProblem(w, http.StatusUnprocessableEntity, "Infeasible problem", err.Error(), r.URL.Path); return }
        var ne *solver.NoSolutionError
        if errors.As(err, &ne) { writeProblem(w, http.StatusUnprocessableEntity, "No solution", err.Error(), r.URL.Path); return }
        writeProblem(w, http.StatusInternalServerError, "Plan failed", err.Error(), r.URL.Path)
        return
    }

    plan := model.Plan{
        MatrixID:  m.ID,
        SolveID:   sv.ID,
        Mode:      mode,
        TotalCost: sv.TotalCost,
        Routes:    make([]model.PlanRoute, 0, len(sv.Routes)),
    }
    for _, rt := range sv.Routes {
        stops := make([]model.PlanStop, 0, len(rt.Stops))
        for _, idx := range rt.Stops {
            stops = append(stops, model.PlanStop{Index: idx, Address: req.Addresses[idx].AddressLine, Coordinate: coords[idx]})
        }
        plan.Routes = append(plan.Routes, model.PlanRoute{Stops: stops, Cost: rt.Cost})
    }
    // A single tour gets a shareable link in visiting order, depot at both ends.
    if len(sv.Routes) == 1 {
        ordered := make([]model.Address, 0, len(sv.Routes[0].Stops))
        for _, idx := range sv.Routes[0].Stops { ordered = append(ordered, req.Addresses[idx]) }
        plan.MapsURL = geo.DirectionsURL(ordered)
    }
    s.publish(p.Tenant, "plan.completed", map[string]any{"matrixId": m.ID, "solveId": sv.ID, "totalCost": sv.TotalCost, "routes": len(plan.Routes)})
    writeJSON(w, http.StatusCreated, plan)
}
