package api

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "net/http"
    "strings"
    "time"

    "github.com/google/uuid"

    "routeplan/internal/metrics"
    "routeplan/internal/model"
    "routeplan/internal/solver"
    "routeplan/internal/store"
)

// publish fans an event out to websocket subscribers of the tenant.
func (s *Server) publish(tenant, evtType string, data map[string]any) {
    s.Broker.Publish(tenant, Event{Type: evtType, Data: data})
}

// MatricesHandler handles POST/GET /v1/matrices
func (s *Server) MatricesHandler(w http.ResponseWriter, r *http.Request) {
    p, err := s.getPrincipal(r)
    if err != nil { writeProblem(w, http.StatusUnauthorized, "Unauthorized", err.Error(), r.URL.Path); return }
    switch r.Method {
    case http.MethodPost:
        var in model.MatrixInput
        if err := decodeJSON(r, &in); err != nil {
            writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
            return
        }
        if err := validateMatrixInput(&in); err != nil {
            writeProblem(w, http.StatusBadRequest, "Invalid matrix", err.Error(), r.URL.Path)
            return
        }
        m, err := s.Store.CreateMatrix(r.Context(), p.Tenant, in)
        if err != nil {
            writeProblem(w, http.StatusInternalServerError, "Create matrix failed", err.Error(), r.URL.Path)
            return
        }
        s.publish(p.Tenant, "matrix.created", map[string]any{"matrixId": m.ID, "size": len(m.Costs), "mode": m.Mode})
        writeJSON(w, http.StatusCreated, m)
    case http.MethodGet:
        cursor := r.URL.Query().Get("cursor")
        limit := 100
        if v := r.URL.Query().Get("limit"); v != "" { fmt.Sscanf(v, "%d", &limit) }
        items, next, err := s.Store.ListMatrices(r.Context(), p.Tenant, cursor, limit)
        if err != nil { writeProblem(w, 500, "List matrices failed", err.Error(), r.URL.Path); return }
        writeJSON(w, 200, map[string]any{"items": items, "nextCursor": next})
    default:
        w.WriteHeader(http.StatusMethodNotAllowed)
    }
}

// MatrixByIDHandler handles GET /v1/matrices/{id}
func (s *Server) MatrixByIDHandler(w http.ResponseWriter, r *http.Request) {
    if !strings.HasPrefix(r.URL.Path, "/v1/matrices/") { writeProblem(w, 404, "Not Found", "", r.URL.Path); return }
    if r.Method != http.MethodGet { w.WriteHeader(http.StatusMethodNotAllowed); return }
    p, err := s.getPrincipal(r)
    if err != nil { writeProblem(w, http.StatusUnauthorized, "Unauthorized", err.Error(), r.URL.Path); return }
    id := strings.TrimPrefix(r.URL.Path, "/v1/matrices/")
    m, err := s.Store.GetMatrix(r.Context(), p.Tenant, id)
    if err != nil {
        if errors.Is(err, store.ErrNotFound) { writeProblem(w, 404, "Matrix not found", err.Error(), r.URL.Path); return }
        writeProblem(w, 500, "Get matrix failed", err.Error(), r.URL.Path)
        return
    }
    writeJSON(w, 200, m)
}

// SolvesHandler handles POST/GET /v1/solves
func (s *Server) SolvesHandler(w http.ResponseWriter, r *http.Request) {
    p, err := s.getPrincipal(r)
    if err != nil { writeProblem(w, http.StatusUnauthorized, "Unauthorized", err.Error(), r.URL.Path); return }
    switch r.Method {
    case http.MethodPost:
        var req model.SolveRequest
        if err := decodeJSON(r, &req); err != nil {
            writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
            return
        }
        if err := validateSolveRequest(&req); err != nil {
            writeProblem(w, http.StatusBadRequest, "Invalid solve request", err.Error(), r.URL.Path)
            return
        }
        costs := req.Costs
        if req.MatrixID != "" {
            m, err := s.Store.GetMatrix(r.Context(), p.Tenant, req.MatrixID)
            if err != nil {
                if errors.Is(err, store.ErrNotFound) { writeProblem(w, 404, "Matrix not found", err.Error(), r.URL.Path); return }
                writeProblem(w, 500, "Get matrix failed", err.Error(), r.URL.Path)
                return
            }
            costs = m.Costs
        }
        if len(req.Demands) > 0 && len(req.Demands) != len(costs) {
            writeProblem(w, http.StatusBadRequest, "Invalid solve request",
                fmt.Sprintf("demands length %d does not match matrix size %d", len(req.Demands), len(costs)), r.URL.Path)
            return
        }
        sv, err := s.runSolve(r.Context(), p.Tenant, &req, costs, req.MatrixID)
        if err != nil {
            var ve *solver.ValidationError
            if errors.As(err, &ve) { writeProblem(w, http.StatusBadRequest, "Invalid solve request", err.Error(), r.URL.Path); return }
            var ie *solver.InfeasibleError
            if errors.As(err, &ie) { writeProblem(w, http.StatusUnprocessableEntity, "Infeasible problem", err.Error(), r.URL.Path); return }
            var ne *solver.NoSolutionError
            if errors.As(err, &ne) { writeProblem(w, http.StatusUnprocessableEntity, "No solution", err.Error(), r.URL.Path); return }
            writeProblem(w, http.StatusInternalServerError, "Solve failed", err.Error(), r.URL.Path)
            return
        }
        writeJSON(w, http.StatusCreated, sv)
    case http.MethodGet:
        status := r.URL.Query().Get("status")
        cursor := r.URL.Query().Get("cursor")
        limit := 100
        if v := r.URL.Query().Get("limit"); v != "" { fmt.Sscanf(v, "%d", &limit) }
        items, next, err := s.Store.ListSolves(r.Context(), p.Tenant, status, cursor, limit)
        if err != nil { writeProblem(w, 500, "List solves failed", err.Error(), r.URL.Path); return }
        writeJSON(w, 200, map[string]any{"items": items, "nextCursor": next})
    default:
        w.WriteHeader(http.StatusMethodNotAllowed)
    }
}

// runSolve executes the solver synchronously and persists the outcome as a
// Solve record. A solver error is returned for status mapping after the
// failed record has been stored and announced; store errors come back
// untyped and map to 500.
func (s *Server) runSolve(ctx context.Context, tenant string, req *model.SolveRequest, costs [][]float64, matrixID string) (model.Solve, error) {
    prob, err := solver.NewProblem(costs, solver.ProblemConfig{
        Demands:  req.Demands,
        Capacity: req.Capacity,
        Vehicles: req.Vehicles,
        Depot:    req.Depot,
    })
    if err != nil {
        metrics.Solves.WithLabelValues("rejected").Inc()
        return model.Solve{}, err
    }

    id := uuid.NewString()
    s.publish(tenant, "solve.started", map[string]any{"solveId": id, "matrixId": matrixID, "size": len(costs)})

    opts := solver.Options{
        Budget:  solver.Budget{MaxTime: 2 * time.Second, MaxMoves: req.MaxMoves},
        Starts:  req.Starts,
        Workers: req.Workers,
    }
    if req.TimeBudgetMs > 0 { opts.Budget.MaxTime = time.Duration(req.TimeBudgetMs) * time.Millisecond }
    if req.Strategy == "best_improvement" { opts.Strategy = solver.BestImprovement }
    opts.Progress = func(pr solver.Progress) {
        if pr.Accepted == 0 { return }
        s.publish(tenant, "solve.progress", map[string]any{"solveId": id, "start": pr.Start, "pass": pr.Pass, "cost": pr.Cost})
    }

    sol, st, err := solver.Solve(ctx, prob, opts)
    metrics.SolveDuration.Observe(st.Elapsed.Seconds())
    now := time.Now().UTC().Format(time.RFC3339)
    if err != nil {
        sv := model.Solve{ID: id, TenantID: tenant, MatrixID: matrixID, Status: "failed", Request: req, Error: err.Error(), CompletedAt: now}
        if _, serr := s.Store.CreateSolve(ctx, sv); serr != nil {
            return model.Solve{}, fmt.Errorf("save solve: %v (solver: %w)", serr, err)
        }
        metrics.Solves.WithLabelValues("failed").Inc()
        data := map[string]any{"solveId": id, "error": err.Error()}
        s.publish(tenant, "solve.failed", data)
        s.Pub.Emit(ctx, tenant, "solve.failed", data)
        return sv, err
    }

    routes := make([]model.RouteResult, 0, len(sol.Routes))
    for _, rt := range sol.Routes {
        if rt.Empty() { continue }
        routes = append(routes, model.RouteResult{Stops: append([]int(nil), rt.Stops...), Cost: rt.Cost, Load: rt.Load})
    }
    sv := model.Solve{
        ID:          id,
        TenantID:    tenant,
        MatrixID:    matrixID,
        Status:      "completed",
        Request:     req,
        Routes:      routes,
        TotalCost:   sol.Cost,
        Feasible:    sol.Feasible,
        CompletedAt: now,
    }
    sv, err = s.Store.CreateSolve(ctx, sv)
    if err != nil {
        return model.Solve{}, fmt.Errorf("save solve: %w", err)
    }
    solver.RecordStats(tenant, id, st)
    if b, err := json.Marshal(st); err == nil {
        _ = s.Store.SaveSolveStats(ctx, tenant, id, b)
    }
    metrics.Solves.WithLabelValues("completed").Inc()
    data := map[string]any{"solveId": id, "totalCost": sol.Cost, "feasible": sol.Feasible, "passes": st.Passes}
    s.publish(tenant, "solve.completed", data)
    s.Pub.Emit(ctx, tenant, "solve.completed", data)
    return sv, nil
}

// SolveByIDHandler handles GET /v1/solves/{id} and /v1/solves/{id}/stats
func (s *Server) SolveByIDHandler(w http.ResponseWriter, r *http.Request) {
    rest := strings.TrimPrefix(r.URL.Path, "/v1/solves/")
    if rest == r.URL.Path || rest == "" {
        writeProblem(w, http.StatusNotFound, "Not Found", "missing id", r.URL.Path)
        return
    }
    if r.Method != http.MethodGet { w.WriteHeader(http.StatusMethodNotAllowed); return }
    p, err := s.getPrincipal(r)
    if err != nil { writeProblem(w, http.StatusUnauthorized, "Unauthorized", err.Error(), r.URL.Path); return }
    parts := strings.Split(rest, "/")
    id := parts[0]
    if len(parts) > 1 && parts[1] == "stats" {
        b, err := s.Store.GetSolveStats(r.Context(), p.Tenant, id)
        if err != nil {
            if errors.Is(err, store.ErrNotFound) { writeProblem(w, 404, "Stats not found", err.Error(), r.URL.Path); return }
            writeProblem(w, 500, "Get stats failed", err.Error(), r.URL.Path)
            return
        }
        w.Header().Set("Content-Type", "application/json")
        w.WriteHeader(http.StatusOK)
        _, _ = w.Write(b)
        return
    }
    sv, err := s.Store.GetSolve(r.Context(), p.Tenant, id)
    if err != nil {
        if errors.Is(err, store.ErrNotFound) { writeProblem(w, 404, "Solve not found", err.Error(), r.URL.Path); return }
        writeProblem(w, 500, "Get solve failed", err.Error(), r.URL.Path)
        return
    }
    writeJSON(w, 200, sv)
}

// SubscriptionsHandler handles POST/GET /v1/subscriptions
func (s *Server) SubscriptionsHandler(w http.ResponseWriter, r *http.Request) {
    p, err := s.getPrincipal(r)
    if err != nil { writeProblem(w, http.StatusUnauthorized, "Unauthorized", err.Error(), r.URL.Path); return }
    switch r.Method {
    case http.MethodPost:
        if !p.IsAdmin() { writeProblem(w, 403, "Forbidden", "admin required", r.URL.Path); return }
        var req model.SubscriptionRequest
        if err := decodeJSON(r, &req); err != nil {
            writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
            return
        }
        if strings.TrimSpace(req.URL) == "" {
            writeProblem(w, http.StatusBadRequest, "Invalid subscription", "url is required", r.URL.Path)
            return
        }
        req.TenantID = p.Tenant
        sub, err := s.Store.CreateSubscription(r.Context(), req)
        if err != nil {
            writeProblem(w, http.StatusInternalServerError, "Create subscription failed", err.Error(), r.URL.Path)
            return
        }
        writeJSON(w, http.StatusCreated, sub)
    case http.MethodGet:
        if !p.IsAdmin() { writeProblem(w, 403, "Forbidden", "admin required", r.URL.Path); return }
        cursor := r.URL.Query().Get("cursor")
        limit := 100
        if v := r.URL.Query().Get("limit"); v != "" { fmt.Sscanf(v, "%d", &limit) }
        items, next, err := s.Store.ListSubscriptions(r.Context(), p.Tenant, cursor, limit)
        if err != nil { writeProblem(w, 500, "List subscriptions failed", err.Error(), r.URL.Path); return }
        writeJSON(w, 200, map[string]any{"items": items, "nextCursor": next})
    default:
        w.WriteHeader(http.StatusMethodNotAllowed)
    }
}

// SubscriptionByIDHandler handles DELETE /v1/subscriptions/{id}
func (s *Server) SubscriptionByIDHandler(w http.ResponseWriter, r *http.Request) {
    if !strings.HasPrefix(r.URL.Path, "/v1/subscriptions/") { writeProblem(w, 404, "Not Found", "", r.URL.Path); return }
    if r.Method != http.MethodDelete { w.WriteHeader(http.StatusMethodNotAllowed); return }
    p, err := s.getPrincipal(r)
    if err != nil { writeProblem(w, http.StatusUnauthorized, "Unauthorized", err.Error(), r.URL.Path); return }
    if !p.IsAdmin() { writeProblem(w, 403, "Forbidden", "admin required", r.URL.Path); return }
    id := strings.TrimPrefix(r.URL.Path, "/v1/subscriptions/")
    if err := s.Store.DeleteSubscription(r.Context(), p.Tenant, id); err != nil {
        if errors.Is(err, store.ErrNotFound) { writeProblem(w, 404, "Subscription not found", err.Error(), r.URL.Path); return }
        writeProblem(w, 500, "Delete subscription failed", err.Error(), r.URL.Path)
        return
    }
    w.WriteHeader(http.StatusNoContent)
}

// Health
func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
    writeJSON(w, 200, map[string]string{"status": "ok"})
}

func (s *Server) ReadyHandler(w http.ResponseWriter, r *http.Request) {
    // Check DB connectivity when using Postgres store
    type pinger interface{ Ping(ctx context.Context) error }
    if pg, ok := s.Store.(pinger); ok {
        ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
        defer cancel()
        if err := pg.Ping(ctx); err != nil { writeProblem(w, 503, "Not Ready", err.Error(), r.URL.Path); return }
    }
    writeJSON(w, 200, map[string]string{"status": "ready"})
}

// Admin: webhook deliveries list and retry
func (s *Server) WebhookDeliveriesHandler(w http.ResponseWriter, r *http.Request) {
    if r.URL.Path != "/v1/admin/webhook-deliveries" { writeProblem(w, 404, "Not Found", "", r.URL.Path); return }
    p, err := s.getPrincipal(r)
    if err != nil { writeProblem(w, http.StatusUnauthorized, "Unauthorized", err.Error(), r.URL.Path); return }
    if !p.IsAdmin() { writeProblem(w, 403, "Forbidden", "admin required", r.URL.Path); return }
    if r.Method != http.MethodGet { w.WriteHeader(http.StatusMethodNotAllowed); return }
    status := r.URL.Query().Get("status")
    cursor := r.URL.Query().Get("cursor")
    limit := 100
    if v := r.URL.Query().Get("limit"); v != "" { fmt.Sscanf(v, "%d", &limit) }
    items, next, err := s.Store.ListWebhookDeliveries(r.Context(), p.Tenant, status, cursor, limit)
    if err != nil { writeProblem(w, 500, "List deliveries failed", err.Error(), r.URL.Path); return }
    writeJSON(w, 200, map[string]any{"items": items, "nextCursor": next})
}

func (s *Server) WebhookDeliveryRetryHandler(w http.ResponseWriter, r *http.Request) {
    if !strings.HasPrefix(r.URL.Path, "/v1/admin/webhook-deliveries/") || !strings.HasSuffix(r.URL.Path, "/retry") { writeProblem(w, 404, "Not Found", "", r.URL.Path); return }
    if r.Method != http.MethodPost { w.WriteHeader(http.StatusMethodNotAllowed); return }
    p, err := s.getPrincipal(r)
    if err != nil { writeProblem(w, http.StatusUnauthorized, "Unauthorized", err.Error(), r.URL.Path); return }
    if !p.IsAdmin() { writeProblem(w, 403, "Forbidden", "admin required", r.URL.Path); return }
    id := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/v1/admin/webhook-deliveries/"), "/retry")
    if err := s.Store.RetryWebhookDelivery(r.Context(), p.Tenant, id); err != nil {
        if errors.Is(err, store.ErrNotFound) { writeProblem(w, 404, "Delivery not found", err.Error(), r.URL.Path); return }
        writeProblem(w, 500, "Retry delivery failed", err.Error(), r.URL.Path)
        return
    }
    writeJSON(w, 202, map[string]int{"accepted": 1})
}
