package api

import (
    "encoding/json"
    "net/http"
    "os"
    "time"

    "routeplan/internal/buildinfo"
    "routeplan/internal/solver"
)

// DebugJSON reports build and config state, plus the in-memory search stats
// of a solve when ?solveId= is given.
func (s *Server) DebugJSON(w http.ResponseWriter, r *http.Request) {
    info := map[string]any{
        "build": buildinfo.Info(),
        "time":  time.Now().UTC().Format(time.RFC3339),
        "config": map[string]any{
            "PORT": os.Getenv("PORT"),
            "GEO_BASE_URL": os.Getenv("GEO_BASE_URL"),
            "WEBHOOK_MAX_ATTEMPTS": os.Getenv("WEBHOOK_MAX_ATTEMPTS"),
            "HAS_DATABASE_URL": os.Getenv("DATABASE_URL") != "",
            "HAS_REDIS_URL": os.Getenv("REDIS_URL") != "",
            "HAS_GEO_API_KEY": os.Getenv("GEO_API_KEY") != "",
            "HAS_API_KEYS": os.Getenv("API_KEYS") != "",
        },
    }
    if id := r.URL.Query().Get("solveId"); id != "" {
        if p, err := s.getPrincipal(r); err == nil {
            if st, ok := solver.StatsFor(p.Tenant, id); ok { info["solveStats"] = st }
        }
    }
    w.Header().Set("Content-Type", "application/json")
    _ = json.NewEncoder(w).Encode(info)
}
