// Package api implements HTTP handlers and helpers for the route planning service.
package api

import (
    "errors"
    "net/http"
    "strings"
)

type Principal struct {
    Tenant string
    Role   string // admin, viewer
}

// getPrincipal resolves the caller identity.
// - With API_KEYS configured, X-API-Key is required and decides tenant/role.
// - Otherwise headers apply with open defaults for local use.
func (s *Server) getPrincipal(r *http.Request) (Principal, error) {
    if s.Auth != nil && s.Auth.Enabled() {
        key := r.Header.Get("X-API-Key")
        if key == "" {
            return Principal{}, errors.New("missing X-API-Key header")
        }
        pr, err := s.Auth.Verify(key)
        if err != nil {
            return Principal{}, err
        }
        return Principal{Tenant: s.normalizeTenantID(pr.Tenant), Role: pr.Role}, nil
    }
    tenant := s.normalizeTenantID(r.Header.Get("X-Tenant-Id"))
    role := strings.ToLower(r.Header.Get("X-Role"))
    if role == "" {
        role = "admin"
    }
    return Principal{Tenant: tenant, Role: role}, nil
}

// normalizeTenantID lowercases the tenant and falls back to "default".
func (s *Server) normalizeTenantID(t string) string {
    t = strings.ToLower(strings.TrimSpace(t))
    if t == "" {
        return "default"
    }
    return t
}

// IsAdmin reports whether the principal has the admin role.
func (p Principal) IsAdmin() bool { return p.Role == "admin" }
