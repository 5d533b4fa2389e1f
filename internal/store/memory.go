package store

import (
    "context"
    "sync"
    "time"

    "github.com/google/uuid"
    "routeplan/internal/model"
)

// Memory is a simple in-memory store used when no DATABASE_URL is set.
type Memory struct {
    mu       sync.Mutex
    matrices map[string]model.Matrix         // id -> matrix
    mxByTen  map[string][]string             // tenant -> matrix ids
    solves   map[string]model.Solve          // id -> solve
    svByTen  map[string][]string             // tenant -> solve ids
    stats    map[string][]byte               // solve id -> stats JSON
    subs     map[string][]model.Subscription // tenant -> subscriptions
    // Webhooks queue state
    deliveries         map[string]*memDelivery // id -> delivery state
    deliveriesByTenant map[string][]string     // tenant -> delivery ids
}

func NewMemory() *Memory {
    return &Memory{
        matrices: map[string]model.Matrix{},
        mxByTen: map[string][]string{},
        solves: map[string]model.Solve{},
        svByTen: map[string][]string{},
        stats: map[string][]byte{},
        subs: map[string][]model.Subscription{},
        deliveries: map[string]*memDelivery{},
        deliveriesByTenant: map[string][]string{},
    }
}

// memDelivery augments WebhookDelivery with scheduling/metrics
type memDelivery struct {
    WebhookDelivery
    NextAttemptAt time.Time
    LastError     string
    ResponseCode  int
    LatencyMs     int
    DeliveredAt   *time.Time
}

func (m *Memory) CreateMatrix(ctx context.Context, tenantID string, in model.MatrixInput) (model.Matrix, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    mx := model.Matrix{
        ID:        uuid.New().String(),
        TenantID:  tenantID,
        Name:      in.Name,
        Mode:      in.Mode,
        Labels:    in.Labels,
        Costs:     in.Costs,
        CreatedAt: time.Now().UTC().Format(time.RFC3339),
    }
    m.matrices[mx.ID] = mx
    m.mxByTen[tenantID] = append(m.mxByTen[tenantID], mx.ID)
    return mx, nil
}

func (m *Memory) GetMatrix(ctx context.Context, tenantID, id string) (model.Matrix, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    mx, ok := m.matrices[id]
    if !ok || mx.TenantID != tenantID { return model.Matrix{}, ErrNotFound }
    return mx, nil
}

func (m *Memory) ListMatrices(ctx context.Context, tenantID, cursor string, limit int) ([]model.Matrix, string, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    ids := m.mxByTen[tenantID]
    start := 0
    if cursor != "" {
        for i, id := range ids {
            if id == cursor { start = i + 1; break }
        }
    }
    if limit <= 0 { limit = 100 }
    out := []model.Matrix{}
    var next string
    for i := start; i < len(ids) && len(out) < limit; i++ {
        out = append(out, m.matrices[ids[i]])
        next = ids[i]
    }
    if len(out) < limit { next = "" }
    return out, next, nil
}

func (m *Memory) CreateSolve(ctx context.Context, sv model.Solve) (model.Solve, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    if sv.ID == "" { sv.ID = uuid.New().String() }
    if sv.CreatedAt == "" { sv.CreatedAt = time.Now().UTC().Format(time.RFC3339) }
    m.solves[sv.ID] = sv
    m.svByTen[sv.TenantID] = append(m.svByTen[sv.TenantID], sv.ID)
    return sv, nil
}

func (m *Memory) GetSolve(ctx context.Context, tenantID, id string) (model.Solve, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    sv, ok := m.solves[id]
    if !ok || sv.TenantID != tenantID { return model.Solve{}, ErrNotFound }
    return sv, nil
}

func (m *Memory) ListSolves(ctx context.Context, tenantID, status, cursor string, limit int) ([]model.Solve, string, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    ids := m.svByTen[tenantID]
    start := 0
    if cursor != "" {
        for i, id := range ids {
            if id == cursor { start = i + 1; break }
        }
    }
    if limit <= 0 { limit = 100 }
    out := []model.Solve{}
    var next string
    for i := start; i < len(ids) && len(out) < limit; i++ {
        sv := m.solves[ids[i]]
        if status == "" || sv.Status == status { out = append(out, sv) }
        next = ids[i]
    }
    if len(out) < limit { next = "" }
    return out, next, nil
}

func (m *Memory) SaveSolveStats(ctx context.Context, tenantID, solveID string, stats []byte) error {
    m.mu.Lock(); defer m.mu.Unlock()
    sv, ok := m.solves[solveID]
    if !ok || sv.TenantID != tenantID { return ErrNotFound }
    m.stats[solveID] = append([]byte(nil), stats...)
    return nil
}

func (m *Memory) GetSolveStats(ctx context.Context, tenantID, solveID string) ([]byte, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    sv, ok := m.solves[solveID]
    if !ok || sv.TenantID != tenantID { return nil, ErrNotFound }
    st, ok := m.stats[solveID]
    if !ok { return nil, ErrNotFound }
    return st, nil
}

func (m *Memory) CreateSubscription(ctx context.Context, req model.SubscriptionRequest) (model.Subscription, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    s := model.Subscription{ID: uuid.New().String(), TenantID: req.TenantID, URL: req.URL, Events: req.Events, Secret: req.Secret,
        CreatedAt: time.Now().UTC().Format(time.RFC3339)}
    m.subs[req.TenantID] = append(m.subs[req.TenantID], s)
    return s, nil
}

func (m *Memory) GetSubscriptionsForEvent(ctx context.Context, tenantID, eventType string) ([]model.Subscription, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    var out []model.Subscription
    for _, s := range m.subs[tenantID] {
        for _, e := range s.Events {
            if e == eventType { out = append(out, s); break }
        }
    }
    return out, nil
}

func (m *Memory) ListSubscriptions(ctx context.Context, tenantID, cursor string, limit int) ([]model.Subscription, string, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    list := m.subs[tenantID]
    start := 0
    if cursor != "" {
        for i := range list {
            if list[i].ID == cursor { start = i + 1; break }
        }
    }
    if limit <= 0 { limit = 100 }
    end := start + limit
    if end > len(list) { end = len(list) }
    items := append([]model.Subscription(nil), list[start:end]...)
    next := ""
    if end < len(list) { next = list[end-1].ID }
    return items, next, nil
}

func (m *Memory) DeleteSubscription(ctx context.Context, tenantID, id string) error {
    m.mu.Lock(); defer m.mu.Unlock()
    arr := m.subs[tenantID]
    out := make([]model.Subscription, 0, len(arr))
    found := false
    for _, s := range arr {
        if s.ID == id { found = true; continue }
        out = append(out, s)
    }
    if !found { return ErrNotFound }
    m.subs[tenantID] = out
    return nil
}

func (m *Memory) EnqueueWebhook(ctx context.Context, tenantID, subscriptionID, eventType, url, secret string, payload []byte) (string, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    id := uuid.New().String()
    d := &memDelivery{WebhookDelivery: WebhookDelivery{ID: id, TenantID: tenantID, SubscriptionID: subscriptionID, EventType: eventType, URL: url, Secret: secret, Payload: payload, Status: "pending", Attempts: 0}, NextAttemptAt: time.Now()}
    m.deliveries[id] = d
    m.deliveriesByTenant[tenantID] = append(m.deliveriesByTenant[tenantID], id)
    return id, nil
}

func (m *Memory) FetchDueWebhookDeliveries(ctx context.Context, limit int) ([]WebhookDelivery, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    now := time.Now()
    out := []WebhookDelivery{}
    for _, id := range m.iterDeliveryIDs() {
        d := m.deliveries[id]
        if d == nil { continue }
        if (d.Status == "pending" || d.Status == "retry") && !d.NextAttemptAt.After(now) {
            out = append(out, d.WebhookDelivery)
            if limit > 0 && len(out) >= limit { break }
        }
    }
    return out, nil
}

func (m *Memory) MarkWebhookDelivery(ctx context.Context, id string, success bool, nextAttemptAt *time.Time, lastError string, responseCode int, latencyMs int) error {
    m.mu.Lock(); defer m.mu.Unlock()
    d := m.deliveries[id]
    if d == nil { return nil }
    d.Attempts++
    d.ResponseCode = responseCode
    d.LatencyMs = latencyMs
    if success {
        d.Status = "delivered"
        now := time.Now()
        d.DeliveredAt = &now
    } else {
        d.Status = "retry"
        d.LastError = lastError
        if nextAttemptAt != nil { d.NextAttemptAt = *nextAttemptAt } else { d.NextAttemptAt = time.Now().Add(1 * time.Minute) }
    }
    return nil
}

func (m *Memory) FailWebhookDelivery(ctx context.Context, id string, lastError string, responseCode int, latencyMs int) error {
    m.mu.Lock(); defer m.mu.Unlock()
    d := m.deliveries[id]
    if d == nil { return nil }
    d.Status = "failed"
    d.LastError = lastError
    d.ResponseCode = responseCode
    d.LatencyMs = latencyMs
    return nil
}

func (m *Memory) ListWebhookDeliveries(ctx context.Context, tenantID, status, cursor string, limit int) ([]map[string]any, string, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    out := []map[string]any{}
    ids := m.deliveriesByTenant[tenantID]
    for _, id := range ids {
        d := m.deliveries[id]
        if d == nil { continue }
        if status == "" || d.Status == status {
            item := map[string]any{"id": d.ID, "eventType": d.EventType, "status": d.Status, "attempts": d.Attempts, "url": d.URL}
            if !d.NextAttemptAt.IsZero() { item["nextAttemptAt"] = d.NextAttemptAt }
            if d.LastError != "" { item["lastError"] = d.LastError }
            out = append(out, item)
        }
    }
    return out, "", nil
}

func (m *Memory) RetryWebhookDelivery(ctx context.Context, tenantID, id string) error {
    m.mu.Lock(); defer m.mu.Unlock()
    d := m.deliveries[id]
    if d == nil || d.TenantID != tenantID { return ErrNotFound }
    d.Status = "pending"
    d.NextAttemptAt = time.Now()
    return nil
}

func (m *Memory) iterDeliveryIDs() []string {
    ids := make([]string, 0, len(m.deliveries))
    for _, arr := range m.deliveriesByTenant {
        ids = append(ids, arr...)
    }
    return ids
}
