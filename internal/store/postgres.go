package store

import (
    "context"
    "database/sql"
    "errors"
    "fmt"
    "os"
    "path/filepath"
    "sort"
    "strings"
    "time"

    _ "github.com/jackc/pgx/v5/stdlib"
    "github.com/google/uuid"
    "encoding/json"
    "crypto/sha256"
    "encoding/hex"

    "routeplan/internal/model"
)

type Postgres struct {
    db *sql.DB
}

func NewPostgres(dsn string) (*Postgres, error) {
    db, err := sql.Open("pgx", dsn)
    if err != nil {
        return nil, err
    }
    if err := db.Ping(); err != nil {
        return nil, err
    }
    return &Postgres{db: db}, nil
}

func (p *Postgres) Ping(ctx context.Context) error {
    return p.db.PingContext(ctx)
}

// MigrateDir applies every *.sql file under dir in lexical order.
func (p *Postgres) MigrateDir(dir string) error {
    entries, err := os.ReadDir(dir)
    if err != nil { return err }
    names := []string{}
    for _, e := range entries {
        if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") { continue }
        names = append(names, e.Name())
    }
    sort.Strings(names)
    for _, n := range names {
        b, err := os.ReadFile(filepath.Join(dir, n))
        if err != nil { return err }
        if _, err := p.db.Exec(string(b)); err != nil {
            return fmt.Errorf("apply %s: %w", n, err)
        }
    }
    return nil
}

func (p *Postgres) CreateMatrix(ctx context.Context, tenantID string, in model.MatrixInput) (model.Matrix, error) {
    id := uuid.New().String()
    _, err := p.db.ExecContext(ctx, `INSERT INTO matrices (id, tenant_id, name, mode, labels, costs) VALUES ($1,$2,$3,$4,$5,$6)`,
        id, tenantID, nullIfEmpty(in.Name), nullIfEmpty(in.Mode), toJSON(in.Labels), toJSON(in.Costs))
    if err != nil { return model.Matrix{}, err }
    return p.GetMatrix(ctx, tenantID, id)
}

func (p *Postgres) GetMatrix(ctx context.Context, tenantID, id string) (model.Matrix, error) {
    var mx model.Matrix
    var labels, costs []byte
    var created sql.NullTime
    row := p.db.QueryRowContext(ctx, `SELECT id::text, COALESCE(name,''), COALESCE(mode,''), labels, costs, created_at FROM matrices WHERE tenant_id=$1 AND id=$2`, tenantID, id)
    if err := row.Scan(&mx.ID, &mx.Name, &mx.Mode, &labels, &costs, &created); err != nil {
        if errors.Is(err, sql.ErrNoRows) { return mx, ErrNotFound }
        return mx, err
    }
    mx.TenantID = tenantID
    if labels != nil { _ = json.Unmarshal(labels, &mx.Labels) }
    if costs != nil { _ = json.Unmarshal(costs, &mx.Costs) }
    if created.Valid { mx.CreatedAt = created.Time.UTC().Format(time.RFC3339) }
    return mx, nil
}

func (p *Postgres) ListMatrices(ctx context.Context, tenantID, cursor string, limit int) ([]model.Matrix, string, error) {
    if limit <= 0 || limit > 500 { limit = 100 }
    var rows *sql.Rows
    var err error
    if cursor != "" {
        rows, err = p.db.QueryContext(ctx, `SELECT id::text, COALESCE(name,''), COALESCE(mode,''), labels, costs, created_at FROM matrices WHERE tenant_id=$1 AND id::text > $2 ORDER BY id LIMIT $3`, tenantID, cursor, limit)
    } else {
        rows, err = p.db.QueryContext(ctx, `SELECT id::text, COALESCE(name,''), COALESCE(mode,''), labels, costs, created_at FROM matrices WHERE tenant_id=$1 ORDER BY id LIMIT $2`, tenantID, limit)
    }
    if err != nil { return nil, "", err }
    defer rows.Close()
    out := []model.Matrix{}
    var last string
    for rows.Next() {
        var mx model.Matrix
        var labels, costs []byte
        var created sql.NullTime
        if err := rows.Scan(&mx.ID, &mx.Name, &mx.Mode, &labels, &costs, &created); err != nil { return nil, "", err }
        mx.TenantID = tenantID
        if labels != nil { _ = json.Unmarshal(labels, &mx.Labels) }
        if costs != nil { _ = json.Unmarshal(costs, &mx.Costs) }
        if created.Valid { mx.CreatedAt = created.Time.UTC().Format(time.RFC3339) }
        out = append(out, mx)
        last = mx.ID
    }
    next := ""
    if len(out) == limit { next = last }
    return out, next, nil
}

func (p *Postgres) CreateSolve(ctx context.Context, sv model.Solve) (model.Solve, error) {
    if sv.ID == "" { sv.ID = uuid.New().String() }
    _, err := p.db.ExecContext(ctx, `INSERT INTO solves (id, tenant_id, matrix_id, status, request, routes, total_cost, feasible, error, completed_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
        sv.ID, sv.TenantID, nullIfEmpty(sv.MatrixID), sv.Status, toJSON(sv.Request), toJSON(sv.Routes), sv.TotalCost, sv.Feasible, nullIfEmpty(sv.Error), nullIfEmpty(sv.CompletedAt))
    if err != nil { return model.Solve{}, err }
    return p.GetSolve(ctx, sv.TenantID, sv.ID)
}

func (p *Postgres) GetSolve(ctx context.Context, tenantID, id string) (model.Solve, error) {
    var sv model.Solve
    var request, routes []byte
    var created, completed sql.NullTime
    row := p.db.QueryRowContext(ctx, `SELECT id::text, COALESCE(matrix_id::text,''), status, request, routes, total_cost, feasible, COALESCE(error,''), created_at, completed_at
        FROM solves WHERE tenant_id=$1 AND id=$2`, tenantID, id)
    if err := row.Scan(&sv.ID, &sv.MatrixID, &sv.Status, &request, &routes, &sv.TotalCost, &sv.Feasible, &sv.Error, &created, &completed); err != nil {
        if errors.Is(err, sql.ErrNoRows) { return sv, ErrNotFound }
        return sv, err
    }
    sv.TenantID = tenantID
    if request != nil { _ = json.Unmarshal(request, &sv.Request) }
    if routes != nil { _ = json.Unmarshal(routes, &sv.Routes) }
    if created.Valid { sv.CreatedAt = created.Time.UTC().Format(time.RFC3339) }
    if completed.Valid { sv.CompletedAt = completed.Time.UTC().Format(time.RFC3339) }
    return sv, nil
}

func (p *Postgres) ListSolves(ctx context.Context, tenantID, status, cursor string, limit int) ([]model.Solve, string, error) {
    if limit <= 0 || limit > 500 { limit = 100 }
    q := `SELECT id::text, COALESCE(matrix_id::text,''), status, request, routes, total_cost, feasible, COALESCE(error,''), created_at, completed_at FROM solves WHERE tenant_id=$1`
    args := []any{tenantID}
    if status != "" {
        args = append(args, status)
        q += fmt.Sprintf(` AND status=$%d`, len(args))
    }
    if cursor != "" {
        args = append(args, cursor)
        q += fmt.Sprintf(` AND id::text > $%d`, len(args))
    }
    args = append(args, limit)
    q += fmt.Sprintf(` ORDER BY id LIMIT $%d`, len(args))
    rows, err := p.db.QueryContext(ctx, q, args...)
    if err != nil { return nil, "", err }
    defer rows.Close()
    out := []model.Solve{}
    var last string
    for rows.Next() {
        var sv model.Solve
        var request, routes []byte
        var created, completed sql.NullTime
        if err := rows.Scan(&sv.ID, &sv.MatrixID, &sv.Status, &request, &routes, &sv.TotalCost, &sv.Feasible, &sv.Error, &created, &completed); err != nil { return nil, "", err }
        sv.TenantID = tenantID
        if request != nil { _ = json.Unmarshal(request, &sv.Request) }
        if routes != nil { _ = json.Unmarshal(routes, &sv.Routes) }
        if created.Valid { sv.CreatedAt = created.Time.UTC().Format(time.RFC3339) }
        if completed.Valid { sv.CompletedAt = completed.Time.UTC().Format(time.RFC3339) }
        out = append(out, sv)
        last = sv.ID
    }
    next := ""
    if len(out) == limit { next = last }
    return out, next, nil
}

func (p *Postgres) SaveSolveStats(ctx context.Context, tenantID, solveID string, stats []byte) error {
    res, err := p.db.ExecContext(ctx, `UPDATE solves SET stats=$3 WHERE tenant_id=$1 AND id=$2`, tenantID, solveID, stats)
    if err != nil { return err }
    if n, _ := res.RowsAffected(); n == 0 { return ErrNotFound }
    return nil
}

func (p *Postgres) GetSolveStats(ctx context.Context, tenantID, solveID string) ([]byte, error) {
    var stats []byte
    row := p.db.QueryRowContext(ctx, `SELECT stats FROM solves WHERE tenant_id=$1 AND id=$2`, tenantID, solveID)
    if err := row.Scan(&stats); err != nil {
        if errors.Is(err, sql.ErrNoRows) { return nil, ErrNotFound }
        return nil, err
    }
    if stats == nil { return nil, ErrNotFound }
    return stats, nil
}

func (p *Postgres) CreateSubscription(ctx context.Context, req model.SubscriptionRequest) (model.Subscription, error) {
    id := uuid.New().String()
    ev, _ := json.Marshal(req.Events)
    now := time.Now().UTC()
    _, err := p.db.ExecContext(ctx, `INSERT INTO subscriptions (id, tenant_id, url, events, secret, created_at) VALUES ($1,$2,$3,$4,$5,$6)`, id, req.TenantID, req.URL, ev, req.Secret, now)
    if err != nil { return model.Subscription{}, err }
    return model.Subscription{ID: id, TenantID: req.TenantID, URL: req.URL, Events: req.Events, Secret: req.Secret, CreatedAt: now.Format(time.RFC3339)}, nil
}

func (p *Postgres) GetSubscriptionsForEvent(ctx context.Context, tenantID, eventType string) ([]model.Subscription, error) {
    rows, err := p.db.QueryContext(ctx, `SELECT id::text, url, secret, events FROM subscriptions WHERE tenant_id=$1 AND events @> $2::jsonb`, tenantID, fmt.Sprintf("[\"%s\"]", eventType))
    if err != nil { return nil, err }
    defer rows.Close()
    out := []model.Subscription{}
    for rows.Next() {
        var s model.Subscription
        var ev []byte
        if err := rows.Scan(&s.ID, &s.URL, &s.Secret, &ev); err != nil { return nil, err }
        s.TenantID = tenantID
        _ = json.Unmarshal(ev, &s.Events)
        out = append(out, s)
    }
    return out, nil
}

func (p *Postgres) ListSubscriptions(ctx context.Context, tenantID, cursor string, limit int) ([]model.Subscription, string, error) {
    if limit <= 0 || limit > 500 { limit = 100 }
    var rows *sql.Rows
    var err error
    if cursor != "" {
        rows, err = p.db.QueryContext(ctx, `SELECT id::text, url, secret, events, created_at FROM subscriptions WHERE tenant_id=$1 AND id::text > $2 ORDER BY id LIMIT $3`, tenantID, cursor, limit)
    } else {
        rows, err = p.db.QueryContext(ctx, `SELECT id::text, url, secret, events, created_at FROM subscriptions WHERE tenant_id=$1 ORDER BY id LIMIT $2`, tenantID, limit)
    }
    if err != nil { return nil, "", err }
    defer rows.Close()
    var out []model.Subscription
    var last string
    for rows.Next() {
        var s model.Subscription
        var ev []byte
        var created sql.NullTime
        if err := rows.Scan(&s.ID, &s.URL, &s.Secret, &ev, &created); err != nil { return nil, "", err }
        s.TenantID = tenantID
        _ = json.Unmarshal(ev, &s.Events)
        if created.Valid { s.CreatedAt = created.Time.UTC().Format(time.RFC3339) }
        out = append(out, s)
        last = s.ID
    }
    next := ""
    if len(out) == limit { next = last }
    return out, next, nil
}

func (p *Postgres) DeleteSubscription(ctx context.Context, tenantID, id string) error {
    res, err := p.db.ExecContext(ctx, `DELETE FROM subscriptions WHERE tenant_id=$1 AND id=$2`, tenantID, id)
    if err != nil { return err }
    if n, _ := res.RowsAffected(); n == 0 { return ErrNotFound }
    return nil
}

// Webhook deliveries
func (p *Postgres) EnqueueWebhook(ctx context.Context, tenantID, subscriptionID, eventType, url, secret string, payload []byte) (string, error) {
    id := uuid.New().String()
    dk := computeDedupKey(payload)
    _, err := p.db.ExecContext(ctx, `INSERT INTO webhook_deliveries (id, tenant_id, subscription_id, event_type, url, secret, payload, status, attempts, next_attempt_at, dedup_key)
        VALUES ($1,$2,$3,$4,$5,$6,$7,'pending',0,now(),$8)
        ON CONFLICT (tenant_id, event_type, url, dedup_key) DO NOTHING`, id, tenantID, nullIfEmpty(subscriptionID), eventType, url, nullIfEmpty(secret), payload, dk)
    if err != nil { return "", err }
    return id, nil
}

func (p *Postgres) FetchDueWebhookDeliveries(ctx context.Context, limit int) ([]WebhookDelivery, error) {
    rows, err := p.db.QueryContext(ctx, `SELECT id::text, tenant_id::text, COALESCE(subscription_id::text,''), event_type, url, COALESCE(secret,''), payload, status, attempts
        FROM webhook_deliveries WHERE status IN ('pending','retry') AND next_attempt_at <= now() ORDER BY next_attempt_at ASC LIMIT $1`, limit)
    if err != nil { return nil, err }
    defer rows.Close()
    out := []WebhookDelivery{}
    for rows.Next() {
        var d WebhookDelivery
        var payload []byte
        if err := rows.Scan(&d.ID, &d.TenantID, &d.SubscriptionID, &d.EventType, &d.URL, &d.Secret, &payload, &d.Status, &d.Attempts); err != nil { return nil, err }
        d.Payload = payload
        out = append(out, d)
    }
    return out, nil
}

func (p *Postgres) MarkWebhookDelivery(ctx context.Context, id string, success bool, nextAttemptAt *time.Time, lastError string, responseCode int, latencyMs int) error {
    if !success {
        if nextAttemptAt == nil { t := time.Now().Add(1 * time.Minute); nextAttemptAt = &t }
        _, err := p.db.ExecContext(ctx, `UPDATE webhook_deliveries SET attempts=attempts+1, status='retry', last_error=$2, next_attempt_at=$3, updated_at=now(), response_code=$4, latency_ms=$5 WHERE id=$1`,
            id, nullIfEmpty(lastError), *nextAttemptAt, responseCode, latencyMs)
        return err
    }
    _, err := p.db.ExecContext(ctx, `UPDATE webhook_deliveries SET attempts=attempts+1, status='delivered', delivered_at=now(), updated_at=now(), response_code=$2, latency_ms=$3 WHERE id=$1`, id, responseCode, latencyMs)
    return err
}

func (p *Postgres) FailWebhookDelivery(ctx context.Context, id string, lastError string, responseCode int, latencyMs int) error {
    _, err := p.db.ExecContext(ctx, `UPDATE webhook_deliveries SET status='failed', last_error=$2, updated_at=now(), response_code=$3, latency_ms=$4 WHERE id=$1`, id, nullIfEmpty(lastError), responseCode, latencyMs)
    return err
}

func (p *Postgres) ListWebhookDeliveries(ctx context.Context, tenantID, status, cursor string, limit int) ([]map[string]any, string, error) {
    if limit <= 0 || limit > 500 { limit = 100 }
    q := `SELECT id::text, event_type, status, attempts, next_attempt_at, COALESCE(last_error,''), url FROM webhook_deliveries WHERE tenant_id=$1`
    var rows *sql.Rows
    var err error
    if status != "" {
        q += ` AND status=$2 ORDER BY id LIMIT $3`
        rows, err = p.db.QueryContext(ctx, q, tenantID, status, limit)
    } else {
        q += ` ORDER BY id LIMIT $2`
        rows, err = p.db.QueryContext(ctx, q, tenantID, limit)
    }
    if err != nil { return nil, "", err }
    defer rows.Close()
    out := []map[string]any{}
    var last string
    for rows.Next() {
        var id, typ, st, lastErr, url string
        var attempts int
        var nextAt sql.NullTime
        if err := rows.Scan(&id, &typ, &st, &attempts, &nextAt, &lastErr, &url); err != nil { return nil, "", err }
        m := map[string]any{"id": id, "eventType": typ, "status": st, "attempts": attempts, "url": url}
        if nextAt.Valid { m["nextAttemptAt"] = nextAt.Time }
        if lastErr != "" { m["lastError"] = lastErr }
        out = append(out, m)
        last = id
    }
    next := ""
    if len(out) == limit { next = last }
    return out, next, nil
}

func (p *Postgres) RetryWebhookDelivery(ctx context.Context, tenantID, id string) error {
    res, err := p.db.ExecContext(ctx, `UPDATE webhook_deliveries SET status='pending', next_attempt_at=now(), updated_at=now() WHERE tenant_id=$1 AND id=$2`, tenantID, id)
    if err != nil { return err }
    if n, _ := res.RowsAffected(); n == 0 { return ErrNotFound }
    return nil
}

// Helpers
func nullIfEmpty(s string) any { if s == "" { return nil }; return s }

func toJSON(v any) any {
    if v == nil { return nil }
    b, err := json.Marshal(v)
    if err != nil { return nil }
    return b
}

func computeDedupKey(payload []byte) string {
    // try to parse JSON and use id
    var m map[string]any
    if json.Unmarshal(payload, &m) == nil {
        if v, ok := m["id"].(string); ok && v != "" {
            return v
        }
    }
    sum := sha256.Sum256(payload)
    return hex.EncodeToString(sum[:8])
}
