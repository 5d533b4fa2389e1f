package store

import (
    "context"
    "errors"
    "time"

    "routeplan/internal/model"
)

// Store is the persistence interface used by the API server.
type Store interface {
    // Matrices
    CreateMatrix(ctx context.Context, tenantID string, in model.MatrixInput) (model.Matrix, error)
    GetMatrix(ctx context.Context, tenantID, id string) (model.Matrix, error)
    ListMatrices(ctx context.Context, tenantID, cursor string, limit int) ([]model.Matrix, string, error)

    // Solves
    CreateSolve(ctx context.Context, sv model.Solve) (model.Solve, error)
    GetSolve(ctx context.Context, tenantID, id string) (model.Solve, error)
    ListSolves(ctx context.Context, tenantID, status, cursor string, limit int) ([]model.Solve, string, error)
    SaveSolveStats(ctx context.Context, tenantID, solveID string, stats []byte) error
    GetSolveStats(ctx context.Context, tenantID, solveID string) ([]byte, error)

    // Subscriptions
    CreateSubscription(ctx context.Context, req model.SubscriptionRequest) (model.Subscription, error)
    GetSubscriptionsForEvent(ctx context.Context, tenantID, eventType string) ([]model.Subscription, error)
    ListSubscriptions(ctx context.Context, tenantID, cursor string, limit int) ([]model.Subscription, string, error)
    DeleteSubscription(ctx context.Context, tenantID, id string) error

    // Webhook deliveries
    EnqueueWebhook(ctx context.Context, tenantID, subscriptionID, eventType, url, secret string, payload []byte) (string, error)
    FetchDueWebhookDeliveries(ctx context.Context, limit int) ([]WebhookDelivery, error)
    MarkWebhookDelivery(ctx context.Context, id string, success bool, nextAttemptAt *time.Time, lastError string, responseCode int, latencyMs int) error
    FailWebhookDelivery(ctx context.Context, id string, lastError string, responseCode int, latencyMs int) error
    ListWebhookDeliveries(ctx context.Context, tenantID, status, cursor string, limit int) ([]map[string]any, string, error)
    RetryWebhookDelivery(ctx context.Context, tenantID, id string) error
}

var ErrNotFound = errors.New("not found")
