package api

import (
    "log"
    "os"
    "strings"

    "routeplan/internal/auth"
    "routeplan/internal/geo"
    "routeplan/internal/store"
    "routeplan/internal/webhooks"
)

type Server struct {
    Store    store.Store
    Pub      *webhooks.Publisher
    Auth     *auth.Verifier
    Broker   EventBroker
    Geocoder *geo.Geocoder
    Matrix   *geo.MatrixClient
}

// NewServer creates a Server. If DATABASE_URL is unset, uses in-memory store.
func NewServer() (*Server, error) {
    dsn := os.Getenv("DATABASE_URL")
    var s store.Store
    if strings.TrimSpace(dsn) == "" {
        s = store.NewMemory()
    } else {
        sp, err := store.NewPostgres(dsn)
        if err != nil {
            return nil, err
        }
        // Run migrations (dev helper)
        if os.Getenv("DB_MIGRATE") != "false" {
            if err := sp.MigrateDir("db/migrations"); err != nil {
                log.Printf("migrate: %v", err)
            }
        }
        s = sp
    }
    // Broker selection
    var broker EventBroker
    if os.Getenv("REDIS_URL") != "" {
        if rb, err := NewRedisBroker(); err == nil { broker = rb } else { broker = NewBroker() }
    } else {
        broker = NewBroker()
    }
    // Geo clients are optional; plan endpoints answer 503 without them.
    var gc *geo.Geocoder
    var mc *geo.MatrixClient
    if key := os.Getenv("GEO_API_KEY"); strings.TrimSpace(key) != "" {
        cfg := geo.Config{Key: key, BaseURL: os.Getenv("GEO_BASE_URL")}
        var err error
        if gc, err = geo.NewGeocoder(cfg); err != nil {
            return nil, err
        }
        if mc, err = geo.NewMatrixClient(cfg); err != nil {
            return nil, err
        }
    }
    return &Server{
        Store:    s,
        Pub:      webhooks.NewPublisher(s),
        Auth:     auth.NewVerifierFromEnv(),
        Broker:   broker,
        Geocoder: gc,
        Matrix:   mc,
    }, nil
}

// NewWebhookWorker creates a background worker for webhook deliveries.
func (s *Server) NewWebhookWorker() *webhooks.Worker {
    return webhooks.NewWorker(s.Store)
}
