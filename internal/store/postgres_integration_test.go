//go:build postgres_integration

package store

import (
    "context"
    "os"
    "testing"

    "routeplan/internal/model"
)

func TestPostgresConnectivityAndMigrate(t *testing.T) {
    dsn := os.Getenv("DATABASE_URL")
    if dsn == "" { t.Skip("DATABASE_URL not set; skipping integration test") }
    ctx := context.Background()
    p, err := NewPostgres(dsn)
    if err != nil { t.Fatalf("NewPostgres: %v", err) }
    if err := p.Ping(ctx); err != nil { t.Fatalf("Ping: %v", err) }
    if err := p.MigrateDir("../../db/migrations"); err != nil { t.Fatalf("MigrateDir: %v", err) }
    // Round-trip a matrix through the real schema.
    mx, err := p.CreateMatrix(ctx, "t_it", model.MatrixInput{Name: "it", Costs: [][]float64{{0, 1}, {1, 0}}})
    if err != nil { t.Fatalf("CreateMatrix: %v", err) }
    got, err := p.GetMatrix(ctx, "t_it", mx.ID)
    if err != nil { t.Fatalf("GetMatrix: %v", err) }
    if len(got.Costs) != 2 { t.Fatalf("unexpected costs: %+v", got.Costs) }
    if _, _, err := p.ListSolves(ctx, "t_it", "", "", 1); err != nil { t.Fatalf("ListSolves: %v", err) }
}
