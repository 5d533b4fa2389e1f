package ingest

import (
    "context"

    "routeplan/internal/model"
)

// Source yields the addresses a planning run visits. Implementations wrap
// a file format or an upstream feed; the first address is the depot.
type Source interface {
    Name() string
    Fetch(ctx context.Context) ([]model.Address, error)
}
