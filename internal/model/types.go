package model

// Shared wire/domain types for the routing service.

// Address mirrors the four tab-separated fields of an address file line.
type Address struct {
    AddressLine   string `json:"addressLine"`
    PostalCode    string `json:"postalCode,omitempty"`
    Locality      string `json:"locality,omitempty"`
    CountryRegion string `json:"countryRegion,omitempty"`
}

type Coordinate struct {
    Lat float64 `json:"lat"`
    Lng float64 `json:"lng"`
}

// MatrixInput is the write model for storing a cost matrix.
type MatrixInput struct {
    Name   string      `json:"name,omitempty"`
    Mode   string      `json:"mode,omitempty"`
    Labels []string    `json:"labels,omitempty"`
    Costs  [][]float64 `json:"costs"`
}

// Matrix is a stored cost matrix. Costs may carry the -1 unreachable
// sentinel; the solver rewrites it at problem construction.
type Matrix struct {
    ID        string      `json:"id"`
    TenantID  string      `json:"tenantId"`
    Name      string      `json:"name,omitempty"`
    Mode      string      `json:"mode,omitempty"`
    Labels    []string    `json:"labels,omitempty"`
    Costs     [][]float64 `json:"costs"`
    CreatedAt string      `json:"createdAt,omitempty"`
}

// SolveRequest selects a stored matrix by id or carries costs inline.
type SolveRequest struct {
    MatrixID     string      `json:"matrixId,omitempty"`
    Costs        [][]float64 `json:"costs,omitempty"`
    Demands      []float64   `json:"demands,omitempty"`
    Capacity     float64     `json:"capacity,omitempty"`
    Vehicles     int         `json:"vehicles,omitempty"`
    Depot        int         `json:"depot,omitempty"`
    TimeBudgetMs int         `json:"timeBudgetMs,omitempty"`
    MaxMoves     int         `json:"maxMoves,omitempty"`
    Starts       int         `json:"starts,omitempty"`
    Workers      int         `json:"workers,omitempty"`
    Strategy     string      `json:"strategy,omitempty"` // first_improvement, best_improvement
}

type RouteResult struct {
    Stops []int   `json:"stops"`
    Cost  float64 `json:"cost"`
    Load  float64 `json:"load,omitempty"`
}

// Solve is the persisted record of one optimization run.
type Solve struct {
    ID          string        `json:"id"`
    TenantID    string        `json:"tenantId"`
    MatrixID    string        `json:"matrixId,omitempty"`
    Status      string        `json:"status"` // completed, failed
    Request     *SolveRequest `json:"request,omitempty"`
    Routes      []RouteResult `json:"routes,omitempty"`
    TotalCost   float64       `json:"totalCost"`
    Feasible    bool          `json:"feasible"`
    Error       string        `json:"error,omitempty"`
    CreatedAt   string        `json:"createdAt,omitempty"`
    CompletedAt string        `json:"completedAt,omitempty"`
}

// PlanRequest runs the full pipeline: geocode addresses, fetch a travel
// matrix, solve, and report the ordered itinerary. The first address is
// the depot.
type PlanRequest struct {
    Addresses    []Address `json:"addresses"`
    Mode         string    `json:"mode,omitempty"`
    Demands      []float64 `json:"demands,omitempty"`
    Capacity     float64   `json:"capacity,omitempty"`
    Vehicles     int       `json:"vehicles,omitempty"`
    TimeBudgetMs int       `json:"timeBudgetMs,omitempty"`
    Starts       int       `json:"starts,omitempty"`
    Workers      int       `json:"workers,omitempty"`
    Strategy     string    `json:"strategy,omitempty"`
}

type PlanStop struct {
    Index      int        `json:"index"`
    Address    string     `json:"address"`
    Coordinate Coordinate `json:"coordinate"`
}

type PlanRoute struct {
    Stops []PlanStop `json:"stops"`
    Cost  float64    `json:"cost"`
}

// Plan is the pipeline result: the stored matrix and solve ids, the
// itinerary per vehicle, and a shareable directions link.
type Plan struct {
    MatrixID  string      `json:"matrixId"`
    SolveID   string      `json:"solveId"`
    Mode      string      `json:"mode,omitempty"`
    TotalCost float64     `json:"totalCost"`
    Routes    []PlanRoute `json:"routes"`
    MapsURL   string      `json:"mapsUrl,omitempty"`
}

type SubscriptionRequest struct {
    TenantID string   `json:"tenantId"`
    URL      string   `json:"url"`
    Events   []string `json:"events"`
    Secret   string   `json:"secret"`
}

type Subscription struct {
    ID        string   `json:"id"`
    TenantID  string   `json:"tenantId"`
    URL       string   `json:"url"`
    Events    []string `json:"events"`
    Secret    string   `json:"secret,omitempty"`
    CreatedAt string   `json:"createdAt,omitempty"`
}
