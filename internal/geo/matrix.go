package geo

import (
    "context"
    "encoding/json"
    "fmt"
    "net/http"
    "net/url"
    "strings"

    "golang.org/x/time/rate"
    "routeplan/internal/model"
)

// MaxMatrixCoordinates is the per-query point limit of the DistanceMatrix
// API. Fetch rejects larger inputs before touching the network.
const MaxMatrixCoordinates = 50

var travelModes = map[string]bool{"driving": true, "walking": true, "transit": true}

// MatrixClient fetches N x N travel-distance matrices.
type MatrixClient struct {
    key     string
    baseURL string
    http    *http.Client
    limiter *rate.Limiter
}

func NewMatrixClient(cfg Config) (*MatrixClient, error) {
    cfg, err := cfg.resolve()
    if err != nil { return nil, err }
    return &MatrixClient{key: cfg.Key, baseURL: cfg.BaseURL, http: cfg.HTTPClient, limiter: cfg.limiter()}, nil
}

type matrixResponse struct {
    ResourceSets []struct {
        Resources []struct {
            Results []struct {
                OriginIndex      int     `json:"originIndex"`
                DestinationIndex int     `json:"destinationIndex"`
                TravelDistance   float64 `json:"travelDistance"`
            } `json:"results"`
        } `json:"resources"`
    } `json:"resourceSets"`
}

// Fetch returns the travel distances in km between every pair of coords.
// Unreachable pairs come back as -1 and are passed through untouched.
func (c *MatrixClient) Fetch(ctx context.Context, coords []model.Coordinate, mode string) ([][]float64, error) {
    if len(coords) == 0 {
        return nil, fmt.Errorf("geo: no coordinates")
    }
    if len(coords) > MaxMatrixCoordinates {
        return nil, fmt.Errorf("geo: %d coordinates exceeds the API limit of %d", len(coords), MaxMatrixCoordinates)
    }
    if mode == "" { mode = "driving" }
    if !travelModes[mode] {
        return nil, fmt.Errorf("geo: unsupported travel mode %q", mode)
    }
    if err := c.limiter.Wait(ctx); err != nil { return nil, err }

    pairs := make([]string, len(coords))
    for i, co := range coords {
        pairs[i] = fmt.Sprintf("%v,%v", co.Lat, co.Lng)
    }
    joined := strings.Join(pairs, ";")
    q := url.Values{}
    q.Set("origins", joined)
    q.Set("destinations", joined)
    q.Set("travelMode", mode)
    q.Set("distanceUnit", "km")
    q.Set("key", c.key)
    req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/Routes/DistanceMatrix?"+q.Encode(), nil)
    if err != nil { return nil, err }
    resp, err := c.http.Do(req)
    if err != nil { return nil, fmt.Errorf("geo: distance matrix: %w", err) }
    defer func() { _ = resp.Body.Close() }()
    if resp.StatusCode != http.StatusOK {
        return nil, fmt.Errorf("geo: distance matrix: status %d", resp.StatusCode)
    }
    var body matrixResponse
    if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
        return nil, fmt.Errorf("geo: distance matrix: %w", err)
    }

    n := len(coords)
    costs := make([][]float64, n)
    for i := range costs {
        costs[i] = make([]float64, n)
    }
    filled := false
    for _, rs := range body.ResourceSets {
        for _, r := range rs.Resources {
            for _, cell := range r.Results {
                if cell.OriginIndex < 0 || cell.OriginIndex >= n || cell.DestinationIndex < 0 || cell.DestinationIndex >= n {
                    return nil, fmt.Errorf("geo: distance matrix: cell (%d,%d) out of range", cell.OriginIndex, cell.DestinationIndex)
                }
                costs[cell.OriginIndex][cell.DestinationIndex] = cell.TravelDistance
                filled = true
            }
        }
    }
    if !filled {
        return nil, fmt.Errorf("geo: distance matrix: %w", ErrNotFound)
    }
    return costs, nil
}
