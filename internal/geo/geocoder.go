package geo

import (
    "context"
    "encoding/json"
    "fmt"
    "net/http"
    "net/url"
    "strings"
    "sync"

    "golang.org/x/time/rate"
    "routeplan/internal/model"
)

// Geocoder resolves street addresses to coordinates via the Locations API.
type Geocoder struct {
    key     string
    baseURL string
    http    *http.Client
    limiter *rate.Limiter

    mu sync.Mutex
    // key: addressLine|postalCode|locality|countryRegion
    cache map[string]model.Coordinate
}

func NewGeocoder(cfg Config) (*Geocoder, error) {
    cfg, err := cfg.resolve()
    if err != nil { return nil, err }
    return &Geocoder{key: cfg.Key, baseURL: cfg.BaseURL, http: cfg.HTTPClient, limiter: cfg.limiter(), cache: map[string]model.Coordinate{}}, nil
}

func cacheKey(addr model.Address) string {
    return strings.TrimSpace(addr.AddressLine) + "|" + strings.TrimSpace(addr.PostalCode) + "|" +
        strings.TrimSpace(addr.Locality) + "|" + strings.TrimSpace(addr.CountryRegion)
}

type locationsResponse struct {
    ResourceSets []struct {
        Resources []struct {
            Point struct {
                Coordinates []float64 `json:"coordinates"`
            } `json:"point"`
        } `json:"resources"`
    } `json:"resourceSets"`
}

// Geocode resolves one address. ErrNotFound when the API has no match.
// Results are cached for the life of the Geocoder.
func (g *Geocoder) Geocode(ctx context.Context, addr model.Address) (model.Coordinate, error) {
    k := cacheKey(addr)
    g.mu.Lock()
    if c, ok := g.cache[k]; ok {
        g.mu.Unlock()
        return c, nil
    }
    g.mu.Unlock()
    if err := g.limiter.Wait(ctx); err != nil { return model.Coordinate{}, err }
    q := url.Values{}
    q.Set("countryRegion", strings.TrimSpace(addr.CountryRegion))
    q.Set("locality", strings.TrimSpace(addr.Locality))
    q.Set("postalCode", strings.TrimSpace(addr.PostalCode))
    q.Set("addressLine", strings.TrimSpace(addr.AddressLine))
    q.Set("maxResults", "1")
    q.Set("key", g.key)
    req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/Locations?"+q.Encode(), nil)
    if err != nil { return model.Coordinate{}, err }
    resp, err := g.http.Do(req)
    if err != nil { return model.Coordinate{}, fmt.Errorf("geo: geocode %q: %w", addr.AddressLine, err) }
    defer func() { _ = resp.Body.Close() }()
    if resp.StatusCode != http.StatusOK {
        return model.Coordinate{}, fmt.Errorf("geo: geocode %q: status %d", addr.AddressLine, resp.StatusCode)
    }
    var body locationsResponse
    if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
        return model.Coordinate{}, fmt.Errorf("geo: geocode %q: %w", addr.AddressLine, err)
    }
    for _, rs := range body.ResourceSets {
        for _, r := range rs.Resources {
            if len(r.Point.Coordinates) >= 2 {
                c := model.Coordinate{Lat: r.Point.Coordinates[0], Lng: r.Point.Coordinates[1]}
                g.mu.Lock()
                g.cache[k] = c
                g.mu.Unlock()
                return c, nil
            }
        }
    }
    return model.Coordinate{}, fmt.Errorf("geo: geocode %q: %w", addr.AddressLine, ErrNotFound)
}
