package geo

import (
    "errors"
    "net/http"
    "strings"
    "time"

    "golang.org/x/time/rate"
)

// DefaultBaseURL is the Bing Maps REST root both clients talk to.
const DefaultBaseURL = "https://dev.virtualearth.net/REST/v1"

// ErrNotFound is returned when the API answers without any usable resource.
var ErrNotFound = errors.New("geo: no results")

// Config carries the settings shared by the geocoder and the
// distance-matrix client. Key is required; everything else has defaults.
type Config struct {
    Key        string
    BaseURL    string
    HTTPClient *http.Client
    RPS        float64
}

func (cfg Config) resolve() (Config, error) {
    if strings.TrimSpace(cfg.Key) == "" {
        return cfg, errors.New("geo: API key is required")
    }
    if cfg.BaseURL == "" { cfg.BaseURL = DefaultBaseURL }
    cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
    if cfg.HTTPClient == nil { cfg.HTTPClient = &http.Client{Timeout: 10 * time.Second} }
    if cfg.RPS <= 0 { cfg.RPS = 5 }
    return cfg, nil
}

func (cfg Config) limiter() *rate.Limiter {
    return rate.NewLimiter(rate.Limit(cfg.RPS), 1)
}
