package geo

import (
    "strings"

    "routeplan/internal/model"
)

// DirectionsURL builds a shareable Google Maps directions link for the
// stops in visit order. Each stop is rendered as its address line with
// spaces replaced by '+'.
func DirectionsURL(addrs []model.Address) string {
    if len(addrs) == 0 { return "" }
    parts := make([]string, len(addrs))
    for i, a := range addrs {
        parts[i] = strings.ReplaceAll(strings.TrimSpace(a.AddressLine), " ", "+")
    }
    return "https://www.google.com/maps/dir/" + strings.Join(parts, "/")
}
