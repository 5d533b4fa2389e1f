package tsvfile

import (
    "bufio"
    "context"
    "fmt"
    "os"
    "strings"

    "routeplan/internal/model"
)

// Source reads one address per line: four tab-separated fields
// (address line, postal code, locality, country region). Blank lines and
// '#' comments are skipped.
type Source struct {
    Path string
}

func New(path string) Source { return Source{Path: path} }

func (s Source) Name() string { return "tsv:" + s.Path }

func (s Source) Fetch(ctx context.Context) ([]model.Address, error) {
    f, err := os.Open(s.Path)
    if err != nil { return nil, err }
    defer func() { _ = f.Close() }()

    var out []model.Address
    sc := bufio.NewScanner(f)
    lineNo := 0
    for sc.Scan() {
        lineNo++
        line := strings.TrimSpace(sc.Text())
        if line == "" || strings.HasPrefix(line, "#") { continue }
        parts := strings.Split(line, "\t")
        if len(parts) < 4 {
            return nil, fmt.Errorf("%s:%d: expected 4 tab-separated fields, got %d", s.Path, lineNo, len(parts))
        }
        out = append(out, model.Address{
            AddressLine:   strings.TrimSpace(parts[0]),
            PostalCode:    strings.TrimSpace(parts[1]),
            Locality:      strings.TrimSpace(parts[2]),
            CountryRegion: strings.TrimSpace(parts[3]),
        })
    }
    if err := sc.Err(); err != nil { return nil, err }
    if len(out) == 0 {
        return nil, fmt.Errorf("%s: no addresses", s.Path)
    }
    return out, nil
}
