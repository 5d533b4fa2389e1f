package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"routeplan/internal/geo"
	"routeplan/internal/ingest/tsvfile"
	"routeplan/internal/model"
	"routeplan/internal/solver"
)

func main() {
	err := run(context.Background())
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "routeplan: %v\n", err)
	var ie *solver.InfeasibleError
	var ne *solver.NoSolutionError
	if errors.As(err, &ie) || errors.As(err, &ne) {
		os.Exit(2)
	}
	os.Exit(1)
}

func run(ctx context.Context) error {
	var (
		addrPath   string
		mode       string
		cachePath  string
		capacity   float64
		vehicles   int
		demandsCSV string
		depot      int
		budget     time.Duration
		starts     int
		workers    int
		bestImp    bool
		geoKey     string
		geoURL     string
		quiet      bool
	)
	flag.StringVar(&addrPath, "addresses", "", "TSV address file, one address per line (required)")
	flag.StringVar(&mode, "mode", "driving", "travel mode: driving, walking, transit")
	flag.StringVar(&cachePath, "matrix-cache", "", "JSON matrix cache; loaded if present, else fetched and saved")
	flag.Float64Var(&capacity, "capacity", 0, "vehicle capacity; 0 means unlimited")
	flag.IntVar(&vehicles, "vehicles", 1, "fleet size")
	flag.StringVar(&demandsCSV, "demands", "", "comma-separated per-address demands")
	flag.IntVar(&depot, "depot", 0, "depot index in the address file")
	flag.DurationVar(&budget, "budget", 2*time.Second, "search time budget")
	flag.IntVar(&starts, "starts", 1, "construction start points")
	flag.IntVar(&workers, "workers", 0, "solver goroutines; 0 picks GOMAXPROCS")
	flag.BoolVar(&bestImp, "best-improvement", false, "apply the single best move per pass")
	flag.StringVar(&geoKey, "geo-key", os.Getenv("ROUTEPLAN_GEO_KEY"), "geocoding API key")
	flag.StringVar(&geoURL, "geo-url", "", "geocoding base URL override")
	flag.BoolVar(&quiet, "quiet", false, "print only the maps link")
	flag.Parse()

	if addrPath == "" {
		flag.Usage()
		return errors.New("-addresses is required")
	}

	addrs, err := tsvfile.New(addrPath).Fetch(ctx)
	if err != nil {
		return err
	}
	demands, err := parseDemands(demandsCSV, len(addrs))
	if err != nil {
		return err
	}
	costs, err := loadOrFetchMatrix(ctx, cachePath, addrs, mode, geoKey, geoURL, quiet)
	if err != nil {
		return err
	}

	prob, err := solver.NewProblem(costs, solver.ProblemConfig{
		Demands:  demands,
		Capacity: capacity,
		Vehicles: vehicles,
		Depot:    depot,
	})
	if err != nil {
		return err
	}
	opts := solver.Options{
		Budget:  solver.Budget{MaxTime: budget},
		Starts:  starts,
		Workers: workers,
	}
	if bestImp {
		opts.Strategy = solver.BestImprovement
	}
	sol, st, err := solver.Solve(ctx, prob, opts)
	if err != nil {
		return err
	}

	link := mapsLink(addrs, sol)
	if quiet {
		if link != "" {
			fmt.Println(link)
		}
		return nil
	}
	labels := make([]string, len(addrs))
	for i, a := range addrs {
		labels[i] = a.AddressLine
	}
	printItinerary(os.Stdout, labels, sol)
	fmt.Printf("total cost: %.1f\n", sol.Cost)
	fmt.Printf("search: starts=%d best=%d passes=%d 2opt=%d oropt=%d elapsed=%s\n",
		st.Starts, st.BestStart, st.Passes, st.TwoOptMoves, st.OrOptMoves, st.Elapsed.Round(time.Millisecond))
	if link != "" {
		fmt.Println(link)
	}
	return nil
}

// loadOrFetchMatrix reuses the cache when its size matches the address list
// and otherwise geocodes every address and calls the distance-matrix API.
func loadOrFetchMatrix(ctx context.Context, cachePath string, addrs []model.Address, mode, key, baseURL string, quiet bool) ([][]float64, error) {
	if cachePath != "" {
		mf, err := geo.LoadMatrixFile(cachePath)
		switch {
		case err == nil:
			if len(mf.Costs) != len(addrs) {
				return nil, fmt.Errorf("matrix cache %s holds %d locations, address file has %d", cachePath, len(mf.Costs), len(addrs))
			}
			return mf.Costs, nil
		case !errors.Is(err, os.ErrNotExist):
			return nil, err
		}
	}
	if strings.TrimSpace(key) == "" {
		return nil, errors.New("no matrix cache and no -geo-key; set ROUTEPLAN_GEO_KEY or pass -matrix-cache")
	}
	cfg := geo.Config{Key: key, BaseURL: baseURL}
	gc, err := geo.NewGeocoder(cfg)
	if err != nil {
		return nil, err
	}
	mc, err := geo.NewMatrixClient(cfg)
	if err != nil {
		return nil, err
	}
	coords := make([]model.Coordinate, len(addrs))
	for i, a := range addrs {
		c, err := gc.Geocode(ctx, a)
		if err != nil {
			return nil, err
		}
		coords[i] = c
		if !quiet {
			log.Printf("geocoded %q -> %.5f,%.5f", a.AddressLine, c.Lat, c.Lng)
		}
	}
	costs, err := mc.Fetch(ctx, coords, mode)
	if err != nil {
		return nil, err
	}
	if cachePath != "" {
		labels := make([]string, len(addrs))
		for i, a := range addrs {
			labels[i] = a.AddressLine
		}
		if err := geo.SaveMatrixFile(cachePath, &geo.MatrixFile{Mode: mode, Labels: labels, Costs: costs}); err != nil {
			return nil, err
		}
	}
	return costs, nil
}

func parseDemands(csv string, n int) ([]float64, error) {
	if strings.TrimSpace(csv) == "" {
		return nil, nil
	}
	parts := strings.Split(csv, ",")
	if len(parts) != n {
		return nil, fmt.Errorf("-demands has %d values, address file has %d", len(parts), n)
	}
	out := make([]float64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("parse -demands[%d]: %v", i, err)
		}
		out[i] = v
	}
	return out, nil
}

// mapsLink renders a single tour as a Google Maps directions link, depot at
// both ends. Multi-route solutions have no single shareable link.
func mapsLink(addrs []model.Address, sol *solver.Solution) string {
	var tour *solver.Route
	for i := range sol.Routes {
		if sol.Routes[i].Empty() {
			continue
		}
		if tour != nil {
			return ""
		}
		tour = &sol.Routes[i]
	}
	if tour == nil {
		return ""
	}
	ordered := make([]model.Address, 0, len(tour.Stops))
	for _, idx := range tour.Stops {
		ordered = append(ordered, addrs[idx])
	}
	return geo.DirectionsURL(ordered)
}

func printItinerary(w io.Writer, labels []string, sol *solver.Solution) {
	n := 0
	for _, rt := range sol.Routes {
		if rt.Empty() {
			continue
		}
		n++
		fmt.Fprintf(w, "route %d (cost %.1f):\n", n, rt.Cost)
		for i, idx := range rt.Stops {
			switch {
			case i == 0:
				fmt.Fprintf(w, "  start   %s\n", labels[idx])
			case i == len(rt.Stops)-1:
				fmt.Fprintf(w, "  return  %s\n", labels[idx])
			default:
				fmt.Fprintf(w, "  %2d.     %s\n", i, labels[idx])
			}
		}
	}
}
