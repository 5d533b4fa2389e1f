package solver

import (
	"sync"
	"time"
)

// Stats describes the work a solve performed. For multi-start solves the
// pass and move counters aggregate every start; InitialCost and BestStart
// refer to the winning start.
type Stats struct {
	Starts      int           `json:"starts"`
	BestStart   int           `json:"bestStart"`
	Passes      int           `json:"passes"`
	TwoOptMoves int           `json:"twoOptMoves"`
	OrOptMoves  int           `json:"orOptMoves"`
	InitialCost float64       `json:"initialCost"`
	FinalCost   float64       `json:"finalCost"`
	Elapsed     time.Duration `json:"elapsedNs"`
}

type statsKey struct {
	Tenant string
	ID     string
}

var (
	statsMu sync.Mutex
	statsBy = map[statsKey]Stats{}
)

// RecordStats keeps the stats of a finished solve in process memory for the
// debug endpoints; durable storage is the store's job.
func RecordStats(tenant, id string, st Stats) {
	statsMu.Lock()
	statsBy[statsKey{Tenant: tenant, ID: id}] = st
	statsMu.Unlock()
}

// StatsFor returns the recorded stats for a solve, if still held.
func StatsFor(tenant, id string) (Stats, bool) {
	statsMu.Lock()
	defer statsMu.Unlock()
	st, ok := statsBy[statsKey{Tenant: tenant, ID: id}]
	return st, ok
}
