package geo

import (
	"path/filepath"
	"testing"
)

func TestMatrixFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "matrix.json")
	mf := &MatrixFile{Mode: "driving", Labels: []string{"depot", "stop"}, Costs: [][]float64{{0, 1.5}, {1.5, 0}}}
	if err := SaveMatrixFile(path, mf); err != nil {
		t.Fatalf("SaveMatrixFile: %v", err)
	}
	got, err := LoadMatrixFile(path)
	if err != nil {
		t.Fatalf("LoadMatrixFile: %v", err)
	}
	if got.Mode != "driving" || len(got.Labels) != 2 {
		t.Fatalf("unexpected header: %+v", got)
	}
	if got.Costs[0][1] != 1.5 {
		t.Fatalf("unexpected costs: %v", got.Costs)
	}
}

func TestLoadMatrixFileMissing(t *testing.T) {
	if _, err := LoadMatrixFile(filepath.Join(t.TempDir(), "none.json")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestLoadMatrixFileEmptyCosts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "matrix.json")
	if err := SaveMatrixFile(path, &MatrixFile{Mode: "driving"}); err != nil {
		t.Fatalf("SaveMatrixFile: %v", err)
	}
	if _, err := LoadMatrixFile(path); err == nil {
		t.Fatalf("expected error for empty costs")
	}
}
