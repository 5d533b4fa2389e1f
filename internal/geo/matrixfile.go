package geo

import (
    "encoding/json"
    "fmt"
    "os"
)

// MatrixFile is the JSON cache written next to an address list so repeat
// runs skip the distance-matrix API.
type MatrixFile struct {
    Mode   string      `json:"mode,omitempty"`
    Labels []string    `json:"labels,omitempty"`
    Costs  [][]float64 `json:"costs"`
}

func LoadMatrixFile(path string) (*MatrixFile, error) {
    b, err := os.ReadFile(path)
    if err != nil { return nil, err }
    var mf MatrixFile
    if err := json.Unmarshal(b, &mf); err != nil {
        return nil, fmt.Errorf("parse %s: %w", path, err)
    }
    if len(mf.Costs) == 0 {
        return nil, fmt.Errorf("parse %s: empty costs", path)
    }
    return &mf, nil
}

func SaveMatrixFile(path string, mf *MatrixFile) error {
    b, err := json.MarshalIndent(mf, "", "  ")
    if err != nil { return err }
    return os.WriteFile(path, b, 0o644)
}
