// Package storage persists control-loop runs under a data directory: one
// subdirectory per run holding metadata.json and a trace.csv of per-step
// loss samples.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

// RunMetadata describes one recorded control-loop run.
type RunMetadata struct {
	ID        string             `json:"id"`
	Model     string             `json:"model"`
	Timestamp time.Time          `json:"timestamp"`
	Dt        float64            `json:"dt"`
	Steps     int                `json:"steps"`
	Workers   int                `json:"workers"`
	Driver    string             `json:"driver"`
	Applied   int                `json:"applied"`
	Metrics   map[string]float64 `json:"metrics"`
}

// TracePoint is one committed step of the loop.
type TracePoint struct {
	Step      int
	Time      float64
	Loss      float64
	Computing bool
}

// Save writes the run under a fresh id derived from the model and wall
// clock, returning the id.
func (s *Store) Save(meta RunMetadata, trace []TracePoint) (string, error) {
	runID := fmt.Sprintf("%s_%d", meta.Model, time.Now().UnixNano())
	meta.ID = runID
	meta.Timestamp = time.Now()

	runDir := filepath.Join(s.baseDir, runID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	metaFile, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, "trace.csv"))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	defer w.Flush()

	if err := w.Write([]string{"step", "time", "loss", "computing"}); err != nil {
		return "", err
	}
	for _, p := range trace {
		row := []string{
			strconv.Itoa(p.Step),
			strconv.FormatFloat(p.Time, 'f', 6, 64),
			strconv.FormatFloat(p.Loss, 'e', 6, 64),
			strconv.FormatBool(p.Computing),
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}

	return runID, nil
}

// List returns the metadata of every recorded run, in directory order.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, meta)
	}
	return runs, nil
}

// Load reads the metadata of a single run.
func (s *Store) Load(runID string) (RunMetadata, error) {
	var meta RunMetadata
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return meta, err
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return meta, err
	}
	return meta, nil
}

// LoadTrace reads the recorded per-step trace of a run.
func (s *Store) LoadTrace(runID string) ([]TracePoint, error) {
	f, err := os.Open(filepath.Join(s.baseDir, runID, "trace.csv"))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("run %s has an empty trace", runID)
	}

	trace := make([]TracePoint, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if len(row) != 4 {
			return nil, fmt.Errorf("run %s has a malformed trace row: %v", runID, row)
		}
		step, err := strconv.Atoi(row[0])
		if err != nil {
			return nil, err
		}
		tm, err := strconv.ParseFloat(row[1], 64)
		if err != nil {
			return nil, err
		}
		loss, err := strconv.ParseFloat(row[2], 64)
		if err != nil {
			return nil, err
		}
		computing, err := strconv.ParseBool(row[3])
		if err != nil {
			return nil, err
		}
		trace = append(trace, TracePoint{Step: step, Time: tm, Loss: loss, Computing: computing})
	}
	return trace, nil
}
