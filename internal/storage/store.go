package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/rigidsim/internal/config"
	"github.com/san-kum/rigidsim/internal/physics"
	"github.com/san-kum/rigidsim/internal/sim"
)

const (
	metadataFile = "metadata.json"
	framesFile   = "frames.csv"
)

// Per-body columns in frames.csv, after time, step and contacts.
var bodyColumns = []string{"x", "y", "z", "qx", "qy", "qz", "qw", "vx", "vy", "vz", "sleep"}

const leadColumns = 3

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID        string             `json:"id"`
	Scene     string             `json:"scene"`
	Timestamp time.Time          `json:"timestamp"`
	Seed      int64              `json:"seed"`
	Config    *config.Config     `json:"config"`
	Steps     int                `json:"steps"`
	Bodies    []string           `json:"bodies"`
	Metrics   map[string]float64 `json:"metrics"`
	Events    map[string]int     `json:"events,omitempty"`
	Impacts   int                `json:"impacts"`
}

// Save writes a run directory named after the scene and the current time.
func (s *Store) Save(cfg *config.Config, result *sim.Result) (string, error) {
	now := time.Now()
	runID := fmt.Sprintf("%s_%d", cfg.Scene, now.UnixNano())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:        runID,
		Scene:     cfg.Scene,
		Timestamp: now,
		Seed:      cfg.Seed,
		Config:    cfg,
		Steps:     result.StepsTaken,
		Bodies:    bodyNames(result),
		Metrics:   result.Metrics,
		Events:    result.Events,
		Impacts:   len(result.Impacts),
	}
	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}

	if err := WriteFramesCSV(filepath.Join(runDir, framesFile), meta.Bodies, result.Frames); err != nil {
		return "", err
	}
	return runID, nil
}

// WriteFramesCSV writes one row per frame.
func WriteFramesCSV(path string, bodies []string, frames []sim.Frame) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return EncodeFramesCSV(f, bodies, frames)
}

func EncodeFramesCSV(out io.Writer, bodies []string, frames []sim.Frame) error {
	w := csv.NewWriter(out)

	header := []string{"time", "step", "contacts"}
	for _, name := range bodies {
		for _, col := range bodyColumns {
			header = append(header, name+"."+col)
		}
	}
	if err := w.Write(header); err != nil {
		return err
	}

	row := make([]string, 0, len(header))
	for _, fr := range frames {
		row = append(row[:0],
			strconv.FormatFloat(fr.Time, 'f', 6, 64),
			strconv.Itoa(fr.Step),
			strconv.Itoa(fr.Contacts),
		)
		for _, b := range fr.Bodies {
			for _, v := range []float64{
				b.Position[0], b.Position[1], b.Position[2],
				b.Quaternion.V[0], b.Quaternion.V[1], b.Quaternion.V[2], b.Quaternion.W,
				b.Velocity[0], b.Velocity[1], b.Velocity[2],
			} {
				row = append(row, strconv.FormatFloat(v, 'g', 10, 64))
			}
			row = append(row, strconv.Itoa(int(b.Sleep)))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

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
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}
	return &meta, nil
}

// LoadFrames reads frames.csv back. Angular velocity is not stored and comes
// back zero.
func (s *Store) LoadFrames(runID string) ([]sim.Frame, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, framesFile))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return []sim.Frame{}, nil
	}

	n := (len(records[0]) - leadColumns) / len(bodyColumns)
	frames := make([]sim.Frame, 0, len(records)-1)
	for i := 1; i < len(records); i++ {
		rec := records[i]
		if len(rec) < leadColumns+n*len(bodyColumns) {
			return nil, fmt.Errorf("run %s: row %d has %d fields", runID, i, len(rec))
		}

		vals := make([]float64, len(rec))
		for j, field := range rec {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("run %s: row %d column %d: %w", runID, i, j, err)
			}
			vals[j] = v
		}

		fr := sim.Frame{
			Time:     vals[0],
			Step:     int(vals[1]),
			Contacts: int(vals[2]),
			Bodies:   make([]sim.BodyState, n),
		}
		for b := range fr.Bodies {
			v := vals[leadColumns+b*len(bodyColumns):]
			st := &fr.Bodies[b]
			st.Position = [3]float64{v[0], v[1], v[2]}
			st.Quaternion.V = [3]float64{v[3], v[4], v[5]}
			st.Quaternion.W = v[6]
			st.Velocity = [3]float64{v[7], v[8], v[9]}
			st.Sleep = physics.SleepState(v[10])
		}
		frames = append(frames, fr)
	}
	return frames, nil
}

func bodyNames(result *sim.Result) []string {
	names := make([]string, len(result.BodyNames))
	for i, name := range result.BodyNames {
		if name == "" {
			name = fmt.Sprintf("body%d", i)
		}
		names[i] = name
	}
	return names
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
