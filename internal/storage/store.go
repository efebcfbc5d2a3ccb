package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/rigidsim/internal/body"
	"github.com/san-kum/rigidsim/internal/scene"
)

var ErrMalformedRow = errors.New("storage: malformed states row")

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
	ID          string             `json:"id"`
	Scenario    string             `json:"scenario"`
	Timestamp   time.Time          `json:"timestamp"`
	Seed        int64              `json:"seed"`
	Dt          float64            `json:"dt"`
	Duration    float64            `json:"duration"`
	Partitioned bool               `json:"partitioned"`
	Bodies      int                `json:"bodies"`
	Removed     int                `json:"removed"`
	Collisions  int                `json:"collisions"`
	Metrics     map[string]float64 `json:"metrics"`
}

// Sample is one body's state at one recorded step.
type Sample struct {
	Time     float64
	Step     int
	ID       body.ID
	Kind     body.Kind
	Position mgl64.Vec3
	Velocity mgl64.Vec3
}

// Recorder is a scene observer that samples every body each N steps.
type Recorder struct {
	every   int
	samples []Sample
}

func NewRecorder(every int) *Recorder {
	if every < 1 {
		every = 1
	}
	return &Recorder{every: every}
}

// Capture records the scene as it is now, typically before the first step.
func (r *Recorder) Capture(s *scene.Scene) {
	r.capture(s, s.Steps(), s.Time())
}

func (r *Recorder) OnStep(s *scene.Scene, info scene.StepInfo) {
	if info.Step%r.every != 0 {
		return
	}
	r.capture(s, info.Step, info.Time)
}

func (r *Recorder) capture(s *scene.Scene, step int, t float64) {
	for _, b := range s.Bodies() {
		rb := b.Rigid()
		r.samples = append(r.samples, Sample{
			Time:     t,
			Step:     step,
			ID:       b.ID(),
			Kind:     b.Kind(),
			Position: rb.Position,
			Velocity: rb.Velocity,
		})
	}
}

func (r *Recorder) Samples() []Sample { return r.samples }

var header = []string{"time", "step", "id", "kind", "x", "y", "z", "vx", "vy", "vz"}

func (s *Store) Save(meta RunMetadata, samples []Sample) (string, error) {
	runID := fmt.Sprintf("%s_%d", meta.Scenario, time.Now().UnixNano())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta.ID = runID
	meta.Timestamp = time.Now()

	metaPath := filepath.Join(runDir, "metadata.json")
	metaFile, err := os.Create(metaPath)
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvPath := filepath.Join(runDir, "states.csv")
	csvFile, err := os.Create(csvPath)
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	if err := w.Write(header); err != nil {
		return "", err
	}

	for _, sm := range samples {
		row := []string{
			formatFloat(sm.Time),
			strconv.Itoa(sm.Step),
			strconv.FormatUint(uint64(sm.ID), 10),
			sm.Kind.String(),
		}
		for _, v := range sm.Position {
			row = append(row, formatFloat(v))
		}
		for _, v := range sm.Velocity {
			row = append(row, formatFloat(v))
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return runID, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

// List returns every stored run, newest first.
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

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Timestamp.After(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	metaPath := filepath.Join(s.baseDir, runID, "metadata.json")
	data, err := os.ReadFile(metaPath)
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

func (s *Store) LoadStates(runID string) ([]Sample, error) {
	csvPath := filepath.Join(s.baseDir, runID, "states.csv")
	file, err := os.Open(csvPath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = len(header)

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return []Sample{}, nil
	}

	samples := make([]Sample, 0, len(records)-1)
	for i, record := range records[1:] {
		sm, err := parseRow(record)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrMalformedRow, i+2, err)
		}
		samples = append(samples, sm)
	}
	return samples, nil
}

func parseRow(record []string) (Sample, error) {
	var sm Sample
	var err error

	if sm.Time, err = strconv.ParseFloat(record[0], 64); err != nil {
		return sm, err
	}
	if sm.Step, err = strconv.Atoi(record[1]); err != nil {
		return sm, err
	}
	id, err := strconv.ParseUint(record[2], 10, 64)
	if err != nil {
		return sm, err
	}
	sm.ID = body.ID(id)
	if sm.Kind, err = body.ParseKind(record[3]); err != nil {
		return sm, err
	}

	vals := make([]float64, 6)
	for j := range vals {
		if vals[j], err = strconv.ParseFloat(record[4+j], 64); err != nil {
			return sm, err
		}
	}
	sm.Position = mgl64.Vec3{vals[0], vals[1], vals[2]}
	sm.Velocity = mgl64.Vec3{vals[3], vals[4], vals[5]}
	return sm, nil
}

// Series extracts one coordinate of one body over time. Axis 0-2 selects a
// position component, 3 the speed.
func Series(samples []Sample, id body.ID, axis int) ([]float64, []float64) {
	var times, values []float64
	for _, sm := range samples {
		if sm.ID != id {
			continue
		}
		times = append(times, sm.Time)
		if axis == 3 {
			values = append(values, sm.Velocity.Len())
		} else {
			values = append(values, sm.Position[axis])
		}
	}
	return times, values
}

// IDs returns the distinct body ids in the samples, in first-seen order.
func IDs(samples []Sample) []body.ID {
	seen := make(map[body.ID]bool)
	var ids []body.ID
	for _, sm := range samples {
		if !seen[sm.ID] {
			seen[sm.ID] = true
			ids = append(ids, sm.ID)
		}
	}
	return ids
}
