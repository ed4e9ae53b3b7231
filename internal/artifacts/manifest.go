package artifacts

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/google/uuid"
)

// Transition records one orchestrator state change.
type Transition struct {
	State string    `json:"state"`
	At    time.Time `json:"at"`
	Error string    `json:"error,omitempty"`
}

// Manifest describes one pipeline run persisted as run.json.
type Manifest struct {
	RunID       string       `json:"run_id"`
	DataPath    string       `json:"data_path"`
	Target      string       `json:"target_column"`
	State       string       `json:"state"`
	Transitions []Transition `json:"transitions"`
	Files       []string     `json:"files"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`

	// Not serialized: on-disk location of run.json
	path string `json:"-"`
}

// NewManifest constructs an in-memory manifest with a fresh run id. Call Save() to persist.
func NewManifest(path, dataPath, target string) *Manifest {
	now := time.Now()
	return &Manifest{
		RunID:     uuid.NewString(),
		DataPath:  dataPath,
		Target:    target,
		CreatedAt: now,
		UpdatedAt: now,
		path:      path,
	}
}

// LoadManifest reads a run.json.
func LoadManifest(path string) (*Manifest, error) {
	var m Manifest
	if err := ReadJSON(path, &m); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("manifest not found at %s: %w", path, err)
		}
		return nil, err
	}
	m.path = path
	return &m, nil
}

// Record appends a state transition.
func (m *Manifest) Record(state string, err error) {
	t := Transition{State: state, At: time.Now()}
	if err != nil {
		t.Error = err.Error()
	}
	m.State = state
	m.Transitions = append(m.Transitions, t)
	m.UpdatedAt = t.At
}

// AddFile registers a file written during the run; duplicates are ignored.
func (m *Manifest) AddFile(path string) {
	for _, f := range m.Files {
		if f == path {
			return
		}
	}
	m.Files = append(m.Files, path)
}

// Save writes run.json using atomic write.
func (m *Manifest) Save() error {
	if m.path == "" {
		return errors.New("manifest path not set")
	}
	m.UpdatedAt = time.Now()
	return WriteJSON(m.path, m)
}
