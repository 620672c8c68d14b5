package artifacts

import (
	"errors"
	"fmt"
	"os"
	"time"
)

// Registry is the append-only log of completed CV runs and final training
// jobs. It is read whole, mutated in memory, and rewritten whole; concurrent
// writers are unsupported (single-writer discipline is on the operator).
type Registry struct {
	UpdatedAt        string          `json:"updated_at"`
	CVRuns           []CVRunEntry    `json:"cv_runs"`
	FinalJobs        []FinalJobEntry `json:"final_jobs"`
	LatestFinalModel string          `json:"latest_final_model,omitempty"`
}

// FoldStatus summarizes one fold's outcome inside a CV run entry.
type FoldStatus struct {
	Name              string `json:"name"`
	Status            string `json:"status"`
	TunedModel        string `json:"tuned_model,omitempty"`
	NonRegressionPass *bool  `json:"non_regression_pass,omitempty"`
}

// CVRunEntry records one completed (or submitted) cross-validation run.
type CVRunEntry struct {
	RunID          string       `json:"run_id"`
	CreatedAt      string       `json:"created_at"`
	BaseModel      string       `json:"base_model"`
	RunDir         string       `json:"run_dir"`
	MeanTunedScore *float64     `json:"mean_tuned_score,omitempty"`
	Folds          []FoldStatus `json:"folds"`
}

// FinalJobEntry records one final training job.
type FinalJobEntry struct {
	CreatedAt      string `json:"created_at"`
	BaseModel      string `json:"base_model"`
	JobID          string `json:"job_id"`
	Status         string `json:"status"`
	FineTunedModel string `json:"fine_tuned_model,omitempty"`
	MetadataPath   string `json:"metadata_path"`
}

// RegistryStore owns the registry file path and the load-mutate-save cycle.
type RegistryStore struct {
	path string
}

func NewRegistryStore(path string) *RegistryStore {
	return &RegistryStore{path: path}
}

// Load reads the registry, returning an empty one if the file does not exist.
func (s *RegistryStore) Load() (*Registry, error) {
	registry := &Registry{}

	if err := LoadJSON(s.path, registry); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Registry{UpdatedAt: nowISO()}, nil
		}

		return nil, err
	}

	return registry, nil
}

// Save stamps updated_at and rewrites the whole file.
func (s *RegistryStore) Save(registry *Registry) error {
	registry.UpdatedAt = nowISO()

	return SaveJSON(s.path, registry)
}

// AppendCVRun appends a CV run entry in one load-mutate-save step.
func (s *RegistryStore) AppendCVRun(entry CVRunEntry) error {
	registry, err := s.Load()
	if err != nil {
		return fmt.Errorf("loading registry: %w", err)
	}

	registry.CVRuns = append(registry.CVRuns, entry)

	return s.Save(registry)
}

// AppendFinalJob appends a final job entry and, when the job produced a
// model, advances latest_final_model.
func (s *RegistryStore) AppendFinalJob(entry FinalJobEntry) error {
	registry, err := s.Load()
	if err != nil {
		return fmt.Errorf("loading registry: %w", err)
	}

	registry.FinalJobs = append(registry.FinalJobs, entry)
	if entry.FineTunedModel != "" {
		registry.LatestFinalModel = entry.FineTunedModel
	}

	return s.Save(registry)
}

func nowISO() string {
	return time.Now().UTC().Format(time.RFC3339)
}
