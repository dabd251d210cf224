package output

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/a3tai/goodnotes-pdf/internal/pipeline"
)

// ManifestName is the file name of the run manifest
const ManifestName = "manifest.yaml"

// Manifest records what a run extracted and in which order
type Manifest struct {
	RunID       string            `yaml:"run_id"`
	Source      string            `yaml:"source,omitempty"`
	CreatedAt   string            `yaml:"created_at"`
	OrderSource string            `yaml:"order_source"`
	Outputs     []pipeline.Output `yaml:"outputs"`
	Merged      *pipeline.Output  `yaml:"merged,omitempty"`
	MergeError  string            `yaml:"merge_error,omitempty"`
	Skipped     []string          `yaml:"skipped,omitempty"`
	Unmatched   []string          `yaml:"unmatched,omitempty"`
	Unindexed   []string          `yaml:"unindexed,omitempty"`
}

// NewManifest builds the manifest for a run result
func NewManifest(source string, result *pipeline.Result) *Manifest {
	m := &Manifest{
		RunID:       result.RunID,
		Source:      source,
		CreatedAt:   time.Now().UTC().Format(time.RFC3339),
		OrderSource: string(result.OrderSource),
		Outputs:     result.Outputs,
		Merged:      result.Merged,
		Skipped:     result.Skipped,
		Unmatched:   result.Unmatched,
		Unindexed:   result.Unindexed,
	}
	if result.MergeError != nil {
		m.MergeError = result.MergeError.Error()
	}
	return m
}

// Marshal encodes the manifest as YAML
func (m *Manifest) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("cannot encode manifest: %w", err)
	}
	return data, nil
}
