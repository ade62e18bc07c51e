package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/artlab/artikit/metrics"
)

// RunConfig is the structured options record the embedding application
// hands to the library. Absent or empty path fields mean "not available",
// never an error.
type RunConfig struct {
	// Preload forces eager computation of all configured derived
	// modalities for every recording at dataset-open time. When false,
	// computation is deferred until first access.
	Preload bool `yaml:"preload"`

	// ReleaseDataMemory drops a parent's raw array as soon as the last
	// derivation in a batch has consumed it, trading peak resident memory
	// against recomputation on demand.
	ReleaseDataMemory bool `yaml:"release_data_memory"`

	ExclusionList   string `yaml:"exclusion_list,omitempty"`
	OutputDirectory string `yaml:"output_directory,omitempty"`

	// Algorithm-specific parameter sets. A nil set means the algorithm is
	// not configured for this run.
	PixelDifference *metrics.PixelDifferenceParams `yaml:"pixel_difference,omitempty"`
	OpticalFlow     *metrics.OpticalFlowParams     `yaml:"optical_flow,omitempty"`
	AggregateImage  *metrics.AggregateImageParams  `yaml:"aggregate_image,omitempty"`
	PCA             *metrics.PCAParams             `yaml:"pca,omitempty"`
}

// DefaultRunConfig returns deferred computation with memory release on,
// and no algorithms configured.
func DefaultRunConfig() *RunConfig {
	return &RunConfig{
		Preload:           false,
		ReleaseDataMemory: true,
	}
}

// LoadRunConfig reads a yaml options file. An empty path returns the
// defaults.
func LoadRunConfig(path string) (*RunConfig, error) {
	cfg := DefaultRunConfig()
	if path == "" {
		return cfg, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading run config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parsing run config %s: %w", path, err)
	}
	return cfg, nil
}

// Requests expands the configured parameter sets into derivation requests
// against the named parent modality.
func (c *RunConfig) Requests(parentName string) []metrics.Request {
	var out []metrics.Request
	if c.PixelDifference != nil {
		out = append(out, metrics.Request{ParentName: parentName, Params: *c.PixelDifference})
	}
	if c.OpticalFlow != nil {
		out = append(out, metrics.Request{ParentName: parentName, Params: *c.OpticalFlow})
	}
	if c.AggregateImage != nil {
		out = append(out, metrics.Request{ParentName: parentName, Params: *c.AggregateImage})
	}
	if c.PCA != nil {
		out = append(out, metrics.Request{ParentName: parentName, Params: *c.PCA})
	}
	return out
}
