package types

import (
	"fmt"
	"gopkg.in/yaml.v3"
	"os"
)

const (
	DefaultAbundanceThreshold = 5

	TrigramEstimatesFile    = "trigram_estimates.txt"
	EmissionPredictionsFile = "emission_predictions.txt"
	ViterbiPredictionsFile  = "viterbi_predictions.txt"
	CountsFile              = "tags.counts"
)

type OutputNames struct {
	TrigramEstimates    string `yaml:"trigram_estimates" json:"trigram_estimates"`
	EmissionPredictions string `yaml:"emission_predictions" json:"emission_predictions"`
	ViterbiPredictions  string `yaml:"viterbi_predictions" json:"viterbi_predictions"`
	Counts              string `yaml:"counts" json:"counts"`
}

// RunConfiguration holds the knobs of a batch run. It is read from YAML; any field
// left out keeps its default.
type RunConfiguration struct {
	AbundanceThreshold int                   `yaml:"abundance_threshold" json:"abundance_threshold"`
	ZeroProbability    ZeroProbabilityPolicy `yaml:"zero_probability" json:"zero_probability"`
	Floor              float64               `yaml:"floor" json:"floor"`
	Outputs            OutputNames           `yaml:"outputs" json:"outputs"`
}

func DefaultRunConfiguration() RunConfiguration {
	return RunConfiguration{
		AbundanceThreshold: DefaultAbundanceThreshold,
		ZeroProbability:    ZeroProbabilityAbort,
		Outputs: OutputNames{
			TrigramEstimates:    TrigramEstimatesFile,
			EmissionPredictions: EmissionPredictionsFile,
			ViterbiPredictions:  ViterbiPredictionsFile,
			Counts:              CountsFile,
		},
	}
}

func (cfg RunConfiguration) Validate() error {
	if cfg.AbundanceThreshold < 1 {
		return fmt.Errorf("abundance_threshold must be positive, got %d", cfg.AbundanceThreshold)
	}
	if !cfg.ZeroProbability.Valid() {
		return fmt.Errorf("unknown zero_probability policy %q", cfg.ZeroProbability)
	}
	return nil
}

func ParseRunConfiguration(buf []byte) (RunConfiguration, error) {
	cfg := DefaultRunConfiguration()
	if err := yaml.Unmarshal(buf, &cfg); err != nil {
		return cfg, fmt.Errorf("parse run configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func LoadRunConfiguration(filePath string) (RunConfiguration, error) {
	buf, err := os.ReadFile(filePath)
	if err != nil {
		return DefaultRunConfiguration(), err
	}
	return ParseRunConfiguration(buf)
}
