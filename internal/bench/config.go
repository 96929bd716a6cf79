package bench

import (
	"errors"
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
)

// Case is one point of the benchmark matrix: the producer writes Size bytes
// per call and the consumer drains each write with Reads reads.
type Case struct {
	Size  int `yaml:"size"`
	Reads int `yaml:"reads"`
}

// Config describes a benchmark run.
type Config struct {
	// Total is the number of bytes sent per round and case.
	Total  int    `yaml:"total"`
	Rounds int    `yaml:"rounds"`
	Kinds  []Kind `yaml:"kinds"`
	Cases  []Case `yaml:"cases"`
}

const kb = 1024

// DefaultConfig sends 1 MiB per case across every kind.
func DefaultConfig() Config {
	return Config{
		Total:  1024 * kb,
		Rounds: 5,
		Kinds:  Kinds(),
		Cases: []Case{
			{Size: 4 * kb, Reads: 1},
			{Size: 4 * kb, Reads: 16},
			{Size: 8 * kb, Reads: 1},
			{Size: 16 * kb, Reads: 1},
			{Size: 32 * kb, Reads: 1},
			{Size: 64 * kb, Reads: 1},
			{Size: 64 * kb, Reads: 16},
		},
	}
}

// LoadConfig reads a YAML config file. Fields missing from the file keep
// their DefaultConfig values.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("bench: read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("bench: parse config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Validate reports every problem found in c.
func (c Config) Validate() error {
	var errs []error
	if c.Total <= 0 {
		errs = append(errs, fmt.Errorf("total must be positive, got %d", c.Total))
	}
	if c.Rounds <= 0 {
		errs = append(errs, fmt.Errorf("rounds must be positive, got %d", c.Rounds))
	}
	if len(c.Kinds) == 0 {
		errs = append(errs, errors.New("at least one kind is required"))
	}
	for _, k := range c.Kinds {
		if _, err := Open(k); err != nil {
			errs = append(errs, err)
		}
	}
	if len(c.Cases) == 0 {
		errs = append(errs, errors.New("at least one case is required"))
	}
	for _, tc := range c.Cases {
		if tc.Size <= 0 || tc.Reads <= 0 || tc.Reads > tc.Size {
			errs = append(errs, fmt.Errorf("invalid case size=%d reads=%d", tc.Size, tc.Reads))
		}
		if tc.Size > c.Total {
			errs = append(errs, fmt.Errorf("case size %d exceeds total %d", tc.Size, c.Total))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("bench: invalid config: %w", err)
	}
	return nil
}
