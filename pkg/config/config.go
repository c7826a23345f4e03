package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

const (
	DefaultFileName    = "config.json"
	solverOptionPrefix = "--"
)

var ErrMissingField = errors.New("missing required configuration field")

type Config struct {
	Input        string   `mapstructure:"input"`
	Output       string   `mapstructure:"output"`
	BVA          string   `mapstructure:"bva"`
	InnerTimeout int      `mapstructure:"t1"` // Seconds, handed to the preprocessor itself
	OuterTimeout int      `mapstructure:"t2"` // Seconds, enforced on the preprocessor process
	Solver       string   `mapstructure:"solver"`
	SolverArgs   []string `mapstructure:"solverargs"`
}

// Load reads a JSON or YAML (by extension) configuration file. Keys missing from
// the file are left at their zero value.
func Load(path string) (Config, error) {
	bytes, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("cannot read config file: %w", err)
	}

	var raw map[string]any
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(bytes, &raw)
	default:
		err = json.Unmarshal(bytes, &raw)
	}
	if err != nil {
		return Config{}, fmt.Errorf("cannot parse config file %v: %w", path, err)
	}

	var config Config
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &config,
		WeaklyTypedInput: true, // JSON numbers arrive as float64
		ErrorUnused:      true,
	})
	if err != nil {
		return Config{}, err
	}
	if err := decoder.Decode(raw); err != nil {
		return Config{}, fmt.Errorf("invalid config file %v: %w", path, err)
	}

	return config, nil
}

// DefaultPath returns the config.json placed next to the running executable, or
// an empty string if there is none.
func DefaultPath() string {
	execPath, err := os.Executable()
	if err != nil {
		return ""
	}
	path := filepath.Join(filepath.Dir(execPath), DefaultFileName)
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

// Merge returns config with every non-zero field of override applied on top
func (config Config) Merge(override Config) Config {
	if override.Input != "" {
		config.Input = override.Input
	}
	if override.Output != "" {
		config.Output = override.Output
	}
	if override.BVA != "" {
		config.BVA = override.BVA
	}
	if override.InnerTimeout != 0 {
		config.InnerTimeout = override.InnerTimeout
	}
	if override.OuterTimeout != 0 {
		config.OuterTimeout = override.OuterTimeout
	}
	if override.Solver != "" {
		config.Solver = override.Solver
	}
	if len(override.SolverArgs) > 0 {
		config.SolverArgs = override.SolverArgs
	}
	return config
}

func (config Config) Validate() error {
	required := map[string]string{
		"input":  config.Input,
		"output": config.Output,
		"bva":    config.BVA,
		"solver": config.Solver,
	}
	for _, name := range []string{"input", "output", "bva", "solver"} {
		if required[name] == "" {
			return fmt.Errorf("%w: %v", ErrMissingField, name)
		}
	}

	if config.InnerTimeout <= 0 {
		return fmt.Errorf("inner timeout (t1) must be positive: %v", config.InnerTimeout)
	} else if config.OuterTimeout <= 0 {
		return fmt.Errorf("outer timeout (t2) must be positive: %v", config.OuterTimeout)
	}
	return nil
}

func (config Config) OuterTimeoutDuration() time.Duration {
	return time.Duration(config.OuterTimeout) * time.Second
}

// NormalizeSolverOptions prefixes every option name with "--". It never modifies
// names and always returns a fresh slice, so it must be applied exactly once.
func NormalizeSolverOptions(names []string) []string {
	options := make([]string, len(names))
	for i, name := range names {
		options[i] = solverOptionPrefix + name
	}
	return options
}
