package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	return Config{
		Input:        "in.cnf",
		Output:       "out",
		BVA:          "sbva",
		InnerTimeout: 200,
		OuterTimeout: 400,
		Solver:       "kissat",
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0666))
	return path
}

func TestLoad(t *testing.T) {
	t.Run("JSON", func(t *testing.T) {
		path := writeFile(t, "config.json", `{"bva": "/opt/sbva", "solver": "/opt/kissat", "t1": 200, "t2": 400, "solverargs": ["sat", "reduce=false"]}`)

		config, err := Load(path)

		require.NoError(t, err)
		assert.Equal(t, Config{
			BVA:          "/opt/sbva",
			Solver:       "/opt/kissat",
			InnerTimeout: 200,
			OuterTimeout: 400,
			SolverArgs:   []string{"sat", "reduce=false"},
		}, config)
	})

	t.Run("YAML", func(t *testing.T) {
		path := writeFile(t, "config.yaml", "input: in.cnf\noutput: out\nt1: 5\nt2: 10\n")

		config, err := Load(path)

		require.NoError(t, err)
		assert.Equal(t, Config{Input: "in.cnf", Output: "out", InnerTimeout: 5, OuterTimeout: 10}, config)
	})

	t.Run("Unknown key", func(t *testing.T) {
		path := writeFile(t, "config.json", `{"slover": "kissat"}`)

		_, err := Load(path)

		assert.Error(t, err)
	})

	t.Run("Invalid JSON", func(t *testing.T) {
		path := writeFile(t, "config.json", `{"solver": `)

		_, err := Load(path)

		assert.Error(t, err)
	})

	t.Run("Missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "config.json"))

		assert.Error(t, err)
	})
}

func TestMerge(t *testing.T) {
	base := validConfig()
	base.SolverArgs = []string{"sat"}

	merged := base.Merge(Config{Solver: "cadical", OuterTimeout: 30})

	assert.Equal(t, "cadical", merged.Solver)
	assert.Equal(t, 30, merged.OuterTimeout)
	assert.Equal(t, base.BVA, merged.BVA)
	assert.Equal(t, []string{"sat"}, merged.SolverArgs)
	assert.Equal(t, 30*time.Second, merged.OuterTimeoutDuration())
}

func TestValidate(t *testing.T) {
	assert.NoError(t, validConfig().Validate())

	missingSolver := validConfig()
	missingSolver.Solver = ""
	assert.ErrorIs(t, missingSolver.Validate(), ErrMissingField)

	missingInput := validConfig()
	missingInput.Input = ""
	assert.ErrorIs(t, missingInput.Validate(), ErrMissingField)

	noTimeout := validConfig()
	noTimeout.OuterTimeout = 0
	assert.Error(t, noTimeout.Validate())

	negativeTimeout := validConfig()
	negativeTimeout.InnerTimeout = -1
	assert.Error(t, negativeTimeout.Validate())
}

func TestNormalizeSolverOptions(t *testing.T) {
	names := []string{"sat", "reduce=false"}

	options := NormalizeSolverOptions(names)

	assert.Equal(t, []string{"--sat", "--reduce=false"}, options)
	assert.Equal(t, []string{"sat", "reduce=false"}, names)
	assert.Empty(t, NormalizeSolverOptions(nil))
}
