package main

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/limaJavier/bvasolve/pkg/sat"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type SolverConfiguration struct {
	Name    string
	Options []string
}

type TestMetadata struct {
	Name      string
	Variables int64
	Clauses   int64
}

type BenchmarkResult struct {
	Configuration SolverConfiguration
	Test          TestMetadata
	Duration      int64
	Memory        float32
	CpuPercentage int64
	Path          string
	Status        string
}

// summary is the final log entry written by bvasolve
type summary struct {
	Message string `json:"msg"`
	Path    string `json:"path"`
	Status  string `json:"status"`
}

var (
	executablePath string
	testDirectory  string
	bvaPath        string
	solverPath     string
	innerTimeout   int
	outerTimeout   int
	outputPath     string

	configurations = []SolverConfiguration{
		{Name: "default"},
		{Name: "sat", Options: []string{"sat"}},
		{Name: "unsat", Options: []string{"unsat"}},
	}

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "benchmark",
	Short: "Run bvasolve over every CNF of a directory and collect time, memory and outcome into a CSV",
	RunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if logger, err = zap.NewDevelopment(); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		defer logger.Sync()

		tests, err := getTests()
		if err != nil {
			return err
		}
		results := make([]BenchmarkResult, 0, len(tests)*len(configurations))

		for _, test := range tests {
			for _, configuration := range configurations {
				logger.Info("benchmarking", zap.String("test", test.Name), zap.String("configuration", configuration.Name))

				result, err := measure(configuration, test)
				if err != nil {
					return err
				}
				results = append(results, result)
			}
		}

		return toCsv(results)
	},
}

func init() {
	rootCmd.Flags().StringVar(&executablePath, "executable", "../../bin/bvasolve", "Path to the bvasolve executable")
	rootCmd.Flags().StringVar(&testDirectory, "tests", "../../test/cnfs/", "Directory holding the DIMACS-CNF instances")
	rootCmd.Flags().StringVar(&bvaPath, "bva", "sbva", "Path to the BVA preprocessor executable")
	rootCmd.Flags().StringVar(&solverPath, "solver", "kissat", "Path to the SAT solver executable")
	rootCmd.Flags().IntVar(&innerTimeout, "t1", 200, "Inner preprocessing timeout in seconds")
	rootCmd.Flags().IntVar(&outerTimeout, "t2", 400, "Outer preprocessing timeout in seconds")
	rootCmd.Flags().StringVar(&outputPath, "out", "benchmark_results.csv", "CSV file to write")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func getTests() ([]TestMetadata, error) {
	testFiles, err := os.ReadDir(testDirectory)
	if err != nil {
		return nil, fmt.Errorf("cannot read directory: %w", err)
	}

	tests := make([]TestMetadata, 0, len(testFiles))
	for _, file := range testFiles {
		if file.IsDir() || !strings.HasSuffix(file.Name(), ".cnf") {
			continue
		}

		filename := filepath.Join(testDirectory, file.Name())
		header, err := sat.ReadHeader(filename)
		if err != nil {
			return nil, fmt.Errorf("cannot read test file: %w", err)
		}

		tests = append(tests, TestMetadata{
			Name:      filename,
			Variables: header.Variables,
			Clauses:   header.Clauses,
		})
	}

	return tests, nil
}

func measure(configuration SolverConfiguration, test TestMetadata) (BenchmarkResult, error) {
	outputDir, err := os.MkdirTemp("", "bvasolve-benchmark-*")
	if err != nil {
		return BenchmarkResult{}, fmt.Errorf("cannot create output directory: %w", err)
	}
	defer os.RemoveAll(outputDir)

	args := []string{
		"-v", executablePath,
		"-i", test.Name,
		"-o", outputDir,
		"--bva", bvaPath,
		"--t1", strconv.Itoa(innerTimeout),
		"--t2", strconv.Itoa(outerTimeout),
		"--solver", solverPath,
	}
	if len(configuration.Options) > 0 {
		args = append(args, "--solverargs", strings.Join(configuration.Options, ","))
	}
	cmd := exec.Command("/usr/bin/time", args...)

	var stdOut bytes.Buffer
	cmd.Stdout = &stdOut
	var stdErr bytes.Buffer
	cmd.Stderr = &stdErr

	if err := cmd.Run(); err != nil {
		return BenchmarkResult{}, fmt.Errorf("an error occurred during the execution of bvasolve at test \"%v\" using configuration \"%v\": %v: %v", test.Name, configuration.Name, err, stdErr.String())
	}

	splits := strings.Split(stdErr.String(), "\n")
	getLine := func(substr string) (string, error) {
		line, ok := lo.Find(splits, func(line string) bool {
			return strings.Contains(strings.ToLower(line), substr)
		})
		if !ok {
			return "", fmt.Errorf("substring \"%v\" could not be found in the output of /usr/bin/time", substr)
		}
		return line, nil
	}

	durationLine, err := getLine("wall clock")
	if err != nil {
		return BenchmarkResult{}, err
	}
	duration, err := parseDurationLine(durationLine)
	if err != nil {
		return BenchmarkResult{}, fmt.Errorf("cannot parse duration: %w", err)
	}

	memoryLine, err := getLine("maximum resident set size")
	if err != nil {
		return BenchmarkResult{}, err
	}
	memory, err := parseMemoryLine(memoryLine)
	if err != nil {
		return BenchmarkResult{}, fmt.Errorf("cannot parse memory: %w", err)
	}

	cpuLine, err := getLine("percent of cpu")
	if err != nil {
		return BenchmarkResult{}, err
	}
	cpuPercentage, err := parseCpuPercentageLine(cpuLine)
	if err != nil {
		return BenchmarkResult{}, fmt.Errorf("cannot parse CPU percentage: %w", err)
	}

	path, status := parseSummary(splits)
	return BenchmarkResult{
		Configuration: configuration,
		Test:          test,
		Duration:      duration,
		Memory:        memory,
		CpuPercentage: cpuPercentage,
		Path:          path,
		Status:        lo.Ternary(status == "" || status == "PASSTHROUGH", parseStatus(stdOut.String()), status),
	}, nil
}

// parseSummary extracts the path and status from bvasolve's final log entry
func parseSummary(lines []string) (path string, status string) {
	for _, line := range lines {
		var entry summary
		if !strings.HasPrefix(line, "{") || json.Unmarshal([]byte(line), &entry) != nil {
			continue
		}
		if entry.Message == "done" {
			return entry.Path, entry.Status
		}
	}
	return "unknown", ""
}

// parseStatus reads the "s ..." line a solver prints, used when bvasolve passed the
// solver's output through
func parseStatus(output string) string {
	line, ok := lo.Find(strings.Split(output, "\n"), func(line string) bool {
		return strings.HasPrefix(line, "s ")
	})
	if !ok {
		return "UNKNOWN"
	}
	return strings.TrimSpace(line[2:])
}

func toCsv(results []BenchmarkResult) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("cannot create CSV file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{"Configuration", "Test", "Variables", "Clauses", "Duration(ms)", "Memory(MB)", "CPU(%)", "Path", "Status"}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("cannot write CSV header: %w", err)
	}

	for _, result := range results {
		record := []string{
			result.Configuration.Name,
			result.Test.Name,
			fmt.Sprintf("%d", result.Test.Variables),
			fmt.Sprintf("%d", result.Test.Clauses),
			fmt.Sprintf("%d", result.Duration),
			fmt.Sprintf("%.1f", result.Memory),
			fmt.Sprintf("%d", result.CpuPercentage),
			result.Path,
			result.Status,
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("cannot write CSV record: %w", err)
		}
	}
	return nil
}

// field returns the trimmed value following the first occurrence of separator in
// a "/usr/bin/time -v" line
func field(line, separator string) (string, error) {
	_, value, found := strings.Cut(line, separator)
	value = strings.TrimSpace(value)
	if !found || value == "" {
		return "", fmt.Errorf("unexpected line format: %q", line)
	}
	return value, nil
}

func parseDurationLine(line string) (int64, error) {
	durationStr, err := field(line, "(h:mm:ss or m:ss):")
	if err != nil {
		return 0, err
	}
	return parseDuration(durationStr)
}

// parseDuration converts "h:mm:ss.cc" or "m:ss.cc" into milliseconds
func parseDuration(durationStr string) (int64, error) {
	parts := strings.Split(durationStr, ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, fmt.Errorf("unexpected duration format: %v", durationStr)
	}
	secondsStr, hundredthsStr, found := strings.Cut(parts[len(parts)-1], ".")
	if !found {
		return 0, fmt.Errorf("unexpected duration format: %v", durationStr)
	}

	units := append(parts[:len(parts)-1:len(parts)-1], secondsStr, hundredthsStr)
	values := make([]int64, len(units))
	for i, unit := range units {
		value, err := strconv.ParseInt(unit, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("unexpected duration format: %v: %w", durationStr, err)
		}
		values[i] = value
	}

	var hours int64
	if len(values) == 4 { // h:mm:ss
		hours, values = values[0], values[1:]
	}
	minutes, seconds, hundredthOfSeconds := values[0], values[1], values[2]
	return (hours*3600+minutes*60+seconds)*1000 + hundredthOfSeconds*10, nil
}

func parseMemoryLine(line string) (float32, error) {
	memoryStr, err := field(line, ":")
	if err != nil {
		return 0, err
	}
	memory, err := strconv.ParseFloat(memoryStr, 32)
	if err != nil {
		return 0, fmt.Errorf("unexpected memory value: %w", err)
	}
	return float32(memory) / 1024, nil
}

func parseCpuPercentageLine(line string) (int64, error) {
	percentageStr, err := field(line, ":")
	if err != nil {
		return 0, err
	}
	percentage, err := strconv.ParseInt(strings.TrimSuffix(percentageStr, "%"), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("unexpected CPU percentage: %w", err)
	}
	return percentage, nil
}
