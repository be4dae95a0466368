// Package main provides a performance benchmarking tool for the rtei bake command.
// It measures bake times for a data directory across worker counts and snapshot
// backends, running each case multiple times, treating the first successful run as
// cold and averaging the rest as warm, and writes the results as CSV.
//
// Prerequisites:
// - rtei binary installed and available in PATH
// - A data directory with scores_per_country.json, indicators.json and countries.json
//
// Usage: go run benchmark/main.go [data-dir]
package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"
)

// BenchmarkResult holds the result of one benchmark case.
type BenchmarkResult struct {
	Backend  string
	Workers  int
	ColdTime string
	WarmTime string
}

// BenchmarkConfig holds configuration for the benchmark run.
type BenchmarkConfig struct {
	DataDir  string
	Timeout  time.Duration
	Runs     int
	Workers  []int
	Backends []string
}

func main() {
	if len(os.Args) != 2 {
		fmt.Printf("Usage: %s [data-dir]\n", os.Args[0])
		os.Exit(1)
	}

	config := BenchmarkConfig{
		DataDir:  os.Args[1],
		Timeout:  5 * time.Minute,
		Runs:     4,
		Workers:  []int{1, 2, 4, runtime.NumCPU()},
		Backends: []string{"none", "sqlite"},
	}

	if err := checkPrerequisites(config); err != nil {
		fmt.Printf("Prerequisites check failed: %v\n", err)
		os.Exit(1)
	}

	workDir, err := os.MkdirTemp("", "rtei-benchmark-*")
	if err != nil {
		fmt.Printf("Failed to create work dir: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = os.RemoveAll(workDir) }()

	results := runBenchmarks(config, workDir)

	if err := saveResults(results); err != nil {
		fmt.Printf("Failed to save results: %v\n", err)
		os.Exit(1)
	}

	printSummary(results)
}

// checkPrerequisites verifies that the rtei binary and the data files exist
func checkPrerequisites(config BenchmarkConfig) error {
	if _, err := exec.LookPath("rtei"); err != nil {
		return errors.New("rtei binary not found in PATH")
	}
	for _, name := range []string{"scores_per_country.json", "indicators.json"} {
		path := filepath.Join(config.DataDir, name)
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("data file %s not found: %w", path, err)
		}
	}
	return nil
}

// runBenchmarks executes every backend and worker combination
func runBenchmarks(config BenchmarkConfig, workDir string) []BenchmarkResult {
	var results []BenchmarkResult

	fmt.Printf("Starting benchmark: %d backends, %d worker counts, %d runs, %v timeout\n",
		len(config.Backends), len(config.Workers), config.Runs, config.Timeout)

	for _, backend := range config.Backends {
		for _, workers := range config.Workers {
			fmt.Printf("Benchmarking bake (backend %s, %d workers)\n", backend, workers)
			cold, warm := runBenchmark(config, workDir, backend, workers)

			result := BenchmarkResult{Backend: backend, Workers: workers, ColdTime: "TIMEOUT", WarmTime: "TIMEOUT"}
			if cold > 0 {
				result.ColdTime = fmt.Sprintf("%.3fs", cold)
			}
			if len(warm) > 0 {
				var sum float64
				for _, t := range warm {
					sum += t
				}
				result.WarmTime = fmt.Sprintf("%.3fs", sum/float64(len(warm)))
			}
			fmt.Printf("  Cold time: %s, Warm average: %s\n", result.ColdTime, result.WarmTime)
			results = append(results, result)
		}
	}

	return results
}

// runBenchmark bakes numRuns times and returns the cold time and the warm times
func runBenchmark(config BenchmarkConfig, workDir, backend string, workers int) (coldTime float64, warmTimes []float64) {
	outputDir := filepath.Join(workDir, fmt.Sprintf("%s-%d", backend, workers))
	args := []string{
		"bake",
		"--data-dir", config.DataDir,
		"--output-dir", outputDir,
		"--workers", strconv.Itoa(workers),
		"--snapshot-backend", backend,
	}

	env := os.Environ()
	if backend == "sqlite" {
		env = append(env, "RTEI_SNAPSHOT_DB_CONNECT="+filepath.Join(workDir, "snapshots.db"))
	}

	var times []float64
	for range config.Runs {
		ctx, cancel := context.WithTimeout(context.Background(), config.Timeout)
		cmd := exec.CommandContext(ctx, "rtei", args...)
		cmd.Env = env

		start := time.Now()
		output, err := cmd.CombinedOutput()
		elapsed := time.Since(start).Seconds()
		cancel()

		if err == nil && isSuccess(output) {
			times = append(times, elapsed)
		}
	}

	if len(times) > 0 {
		coldTime = times[0]
		warmTimes = times[1:]
	}
	return
}

// isSuccess checks if command output indicates a completed bake
func isSuccess(output []byte) bool {
	return strings.Contains(string(output), "Baked ")
}

// saveResults writes benchmark results to a timestamped CSV file
func saveResults(results []BenchmarkResult) error {
	timestamp := time.Now().Format("20060102_150405")
	filename := filepath.Join(os.TempDir(), fmt.Sprintf("rtei_benchmark_%s.csv", timestamp))

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			fmt.Printf("Warning: failed to close file %s: %v\n", filename, closeErr)
		}
	}()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write([]string{"backend", "workers", "cold_time", "warm_avg"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, result := range results {
		if err := writer.Write([]string{result.Backend, strconv.Itoa(result.Workers), result.ColdTime, result.WarmTime}); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	fmt.Printf("Results saved to %s\n", filename)
	return nil
}

// printSummary displays the final benchmark results summary
func printSummary(results []BenchmarkResult) {
	fmt.Printf("Benchmark complete\n")
	for _, result := range results {
		fmt.Printf("  %-8s %3d workers: Cold: %s, Warm: %s\n", result.Backend, result.Workers, result.ColdTime, result.WarmTime)
	}
}
