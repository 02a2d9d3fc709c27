package cmd

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/evac-sim/evac-sim/sim"
	"github.com/evac-sim/evac-sim/sim/stats"
)

var (
	sweepRuns   int    // Number of seeds to run
	resultsPath string // SQLite results database
)

// sweepCmd repeats an evacuation over consecutive seeds and aggregates the results
var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Repeat an evacuation over consecutive seeds",
	Run: func(cmd *cobra.Command, args []string) {
		setupLogging()
		if sweepRuns <= 0 {
			logrus.Fatalf("--runs must be positive, got %d", sweepRuns)
		}

		var store *ResultsStore
		if resultsPath != "" {
			var err error
			if store, err = OpenResultsStore(resultsPath); err != nil {
				logrus.Fatalf("Failed to open results database: %v", err)
			}
			defer func() {
				if err := store.Close(); err != nil {
					logrus.Errorf("Failed to close results database: %v", err)
				}
			}()
		}

		label := sweepLabel(time.Now())
		results, err := runSweep(cmd, seed, sweepRuns, func(r RunResult) error {
			r.Sweep = label
			if store == nil {
				return nil
			}
			return store.Append(r)
		})
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		summarizeSweep(results).Print()
	},
}

// runSweep runs seeds first..first+runs-1 sequentially and hands each result to sink.
func runSweep(cmd *cobra.Command, first int64, runs int, sink func(RunResult) error) ([]RunResult, error) {
	cfg := configFromFlags()
	cfg.Pace = 0
	results := make([]RunResult, 0, runs)
	for i := 0; i < runs; i++ {
		runSeed := first + int64(i)
		automaton, err := buildAutomaton(cmd, runSeed, cfg)
		if err != nil {
			return nil, fmt.Errorf("seed %d: %w", runSeed, err)
		}
		automaton.Run(automaton.Config().GenerationLimit())
		statistics, err := automaton.ComputeStatistics()
		if err != nil && !errors.Is(err, sim.ErrNoEvacuees) {
			return nil, fmt.Errorf("seed %d: %w", runSeed, err)
		}
		r := RunResult{Seed: runSeed, Scenario: scenarioLabel(), Statistics: statistics}
		if err := sink(r); err != nil {
			return nil, err
		}
		logrus.Infof("[seed %d] evacuated %d, stranded %d, mean time %.2f s",
			runSeed, statistics.NumberOfEvacuees, statistics.NumberOfNonEvacuees, statistics.MeanEvacuationTime)
		results = append(results, r)
	}
	return results, nil
}

// SweepSummary aggregates a sweep across seeds.
type SweepSummary struct {
	Runs              int
	RunsWithEvacuees  int
	MeanEvacuees      float64
	MeanNonEvacuees   float64
	MeanOfMeanTimes   float64
	MedianOfMeanTimes float64
	StdDevOfMeanTimes float64
	MeanOfMeanSteps   float64
}

func summarizeSweep(results []RunResult) SweepSummary {
	summary := SweepSummary{Runs: len(results)}
	if len(results) == 0 {
		return summary
	}
	evacuees := make([]int, len(results))
	nonEvacuees := make([]int, len(results))
	var meanTimes, meanSteps []float64
	for i, r := range results {
		evacuees[i] = r.Statistics.NumberOfEvacuees
		nonEvacuees[i] = r.Statistics.NumberOfNonEvacuees
		if r.Statistics.NumberOfEvacuees > 0 {
			meanTimes = append(meanTimes, r.Statistics.MeanEvacuationTime)
			meanSteps = append(meanSteps, r.Statistics.MeanSteps)
		}
	}
	summary.MeanEvacuees = stats.Mean(evacuees)
	summary.MeanNonEvacuees = stats.Mean(nonEvacuees)
	summary.RunsWithEvacuees = len(meanTimes)
	if len(meanTimes) > 0 {
		summary.MeanOfMeanTimes = stats.Mean(meanTimes)
		summary.MedianOfMeanTimes = stats.Median(meanTimes)
		summary.StdDevOfMeanTimes = stats.StdDev(meanTimes)
		summary.MeanOfMeanSteps = stats.Mean(meanSteps)
	}
	return summary
}

// Print displays the sweep summary.
func (s SweepSummary) Print() {
	fmt.Println("=== Sweep Summary ===")
	fmt.Printf("Runs                    : %d\n", s.Runs)
	fmt.Printf("Runs with evacuees      : %d\n", s.RunsWithEvacuees)
	fmt.Printf("Mean evacuees           : %.2f\n", s.MeanEvacuees)
	fmt.Printf("Mean non-evacuees       : %.2f\n", s.MeanNonEvacuees)
	if s.RunsWithEvacuees > 0 {
		fmt.Printf("Mean of mean times      : %.2f s\n", s.MeanOfMeanTimes)
		fmt.Printf("Median of mean times    : %.2f s\n", s.MedianOfMeanTimes)
		fmt.Printf("Std dev of mean times   : %.2f s\n", s.StdDevOfMeanTimes)
		fmt.Printf("Mean of mean steps      : %.2f\n", s.MeanOfMeanSteps)
	}
}

// scenarioLabel names the scenario being swept for the results table.
func scenarioLabel() string {
	if scenarioFilePath != "" {
		return strings.TrimSuffix(filepath.Base(scenarioFilePath), filepath.Ext(scenarioFilePath))
	}
	return scenarioName
}

func sweepLabel(now time.Time) string {
	return fmt.Sprintf("sweep-%s", now.UTC().Format("20060102T150405Z"))
}
