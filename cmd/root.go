package cmd

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/evac-sim/evac-sim/sim"
	"github.com/evac-sim/evac-sim/sim/scenarios"
	"github.com/evac-sim/evac-sim/sim/trace"
)

var (
	// CLI flags shared by run, sweep and observe
	seed                 int64         // Seed for placement, shuffling, movement and random scenarios
	logLevel             string        // Log verbosity level
	scenarioName         string        // Built-in scenario name
	scenarioFilePath     string        // YAML scenario file; overrides scenarioName
	agentCount           int           // Pedestrians placed uniformly at random
	neighbourhood        string        // Movement neighbourhood
	floorField           string        // Floor field algorithm override
	secondsPerGeneration float64       // Simulated seconds per generation
	secondsTimeLimit     float64       // Simulated time budget in seconds
	maxGenerations       int           // Generation cap; 0 derives it from the time limit
	attractionBias       float64       // Pedestrian field attraction bias
	crowdRepulsion       float64       // Pedestrian crowd repulsion
	pace                 time.Duration // Sleep between generations

	// run-only flags
	traceOutPath string // Where to write the zstd-compressed evacuation trace
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "evac-sim",
	Short: "Floor-field cellular automaton for pedestrian evacuation",
}

// runCmd executes one evacuation using parameters from CLI flags
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one evacuation and print its statistics",
	Run: func(cmd *cobra.Command, args []string) {
		setupLogging()

		cfg := configFromFlags()
		if traceOutPath != "" {
			cfg.Trace = trace.LevelGenerations
		}
		automaton, err := buildAutomaton(cmd, seed, cfg)
		if err != nil {
			logrus.Fatalf("%v", err)
		}

		startTime := time.Now()
		automaton.Run(automaton.Config().GenerationLimit())
		logrus.Infof("Simulation wall time: %v", time.Since(startTime))

		statistics, err := automaton.ComputeStatistics()
		if err != nil && !errors.Is(err, sim.ErrNoEvacuees) {
			logrus.Fatalf("%v", err)
		}
		if err != nil {
			logrus.Warnf("Nobody reached an exit: %v", err)
		}
		statistics.Print()

		if traceOutPath != "" {
			if err := trace.WriteFile(traceOutPath, automaton.Trace()); err != nil {
				logrus.Fatalf("Failed to write trace: %v", err)
			}
			summary := trace.Summarize(automaton.Trace())
			logrus.Infof("Trace written to %s: %d generations, %d moves, peak %d exits at generation %d",
				traceOutPath, summary.Generations, summary.TotalMoves, summary.PeakExits, summary.PeakExitGeneration)
		}
	},
}

// setupLogging applies --log or exits on an unknown level.
func setupLogging() {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %s", logLevel)
	}
	logrus.SetLevel(level)
}

// configFromFlags builds the automaton configuration from the shared flags.
func configFromFlags() sim.Config {
	cfg := sim.DefaultConfig()
	cfg.Neighbourhood = sim.NeighbourhoodKind(neighbourhood)
	cfg.SecondsPerGeneration = secondsPerGeneration
	cfg.SecondsTimeLimit = secondsTimeLimit
	cfg.MaxGenerations = maxGenerations
	cfg.Pace = pace
	return cfg
}

// buildAutomaton assembles scenario, automaton and pedestrians for one seed.
// Values from a scenario file apply unless the matching flag was set explicitly.
func buildAutomaton(cmd *cobra.Command, runSeed int64, cfg sim.Config) (*sim.Automaton, error) {
	rng := sim.NewPartitionedRNG(sim.NewSimulationKey(runSeed))
	params := sim.PedestrianParams{FieldAttractionBias: attractionBias, CrowdRepulsion: crowdRepulsion}
	count := agentCount

	var (
		scenario *sim.Scenario
		file     *ScenarioFile
		err      error
	)
	if scenarioFilePath != "" {
		if file, err = LoadScenarioFile(scenarioFilePath); err != nil {
			return nil, err
		}
		if scenario, err = file.Build(); err != nil {
			return nil, err
		}
		if p := file.Pedestrians; p != nil {
			if !cmd.Flags().Changed("agents") {
				switch {
				case p.Uniform != nil:
					count = *p.Uniform
				case len(p.At) > 0:
					// explicit placements replace the random crowd
					count = 0
				}
			}
			if p.FieldAttractionBias != nil && !cmd.Flags().Changed("attraction-bias") {
				params.FieldAttractionBias = *p.FieldAttractionBias
			}
			if p.CrowdRepulsion != nil && !cmd.Flags().Changed("crowd-repulsion") {
				params.CrowdRepulsion = *p.CrowdRepulsion
			}
		}
	} else if scenario, err = scenarios.ByName(scenarioName, rng.ForSubsystem(sim.SubsystemScenario)); err != nil {
		return nil, err
	}

	if cmd.Flags().Changed("floor-field") {
		field := sim.FloorFieldConfig{Kind: sim.FloorFieldKind(floorField), Neighbourhood: cfg.Neighbourhood}
		if scenario, err = scenario.WithFloorField(field); err != nil {
			return nil, err
		}
	}

	automaton, err := sim.NewAutomaton(scenario, cfg, rng)
	if err != nil {
		return nil, err
	}
	if file != nil && file.Pedestrians != nil {
		for _, loc := range file.Pedestrians.At {
			if !automaton.AddPedestrian(sim.Location{Row: loc.Row, Column: loc.Column}, params) {
				return nil, fmt.Errorf("scenario file %s: cannot place pedestrian at (%d,%d)", scenarioFilePath, loc.Row, loc.Column)
			}
		}
	}
	if err := automaton.AddPedestriansUniformly(count, params); err != nil {
		return nil, err
	}
	return automaton, nil
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// registerSimFlags attaches the flags shared by every simulating subcommand.
func registerSimFlags(cmd *cobra.Command) {
	defaults := sim.DefaultConfig()
	params := sim.DefaultPedestrianParams()

	cmd.Flags().Int64Var(&seed, "seed", 42, "Seed for placement, shuffling, movement and random scenarios")
	cmd.Flags().StringVar(&logLevel, "log", "error", "Log level (trace, debug, info, warn, error, fatal, panic)")

	// Scenario
	cmd.Flags().StringVar(&scenarioName, "scenario", scenarios.SupermarketName, fmt.Sprintf("Built-in scenario %v", scenarios.Names()))
	cmd.Flags().StringVar(&scenarioFilePath, "scenario-file", "", "YAML scenario file (overrides --scenario)")
	cmd.Flags().StringVar(&floorField, "floor-field", "", "Override the scenario's floor field (manhattan, dijkstra); unset keeps the scenario's own")

	// Automaton
	cmd.Flags().IntVar(&agentCount, "agents", 150, "Number of pedestrians placed uniformly at random (0 by default when a scenario file lists pedestrians.at)")
	cmd.Flags().StringVar(&neighbourhood, "neighbourhood", string(defaults.Neighbourhood), "Movement neighbourhood (von-neumann, moore)")
	cmd.Flags().Float64Var(&secondsPerGeneration, "seconds-per-generation", defaults.SecondsPerGeneration, "Simulated seconds per generation")
	cmd.Flags().Float64Var(&secondsTimeLimit, "time-limit", defaults.SecondsTimeLimit, "Simulated time limit in seconds")
	cmd.Flags().IntVar(&maxGenerations, "max-generations", 0, "Generation cap (0 = time-limit / seconds-per-generation)")
	cmd.Flags().DurationVar(&pace, "pace", 0, "Wall-clock pause between generations")

	// Pedestrians
	cmd.Flags().Float64Var(&attractionBias, "attraction-bias", params.FieldAttractionBias, "Weight of the floor field in movement decisions")
	cmd.Flags().Float64Var(&crowdRepulsion, "crowd-repulsion", params.CrowdRepulsion, "Divisor applied to dead-end cells")
}

// init sets up CLI flags and subcommands
func init() {
	registerSimFlags(runCmd)
	runCmd.Flags().StringVar(&traceOutPath, "trace-out", "", "Write a zstd-compressed per-generation trace to this path")

	registerSimFlags(sweepCmd)
	sweepCmd.Flags().IntVar(&sweepRuns, "runs", 10, "Number of runs with consecutive seeds")
	sweepCmd.Flags().StringVar(&resultsPath, "results", "", "SQLite database receiving one row per run")

	registerSimFlags(observeCmd)
	observeCmd.Flags().StringVar(&observeAddr, "addr", "127.0.0.1:8089", "Listen address for the snapshot server")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(sweepCmd)
	rootCmd.AddCommand(observeCmd)
}
