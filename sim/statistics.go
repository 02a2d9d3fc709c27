package sim

import (
	"fmt"

	"github.com/evac-sim/evac-sim/sim/stats"
)

// Statistics summarizes an evacuation run. Times are in seconds
// (exit generation x seconds per generation).
type Statistics struct {
	NumberOfEvacuees    int `json:"number_of_evacuees"`
	NumberOfNonEvacuees int `json:"number_of_non_evacuees"`
	Generations         int `json:"generations"`

	MeanSteps   float64 `json:"mean_steps"`
	MedianSteps float64 `json:"median_steps"`
	StdDevSteps float64 `json:"stddev_steps"`

	MeanEvacuationTime   float64 `json:"mean_evacuation_time"`
	MedianEvacuationTime float64 `json:"median_evacuation_time"`
	StdDevEvacuationTime float64 `json:"stddev_evacuation_time"`
	P90EvacuationTime    float64 `json:"p90_evacuation_time"`
	MinEvacuationTime    float64 `json:"min_evacuation_time"`
	MaxEvacuationTime    float64 `json:"max_evacuation_time"`
}

// ComputeStatistics summarizes the evacuated pedestrians. When nobody evacuated it returns
// the counts only, together with ErrNoEvacuees.
func (a *Automaton) ComputeStatistics() (Statistics, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	st := Statistics{
		NumberOfEvacuees:    len(a.completed),
		NumberOfNonEvacuees: len(a.live),
		Generations:         a.generation,
	}
	if len(a.completed) == 0 {
		return st, fmt.Errorf("compute statistics after %d generations: %w", a.generation, ErrNoEvacuees)
	}

	steps := make([]int, len(a.completed))
	times := make([]float64, len(a.completed))
	for i, p := range a.completed {
		steps[i] = p.Steps
		times[i] = float64(p.ExitGeneration) * a.config.SecondsPerGeneration
	}

	st.MeanSteps = stats.Mean(steps)
	st.MedianSteps = stats.Median(steps)
	st.StdDevSteps = stats.StdDev(steps)
	st.MeanEvacuationTime = stats.Mean(times)
	st.MedianEvacuationTime = stats.Median(times)
	st.StdDevEvacuationTime = stats.StdDev(times)
	st.P90EvacuationTime = stats.Percentile(times, 90)
	st.MinEvacuationTime = stats.Min(times)
	st.MaxEvacuationTime = stats.Max(times)
	return st, nil
}

// Print displays the statistics at the end of a run.
func (s Statistics) Print() {
	fmt.Println("=== Evacuation Statistics ===")
	fmt.Printf("Evacuees               : %d\n", s.NumberOfEvacuees)
	fmt.Printf("Non-evacuees           : %d\n", s.NumberOfNonEvacuees)
	fmt.Printf("Generations            : %d\n", s.Generations)
	if s.NumberOfEvacuees > 0 {
		fmt.Printf("Mean steps             : %.2f\n", s.MeanSteps)
		fmt.Printf("Median steps           : %.2f\n", s.MedianSteps)
		fmt.Printf("Mean evacuation time   : %.2f s\n", s.MeanEvacuationTime)
		fmt.Printf("Median evacuation time : %.2f s\n", s.MedianEvacuationTime)
		fmt.Printf("P90 evacuation time    : %.2f s\n", s.P90EvacuationTime)
		fmt.Printf("Evacuation time range  : [%.2f, %.2f] s\n", s.MinEvacuationTime, s.MaxEvacuationTime)
	}
}
