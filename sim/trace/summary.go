package trace

// TraceSummary aggregates statistics from a SimulationTrace.
type TraceSummary struct {
	Generations        int
	TotalEvacuated     int
	TotalMoves         int
	TotalConflicts     int
	PeakExits          int     // most evacuees in a single generation
	PeakExitGeneration int     // first generation reaching PeakExits
	MeanMovedFraction  float64 // mean of moved / (moved + stayed) over generations with agents
	ExitsByCell        map[[2]int]int
}

// Summarize computes aggregate statistics from a SimulationTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(st *SimulationTrace) *TraceSummary {
	summary := &TraceSummary{
		ExitsByCell: make(map[[2]int]int),
	}
	if st == nil {
		return summary
	}

	summary.Generations = len(st.Generations)
	fractionSum, fractionCount := 0.0, 0
	for _, g := range st.Generations {
		summary.TotalEvacuated += g.Evacuated
		summary.TotalMoves += g.Moved
		summary.TotalConflicts += g.Conflicts
		if g.Evacuated > summary.PeakExits {
			summary.PeakExits = g.Evacuated
			summary.PeakExitGeneration = g.Generation
		}
		if active := g.Moved + g.Stayed; active > 0 {
			fractionSum += float64(g.Moved) / float64(active)
			fractionCount++
		}
	}
	if fractionCount > 0 {
		summary.MeanMovedFraction = fractionSum / float64(fractionCount)
	}

	for _, e := range st.Exits {
		summary.ExitsByCell[[2]int{e.Row, e.Column}]++
	}

	return summary
}
