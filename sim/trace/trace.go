package trace

// Level controls the verbosity of evacuation tracing.
type Level string

const (
	// LevelNone disables tracing (zero overhead).
	LevelNone Level = "none"
	// LevelGenerations captures one record per generation and one per evacuee.
	LevelGenerations Level = "generations"
)

// validLevels maps accepted trace level strings.
var validLevels = map[Level]bool{
	LevelNone:        true,
	LevelGenerations: true,
	"":               true, // empty defaults to none
}

// IsValidLevel returns true if the given level string is a recognized trace level.
func IsValidLevel(level string) bool {
	return validLevels[Level(level)]
}

// Enabled reports whether records should be collected at this level.
func (l Level) Enabled() bool {
	return l == LevelGenerations
}

// SimulationTrace collects records during an evacuation run.
type SimulationTrace struct {
	Level       Level
	Seed        int64
	Generations []GenerationRecord
	Exits       []ExitRecord
}

// NewSimulationTrace creates a SimulationTrace ready for recording.
func NewSimulationTrace(level Level, seed int64) *SimulationTrace {
	return &SimulationTrace{
		Level:       level,
		Seed:        seed,
		Generations: make([]GenerationRecord, 0),
		Exits:       make([]ExitRecord, 0),
	}
}

// RecordGeneration appends a generation record.
func (st *SimulationTrace) RecordGeneration(record GenerationRecord) {
	st.Generations = append(st.Generations, record)
}

// RecordExit appends an exit record.
func (st *SimulationTrace) RecordExit(record ExitRecord) {
	st.Exits = append(st.Exits, record)
}
