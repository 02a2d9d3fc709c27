// Package trace provides per-generation evacuation trace recording.
// It stores pure data types and has no dependencies on sim/.
package trace

// GenerationRecord captures the outcome of one generation.
type GenerationRecord struct {
	Generation int `json:"generation"`
	Live       int `json:"live"`      // agents inside after the generation
	Evacuated  int `json:"evacuated"` // agents that left during the generation
	Moved      int `json:"moved"`
	Stayed     int `json:"stayed"`    // no viable move or lost a claim
	Conflicts  int `json:"conflicts"` // chosen cell already claimed by an earlier agent
}

// ExitRecord captures a single evacuee.
type ExitRecord struct {
	AgentID    int64 `json:"agent_id"`
	Generation int   `json:"generation"`
	Steps      int   `json:"steps"`
	Row        int   `json:"row"`
	Column     int   `json:"column"`
}
