package cmd

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/evac-sim/evac-sim/sim"
)

//go:embed scenario.schema.json
var scenarioSchemaText string

var scenarioSchema = jsonschema.MustCompileString("scenario.schema.json", scenarioSchemaText)

// ScenarioFile is the YAML description of a custom scenario.
// All top-level sections must be listed to satisfy KnownFields(true) strict parsing.
type ScenarioFile struct {
	Name        string           `yaml:"name"`
	Rows        int              `yaml:"rows"`
	Columns     int              `yaml:"columns"`
	CellSide    float64          `yaml:"cell_side"`
	FloorField  *FloorFieldSpec  `yaml:"floor_field"`
	Exits       []RectangleSpec  `yaml:"exits"`
	Blocks      []RectangleSpec  `yaml:"blocks"`
	Pedestrians *PedestriansSpec `yaml:"pedestrians"`
}

// FloorFieldSpec selects the floor field of a scenario file.
type FloorFieldSpec struct {
	Kind          string `yaml:"kind"`
	Neighbourhood string `yaml:"neighbourhood"`
}

// RectangleSpec is a region in cell units, anchored at its bottom-left cell.
type RectangleSpec struct {
	Bottom int `yaml:"bottom"`
	Left   int `yaml:"left"`
	Height int `yaml:"height"`
	Width  int `yaml:"width"`
}

// LocationSpec is a cell coordinate.
type LocationSpec struct {
	Row    int `yaml:"row"`
	Column int `yaml:"column"`
}

// PedestriansSpec places pedestrians; unset fields fall back to the CLI flags, except that a
// non-empty At without Uniform places no random pedestrians unless --agents is given.
type PedestriansSpec struct {
	Uniform             *int           `yaml:"uniform"`
	At                  []LocationSpec `yaml:"at"`
	FieldAttractionBias *float64       `yaml:"field_attraction_bias"`
	CrowdRepulsion      *float64       `yaml:"crowd_repulsion"`
}

// LoadScenarioFile reads and validates a scenario file.
func LoadScenarioFile(path string) (*ScenarioFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario file: %w", err)
	}
	return ParseScenarioFile(data)
}

// ParseScenarioFile validates data against the embedded JSON schema, then decodes it with
// strict field checking so typos are rejected.
func ParseScenarioFile(data []byte) (*ScenarioFile, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse scenario YAML: %w", err)
	}
	// Round-trip through JSON so the validator sees JSON-native types.
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("convert scenario to JSON: %w", err)
	}
	var instance any
	if err := json.Unmarshal(raw, &instance); err != nil {
		return nil, fmt.Errorf("convert scenario to JSON: %w", err)
	}
	if err := scenarioSchema.Validate(instance); err != nil {
		return nil, fmt.Errorf("scenario file does not match schema: %w", err)
	}

	var file ScenarioFile
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&file); err != nil {
		return nil, fmt.Errorf("parse scenario YAML: %w", err)
	}
	return &file, nil
}

// Build creates the scenario. Geometric errors (out of bounds, exit/block overlap) surface here.
func (f *ScenarioFile) Build() (*sim.Scenario, error) {
	var field sim.FloorFieldConfig
	if f.FloorField != nil {
		field = sim.FloorFieldConfig{
			Kind:          sim.FloorFieldKind(f.FloorField.Kind),
			Neighbourhood: sim.NeighbourhoodKind(f.FloorField.Neighbourhood),
		}
	}
	s, err := sim.NewScenario(f.Rows, f.Columns, f.CellSide, field)
	if err != nil {
		return nil, fmt.Errorf("scenario %q: %w", f.Name, err)
	}
	for _, r := range f.Exits {
		if err := s.AddExit(r.rectangle()); err != nil {
			return nil, fmt.Errorf("scenario %q: %w", f.Name, err)
		}
	}
	for _, r := range f.Blocks {
		if err := s.AddBlock(r.rectangle()); err != nil {
			return nil, fmt.Errorf("scenario %q: %w", f.Name, err)
		}
	}
	return s, nil
}

func (r RectangleSpec) rectangle() sim.Rectangle {
	return sim.Rectangle{Bottom: r.Bottom, Left: r.Left, Height: r.Height, Width: r.Width}
}
