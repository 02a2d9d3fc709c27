package sim

import "errors"

var (
	// ErrInvalidDimension is returned for non-positive grid sizes, cell sizes or negative extents.
	ErrInvalidDimension = errors.New("invalid dimension")
	// ErrOutOfBounds is returned when a region does not fit inside the scenario.
	ErrOutOfBounds = errors.New("region out of bounds")
	// ErrOverlappingRegion is returned when an exit and a block would share a cell.
	ErrOverlappingRegion = errors.New("exit and block regions overlap")
	// ErrScenarioFrozen is returned when a scenario is modified after its floor field was initialized.
	ErrScenarioFrozen = errors.New("scenario is frozen")
	// ErrNoEvacuees is returned by ComputeStatistics when nobody reached an exit.
	ErrNoEvacuees = errors.New("no evacuees")
	// ErrInvalidConfig wraps every configuration validation failure.
	ErrInvalidConfig = errors.New("invalid config")
)
