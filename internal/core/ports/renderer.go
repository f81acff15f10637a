package ports

import (
	"time"

	"go.trai.ch/fresh/internal/core/domain"
)

// Renderer presents verdicts and build progress.
//
//go:generate go run go.uber.org/mock/mockgen -source=renderer.go -destination=mocks/mock_renderer.go -package=mocks
type Renderer interface {
	// OnPlan is called once with the units of the run in execution order.
	OnPlan(units []string)

	// OnVerdict is called after a unit was checked.
	OnVerdict(unit string, v domain.Verdict)

	// OnUnitLog is called with output of a running build command.
	OnUnitLog(unit string, data []byte)

	// OnUnitComplete is called when a unit's build and commit finished.
	OnUnitComplete(unit string, elapsed time.Duration, err error)

	// Flush writes any buffered output.
	Flush() error
}
