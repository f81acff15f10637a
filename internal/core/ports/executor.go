// Package ports defines the core interfaces for the application.
package ports

import (
	"context"
	"io"

	"go.trai.ch/fresh/internal/core/domain"
)

// Executor defines the interface for running a unit's build command.
//
//go:generate go run go.uber.org/mock/mockgen -source=executor.go -destination=mocks/mock_executor.go -package=mocks
type Executor interface {
	// Execute runs the unit's command in its package root.
	//
	// The env parameter contains additional variables in "KEY=VALUE" format
	// that are layered over the allowed parts of the process environment.
	//
	// It returns an error if the command cannot be started or exits non-zero.
	Execute(ctx context.Context, unit *domain.Unit, env []string, stdout, stderr io.Writer) error
}
