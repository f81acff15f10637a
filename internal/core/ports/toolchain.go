package ports

import (
	"context"

	"go.trai.ch/fresh/internal/core/domain"
)

// ToolchainProber identifies a compiler.
//
//go:generate go run go.uber.org/mock/mockgen -source=toolchain.go -destination=mocks/mock_toolchain.go -package=mocks
type ToolchainProber interface {
	// Probe runs the compiler's verbose self-identification and parses it.
	Probe(ctx context.Context, compiler string) (domain.Toolchain, error)
}
