package compiler

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/fresh/internal/core/ports"
)

const (
	// DepInfoNodeID is the unique identifier for the dep-info parser Graft node.
	DepInfoNodeID graft.ID = "adapter.compiler.depinfo"
	// BuildOutputNodeID is the unique identifier for the build-script output parser Graft node.
	BuildOutputNodeID graft.ID = "adapter.compiler.build_output"
	// ToolchainNodeID is the unique identifier for the toolchain prober Graft node.
	ToolchainNodeID graft.ID = "adapter.compiler.toolchain"
)

func init() {
	graft.Register(graft.Node[ports.DepInfoParser]{
		ID:        DepInfoNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.DepInfoParser, error) {
			return NewDepInfoParser(), nil
		},
	})

	graft.Register(graft.Node[ports.BuildOutputParser]{
		ID:        BuildOutputNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.BuildOutputParser, error) {
			return NewBuildOutputParser(), nil
		},
	})

	graft.Register(graft.Node[ports.ToolchainProber]{
		ID:        ToolchainNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.ToolchainProber, error) {
			return NewToolchainProber(), nil
		},
	})
}
