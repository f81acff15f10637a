package collector

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/fresh/internal/adapters/compiler" //nolint:depguard // Wired in engine wiring
	"go.trai.ch/fresh/internal/adapters/env"      //nolint:depguard // Wired in engine wiring
	"go.trai.ch/fresh/internal/adapters/fs"       //nolint:depguard // Wired in engine wiring
	"go.trai.ch/fresh/internal/core/ports"
)

// NodeID is the unique identifier for the collector Graft node.
const NodeID graft.ID = "engine.collector"

func init() {
	graft.Register(graft.Node[*Collector]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			fs.ResolverNodeID,
			fs.SourceWalkerNodeID,
			fs.OracleNodeID,
			compiler.ToolchainNodeID,
			compiler.DepInfoNodeID,
			compiler.BuildOutputNodeID,
			env.NodeID,
		},
		Run: runCollectorNode,
	})
}

func runCollectorNode(ctx context.Context) (*Collector, error) {
	resolver, err := graft.Dep[ports.InputResolver](ctx)
	if err != nil {
		return nil, err
	}

	walker, err := graft.Dep[ports.SourceWalker](ctx)
	if err != nil {
		return nil, err
	}

	oracle, err := graft.Dep[ports.FileOracle](ctx)
	if err != nil {
		return nil, err
	}

	toolchain, err := graft.Dep[ports.ToolchainProber](ctx)
	if err != nil {
		return nil, err
	}

	depInfo, err := graft.Dep[ports.DepInfoParser](ctx)
	if err != nil {
		return nil, err
	}

	buildOut, err := graft.Dep[ports.BuildOutputParser](ctx)
	if err != nil {
		return nil, err
	}

	lookup, err := graft.Dep[ports.EnvLookup](ctx)
	if err != nil {
		return nil, err
	}

	return New(resolver, walker, oracle, toolchain, depInfo, buildOut, lookup), nil
}
