package fs

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/fresh/internal/adapters/digestcache"
	"go.trai.ch/fresh/internal/core/ports"
)

const (
	// WalkerNodeID is the unique identifier for the file walker Graft node.
	WalkerNodeID graft.ID = "adapter.fs.walker"
	// SourceWalkerNodeID is the unique identifier for the source walker Graft node.
	SourceWalkerNodeID graft.ID = "adapter.fs.source_walker"
	// ResolverNodeID is the unique identifier for the input resolver Graft node.
	ResolverNodeID graft.ID = "adapter.fs.resolver"
	// OracleNodeID is the unique identifier for the file oracle Graft node.
	OracleNodeID graft.ID = "adapter.fs.oracle"
	// VerifierNodeID is the unique identifier for the output verifier Graft node.
	VerifierNodeID graft.ID = "adapter.fs.verifier"
	// ManifestVerifierNodeID is the unique identifier for the source verifier Graft node.
	ManifestVerifierNodeID graft.ID = "adapter.fs.manifest_verifier"
)

func init() {
	// Walker Node (Concrete implementation needed by Resolver)
	graft.Register(graft.Node[*Walker]{
		ID:        WalkerNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (*Walker, error) {
			return NewWalker(), nil
		},
	})

	graft.Register(graft.Node[ports.SourceWalker]{
		ID:        SourceWalkerNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{WalkerNodeID},
		Run: func(ctx context.Context) (ports.SourceWalker, error) {
			return graft.Dep[*Walker](ctx)
		},
	})

	graft.Register(graft.Node[ports.InputResolver]{
		ID:        ResolverNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{WalkerNodeID},
		Run: func(ctx context.Context) (ports.InputResolver, error) {
			walker, err := graft.Dep[*Walker](ctx)
			if err != nil {
				return nil, err
			}
			return NewResolver(walker), nil
		},
	})

	graft.Register(graft.Node[ports.FileOracle]{
		ID:        OracleNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{digestcache.NodeID},
		Run: func(ctx context.Context) (ports.FileOracle, error) {
			cache, err := graft.Dep[ports.DigestCache](ctx)
			if err != nil {
				return nil, err
			}
			return NewOracle(cache), nil
		},
	})

	graft.Register(graft.Node[ports.OutputVerifier]{
		ID:        VerifierNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.OutputVerifier, error) {
			return NewVerifier(), nil
		},
	})

	graft.Register(graft.Node[ports.SourceVerifier]{
		ID:        ManifestVerifierNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.SourceVerifier, error) {
			return NewManifestVerifier(), nil
		},
	})
}
