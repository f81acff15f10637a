package digestcache

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/fresh/internal/core/ports"
)

// NodeID is the unique identifier for the digest cache Graft node.
const NodeID graft.ID = "adapter.digest_cache"

func init() {
	graft.Register(graft.Node[ports.DigestCache]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.DigestCache, error) {
			return New(), nil
		},
	})
}
