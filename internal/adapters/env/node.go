package env

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/fresh/internal/core/ports"
)

// NodeID is the unique identifier for the environment lookup Graft node.
const NodeID graft.ID = "adapter.env"

func init() {
	graft.Register(graft.Node[ports.EnvLookup]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.EnvLookup, error) {
			return NewProcess(), nil
		},
	})
}
