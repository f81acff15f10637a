package scheduler

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/fresh/internal/adapters/logger"    //nolint:depguard // Wired in engine wiring
	"go.trai.ch/fresh/internal/adapters/metrics"   //nolint:depguard // Wired in engine wiring
	"go.trai.ch/fresh/internal/adapters/shell"     //nolint:depguard // Wired in engine wiring
	"go.trai.ch/fresh/internal/adapters/telemetry" //nolint:depguard // Wired in engine wiring
	"go.trai.ch/fresh/internal/core/ports"
)

// NodeID is the unique identifier for the scheduler Graft node.
const NodeID graft.ID = "engine.scheduler"

func init() {
	graft.Register(graft.Node[*Scheduler]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			shell.NodeID,
			telemetry.TracerNodeID,
			logger.NodeID,
			metrics.NodeID,
		},
		Run: func(ctx context.Context) (*Scheduler, error) {
			executor, err := graft.Dep[ports.Executor](ctx)
			if err != nil {
				return nil, err
			}

			tracer, err := graft.Dep[ports.Tracer](ctx)
			if err != nil {
				return nil, err
			}

			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}

			m, err := graft.Dep[ports.Metrics](ctx)
			if err != nil {
				return nil, err
			}

			return NewScheduler(executor, tracer, log, m), nil
		},
	})
}
