package app

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/fresh/internal/adapters/cas"         //nolint:depguard // Wired in app layer
	"go.trai.ch/fresh/internal/adapters/config"      //nolint:depguard // Wired in app layer
	"go.trai.ch/fresh/internal/adapters/digestcache" //nolint:depguard // Wired in app layer
	"go.trai.ch/fresh/internal/adapters/fs"          //nolint:depguard // Wired in app layer
	"go.trai.ch/fresh/internal/adapters/logger"      //nolint:depguard // Wired in app layer
	"go.trai.ch/fresh/internal/adapters/metrics"     //nolint:depguard // Wired in app layer
	"go.trai.ch/fresh/internal/core/ports"
	"go.trai.ch/fresh/internal/engine/collector"
	"go.trai.ch/fresh/internal/engine/scheduler"
)

const (
	// AppNodeID is the unique identifier for the main App Graft node.
	AppNodeID graft.ID = "app.main"
	// ComponentsNodeID is the unique identifier for the App components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

// Components contains all the initialized application components.
// This struct provides controlled access to components needed by the CLI layer.
type Components struct {
	App    *App
	Logger ports.Logger
}

func init() {
	graft.Register(graft.Node[*App]{
		ID:        AppNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			config.NodeID,
			config.SettingsNodeID,
			scheduler.NodeID,
			collector.NodeID,
			cas.NodeID,
			fs.VerifierNodeID,
			fs.ManifestVerifierNodeID,
			digestcache.NodeID,
			logger.NodeID,
			metrics.NodeID,
		},
		Run: runAppNode,
	})

	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			AppNodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (*Components, error) {
			a, err := graft.Dep[*App](ctx)
			if err != nil {
				return nil, err
			}

			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}

			return &Components{App: a, Logger: log}, nil
		},
	})
}

func runAppNode(ctx context.Context) (*App, error) {
	loader, err := graft.Dep[ports.ConfigLoader](ctx)
	if err != nil {
		return nil, err
	}

	settings, err := graft.Dep[*config.SettingsLoader](ctx)
	if err != nil {
		return nil, err
	}

	sched, err := graft.Dep[*scheduler.Scheduler](ctx)
	if err != nil {
		return nil, err
	}

	c, err := graft.Dep[*collector.Collector](ctx)
	if err != nil {
		return nil, err
	}

	store, err := graft.Dep[ports.FingerprintStore](ctx)
	if err != nil {
		return nil, err
	}

	outputs, err := graft.Dep[ports.OutputVerifier](ctx)
	if err != nil {
		return nil, err
	}

	sources, err := graft.Dep[ports.SourceVerifier](ctx)
	if err != nil {
		return nil, err
	}

	digests, err := graft.Dep[ports.DigestCache](ctx)
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

	return New(loader, settings, sched, c, store, outputs, sources, digests, log, m), nil
}
