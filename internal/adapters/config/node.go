package config

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/fresh/internal/adapters/logger"
	"go.trai.ch/fresh/internal/core/ports"
)

const (
	// NodeID is the unique identifier for the config loader Graft node.
	NodeID graft.ID = "adapter.config_loader"
	// SettingsNodeID is the unique identifier for the settings loader Graft node.
	SettingsNodeID graft.ID = "adapter.settings"
)

func init() {
	graft.Register(graft.Node[ports.ConfigLoader]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{logger.NodeID},
		Run: func(ctx context.Context) (ports.ConfigLoader, error) {
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return NewLoader(log), nil
		},
	})

	graft.Register(graft.Node[*SettingsLoader]{
		ID:        SettingsNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (*SettingsLoader, error) {
			return NewSettingsLoader(), nil
		},
	})
}
