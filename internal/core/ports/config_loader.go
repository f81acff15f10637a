package ports

import "go.trai.ch/fresh/internal/core/domain"

// ConfigLoader defines the interface for loading the unit graph.
//
//go:generate go run go.uber.org/mock/mockgen -source=config_loader.go -destination=mocks/mock_config_loader.go -package=mocks
type ConfigLoader interface {
	// Load reads the configuration found from the given working directory and returns the unit graph.
	Load(cwd string) (*domain.Graph, error)

	// DiscoverRoot walks up from cwd to find the directory containing fresh.yaml.
	DiscoverRoot(cwd string) (string, error)
}
