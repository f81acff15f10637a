// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/fresh/internal/adapters/cas"
	_ "go.trai.ch/fresh/internal/adapters/compiler"
	_ "go.trai.ch/fresh/internal/adapters/config"
	_ "go.trai.ch/fresh/internal/adapters/digestcache"
	_ "go.trai.ch/fresh/internal/adapters/env"
	_ "go.trai.ch/fresh/internal/adapters/fs"
	_ "go.trai.ch/fresh/internal/adapters/logger"
	_ "go.trai.ch/fresh/internal/adapters/metrics"
	_ "go.trai.ch/fresh/internal/adapters/shell"
	_ "go.trai.ch/fresh/internal/adapters/telemetry"
	// Register app and engine nodes.
	_ "go.trai.ch/fresh/internal/app"
	_ "go.trai.ch/fresh/internal/engine/collector"
	_ "go.trai.ch/fresh/internal/engine/scheduler"
)
