// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/jsbook/internal/adapters/config"
	_ "go.trai.ch/jsbook/internal/adapters/fetch"
	_ "go.trai.ch/jsbook/internal/adapters/logger"
	_ "go.trai.ch/jsbook/internal/adapters/telemetry"
	// Register app nodes.
	_ "go.trai.ch/jsbook/internal/app"
)
