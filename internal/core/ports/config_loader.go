package ports

import "go.trai.ch/jsbook/internal/core/domain"

// ConfigLoader defines the interface for loading configuration and notebooks.
//
//go:generate mockgen -source=config_loader.go -destination=mocks/mock_config_loader.go -package=mocks
type ConfigLoader interface {
	// Load walks up from cwd to find jsbook.yaml and returns the resolved configuration.
	// Defaults are returned when no file is found.
	Load(cwd string) (*domain.Config, error)

	// LoadNotebook reads and validates the notebook file at path.
	LoadNotebook(path string) (*domain.Notebook, error)
}
