package bot

import (
	"log/slog"

	"github.com/sglre6355/vaneta/internal/plugin"
	"github.com/sglre6355/vaneta/internal/store"
)

// ModuleDependencies provides dependencies that modules may need during initialization.
type ModuleDependencies struct {
	// Store is nil when persistence is disabled.
	Store  store.Store
	Logger *slog.Logger
}

// Module defines the interface that all bot modules must implement.
// A module contributes compiled-in handlers that plugin descriptors bind to
// by name.
type Module interface {
	// Name returns the unique identifier for this module.
	Name() string

	// Handlers returns the command, context and event handlers this module provides.
	Handlers() plugin.Handlers

	// Init initializes the module with the provided dependencies.
	Init(deps ModuleDependencies) error

	// Shutdown gracefully shuts down the module.
	Shutdown() error
}

// ConfigurableModule is an optional interface for modules that need configuration.
// Modules implementing this interface will have LoadConfig called before Init.
type ConfigurableModule interface {
	// LoadConfig loads and validates module-specific configuration.
	// Called before Init() and before Discord connection is established.
	// Should return an error if required configuration is missing or invalid.
	LoadConfig() error
}
