package runtimeconfig

import (
	"errors"
	"strings"
)

var (
	ErrStorageDriverRequired = errors.New("review config: storage driver is required")
	ErrStorageDSNRequired    = errors.New("review config: storage dsn is required")
	ErrLoggingLevelInvalid   = errors.New("review config: logging level is invalid")
	ErrLoggingFormatInvalid  = errors.New("review config: logging format is invalid")
)

// Config aggregates feature flags and adapter bindings for the review module.
// Fields intentionally use simple types so host applications can extend them.
type Config struct {
	Enabled  bool
	Storage  StorageConfig
	Logging  LoggingConfig
	Review   ReviewConfig
	Features Features
}

// StorageConfig lists identifiers for storage-related dependencies.
type StorageConfig struct {
	Driver string
	DSN    string
}

// LoggingConfig captures provider-specific options for runtime logging.
type LoggingConfig struct {
	Level     string
	Format    string
	AddSource bool
	Focus     []string
}

// ReviewConfig wires review-engine options through the module wrapper.
type ReviewConfig struct {
	// Tables optionally overrides the built-in per-kind transition tables.
	Tables []ReviewTableConfig
	// StrictStatusCheck toggles the optimistic-concurrency precondition that
	// rejects updates whose old snapshot disagrees with the stored status.
	StrictStatusCheck bool
}

// ReviewTableConfig declares the transition tables for one entity kind.
type ReviewTableConfig struct {
	Kind  string
	Roles []ReviewRoleConfig
}

// ReviewRoleConfig composes one role's tables from named capability packs and
// explicit bulk transitions.
type ReviewRoleConfig struct {
	Role      string
	Allowed   []string
	Confirmed []string
	Bulk      []ReviewTransitionConfig
}

// ReviewTransitionConfig names a single from/to pair for bulk tables.
type ReviewTransitionConfig struct {
	From string
	To   string
}

// Features toggles module functionality.
type Features struct {
	Logger       bool
	Sync         bool
	Cache        bool
	StrictStatus bool
}

// Validate checks cross-field consistency. Table contents are validated when
// compiled by the workflow package.
func (c Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if strings.TrimSpace(c.Storage.Driver) == "" {
		return ErrStorageDriverRequired
	}
	if strings.TrimSpace(c.Storage.DSN) == "" {
		return ErrStorageDSNRequired
	}
	if err := c.Logging.validate(); err != nil {
		return err
	}
	return nil
}

func (l LoggingConfig) validate() error {
	switch strings.ToLower(strings.TrimSpace(l.Level)) {
	case "", "trace", "debug", "info", "warn", "warning", "error", "fatal":
	default:
		return ErrLoggingLevelInvalid
	}
	switch strings.ToLower(strings.TrimSpace(l.Format)) {
	case "", "json", "console", "pretty":
	default:
		return ErrLoggingFormatInvalid
	}
	return nil
}
