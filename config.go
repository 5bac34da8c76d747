package review

import "github.com/goliatone/go-review/internal/runtimeconfig"

// Config aggregates feature flags and adapter bindings for the review module.
type Config = runtimeconfig.Config

// StorageConfig lists identifiers for storage-related dependencies.
type StorageConfig = runtimeconfig.StorageConfig

// LoggingConfig captures provider-specific options for runtime logging.
type LoggingConfig = runtimeconfig.LoggingConfig

// ReviewConfig wires review-engine options through the module wrapper.
type ReviewConfig = runtimeconfig.ReviewConfig

// TableConfig declares the transition tables for one entity kind.
type TableConfig = runtimeconfig.ReviewTableConfig

// RoleConfig composes one role's tables from named capability packs and
// explicit bulk transitions.
type RoleConfig = runtimeconfig.ReviewRoleConfig

// TransitionConfig names a single from/to pair for bulk tables.
type TransitionConfig = runtimeconfig.ReviewTransitionConfig

// Features toggles module functionality.
type Features = runtimeconfig.Features
