package config

// ChangeSet describes what changed between two configs. Only fields that can
// be applied without a restart are tracked; everything else requires a
// redeploy and is deliberately ignored here.
type ChangeSet struct {
	// LogLevelChanged is set when server.log_level changed; NewLogLevel
	// holds the value to apply.
	LogLevelChanged bool
	NewLogLevel     LogLevel

	// FallbackOnlyChanged is set when domain.fallback_only flipped;
	// NewFallbackOnly holds the value to apply to future sessions.
	FallbackOnlyChanged bool
	NewFallbackOnly     bool

	// CatalogPathChanged is set when domain.catalog_path moved, signalling
	// a catalog reload.
	CatalogPathChanged bool
	NewCatalogPath     string
}

// Empty reports whether the change set carries no applicable change.
func (c ChangeSet) Empty() bool {
	return !c.LogLevelChanged && !c.FallbackOnlyChanged && !c.CatalogPathChanged
}

// Diff compares old and new configs and returns the hot-applicable changes.
func Diff(old, new *Config) ChangeSet {
	var c ChangeSet

	if old.Server.LogLevel != new.Server.LogLevel {
		c.LogLevelChanged = true
		c.NewLogLevel = new.Server.LogLevel
	}
	if old.Domain.FallbackOnly != new.Domain.FallbackOnly {
		c.FallbackOnlyChanged = true
		c.NewFallbackOnly = new.Domain.FallbackOnly
	}
	if old.Domain.CatalogPath != new.Domain.CatalogPath {
		c.CatalogPathChanged = true
		c.NewCatalogPath = new.Domain.CatalogPath
	}
	return c
}
