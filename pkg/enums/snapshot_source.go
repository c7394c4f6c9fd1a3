package enums

import "fmt"

// SnapshotSource records where a pricing snapshot came from.
type SnapshotSource string

const (
	// SnapshotSourceMigration marks snapshots imported from a legacy format.
	SnapshotSourceMigration SnapshotSource = "migration"
	// SnapshotSourceAuthoring marks snapshots produced live from a pricing author's input.
	SnapshotSourceAuthoring SnapshotSource = "authoring"
	// SnapshotSourceRebuild marks snapshots recomputed after invalidation.
	SnapshotSourceRebuild SnapshotSource = "rebuild"
)

var validSnapshotSources = []SnapshotSource{
	SnapshotSourceMigration,
	SnapshotSourceAuthoring,
	SnapshotSourceRebuild,
}

// String implements fmt.Stringer.
func (s SnapshotSource) String() string {
	return string(s)
}

// IsValid reports whether the value is a known SnapshotSource.
func (s SnapshotSource) IsValid() bool {
	for _, candidate := range validSnapshotSources {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseSnapshotSource converts raw input into a SnapshotSource.
func ParseSnapshotSource(value string) (SnapshotSource, error) {
	for _, candidate := range validSnapshotSources {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid snapshot source %q", value)
}

// SnapshotSources returns every recognized source, in declaration order.
func SnapshotSources() []SnapshotSource {
	out := make([]SnapshotSource, len(validSnapshotSources))
	copy(out, validSnapshotSources)
	return out
}
