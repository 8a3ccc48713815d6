package config

const (
	// MaxObjectNameLength is the maximum length for file, folder and
	// shortcut names. Limited to 255 to fit in PostgreSQL VARCHAR(255) and
	// provide reasonable UX (names should be short and descriptive).
	MaxObjectNameLength = 255

	// MaxHierarchySearchDepth bounds every parent-pointer walk and subtree
	// enumeration. The tree invariant makes cycles impossible, but a
	// corrupted store must surface a broken-hierarchy error rather than
	// loop, so all traversals cut off here.
	MaxHierarchySearchDepth = 100

	// DefaultQuotaLimitBytes is the storage limit provisioned on a user's
	// first write: 10 GiB.
	DefaultQuotaLimitBytes = int64(10) * 1024 * 1024 * 1024
)
