package schema

// Custom string types for type safety.
type (
	// OutputMode represents the format of the output.
	OutputMode string

	// DatabaseBackend represents the database backend for caching and history.
	DatabaseBackend string

	// GitBackend represents the implementation used to clone repositories.
	GitBackend string

	// RunStatus represents the final state of a recorded analysis run.
	RunStatus string

	// Role identifies the author of a chat message.
	Role string
)

// All output modes supported.
const (
	TextOut OutputMode = "text" // default
	JSONOut OutputMode = "json"
	CSVOut  OutputMode = "csv"
)

// All database backends supported.
const (
	MemoryBackend     DatabaseBackend = "memory" // default for the memo cache
	SQLiteBackend     DatabaseBackend = "sqlite"
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none"
)

// All git backends supported.
const (
	GoGitBackend GitBackend = "gogit" // default
	CLIBackend   GitBackend = "cli"
)

// All run statuses recorded in history.
const (
	RunSuccess RunStatus = "success"
	RunFailed  RunStatus = "failed"
)

// Chat roles.
const (
	UserRole      Role = "user"
	AssistantRole Role = "assistant"
)

// Sentinels used in place of absent values.
const (
	ReadmeNotFound = "No README file found."
	NotAvailable   = "N/A"
)

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	TextOut: {},
	JSONOut: {},
	CSVOut:  {},
}

// ValidCacheBackends lists all valid memo cache backends.
var ValidCacheBackends = map[DatabaseBackend]struct{}{
	MemoryBackend:     {},
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

// ValidHistoryBackends lists all valid run history backends.
var ValidHistoryBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

// ValidGitBackends lists all valid git backends.
var ValidGitBackends = map[GitBackend]struct{}{
	GoGitBackend: {},
	CLIBackend:   {},
}
