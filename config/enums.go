package config

// Specification of result cache backend.
// ENUM(memory, sqlite, off)
type CacheBackend int

// Persistent reports whether the backend survives process restarts.
func (b CacheBackend) Persistent() bool {
	return b == CacheBackendSqlite
}
