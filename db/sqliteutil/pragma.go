package sqliteutil

import (
	"fmt"
	"strings"
)

// EnsurePragmas appends SQLite pragmas to the DSN when missing.
// It is a no-op for in-memory databases.
func EnsurePragmas(dsn string, wal bool, busyTimeoutMS int) string {
	if dsn == "" || IsMemory(dsn) {
		return dsn
	}
	lower := strings.ToLower(dsn)
	if wal && !strings.Contains(lower, "_pragma=journal_mode") {
		dsn = addParam(dsn, "_pragma", "journal_mode(WAL)")
	}
	if busyTimeoutMS > 0 && !strings.Contains(lower, "_pragma=busy_timeout") {
		dsn = addParam(dsn, "_pragma", fmt.Sprintf("busy_timeout(%d)", busyTimeoutMS))
	}
	if !strings.Contains(lower, "_pragma=foreign_keys") {
		dsn = addParam(dsn, "_pragma", "foreign_keys(1)")
	}
	return dsn
}

// EnsureImmediateTx makes write transactions take the database lock at BEGIN,
// so concurrent read-then-write transactions serialize instead of failing on upgrade.
func EnsureImmediateTx(dsn string) string {
	if dsn == "" || strings.Contains(strings.ToLower(dsn), "_txlock=") {
		return dsn
	}
	return addParam(dsn, "_txlock", "immediate")
}

// IsMemory reports whether the DSN points at an in-memory database.
func IsMemory(dsn string) bool {
	lower := strings.ToLower(dsn)
	return dsn == ":memory:" || strings.HasPrefix(lower, "file::memory:") || strings.Contains(lower, "mode=memory")
}

func addParam(dsn, key, value string) string {
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + key + "=" + value
}
