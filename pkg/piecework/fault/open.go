package fault

import (
	"fmt"
	"strconv"
	"strings"
)

// Open returns the store described by dsn: "" or "memory" gives a
// MemoryStore, "memory:N" a ring of N entries, anything else is a SQLite path.
func Open(dsn string) (Store, error) {
	switch {
	case dsn == "" || dsn == "memory":
		return NewMemoryStore(DefaultMemoryCapacity), nil
	case strings.HasPrefix(dsn, "memory:"):
		n, err := strconv.Atoi(strings.TrimPrefix(dsn, "memory:"))
		if err != nil {
			return nil, fmt.Errorf("parse memory capacity: %w", err)
		}
		return NewMemoryStore(n), nil
	default:
		return NewSQLiteStore(dsn)
	}
}
