package warehouse

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5"

	"github.com/forestscape/soldmis/internal/platform/httpx"
)

const columnsQuery = `SELECT column_name FROM information_schema.columns WHERE table_schema = $1 AND table_name = $2`

// SchemaCache resolves and caches the column set of warehouse tables. A table
// is introspected at most once per process lifetime; the cached set is treated
// as immutable until restart. Concurrent first-time resolution of the same
// table may issue duplicate catalog queries, which is harmless: the results
// are identical and the last write wins.
type SchemaCache struct {
	exec       Executor
	schemaName string

	mu     sync.RWMutex
	tables map[string]map[string]string // table -> UPPER(column) -> physical column
}

// NewSchemaCache builds a cache resolving tables inside the given warehouse schema.
func NewSchemaCache(exec Executor, schemaName string) *SchemaCache {
	return &SchemaCache{
		exec:       exec,
		schemaName: schemaName,
		tables:     make(map[string]map[string]string),
	}
}

// Columns returns the upper-cased column-name set for table, resolving it from
// the catalog on first reference. A catalog failure, or a table the catalog
// knows nothing about, yields ErrSchemaUnavailable rather than an empty set.
func (c *SchemaCache) Columns(ctx context.Context, table string) (map[string]string, error) {
	c.mu.RLock()
	cached, ok := c.tables[table]
	c.mu.RUnlock()
	if ok {
		return cached, nil
	}

	rows, err := c.exec.Query(ctx, columnsQuery, []any{c.schemaName, table})
	if err != nil {
		return nil, fmt.Errorf("%w: resolve columns for %s.%s: %v", httpx.ErrSchemaUnavailable, c.schemaName, table, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: table %s.%s has no catalog entry", httpx.ErrSchemaUnavailable, c.schemaName, table)
	}

	cols := make(map[string]string, len(rows))
	for _, row := range rows {
		name := String(row["column_name"])
		if name == "" {
			continue
		}
		cols[strings.ToUpper(name)] = name
	}

	c.mu.Lock()
	c.tables[table] = cols
	c.mu.Unlock()
	return cols, nil
}

// Has reports whether table carries a column by that name, case-insensitively.
func (c *SchemaCache) Has(ctx context.Context, table, column string) (bool, error) {
	cols, err := c.Columns(ctx, table)
	if err != nil {
		return false, err
	}
	_, ok := cols[strings.ToUpper(column)]
	return ok, nil
}

// Pick returns the first candidate present in table's schema, preserving
// candidate order as the priority order. The returned name is the physical
// column name as stored in the catalog, suitable for quoting.
func (c *SchemaCache) Pick(ctx context.Context, table string, candidates ...string) (string, bool, error) {
	cols, err := c.Columns(ctx, table)
	if err != nil {
		return "", false, err
	}
	for _, candidate := range candidates {
		if physical, ok := cols[strings.ToUpper(candidate)]; ok {
			return physical, true, nil
		}
	}
	return "", false, nil
}

// Table returns the schema-qualified, quoted table reference.
func (c *SchemaCache) Table(table string) string {
	return pgx.Identifier{c.schemaName, table}.Sanitize()
}

// QuoteIdent quotes a single identifier for safe interpolation. Identifiers
// reaching this point always originate from the resolved schema set or from
// configuration, never from caller input.
func QuoteIdent(name string) string {
	return pgx.Identifier{name}.Sanitize()
}
