package history

// createTableSQL is the DDL for the migration tracking table; %s is the
// table name.
const createTableSQL = `CREATE TABLE IF NOT EXISTS %s (
    filename   TEXT PRIMARY KEY,
    applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`
