package transport

import (
	"fmt"
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v6"
)

// splitStatements parses sql with the PostgreSQL parser and returns the text
// of each statement plus whether any of them is a CREATE INDEX CONCURRENTLY.
func splitStatements(sql string) ([]string, bool, error) {
	tree, err := pg_query.Parse(sql)
	if err != nil {
		return nil, false, fmt.Errorf("parsing SQL: %w", err)
	}

	stmts := make([]string, 0, len(tree.Stmts))
	concurrent := false

	for _, raw := range tree.Stmts {
		stmts = append(stmts, statementText(sql, raw))

		node, ok := raw.Stmt.Node.(*pg_query.Node_IndexStmt)
		if ok && node.IndexStmt != nil && node.IndexStmt.Concurrent {
			concurrent = true
		}
	}

	return stmts, concurrent, nil
}

// statementText slices the original SQL by the parser's statement offsets.
// A zero StmtLen marks the final statement, which extends to end of input.
// The parser's offsets exclude the separating semicolon, so any trailing one
// is trimmed for consistency.
func statementText(sql string, raw *pg_query.RawStmt) string {
	start := int(raw.StmtLocation)
	if start < 0 || start > len(sql) {
		start = 0
	}

	end := len(sql)
	if raw.StmtLen > 0 && start+int(raw.StmtLen) <= len(sql) {
		end = start + int(raw.StmtLen)
	}

	stmt := strings.TrimSpace(sql[start:end])

	return strings.TrimSpace(strings.TrimSuffix(stmt, ";"))
}
