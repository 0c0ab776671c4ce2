// Package sqlbundle exposes the entity-model DDL bundles to the persistence
// adapters, with a splitter for drivers that execute one statement at a time.
package sqlbundle

import (
	"strings"

	sqldocs "rostercore/docs/schema/sql"
)

// SQLite returns the SQLite DDL for the entity model.
func SQLite() string {
	return sqldocs.SQLite
}

// Postgres returns the Postgres DDL for the entity model.
func Postgres() string {
	return sqldocs.Postgres
}

// SplitStatements splits a semicolon-terminated DDL script into executable
// statements. Blank lines and "--" comment lines are dropped; a trailing
// statement without a terminator is kept.
func SplitStatements(ddl string) []string {
	var stmts []string
	var current []string

	for _, line := range strings.Split(ddl, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "--") {
			continue
		}
		current = append(current, line)
		if strings.HasSuffix(trimmed, ";") {
			stmts = append(stmts, strings.TrimSpace(strings.Join(current, "\n")))
			current = current[:0]
		}
	}

	if tail := strings.TrimSpace(strings.Join(current, "\n")); tail != "" {
		stmts = append(stmts, tail)
	}

	return stmts
}
