// Package testutil provides an in-memory stub database for postgres store tests.
// It records normalized statements and keeps inserted rows per table so tests
// can assert on what the snapshotting store wrote without a live server.
package testutil

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"io"
	"strings"
	"sync/atomic"
)

// StubConn records normalized statements for the postgres store during tests.
type StubConn struct {
	Execs      []string
	Tables     map[string][]map[string]any
	FailExec   bool
	FailBegin  bool
	RowsErr    error
	FailTables map[string]bool
	FailCommit bool
}

var stubSeq atomic.Int64

// NewStubDB registers a sql.DB backed by an in-memory stub connection. Each
// call registers under a fresh driver name so parallel tests never collide.
func NewStubDB() (*sql.DB, *StubConn) {
	conn := &StubConn{Tables: make(map[string][]map[string]any)}
	name := fmt.Sprintf("stubpg-%d", stubSeq.Add(1))
	sql.Register(name, stubDriver{conn: conn})
	db, err := sql.Open(name, "stub")
	if err != nil {
		panic(err)
	}
	return db, conn
}

type stubDriver struct {
	conn *StubConn
}

func (d stubDriver) Open(string) (driver.Conn, error) { return d.conn, nil }

func (c *StubConn) Prepare(string) (driver.Stmt, error) {
	return nil, fmt.Errorf("prepare not supported by stub")
}

func (c *StubConn) Close() error { return nil }

func (c *StubConn) Begin() (driver.Tx, error) {
	return c.BeginTx(context.Background(), driver.TxOptions{})
}

func (c *StubConn) Ping(_ context.Context) error {
	if c.FailExec {
		return fmt.Errorf("ping fail")
	}
	return nil
}

func (c *StubConn) BeginTx(_ context.Context, _ driver.TxOptions) (driver.Tx, error) {
	if c.FailBegin {
		return nil, fmt.Errorf("begin fail")
	}
	return stubTx{conn: c}, nil
}

// ExecContext records every statement, then interprets the two the store
// issues during a persist cycle. TRUNCATE resets all tables at once; INSERT
// stores one row keyed by the parsed column list. Anything else (DDL) is
// accepted without effect.
func (c *StubConn) ExecContext(_ context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	c.Execs = append(c.Execs, query)
	if c.FailExec {
		return nil, fmt.Errorf("exec fail")
	}
	switch {
	case hasPrefixFold(query, "TRUNCATE TABLE"):
		c.Tables = make(map[string][]map[string]any)
		return driver.RowsAffected(0), nil
	case hasPrefixFold(query, "INSERT INTO"):
		table, cols, err := parseInsert(query)
		if err != nil {
			return nil, err
		}
		if c.FailTables[table] {
			return nil, fmt.Errorf("exec fail for %s", table)
		}
		if len(cols) != len(args) {
			return nil, fmt.Errorf("column/arg mismatch for %s", table)
		}
		row := make(map[string]any, len(cols))
		for i, col := range cols {
			row[col] = args[i].Value
		}
		c.Tables[table] = append(c.Tables[table], row)
		return driver.RowsAffected(1), nil
	}
	return driver.RowsAffected(1), nil
}

// QueryContext serves SELECTs from the stored rows, projecting the requested
// columns in order. Missing columns surface as nil just like a NULL scan.
func (c *StubConn) QueryContext(_ context.Context, query string, _ []driver.NamedValue) (driver.Rows, error) {
	if c.Tables == nil {
		c.Tables = make(map[string][]map[string]any)
	}
	table, cols, err := parseSelect(query)
	if err != nil {
		return nil, err
	}
	if c.FailTables[table] {
		return nil, fmt.Errorf("query fail for %s", table)
	}
	stored := c.Tables[table]
	values := make([][]driver.Value, len(stored))
	for i, row := range stored {
		projected := make([]driver.Value, len(cols))
		for j, col := range cols {
			projected[j] = row[col]
		}
		values[i] = projected
	}
	return &stubRows{cols: cols, rows: values, err: c.RowsErr}, nil
}

type stubTx struct {
	conn *StubConn
}

func (t stubTx) Commit() error {
	if t.conn.FailCommit {
		return fmt.Errorf("commit fail")
	}
	return nil
}

func (t stubTx) Rollback() error { return nil }

type stubRows struct {
	cols []string
	rows [][]driver.Value
	idx  int
	err  error
}

func (r *stubRows) Columns() []string { return r.cols }
func (r *stubRows) Close() error      { return nil }

func (r *stubRows) Next(dest []driver.Value) error {
	if r.idx >= len(r.rows) {
		if r.err != nil {
			return r.err
		}
		return io.EOF
	}
	copy(dest, r.rows[r.idx])
	r.idx++
	return nil
}

// hasPrefixFold reports whether the trimmed statement starts with the given
// keyword sequence, ignoring case.
func hasPrefixFold(query, prefix string) bool {
	q := strings.TrimSpace(query)
	return len(q) >= len(prefix) && strings.EqualFold(q[:len(prefix)], prefix)
}

// parseInsert extracts the table name and column list from
// "INSERT INTO <table> (<cols>) VALUES (...)".
func parseInsert(query string) (string, []string, error) {
	rest, ok := cutFold(query, "INTO ")
	if !ok {
		return "", nil, fmt.Errorf("cannot parse insert: %s", query)
	}
	table, cols, ok := strings.Cut(rest, "(")
	if !ok {
		return "", nil, fmt.Errorf("cannot parse insert: %s", query)
	}
	colList, _, ok := strings.Cut(cols, ")")
	if !ok {
		return "", nil, fmt.Errorf("cannot parse insert: %s", query)
	}
	return strings.ToLower(strings.TrimSpace(table)), splitColumns(colList), nil
}

// parseSelect extracts the table name and projected columns from
// "SELECT <cols> FROM <table>"; trailing clauses are ignored.
func parseSelect(query string) (string, []string, error) {
	cols, ok := cutFold(query, "SELECT ")
	if !ok {
		return "", nil, fmt.Errorf("cannot parse select: %s", query)
	}
	colList, rest, ok := cutFold3(cols, " FROM ")
	if !ok {
		return "", nil, fmt.Errorf("cannot parse select: %s", query)
	}
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return "", nil, fmt.Errorf("cannot parse select: %s", query)
	}
	return strings.ToLower(fields[0]), splitColumns(colList), nil
}

// cutFold returns the text after the first case-insensitive occurrence of sep.
func cutFold(s, sep string) (string, bool) {
	_, after, ok := cutFold3(s, sep)
	return after, ok
}

// cutFold3 is strings.Cut with a case-insensitive separator.
func cutFold3(s, sep string) (before, after string, ok bool) {
	idx := strings.Index(strings.ToLower(s), strings.ToLower(sep))
	if idx == -1 {
		return s, "", false
	}
	return s[:idx], s[idx+len(sep):], true
}

func splitColumns(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		out = append(out, strings.ToLower(strings.TrimSpace(part)))
	}
	return out
}
