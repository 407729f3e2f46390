// Package persistence provides the audit trail spec.md's distillation never
// names but a complete linkmgrd needs: a local, always-on log of toggle/
// probe decisions and warm-restart reconciliation outcomes, plus an optional
// remote store for multi-ToR fleets. The local log is adapted from
// pkg/agent/localdb.go's sqlite-backed policy-op journal; the remote store
// from pkg/db/mysql.go.
package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"dualtor-linkmgrd/pkg/model"
)

const defaultSQLitePath = "/var/lib/linkmgrd/audit.db"

// LocalAudit is the always-on sqlite audit log of every toggle/probe/
// reconciliation decision a PortSupervisor makes, queryable independent of
// any remote fabric/store availability.
type LocalAudit struct {
	mu   sync.Mutex
	db   *sql.DB
	path string
}

// OpenLocalAudit opens (creating if needed) the sqlite audit database at
// path. An empty path uses defaultSQLitePath, mirroring localdb.go's
// sqlitePath constant.
func OpenLocalAudit(path string) (*LocalAudit, error) {
	if path == "" {
		path = defaultSQLitePath
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("persistence: mkdir %s: %w", dir, err)
		}
	}
	dsn := "file:" + path + "?_pragma=busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("persistence: open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("persistence: ping sqlite: %w", err)
	}
	const schema = `
CREATE TABLE IF NOT EXISTS audit_log(
	port TEXT, action TEXT, target TEXT, detail TEXT, ts INTEGER
);
CREATE INDEX IF NOT EXISTS idx_audit_log_port ON audit_log(port);
CREATE TABLE IF NOT EXISTS reconciliation_log(
	port TEXT, forced INTEGER, ts INTEGER
);`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("persistence: init schema: %w", err)
	}
	return &LocalAudit{db: db, path: path}, nil
}

// RecordAction appends one toggle/probe/health decision to the audit log.
// Failures are logged and swallowed — persistence is observability, never a
// reason to block the dispatcher (§7: adapters retry/degrade, core proceeds).
func (a *LocalAudit) RecordAction(port, action, target, detail string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := a.db.ExecContext(ctx,
		`INSERT INTO audit_log(port, action, target, detail, ts) VALUES(?,?,?,?,?)`,
		port, action, target, detail, time.Now().Unix()); err != nil {
		log.Printf("persistence: record action failed: %v", err)
	}
}

// RecordReconciliation logs a warm-restart reconciliation outcome (§4.5).
func (a *LocalAudit) RecordReconciliation(port string, forced bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	f := 0
	if forced {
		f = 1
	}
	if _, err := a.db.ExecContext(ctx,
		`INSERT INTO reconciliation_log(port, forced, ts) VALUES(?,?,?)`,
		port, f, time.Now().Unix()); err != nil {
		log.Printf("persistence: record reconciliation failed: %v", err)
	}
}

// RecentActions returns up to limit of the most recent audit rows for port
// (all ports if port is empty), newest last.
func (a *LocalAudit) RecentActions(port string, limit int) ([]model.AuditEntry, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var rows *sql.Rows
	var err error
	if port == "" {
		rows, err = a.db.QueryContext(ctx, `SELECT port, action, target, detail, ts FROM audit_log ORDER BY ts DESC, rowid DESC LIMIT ?`, limit)
	} else {
		rows, err = a.db.QueryContext(ctx, `SELECT port, action, target, detail, ts FROM audit_log WHERE port=? ORDER BY ts DESC, rowid DESC LIMIT ?`, port, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("persistence: query audit log: %w", err)
	}
	defer rows.Close()

	var out []model.AuditEntry
	for rows.Next() {
		var e model.AuditEntry
		var ts int64
		if err := rows.Scan(&e.Actor, &e.Action, &e.Target, &e.Detail, &ts); err != nil {
			continue
		}
		e.Timestamp = time.Unix(ts, 0)
		out = append(out, e)
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

func (a *LocalAudit) Close() error {
	return a.db.Close()
}
