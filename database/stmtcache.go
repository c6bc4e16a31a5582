package database

import (
	"context"
	"database/sql"
	"sync"
)

// StmtCache keeps one prepared statement per query string.
type StmtCache struct {
	db *sql.DB
	m  sync.Map
}

func NewStmtCache(db *sql.DB) *StmtCache {
	return &StmtCache{db: db}
}

func (sc *StmtCache) Prepare(query string) (*sql.Stmt, error) {
	return sc.PrepareContext(context.Background(), query)
}

// PrepareContext returns the cached statement, preparing it on first use.
// When two callers race the loser's statement is closed.
func (sc *StmtCache) PrepareContext(ctx context.Context, query string) (*sql.Stmt, error) {
	if cached, ok := sc.m.Load(query); ok {
		return cached.(*sql.Stmt), nil
	}
	stmt, err := sc.db.PrepareContext(ctx, query)
	if err != nil {
		return nil, err
	}
	if actual, loaded := sc.m.LoadOrStore(query, stmt); loaded {
		_ = stmt.Close()
		return actual.(*sql.Stmt), nil
	}
	return stmt, nil
}

func (sc *StmtCache) MustPrepare(query string) *sql.Stmt {
	stmt, err := sc.Prepare(query)
	if err != nil {
		panic(err)
	}
	return stmt
}

// Clear closes and forgets every statement.
func (sc *StmtCache) Clear() {
	sc.m.Range(func(k, v interface{}) bool {
		_ = v.(*sql.Stmt).Close()
		sc.m.Delete(k)
		return true
	})
}
