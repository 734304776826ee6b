package builtins

import (
	"database/sql"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/funvibe/numen/internal/coerce"
	"github.com/funvibe/numen/internal/value"
)

var errUnknownHandle = errors.New("unknown database handle")

// sqlHandles maps the ids handed to scripts to open databases
type sqlHandles struct {
	mu  sync.Mutex
	dbs map[string]*sql.DB
}

func newSQLHandles() *sqlHandles {
	return &sqlHandles{dbs: make(map[string]*sql.DB)}
}

func (h *sqlHandles) add(db *sql.DB) string {
	id := uuid.NewString()
	h.mu.Lock()
	h.dbs[id] = db
	h.mu.Unlock()
	return id
}

func (h *sqlHandles) get(id string) (*sql.DB, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	db, ok := h.dbs[id]
	if !ok {
		return nil, fmt.Errorf("%w %q", errUnknownHandle, id)
	}
	return db, nil
}

func (h *sqlHandles) remove(id string) (*sql.DB, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	db, ok := h.dbs[id]
	delete(h.dbs, id)
	return db, ok
}

func (h *sqlHandles) closeAll() error {
	h.mu.Lock()
	dbs := h.dbs
	h.dbs = make(map[string]*sql.DB)
	h.mu.Unlock()
	var errs []error
	for _, db := range dbs {
		errs = append(errs, db.Close())
	}
	return errors.Join(errs...)
}

// The sql builtins open databases synchronously and run statements on a
// goroutine; sqlExec and sqlQuery return futures.
func (l *Library) registerSQL() {
	l.wrap("sqlOpen", func(dsn string) (string, error) {
		db, err := sql.Open(l.sqlDriver, dsn)
		if err != nil {
			return "", err
		}
		if err := db.Ping(); err != nil {
			db.Close()
			return "", err
		}
		id := l.sql.add(db)
		l.logger.Debug("database opened", "driver", l.sqlDriver, "dsn", dsn, "handle", id)
		return id, nil
	}, "dsn")

	l.wrap("sqlClose", func(id string) (bool, error) {
		db, ok := l.sql.remove(id)
		if !ok {
			return false, nil
		}
		return true, db.Close()
	}, "db")

	l.wrap("sqlExec", func(id, query string, params ...value.Value) (*value.Map, error) {
		db, err := l.sql.get(id)
		if err != nil {
			return nil, err
		}
		fut := value.NewFuture()
		go func() {
			l.logger.Debug("sql exec", "query", query)
			res, err := db.Exec(query, sqlArgs(params)...)
			if err != nil {
				l.complete(fut, value.Undefined, err.Error())
				return
			}
			out := value.NewMap()
			if n, err := res.RowsAffected(); err == nil {
				out.Set("rowsAffected", value.Number(float64(n)))
			}
			if id, err := res.LastInsertId(); err == nil {
				out.Set("lastInsertId", value.Number(float64(id)))
			}
			l.complete(fut, value.MapValue(out), "")
		}()
		return fut, nil
	}, "db", "query", "params")

	l.wrap("sqlQuery", func(id, query string, params ...value.Value) (*value.Map, error) {
		db, err := l.sql.get(id)
		if err != nil {
			return nil, err
		}
		fut := value.NewFuture()
		go func() {
			l.logger.Debug("sql query", "query", query)
			rows, err := queryRows(db, query, sqlArgs(params))
			if err != nil {
				l.complete(fut, value.Undefined, err.Error())
				return
			}
			l.complete(fut, value.MapValue(rows), "")
		}()
		return fut, nil
	}, "db", "query", "params")
}

// queryRows reads the result set into a map keyed by row position; each
// row is a map in column order.
func queryRows(db *sql.DB, query string, args []any) (*value.Map, error) {
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	out := value.NewMap()
	for n := 0; rows.Next(); n++ {
		cells := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range cells {
			ptrs[i] = &cells[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := value.NewMap()
		for i, c := range cols {
			row.Set(c, coerce.FromHost(cells[i]))
		}
		out.Set(fmt.Sprint(n), value.MapValue(row))
	}
	return out, rows.Err()
}

// sqlArgs converts statement parameters. Integral numbers bind as
// integers.
func sqlArgs(params []value.Value) []any {
	out := make([]any, len(params))
	for i, p := range params {
		x := coerce.ToHostPlain(p)
		if f, ok := x.(float64); ok && f == math.Trunc(f) && math.Abs(f) < 1<<53 {
			x = int64(f)
		}
		out[i] = x
	}
	return out
}
