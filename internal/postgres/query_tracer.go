package postgres

import (
	"context"
	"database/sql"
	"reflect"
	"strings"
	"time"

	"github.com/retailpulse/retailpulse/internal/logger"
)

const maxLoggedQueryLen = 160

// tracedQuerier logs every statement issued against a snapshot table along
// with its duration. Select calls additionally report how many rows were
// scanned so slow snapshot loads can be attributed to a table.
type tracedQuerier struct {
	q      Querier
	logger *logger.Logger
	txID   string
}

func newTracedQuerier(q Querier, logger *logger.Logger, txID string) Querier {
	return &tracedQuerier{q: q, logger: logger, txID: txID}
}

func (t *tracedQuerier) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	start := time.Now()
	res, err := t.q.ExecContext(ctx, query, args...)
	rows := int64(-1)
	if err == nil && res != nil {
		if n, rerr := res.RowsAffected(); rerr == nil {
			rows = n
		}
	}
	t.observe("exec", query, len(args), rows, start, err)
	return res, err
}

func (t *tracedQuerier) GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	start := time.Now()
	err := t.q.GetContext(ctx, dest, query, args...)
	t.observe("get", query, len(args), 1, start, err)
	return err
}

func (t *tracedQuerier) SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	start := time.Now()
	err := t.q.SelectContext(ctx, dest, query, args...)
	t.observe("select", query, len(args), rowCount(dest), start, err)
	return err
}

func (t *tracedQuerier) observe(kind, query string, argCount int, rows int64, start time.Time, err error) {
	fields := []interface{}{
		"kind", kind,
		"query", compactQuery(query),
		"arg_count", argCount,
		"duration_ms", time.Since(start).Milliseconds(),
	}
	if t.txID != "" {
		fields = append(fields, "tx_id", t.txID)
	}
	if err != nil {
		t.logger.Errorw("snapshot query failed", append(fields, "error", err.Error())...)
		return
	}
	if rows >= 0 {
		fields = append(fields, "rows", rows)
	}
	t.logger.Debugw("snapshot query completed", fields...)
}

// rowCount reports the length of a slice destination, or -1 when dest is not
// a pointer to a slice.
func rowCount(dest interface{}) int64 {
	v := reflect.ValueOf(dest)
	if v.Kind() != reflect.Pointer || v.IsNil() {
		return -1
	}
	v = v.Elem()
	if v.Kind() != reflect.Slice {
		return -1
	}
	return int64(v.Len())
}

// compactQuery collapses whitespace and truncates long statements such as
// multi-row inserts.
func compactQuery(query string) string {
	q := strings.Join(strings.Fields(query), " ")
	if len(q) > maxLoggedQueryLen {
		return q[:maxLoggedQueryLen] + "..."
	}
	return q
}
