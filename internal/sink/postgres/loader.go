// Package postgres bulk-loads DSV records into a PostgreSQL table using
// COPY FROM STDIN.
package postgres

import (
	"context"
	"database/sql"
	"io"
	"strings"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/shapestone/shape-dsv/pkg/dsv"
)

// Stats summarizes a load.
type Stats struct {
	// Rows is the number of records copied.
	Rows int
	// Rejected counts malformed rows and rows wider than the header.
	Rejected int
	// Padded counts rows shorter than the header, filled with NULL.
	Padded int
}

// Loader copies records into one table. Columns are taken from the record
// headers, so the header names must match the table's column names.
type Loader struct {
	db     *sql.DB
	schema string
	table  string
	logger log.Logger
}

// NewLoader returns a Loader for table, which may be schema-qualified as
// "schema.table".
func NewLoader(db *sql.DB, table string, logger log.Logger) *Loader {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	l := &Loader{db: db, table: table, logger: logger}
	if schema, name, ok := strings.Cut(table, "."); ok {
		l.schema, l.table = schema, name
	}
	return l
}

func (l *Loader) copyStatement(columns []string) string {
	if l.schema != "" {
		return pq.CopyInSchema(l.schema, l.table, columns...)
	}
	return pq.CopyIn(l.table, columns...)
}

// Load copies every record of rr in a single transaction. NULL cells
// become SQL NULL. Malformed rows reported by the reader are counted and
// skipped; any other error rolls the whole load back.
func (l *Loader) Load(ctx context.Context, rr *dsv.RecordReader) (Stats, error) {
	var stats Stats

	headers, err := rr.Headers()
	if err == io.EOF {
		return stats, nil
	}
	if err != nil {
		return stats, errors.Wrap(err, "reading headers")
	}

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return stats, errors.Wrap(err, "starting transaction")
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, l.copyStatement(headers))
	if err != nil {
		return stats, errors.Wrap(err, "preparing copy")
	}
	defer stmt.Close()

	for {
		rec, perr, err := rr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return stats, errors.Wrap(err, "reading records")
		}
		if perr != nil {
			stats.Rejected++
			level.Warn(l.logger).Log("msg", "rejected malformed row", "line", perr.Line, "column", perr.Column, "err", perr)
			continue
		}

		cells := rec.Cells()
		if len(cells) > len(headers) {
			stats.Rejected++
			level.Warn(l.logger).Log("msg", "rejected row wider than header", "line", rec.Position().Line, "cells", len(cells), "columns", len(headers))
			continue
		}
		if len(cells) < len(headers) {
			stats.Padded++
		}

		args := make([]interface{}, len(headers))
		for i, c := range cells {
			if !c.Null {
				args[i] = c.Value
			}
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return stats, errors.Wrapf(err, "copying row at line %d", rec.Position().Line)
		}
		stats.Rows++
	}

	if _, err := stmt.ExecContext(ctx); err != nil {
		return stats, errors.Wrap(err, "flushing copy")
	}
	if err := stmt.Close(); err != nil {
		return stats, errors.Wrap(err, "closing copy")
	}
	if err := tx.Commit(); err != nil {
		return stats, errors.Wrap(err, "committing")
	}

	level.Info(l.logger).Log("msg", "load complete", "table", l.table, "rows", stats.Rows, "rejected", stats.Rejected, "padded", stats.Padded)
	return stats, nil
}
