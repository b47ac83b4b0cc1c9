package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kingpin/v2"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/shapestone/shape-dsv/internal/config"
	"github.com/shapestone/shape-dsv/internal/sink/postgres"
	"github.com/shapestone/shape-dsv/pkg/dsv"
)

// loadCommand copies a file with a header row into a PostgreSQL table.
type loadCommand struct {
	cfg   *config.Config
	input string
}

func addLoadCommand(app *kingpin.Application, cfg *config.Config) {
	cmd := &loadCommand{cfg: cfg}
	clause := app.Command("load", "Copy rows into a PostgreSQL table whose columns match the header row.").Action(cmd.run)
	config.RegisterReaderFlags(clause, &cfg.Reader)
	config.RegisterPostgresFlags(clause, &cfg.Postgres)
	clause.Arg("file", "Input file; '-' or absent for standard input.").StringVar(&cmd.input)
}

func (cmd *loadCommand) run(_ *kingpin.ParseContext) error {
	if cmd.cfg.Postgres.DSN == "" || cmd.cfg.Postgres.Table == "" {
		return errors.New("load requires --postgres.dsn and --postgres.table")
	}
	if !cmd.cfg.Reader.Header {
		return errors.New("load requires a header row naming the columns")
	}
	opts, err := cmd.cfg.Reader.Options()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := sql.Open("postgres", cmd.cfg.Postgres.DSN)
	if err != nil {
		return errors.Wrap(err, "opening database")
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		return errors.Wrap(err, "connecting to database")
	}

	in, err := openInput(cmd.input)
	if err != nil {
		return err
	}
	defer in.Close()

	logger := newLogger(cmd.cfg.Log)
	r, err := dsv.NewReader(in, opts)
	if err != nil {
		return err
	}
	r.SetLogger(logger)

	stats, err := postgres.NewLoader(db, cmd.cfg.Postgres.Table, logger).Load(ctx, dsv.NewRecordReader(r, nil))
	if err != nil {
		return err
	}
	fmt.Printf("rows: %d\nrejected: %d\npadded: %d\n", stats.Rows, stats.Rejected, stats.Padded)
	return nil
}
