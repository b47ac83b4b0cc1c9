package main

import (
	"io"
	"os"

	"github.com/alecthomas/kingpin/v2"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/pkg/errors"

	"github.com/shapestone/shape-dsv/internal/config"
	"github.com/shapestone/shape-dsv/pkg/dsv"
)

// convertCommand re-encodes a file with a different dialect. Malformed
// rows are logged and left out of the output.
type convertCommand struct {
	cfg    *config.Config
	input  string
	output string
}

func addConvertCommand(app *kingpin.Application, cfg *config.Config) {
	cmd := &convertCommand{cfg: cfg}
	clause := app.Command("convert", "Re-encode a file with another separator, quoting policy or line terminator.").Action(cmd.run)
	config.RegisterReaderFlags(clause, &cfg.Reader)
	config.RegisterWriterFlags(clause, &cfg.Writer)
	clause.Flag("output", "Output file; standard output if absent.").Short('o').StringVar(&cmd.output)
	clause.Arg("file", "Input file; '-' or absent for standard input.").StringVar(&cmd.input)
}

func (cmd *convertCommand) run(_ *kingpin.ParseContext) error {
	ro, err := cmd.cfg.Reader.Options()
	if err != nil {
		return err
	}
	wo, err := cmd.cfg.Writer.Options()
	if err != nil {
		return err
	}

	in, err := openInput(cmd.input)
	if err != nil {
		return err
	}
	defer in.Close()

	var out io.Writer = os.Stdout
	if cmd.output != "" {
		f, err := os.Create(cmd.output)
		if err != nil {
			return errors.Wrap(err, "creating output")
		}
		defer f.Close()
		out = f
	}

	logger := newLogger(cmd.cfg.Log)
	n, skipped, err := convert(in, out, ro, wo, logger)
	if err != nil {
		return err
	}
	level.Info(logger).Log("msg", "conversion complete", "rows", n, "skipped", skipped)
	return nil
}

// convert copies rows from in to out and returns the rows written and the
// malformed rows skipped.
func convert(in io.Reader, out io.Writer, ro dsv.ReaderOptions, wo dsv.WriterOptions, logger log.Logger) (int, int, error) {
	r, err := dsv.NewReader(in, ro)
	if err != nil {
		return 0, 0, err
	}
	r.SetLogger(logger)

	w, err := dsv.NewWriter(out, wo)
	if err != nil {
		return 0, 0, err
	}

	written, skipped := 0, 0
	for r.Scan() {
		if perr := r.ParseError(); perr != nil {
			skipped++
			level.Warn(logger).Log("msg", "skipping malformed row", "line", perr.Line, "column", perr.Column, "err", perr.Message)
			continue
		}
		if err := w.WriteRow(r.Row()); err != nil {
			return written, skipped, errors.Wrap(err, "writing output")
		}
		written++
	}
	if err := r.Err(); err != nil {
		return written, skipped, errors.Wrap(err, "reading input")
	}
	return written, skipped, errors.Wrap(w.Flush(), "writing output")
}
