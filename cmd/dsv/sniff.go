package main

import (
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kingpin/v2"
	"github.com/pkg/errors"

	"github.com/shapestone/shape-dsv/internal/config"
	"github.com/shapestone/shape-dsv/pkg/dsv"
)

// sniffCommand guesses the dialect of a file from its first bytes.
type sniffCommand struct {
	cfg        *config.Config
	input      string
	sampleSize int
	out        io.Writer
}

func addSniffCommand(app *kingpin.Application, cfg *config.Config) {
	cmd := &sniffCommand{cfg: cfg, out: os.Stdout}
	clause := app.Command("sniff", "Guess the separator and whether the first row is a header.").Action(cmd.run)
	config.RegisterReaderFlags(clause, &cfg.Reader)
	clause.Flag("sample-size", "Bytes to examine.").Default("65536").IntVar(&cmd.sampleSize)
	clause.Arg("file", "Input file; '-' or absent for standard input.").StringVar(&cmd.input)
}

func (cmd *sniffCommand) run(_ *kingpin.ParseContext) error {
	opts, err := cmd.cfg.Reader.Options()
	if err != nil {
		return err
	}

	in, err := openInput(cmd.input)
	if err != nil {
		return err
	}
	defer in.Close()

	sample, err := io.ReadAll(io.LimitReader(in, int64(cmd.sampleSize)))
	if err != nil {
		return errors.Wrap(err, "reading sample")
	}

	s := dsv.NewSnifferWithOptions(string(sample), opts)
	fmt.Fprintf(cmd.out, "separator: %q\nheader: %t\n", s.DetectSeparator(), s.HasHeader())
	return nil
}
