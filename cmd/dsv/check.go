package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/alecthomas/kingpin/v2"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/shapestone/shape-dsv/internal/config"
	"github.com/shapestone/shape-dsv/internal/metrics"
	"github.com/shapestone/shape-dsv/pkg/dsv"
)

// checkCommand reports every malformed row in a file.
type checkCommand struct {
	cfg         *config.Config
	input       string
	metricsFile string
	out         io.Writer
}

func addCheckCommand(app *kingpin.Application, cfg *config.Config) {
	cmd := &checkCommand{cfg: cfg, out: os.Stdout}
	clause := app.Command("check", "Report malformed rows. Exits with status 1 if any are found.").Action(cmd.run)
	config.RegisterReaderFlags(clause, &cfg.Reader)
	clause.Flag("metrics.file", "Write reader metrics in Prometheus text format to this file.").StringVar(&cmd.metricsFile)
	clause.Arg("file", "Input file; '-' or absent for standard input.").StringVar(&cmd.input)
}

func (cmd *checkCommand) run(_ *kingpin.ParseContext) error {
	opts, err := cmd.cfg.Reader.Options()
	if err != nil {
		return err
	}
	// Dropping rows would hide them from the report.
	if opts.ErrorMode == dsv.ErrorModeIgnore {
		opts.ErrorMode = dsv.ErrorModeInclude
	}

	in, err := openInput(cmd.input)
	if err != nil {
		return err
	}
	defer in.Close()

	reg := prometheus.NewRegistry()
	found, err := cmd.check(in, opts, metrics.NewMetrics(reg))
	if err != nil {
		return err
	}

	if err := printSummary(cmd.out, reg); err != nil {
		return err
	}
	if cmd.metricsFile != "" {
		if err := prometheus.WriteToTextfile(cmd.metricsFile, reg); err != nil {
			return errors.Wrap(err, "writing metrics file")
		}
	}
	if found > 0 {
		return errMalformedRows
	}
	return nil
}

// check prints each malformed row and returns how many it found. Under
// ErrorModeThrow the first one ends the check.
func (cmd *checkCommand) check(in io.Reader, opts dsv.ReaderOptions, m *metrics.Metrics) (int, error) {
	r, err := dsv.NewReader(in, opts)
	if err != nil {
		return 0, err
	}
	r.SetLogger(newLogger(cmd.cfg.Log)).SetObserver(m)

	found := 0
	for r.Scan() {
		if perr := r.ParseError(); perr != nil {
			found++
			printParseError(cmd.out, perr)
		}
	}
	err = r.Err()
	var perr *dsv.ParseError
	if errors.As(err, &perr) {
		printParseError(cmd.out, perr)
		return found + 1, nil
	}
	return found, errors.Wrap(err, "reading input")
}

func printParseError(w io.Writer, perr *dsv.ParseError) {
	fmt.Fprintf(w, "%d:%d: %s: %s\n", perr.Line, perr.Column, perr.Kind, perr.Message)
	if cell, ok := perr.PartialCell(); ok {
		fmt.Fprintf(w, "\tpartial cell: %q\n", cell)
	}
	if row, ok := perr.PartialRow(); ok {
		values := make([]string, len(row))
		for i, c := range row {
			values[i] = fmt.Sprintf("%q", c.Value)
		}
		fmt.Fprintf(w, "\tpartial row: [%s]\n", strings.Join(values, " "))
	}
	if skipped, ok := perr.SkippedText(); ok {
		fmt.Fprintf(w, "\tskipped: %q\n", skipped)
	}
}

// printSummary writes every counter in reg as "name{labels} value".
func printSummary(w io.Writer, reg prometheus.Gatherer) error {
	families, err := reg.Gather()
	if err != nil {
		return errors.Wrap(err, "gathering metrics")
	}
	sort.Slice(families, func(i, j int) bool { return families[i].GetName() < families[j].GetName() })

	fmt.Fprintln(w, "summary:")
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			fmt.Fprintf(w, "\t%s%s %g\n", mf.GetName(), labelString(m.GetLabel()), m.GetCounter().GetValue())
		}
	}
	return nil
}

func labelString(pairs []*dto.LabelPair) string {
	if len(pairs) == 0 {
		return ""
	}
	parts := make([]string, len(pairs))
	for i, p := range pairs {
		parts[i] = fmt.Sprintf("%s=%q", p.GetName(), p.GetValue())
	}
	return "{" + strings.Join(parts, ",") + "}"
}
