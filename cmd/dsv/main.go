// Command dsv checks, converts, sniffs and loads delimiter-separated files.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kingpin/v2"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/pkg/errors"

	"github.com/shapestone/shape-dsv/internal/config"
)

// errMalformedRows makes check exit with status 1 without an error message.
var errMalformedRows = errors.New("malformed rows found")

func main() {
	args := os.Args[1:]

	cfg, err := config.Load(config.FileFromArgs(args))
	if err != nil {
		exitWithErr(err)
	}

	app := kingpin.New("dsv", "Defensive reader for delimiter-separated values.")
	app.HelpFlag.Short('h')
	config.RegisterFileFlag(app)
	config.RegisterLogFlags(app, &cfg.Log)

	addCheckCommand(app, &cfg)
	addConvertCommand(app, &cfg)
	addSniffCommand(app, &cfg)
	addLoadCommand(app, &cfg)

	if _, err := app.Parse(args); err != nil {
		if errors.Is(err, errMalformedRows) {
			os.Exit(1)
		}
		exitWithErr(err)
	}
}

func exitWithErr(err error) {
	fmt.Fprintf(os.Stderr, "dsv: error: %v\n", err)
	os.Exit(2)
}

func newLogger(cfg config.LogConfig) log.Logger {
	logger := log.NewLogfmtLogger(log.NewSyncWriter(os.Stderr))
	logger = level.NewFilter(logger, levelOption(cfg.Level))
	return log.With(logger, "ts", log.DefaultTimestampUTC, "caller", log.DefaultCaller)
}

func levelOption(lvl string) level.Option {
	switch lvl {
	case "debug":
		return level.AllowDebug()
	case "warn":
		return level.AllowWarn()
	case "error":
		return level.AllowError()
	default:
		return level.AllowInfo()
	}
}

// openInput opens path for reading; "-" or "" is standard input.
func openInput(path string) (io.ReadCloser, error) {
	if path == "" || path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening input")
	}
	return f, nil
}
