// Package config loads command configuration from a YAML file and
// overlays it with command-line flags.
package config

import (
	"bytes"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/alecthomas/kingpin/v2"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/shapestone/shape-dsv/pkg/dsv"
)

// FileFlag is the flag naming the YAML configuration file.
const FileFlag = "config.file"

type Config struct {
	Reader   ReaderConfig   `yaml:"reader"`
	Writer   WriterConfig   `yaml:"writer"`
	Postgres PostgresConfig `yaml:"postgres"`
	Log      LogConfig      `yaml:"log"`
}

// ReaderConfig mirrors dsv.ReaderOptions with text-friendly values.
type ReaderConfig struct {
	Separator   string `yaml:"separator"`
	Quote       string `yaml:"quote"`
	Escape      string `yaml:"escape"`
	Unescape    bool   `yaml:"unescape"`
	MaxCellSize int    `yaml:"max_cell_size"`
	MaxRowWidth int    `yaml:"max_row_width"`
	ErrorMode   string `yaml:"error_mode"`
	// Header marks the first row as column names.
	Header bool `yaml:"header"`
}

// WriterConfig mirrors dsv.WriterOptions with text-friendly values.
type WriterConfig struct {
	Separator string `yaml:"separator"`
	Quote     string `yaml:"quote"`
	Quoting   string `yaml:"quoting"`
	CRLF      bool   `yaml:"crlf"`
}

type PostgresConfig struct {
	DSN   string `yaml:"dsn"`
	Table string `yaml:"table"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	ro := dsv.DefaultReaderOptions()
	wo := dsv.DefaultWriterOptions()
	return Config{
		Reader: ReaderConfig{
			Separator:   string(ro.Separator),
			Quote:       string(ro.Quote),
			MaxCellSize: ro.MaxCellSize,
			MaxRowWidth: ro.MaxRowWidth,
			ErrorMode:   ro.ErrorMode.String(),
			Header:      true,
		},
		Writer: WriterConfig{
			Separator: string(wo.Separator),
			Quote:     string(wo.Quote),
			Quoting:   wo.Quoting.String(),
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load reads the YAML file at path over the defaults. Unknown keys are
// rejected. An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	buf, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrap(err, "reading config file")
	}
	if err := Parse(buf, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "parsing config file %s", path)
	}
	return cfg, nil
}

// Parse decodes YAML into cfg, leaving absent keys untouched.
func Parse(buf []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(buf))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && err != io.EOF {
		return err
	}
	return nil
}

// FileFromArgs finds the value of --config.file in args so the file can be
// loaded before the flags that default to its values are registered.
func FileFromArgs(args []string) string {
	long := "--" + FileFlag
	for i, arg := range args {
		if arg == "--" {
			break
		}
		if v, ok := strings.CutPrefix(arg, long+"="); ok {
			return v
		}
		if arg == long && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

// flagger is implemented by both kingpin.Application and kingpin.CmdClause.
type flagger interface {
	Flag(name, help string) *kingpin.FlagClause
}

// RegisterFileFlag adds the --config.file flag so kingpin accepts it.
func RegisterFileFlag(f flagger) *string {
	return f.Flag(FileFlag, "YAML configuration file. Flags override its values.").String()
}

// RegisterReaderFlags adds reader flags whose defaults are the current
// values of cfg.
func RegisterReaderFlags(f flagger, cfg *ReaderConfig) {
	f.Flag("separator", "Cell separator character, or 'tab'.").Default(cfg.Separator).StringVar(&cfg.Separator)
	f.Flag("quote", "Quote character.").Default(cfg.Quote).StringVar(&cfg.Quote)
	f.Flag("escape", "Escape character; empty disables escapes.").Default(cfg.Escape).StringVar(&cfg.Escape)
	f.Flag("unescape", "Decode escape sequences and \\N as NULL.").Default(strconv.FormatBool(cfg.Unescape)).BoolVar(&cfg.Unescape)
	f.Flag("max-cell-size", "Maximum characters in a cell.").Default(strconv.Itoa(cfg.MaxCellSize)).IntVar(&cfg.MaxCellSize)
	f.Flag("max-row-width", "Maximum cells in a row.").Default(strconv.Itoa(cfg.MaxRowWidth)).IntVar(&cfg.MaxRowWidth)
	f.Flag("error-mode", "Malformed row handling: include, ignore or throw.").Default(cfg.ErrorMode).EnumVar(&cfg.ErrorMode, "include", "ignore", "throw")
	f.Flag("header", "Treat the first row as column names.").Default(strconv.FormatBool(cfg.Header)).BoolVar(&cfg.Header)
}

// RegisterWriterFlags adds output flags whose defaults are the current
// values of cfg.
func RegisterWriterFlags(f flagger, cfg *WriterConfig) {
	f.Flag("out.separator", "Output separator character, or 'tab'.").Default(cfg.Separator).StringVar(&cfg.Separator)
	f.Flag("out.quote", "Output quote character.").Default(cfg.Quote).StringVar(&cfg.Quote)
	f.Flag("out.quoting", "Output quoting policy: required, always or never.").Default(cfg.Quoting).EnumVar(&cfg.Quoting, "required", "always", "never")
	f.Flag("out.crlf", "Terminate output rows with CRLF.").Default(strconv.FormatBool(cfg.CRLF)).BoolVar(&cfg.CRLF)
}

// RegisterPostgresFlags adds database flags whose defaults are the current
// values of cfg.
func RegisterPostgresFlags(f flagger, cfg *PostgresConfig) {
	f.Flag("postgres.dsn", "PostgreSQL connection string.").Default(cfg.DSN).StringVar(&cfg.DSN)
	f.Flag("postgres.table", "Destination table.").Default(cfg.Table).StringVar(&cfg.Table)
}

// RegisterLogFlags adds logging flags whose defaults are the current
// values of cfg.
func RegisterLogFlags(f flagger, cfg *LogConfig) {
	f.Flag("log.level", "Only log messages with the given severity or above: debug, info, warn or error.").
		Default(cfg.Level).EnumVar(&cfg.Level, "debug", "info", "warn", "error")
}

// Options converts the reader configuration to validated reader options.
func (c ReaderConfig) Options() (dsv.ReaderOptions, error) {
	opts := dsv.DefaultReaderOptions()
	var err error
	if opts.Separator, err = parseChar("separator", c.Separator); err != nil {
		return opts, err
	}
	if opts.Quote, err = parseChar("quote", c.Quote); err != nil {
		return opts, err
	}
	if c.Escape != "" {
		if opts.Escape, err = parseChar("escape", c.Escape); err != nil {
			return opts, err
		}
	}
	if opts.ErrorMode, err = dsv.ParseErrorMode(c.ErrorMode); err != nil {
		return opts, err
	}
	opts.Unescape = c.Unescape
	opts.MaxCellSize = c.MaxCellSize
	opts.MaxRowWidth = c.MaxRowWidth
	return opts, opts.Validate()
}

// Options converts the writer configuration to validated writer options.
func (c WriterConfig) Options() (dsv.WriterOptions, error) {
	opts := dsv.DefaultWriterOptions()
	var err error
	if opts.Separator, err = parseChar("out.separator", c.Separator); err != nil {
		return opts, err
	}
	if opts.Quote, err = parseChar("out.quote", c.Quote); err != nil {
		return opts, err
	}
	if opts.Quoting, err = dsv.ParseQuotePolicy(c.Quoting); err != nil {
		return opts, err
	}
	opts.UseCRLF = c.CRLF
	return opts, opts.Validate()
}

var charNames = map[string]rune{
	"tab":       '\t',
	`\t`:        '\t',
	"comma":     ',',
	"semicolon": ';',
	"pipe":      '|',
	"space":     ' ',
}

// parseChar accepts a single character or one of a few names for
// characters that are awkward on a command line.
func parseChar(name, s string) (rune, error) {
	if r, ok := charNames[s]; ok {
		return r, nil
	}
	if utf8.RuneCountInString(s) != 1 {
		return 0, errors.Errorf("%s must be a single character, got %q", name, s)
	}
	r, _ := utf8.DecodeRuneInString(s)
	return r, nil
}
