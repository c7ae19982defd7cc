package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/dustin/go-humanize"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap/zapcore"
	_ "modernc.org/sqlite"

	"github.com/razeghi71/dqflow/config"
	"github.com/razeghi71/dqflow/exporter"
	"github.com/razeghi71/dqflow/flow"
	"github.com/razeghi71/dqflow/query"
	"github.com/razeghi71/dqflow/table"
)

func main() {
	if err := newApp(os.Stdout, os.Stderr).Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newApp(stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:      "dqflow",
		Usage:     "run a pipe query over CSV, JSON, xlsx, Avro, parquet or SQL tables",
		UsageText: "dqflow [options] 'users.csv | filter { age > 20 } | select name age'",
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "TOML configuration file",
				EnvVars: []string{"DQFLOW_CONFIG"},
			},
			&cli.StringFlag{Name: "mode", Usage: "execution mode: release or debug"},
			&cli.BoolFlag{Name: "perf", Usage: "print the per-node performance log to stderr"},
			&cli.BoolFlag{Name: "parallel", Usage: "evaluate independent branches concurrently"},
			&cli.StringFlag{Name: "log-level", Usage: "debug, info, warn or error"},
			&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Usage: "stdout format: table, json or csv"},
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "write the result to a .csv, .json, .xlsx, .avro or .parquet file"},
			&cli.StringFlag{Name: "sheet", Usage: "sheet name for .xlsx output"},
			&cli.StringFlag{Name: "driver", Usage: "database driver (sqlite, postgres, mysql); query sources become table names"},
			&cli.StringFlag{Name: "dsn", Usage: "data source name for --driver"},
			&cli.BoolFlag{Name: "dot", Usage: "print the flow graph in graphviz format instead of running it"},
		},
		Action: func(c *cli.Context) error {
			return run(c, stdout, stderr)
		},
	}
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, errors.Wrap(err, "config")
	}
	if c.IsSet("mode") {
		cfg.Execution.Mode = c.String("mode")
	}
	if c.IsSet("perf") {
		cfg.Execution.Performance = c.Bool("perf")
	}
	if c.IsSet("parallel") {
		cfg.Execution.Parallel = c.Bool("parallel")
	}
	if c.IsSet("log-level") {
		cfg.Log.Level = c.String("log-level")
	}
	if c.IsSet("format") {
		cfg.Output.Format = c.String("format")
	}
	if c.IsSet("output") {
		cfg.Output.Path = c.String("output")
	}
	if c.IsSet("sheet") {
		cfg.Output.Sheet = c.String("sheet")
	}
	return cfg, cfg.Validate()
}

func run(c *cli.Context, stdout, stderr io.Writer) error {
	if c.NArg() != 1 {
		cli.ShowAppHelp(c)
		return errors.New("expected exactly one query argument")
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	logger, err := cfg.Log.NewLogger(zapcore.AddSync(stderr))
	if err != nil {
		return err
	}
	defer logger.Sync()

	opts := query.Options{Open: flow.FromFile, Logger: logger}
	if driver := c.String("driver"); driver != "" {
		db, err := sql.Open(driver, c.String("dsn"))
		if err != nil {
			return errors.Wrapf(err, "open %s database", driver)
		}
		defer db.Close()
		opts.Open = tableOpener(db)
	}

	f, err := query.Compile(c.Args().First(), opts)
	if err != nil {
		return errors.Wrap(err, "query")
	}
	if c.Bool("dot") {
		_, err := stdout.Write(f.Dot("dqflow"))
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt)
	defer stop()

	mode, err := flow.ParseMode(cfg.Execution.Mode)
	if err != nil {
		return err
	}
	execOpts := []flow.Option{
		flow.WithContext(ctx),
		flow.WithMode(mode),
		flow.WithLogger(logger),
		flow.WithParallel(cfg.Execution.Parallel),
	}
	if cfg.Execution.Performance {
		execOpts = append(execOpts, flow.WithPerformanceLog(func(l *flow.PerformanceLog) {
			fmt.Fprintln(stderr, l.String())
		}))
	}

	if cfg.Output.Path != "" {
		return writeFile(f, cfg.Output, stderr, execOpts)
	}
	result, err := f.ToTable().Execute(execOpts...)
	if err != nil {
		return err
	}
	return printResult(stdout, cfg.Output.Format, result)
}

func printResult(w io.Writer, format string, t *table.Table) error {
	switch format {
	case "json":
		if err := exporter.WriteJSON(w, t); err != nil {
			return err
		}
		_, err := io.WriteString(w, "\n")
		return err
	case "csv":
		return exporter.WriteCSV(w, t)
	default:
		return table.Fprint(w, t)
	}
}

func writeFile(f *flow.Flow, out config.Output, stderr io.Writer, opts []flow.Option) error {
	path := out.Path
	rows, err := flow.To(f, path, func(_ context.Context, t *table.Table) (int, error) {
		if out.Sheet != "" && strings.EqualFold(filepath.Ext(path), ".xlsx") {
			return t.Len(), exporter.ExcelFile(path, out.Sheet, t)
		}
		return t.Len(), exporter.Save(path, t)
	}).Execute(opts...)
	if err != nil {
		return err
	}
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	fmt.Fprintf(stderr, "wrote %s rows to %s (%s)\n",
		humanize.Comma(int64(rows)), path, humanize.Bytes(uint64(info.Size())))
	return nil
}

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// tableOpener reads every query source as a whole database table.
func tableOpener(db *sql.DB) query.Opener {
	return func(name string) *flow.Flow {
		if !identifier.MatchString(name) {
			return flow.From(name, flow.SourceFunc(func(context.Context) (*table.Table, error) {
				return nil, errors.Errorf("invalid table name %q", name)
			}))
		}
		return flow.FromSQL(db, "SELECT * FROM "+name)
	}
}
