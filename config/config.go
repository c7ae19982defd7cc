// Package config holds the CLI configuration, read from a TOML file.
package config

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config is the top level configuration.
//
//	[execution]
//	mode = "debug"
//	performance = true
//	parallel = true
//
//	[log]
//	level = "info"
//	format = "json"
//
//	[output]
//	format = "table"
type Config struct {
	Execution Execution `toml:"execution"`
	Log       Log       `toml:"log"`
	Output    Output    `toml:"output"`
}

// Execution configures how flows run.
type Execution struct {
	Mode        string `toml:"mode"`        // release or debug
	Performance bool   `toml:"performance"` // print the per-node performance log
	Parallel    bool   `toml:"parallel"`
}

type Log struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // console or json
}

// Output selects where results go. An empty path prints to stdout.
type Output struct {
	Format string `toml:"format"` // table, json or csv when printing
	Path   string `toml:"path"`
	Sheet  string `toml:"sheet"`
}

// Default returns the settings used without a config file.
func Default() *Config {
	return &Config{
		Execution: Execution{Mode: "release"},
		Log:       Log{Level: "warn", Format: "console"},
		Output:    Output{Format: "table"},
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	c := Default()
	if path == "" {
		return c, nil
	}
	md, err := toml.DecodeFile(path, c)
	if err != nil {
		return nil, err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown configuration key %q in %s", undecoded[0].String(), path)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate returns an error if the config is invalid.
func (c *Config) Validate() error {
	switch c.Execution.Mode {
	case "release", "debug":
	default:
		return fmt.Errorf("invalid execution mode %q", c.Execution.Mode)
	}
	if _, err := c.Log.level(); err != nil {
		return err
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.Log.Format)
	}
	switch c.Output.Format {
	case "table", "json", "csv":
	default:
		return fmt.Errorf("unknown output format %q", c.Output.Format)
	}
	return nil
}

func (l Log) level() (zapcore.Level, error) {
	switch strings.ToUpper(l.Level) {
	case "DEBUG":
		return zap.DebugLevel, nil
	case "INFO":
		return zap.InfoLevel, nil
	case "WARN":
		return zap.WarnLevel, nil
	case "ERROR":
		return zap.ErrorLevel, nil
	}
	return zap.InfoLevel, fmt.Errorf("unknown log level %q", l.Level)
}

// NewLogger builds a logger writing to w.
func (l Log) NewLogger(w zapcore.WriteSyncer) (*zap.Logger, error) {
	level, err := l.level()
	if err != nil {
		return nil, err
	}
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var enc zapcore.Encoder
	switch l.Format {
	case "json":
		enc = zapcore.NewJSONEncoder(encCfg)
	case "console":
		enc = zapcore.NewConsoleEncoder(encCfg)
	default:
		return nil, fmt.Errorf("unknown log format %q", l.Format)
	}
	return zap.New(zapcore.NewCore(enc, w, zap.NewAtomicLevelAt(level))), nil
}
