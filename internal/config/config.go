// Package config assembles the debugger's runtime settings: the
// simulator argv plus-args (spec.md §4.5, §6) and an optional
// source-map file, following the teacher's config.Config/NewConfig
// load-then-use shape (config/io.go), generalized from a JSON
// targets file to plus-arg discovery plus a viper-loaded mapping
// file.
package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const (
	// DefaultPort is used when no +DEBUG_PORT= plus-arg is present or
	// it fails to parse, matching Debugger::default_port_num.
	DefaultPort = 8888

	plusPortPrefix = "+DEBUG_PORT="
	plusLogFlag    = "+DEBUG_LOG"
	skipDBLoadFlag = "--debug-skip-db-load"
)

// Config is the settings a Session needs to start: where to listen,
// whether info-level logging is on, whether the `connection` request
// should skip loading a symbol database (debugging the debugger
// itself), and the source path remap table.
type Config struct {
	ListenAddr string
	DebugLog   bool
	SkipDBLoad bool
	SourceMap  map[string]string
}

// FromArgv builds a Config by scanning the simulator's argv
// (Provider.GetArgv) for plus-args, matching Debugger::get_port,
// Debugger::get_logging, and Debugger::has_cli_flag exactly: the
// first +DEBUG_PORT= argument wins, an unparsable value falls back
// to DefaultPort, +DEBUG_LOG and --debug-skip-db-load are checked by
// exact match.
func FromArgv(argv []string) *Config {
	c := &Config{
		ListenAddr: fmt.Sprintf(":%d", DefaultPort),
		SourceMap:  map[string]string{},
	}
	portSet := false
	for _, arg := range argv {
		switch {
		case strings.HasPrefix(arg, plusPortPrefix):
			if portSet {
				continue
			}
			portSet = true
			portStr := strings.TrimPrefix(arg, plusPortPrefix)
			port, err := strconv.ParseUint(portStr, 10, 16)
			if err != nil {
				port = DefaultPort
			}
			c.ListenAddr = fmt.Sprintf(":%d", port)
		case arg == plusLogFlag:
			c.DebugLog = true
		case arg == skipDBLoadFlag:
			c.SkipDBLoad = true
		}
	}
	return c
}

// sourceMapEntry is one row of the source-map file: {db_prefix,
// client_prefix}.
type sourceMapEntry struct {
	DBPrefix     string `mapstructure:"db_prefix"`
	ClientPrefix string `mapstructure:"client_prefix"`
}

// LoadSourceMap reads path (JSON, YAML, or TOML, whichever viper
// detects from its extension) and replaces c.SourceMap with the
// db_prefix -> client_prefix table it describes. An empty or missing
// path is a no-op, matching "path mapping not supported yet" being
// optional in the original's handle_connection.
func (c *Config) LoadSourceMap(path string) error {
	if path == "" {
		return nil
	}
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return errors.Wrapf(err, "config: read source map %s", path)
	}
	var entries []sourceMapEntry
	if err := v.UnmarshalKey("mappings", &entries); err != nil {
		return errors.Wrapf(err, "config: parse source map %s", path)
	}
	m := make(map[string]string, len(entries))
	for _, e := range entries {
		m[e.DBPrefix] = e.ClientPrefix
	}
	c.SourceMap = m
	return nil
}
