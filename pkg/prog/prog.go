// Package prog implements the jsil command-line program.
package prog

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"src.jsil.dev/pkg/buildinfo"
	"src.jsil.dev/pkg/compile"
	"src.jsil.dev/pkg/diag"
	"src.jsil.dev/pkg/engine"
	"src.jsil.dev/pkg/logutil"
	"src.jsil.dev/pkg/store"
)

var logger = logutil.GetLogger("[prog] ")

// Run runs the program with the given standard files, command-line arguments
// (including the program name) and environment. It returns the exit status.
func Run(fds [3]*os.File, args []string, lookup LookupEnv) int {
	return run(fds[0], fds[1], fds[2], args[1:], lookup)
}

func run(stdin io.Reader, stdout, stderr io.Writer, args []string, lookup LookupEnv) int {
	p := &program{stdin: stdin, stdout: stdout, stderr: stderr, lookup: lookup}
	root := p.command()
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)
	err := root.Execute()
	p.close()
	if err == nil {
		return 0
	}
	switch err := err.(type) {
	case badUsageError:
		fmt.Fprintln(stderr, err.msg)
		fmt.Fprintln(stderr, root.UsageString())
		return 2
	case exitError:
		return err.exit
	}
	diag.ShowError(stderr, err)
	return 1
}

// BadUsage returns an error that causes the program to print the message
// and the usage and exit with 2.
func BadUsage(msg string) error { return badUsageError{msg} }

type badUsageError struct{ msg string }

func (e badUsageError) Error() string { return e.msg }

// Exit returns an error that causes the program to exit with the given
// status without printing anything. Exit(0) returns nil.
func Exit(exit int) error {
	if exit == 0 {
		return nil
	}
	return exitError{exit}
}

type exitError struct{ exit int }

func (e exitError) Error() string { return "" }

// program holds the state of one invocation.
type program struct {
	stdin          io.Reader
	stdout, stderr io.Writer
	lookup         LookupEnv

	configPath string
	flags      Config
	cfg        Config

	session *compile.Session
	cache   *store.CodeCache
}

func (p *program) command() *cobra.Command {
	root := &cobra.Command{
		Use:               "jsil",
		Short:             "Compile and run JavaScript on a typed stack machine",
		Version:           buildinfo.FullVersion(),
		SilenceErrors:     true,
		SilenceUsage:      true,
		PersistentPreRunE: p.setup,
	}
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return BadUsage(err.Error())
	})

	def := DefaultConfig()
	fs := root.PersistentFlags()
	fs.StringVar(&p.configPath, "config", "", "path to the YAML config file")
	fs.BoolVar(&p.flags.Strict, "strict", def.Strict, "compile every unit as strict code")
	fs.StringVar(&p.flags.Compat, "compat", def.Compat, "compatibility mode: latest or es3")
	fs.BoolVar(&p.flags.ILAnalysis, "il-analysis", def.ILAnalysis, "verify generated programs and log their disassembly")
	fs.StringVar(&p.flags.Cache, "cache", def.Cache, "path to the code cache; empty to disable")
	fs.DurationVar(&p.flags.CacheMaxAge, "cache-max-age", def.CacheMaxAge, "prune cached programs unused for longer; 0 to keep")
	fs.StringVar(&p.flags.LogLevel, "log-level", def.LogLevel, "log level: panic, fatal, error, warning, info, debug or trace")
	fs.StringVar(&p.flags.LogFile, "log-file", def.LogFile, "a file to write logs to")

	root.AddCommand(
		p.runCommand(),
		p.evalCommand(),
		p.disasmCommand(),
		p.replCommand(),
		p.cacheCommand(),
		versionCommand(),
	)
	return root
}

// setup loads the configuration and applies it to logging. Flags given on
// the command line override the configuration.
func (p *program) setup(cmd *cobra.Command, _ []string) error {
	lookup, err := DotEnvLookup(".env", p.lookup)
	if err != nil {
		return err
	}
	cfg, err := LoadConfig(p.configPath, lookup)
	if err != nil {
		return err
	}
	cmd.Flags().Visit(func(f *pflag.Flag) { applyFlag(&cfg, &p.flags, f.Name) })
	p.cfg = cfg

	if err := logutil.SetLevel(cfg.LogLevel); err != nil {
		return BadUsage(err.Error())
	}
	if cfg.LogFile != "" {
		if err := logutil.SetOutputFile(cfg.LogFile); err != nil {
			return errors.Wrap(err, "open log file")
		}
	} else {
		logutil.SetOutput(p.stderr)
	}
	logger.Debugf("configuration: %+v", cfg)
	return nil
}

func applyFlag(cfg, flags *Config, name string) {
	switch name {
	case "strict":
		cfg.Strict = flags.Strict
	case "compat":
		cfg.Compat = flags.Compat
	case "il-analysis":
		cfg.ILAnalysis = flags.ILAnalysis
	case "cache":
		cfg.Cache = flags.Cache
	case "cache-max-age":
		cfg.CacheMaxAge = flags.CacheMaxAge
	case "log-level":
		cfg.LogLevel = flags.LogLevel
	case "log-file":
		cfg.LogFile = flags.LogFile
	}
}

// openCache opens the configured code cache, pruning it if asked. Failing to
// open it is not fatal; programs are then only cached in memory.
func (p *program) openCache(prune bool) *store.CodeCache {
	if p.cache != nil || p.cfg.Cache == "" {
		return p.cache
	}
	if err := os.MkdirAll(filepath.Dir(p.cfg.Cache), 0o755); err != nil {
		logger.Warnf("cannot create code cache directory: %v", err)
		return nil
	}
	c, err := store.Open(p.cfg.Cache)
	if err != nil {
		logger.Warnf("continuing without code cache: %v", err)
		return nil
	}
	if prune {
		if _, err := c.Prune(p.cfg.CacheMaxAge); err != nil {
			logger.Warnf("cannot prune code cache: %v", err)
		}
	}
	p.cache = c
	return c
}

// newSession creates the compilation session of the invocation.
func (p *program) newSession() (*compile.Session, error) {
	opts, err := p.cfg.CompilerOptions()
	if err != nil {
		return nil, BadUsage(err.Error())
	}
	var cache compile.Cache
	if c := p.openCache(true); c != nil {
		cache = c
	}
	p.session = compile.NewSession(opts, cache)
	return p.session, nil
}

// newEngine creates an engine sharing the session of the invocation and
// printing to the standard output.
func (p *program) newEngine() (*engine.Engine, error) {
	s, err := p.newSession()
	if err != nil {
		return nil, err
	}
	return engine.New(s.Options(), engine.WithSession(s), engine.WithOutput(p.stdout)), nil
}

func (p *program) close() {
	switch {
	case p.session != nil:
		// Closes the cache too.
		if err := p.session.Close(); err != nil {
			logger.Warnf("close session: %v", err)
		}
	case p.cache != nil:
		if err := p.cache.Close(); err != nil {
			logger.Warnf("close code cache: %v", err)
		}
	}
	logutil.SetOutput(io.Discard)
}
