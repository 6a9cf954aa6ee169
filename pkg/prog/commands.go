package prog

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"src.jsil.dev/pkg/buildinfo"
	"src.jsil.dev/pkg/emit"
	"src.jsil.dev/pkg/rt"
)

func (p *program) runCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run script...",
		Short: "Run scripts in order against one global environment; - reads the standard input",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			ev, err := p.newEngine()
			if err != nil {
				return err
			}
			defer ev.Close()
			for _, name := range args {
				src, err := p.readSource(name)
				if err != nil {
					return err
				}
				if err := ev.Execute(name, src); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func (p *program) evalCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "eval code",
		Short: "Evaluate code and print its completion value",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			ev, err := p.newEngine()
			if err != nil {
				return err
			}
			defer ev.Close()
			v, err := ev.Evaluate("[eval]", args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(p.stdout, rt.ToDisplayString(v))
			return nil
		},
	}
}

func (p *program) disasmCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "disasm script",
		Short: "Compile a script and print the generated program",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			src, err := p.readSource(args[0])
			if err != nil {
				return err
			}
			s, err := p.newSession()
			if err != nil {
				return err
			}
			prog, err := s.Compile(emit.GlobalUnit, args[0], src, false)
			if err != nil {
				return err
			}
			emit.Disassemble(p.stdout, prog)
			return nil
		},
	}
}

func (p *program) replCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Read, evaluate and print interactively",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			ev, err := p.newEngine()
			if err != nil {
				return err
			}
			defer ev.Close()
			return repl(ev, p.stdin, p.stdout, p.stderr)
		},
	}
}

func (p *program) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and maintain the code cache",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "Print the size and usage counters of the code cache",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			c := p.openCache(false)
			if c == nil {
				return errors.New("no code cache is configured")
			}
			n, err := c.Len()
			if err != nil {
				return err
			}
			st, err := c.Stats()
			if err != nil {
				return err
			}
			fmt.Fprintf(p.stdout, "programs: %d\nhits: %d\nmisses: %d\nsaves: %d\n", n, st.Hits, st.Misses, st.Saves)
			return nil
		},
	})
	var maxAge time.Duration
	prune := &cobra.Command{
		Use:   "prune",
		Short: "Remove stale programs and programs from incompatible versions",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			c := p.openCache(false)
			if c == nil {
				return errors.New("no code cache is configured")
			}
			n, err := c.Prune(maxAge)
			if err != nil {
				return err
			}
			fmt.Fprintf(p.stdout, "removed %d programs\n", n)
			return nil
		},
	}
	prune.Flags().DurationVar(&maxAge, "max-age", 0, "also remove programs unused for longer")
	cmd.AddCommand(prune)
	return cmd
}

func versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprint(cmd.OutOrStdout(), buildinfo.Describe())
			return nil
		},
	}
}

func (p *program) readSource(name string) (string, error) {
	if name == "-" {
		b, err := io.ReadAll(p.stdin)
		return string(b), errors.Wrap(err, "read standard input")
	}
	b, err := os.ReadFile(name)
	if err != nil {
		return "", errors.Wrap(err, "read script")
	}
	return string(b), nil
}
