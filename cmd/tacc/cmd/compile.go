package cmd

import (
	"fmt"
	"io"
	"runtime"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"tacc/pkg/compiler"
	"tacc/pkg/ir"
)

var (
	compileFormat   string
	compileAnnotate bool
	compileTokens   bool
	compileTree     bool
)

var compileCmd = &cobra.Command{
	Use:   "compile FILE...",
	Short: "Print the three-address code of each file",
	Long: `Translates every file and prints its instruction stream in argument order.
Files are translated concurrently, each in its own session.

Examples:
  tacc compile prog.tac
  tacc compile --annotate a.tac b.tac
  tacc compile --format yaml prog.tac
  tacc compile --tokens --tree prog.tac`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCompile,
}

func init() {
	rootCmd.AddCommand(compileCmd)

	compileCmd.Flags().StringVarP(&compileFormat, "format", "f", "", "output format: text or yaml (overrides config)")
	compileCmd.Flags().BoolVar(&compileAnnotate, "annotate", false, "append the source line to each instruction")
	compileCmd.Flags().BoolVar(&compileTokens, "tokens", false, "list the tokens before the code (text format)")
	compileCmd.Flags().BoolVar(&compileTree, "tree", false, "print the translated statements before the code (text format)")
}

func runCompile(cmd *cobra.Command, args []string) error {
	format := cfg.Output.Format
	if compileFormat != "" {
		format = compileFormat
	}
	if format != "text" && format != "yaml" {
		return fmt.Errorf("unsupported format %q (want text or yaml)", format)
	}
	annotate := cfg.Output.Annotate || compileAnnotate

	units := make([]*unit, len(args))
	errs := make([]error, len(args))

	g, gctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, path := range args {
		i, path := i, path
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			// a failed file does not stop the others
			units[i], errs[i] = translateFile(logger, path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	failed := 0
	for i := range args {
		if errs[i] != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), errs[i])
			failed++
			continue
		}
		if err := writeUnit(out, units[i], format, annotate, len(args) > 1); err != nil {
			return err
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed to translate", failed, len(args))
	}
	return nil
}

func writeUnit(w io.Writer, u *unit, format string, annotate, header bool) error {
	instrs := u.res.Program.Instrs
	if format == "yaml" {
		data, err := ir.MarshalYAML(instrs)
		if err != nil {
			return err
		}
		if header {
			fmt.Fprintf(w, "---\n# %s\n", u.path)
		}
		_, err = w.Write(data)
		return err
	}

	if header {
		fmt.Fprintf(w, "# %s\n", u.path)
	}
	if compileTokens {
		// the source already translated, so it lexes cleanly
		tokens, err := compiler.Lex(u.src)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "Tokens (%d)\n", len(tokens))
		for _, tok := range tokens {
			fmt.Fprintln(w, " ", tok)
		}
		fmt.Fprintln(w)
	}
	if compileTree {
		fmt.Fprintf(w, "Tree\n  %s\n\n", u.res.Tree)
	}
	if compileTokens || compileTree {
		fmt.Fprintln(w, "Code")
	}
	return ir.Printer{Annotate: annotate}.Fprint(w, instrs)
}
