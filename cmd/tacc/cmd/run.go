package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"tacc/pkg/vm"
)

var (
	runMaxSteps int
	runShowCode bool
)

var runCmd = &cobra.Command{
	Use:   "run FILE",
	Short: "Translate a file and execute it",
	Long: `Translates FILE and executes the resulting code on the reference
interpreter, then prints every variable the program wrote.

Examples:
  tacc run prog.tac
  tacc run --max-steps 1000 loop.tac`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().IntVar(&runMaxSteps, "max-steps", 0, "instruction limit (overrides config)")
	runCmd.Flags().BoolVar(&runShowCode, "code", false, "print the translated code before running it")
}

func runRun(cmd *cobra.Command, args []string) error {
	u, err := translateFile(logger, args[0])
	if err != nil {
		return err
	}
	res := u.res
	out := cmd.OutOrStdout()
	if runShowCode {
		fmt.Fprint(out, res.Program)
		fmt.Fprintln(out)
	}

	steps := cfg.VM.MaxSteps
	if runMaxSteps > 0 {
		steps = runMaxSteps
	}
	m, err := vm.New(res.Program.Instrs, vm.WithMaxSteps(steps))
	if err != nil {
		return err
	}
	if err := m.Run(cmd.Context()); err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}
	logger.Debug("run finished", "file", args[0], "steps", m.Steps)

	for _, c := range m.Cells() {
		fmt.Fprintf(out, "%-12s %s\n", c.Name, c.Value)
	}
	return nil
}
