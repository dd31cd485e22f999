package cmd

import (
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"tacc/pkg/ir"
)

const watchDebounce = 200 * time.Millisecond

var watchCmd = &cobra.Command{
	Use:   "watch FILE",
	Short: "Retranslate a file whenever it changes",
	Long: `Translates FILE, prints the code, and translates it again from scratch
once writes to the file have settled. Translation errors are reported and
watching continues. Stop with Ctrl-C.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	path, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}
	out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	// Editors often replace the file rather than write it, so watch the
	// directory and filter by name.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("failed to watch directory: %w", err)
	}
	logger.Info("watching", "file", path)

	retranslate(out, errOut, path)

	// a burst of events, such as a truncate followed by a write, is
	// translated once after it settles
	var settle <-chan time.Time
	ctx := cmd.Context()
	for {
		select {
		case <-ctx.Done():
			logger.Info("stopped watching", "file", path)
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			logger.Debug("file changed", "file", path, "op", event.Op.String())
			settle = time.After(watchDebounce)

		case <-settle:
			settle = nil
			retranslate(out, errOut, path)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher error", "error", err)
		}
	}
}

func retranslate(out, errOut io.Writer, path string) {
	u, err := translateFile(logger, path)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return
	}
	fmt.Fprintf(out, "# %s  %s\n", filepath.Base(path), time.Now().Format(time.TimeOnly))
	if err := (ir.Printer{Annotate: cfg.Output.Annotate}).Fprint(out, u.res.Program.Instrs); err != nil {
		logger.Error("write failed", "error", err)
	}
}
