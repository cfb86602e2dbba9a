package cmd

import (
	"errors"
	"io/fs"
	"os"

	"github.com/mish-shell/mish/core/config"
	"github.com/mish-shell/mish/core/pipeline"
	"github.com/mish-shell/mish/core/shell"
	"github.com/spf13/cobra"
)

// runCmd starts an interactive session, or executes a script file when
// one is given.
var runCmd = &cobra.Command{
	Use:   "run [script]",
	Short: "Start the shell, or run a script file through it.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		configuration, err := loadConfig()
		if errors.Is(err, fs.ErrNotExist) {
			configuration = config.Default()
		} else if err != nil {
			return err
		}

		sh, err := shell.New(configuration, pipeline.NewRunner())
		if err != nil {
			return err
		}

		if len(args) == 1 {
			fd, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer fd.Close()
			return sh.RunScript(fd)
		}

		return sh.Run()
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
