package cmd

import (
	"errors"
	"io/fs"
	"log"
	"os"
	"path/filepath"

	"github.com/mish-shell/mish/core/config"
	"github.com/spf13/cobra"
)

var cfgPath string

// configDir resolves the --config flag, defaulting to ~/.mish.
func configDir() string {
	if cfgPath != "" {
		return cfgPath
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return config.DefaultDirName
	}
	return filepath.Join(home, config.DefaultDirName)
}

func loadConfig() (*config.Configuration, error) {
	configuration, err := config.Load(configDir())

	if errors.Is(err, fs.ErrNotExist) {
		log.Println("Couldn't load config: did you run init?")
	}

	return configuration, err
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "mish",
	Short: "Mines shell",
	Long:  `A small interactive shell with pipelines, redirection and background jobs.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "config path (default ~/.mish)")
}
